package certificate

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/kambejat/undiziwa/internal"
	"github.com/kambejat/undiziwa/internal/auth"
	"github.com/kambejat/undiziwa/internal/storage"
)

// Repository interface defines the data access methods for certificates
type Repository interface {
	Create(cert *Certificate) error
	GetByID(id int64) (*Certificate, error)
	List(filter ListFilter) ([]*Certificate, error)
	Delete(id int64) error
}

// Service handles certificate registry business logic
type Service struct {
	repo   Repository
	files  storage.FileStore
	logger *slog.Logger
}

func NewService(repo Repository, files storage.FileStore, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		files:  files,
		logger: logger,
	}
}

// Submit registers a certificate, writing its evidence file first so that no
// record ever references a file that was not durably stored.
func (s *Service) Submit(dto SubmitCertificateDTO, uploadedBy *int64, evidenceName string, evidence io.Reader) (*Certificate, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var fileRef string
	if evidence != nil {
		ref, err := s.files.Save(evidenceName, evidence)
		if err != nil {
			s.logger.Error("failed to store evidence file", "error", err, "name", evidenceName)
			return nil, internal.NewStorageError("failed to store evidence file", err)
		}
		fileRef = ref
	}

	cert := &Certificate{
		StudentName:    dto.StudentName,
		StudentNumber:  dto.StudentNumber,
		CourseName:     dto.CourseName,
		GraduationYear: dto.GraduationYear,
		InstitutionID:  dto.InstitutionID,
		UploadedBy:     uploadedBy,
		FileRef:        fileRef,
		Verified:       false,
		UploadedAt:     time.Now(),
	}

	if err := s.repo.Create(cert); err != nil {
		// keep store and registry consistent when the record write fails
		if fileRef != "" {
			if delErr := s.files.Delete(fileRef); delErr != nil {
				s.logger.Error("failed to clean up evidence file", "error", delErr, "ref", fileRef)
			}
		}
		s.logger.Error("failed to create certificate", "error", err)
		return nil, internal.NewStorageError("failed to create certificate", err)
	}

	s.logger.Info("certificate registered",
		"certificate_id", cert.ID,
		"institution_id", cert.InstitutionID,
		"student", cert.StudentName)

	return cert, nil
}

func (s *Service) GetByID(id int64) (*Certificate, error) {
	cert, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrCertificateNotFound
	}
	return cert, nil
}

// List returns certificates visible to the principal. hr and
// institution_admin are restricted to their own institution regardless of the
// requested filter.
func (s *Service) List(principal *auth.Principal, filter ListFilter) ([]*Certificate, error) {
	if !principal.Role.CrossInstitution() {
		if principal.InstitutionID == nil {
			return nil, internal.NewValidationError("principal has no institution affiliation", internal.ErrCodeInstitutionReq)
		}
		filter.InstitutionID = *principal.InstitutionID
	}

	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	certs, err := s.repo.List(filter)
	if err != nil {
		s.logger.Error("failed to list certificates", "error", err)
		return nil, internal.NewStorageError("failed to list certificates", err)
	}
	return certs, nil
}

// Delete removes the certificate and its stored evidence. A missing evidence
// file does not fail the delete.
func (s *Service) Delete(id int64) error {
	cert, err := s.repo.GetByID(id)
	if err != nil {
		return internal.ErrCertificateNotFound
	}

	if cert.FileRef != "" {
		if err := s.files.Delete(cert.FileRef); err != nil {
			s.logger.Error("failed to delete evidence file", "error", err, "ref", cert.FileRef)
			return internal.NewStorageError("failed to delete evidence file", err)
		}
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete certificate", "error", err, "certificate_id", id)
		return internal.NewStorageError("failed to delete certificate", err)
	}

	s.logger.Info("certificate deleted", "certificate_id", id)
	return nil
}

// Download streams the evidence file. NotFound covers a missing certificate,
// a certificate without an attachment, and a dangling reference.
func (s *Service) Download(id int64) (io.ReadCloser, string, error) {
	cert, err := s.repo.GetByID(id)
	if err != nil {
		return nil, "", internal.ErrCertificateNotFound
	}

	if cert.FileRef == "" {
		return nil, "", internal.NewNotFoundError("this certificate has no file attached", internal.ErrCodeFileNotFound)
	}

	rc, err := s.files.Open(cert.FileRef)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", internal.ErrFileNotFound
		}
		return nil, "", internal.NewStorageError("failed to open evidence file", err)
	}

	return rc, cert.FileRef, nil
}
