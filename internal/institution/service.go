package institution

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/kambejat/undiziwa/internal"
	"github.com/kambejat/undiziwa/internal/auth"
)

// Repository interface defines the data access methods for institutions
type Repository interface {
	Create(inst *Institution) error
	GetByID(id int64) (*Institution, error)
	List() ([]*Institution, error)
	Update(inst *Institution) error
	Delete(id int64) error
	VerificationCounts(institutionID int64) (pending, completed int64, err error)
}

// Service handles institution business logic
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Create registers an institution and mints its API credential pair.
func (s *Service) Create(dto CreateInstitutionDTO) (*Institution, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	inst := &Institution{
		Name:         dto.Name,
		ContactEmail: dto.ContactEmail,
		ContactPhone: dto.ContactPhone,
		Address:      dto.Address,
		APIURL:       fmt.Sprintf("https://api.undiziwa.example/%s", randomHex(4)),
		APIToken:     randomHex(16),
		IsActive:     true,
	}

	if err := s.repo.Create(inst); err != nil {
		s.logger.Error("failed to create institution", "error", err, "name", dto.Name)
		return nil, internal.NewStorageError("failed to create institution", err)
	}

	s.logger.Info("institution created", "institution_id", inst.ID, "name", inst.Name)
	return inst, nil
}

func (s *Service) GetByID(id int64) (*Institution, error) {
	inst, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrInstitutionNotFound
	}
	return inst, nil
}

func (s *Service) List() ([]*Institution, error) {
	insts, err := s.repo.List()
	if err != nil {
		s.logger.Error("failed to list institutions", "error", err)
		return nil, internal.NewStorageError("failed to list institutions", err)
	}
	return insts, nil
}

// ListPublic exposes the reduced shape used by the verification request form.
func (s *Service) ListPublic() ([]PublicView, error) {
	insts, err := s.List()
	if err != nil {
		return nil, err
	}

	views := make([]PublicView, len(insts))
	for i, inst := range insts {
		views[i] = inst.Public()
	}
	return views, nil
}

func (s *Service) Update(id int64, dto UpdateInstitutionDTO) (*Institution, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	inst, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrInstitutionNotFound
	}

	if dto.Name != nil {
		inst.Name = *dto.Name
	}
	if dto.ContactEmail != nil {
		inst.ContactEmail = *dto.ContactEmail
	}
	if dto.ContactPhone != nil {
		inst.ContactPhone = *dto.ContactPhone
	}
	if dto.Address != nil {
		inst.Address = *dto.Address
	}
	if dto.IsActive != nil {
		inst.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(inst); err != nil {
		s.logger.Error("failed to update institution", "error", err, "institution_id", id)
		return nil, internal.NewStorageError("failed to update institution", err)
	}

	return inst, nil
}

func (s *Service) Delete(id int64) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return internal.ErrInstitutionNotFound
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete institution", "error", err, "institution_id", id)
		return internal.NewStorageError("failed to delete institution", err)
	}

	return nil
}

// Dashboard summarizes the verification queue for the principal's own
// institution.
func (s *Service) Dashboard(principal *auth.Principal) (*Dashboard, error) {
	if principal.InstitutionID == nil {
		return nil, internal.NewValidationError("principal has no institution affiliation", internal.ErrCodeInstitutionReq)
	}

	inst, err := s.repo.GetByID(*principal.InstitutionID)
	if err != nil {
		return nil, internal.ErrInstitutionNotFound
	}

	pending, completed, err := s.repo.VerificationCounts(inst.ID)
	if err != nil {
		s.logger.Error("failed to count verifications", "error", err, "institution_id", inst.ID)
		return nil, internal.NewStorageError("failed to count verifications", err)
	}

	return &Dashboard{
		Institution: inst,
		Pending:     pending,
		Completed:   completed,
	}, nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(b)
}
