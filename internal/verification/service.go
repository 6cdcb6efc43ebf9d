package verification

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/kambejat/undiziwa/internal"
	"github.com/kambejat/undiziwa/internal/auth"
	"github.com/kambejat/undiziwa/internal/certificate"
	"github.com/kambejat/undiziwa/internal/institution"
	"github.com/kambejat/undiziwa/internal/notification"
)

// Repository interface defines the data access methods for verifications.
// ResolvePending is the single concurrency guard on the state machine: it
// applies a terminal status with a conditional update keyed on
// status=pending, atomically with the certificate flip when the decision is
// valid. It reports whether the transition was applied.
type Repository interface {
	Create(v *Verification) error
	GetByID(id int64) (*Verification, error)
	ListByInstitution(institutionID int64, status *Status, limit, offset int) ([]*Verification, error)
	ListPendingAutomated(limit int) ([]*Verification, error)
	ResolvePending(id int64, status Status, resultJSON string, verifiedAt time.Time, markCertificate bool) (bool, error)
	Delete(id int64) error
}

// CertificateRegistry is the slice of the certificate service the state
// machine depends on.
type CertificateRegistry interface {
	Submit(dto certificate.SubmitCertificateDTO, uploadedBy *int64, evidenceName string, evidence io.Reader) (*certificate.Certificate, error)
	GetByID(id int64) (*certificate.Certificate, error)
}

// InstitutionDirectory resolves the institution expected to confirm.
type InstitutionDirectory interface {
	GetByID(id int64) (*institution.Institution, error)
}

// Service drives the verification state machine
type Service struct {
	repo         Repository
	certificates CertificateRegistry
	institutions InstitutionDirectory
	mailer       notification.Sender
	baseURL      string
	logger       *slog.Logger
}

func NewService(repo Repository, certificates CertificateRegistry, institutions InstitutionDirectory, mailer notification.Sender, baseURL string, logger *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		certificates: certificates,
		institutions: institutions,
		mailer:       mailer,
		baseURL:      baseURL,
		logger:       logger,
	}
}

// Request validates the submission, registers the certificate, and opens a
// pending verification bound to the certificate's institution. The requester
// may be nil (unauthenticated submissions are allowed).
func (s *Service) Request(dto RequestVerificationDTO, requester *auth.Principal, evidenceName string, evidence io.Reader) (*Verification, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	inst, err := s.institutions.GetByID(dto.InstitutionID)
	if err != nil {
		return nil, internal.ErrInstitutionNotFound
	}

	var requestedBy *int64
	if requester != nil {
		requestedBy = &requester.UserID
	}

	cert, err := s.certificates.Submit(certificate.SubmitCertificateDTO{
		StudentName:    dto.StudentName,
		StudentNumber:  dto.StudentNumber,
		CourseName:     dto.CourseName,
		GraduationYear: dto.GraduationYear,
		InstitutionID:  inst.ID,
	}, requestedBy, evidenceName, evidence)
	if err != nil {
		return nil, err
	}

	method := MethodManualForm
	if dto.Method != "" {
		method, _ = ParseMethod(dto.Method)
	}

	v := &Verification{
		CertificateID: cert.ID,
		RequestedBy:   requestedBy,
		InstitutionID: inst.ID,
		Status:        StatusPending,
		Method:        method,
		RequestedAt:   time.Now(),
	}

	if err := s.repo.Create(v); err != nil {
		s.logger.Error("failed to create verification", "error", err, "certificate_id", cert.ID)
		return nil, internal.NewStorageError("failed to create verification", err)
	}

	// Notification is fire-and-forget: a missing contact channel or a failed
	// send never fails the request.
	if inst.ContactEmail != "" {
		msg := notification.VerificationRequestMessage(
			cert.StudentName, cert.StudentNumber, cert.CourseName, cert.GraduationYear,
			s.verificationURL(v.ID), dto.Message)
		if err := s.mailer.Send(inst.ContactEmail, msg.Subject, msg.HTMLBody); err != nil {
			s.logger.Error("failed to notify institution", "error", err, "verification_id", v.ID)
		}
	}

	s.logger.Info("verification requested",
		"verification_id", v.ID,
		"certificate_id", cert.ID,
		"institution_id", inst.ID)

	return v, nil
}

func (s *Service) GetByID(id int64) (*Verification, error) {
	v, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrVerificationNotFound
	}
	return v, nil
}

// ListForInstitution returns the verification queue for the principal's own
// institution, optionally narrowed by status.
func (s *Service) ListForInstitution(principal *auth.Principal, status *Status, limit, offset int) ([]*Verification, error) {
	if principal.InstitutionID == nil {
		return nil, internal.NewValidationError("principal has no institution affiliation", internal.ErrCodeInstitutionReq)
	}

	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	list, err := s.repo.ListByInstitution(*principal.InstitutionID, status, limit, offset)
	if err != nil {
		s.logger.Error("failed to list verifications", "error", err)
		return nil, internal.NewStorageError("failed to list verifications", err)
	}
	return list, nil
}

// Resolve applies a manual decision. Only staff of the verification's own
// institution may resolve it; cross-institution confirmation is never
// permitted, gov_admin and super_admin included. A verification already in a
// terminal status yields a conflict, never a silent no-op.
func (s *Service) Resolve(id int64, principal *auth.Principal, decision Status) (*Verification, error) {
	if decision != StatusValid && decision != StatusInvalid {
		return nil, internal.NewValidationError("decision must be valid or invalid", internal.ErrCodeInvalidStatus)
	}

	v, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrVerificationNotFound
	}

	if principal.InstitutionID == nil || *principal.InstitutionID != v.InstitutionID {
		s.logger.Warn("cross-institution resolution denied",
			"verification_id", id,
			"user_id", principal.UserID,
			"verification_institution", v.InstitutionID)
		return nil, internal.ErrInstitutionMismatch
	}

	if v.Status.Terminal() {
		return nil, internal.ErrAlreadyResolved
	}

	return s.applyTerminal(v, decision)
}

// RunAutomated executes the system-triggered path for non-manual methods: a
// trusted lookup against the local certificate registry. It bypasses the
// institution match (no principal is acting) but still honors terminal-state
// immutability.
func (s *Service) RunAutomated(id int64) (*Verification, error) {
	v, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrVerificationNotFound
	}

	if v.Status.Terminal() {
		return nil, internal.ErrAlreadyResolved
	}

	decision := StatusValid
	if _, err := s.certificates.GetByID(v.CertificateID); err != nil {
		decision = StatusNotFound
	}

	return s.applyTerminal(v, decision)
}

// SweepAutomated resolves a batch of pending verifications that arrived
// through a non-manual method. Used by the background worker; each item runs
// independently so one failure never stalls the batch.
func (s *Service) SweepAutomated(batchSize int) (int, error) {
	if batchSize < 1 {
		batchSize = 50
	}

	pending, err := s.repo.ListPendingAutomated(batchSize)
	if err != nil {
		return 0, internal.NewStorageError("failed to list pending verifications", err)
	}

	resolved := 0
	for _, v := range pending {
		if _, err := s.RunAutomated(v.ID); err != nil {
			s.logger.Error("automated verification failed", "error", err, "verification_id", v.ID)
			continue
		}
		resolved++
	}

	return resolved, nil
}

// Remind re-sends the notification for a still-pending verification.
// Reminders for terminal verifications are rejected rather than silently
// delivered.
func (s *Service) Remind(id int64) error {
	v, err := s.repo.GetByID(id)
	if err != nil {
		return internal.ErrVerificationNotFound
	}

	if v.Status.Terminal() {
		return internal.ErrAlreadyResolved
	}

	cert, err := s.certificates.GetByID(v.CertificateID)
	if err != nil {
		return internal.ErrCertificateNotFound
	}

	inst, err := s.institutions.GetByID(v.InstitutionID)
	if err != nil {
		return internal.ErrInstitutionNotFound
	}

	if inst.ContactEmail == "" {
		s.logger.Info("reminder skipped: institution has no contact channel", "verification_id", id)
		return nil
	}

	msg := notification.VerificationReminderMessage(
		cert.StudentName, cert.StudentNumber, cert.CourseName, cert.GraduationYear,
		s.verificationURL(v.ID))
	if err := s.mailer.Send(inst.ContactEmail, msg.Subject, msg.HTMLBody); err != nil {
		s.logger.Error("failed to send reminder", "error", err, "verification_id", id)
	}

	return nil
}

// Delete removes the verification record. A verified flag already set on the
// backing certificate is never reverted; history is best-effort, not a
// ledger.
func (s *Service) Delete(id int64) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return internal.ErrVerificationNotFound
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete verification", "error", err, "verification_id", id)
		return internal.NewStorageError("failed to delete verification", err)
	}

	return nil
}

func (s *Service) applyTerminal(v *Verification, decision Status) (*Verification, error) {
	resultJSON := resultNotVerified
	markCertificate := false
	if decision == StatusValid {
		resultJSON = resultVerified
		markCertificate = true
	}

	verifiedAt := time.Now()
	applied, err := s.repo.ResolvePending(v.ID, decision, resultJSON, verifiedAt, markCertificate)
	if err != nil {
		s.logger.Error("failed to resolve verification", "error", err, "verification_id", v.ID)
		return nil, internal.NewStorageError("failed to resolve verification", err)
	}
	if !applied {
		// lost the race: another resolution reached the terminal state first
		return nil, internal.ErrAlreadyResolved
	}

	v.Status = decision
	v.ResultJSON = resultJSON
	v.VerifiedAt = &verifiedAt

	s.logger.Info("verification resolved",
		"verification_id", v.ID,
		"status", decision,
		"certificate_id", v.CertificateID)

	return v, nil
}

func (s *Service) verificationURL(id int64) string {
	return fmt.Sprintf("%s/api/v1/verifications/%d", s.baseURL, id)
}
