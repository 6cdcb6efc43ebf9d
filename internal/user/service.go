package user

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kambejat/undiziwa/internal"
	"github.com/kambejat/undiziwa/internal/auth"
	"github.com/kambejat/undiziwa/internal/credential"
	"github.com/kambejat/undiziwa/internal/notification"
)

// Repository interface defines the data access methods for users
type Repository interface {
	Create(u *User) error
	GetByID(id int64) (*User, error)
	List(filter ListFilter) ([]*User, int64, error)
	UpdatePermission(id int64, role *string, isActive *bool) error
}

// TokenIssuer mints reset tokens; backed by the credential service.
type TokenIssuer interface {
	IssueToken(userID int64, ttl time.Duration) (string, error)
	HashPassword(password string) (string, error)
}

// AuditSink records privileged actions. Append is fire-and-forget: it never
// blocks or fails the triggering action.
type AuditSink interface {
	Append(action string, targetUserID *int64, performedBy string, meta map[string]any)
}

// Service handles user management business logic
type Service struct {
	repo    Repository
	tokens  TokenIssuer
	mailer  notification.Sender
	audit   AuditSink
	baseURL string
	logger  *slog.Logger
}

func NewService(repo Repository, tokens TokenIssuer, mailer notification.Sender, audit AuditSink, baseURL string, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		tokens:  tokens,
		mailer:  mailer,
		audit:   audit,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (s *Service) GetByID(id int64) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

func (s *Service) List(filter ListFilter) (*ListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 || filter.PerPage > 100 {
		filter.PerPage = 10
	}

	users, total, err := s.repo.List(filter)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, internal.NewStorageError("failed to list users", err)
	}

	pages := int((total + int64(filter.PerPage) - 1) / int64(filter.PerPage))
	return &ListResult{
		Users:   users,
		Total:   total,
		Page:    filter.Page,
		PerPage: filter.PerPage,
		Pages:   pages,
	}, nil
}

// Create registers a user within the creating principal's institution scope,
// assigns an unusable random password, and mails a 24h invite token.
func (s *Service) Create(principal *auth.Principal, dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	institutionID, err := auth.EnforceInstitutionScope(principal, dto.InstitutionID)
	if err != nil {
		return nil, err
	}

	initialPassword, err := credential.GeneratePassword(12)
	if err != nil {
		return nil, internal.NewInternalError("failed to generate password", err)
	}
	hash, err := s.tokens.HashPassword(initialPassword)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Username:      dto.Username,
		FullName:      dto.FullName,
		Email:         dto.Email,
		Phone:         dto.Phone,
		PasswordHash:  hash,
		Role:          dto.Role,
		InstitutionID: &institutionID,
		IsActive:      true,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.Create(u); err != nil {
		s.logger.Error("failed to create user", "error", err, "username", dto.Username)
		return nil, internal.NewStorageError("failed to create user", err)
	}

	token, err := s.tokens.IssueToken(u.ID, credential.InviteTokenTTL)
	if err != nil {
		return nil, err
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	s.sendMail(u.Email, notification.InviteMessage(u.Username, resetLink))

	s.audit.Append("create_user_invite", &u.ID, principal.Username, map[string]any{
		"institution_id": institutionID,
		"role":           u.Role,
	})

	s.logger.Info("user created and invited",
		"user_id", u.ID,
		"username", u.Username,
		"institution_id", institutionID)

	return u, nil
}

// UpdatePermission changes role and/or active flag. Role-gating to
// gov_admin/super_admin is enforced at the transport layer.
func (s *Service) UpdatePermission(principal *auth.Principal, targetID int64, dto UpdatePermissionDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(targetID); err != nil {
		return nil, internal.ErrUserNotFound
	}

	if err := s.repo.UpdatePermission(targetID, dto.Role, dto.IsActive); err != nil {
		s.logger.Error("failed to update permission", "error", err, "target_user_id", targetID)
		return nil, internal.NewStorageError("failed to update permission", err)
	}

	s.audit.Append("update_permission", &targetID, principal.Username, nil)

	return s.repo.GetByID(targetID)
}

// AdminResetPassword issues a short-lived forced-reset token and mails it.
func (s *Service) AdminResetPassword(principal *auth.Principal, targetID int64) error {
	target, err := s.repo.GetByID(targetID)
	if err != nil {
		return internal.ErrUserNotFound
	}

	token, err := s.tokens.IssueToken(target.ID, credential.AdminResetTokenTTL)
	if err != nil {
		return err
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	s.sendMail(target.Email, notification.AdminResetMessage(resetLink))

	s.audit.Append("admin_trigger_reset", &target.ID, principal.Username, nil)

	s.logger.Info("admin-triggered password reset", "target_user_id", target.ID, "performed_by", principal.Username)
	return nil
}

// sendMail dispatches fire-and-forget; a failed send never fails the action.
func (s *Service) sendMail(to string, msg notification.Message) {
	if to == "" {
		return
	}
	if err := s.mailer.Send(to, msg.Subject, msg.HTMLBody); err != nil {
		s.logger.Error("failed to send email", "error", err, "to", to, "subject", msg.Subject)
	}
}
