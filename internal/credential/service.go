package credential

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"math/big"
	"time"

	"github.com/kambejat/undiziwa/internal"
	"golang.org/x/crypto/bcrypt"
)

// Repository persists reset tokens. Redeem must be atomic: the used flag and
// the new password hash are written in one transaction guarded by a
// conditional update, so a token can never be redeemed twice.
type Repository interface {
	Create(token *PasswordResetToken) error
	Redeem(token string, now time.Time, newPasswordHash string) error
}

type Service struct {
	repo       Repository
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// IssueToken creates a fresh opaque token bound to the user with the given
// lifetime and returns its value.
func (s *Service) IssueToken(userID int64, ttl time.Duration) (string, error) {
	token, err := GenerateRandomToken()
	if err != nil {
		return "", internal.NewInternalError("failed to generate reset token", err)
	}

	now := time.Now()
	prt := &PasswordResetToken{
		UserID:    userID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		Used:      false,
	}

	if err := s.repo.Create(prt); err != nil {
		return "", internal.NewStorageError("failed to store reset token", err)
	}

	s.logger.Info("reset token issued", "user_id", userID, "expires_at", prt.ExpiresAt)
	return token, nil
}

// Confirm redeems a token and sets the new password. A token that is unknown,
// expired or already used yields ErrResetTokenUnavailable.
func (s *Service) Confirm(token, newPassword string) error {
	if token == "" || newPassword == "" {
		return internal.NewValidationError("token and password are required", internal.ErrCodeMissingFields)
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}

	if err := s.repo.Redeem(token, time.Now(), hash); err != nil {
		return err
	}

	s.logger.Info("password reset confirmed")
	return nil
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// GenerateRandomToken generates a cryptographically secure random token
func GenerateRandomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()_-+="

// GeneratePassword draws an initial password for admin-created accounts. The
// account stays unusable until the invite token is redeemed.
func GeneratePassword(length int) (string, error) {
	if length < 12 {
		length = 12
	}

	out := make([]byte, length)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}
