package postgres

import (
	"time"

	"github.com/kambejat/undiziwa/internal"
	"github.com/kambejat/undiziwa/internal/credential"
	"gorm.io/gorm"
)

// CredentialRepository implements credential.Repository using GORM
type CredentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) credential.Repository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Create(token *credential.PasswordResetToken) error {
	return r.db.Create(token).Error
}

// Redeem consumes the token and writes the new password hash in one
// transaction. The conditional update on used/expires_at is the concurrency
// guard: of two racing redemptions only one sees a row flip.
func (r *CredentialRepository) Redeem(token string, now time.Time, newPasswordHash string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var prt credential.PasswordResetToken
		if err := tx.Where("token = ?", token).First(&prt).Error; err != nil {
			return internal.ErrResetTokenUnavailable
		}

		res := tx.Model(&credential.PasswordResetToken{}).
			Where("token = ? AND used = ? AND expires_at > ?", token, false, now).
			Update("used", true)
		if res.Error != nil {
			return internal.NewStorageError("failed to consume reset token", res.Error)
		}
		if res.RowsAffected == 0 {
			return internal.ErrResetTokenUnavailable
		}

		res = tx.Table("users").
			Where("user_id = ?", prt.UserID).
			Update("password_hash", newPasswordHash)
		if res.Error != nil {
			return internal.NewStorageError("failed to update password", res.Error)
		}
		if res.RowsAffected == 0 {
			return internal.ErrUserNotFound
		}

		return nil
	})
}
