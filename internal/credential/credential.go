package credential

import "time"

// PasswordResetToken is a one-time grant to set a new password. A token is
// redeemable only while used=false and now < expires_at; redemption flips used
// atomically with the password write.
type PasswordResetToken struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"column:user_id;not null;index"`
	Token     string    `json:"-" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"column:expires_at;not null"`
	Used      bool      `json:"used" gorm:"column:used;default:false"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

func (t *PasswordResetToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

const (
	// InviteTokenTTL applies to the self-service token mailed when an account
	// is created.
	InviteTokenTTL = 24 * time.Hour
	// AdminResetTokenTTL applies to admin-triggered forced resets.
	AdminResetTokenTTL = time.Hour
)
