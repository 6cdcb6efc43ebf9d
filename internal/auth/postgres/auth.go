package postgres

import (
	"errors"

	"github.com/kambejat/undiziwa/internal/auth"
	userDatamodel "github.com/kambejat/undiziwa/internal/user"
	"gorm.io/gorm"
)

// AccountRepository loads credential rows for login.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) auth.AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByUsername(username string) (*auth.Account, error) {
	var u userDatamodel.User
	if err := r.db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}

	return &auth.Account{
		ID:            u.ID,
		Username:      u.Username,
		PasswordHash:  u.PasswordHash,
		Role:          u.Role,
		InstitutionID: u.InstitutionID,
		IsActive:      u.IsActive,
	}, nil
}
