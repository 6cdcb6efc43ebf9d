package postgres

import (
	"strings"

	"gorm.io/gorm"

	"github.com/kambejat/undiziwa/internal/user"
)

// UserRepository implements user.Repository using GORM
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *user.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id int64) (*user.User, error) {
	var u user.User
	if err := r.db.Where("user_id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(filter user.ListFilter) ([]*user.User, int64, error) {
	query := r.db.Model(&user.User{})

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(username) LIKE ? OR LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?",
			pattern, pattern, pattern)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*user.User
	offset := (filter.Page - 1) * filter.PerPage
	err := query.Order("user_id").Limit(filter.PerPage).Offset(offset).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *UserRepository) UpdatePermission(id int64, role *string, isActive *bool) error {
	updates := map[string]interface{}{}
	if role != nil {
		updates["role"] = *role
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&user.User{}).Where("user_id = ?", id).Updates(updates).Error
}
