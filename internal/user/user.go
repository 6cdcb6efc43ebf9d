package user

import "time"

// User is an actor in the system. hr and institution_admin always belong to
// exactly one institution; gov_admin and super_admin act across institutions.
type User struct {
	ID            int64     `json:"user_id" gorm:"primaryKey;column:user_id"`
	Username      string    `json:"username" gorm:"column:username;uniqueIndex;not null"`
	FullName      string    `json:"full_name" gorm:"column:full_name"`
	Email         string    `json:"email" gorm:"column:email;uniqueIndex"`
	Phone         string    `json:"phone" gorm:"column:phone"`
	PasswordHash  string    `json:"-" gorm:"column:password_hash"`
	Role          string    `json:"role" gorm:"column:role"`
	InstitutionID *int64    `json:"institution_id,omitempty" gorm:"column:institution_id"`
	IsActive      bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt     time.Time `json:"created_at" gorm:"column:created_at"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// ListFilter narrows a user listing.
type ListFilter struct {
	Search   string
	Role     string
	IsActive *bool
	Page     int
	PerPage  int
}

// ListResult is one page of users plus pagination metadata.
type ListResult struct {
	Users   []*User `json:"users"`
	Total   int64   `json:"total"`
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
	Pages   int     `json:"pages"`
}
