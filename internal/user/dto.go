package user

import (
	"github.com/kambejat/undiziwa/internal"
	"github.com/kambejat/undiziwa/internal/auth"
)

// CreateUserDTO represents the request payload for creating a user. The
// institution id in the payload is subject to scope enforcement; it never
// escalates past the creating principal's own scope.
type CreateUserDTO struct {
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Role          string `json:"role"`
	InstitutionID *int64 `json:"institution_id,omitempty"`
}

func (dto CreateUserDTO) Validate() error {
	var fields []internal.FieldError
	if dto.Username == "" {
		fields = append(fields, internal.FieldError{Field: "username", Message: "username is required"})
	}
	if dto.Email == "" {
		fields = append(fields, internal.FieldError{Field: "email", Message: "email is required"})
	}
	if _, err := auth.ParseRole(dto.Role); err != nil {
		fields = append(fields, internal.FieldError{Field: "role", Message: "role must be one of hr, institution_admin, gov_admin, super_admin"})
	}
	if len(fields) > 0 {
		return internal.NewValidationError("validation failed", internal.ErrCodeValidationFailed).
			WithDetails(internal.FieldErrors{Errors: fields})
	}
	return nil
}

// UpdatePermissionDTO changes role and/or active flag; both optional.
type UpdatePermissionDTO struct {
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (dto UpdatePermissionDTO) Validate() error {
	if dto.Role == nil && dto.IsActive == nil {
		return internal.NewValidationError("nothing to update", internal.ErrCodeValidationFailed)
	}
	if dto.Role != nil {
		if _, err := auth.ParseRole(*dto.Role); err != nil {
			return err
		}
	}
	return nil
}

// ConfirmResetDTO redeems a password reset token.
type ConfirmResetDTO struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (dto ConfirmResetDTO) Validate() error {
	if dto.Token == "" {
		return internal.NewValidationError("token is required", internal.ErrCodeMissingFields)
	}
	if len(dto.Password) < 8 {
		return internal.NewValidationError("password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}
