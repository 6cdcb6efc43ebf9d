package auth

import "github.com/kambejat/undiziwa/internal"

// LoginDTO represents the login request payload
type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (dto LoginDTO) Validate() error {
	if dto.Username == "" {
		return internal.NewValidationError("username is required", internal.ErrCodeMissingFields)
	}
	if dto.Password == "" {
		return internal.NewValidationError("password is required", internal.ErrCodeMissingFields)
	}
	return nil
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (dto RefreshTokenDTO) Validate() error {
	if dto.RefreshToken == "" {
		return internal.NewValidationError("refresh_token is required", internal.ErrCodeMissingFields)
	}
	return nil
}
