package institution

import "github.com/kambejat/undiziwa/internal"

// CreateInstitutionDTO represents the request payload for registering an
// institution.
type CreateInstitutionDTO struct {
	Name         string `json:"institution_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Address      string `json:"address"`
}

func (dto CreateInstitutionDTO) Validate() error {
	if dto.Name == "" {
		return internal.NewValidationError("institution name is required", internal.ErrCodeMissingFields)
	}
	return nil
}

// UpdateInstitutionDTO mutates contact and address fields.
type UpdateInstitutionDTO struct {
	Name         *string `json:"institution_name,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	Address      *string `json:"address,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

func (dto UpdateInstitutionDTO) Validate() error {
	if dto.Name != nil && *dto.Name == "" {
		return internal.NewValidationError("institution name cannot be empty", internal.ErrCodeValidationFailed)
	}
	return nil
}
