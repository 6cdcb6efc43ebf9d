package verification

import (
	"github.com/kambejat/undiziwa/internal"
)

// RequestVerificationDTO represents a verification submission. Requesters may
// be unauthenticated, so the payload carries everything needed to register
// the certificate.
type RequestVerificationDTO struct {
	StudentName    string `json:"student_name"`
	StudentNumber  string `json:"student_number"`
	CourseName     string `json:"course_name"`
	GraduationYear int    `json:"graduation_year"`
	InstitutionID  int64  `json:"institution_id"`
	Message        string `json:"message"`
	Method         string `json:"method,omitempty"`
}

func (dto RequestVerificationDTO) Validate() error {
	var fields []internal.FieldError
	if dto.StudentName == "" {
		fields = append(fields, internal.FieldError{Field: "student_name", Message: "student name is required"})
	}
	if dto.CourseName == "" {
		fields = append(fields, internal.FieldError{Field: "course_name", Message: "course name is required"})
	}
	if dto.GraduationYear == 0 {
		fields = append(fields, internal.FieldError{Field: "graduation_year", Message: "graduation year is required"})
	}
	if dto.InstitutionID == 0 {
		fields = append(fields, internal.FieldError{Field: "institution_id", Message: "institution is required"})
	}
	if len(fields) > 0 {
		return internal.NewValidationError("all required fields must be filled", internal.ErrCodeMissingFields).
			WithDetails(internal.FieldErrors{Errors: fields})
	}

	if dto.Method != "" {
		if _, err := ParseMethod(dto.Method); err != nil {
			return err
		}
	}
	return nil
}

// ResolveDTO carries the manual decision of institution staff.
type ResolveDTO struct {
	Decision string `json:"decision"`
}

func (dto ResolveDTO) Validate() (Status, error) {
	status, err := ParseStatus(dto.Decision)
	if err != nil {
		return "", err
	}
	if status != StatusValid && status != StatusInvalid {
		return "", internal.NewValidationError("decision must be valid or invalid", internal.ErrCodeInvalidStatus)
	}
	return status, nil
}
