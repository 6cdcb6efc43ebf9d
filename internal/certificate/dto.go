package certificate

import (
	"github.com/kambejat/undiziwa/internal"
)

// SubmitCertificateDTO represents the data for registering a certificate.
type SubmitCertificateDTO struct {
	StudentName    string `json:"student_name"`
	StudentNumber  string `json:"student_number"`
	CourseName     string `json:"course_name"`
	GraduationYear int    `json:"graduation_year"`
	InstitutionID  int64  `json:"institution_id"`
}

func (dto SubmitCertificateDTO) Validate() error {
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
	return nil
}
