package certificate

import "time"

// Certificate is an academic record owned by its issuing institution. The
// verified flag starts false and is flipped only by the verification state
// machine; once true it never reverts.
type Certificate struct {
	ID             int64     `json:"certificate_id" gorm:"primaryKey;column:certificate_id"`
	StudentName    string    `json:"student_name" gorm:"column:student_name"`
	StudentNumber  string    `json:"student_number" gorm:"column:student_number"`
	CourseName     string    `json:"course_name" gorm:"column:course_name"`
	GraduationYear int       `json:"graduation_year" gorm:"column:graduation_year"`
	FileRef        string    `json:"certificate_file,omitempty" gorm:"column:certificate_file"`
	InstitutionID  int64     `json:"institution_id" gorm:"column:institution_id"`
	UploadedBy     *int64    `json:"uploaded_by,omitempty" gorm:"column:uploaded_by"`
	Verified       bool      `json:"verified" gorm:"column:verified;default:false"`
	UploadedAt     time.Time `json:"uploaded_at" gorm:"column:uploaded_at"`
}

// TableName returns the table name for GORM
func (Certificate) TableName() string {
	return "certificates"
}

// ListFilter narrows a certificate listing. InstitutionID zero means no
// institution restriction (cross-institution roles only).
type ListFilter struct {
	InstitutionID int64
	Search        string
	Verified      *bool
	Limit         int
	Offset        int
}
