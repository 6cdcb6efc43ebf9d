package verification

import (
	"time"

	"github.com/kambejat/undiziwa/internal"
)

// Status is the closed verification state set. pending is the only
// non-terminal state; no transition leaves a terminal state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusValid    Status = "valid"
	StatusInvalid  Status = "invalid"
	StatusNotFound Status = "not_found"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusValid, StatusInvalid, StatusNotFound:
		return Status(s), nil
	default:
		return "", internal.NewValidationError("unknown verification status: "+s, internal.ErrCodeInvalidStatus)
	}
}

func (s Status) Terminal() bool {
	switch s {
	case StatusValid, StatusInvalid, StatusNotFound:
		return true
	case StatusPending:
		return false
	default:
		return false
	}
}

// Method is the closed set of verification channels.
type Method string

const (
	MethodManualForm    Method = "manual_form"
	MethodStudentNumber Method = "student_number"
	MethodScanUpload    Method = "scan_upload"
)

func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodManualForm, MethodStudentNumber, MethodScanUpload:
		return Method(s), nil
	default:
		return "", internal.NewValidationError("unknown verification method: "+s, internal.ErrCodeInvalidMethod)
	}
}

// Verification is one verification attempt against a certificate. Many
// attempts may reference the same certificate; each is kept as history.
type Verification struct {
	ID            int64      `json:"verification_id" gorm:"primaryKey;column:verification_id"`
	CertificateID int64      `json:"certificate_id" gorm:"column:certificate_id"`
	RequestedBy   *int64     `json:"requested_by,omitempty" gorm:"column:requested_by"`
	InstitutionID int64      `json:"verified_by_institution_id" gorm:"column:verified_by_institution_id"`
	Status        Status     `json:"status" gorm:"column:status;default:pending"`
	Method        Method     `json:"method" gorm:"column:method;default:manual_form"`
	FileRef       string     `json:"verification_file,omitempty" gorm:"column:verification_file"`
	ResultJSON    string     `json:"result_json,omitempty" gorm:"column:result_json"`
	RequestedAt   time.Time  `json:"requested_at" gorm:"column:requested_at"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty" gorm:"column:verified_at"`
}

// TableName returns the table name for GORM
func (Verification) TableName() string {
	return "verifications"
}

const (
	resultVerified    = `{"verified": true}`
	resultNotVerified = `{"verified": false}`
)
