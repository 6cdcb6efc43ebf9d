package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/kambejat/undiziwa/internal/certificate"
	"github.com/kambejat/undiziwa/internal/verification"
)

// VerificationRepository implements verification.Repository using GORM
type VerificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) Create(v *verification.Verification) error {
	return r.db.Create(v).Error
}

func (r *VerificationRepository) GetByID(id int64) (*verification.Verification, error) {
	var v verification.Verification
	if err := r.db.Where("verification_id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VerificationRepository) ListByInstitution(institutionID int64, status *verification.Status, limit, offset int) ([]*verification.Verification, error) {
	query := r.db.Model(&verification.Verification{}).
		Where("verified_by_institution_id = ?", institutionID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var list []*verification.Verification
	err := query.Order("requested_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ListPendingAutomated returns pending verifications that came in through a
// non-manual channel, oldest first.
func (r *VerificationRepository) ListPendingAutomated(limit int) ([]*verification.Verification, error) {
	var list []*verification.Verification
	err := r.db.Where("status = ? AND method <> ?", verification.StatusPending, verification.MethodManualForm).
		Order("requested_at").Limit(limit).Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ResolvePending moves a pending verification to a terminal status. The
// update is keyed on status=pending so concurrent resolutions cannot both
// win; the certificate flip rides in the same transaction, so a valid
// decision either lands completely or not at all.
func (r *VerificationRepository) ResolvePending(id int64, status verification.Status, resultJSON string, verifiedAt time.Time, markCertificate bool) (bool, error) {
	applied := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&verification.Verification{}).
			Where("verification_id = ? AND status = ?", id, verification.StatusPending).
			Updates(map[string]interface{}{
				"status":      status,
				"result_json": resultJSON,
				"verified_at": verifiedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		applied = true

		if markCertificate {
			var v verification.Verification
			if err := tx.Where("verification_id = ?", id).First(&v).Error; err != nil {
				return err
			}
			if err := tx.Model(&certificate.Certificate{}).
				Where("certificate_id = ?", v.CertificateID).
				Update("verified", true).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *VerificationRepository) Delete(id int64) error {
	return r.db.Where("verification_id = ?", id).Delete(&verification.Verification{}).Error
}
