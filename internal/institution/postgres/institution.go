package postgres

import (
	"github.com/kambejat/undiziwa/internal/institution"
	"github.com/kambejat/undiziwa/internal/verification"
	"gorm.io/gorm"
)

// InstitutionRepository implements the institution.Repository interface using GORM
type InstitutionRepository struct {
	db *gorm.DB
}

func NewInstitutionRepository(db *gorm.DB) institution.Repository {
	return &InstitutionRepository{db: db}
}

func (r *InstitutionRepository) Create(inst *institution.Institution) error {
	return r.db.Create(inst).Error
}

func (r *InstitutionRepository) GetByID(id int64) (*institution.Institution, error) {
	var inst institution.Institution
	if err := r.db.Where("institution_id = ?", id).First(&inst).Error; err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *InstitutionRepository) List() ([]*institution.Institution, error) {
	var insts []*institution.Institution
	err := r.db.Order("institution_id").Find(&insts).Error
	return insts, err
}

func (r *InstitutionRepository) Update(inst *institution.Institution) error {
	return r.db.Save(inst).Error
}

func (r *InstitutionRepository) Delete(id int64) error {
	return r.db.Where("institution_id = ?", id).Delete(&institution.Institution{}).Error
}

func (r *InstitutionRepository) VerificationCounts(institutionID int64) (pending, completed int64, err error) {
	err = r.db.Model(&verification.Verification{}).
		Where("verified_by_institution_id = ? AND status = ?", institutionID, verification.StatusPending).
		Count(&pending).Error
	if err != nil {
		return 0, 0, err
	}

	err = r.db.Model(&verification.Verification{}).
		Where("verified_by_institution_id = ? AND status IN ?", institutionID,
			[]string{string(verification.StatusValid), string(verification.StatusInvalid), string(verification.StatusNotFound)}).
		Count(&completed).Error
	if err != nil {
		return 0, 0, err
	}

	return pending, completed, nil
}
