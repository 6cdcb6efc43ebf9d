package postgres

import (
	"strings"

	"github.com/kambejat/undiziwa/internal/certificate"
	"gorm.io/gorm"
)

// CertificateRepository implements the certificate.Repository interface using GORM
type CertificateRepository struct {
	db *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) certificate.Repository {
	return &CertificateRepository{db: db}
}

func (r *CertificateRepository) Create(cert *certificate.Certificate) error {
	return r.db.Create(cert).Error
}

func (r *CertificateRepository) GetByID(id int64) (*certificate.Certificate, error) {
	var cert certificate.Certificate
	if err := r.db.Where("certificate_id = ?", id).First(&cert).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) List(filter certificate.ListFilter) ([]*certificate.Certificate, error) {
	q := r.db.Model(&certificate.Certificate{})

	if filter.InstitutionID != 0 {
		q = q.Where("institution_id = ?", filter.InstitutionID)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(student_name) LIKE ? OR LOWER(course_name) LIKE ?", like, like)
	}
	if filter.Verified != nil {
		q = q.Where("verified = ?", *filter.Verified)
	}

	var certs []*certificate.Certificate
	err := q.Order("uploaded_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&certs).Error
	return certs, err
}

func (r *CertificateRepository) Delete(id int64) error {
	return r.db.Where("certificate_id = ?", id).Delete(&certificate.Certificate{}).Error
}
