package postgres

import (
	"github.com/kambejat/undiziwa/internal/audit"
	"gorm.io/gorm"
)

// AuditRepository implements audit.Repository using GORM
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.Repository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(entry *audit.Entry) error {
	return r.db.Create(entry).Error
}
