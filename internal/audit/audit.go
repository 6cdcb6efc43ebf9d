package audit

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Entry is one append-only audit record. Entries are never mutated or
// deleted.
type Entry struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Action       string    `json:"action" gorm:"column:action;not null"`
	TargetUserID *int64    `json:"target_user_id,omitempty" gorm:"column:target_user_id"`
	PerformedBy  string    `json:"performed_by" gorm:"column:performed_by"`
	Meta         string    `json:"meta" gorm:"column:meta"`
	Timestamp    time.Time `json:"timestamp" gorm:"column:timestamp"`
}

func (Entry) TableName() string {
	return "audit_logs"
}

// Repository persists audit entries.
type Repository interface {
	Append(entry *Entry) error
}

// Trail records privileged actions. Append is fire-and-forget from the
// caller's perspective: failures are logged, never returned.
type Trail struct {
	repo   Repository
	logger *slog.Logger
}

func NewTrail(repo Repository, logger *slog.Logger) *Trail {
	return &Trail{repo: repo, logger: logger}
}

func (t *Trail) Append(action string, targetUserID *int64, performedBy string, meta map[string]any) {
	metaJSON := "{}"
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			metaJSON = string(b)
		} else {
			t.logger.Error("failed to marshal audit metadata", "error", err, "action", action)
		}
	}

	entry := &Entry{
		Action:       action,
		TargetUserID: targetUserID,
		PerformedBy:  performedBy,
		Meta:         metaJSON,
		Timestamp:    time.Now(),
	}

	if err := t.repo.Append(entry); err != nil {
		t.logger.Error("failed to append audit entry", "error", err, "action", action)
	}
}
