package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// GenerationRun is the audit record of one pipeline run. The prompt itself is never stored.
type GenerationRun struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Kind       string         `gorm:"column:kind;not null;index" json:"kind"`
	RequestID  string         `gorm:"column:request_id;index" json:"request_id,omitempty"`
	PromptHash string         `gorm:"column:prompt_hash;not null" json:"prompt_hash"`
	Provider   string         `gorm:"column:provider" json:"provider,omitempty"`
	Role       string         `gorm:"column:role" json:"role,omitempty"`
	Status     string         `gorm:"column:status;not null" json:"status"`
	ErrorCode  string         `gorm:"column:error_code" json:"error_code,omitempty"`
	RawPreview string         `gorm:"column:raw_preview" json:"raw_preview,omitempty"`
	Document   datatypes.JSON `gorm:"column:document" json:"document,omitempty"`
	Attempts   datatypes.JSON `gorm:"column:attempts" json:"attempts,omitempty"`
	DurationMs int64          `gorm:"column:duration_ms" json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
}

func (GenerationRun) TableName() string {
	return "generation_run"
}

func (r *GenerationRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
