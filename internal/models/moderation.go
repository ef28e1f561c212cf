package models

import (
	"time"
)

// BlockedUser is a directed suppression relation.
type BlockedUser struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	BlockerID uint      `json:"blocker_id" gorm:"not null;uniqueIndex:idx_blocks_pair,priority:1"`
	BlockedID uint      `json:"blocked_id" gorm:"not null;uniqueIndex:idx_blocks_pair,priority:2;index"`
	CreatedAt time.Time `json:"created_at"`
}

// Report is an append-only audit record with no behavioral side effects.
type Report struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ReporterID uint      `json:"reporter_id" gorm:"not null;index"`
	TargetID   uint      `json:"target_id" gorm:"not null;index"`
	Reason     string    `json:"reason" gorm:"not null"`
	Details    *string   `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ViewCount holds the durable impression counter for a subject (a post).
type ViewCount struct {
	SubjectID  uint      `json:"subject_id" gorm:"primaryKey;autoIncrement:false"`
	ViewsCount int64     `json:"views_count" gorm:"not null;default:0"`
	UpdatedAt  time.Time `json:"updated_at"`
}
