// Package ingest orchestrates a full refresh: contract feeds first,
// then every usage feed for each month in the requested span.
package ingest

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// IngestionRun is the persisted audit row for one orchestrator run.
type IngestionRun struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	StartedAt  time.Time    `gorm:"not null;index"`
	FinishedAt time.Time
	Success    bool `gorm:"not null"`
	Months     datatypes.JSON
	Message    *string `gorm:"type:varchar(1024)"`
	ElapsedMS  int64   `gorm:"column:elapsed_ms"`
}

func (IngestionRun) TableName() string { return "ingestion_runs" }

// RunResult is the API-facing summary of one run.
type RunResult struct {
	Success         bool     `json:"success"`
	MonthsProcessed []string `json:"months_processed,omitempty"`
	Message         string   `json:"message,omitempty"`
	ElapsedMS       int64    `json:"elapsed_ms"`
}
