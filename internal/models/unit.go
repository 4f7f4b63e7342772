package models

import (
	"time"
)

// UnitStatus is the processing lifecycle of one catalog unit. Failed never
// blocks a later retry from Pending.
type UnitStatus string

const (
	UnitPending    UnitStatus = "pending"
	UnitProcessing UnitStatus = "processing"
	UnitCompleted  UnitStatus = "completed"
	UnitFailed     UnitStatus = "failed"
)

// ProcessingUnit is one source model location belonging to one project: the
// unit of extraction and of failure isolation. Materialized once per catalog
// read and immutable for the duration of a run.
type ProcessingUnit struct {
	ID              uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectNumber   string     `gorm:"column:project_number;not null;index" json:"projectNumber"`
	SourcePath      string     `gorm:"column:source_path;not null" json:"sourcePath"`
	FormatVersion   string     `gorm:"column:format_version;not null" json:"formatVersion"`
	Status          UnitStatus `gorm:"column:status;not null;default:pending" json:"status"`
	LastProcessedAt *time.Time `gorm:"column:last_processed_at" json:"lastProcessedAt,omitempty"`
	LastError       string     `gorm:"column:last_error" json:"lastError,omitempty"`
}

func (ProcessingUnit) TableName() string { return "processing_units" }

// UnitResult is the outcome of processing one unit within a run.
type UnitResult struct {
	ProjectNumber string     `json:"projectNumber"`
	SourcePath    string     `json:"sourcePath"`
	Status        UnitStatus `json:"status"`
	FilesFound    int        `json:"filesFound"`
	Extracted     int        `json:"extracted"`
	Inserted      int        `json:"inserted"`
	Superseded    int        `json:"superseded"`
	Touched       int        `json:"touched"`
	ElementSkips  int        `json:"elementSkips"`
	StoreErrors   int        `json:"storeErrors"`
	Err           string     `json:"error,omitempty"`
}

// RunStatus is the lifecycle of one extraction run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunSummary aggregates per-unit results for one extraction run.
type RunSummary struct {
	RunID       string       `json:"runId"`
	Filter      string       `json:"filter,omitempty"`
	Status      RunStatus    `json:"status"`
	Units       []UnitResult `json:"units"`
	StartedAt   time.Time    `json:"startedAt"`
	FinishedAt  time.Time    `json:"finishedAt,omitempty"`
	UnitsFailed int          `json:"unitsFailed"`
}
