package models

import (
	"time"

	"github.com/google/uuid"
)

// Category of a tracked equipment element. The set is fixed; records
// carrying anything else never reach the store.
type Category string

const (
	CategoryMechanical Category = "Mechanical"
	CategoryPlumbing   Category = "Plumbing"
	CategoryElectrical Category = "Electrical"
)

// Categories lists every category the extractor collects, in collection order.
var Categories = []Category{
	CategoryMechanical,
	CategoryPlumbing,
	CategoryElectrical,
}

// EquipmentRecord is one tracked equipment item pulled from a model document.
// ElementID is document-scoped and not stable across re-extraction; the
// Designation is the durable identity-bearing field. A record with an empty
// Designation is never emitted.
type EquipmentRecord struct {
	ElementID    int64    `json:"elementId"`
	Category     Category `json:"category"`
	Designation  string   `json:"designation"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
	Level        string   `json:"level,omitempty"`
	SystemType   string   `json:"systemType,omitempty"`
	Fingerprint  string   `json:"fingerprint"`
}

// VersionStatus marks a stored version row as the current or a superseded
// revision of its identity key.
type VersionStatus string

const (
	VersionActive   VersionStatus = "Active"
	VersionModified VersionStatus = "Modified"
)

// Decision is the outcome of reconciling a fingerprint against the store.
type Decision string

const (
	DecisionInsertNew          Decision = "insert_new"
	DecisionSupersedeAndInsert Decision = "supersede_and_insert"
	DecisionTouchOnly          Decision = "touch_only"
)

// EquipmentVersion is one persisted revision of a tracked equipment item.
// For a given (project, designation) at most one row is Active; version
// numbers start at 1 and increase by exactly 1 on each content change.
// Rows are never deleted by the pipeline. Both invariants are enforced at
// the schema level: a unique index on (project, designation, version) and a
// partial unique index on the Active row per identity key.
type EquipmentVersion struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectNumber string        `gorm:"column:project_number;not null;uniqueIndex:idx_equipment_key_version,priority:1;uniqueIndex:idx_equipment_active_key,priority:1,where:status = 'Active'" json:"projectNumber"`
	Designation   string        `gorm:"column:designation;not null;uniqueIndex:idx_equipment_key_version,priority:2;uniqueIndex:idx_equipment_active_key,priority:2" json:"designation"`
	Version       int           `gorm:"column:version;not null;uniqueIndex:idx_equipment_key_version,priority:3" json:"version"`
	Fingerprint   string        `gorm:"column:fingerprint;not null" json:"fingerprint"`
	Status        VersionStatus `gorm:"column:status;not null;index" json:"status"`
	ElementID     int64         `gorm:"column:element_id;not null" json:"elementId"`
	Category      Category      `gorm:"column:category;not null" json:"category"`
	Manufacturer  string        `gorm:"column:manufacturer" json:"manufacturer,omitempty"`
	Model         string        `gorm:"column:model" json:"model,omitempty"`
	Level         string        `gorm:"column:level" json:"level,omitempty"`
	SystemType    string        `gorm:"column:system_type" json:"systemType,omitempty"`
	SourceFileID  uuid.UUID     `gorm:"type:uuid;column:source_file_id" json:"sourceFileId"`
	FirstSeenAt   time.Time     `gorm:"column:first_seen_at;not null" json:"firstSeenAt"`
	LastSeenAt    time.Time     `gorm:"column:last_seen_at;not null" json:"lastSeenAt"`
}

func (EquipmentVersion) TableName() string { return "equipment_versions" }

// ReconcileResult reports what the store did with one record.
type ReconcileResult struct {
	ProjectNumber string   `json:"projectNumber"`
	Designation   string   `json:"designation"`
	Decision      Decision `json:"decision"`
	Version       int      `json:"version"`
}
