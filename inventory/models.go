package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProcessingStatus tracks whether a raw material entry still awaits
// processing.
type ProcessingStatus string

const (
	StatusRaw  ProcessingStatus = "raw"
	StatusDone ProcessingStatus = "done"
)

// Valid reports whether the status is one of the known values.
func (s ProcessingStatus) Valid() bool {
	return s == StatusRaw || s == StatusDone
}

// PastryType is a kind of pastry the bakery produces.
type PastryType struct {
	bun.BaseModel `bun:"table:pastry_types,alias:pty"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// RawMaterialType is a kind of ingredient, e.g. flour or butter.
type RawMaterialType struct {
	bun.BaseModel `bun:"table:raw_material_types,alias:rmt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// PastryRawMaterialBatch groups the raw material entries bought or used
// together under one batch code.
type PastryRawMaterialBatch struct {
	bun.BaseModel `bun:"table:pastry_raw_material_batches,alias:bat"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	BatchCode     string     `bun:"batch_code,notnull" json:"batch_code"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// TimeOfDay labels when a batch was produced, e.g. morning or evening.
type TimeOfDay struct {
	bun.BaseModel `bun:"table:times_of_day,alias:tod"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// RawMaterial records a quantity of an ingredient allocated to a pastry
// type within a batch.
type RawMaterial struct {
	bun.BaseModel `bun:"table:raw_materials,alias:raw"`
	ID            uuid.UUID        `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Weight        float64          `bun:"weight,notnull" json:"weight"`
	Cost          float64          `bun:"cost,notnull" json:"cost"`
	Status        ProcessingStatus `bun:"processing_status,notnull" json:"processing_status"`

	PastryTypeID uuid.UUID   `bun:"pastry_type_id,notnull,type:uuid" json:"pastry_type_id"`
	PastryType   *PastryType `bun:"rel:belongs-to,join:pastry_type_id=id" json:"pastry_type,omitempty"`

	TimeOfDayID uuid.UUID  `bun:"time_of_day_id,notnull,type:uuid" json:"time_of_day_id"`
	TimeOfDay   *TimeOfDay `bun:"rel:belongs-to,join:time_of_day_id=id" json:"time_of_day,omitempty"`

	RawMaterialTypeID uuid.UUID        `bun:"raw_material_type_id,notnull,type:uuid" json:"raw_material_type_id"`
	RawMaterialType   *RawMaterialType `bun:"rel:belongs-to,join:raw_material_type_id=id" json:"raw_material_type,omitempty"`

	BatchID uuid.UUID               `bun:"batch_id,notnull,type:uuid" json:"batch_id"`
	Batch   *PastryRawMaterialBatch `bun:"rel:belongs-to,join:batch_id=id" json:"batch,omitempty"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
