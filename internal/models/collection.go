package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// GateLevel identifies one of the three sequential testing gates.
type GateLevel string

const (
	GateBase    GateLevel = "base"
	GateBulk    GateLevel = "bulk"
	GateGarment GateLevel = "garment"
)

// GateLevels lists the gates in their mandated order.
var GateLevels = []GateLevel{GateBase, GateBulk, GateGarment}

// Upstream returns the gate that must be approved before this one may be
// submitted, or empty for the Base gate.
func (l GateLevel) Upstream() GateLevel {
	switch l {
	case GateBulk:
		return GateBase
	case GateGarment:
		return GateBulk
	default:
		return ""
	}
}

// Valid reports whether the level is one of the three known gates.
func (l GateLevel) Valid() bool {
	return l == GateBase || l == GateBulk || l == GateGarment
}

// GateStatus captures the per-gate test lifecycle.
type GateStatus string

const (
	GateStatusNotStarted GateStatus = "not_started"
	GateStatusSubmitted  GateStatus = "submitted"
	GateStatusInProgress GateStatus = "in_progress"
	GateStatusPassed     GateStatus = "passed"
	GateStatusFailed     GateStatus = "failed"
	GateStatusApproved   GateStatus = "approved"
)

// GateState is a single gate's record. Mutated only through the collection
// command pipeline; never deleted. A retry after failure reuses this record
// with a fresh linked request id.
type GateState struct {
	ID              string     `db:"id" json:"id"`
	CollectionID    string     `db:"collection_id" json:"collection_id"`
	Level           GateLevel  `db:"level" json:"level"`
	Status          GateStatus `db:"status" json:"status"`
	LinkedRequestID *string    `db:"linked_request_id" json:"linked_request_id,omitempty"`
	IsLocked        bool       `db:"is_locked" json:"is_locked"`
	SubmittedAt     *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	ApprovedBy      *string    `db:"approved_by" json:"approved_by,omitempty"`
}

// CareLabelSymbols stores the selected symbol set as JSONB.
type CareLabelSymbols []string

// Value marshals the symbol set for persistence.
func (s CareLabelSymbols) Value() (driver.Value, error) {
	if s == nil {
		s = CareLabelSymbols{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal care label symbols: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the symbol set.
func (s *CareLabelSymbols) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for CareLabelSymbols", value)
	}
	if len(data) == 0 {
		*s = nil
		return nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal care label symbols: %w", err)
	}
	return nil
}

// CareLabelPackage gates the GSW stage.
type CareLabelPackage struct {
	CollectionID string           `db:"collection_id" json:"collection_id"`
	Symbols      CareLabelSymbols `db:"symbols" json:"symbols"`
	Wording      string           `db:"wording" json:"wording"`
	IsComplete   bool             `db:"is_complete" json:"is_complete"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// GSWStatus captures the final sign-off package lifecycle.
type GSWStatus string

const (
	GSWStatusDraft     GSWStatus = "draft"
	GSWStatusUploaded  GSWStatus = "uploaded"
	GSWStatusSubmitted GSWStatus = "submitted"
	GSWStatusApproved  GSWStatus = "approved"
	GSWStatusRejected  GSWStatus = "rejected"
)

// GSWSubmission is the final sign-off package. The file reference is opaque
// to this engine; versions only ever increase.
type GSWSubmission struct {
	CollectionID string     `db:"collection_id" json:"collection_id"`
	FileRef      string     `db:"file_ref" json:"file_ref"`
	Version      int        `db:"version" json:"version"`
	Status       GSWStatus  `db:"status" json:"status"`
	SubmittedTo  *string    `db:"submitted_to" json:"submitted_to,omitempty"`
	ApprovedBy   *string    `db:"approved_by" json:"approved_by,omitempty"`
	UploadedAt   *time.Time `db:"uploaded_at" json:"uploaded_at,omitempty"`
	SubmittedAt  *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
	ApprovedAt   *time.Time `db:"approved_at" json:"approved_at,omitempty"`
}

// CollectionStatus is derived from the gates, care label and GSW on every
// read; it is never stored.
type CollectionStatus string

const (
	StatusDraft             CollectionStatus = "draft"
	StatusComponentsPending CollectionStatus = "components_pending"
	StatusBaseTesting       CollectionStatus = "base_testing"
	StatusBulkTesting       CollectionStatus = "bulk_testing"
	StatusGarmentTesting    CollectionStatus = "garment_testing"
	StatusCareLabelling     CollectionStatus = "care_labelling"
	StatusGSWPending        CollectionStatus = "gsw_pending"
	StatusApproved          CollectionStatus = "approved"
	StatusRejected          CollectionStatus = "rejected"
)

// ProductCollection is the aggregate root: one style/season/supplier triple
// advancing through the testing gates. Version backs optimistic concurrency
// on every mutating command.
type ProductCollection struct {
	ID           string            `db:"id" json:"id"`
	StyleRef     string            `db:"style_ref" json:"style_ref"`
	Season       string            `db:"season" json:"season"`
	SupplierID   string            `db:"supplier_id" json:"supplier_id"`
	Version      int64             `db:"version" json:"version"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
	ComponentIDs []string          `db:"-" json:"component_ids"`
	Gates        []GateState       `db:"-" json:"gates"`
	CareLabel    *CareLabelPackage `db:"-" json:"care_label,omitempty"`
	GSW          *GSWSubmission    `db:"-" json:"gsw,omitempty"`
}

// Gate returns the gate record for the given level, or nil.
func (c *ProductCollection) Gate(level GateLevel) *GateState {
	for i := range c.Gates {
		if c.Gates[i].Level == level {
			return &c.Gates[i]
		}
	}
	return nil
}

// HasComponent reports whether the component is linked to the collection.
func (c *ProductCollection) HasComponent(componentID string) bool {
	for _, id := range c.ComponentIDs {
		if id == componentID {
			return true
		}
	}
	return false
}

func (c *ProductCollection) gateApproved(level GateLevel) bool {
	g := c.Gate(level)
	return g != nil && g.Status == GateStatusApproved
}

// DeriveStatus computes the collection lifecycle status. Rules are evaluated
// top to bottom, first match wins.
func (c *ProductCollection) DeriveStatus() CollectionStatus {
	for _, g := range c.Gates {
		if g.Status == GateStatusFailed {
			return StatusRejected
		}
	}
	if c.GSW != nil {
		switch c.GSW.Status {
		case GSWStatusRejected:
			return StatusRejected
		case GSWStatusApproved:
			return StatusApproved
		case GSWStatusUploaded, GSWStatusSubmitted:
			return StatusGSWPending
		}
	}
	if c.gateApproved(GateBase) && c.gateApproved(GateBulk) && c.gateApproved(GateGarment) {
		if c.CareLabel == nil || !c.CareLabel.IsComplete {
			return StatusCareLabelling
		}
		return StatusGSWPending
	}
	if c.gateApproved(GateBulk) && !c.gateApproved(GateGarment) {
		return StatusGarmentTesting
	}
	if c.gateApproved(GateBase) && !c.gateApproved(GateBulk) {
		return StatusBulkTesting
	}
	if !c.gateApproved(GateBase) && len(c.ComponentIDs) > 0 {
		return StatusBaseTesting
	}
	if len(c.ComponentIDs) == 0 {
		return StatusComponentsPending
	}
	return StatusDraft
}

// Snapshot is the read model returned by every command and query.
type Snapshot struct {
	ProductCollection
	Status CollectionStatus `json:"status"`
}

// Snapshot materialises the derived status alongside the aggregate.
func (c *ProductCollection) Snapshot() *Snapshot {
	return &Snapshot{ProductCollection: *c, Status: c.DeriveStatus()}
}

// CollectionFilter constrains collection listing queries.
type CollectionFilter struct {
	SupplierID string
	Season     string
	Search     string
	Page       int
	PageSize   int
}
