package dto

import "github.com/noah-isme/qcgate-api/internal/models"

// CreateCollectionRequest registers a new style/season/supplier triple.
type CreateCollectionRequest struct {
	StyleRef   string `json:"style_ref" validate:"required"`
	Season     string `json:"season" validate:"required"`
	SupplierID string `json:"supplier_id" validate:"required"`
}

// LinkComponentRequest links a library component to a collection.
type LinkComponentRequest struct {
	ComponentID string `json:"component_id" validate:"required"`
}

// SubmitGateRequest submits a gate to the external test system.
type SubmitGateRequest struct {
	Level     models.GateLevel `json:"level" validate:"required"`
	RequestID string           `json:"request_id" validate:"required"`
}

// StartGateRequest acknowledges that testing is underway.
type StartGateRequest struct {
	Level models.GateLevel `json:"level" validate:"required"`
}

// GateOutcomeRequest records the reported test outcome.
type GateOutcomeRequest struct {
	Level  models.GateLevel `json:"level" validate:"required"`
	Passed bool             `json:"passed"`
}

// ApproveGateRequest approves a passed gate, locking it.
type ApproveGateRequest struct {
	Level models.GateLevel `json:"level" validate:"required"`
}

// CareLabelRequest completes the care label package.
type CareLabelRequest struct {
	Symbols []string `json:"symbols"`
	Wording string   `json:"wording"`
}

// UploadGSWRequest records a GSW file upload.
type UploadGSWRequest struct {
	FileRef string `json:"file_ref" validate:"required"`
	Version int    `json:"version" validate:"required,min=1"`
}

// SubmitGSWRequest submits the GSW package for approval.
type SubmitGSWRequest struct {
	SubmittedTo string `json:"submitted_to" validate:"required"`
}
