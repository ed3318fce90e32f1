package dto

import "github.com/noah-isme/qcgate-api/internal/models"

// ReportRequest queues an asynchronous compliance export.
type ReportRequest struct {
	Type         models.ReportType   `json:"type" validate:"required,oneof=compliance audit_trail"`
	Format       models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
	CollectionID *string             `json:"collection_id,omitempty"`
	SupplierID   *string             `json:"supplier_id,omitempty"`
	Season       *string             `json:"season,omitempty"`
}

// ReportJobResponse acknowledges a queued job.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress and the signed download URL.
type ReportStatusResponse struct {
	ID           string              `json:"id"`
	Type         models.ReportType   `json:"type"`
	Status       models.ReportStatus `json:"status"`
	Progress     int                 `json:"progress"`
	ResultURL    *string             `json:"result_url,omitempty"`
	ErrorMessage *string             `json:"error_message,omitempty"`
}
