package dto

// CreateComponentRequest adds a component to the library. When the risk flag
// is omitted it is derived from the area percentage.
type CreateComponentRequest struct {
	Composition            string  `json:"composition" validate:"required"`
	AreaPercentage         float64 `json:"area_percentage" validate:"min=0,max=100"`
	RiskAssessmentRequired *bool   `json:"risk_assessment_required,omitempty"`
}

// UpdateComponentRequest edits a library component. Rejected once the
// component is referenced by an approved Base gate.
type UpdateComponentRequest struct {
	Composition            string  `json:"composition" validate:"required"`
	AreaPercentage         float64 `json:"area_percentage" validate:"min=0,max=100"`
	RiskAssessmentRequired *bool   `json:"risk_assessment_required,omitempty"`
}

// SetEntitlementRequest assigns an approval tier to a user.
type SetEntitlementRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Level  string `json:"level" validate:"required,oneof=NONE BRONZE SILVER GOLD"`
}
