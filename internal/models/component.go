package models

import "time"

// RiskAreaThreshold is the component area share above which full testing is
// mandatory. Strict inequality: exactly 10% stays on reduced testing.
const RiskAreaThreshold = 10.0

// RequiresFullTesting classifies a component by its declared area percentage.
// Pure and total over [0,100]; no rounding is applied to the threshold.
func RequiresFullTesting(areaPercentage float64) bool {
	return areaPercentage > RiskAreaThreshold
}

// Component is an entry in the component library. riskAssessmentRequired is
// derived from the area percentage but persisted so overrides stay auditable.
type Component struct {
	ID                     string    `db:"id" json:"id"`
	Composition            string    `db:"composition" json:"composition"`
	AreaPercentage         float64   `db:"area_percentage" json:"area_percentage"`
	RiskAssessmentRequired bool      `db:"risk_assessment_required" json:"risk_assessment_required"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time `db:"updated_at" json:"updated_at"`
}

// ViolatesRiskRule reports whether the persisted flag contradicts the
// classification rule. A violation blocks Base-gate approval.
func (c Component) ViolatesRiskRule() bool {
	return RequiresFullTesting(c.AreaPercentage) && !c.RiskAssessmentRequired
}

// ComponentFilter captures filtering criteria for listing components.
type ComponentFilter struct {
	Search    string
	RiskOnly  bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
