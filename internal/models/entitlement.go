package models

import "time"

// EntitlementLevel is a user's approval tier. The tiers form a total order:
// GOLD covers everything SILVER does, and so on down to NONE.
type EntitlementLevel string

const (
	EntitlementNone   EntitlementLevel = "NONE"
	EntitlementBronze EntitlementLevel = "BRONZE"
	EntitlementSilver EntitlementLevel = "SILVER"
	EntitlementGold   EntitlementLevel = "GOLD"
)

// Rank maps the tier onto the total order. Unknown levels rank as NONE.
func (l EntitlementLevel) Rank() int {
	switch l {
	case EntitlementBronze:
		return 1
	case EntitlementSilver:
		return 2
	case EntitlementGold:
		return 3
	default:
		return 0
	}
}

// Valid reports whether the level is a known tier.
func (l EntitlementLevel) Valid() bool {
	switch l {
	case EntitlementNone, EntitlementBronze, EntitlementSilver, EntitlementGold:
		return true
	}
	return false
}

// ApprovalAction names the approval operations the entitlement table covers.
type ApprovalAction string

const (
	ActionApproveCare    ApprovalAction = "approve_care"
	ActionApproveBase    ApprovalAction = "approve_base"
	ActionApproveBulk    ApprovalAction = "approve_bulk"
	ActionApproveGarment ApprovalAction = "approve_garment"
)

// ApprovalActionForGate maps a gate level to the action required to approve it.
func ApprovalActionForGate(level GateLevel) ApprovalAction {
	switch level {
	case GateBase:
		return ActionApproveBase
	case GateBulk:
		return ActionApproveBulk
	case GateGarment:
		return ActionApproveGarment
	default:
		return ""
	}
}

// ApprovalEntitlement assigns a tier to a user.
type ApprovalEntitlement struct {
	UserID    string           `db:"user_id" json:"user_id"`
	Level     EntitlementLevel `db:"level" json:"level"`
	UpdatedBy string           `db:"updated_by" json:"updated_by"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}
