package models

import "time"

// Audit actions recorded on the collection trail.
const (
	AuditActionComponentLinked   = "Component linked"
	AuditActionComponentUnlinked = "Component unlinked"
	AuditActionGateSubmitted     = "Gate submitted"
	AuditActionGateStarted       = "Gate started"
	AuditActionGatePassed        = "Gate passed"
	AuditActionGateFailed        = "Gate failed"
	AuditActionGateApproved      = "Gate approved"
	AuditActionCareLabelComplete = "Care label completed"
	AuditActionGSWUploaded       = "Uploaded"
	AuditActionGSWSubmitted      = "Submitted for approval"
	AuditActionGSWApproved       = "Approved"
	AuditActionGSWRejected       = "Rejected"
)

// AuditEntry is one append-only record on a collection's trail. Entries are
// written in the same transaction as the state change they document and are
// strictly ordered by Seq within a collection.
type AuditEntry struct {
	ID           string     `db:"id" json:"id"`
	CollectionID string     `db:"collection_id" json:"collection_id"`
	Seq          int64      `db:"seq" json:"seq"`
	GateLevel    *GateLevel `db:"gate_level" json:"gate_level,omitempty"`
	Action       string     `db:"action" json:"action"`
	Actor        string     `db:"actor" json:"actor"`
	Note         *string    `db:"note" json:"note,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// System audit actions (authentication and administration).
const (
	AuditActionLogin          = "LOGIN"
	AuditActionLogout         = "LOGOUT"
	AuditActionPasswordChange = "PASSWORD_CHANGE"
	AuditActionEntitlementSet = "ENTITLEMENT_SET"
)

// AuditLog represents a system-level audit record (auth and admin actions).
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
