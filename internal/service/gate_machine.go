package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/qcgate-api/internal/models"
	appErrors "github.com/noah-isme/qcgate-api/pkg/errors"
)

// gate_machine.go holds the pure transition rules for the collection
// aggregate. Each function checks the command against the loaded state,
// mutates the aggregate in place when it is legal, and returns the audit
// entries to append in the same transaction. A returned error means the
// aggregate was left untouched. No I/O happens here.

func newAuditEntry(level *models.GateLevel, action, actor string, note *string) models.AuditEntry {
	return models.AuditEntry{GateLevel: level, Action: action, Actor: actor, Note: note}
}

func strPtr(s string) *string { return &s }

func linkComponent(c *models.ProductCollection, componentID, actor string) ([]models.AuditEntry, error) {
	base := c.Gate(models.GateBase)
	if base != nil && base.IsLocked {
		return nil, appErrors.Clone(appErrors.ErrGateLocked, "base gate is approved, component list is frozen")
	}
	if c.HasComponent(componentID) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "component already linked")
	}
	c.ComponentIDs = append(c.ComponentIDs, componentID)
	return []models.AuditEntry{
		newAuditEntry(nil, models.AuditActionComponentLinked, actor, strPtr(componentID)),
	}, nil
}

func unlinkComponent(c *models.ProductCollection, componentID, actor string) ([]models.AuditEntry, error) {
	base := c.Gate(models.GateBase)
	if base != nil && base.IsLocked {
		return nil, appErrors.Clone(appErrors.ErrGateLocked, "base gate is approved, component list is frozen")
	}
	if !c.HasComponent(componentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "component not linked to collection")
	}
	kept := c.ComponentIDs[:0]
	for _, id := range c.ComponentIDs {
		if id != componentID {
			kept = append(kept, id)
		}
	}
	c.ComponentIDs = kept
	return []models.AuditEntry{
		newAuditEntry(nil, models.AuditActionComponentUnlinked, actor, strPtr(componentID)),
	}, nil
}

func submitGate(c *models.ProductCollection, level models.GateLevel, requestID, actor string, now time.Time) ([]models.AuditEntry, error) {
	gate := c.Gate(level)
	if gate == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown gate level %q", level))
	}
	if gate.IsLocked {
		return nil, appErrors.ErrGateLocked
	}
	if upstream := level.Upstream(); upstream != "" {
		up := c.Gate(upstream)
		if up == nil || up.Status != models.GateStatusApproved {
			return nil, appErrors.Clone(appErrors.ErrPreconditionNotMet, fmt.Sprintf("%s gate must be approved before submitting %s", upstream, level))
		}
	}
	if level == models.GateBase && len(c.ComponentIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "base gate needs at least one linked component")
	}
	switch gate.Status {
	case models.GateStatusNotStarted, models.GateStatusFailed:
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot submit %s gate from status %s", level, gate.Status))
	}
	gate.Status = models.GateStatusSubmitted
	gate.LinkedRequestID = &requestID
	gate.SubmittedAt = &now
	gate.ApprovedAt = nil
	gate.ApprovedBy = nil
	return []models.AuditEntry{
		newAuditEntry(&level, models.AuditActionGateSubmitted, actor, strPtr(requestID)),
	}, nil
}

func startGate(c *models.ProductCollection, level models.GateLevel, actor string) ([]models.AuditEntry, error) {
	gate := c.Gate(level)
	if gate == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown gate level %q", level))
	}
	if gate.IsLocked {
		return nil, appErrors.ErrGateLocked
	}
	if gate.Status != models.GateStatusSubmitted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot start %s gate from status %s", level, gate.Status))
	}
	gate.Status = models.GateStatusInProgress
	return []models.AuditEntry{
		newAuditEntry(&level, models.AuditActionGateStarted, actor, nil),
	}, nil
}

func recordGateOutcome(c *models.ProductCollection, level models.GateLevel, passed bool, actor string) ([]models.AuditEntry, error) {
	gate := c.Gate(level)
	if gate == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown gate level %q", level))
	}
	if gate.IsLocked {
		return nil, appErrors.ErrGateLocked
	}
	if gate.Status != models.GateStatusInProgress {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot record outcome for %s gate in status %s", level, gate.Status))
	}
	action := models.AuditActionGatePassed
	if passed {
		gate.Status = models.GateStatusPassed
	} else {
		gate.Status = models.GateStatusFailed
		action = models.AuditActionGateFailed
	}
	return []models.AuditEntry{
		newAuditEntry(&level, action, actor, nil),
	}, nil
}

func approveGate(c *models.ProductCollection, level models.GateLevel, actor string, now time.Time) ([]models.AuditEntry, error) {
	gate := c.Gate(level)
	if gate == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown gate level %q", level))
	}
	if gate.IsLocked {
		return nil, appErrors.ErrGateLocked
	}
	if gate.Status != models.GateStatusPassed {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot approve %s gate in status %s", level, gate.Status))
	}
	gate.Status = models.GateStatusApproved
	gate.IsLocked = true
	gate.ApprovedAt = &now
	gate.ApprovedBy = &actor
	return []models.AuditEntry{
		newAuditEntry(&level, models.AuditActionGateApproved, actor, nil),
	}, nil
}

// completeCareLabel may run at any point alongside testing; it is only frozen
// once the sign-off package has been submitted for a decision.
func completeCareLabel(c *models.ProductCollection, symbols []string, wording, actor string, now time.Time) ([]models.AuditEntry, error) {
	if c.GSW != nil && (c.GSW.Status == models.GSWStatusSubmitted || c.GSW.Status == models.GSWStatusApproved) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "care label is frozen once the sign-off package is submitted")
	}
	if wording == "" || len(symbols) == 0 {
		return nil, appErrors.ErrIncompleteCareLabel
	}
	c.CareLabel = &models.CareLabelPackage{
		CollectionID: c.ID,
		Symbols:      models.CareLabelSymbols(symbols),
		Wording:      wording,
		IsComplete:   true,
		UpdatedAt:    now,
	}
	return []models.AuditEntry{
		newAuditEntry(nil, models.AuditActionCareLabelComplete, actor, nil),
	}, nil
}

// uploadGSW needs the three gates approved; the care label may still be in
// flight and is only enforced at submission.
func uploadGSW(c *models.ProductCollection, fileRef string, version int, actor string, now time.Time) ([]models.AuditEntry, error) {
	for _, level := range models.GateLevels {
		gate := c.Gate(level)
		if gate == nil || gate.Status != models.GateStatusApproved {
			return nil, appErrors.Clone(appErrors.ErrPreconditionNotMet, "all testing gates must be approved before uploading the sign-off package")
		}
	}
	if c.GSW != nil {
		if c.GSW.Status == models.GSWStatusApproved {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "sign-off is already approved")
		}
		if c.GSW.Status == models.GSWStatusSubmitted {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "sign-off is awaiting a decision")
		}
		if version <= c.GSW.Version {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("sign-off version must exceed %d", c.GSW.Version))
		}
	}
	c.GSW = &models.GSWSubmission{
		CollectionID: c.ID,
		FileRef:      fileRef,
		Version:      version,
		Status:       models.GSWStatusUploaded,
		UploadedAt:   &now,
	}
	return []models.AuditEntry{
		newAuditEntry(nil, models.AuditActionGSWUploaded, actor, strPtr(fmt.Sprintf("version %d", version))),
	}, nil
}

func submitGSW(c *models.ProductCollection, submittedTo, actor string, now time.Time) ([]models.AuditEntry, error) {
	if c.GSW == nil || c.GSW.Status != models.GSWStatusUploaded {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "sign-off package must be uploaded before submission")
	}
	for _, level := range models.GateLevels {
		gate := c.Gate(level)
		if gate == nil || gate.Status != models.GateStatusApproved {
			return nil, appErrors.Clone(appErrors.ErrPreconditionNotMet, "all testing gates must be approved before submitting the sign-off package")
		}
	}
	if c.CareLabel == nil || !c.CareLabel.IsComplete {
		return nil, appErrors.Clone(appErrors.ErrPreconditionNotMet, "care label must be completed before submitting the sign-off package")
	}
	c.GSW.Status = models.GSWStatusSubmitted
	c.GSW.SubmittedTo = &submittedTo
	c.GSW.SubmittedAt = &now
	return []models.AuditEntry{
		newAuditEntry(nil, models.AuditActionGSWSubmitted, actor, strPtr(submittedTo)),
	}, nil
}

func decideGSW(c *models.ProductCollection, approve bool, actor string, now time.Time) ([]models.AuditEntry, error) {
	if c.GSW == nil || c.GSW.Status != models.GSWStatusSubmitted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "sign-off package has not been submitted")
	}
	action := models.AuditActionGSWApproved
	if approve {
		c.GSW.Status = models.GSWStatusApproved
		c.GSW.ApprovedBy = &actor
		c.GSW.ApprovedAt = &now
	} else {
		c.GSW.Status = models.GSWStatusRejected
		action = models.AuditActionGSWRejected
	}
	return []models.AuditEntry{
		newAuditEntry(nil, action, actor, nil),
	}, nil
}
