package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/qcgate-api/internal/models"
)

// EntitlementRepository persists per-user approval tiers.
type EntitlementRepository struct {
	db *sqlx.DB
}

// NewEntitlementRepository constructs the repository.
func NewEntitlementRepository(db *sqlx.DB) *EntitlementRepository {
	return &EntitlementRepository{db: db}
}

// Get returns the entitlement row for a user. sql.ErrNoRows when unset.
func (r *EntitlementRepository) Get(ctx context.Context, userID string) (*models.ApprovalEntitlement, error) {
	const query = `SELECT user_id, level, updated_by, updated_at FROM approval_entitlements WHERE user_id = $1`
	var entitlement models.ApprovalEntitlement
	if err := r.db.GetContext(ctx, &entitlement, query, userID); err != nil {
		return nil, err
	}
	return &entitlement, nil
}

// Set upserts the user's approval tier.
func (r *EntitlementRepository) Set(ctx context.Context, entitlement *models.ApprovalEntitlement) error {
	if entitlement.UpdatedAt.IsZero() {
		entitlement.UpdatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO approval_entitlements (user_id, level, updated_by, updated_at)
VALUES (:user_id, :level, :updated_by, :updated_at)
ON CONFLICT (user_id) DO UPDATE SET level = EXCLUDED.level, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, entitlement); err != nil {
		return fmt.Errorf("set entitlement: %w", err)
	}
	return nil
}

// List returns all assigned entitlements ordered by user id.
func (r *EntitlementRepository) List(ctx context.Context) ([]models.ApprovalEntitlement, error) {
	const query = `SELECT user_id, level, updated_by, updated_at FROM approval_entitlements ORDER BY user_id`
	var entitlements []models.ApprovalEntitlement
	if err := r.db.SelectContext(ctx, &entitlements, query); err != nil {
		return nil, fmt.Errorf("list entitlements: %w", err)
	}
	return entitlements, nil
}
