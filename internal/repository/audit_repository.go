package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/qcgate-api/internal/models"
)

// AuditRepository reads collection audit trails. Appends happen inside
// CollectionRepository.SaveAggregate so an entry can never land without its
// state change.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// ListByCollection returns the trail in append order.
func (r *AuditRepository) ListByCollection(ctx context.Context, collectionID string) ([]models.AuditEntry, error) {
	const query = `SELECT id, collection_id, seq, gate_level, action, actor, note, created_at
FROM audit_entries WHERE collection_id = $1 ORDER BY seq`
	var entries []models.AuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, collectionID); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}

// ListRecent returns the latest entries across all collections, newest first.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const query = `SELECT id, collection_id, seq, gate_level, action, actor, note, created_at
FROM audit_entries ORDER BY seq DESC LIMIT $1`
	var entries []models.AuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("list recent audit entries: %w", err)
	}
	return entries, nil
}
