package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/qcgate-api/internal/models"
)

// ErrVersionConflict signals that the aggregate changed since it was loaded.
// The service layer maps it to CONFLICTING_WRITE.
var ErrVersionConflict = errors.New("collection version conflict")

// CollectionRepository persists product collection aggregates. Every mutation
// goes through SaveAggregate so the gates, links, care label, GSW and audit
// entries commit in one transaction guarded by the version counter.
type CollectionRepository struct {
	db *sqlx.DB
}

// NewCollectionRepository constructs the repository.
func NewCollectionRepository(db *sqlx.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// Create inserts a collection together with its three gate records.
func (r *CollectionRepository) Create(ctx context.Context, collection *models.ProductCollection) error {
	if collection.ID == "" {
		collection.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if collection.CreatedAt.IsZero() {
		collection.CreatedAt = now
	}
	collection.UpdatedAt = now
	collection.Version = 1

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create collection: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertCollection = `INSERT INTO product_collections (id, style_ref, season, supplier_id, version, created_at, updated_at)
VALUES (:id, :style_ref, :season, :supplier_id, :version, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertCollection, collection); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	collection.Gates = make([]models.GateState, 0, len(models.GateLevels))
	for _, level := range models.GateLevels {
		gate := models.GateState{
			ID:           uuid.NewString(),
			CollectionID: collection.ID,
			Level:        level,
			Status:       models.GateStatusNotStarted,
		}
		const insertGate = `INSERT INTO gate_states (id, collection_id, level, status, linked_request_id, is_locked, submitted_at, approved_at, approved_by)
VALUES (:id, :collection_id, :level, :status, :linked_request_id, :is_locked, :submitted_at, :approved_at, :approved_by)`
		if _, err := tx.NamedExecContext(ctx, insertGate, gate); err != nil {
			return fmt.Errorf("create gate state: %w", err)
		}
		collection.Gates = append(collection.Gates, gate)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create collection: %w", err)
	}
	return nil
}

// Exists reports whether the style/season/supplier triple is already registered.
func (r *CollectionRepository) Exists(ctx context.Context, styleRef, season, supplierID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM product_collections WHERE style_ref = $1 AND season = $2 AND supplier_id = $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, styleRef, season, supplierID); err != nil {
		return false, fmt.Errorf("check collection exists: %w", err)
	}
	return exists, nil
}

// GetByID loads the full aggregate: collection row, gate states, component
// links, care label and GSW submission.
func (r *CollectionRepository) GetByID(ctx context.Context, id string) (*models.ProductCollection, error) {
	const query = `SELECT id, style_ref, season, supplier_id, version, created_at, updated_at FROM product_collections WHERE id = $1`
	var collection models.ProductCollection
	if err := r.db.GetContext(ctx, &collection, query, id); err != nil {
		return nil, err
	}

	const gatesQuery = `SELECT id, collection_id, level, status, linked_request_id, is_locked, submitted_at, approved_at, approved_by
FROM gate_states WHERE collection_id = $1 ORDER BY CASE level WHEN 'base' THEN 0 WHEN 'bulk' THEN 1 ELSE 2 END`
	if err := r.db.SelectContext(ctx, &collection.Gates, gatesQuery, id); err != nil {
		return nil, fmt.Errorf("load gate states: %w", err)
	}

	const linksQuery = `SELECT component_id FROM collection_components WHERE collection_id = $1 ORDER BY linked_at`
	if err := r.db.SelectContext(ctx, &collection.ComponentIDs, linksQuery, id); err != nil {
		return nil, fmt.Errorf("load component links: %w", err)
	}

	var careLabel models.CareLabelPackage
	const careQuery = `SELECT collection_id, symbols, wording, is_complete, updated_at FROM care_labels WHERE collection_id = $1`
	switch err := r.db.GetContext(ctx, &careLabel, careQuery, id); {
	case err == nil:
		collection.CareLabel = &careLabel
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, fmt.Errorf("load care label: %w", err)
	}

	var gsw models.GSWSubmission
	const gswQuery = `SELECT collection_id, file_ref, version, status, submitted_to, approved_by, uploaded_at, submitted_at, approved_at
FROM gsw_submissions WHERE collection_id = $1`
	switch err := r.db.GetContext(ctx, &gsw, gswQuery, id); {
	case err == nil:
		collection.GSW = &gsw
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, fmt.Errorf("load gsw submission: %w", err)
	}

	return &collection, nil
}

// List returns collection aggregates matching the filter with a total count.
func (r *CollectionRepository) List(ctx context.Context, filter models.CollectionFilter) ([]models.ProductCollection, int, error) {
	baseQuery := `FROM product_collections WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.SupplierID != "" {
		conditions = append(conditions, fmt.Sprintf("supplier_id = $%d", len(args)+1))
		args = append(args, filter.SupplierID)
	}
	if filter.Season != "" {
		conditions = append(conditions, fmt.Sprintf("season = $%d", len(args)+1))
		args = append(args, filter.Season)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(style_ref) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, style_ref, season, supplier_id, version, created_at, updated_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)
	var collections []models.ProductCollection
	if err := r.db.SelectContext(ctx, &collections, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list collections: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count collections: %w", err)
	}

	for i := range collections {
		const gatesQuery = `SELECT id, collection_id, level, status, linked_request_id, is_locked, submitted_at, approved_at, approved_by
FROM gate_states WHERE collection_id = $1 ORDER BY CASE level WHEN 'base' THEN 0 WHEN 'bulk' THEN 1 ELSE 2 END`
		if err := r.db.SelectContext(ctx, &collections[i].Gates, gatesQuery, collections[i].ID); err != nil {
			return nil, 0, fmt.Errorf("load gate states: %w", err)
		}
		const linksQuery = `SELECT component_id FROM collection_components WHERE collection_id = $1 ORDER BY linked_at`
		if err := r.db.SelectContext(ctx, &collections[i].ComponentIDs, linksQuery, collections[i].ID); err != nil {
			return nil, 0, fmt.Errorf("load component links: %w", err)
		}
	}

	return collections, total, nil
}

// SaveAggregate commits a mutated aggregate and its audit entries atomically.
// expectedVersion is the version the aggregate carried when it was loaded; a
// mismatch means another writer got there first and yields ErrVersionConflict
// with no partial writes.
func (r *CollectionRepository) SaveAggregate(ctx context.Context, collection *models.ProductCollection, expectedVersion int64, entries []models.AuditEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save aggregate: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	const bump = `UPDATE product_collections SET version = version + 1, updated_at = $3 WHERE id = $1 AND version = $2`
	result, err := tx.ExecContext(ctx, bump, collection.ID, expectedVersion, now)
	if err != nil {
		return fmt.Errorf("bump collection version: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("inspect version bump: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	collection.Version = expectedVersion + 1
	collection.UpdatedAt = now

	for i := range collection.Gates {
		const upsertGate = `UPDATE gate_states SET status = :status, linked_request_id = :linked_request_id, is_locked = :is_locked,
submitted_at = :submitted_at, approved_at = :approved_at, approved_by = :approved_by WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, upsertGate, collection.Gates[i]); err != nil {
			return fmt.Errorf("save gate state: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM collection_components WHERE collection_id = $1`, collection.ID); err != nil {
		return fmt.Errorf("clear component links: %w", err)
	}
	for i, componentID := range collection.ComponentIDs {
		const insertLink = `INSERT INTO collection_components (collection_id, component_id, linked_at) VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, insertLink, collection.ID, componentID, now.Add(time.Duration(i)*time.Microsecond)); err != nil {
			return fmt.Errorf("save component link: %w", err)
		}
	}

	if collection.CareLabel != nil {
		collection.CareLabel.CollectionID = collection.ID
		const upsertCare = `INSERT INTO care_labels (collection_id, symbols, wording, is_complete, updated_at)
VALUES (:collection_id, :symbols, :wording, :is_complete, :updated_at)
ON CONFLICT (collection_id) DO UPDATE SET symbols = EXCLUDED.symbols, wording = EXCLUDED.wording, is_complete = EXCLUDED.is_complete, updated_at = EXCLUDED.updated_at`
		if _, err := tx.NamedExecContext(ctx, upsertCare, collection.CareLabel); err != nil {
			return fmt.Errorf("save care label: %w", err)
		}
	}

	if collection.GSW != nil {
		collection.GSW.CollectionID = collection.ID
		const upsertGSW = `INSERT INTO gsw_submissions (collection_id, file_ref, version, status, submitted_to, approved_by, uploaded_at, submitted_at, approved_at)
VALUES (:collection_id, :file_ref, :version, :status, :submitted_to, :approved_by, :uploaded_at, :submitted_at, :approved_at)
ON CONFLICT (collection_id) DO UPDATE SET file_ref = EXCLUDED.file_ref, version = EXCLUDED.version, status = EXCLUDED.status,
submitted_to = EXCLUDED.submitted_to, approved_by = EXCLUDED.approved_by, uploaded_at = EXCLUDED.uploaded_at,
submitted_at = EXCLUDED.submitted_at, approved_at = EXCLUDED.approved_at`
		if _, err := tx.NamedExecContext(ctx, upsertGSW, collection.GSW); err != nil {
			return fmt.Errorf("save gsw submission: %w", err)
		}
	}

	for i := range entries {
		entry := &entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		entry.CollectionID = collection.ID
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		const insertEntry = `INSERT INTO audit_entries (id, collection_id, gate_level, action, actor, note, created_at)
VALUES (:id, :collection_id, :gate_level, :action, :actor, :note, :created_at)`
		if _, err := tx.NamedExecContext(ctx, insertEntry, entry); err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save aggregate: %w", err)
	}
	return nil
}
