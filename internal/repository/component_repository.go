package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/qcgate-api/internal/models"
)

// ComponentRepository persists the component library.
type ComponentRepository struct {
	db *sqlx.DB
}

// NewComponentRepository constructs the repository.
func NewComponentRepository(db *sqlx.DB) *ComponentRepository {
	return &ComponentRepository{db: db}
}

// Create inserts a new component row.
func (r *ComponentRepository) Create(ctx context.Context, component *models.Component) error {
	if component.ID == "" {
		component.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if component.CreatedAt.IsZero() {
		component.CreatedAt = now
	}
	component.UpdatedAt = now
	const query = `INSERT INTO components (id, composition, area_percentage, risk_assessment_required, created_at, updated_at)
VALUES (:id, :composition, :area_percentage, :risk_assessment_required, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, component); err != nil {
		return fmt.Errorf("create component: %w", err)
	}
	return nil
}

// Update rewrites a component's mutable fields.
func (r *ComponentRepository) Update(ctx context.Context, component *models.Component) error {
	component.UpdatedAt = time.Now().UTC()
	const query = `UPDATE components SET composition = :composition, area_percentage = :area_percentage,
risk_assessment_required = :risk_assessment_required, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, component); err != nil {
		return fmt.Errorf("update component: %w", err)
	}
	return nil
}

// FindByID fetches a component by identifier.
func (r *ComponentRepository) FindByID(ctx context.Context, id string) (*models.Component, error) {
	const query = `SELECT id, composition, area_percentage, risk_assessment_required, created_at, updated_at FROM components WHERE id = $1`
	var component models.Component
	if err := r.db.GetContext(ctx, &component, query, id); err != nil {
		return nil, err
	}
	return &component, nil
}

// FindByIDs fetches a batch of components keyed by id.
func (r *ComponentRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Component, error) {
	result := make(map[string]models.Component, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(`SELECT id, composition, area_percentage, risk_assessment_required, created_at, updated_at FROM components WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build components query: %w", err)
	}
	query = r.db.Rebind(query)
	var components []models.Component
	if err := r.db.SelectContext(ctx, &components, query, args...); err != nil {
		return nil, fmt.Errorf("fetch components: %w", err)
	}
	for _, component := range components {
		result[component.ID] = component
	}
	return result, nil
}

// List returns components matching the filter with a total count.
func (r *ComponentRepository) List(ctx context.Context, filter models.ComponentFilter) ([]models.Component, int, error) {
	baseQuery := `FROM components WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(composition) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.RiskOnly {
		conditions = append(conditions, "risk_assessment_required = TRUE")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"composition":     true,
		"area_percentage": true,
		"created_at":      true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
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

	listQuery := fmt.Sprintf("SELECT id, composition, area_percentage, risk_assessment_required, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", baseQuery, sortBy, sortOrder, pageSize, offset)
	var components []models.Component
	if err := r.db.SelectContext(ctx, &components, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list components: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count components: %w", err)
	}

	return components, total, nil
}

// ReferencedByApprovedBaseGate reports whether any approved Base gate freezes
// this component. A frozen component may no longer be edited.
func (r *ComponentRepository) ReferencedByApprovedBaseGate(ctx context.Context, componentID string) (bool, error) {
	const query = `SELECT EXISTS(
SELECT 1 FROM collection_components cc
JOIN gate_states gs ON gs.collection_id = cc.collection_id
WHERE cc.component_id = $1 AND gs.level = 'base' AND gs.status = 'approved')`
	var referenced bool
	if err := r.db.GetContext(ctx, &referenced, query, componentID); err != nil {
		return false, fmt.Errorf("check component references: %w", err)
	}
	return referenced, nil
}
