package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/qcgate-api/internal/dto"
	"github.com/noah-isme/qcgate-api/internal/models"
	appErrors "github.com/noah-isme/qcgate-api/pkg/errors"
)

type componentStore interface {
	Create(ctx context.Context, component *models.Component) error
	Update(ctx context.Context, component *models.Component) error
	FindByID(ctx context.Context, id string) (*models.Component, error)
	List(ctx context.Context, filter models.ComponentFilter) ([]models.Component, int, error)
	ReferencedByApprovedBaseGate(ctx context.Context, componentID string) (bool, error)
}

// ComponentService manages the component library.
type ComponentService struct {
	repo      componentStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewComponentService constructs a ComponentService.
func NewComponentService(repo componentStore, validate *validator.Validate, logger *zap.Logger) *ComponentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ComponentService{repo: repo, validator: validate, logger: logger}
}

// resolveRiskFlag derives the risk flag from the area share unless the caller
// supplied an explicit value.
func resolveRiskFlag(areaPercentage float64, override *bool) bool {
	if override != nil {
		return *override
	}
	return models.RequiresFullTesting(areaPercentage)
}

// Create adds a component to the library.
func (s *ComponentService) Create(ctx context.Context, req dto.CreateComponentRequest) (*models.Component, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid component payload")
	}
	component := &models.Component{
		Composition:            req.Composition,
		AreaPercentage:         req.AreaPercentage,
		RiskAssessmentRequired: resolveRiskFlag(req.AreaPercentage, req.RiskAssessmentRequired),
	}
	if err := s.repo.Create(ctx, component); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create component")
	}
	return component, nil
}

// Update edits a component unless an approved base gate froze it.
func (s *ComponentService) Update(ctx context.Context, id string, req dto.UpdateComponentRequest) (*models.Component, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid component payload")
	}
	component, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	frozen, err := s.repo.ReferencedByApprovedBaseGate(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check component references")
	}
	if frozen {
		return nil, appErrors.Clone(appErrors.ErrGateLocked, "component is referenced by an approved base gate")
	}
	component.Composition = req.Composition
	component.AreaPercentage = req.AreaPercentage
	component.RiskAssessmentRequired = resolveRiskFlag(req.AreaPercentage, req.RiskAssessmentRequired)
	if err := s.repo.Update(ctx, component); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update component")
	}
	return component, nil
}

// Get fetches a component by id.
func (s *ComponentService) Get(ctx context.Context, id string) (*models.Component, error) {
	component, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "component not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load component")
	}
	return component, nil
}

// List returns components matching the filter.
func (s *ComponentService) List(ctx context.Context, filter models.ComponentFilter) ([]models.Component, *models.Pagination, error) {
	components, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list components")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return components, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}
