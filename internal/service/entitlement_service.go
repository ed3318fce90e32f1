package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/qcgate-api/internal/dto"
	"github.com/noah-isme/qcgate-api/internal/models"
	appErrors "github.com/noah-isme/qcgate-api/pkg/errors"
)

type entitlementStore interface {
	Get(ctx context.Context, userID string) (*models.ApprovalEntitlement, error)
	Set(ctx context.Context, entitlement *models.ApprovalEntitlement) error
	List(ctx context.Context) ([]models.ApprovalEntitlement, error)
}

// requiredRank maps each approval action onto the minimum tier rank.
func requiredRank(action models.ApprovalAction) (int, bool) {
	switch action {
	case models.ActionApproveCare:
		return models.EntitlementBronze.Rank(), true
	case models.ActionApproveBase, models.ActionApproveBulk:
		return models.EntitlementSilver.Rank(), true
	case models.ActionApproveGarment:
		return models.EntitlementGold.Rank(), true
	default:
		return 0, false
	}
}

// EntitlementService resolves and administers per-user approval tiers.
type EntitlementService struct {
	repo      entitlementStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEntitlementService constructs an EntitlementService.
func NewEntitlementService(repo entitlementStore, validate *validator.Validate, logger *zap.Logger) *EntitlementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EntitlementService{repo: repo, validator: validate, logger: logger}
}

// Can reports whether the user's tier covers the action. Unknown users and
// unknown actions answer false rather than erroring; only infrastructure
// failures surface as errors.
func (s *EntitlementService) Can(ctx context.Context, userID string, action models.ApprovalAction) (bool, error) {
	required, known := requiredRank(action)
	if !known || userID == "" {
		return false, nil
	}
	entitlement, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entitlement")
	}
	return entitlement.Level.Rank() >= required, nil
}

// GetForUser returns the user's tier, defaulting to NONE when unset.
func (s *EntitlementService) GetForUser(ctx context.Context, userID string) (*models.ApprovalEntitlement, error) {
	entitlement, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.ApprovalEntitlement{UserID: userID, Level: models.EntitlementNone}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entitlement")
	}
	return entitlement, nil
}

// Set assigns a tier to a user.
func (s *EntitlementService) Set(ctx context.Context, req dto.SetEntitlementRequest, updatedBy string) (*models.ApprovalEntitlement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entitlement payload")
	}
	level := models.EntitlementLevel(req.Level)
	if !level.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown entitlement level")
	}
	entitlement := &models.ApprovalEntitlement{
		UserID:    req.UserID,
		Level:     level,
		UpdatedBy: updatedBy,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.Set(ctx, entitlement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store entitlement")
	}
	s.logger.Info("entitlement updated",
		zap.String("user_id", req.UserID),
		zap.String("level", string(level)),
		zap.String("updated_by", updatedBy))
	return entitlement, nil
}

// List returns every assigned entitlement.
func (s *EntitlementService) List(ctx context.Context) ([]models.ApprovalEntitlement, error) {
	entitlements, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list entitlements")
	}
	return entitlements, nil
}
