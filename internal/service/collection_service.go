package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/qcgate-api/internal/dto"
	"github.com/noah-isme/qcgate-api/internal/models"
	"github.com/noah-isme/qcgate-api/internal/repository"
	appErrors "github.com/noah-isme/qcgate-api/pkg/errors"
)

type collectionStore interface {
	Create(ctx context.Context, collection *models.ProductCollection) error
	Exists(ctx context.Context, styleRef, season, supplierID string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.ProductCollection, error)
	List(ctx context.Context, filter models.CollectionFilter) ([]models.ProductCollection, int, error)
	SaveAggregate(ctx context.Context, collection *models.ProductCollection, expectedVersion int64, entries []models.AuditEntry) error
}

type componentReader interface {
	FindByID(ctx context.Context, id string) (*models.Component, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Component, error)
}

type auditTrailReader interface {
	ListByCollection(ctx context.Context, collectionID string) ([]models.AuditEntry, error)
}

type approvalChecker interface {
	Can(ctx context.Context, userID string, action models.ApprovalAction) (bool, error)
}

// keyedMutex serialises commands per collection within this process so the
// common case never burns a version conflict.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// CollectionServiceConfig tunes command retry and snapshot caching.
type CollectionServiceConfig struct {
	ConflictRetries int
	SnapshotTTL     time.Duration
}

// CollectionService runs every command and query against product collections.
// Commands load the aggregate, apply a pure transition, and commit through
// SaveAggregate; version conflicts from concurrent writers are retried a
// bounded number of times before CONFLICTING_WRITE reaches the caller.
type CollectionService struct {
	repo         collectionStore
	components   componentReader
	audit        auditTrailReader
	entitlements approvalChecker
	cache        *CacheService
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          CollectionServiceConfig
	locks        *keyedMutex
}

// NewCollectionService constructs a CollectionService.
func NewCollectionService(repo collectionStore, components componentReader, audit auditTrailReader, entitlements approvalChecker, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg CollectionServiceConfig) *CollectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ConflictRetries < 0 {
		cfg.ConflictRetries = 0
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 30 * time.Second
	}
	return &CollectionService{
		repo:         repo,
		components:   components,
		audit:        audit,
		entitlements: entitlements,
		cache:        cache,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
		locks:        newKeyedMutex(),
	}
}

func snapshotCacheKey(id string) string {
	return fmt.Sprintf("collections:snapshot:%s", id)
}

// Create registers a new collection with its three gates in not_started.
func (s *CollectionService) Create(ctx context.Context, req dto.CreateCollectionRequest) (*models.Snapshot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid collection payload")
	}
	exists, err := s.repo.Exists(ctx, req.StyleRef, req.Season, req.SupplierID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check collection")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "collection already registered for this style, season and supplier")
	}
	collection := &models.ProductCollection{
		StyleRef:   req.StyleRef,
		Season:     req.Season,
		SupplierID: req.SupplierID,
	}
	if err := s.repo.Create(ctx, collection); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create collection")
	}
	return collection.Snapshot(), nil
}

// Get returns the snapshot, serving from cache when possible.
func (s *CollectionService) Get(ctx context.Context, id string) (*models.Snapshot, error) {
	if s.cache.Enabled() {
		var cached models.Snapshot
		if hit, err := s.cache.Get(ctx, snapshotCacheKey(id), &cached); err == nil && hit {
			return &cached, nil
		}
	}
	collection, err := s.loadCollection(ctx, id)
	if err != nil {
		return nil, err
	}
	snapshot := collection.Snapshot()
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, snapshotCacheKey(id), snapshot, s.cfg.SnapshotTTL); err != nil {
			s.logger.Warn("failed to cache snapshot", zap.String("collection_id", id), zap.Error(err))
		}
	}
	return snapshot, nil
}

// List returns snapshots matching the filter.
func (s *CollectionService) List(ctx context.Context, filter models.CollectionFilter) ([]models.Snapshot, *models.Pagination, error) {
	collections, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list collections")
	}
	snapshots := make([]models.Snapshot, 0, len(collections))
	for i := range collections {
		snapshots = append(snapshots, *collections[i].Snapshot())
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return snapshots, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// AuditTrail returns the collection's append-only history in order.
func (s *CollectionService) AuditTrail(ctx context.Context, id string) ([]models.AuditEntry, error) {
	if _, err := s.loadCollection(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.audit.ListByCollection(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit trail")
	}
	return entries, nil
}

// LinkComponent attaches a library component to the collection.
func (s *CollectionService) LinkComponent(ctx context.Context, id string, req dto.LinkComponentRequest, actorID string) (*models.Snapshot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid link payload")
	}
	if _, err := s.components.FindByID(ctx, req.ComponentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "component not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load component")
	}
	return s.mutate(ctx, id, func(c *models.ProductCollection) ([]models.AuditEntry, error) {
		return linkComponent(c, req.ComponentID, actorID)
	})
}

// UnlinkComponent detaches a component while the base gate is still open.
func (s *CollectionService) UnlinkComponent(ctx context.Context, id, componentID, actorID string) (*models.Snapshot, error) {
	if componentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "component id is required")
	}
	return s.mutate(ctx, id, func(c *models.ProductCollection) ([]models.AuditEntry, error) {
		return unlinkComponent(c, componentID, actorID)
	})
}

// SubmitGate hands a gate to the external test system.
func (s *CollectionService) SubmitGate(ctx context.Context, id string, req dto.SubmitGateRequest, actorID string) (*models.Snapshot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submit payload")
	}
	if !req.Level.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown gate level")
	}
	return s.mutate(ctx, id, func(c *models.ProductCollection) ([]models.AuditEntry, error) {
		return submitGate(c, req.Level, req.RequestID, actorID, time.Now().UTC())
	})
}

// StartGate acknowledges that testing is underway.
func (s *CollectionService) StartGate(ctx context.Context, id string, req dto.StartGateRequest, actorID string) (*models.Snapshot, error) {
	if !req.Level.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown gate level")
	}
	return s.mutate(ctx, id, func(c *models.ProductCollection) ([]models.AuditEntry, error) {
		return startGate(c, req.Level, actorID)
	})
}

// RecordGateOutcome stores the pass or fail reported by the test system.
func (s *CollectionService) RecordGateOutcome(ctx context.Context, id string, req dto.GateOutcomeRequest, actorID string) (*models.Snapshot, error) {
	if !req.Level.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown gate level")
	}
	return s.mutate(ctx, id, func(c *models.ProductCollection) ([]models.AuditEntry, error) {
		return recordGateOutcome(c, req.Level, req.Passed, actorID)
	})
}

// ApproveGate approves a passed gate and locks it. Base approval additionally
// re-checks the risk rule across all linked components.
func (s *CollectionService) ApproveGate(ctx context.Context, id string, req dto.ApproveGateRequest, actorID string) (*models.Snapshot, error) {
	if !req.Level.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown gate level")
	}
	if err := s.authorize(ctx, actorID, models.ApprovalActionForGate(req.Level)); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(c *models.ProductCollection) ([]models.AuditEntry, error) {
		if req.Level == models.GateBase {
			components, err := s.components.FindByIDs(ctx, c.ComponentIDs)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load linked components")
			}
			for _, componentID := range c.ComponentIDs {
				component, ok := components[componentID]
				if !ok {
					return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("linked component %s no longer exists", componentID))
				}
				if component.ViolatesRiskRule() {
					return nil, appErrors.Clone(appErrors.ErrRiskAssessmentIncomplete, fmt.Sprintf("component %s requires a risk assessment", componentID))
				}
			}
		}
		return approveGate(c, req.Level, actorID, time.Now().UTC())
	})
}

// CompleteCareLabel records the care label package. It may run alongside
// testing and is only rejected once the sign-off package has been submitted.
func (s *CollectionService) CompleteCareLabel(ctx context.Context, id string, req dto.CareLabelRequest, actorID string) (*models.Snapshot, error) {
	if err := s.authorize(ctx, actorID, models.ActionApproveCare); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(c *models.ProductCollection) ([]models.AuditEntry, error) {
		return completeCareLabel(c, req.Symbols, req.Wording, actorID, time.Now().UTC())
	})
}

// UploadGSW stores a new sign-off package revision.
func (s *CollectionService) UploadGSW(ctx context.Context, id string, req dto.UploadGSWRequest, actorID string) (*models.Snapshot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload payload")
	}
	return s.mutate(ctx, id, func(c *models.ProductCollection) ([]models.AuditEntry, error) {
		return uploadGSW(c, req.FileRef, req.Version, actorID, time.Now().UTC())
	})
}

// SubmitGSWForApproval hands the uploaded package to the approver.
func (s *CollectionService) SubmitGSWForApproval(ctx context.Context, id string, req dto.SubmitGSWRequest, actorID string) (*models.Snapshot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submit payload")
	}
	return s.mutate(ctx, id, func(c *models.ProductCollection) ([]models.AuditEntry, error) {
		return submitGSW(c, req.SubmittedTo, actorID, time.Now().UTC())
	})
}

// DecideGSW approves or rejects the submitted sign-off package.
func (s *CollectionService) DecideGSW(ctx context.Context, id string, approve bool, actorID string) (*models.Snapshot, error) {
	if err := s.authorize(ctx, actorID, models.ActionApproveGarment); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(c *models.ProductCollection) ([]models.AuditEntry, error) {
		return decideGSW(c, approve, actorID, time.Now().UTC())
	})
}

func (s *CollectionService) authorize(ctx context.Context, actorID string, action models.ApprovalAction) error {
	allowed, err := s.entitlements.Can(ctx, actorID, action)
	if err != nil {
		return err
	}
	if !allowed {
		return appErrors.Clone(appErrors.ErrForbidden, "approval tier does not cover this action")
	}
	return nil
}

func (s *CollectionService) loadCollection(ctx context.Context, id string) (*models.ProductCollection, error) {
	collection, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "collection not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load collection")
	}
	return collection, nil
}

// mutate runs a command against the aggregate under the per-collection lock.
// On a version conflict the aggregate is reloaded and the transition replayed
// against fresh state.
func (s *CollectionService) mutate(ctx context.Context, id string, apply func(*models.ProductCollection) ([]models.AuditEntry, error)) (*models.Snapshot, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	for attempt := 0; ; attempt++ {
		collection, err := s.loadCollection(ctx, id)
		if err != nil {
			return nil, err
		}
		loadedVersion := collection.Version
		entries, err := apply(collection)
		if err != nil {
			return nil, err
		}
		if err := s.repo.SaveAggregate(ctx, collection, loadedVersion, entries); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				if attempt < s.cfg.ConflictRetries {
					s.logger.Debug("version conflict, retrying command",
						zap.String("collection_id", id),
						zap.Int("attempt", attempt+1))
					continue
				}
				return nil, appErrors.ErrConflictingWrite
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save collection")
		}
		s.invalidateSnapshot(ctx, id)
		return collection.Snapshot(), nil
	}
}

func (s *CollectionService) invalidateSnapshot(ctx context.Context, id string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, snapshotCacheKey(id)); err != nil {
		s.logger.Warn("failed to invalidate snapshot cache", zap.String("collection_id", id), zap.Error(err))
	}
}
