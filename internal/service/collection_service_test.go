package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/qcgate-api/internal/dto"
	"github.com/noah-isme/qcgate-api/internal/models"
	"github.com/noah-isme/qcgate-api/internal/repository"
	appErrors "github.com/noah-isme/qcgate-api/pkg/errors"
)

type collectionStoreStub struct {
	collections map[string]*models.ProductCollection
	entries     []models.AuditEntry
	conflicts   int
	saveCalls   int
}

func newCollectionStoreStub() *collectionStoreStub {
	return &collectionStoreStub{collections: map[string]*models.ProductCollection{}}
}

func copyCollection(c *models.ProductCollection) *models.ProductCollection {
	clone := *c
	clone.ComponentIDs = append([]string(nil), c.ComponentIDs...)
	clone.Gates = append([]models.GateState(nil), c.Gates...)
	if c.CareLabel != nil {
		label := *c.CareLabel
		clone.CareLabel = &label
	}
	if c.GSW != nil {
		gsw := *c.GSW
		clone.GSW = &gsw
	}
	return &clone
}

func (s *collectionStoreStub) Create(ctx context.Context, collection *models.ProductCollection) error {
	if collection.ID == "" {
		collection.ID = "col-" + collection.StyleRef
	}
	collection.Version = 1
	collection.Gates = []models.GateState{
		{ID: collection.ID + "-base", CollectionID: collection.ID, Level: models.GateBase, Status: models.GateStatusNotStarted},
		{ID: collection.ID + "-bulk", CollectionID: collection.ID, Level: models.GateBulk, Status: models.GateStatusNotStarted},
		{ID: collection.ID + "-garment", CollectionID: collection.ID, Level: models.GateGarment, Status: models.GateStatusNotStarted},
	}
	s.collections[collection.ID] = copyCollection(collection)
	return nil
}

func (s *collectionStoreStub) Exists(ctx context.Context, styleRef, season, supplierID string) (bool, error) {
	for _, c := range s.collections {
		if c.StyleRef == styleRef && c.Season == season && c.SupplierID == supplierID {
			return true, nil
		}
	}
	return false, nil
}

func (s *collectionStoreStub) GetByID(ctx context.Context, id string) (*models.ProductCollection, error) {
	c, ok := s.collections[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return copyCollection(c), nil
}

func (s *collectionStoreStub) List(ctx context.Context, filter models.CollectionFilter) ([]models.ProductCollection, int, error) {
	var out []models.ProductCollection
	for _, c := range s.collections {
		out = append(out, *copyCollection(c))
	}
	return out, len(out), nil
}

func (s *collectionStoreStub) SaveAggregate(ctx context.Context, collection *models.ProductCollection, expectedVersion int64, entries []models.AuditEntry) error {
	s.saveCalls++
	if s.conflicts > 0 {
		s.conflicts--
		return repository.ErrVersionConflict
	}
	stored, ok := s.collections[collection.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	collection.Version = expectedVersion + 1
	for i := range entries {
		entries[i].CollectionID = collection.ID
		entries[i].Seq = int64(len(s.entries) + 1)
		entries[i].CreatedAt = time.Now().UTC()
		s.entries = append(s.entries, entries[i])
	}
	s.collections[collection.ID] = copyCollection(collection)
	return nil
}

type componentReaderStub struct {
	components map[string]models.Component
}

func (s componentReaderStub) FindByID(ctx context.Context, id string) (*models.Component, error) {
	c, ok := s.components[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s componentReaderStub) FindByIDs(ctx context.Context, ids []string) (map[string]models.Component, error) {
	out := make(map[string]models.Component, len(ids))
	for _, id := range ids {
		if c, ok := s.components[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

type auditReaderStub struct {
	store *collectionStoreStub
}

func (s auditReaderStub) ListByCollection(ctx context.Context, collectionID string) ([]models.AuditEntry, error) {
	var out []models.AuditEntry
	for _, e := range s.store.entries {
		if e.CollectionID == collectionID {
			out = append(out, e)
		}
	}
	return out, nil
}

type approvalCheckerStub struct {
	allowed map[string]bool
}

func (s approvalCheckerStub) Can(ctx context.Context, userID string, action models.ApprovalAction) (bool, error) {
	return s.allowed[userID+":"+string(action)], nil
}

func allowAll(users ...string) approvalCheckerStub {
	allowed := map[string]bool{}
	actions := []models.ApprovalAction{
		models.ActionApproveCare, models.ActionApproveBase,
		models.ActionApproveBulk, models.ActionApproveGarment,
	}
	for _, u := range users {
		for _, a := range actions {
			allowed[u+":"+string(a)] = true
		}
	}
	return approvalCheckerStub{allowed: allowed}
}

func newCollectionServiceForTest(t *testing.T, checker approvalCheckerStub, components map[string]models.Component) (*CollectionService, *collectionStoreStub) {
	t.Helper()
	store := newCollectionStoreStub()
	if components == nil {
		components = map[string]models.Component{
			"cmp-1": {ID: "cmp-1", Composition: "100% cotton", AreaPercentage: 5, RiskAssessmentRequired: false},
		}
	}
	svc := NewCollectionService(store, componentReaderStub{components: components}, auditReaderStub{store: store}, checker, nil, validator.New(), zap.NewNop(), CollectionServiceConfig{ConflictRetries: 1})
	return svc, store
}

func createTestCollection(t *testing.T, svc *CollectionService) string {
	t.Helper()
	snapshot, err := svc.Create(context.Background(), dto.CreateCollectionRequest{
		StyleRef: "STY-100", Season: "AW26", SupplierID: "sup-1",
	})
	require.NoError(t, err)
	return snapshot.ID
}

func TestCollectionServiceCreate(t *testing.T) {
	svc, _ := newCollectionServiceForTest(t, allowAll(), nil)
	snapshot, err := svc.Create(context.Background(), dto.CreateCollectionRequest{
		StyleRef: "STY-100", Season: "AW26", SupplierID: "sup-1",
	})
	require.NoError(t, err)
	assert.Len(t, snapshot.Gates, 3)
	assert.Equal(t, models.StatusComponentsPending, snapshot.Status)

	_, err = svc.Create(context.Background(), dto.CreateCollectionRequest{
		StyleRef: "STY-100", Season: "AW26", SupplierID: "sup-1",
	})
	assertCode(t, err, appErrors.ErrConflict.Code)
}

func TestCollectionServiceLinkComponent(t *testing.T) {
	svc, store := newCollectionServiceForTest(t, allowAll(), nil)
	id := createTestCollection(t, svc)

	snapshot, err := svc.LinkComponent(context.Background(), id, dto.LinkComponentRequest{ComponentID: "cmp-1"}, "supplier")
	require.NoError(t, err)
	assert.Equal(t, models.StatusBaseTesting, snapshot.Status)
	require.Len(t, store.entries, 1)
	assert.Equal(t, models.AuditActionComponentLinked, store.entries[0].Action)

	_, err = svc.LinkComponent(context.Background(), id, dto.LinkComponentRequest{ComponentID: "cmp-missing"}, "supplier")
	assertCode(t, err, appErrors.ErrNotFound.Code)
}

func advanceToPassed(t *testing.T, svc *CollectionService, id string, level models.GateLevel) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.SubmitGate(ctx, id, dto.SubmitGateRequest{Level: level, RequestID: "req-" + string(level)}, "supplier")
	require.NoError(t, err)
	_, err = svc.StartGate(ctx, id, dto.StartGateRequest{Level: level}, "lab")
	require.NoError(t, err)
	_, err = svc.RecordGateOutcome(ctx, id, dto.GateOutcomeRequest{Level: level, Passed: true}, "lab")
	require.NoError(t, err)
}

func TestCollectionServiceFullApprovalFlow(t *testing.T) {
	svc, store := newCollectionServiceForTest(t, allowAll("qa-1"), nil)
	id := createTestCollection(t, svc)
	ctx := context.Background()

	_, err := svc.LinkComponent(ctx, id, dto.LinkComponentRequest{ComponentID: "cmp-1"}, "supplier")
	require.NoError(t, err)

	for _, level := range models.GateLevels {
		advanceToPassed(t, svc, id, level)
		snapshot, err := svc.ApproveGate(ctx, id, dto.ApproveGateRequest{Level: level}, "qa-1")
		require.NoError(t, err)
		assert.True(t, snapshot.Gate(level).IsLocked)
	}

	snapshot, err := svc.CompleteCareLabel(ctx, id, dto.CareLabelRequest{Symbols: []string{"wash-30"}, Wording: "Machine wash cold"}, "qa-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusGSWPending, snapshot.Status)

	_, err = svc.UploadGSW(ctx, id, dto.UploadGSWRequest{FileRef: "files/gsw-v1.pdf", Version: 1}, "supplier")
	require.NoError(t, err)
	_, err = svc.SubmitGSWForApproval(ctx, id, dto.SubmitGSWRequest{SubmittedTo: "brand-qa"}, "supplier")
	require.NoError(t, err)
	snapshot, err = svc.DecideGSW(ctx, id, true, "qa-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, snapshot.Status)

	trail, err := svc.AuditTrail(ctx, id)
	require.NoError(t, err)
	require.NotEmpty(t, trail)
	for i := 1; i < len(trail); i++ {
		assert.Greater(t, trail[i].Seq, trail[i-1].Seq)
	}
	last := trail[len(trail)-1]
	assert.Equal(t, models.AuditActionGSWApproved, last.Action)
	assert.Equal(t, "qa-1", last.Actor)
	assert.Equal(t, len(trail), len(store.entries))
}

func TestCollectionServiceApproveGateForbidden(t *testing.T) {
	svc, _ := newCollectionServiceForTest(t, approvalCheckerStub{allowed: map[string]bool{}}, nil)
	id := createTestCollection(t, svc)
	ctx := context.Background()
	_, err := svc.LinkComponent(ctx, id, dto.LinkComponentRequest{ComponentID: "cmp-1"}, "supplier")
	require.NoError(t, err)
	advanceToPassed(t, svc, id, models.GateBase)

	_, err = svc.ApproveGate(ctx, id, dto.ApproveGateRequest{Level: models.GateBase}, "nobody")
	assertCode(t, err, appErrors.ErrForbidden.Code)
}

func TestCollectionServiceBaseApprovalRiskRule(t *testing.T) {
	components := map[string]models.Component{
		"cmp-ok":  {ID: "cmp-ok", Composition: "trim", AreaPercentage: 10.0, RiskAssessmentRequired: false},
		"cmp-bad": {ID: "cmp-bad", Composition: "lining", AreaPercentage: 10.0001, RiskAssessmentRequired: false},
	}
	svc, _ := newCollectionServiceForTest(t, allowAll("qa-1"), components)
	ctx := context.Background()

	id := createTestCollection(t, svc)
	_, err := svc.LinkComponent(ctx, id, dto.LinkComponentRequest{ComponentID: "cmp-bad"}, "supplier")
	require.NoError(t, err)
	advanceToPassed(t, svc, id, models.GateBase)
	_, err = svc.ApproveGate(ctx, id, dto.ApproveGateRequest{Level: models.GateBase}, "qa-1")
	assertCode(t, err, appErrors.ErrRiskAssessmentIncomplete.Code)

	snapshot, err := svc.Create(ctx, dto.CreateCollectionRequest{StyleRef: "STY-200", Season: "AW26", SupplierID: "sup-1"})
	require.NoError(t, err)
	_, err = svc.LinkComponent(ctx, snapshot.ID, dto.LinkComponentRequest{ComponentID: "cmp-ok"}, "supplier")
	require.NoError(t, err)
	advanceToPassed(t, svc, snapshot.ID, models.GateBase)
	_, err = svc.ApproveGate(ctx, snapshot.ID, dto.ApproveGateRequest{Level: models.GateBase}, "qa-1")
	require.NoError(t, err)
}

func TestCollectionServiceConcurrentApproveGate(t *testing.T) {
	svc, store := newCollectionServiceForTest(t, allowAll("qa-1", "qa-2"), nil)
	id := createTestCollection(t, svc)
	ctx := context.Background()

	_, err := svc.LinkComponent(ctx, id, dto.LinkComponentRequest{ComponentID: "cmp-1"}, "supplier")
	require.NoError(t, err)
	advanceToPassed(t, svc, id, models.GateBase)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, approver := range []string{"qa-1", "qa-2"} {
		wg.Add(1)
		go func(actor string) {
			defer wg.Done()
			_, err := svc.ApproveGate(ctx, id, dto.ApproveGateRequest{Level: models.GateBase}, actor)
			errs <- err
		}(approver)
	}
	wg.Wait()
	close(errs)

	var succeeded, failed int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr), "expected typed error, got %v", err)
		assert.Contains(t, []string{
			appErrors.ErrGateLocked.Code,
			appErrors.ErrInvalidState.Code,
			appErrors.ErrConflictingWrite.Code,
		}, appErr.Code)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)

	stored, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	gate := stored.Gate(models.GateBase)
	assert.Equal(t, models.GateStatusApproved, gate.Status)
	assert.True(t, gate.IsLocked)
}

func TestCollectionServiceRetriesVersionConflict(t *testing.T) {
	svc, store := newCollectionServiceForTest(t, allowAll(), nil)
	id := createTestCollection(t, svc)

	store.conflicts = 1
	_, err := svc.LinkComponent(context.Background(), id, dto.LinkComponentRequest{ComponentID: "cmp-1"}, "supplier")
	require.NoError(t, err)
	assert.Equal(t, 2, store.saveCalls)
}

func TestCollectionServiceConflictExhaustsRetries(t *testing.T) {
	svc, store := newCollectionServiceForTest(t, allowAll(), nil)
	id := createTestCollection(t, svc)

	store.conflicts = 2
	_, err := svc.LinkComponent(context.Background(), id, dto.LinkComponentRequest{ComponentID: "cmp-1"}, "supplier")
	assertCode(t, err, appErrors.ErrConflictingWrite.Code)
}

func TestCollectionServiceGetNotFound(t *testing.T) {
	svc, _ := newCollectionServiceForTest(t, allowAll(), nil)
	_, err := svc.Get(context.Background(), "missing")
	assertCode(t, err, appErrors.ErrNotFound.Code)
	_, err = svc.AuditTrail(context.Background(), "missing")
	assertCode(t, err, appErrors.ErrNotFound.Code)
}

func TestCollectionServiceList(t *testing.T) {
	svc, _ := newCollectionServiceForTest(t, allowAll(), nil)
	createTestCollection(t, svc)
	snapshots, pagination, err := svc.List(context.Background(), models.CollectionFilter{})
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, models.StatusComponentsPending, snapshots[0].Status)
}
