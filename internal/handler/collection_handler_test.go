package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/qcgate-api/internal/dto"
	"github.com/noah-isme/qcgate-api/internal/middleware"
	"github.com/noah-isme/qcgate-api/internal/models"
	appErrors "github.com/noah-isme/qcgate-api/pkg/errors"
)

type collectionServiceMock struct {
	snapshot *models.Snapshot
	entries  []models.AuditEntry
	err      error
}

func (m *collectionServiceMock) result() (*models.Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.snapshot, nil
}

func (m *collectionServiceMock) Create(ctx context.Context, req dto.CreateCollectionRequest) (*models.Snapshot, error) {
	return m.result()
}

func (m *collectionServiceMock) Get(ctx context.Context, id string) (*models.Snapshot, error) {
	return m.result()
}

func (m *collectionServiceMock) List(ctx context.Context, filter models.CollectionFilter) ([]models.Snapshot, *models.Pagination, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return []models.Snapshot{*m.snapshot}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (m *collectionServiceMock) AuditTrail(ctx context.Context, id string) ([]models.AuditEntry, error) {
	return m.entries, m.err
}

func (m *collectionServiceMock) LinkComponent(ctx context.Context, id string, req dto.LinkComponentRequest, actorID string) (*models.Snapshot, error) {
	return m.result()
}

func (m *collectionServiceMock) UnlinkComponent(ctx context.Context, id, componentID, actorID string) (*models.Snapshot, error) {
	return m.result()
}

func (m *collectionServiceMock) SubmitGate(ctx context.Context, id string, req dto.SubmitGateRequest, actorID string) (*models.Snapshot, error) {
	return m.result()
}

func (m *collectionServiceMock) StartGate(ctx context.Context, id string, req dto.StartGateRequest, actorID string) (*models.Snapshot, error) {
	return m.result()
}

func (m *collectionServiceMock) RecordGateOutcome(ctx context.Context, id string, req dto.GateOutcomeRequest, actorID string) (*models.Snapshot, error) {
	return m.result()
}

func (m *collectionServiceMock) ApproveGate(ctx context.Context, id string, req dto.ApproveGateRequest, actorID string) (*models.Snapshot, error) {
	return m.result()
}

func (m *collectionServiceMock) CompleteCareLabel(ctx context.Context, id string, req dto.CareLabelRequest, actorID string) (*models.Snapshot, error) {
	return m.result()
}

func (m *collectionServiceMock) UploadGSW(ctx context.Context, id string, req dto.UploadGSWRequest, actorID string) (*models.Snapshot, error) {
	return m.result()
}

func (m *collectionServiceMock) SubmitGSWForApproval(ctx context.Context, id string, req dto.SubmitGSWRequest, actorID string) (*models.Snapshot, error) {
	return m.result()
}

func (m *collectionServiceMock) DecideGSW(ctx context.Context, id string, approve bool, actorID string) (*models.Snapshot, error) {
	return m.result()
}

func testSnapshot() *models.Snapshot {
	c := models.ProductCollection{
		ID: "col-1", StyleRef: "STY-100", Season: "AW26", SupplierID: "sup-1",
		Gates: []models.GateState{
			{Level: models.GateBase, Status: models.GateStatusNotStarted},
			{Level: models.GateBulk, Status: models.GateStatusNotStarted},
			{Level: models.GateGarment, Status: models.GateStatusNotStarted},
		},
	}
	return c.Snapshot()
}

func TestCollectionHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCollectionHandler(&collectionServiceMock{snapshot: testSnapshot()})

	payload, _ := json.Marshal(dto.CreateCollectionRequest{StyleRef: "STY-100", Season: "AW26", SupplierID: "sup-1"})
	c, w := newGinContext(http.MethodPost, "/collections", payload)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestCollectionHandlerCreateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCollectionHandler(&collectionServiceMock{err: appErrors.ErrConflict})

	payload, _ := json.Marshal(dto.CreateCollectionRequest{StyleRef: "STY-100", Season: "AW26", SupplierID: "sup-1"})
	c, w := newGinContext(http.MethodPost, "/collections", payload)

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestCollectionHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCollectionHandler(&collectionServiceMock{snapshot: testSnapshot()})

	c, w := newGinContext(http.MethodGet, "/collections/col-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "col-1"}}

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCollectionHandlerSubmitGateRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCollectionHandler(&collectionServiceMock{snapshot: testSnapshot()})

	payload, _ := json.Marshal(dto.SubmitGateRequest{Level: models.GateBase, RequestID: "req-1"})
	c, w := newGinContext(http.MethodPost, "/collections/col-1/gates/submit", payload)
	c.Params = gin.Params{{Key: "id", Value: "col-1"}}

	handler.SubmitGate(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCollectionHandlerApproveGate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCollectionHandler(&collectionServiceMock{snapshot: testSnapshot()})

	payload, _ := json.Marshal(dto.ApproveGateRequest{Level: models.GateBase})
	c, w := newGinContext(http.MethodPost, "/collections/col-1/gates/approve", payload)
	c.Params = gin.Params{{Key: "id", Value: "col-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "qa-1", Role: models.RoleQA})

	handler.ApproveGate(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCollectionHandlerApproveGateForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCollectionHandler(&collectionServiceMock{err: appErrors.ErrForbidden})

	payload, _ := json.Marshal(dto.ApproveGateRequest{Level: models.GateBase})
	c, w := newGinContext(http.MethodPost, "/collections/col-1/gates/approve", payload)
	c.Params = gin.Params{{Key: "id", Value: "col-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "nobody", Role: models.RoleQA})

	handler.ApproveGate(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestCollectionHandlerAuditTrail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCollectionHandler(&collectionServiceMock{entries: []models.AuditEntry{{ID: "a-1", Seq: 1, Action: models.AuditActionGateSubmitted}}})

	c, w := newGinContext(http.MethodGet, "/collections/col-1/audit", nil)
	c.Params = gin.Params{{Key: "id", Value: "col-1"}}

	handler.AuditTrail(c)
	require.Equal(t, http.StatusOK, w.Code)
}
