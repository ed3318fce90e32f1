package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/qcgate-api/internal/dto"
	"github.com/noah-isme/qcgate-api/internal/middleware"
	"github.com/noah-isme/qcgate-api/internal/models"
	appErrors "github.com/noah-isme/qcgate-api/pkg/errors"
	"github.com/noah-isme/qcgate-api/pkg/response"
)

type collectionService interface {
	Create(ctx context.Context, req dto.CreateCollectionRequest) (*models.Snapshot, error)
	Get(ctx context.Context, id string) (*models.Snapshot, error)
	List(ctx context.Context, filter models.CollectionFilter) ([]models.Snapshot, *models.Pagination, error)
	AuditTrail(ctx context.Context, id string) ([]models.AuditEntry, error)
	LinkComponent(ctx context.Context, id string, req dto.LinkComponentRequest, actorID string) (*models.Snapshot, error)
	UnlinkComponent(ctx context.Context, id, componentID, actorID string) (*models.Snapshot, error)
	SubmitGate(ctx context.Context, id string, req dto.SubmitGateRequest, actorID string) (*models.Snapshot, error)
	StartGate(ctx context.Context, id string, req dto.StartGateRequest, actorID string) (*models.Snapshot, error)
	RecordGateOutcome(ctx context.Context, id string, req dto.GateOutcomeRequest, actorID string) (*models.Snapshot, error)
	ApproveGate(ctx context.Context, id string, req dto.ApproveGateRequest, actorID string) (*models.Snapshot, error)
	CompleteCareLabel(ctx context.Context, id string, req dto.CareLabelRequest, actorID string) (*models.Snapshot, error)
	UploadGSW(ctx context.Context, id string, req dto.UploadGSWRequest, actorID string) (*models.Snapshot, error)
	SubmitGSWForApproval(ctx context.Context, id string, req dto.SubmitGSWRequest, actorID string) (*models.Snapshot, error)
	DecideGSW(ctx context.Context, id string, approve bool, actorID string) (*models.Snapshot, error)
}

// CollectionHandler exposes the collection command and query endpoints.
type CollectionHandler struct {
	service collectionService
}

// NewCollectionHandler constructs handler.
func NewCollectionHandler(svc collectionService) *CollectionHandler {
	return &CollectionHandler{service: svc}
}

func actorFromContext(c *gin.Context) (string, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

// Create godoc
// @Summary Register a product collection
// @Tags Collections
// @Accept json
// @Produce json
// @Param payload body dto.CreateCollectionRequest true "Collection payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /collections [post]
func (h *CollectionHandler) Create(c *gin.Context) {
	var req dto.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid collection payload"))
		return
	}
	snapshot, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, snapshot)
}

// List godoc
// @Summary List collections
// @Tags Collections
// @Produce json
// @Param supplier_id query string false "Supplier filter"
// @Param season query string false "Season filter"
// @Param search query string false "Style ref search"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /collections [get]
func (h *CollectionHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	filter := models.CollectionFilter{
		SupplierID: c.Query("supplier_id"),
		Season:     c.Query("season"),
		Search:     c.Query("search"),
		Page:       page,
		PageSize:   pageSize,
	}
	snapshots, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshots, pagination)
}

// Get godoc
// @Summary Collection snapshot with derived status
// @Tags Collections
// @Produce json
// @Param id path string true "Collection ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /collections/{id} [get]
func (h *CollectionHandler) Get(c *gin.Context) {
	snapshot, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "version", snapshot.Version)
	response.JSON(c, http.StatusOK, snapshot, nil, middleware.ExtractMeta(c))
}

// AuditTrail godoc
// @Summary Collection audit trail
// @Tags Collections
// @Produce json
// @Param id path string true "Collection ID"
// @Success 200 {object} response.Envelope
// @Router /collections/{id}/audit [get]
func (h *CollectionHandler) AuditTrail(c *gin.Context) {
	entries, err := h.service.AuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// LinkComponent godoc
// @Summary Link a component to a collection
// @Tags Collections
// @Accept json
// @Produce json
// @Param id path string true "Collection ID"
// @Param payload body dto.LinkComponentRequest true "Link payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /collections/{id}/components [post]
func (h *CollectionHandler) LinkComponent(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.LinkComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid link payload"))
		return
	}
	snapshot, err := h.service.LinkComponent(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// UnlinkComponent godoc
// @Summary Unlink a component from a collection
// @Tags Collections
// @Produce json
// @Param id path string true "Collection ID"
// @Param componentId path string true "Component ID"
// @Success 200 {object} response.Envelope
// @Router /collections/{id}/components/{componentId} [delete]
func (h *CollectionHandler) UnlinkComponent(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	snapshot, err := h.service.UnlinkComponent(c.Request.Context(), c.Param("id"), c.Param("componentId"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// SubmitGate godoc
// @Summary Submit a gate to the test system
// @Tags Gates
// @Accept json
// @Produce json
// @Param id path string true "Collection ID"
// @Param payload body dto.SubmitGateRequest true "Submit payload"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /collections/{id}/gates/submit [post]
func (h *CollectionHandler) SubmitGate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.SubmitGateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submit payload"))
		return
	}
	snapshot, err := h.service.SubmitGate(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// StartGate godoc
// @Summary Mark gate testing as underway
// @Tags Gates
// @Accept json
// @Produce json
// @Param id path string true "Collection ID"
// @Param payload body dto.StartGateRequest true "Start payload"
// @Success 200 {object} response.Envelope
// @Router /collections/{id}/gates/start [post]
func (h *CollectionHandler) StartGate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.StartGateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid start payload"))
		return
	}
	snapshot, err := h.service.StartGate(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// RecordGateOutcome godoc
// @Summary Record the reported test outcome
// @Tags Gates
// @Accept json
// @Produce json
// @Param id path string true "Collection ID"
// @Param payload body dto.GateOutcomeRequest true "Outcome payload"
// @Success 200 {object} response.Envelope
// @Router /collections/{id}/gates/outcome [post]
func (h *CollectionHandler) RecordGateOutcome(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.GateOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid outcome payload"))
		return
	}
	snapshot, err := h.service.RecordGateOutcome(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// ApproveGate godoc
// @Summary Approve a passed gate, locking it
// @Tags Gates
// @Accept json
// @Produce json
// @Param id path string true "Collection ID"
// @Param payload body dto.ApproveGateRequest true "Approve payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /collections/{id}/gates/approve [post]
func (h *CollectionHandler) ApproveGate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ApproveGateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approve payload"))
		return
	}
	snapshot, err := h.service.ApproveGate(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// CompleteCareLabel godoc
// @Summary Complete the care label package
// @Tags CareLabel
// @Accept json
// @Produce json
// @Param id path string true "Collection ID"
// @Param payload body dto.CareLabelRequest true "Care label payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /collections/{id}/care-label [put]
func (h *CollectionHandler) CompleteCareLabel(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CareLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid care label payload"))
		return
	}
	snapshot, err := h.service.CompleteCareLabel(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// UploadGSW godoc
// @Summary Record a sign-off package upload
// @Tags GSW
// @Accept json
// @Produce json
// @Param id path string true "Collection ID"
// @Param payload body dto.UploadGSWRequest true "Upload payload"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /collections/{id}/gsw/upload [post]
func (h *CollectionHandler) UploadGSW(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UploadGSWRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid upload payload"))
		return
	}
	snapshot, err := h.service.UploadGSW(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// SubmitGSW godoc
// @Summary Submit the sign-off package for approval
// @Tags GSW
// @Accept json
// @Produce json
// @Param id path string true "Collection ID"
// @Param payload body dto.SubmitGSWRequest true "Submit payload"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /collections/{id}/gsw/submit [post]
func (h *CollectionHandler) SubmitGSW(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.SubmitGSWRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submit payload"))
		return
	}
	snapshot, err := h.service.SubmitGSWForApproval(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// ApproveGSW godoc
// @Summary Approve the submitted sign-off package
// @Tags GSW
// @Produce json
// @Param id path string true "Collection ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /collections/{id}/gsw/approve [post]
func (h *CollectionHandler) ApproveGSW(c *gin.Context) {
	h.decideGSW(c, true)
}

// RejectGSW godoc
// @Summary Reject the submitted sign-off package
// @Tags GSW
// @Produce json
// @Param id path string true "Collection ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /collections/{id}/gsw/reject [post]
func (h *CollectionHandler) RejectGSW(c *gin.Context) {
	h.decideGSW(c, false)
}

func (h *CollectionHandler) decideGSW(c *gin.Context, approve bool) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	snapshot, err := h.service.DecideGSW(c.Request.Context(), c.Param("id"), approve, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}
