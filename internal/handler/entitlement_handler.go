package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/qcgate-api/internal/dto"
	"github.com/noah-isme/qcgate-api/internal/models"
	appErrors "github.com/noah-isme/qcgate-api/pkg/errors"
	"github.com/noah-isme/qcgate-api/pkg/response"
)

type entitlementService interface {
	GetForUser(ctx context.Context, userID string) (*models.ApprovalEntitlement, error)
	Set(ctx context.Context, req dto.SetEntitlementRequest, updatedBy string) (*models.ApprovalEntitlement, error)
	List(ctx context.Context) ([]models.ApprovalEntitlement, error)
}

// EntitlementHandler administers approval tiers.
type EntitlementHandler struct {
	service entitlementService
}

// NewEntitlementHandler constructs handler.
func NewEntitlementHandler(svc entitlementService) *EntitlementHandler {
	return &EntitlementHandler{service: svc}
}

// List godoc
// @Summary List assigned approval tiers
// @Tags Entitlements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /entitlements [get]
func (h *EntitlementHandler) List(c *gin.Context) {
	entitlements, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entitlements, nil)
}

// Get godoc
// @Summary Approval tier for a user
// @Tags Entitlements
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /entitlements/{id} [get]
func (h *EntitlementHandler) Get(c *gin.Context) {
	entitlement, err := h.service.GetForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entitlement, nil)
}

// Set godoc
// @Summary Assign an approval tier to a user
// @Tags Entitlements
// @Accept json
// @Produce json
// @Param payload body dto.SetEntitlementRequest true "Entitlement payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /entitlements [put]
func (h *EntitlementHandler) Set(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.SetEntitlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid entitlement payload"))
		return
	}
	entitlement, err := h.service.Set(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entitlement, nil)
}
