package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/qcgate-api/internal/dto"
	"github.com/noah-isme/qcgate-api/internal/models"
	appErrors "github.com/noah-isme/qcgate-api/pkg/errors"
	"github.com/noah-isme/qcgate-api/pkg/response"
)

type componentService interface {
	Create(ctx context.Context, req dto.CreateComponentRequest) (*models.Component, error)
	Update(ctx context.Context, id string, req dto.UpdateComponentRequest) (*models.Component, error)
	Get(ctx context.Context, id string) (*models.Component, error)
	List(ctx context.Context, filter models.ComponentFilter) ([]models.Component, *models.Pagination, error)
}

// ComponentHandler exposes the component library endpoints.
type ComponentHandler struct {
	service componentService
}

// NewComponentHandler constructs handler.
func NewComponentHandler(svc componentService) *ComponentHandler {
	return &ComponentHandler{service: svc}
}

// Create godoc
// @Summary Add a component to the library
// @Tags Components
// @Accept json
// @Produce json
// @Param payload body dto.CreateComponentRequest true "Component payload"
// @Success 201 {object} response.Envelope
// @Router /components [post]
func (h *ComponentHandler) Create(c *gin.Context) {
	var req dto.CreateComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid component payload"))
		return
	}
	component, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, component)
}

// Update godoc
// @Summary Edit a library component
// @Tags Components
// @Accept json
// @Produce json
// @Param id path string true "Component ID"
// @Param payload body dto.UpdateComponentRequest true "Component payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /components/{id} [put]
func (h *ComponentHandler) Update(c *gin.Context) {
	var req dto.UpdateComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid component payload"))
		return
	}
	component, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, component, nil)
}

// Get godoc
// @Summary Fetch a component
// @Tags Components
// @Produce json
// @Param id path string true "Component ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /components/{id} [get]
func (h *ComponentHandler) Get(c *gin.Context) {
	component, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, component, nil)
}

// List godoc
// @Summary List library components
// @Tags Components
// @Produce json
// @Param search query string false "Composition search"
// @Param risk_only query bool false "Only components requiring risk assessment"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /components [get]
func (h *ComponentHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	riskOnly, _ := strconv.ParseBool(c.DefaultQuery("risk_only", "false"))
	filter := models.ComponentFilter{
		Search:    c.Query("search"),
		RiskOnly:  riskOnly,
		Page:      page,
		PageSize:  pageSize,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	components, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, components, pagination)
}

// Classify godoc
// @Summary Classify a component area against the risk threshold
// @Tags Components
// @Produce json
// @Param area query number true "Area percentage"
// @Success 200 {object} response.Envelope
// @Router /components/classify [get]
func (h *ComponentHandler) Classify(c *gin.Context) {
	area, err := strconv.ParseFloat(c.Query("area"), 64)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "area must be a number"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"area_percentage":       area,
		"requires_full_testing": models.RequiresFullTesting(area),
	}, nil)
}
