package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/qcgate-api/internal/dto"
	"github.com/noah-isme/qcgate-api/internal/models"
)

type componentServiceMock struct {
	created *models.Component
	err     error
}

func (m *componentServiceMock) Create(ctx context.Context, req dto.CreateComponentRequest) (*models.Component, error) {
	return m.created, m.err
}

func (m *componentServiceMock) Update(ctx context.Context, id string, req dto.UpdateComponentRequest) (*models.Component, error) {
	return m.created, m.err
}

func (m *componentServiceMock) Get(ctx context.Context, id string) (*models.Component, error) {
	return m.created, m.err
}

func (m *componentServiceMock) List(ctx context.Context, filter models.ComponentFilter) ([]models.Component, *models.Pagination, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return []models.Component{*m.created}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func TestComponentHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &componentServiceMock{created: &models.Component{ID: "cmp-1", Composition: "100% cotton", AreaPercentage: 8}}
	handler := NewComponentHandler(mockSvc)

	body, _ := json.Marshal(dto.CreateComponentRequest{Composition: "100% cotton", AreaPercentage: 8})
	c, w := newGinContext(http.MethodPost, "/components", body)

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "cmp-1")
}

func TestComponentHandlerClassify(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewComponentHandler(&componentServiceMock{})

	c, w := newGinContext(http.MethodGet, "/components/classify?area=10.5", nil)
	handler.Classify(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data struct {
			RequiresFullTesting bool `json:"requires_full_testing"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.RequiresFullTesting)
}

func TestComponentHandlerClassifyBadInput(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewComponentHandler(&componentServiceMock{})

	c, w := newGinContext(http.MethodGet, "/components/classify?area=lots", nil)
	handler.Classify(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
