package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/qcgate-api/internal/dto"
	"github.com/noah-isme/qcgate-api/internal/models"
	appErrors "github.com/noah-isme/qcgate-api/pkg/errors"
)

type entitlementStoreStub struct {
	levels map[string]models.EntitlementLevel
}

func newEntitlementStoreStub() *entitlementStoreStub {
	return &entitlementStoreStub{levels: map[string]models.EntitlementLevel{}}
}

func (s *entitlementStoreStub) Get(ctx context.Context, userID string) (*models.ApprovalEntitlement, error) {
	level, ok := s.levels[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.ApprovalEntitlement{UserID: userID, Level: level}, nil
}

func (s *entitlementStoreStub) Set(ctx context.Context, entitlement *models.ApprovalEntitlement) error {
	s.levels[entitlement.UserID] = entitlement.Level
	return nil
}

func (s *entitlementStoreStub) List(ctx context.Context) ([]models.ApprovalEntitlement, error) {
	var out []models.ApprovalEntitlement
	for userID, level := range s.levels {
		out = append(out, models.ApprovalEntitlement{UserID: userID, Level: level})
	}
	return out, nil
}

func newEntitlementServiceForTest() (*EntitlementService, *entitlementStoreStub) {
	store := newEntitlementStoreStub()
	return NewEntitlementService(store, validator.New(), zap.NewNop()), store
}

func TestEntitlementCanMatrix(t *testing.T) {
	svc, store := newEntitlementServiceForTest()
	store.levels["bronze"] = models.EntitlementBronze
	store.levels["silver"] = models.EntitlementSilver
	store.levels["gold"] = models.EntitlementGold
	store.levels["none"] = models.EntitlementNone

	cases := []struct {
		user    string
		action  models.ApprovalAction
		allowed bool
	}{
		{"none", models.ActionApproveCare, false},
		{"none", models.ActionApproveBase, false},
		{"none", models.ActionApproveBulk, false},
		{"none", models.ActionApproveGarment, false},
		{"bronze", models.ActionApproveCare, true},
		{"bronze", models.ActionApproveBase, false},
		{"bronze", models.ActionApproveBulk, false},
		{"bronze", models.ActionApproveGarment, false},
		{"silver", models.ActionApproveCare, true},
		{"silver", models.ActionApproveBase, true},
		{"silver", models.ActionApproveBulk, true},
		{"silver", models.ActionApproveGarment, false},
		{"gold", models.ActionApproveCare, true},
		{"gold", models.ActionApproveBase, true},
		{"gold", models.ActionApproveBulk, true},
		{"gold", models.ActionApproveGarment, true},
	}
	for _, tc := range cases {
		allowed, err := svc.Can(context.Background(), tc.user, tc.action)
		require.NoError(t, err)
		assert.Equalf(t, tc.allowed, allowed, "user=%s action=%s", tc.user, tc.action)
	}
}

func TestEntitlementCanUnknownUserAndAction(t *testing.T) {
	svc, _ := newEntitlementServiceForTest()

	allowed, err := svc.Can(context.Background(), "stranger", models.ActionApproveGarment)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = svc.Can(context.Background(), "stranger", models.ApprovalAction("approve_everything"))
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestEntitlementGetForUserDefaultsToNone(t *testing.T) {
	svc, _ := newEntitlementServiceForTest()
	entitlement, err := svc.GetForUser(context.Background(), "stranger")
	require.NoError(t, err)
	assert.Equal(t, models.EntitlementNone, entitlement.Level)
}

func TestEntitlementSet(t *testing.T) {
	svc, store := newEntitlementServiceForTest()
	entitlement, err := svc.Set(context.Background(), dto.SetEntitlementRequest{UserID: "u-1", Level: "GOLD"}, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.EntitlementGold, entitlement.Level)
	assert.Equal(t, models.EntitlementGold, store.levels["u-1"])

	_, err = svc.Set(context.Background(), dto.SetEntitlementRequest{UserID: "u-1", Level: "PLATINUM"}, "admin")
	assertCode(t, err, appErrors.ErrValidation.Code)
}
