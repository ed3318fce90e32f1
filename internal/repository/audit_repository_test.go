package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/qcgate-api/internal/models"
)

func TestAuditRepositoryListByCollection(t *testing.T) {
	db, mock, cleanup := newCollectionRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT id, collection_id, seq, gate_level, action, actor, note, created_at").
		WithArgs("col-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "collection_id", "seq", "gate_level", "action", "actor", "note", "created_at"}).
			AddRow("a-1", "col-1", 1, "base", models.AuditActionGateSubmitted, "supplier-1", "req-1", now).
			AddRow("a-2", "col-1", 2, nil, models.AuditActionCareLabelComplete, "qa-1", nil, now))

	entries, err := repo.ListByCollection(context.Background(), "col-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, int64(1), entries[0].Seq)
	require.NotNil(t, entries[0].GateLevel)
	require.Equal(t, models.GateBase, *entries[0].GateLevel)
	require.Nil(t, entries[1].GateLevel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryListRecentClampsLimit(t *testing.T) {
	db, mock, cleanup := newCollectionRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectQuery("SELECT id, collection_id, seq, gate_level, action, actor, note, created_at").
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "collection_id", "seq", "gate_level", "action", "actor", "note", "created_at"}))

	entries, err := repo.ListRecent(context.Background(), -5)
	require.NoError(t, err)
	require.Empty(t, entries)
	require.NoError(t, mock.ExpectationsWereMet())
}
