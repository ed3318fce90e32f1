package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/qcgate-api/internal/models"
)

func newCollectionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCollectionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newCollectionRepoMock(t)
	defer cleanup()
	repo := NewCollectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_collections")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	for range models.GateLevels {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO gate_states")).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	collection := &models.ProductCollection{StyleRef: "STY-100", Season: "AW26", SupplierID: "sup-1"}
	require.NoError(t, repo.Create(context.Background(), collection))
	require.NotEmpty(t, collection.ID)
	require.Equal(t, int64(1), collection.Version)
	require.Len(t, collection.Gates, 3)
	require.Equal(t, models.GateStatusNotStarted, collection.Gates[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepositoryExists(t *testing.T) {
	db, mock, cleanup := newCollectionRepoMock(t)
	defer cleanup()
	repo := NewCollectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM product_collections WHERE style_ref = $1 AND season = $2 AND supplier_id = $3)")).
		WithArgs("STY-100", "AW26", "sup-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), "STY-100", "AW26", "sup-1")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newCollectionRepoMock(t)
	defer cleanup()
	repo := NewCollectionRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, style_ref, season, supplier_id, version, created_at, updated_at FROM product_collections WHERE id = $1")).
		WithArgs("col-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "style_ref", "season", "supplier_id", "version", "created_at", "updated_at"}).
			AddRow("col-1", "STY-100", "AW26", "sup-1", 3, now, now))

	gateRows := sqlmock.NewRows([]string{"id", "collection_id", "level", "status", "linked_request_id", "is_locked", "submitted_at", "approved_at", "approved_by"}).
		AddRow("g-1", "col-1", "base", "approved", "req-1", true, now, now, "qa-1").
		AddRow("g-2", "col-1", "bulk", "in_progress", "req-2", false, now, nil, nil).
		AddRow("g-3", "col-1", "garment", "not_started", nil, false, nil, nil, nil)
	mock.ExpectQuery("SELECT id, collection_id, level, status").
		WithArgs("col-1").
		WillReturnRows(gateRows)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT component_id FROM collection_components WHERE collection_id = $1")).
		WithArgs("col-1").
		WillReturnRows(sqlmock.NewRows([]string{"component_id"}).AddRow("cmp-1").AddRow("cmp-2"))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT collection_id, symbols, wording, is_complete, updated_at FROM care_labels")).
		WithArgs("col-1").
		WillReturnRows(sqlmock.NewRows([]string{"collection_id", "symbols", "wording", "is_complete", "updated_at"}).
			AddRow("col-1", `["wash-30"]`, "Machine wash cold", true, now))

	mock.ExpectQuery("SELECT collection_id, file_ref, version, status").
		WithArgs("col-1").
		WillReturnRows(sqlmock.NewRows([]string{"collection_id", "file_ref", "version", "status", "submitted_to", "approved_by", "uploaded_at", "submitted_at", "approved_at"}))

	collection, err := repo.GetByID(context.Background(), "col-1")
	require.NoError(t, err)
	require.Equal(t, int64(3), collection.Version)
	require.Len(t, collection.Gates, 3)
	require.Equal(t, models.GateBase, collection.Gates[0].Level)
	require.Equal(t, []string{"cmp-1", "cmp-2"}, collection.ComponentIDs)
	require.NotNil(t, collection.CareLabel)
	require.True(t, collection.CareLabel.IsComplete)
	require.Nil(t, collection.GSW)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepositorySaveAggregateVersionConflict(t *testing.T) {
	db, mock, cleanup := newCollectionRepoMock(t)
	defer cleanup()
	repo := NewCollectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE product_collections SET version = version + 1")).
		WithArgs("col-1", int64(2), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	collection := &models.ProductCollection{ID: "col-1", Version: 2}
	err := repo.SaveAggregate(context.Background(), collection, 2, nil)
	require.ErrorIs(t, err, ErrVersionConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepositorySaveAggregate(t *testing.T) {
	db, mock, cleanup := newCollectionRepoMock(t)
	defer cleanup()
	repo := NewCollectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE product_collections SET version = version + 1")).
		WithArgs("col-1", int64(1), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE gate_states SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM collection_components WHERE collection_id = $1")).
		WithArgs("col-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO collection_components")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	collection := &models.ProductCollection{
		ID:           "col-1",
		Version:      1,
		ComponentIDs: []string{"cmp-1"},
		Gates: []models.GateState{
			{ID: "g-1", CollectionID: "col-1", Level: models.GateBase, Status: models.GateStatusSubmitted},
		},
	}
	entries := []models.AuditEntry{{Action: models.AuditActionGateSubmitted, Actor: "supplier"}}
	require.NoError(t, repo.SaveAggregate(context.Background(), collection, 1, entries))
	require.Equal(t, int64(2), collection.Version)
	require.NotEmpty(t, entries[0].ID)
	require.Equal(t, "col-1", entries[0].CollectionID)
	require.NoError(t, mock.ExpectationsWereMet())
}
