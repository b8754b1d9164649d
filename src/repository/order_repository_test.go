package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"crosstrader/src/model"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock
}

func orderRows(records ...model.OrderRecord) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "order_id", "creator", "trigger_type", "status", "token", "destination_chain", "order_created_at"})
	for _, rec := range records {
		rows.AddRow(rec.ID, rec.OrderID, rec.Creator, rec.TriggerType, rec.Status, rec.Token, rec.DestinationChain, rec.OrderCreatedAt)
	}
	return rows
}

func TestOrderRepositorySearch(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := (&OrderRepository{}).WithDB(mockDB)

	createdAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	records := []model.OrderRecord{
		{ID: 3, OrderID: 3, Creator: "owner", TriggerType: "time_based", Status: "active", Token: "USDC", DestinationChain: 42, OrderCreatedAt: createdAt},
		{ID: 1, OrderID: 1, Creator: "owner", TriggerType: "price_threshold", Status: "executed", Token: "USDC", DestinationChain: 42, OrderCreatedAt: createdAt},
	}

	t.Run("filters by status", func(t *testing.T) {
		status := "active"
		mock.ExpectQuery(`SELECT \* FROM "trade_orders" WHERE status = \$1 ORDER BY order_id DESC LIMIT \$2`).
			WithArgs(status, 20).
			WillReturnRows(orderRows(records[0]))

		results, err := repo.Search(context.Background(), OrderSearchOptions{Status: &status})
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, uint64(3), results[0].OrderID)
	})

	t.Run("filters by trigger and chain", func(t *testing.T) {
		trigger := "price_threshold"
		chain := uint64(42)
		mock.ExpectQuery(`SELECT \* FROM "trade_orders" WHERE trigger_type = \$1 AND destination_chain = \$2 ORDER BY order_id DESC LIMIT \$3`).
			WithArgs(trigger, chain, 20).
			WillReturnRows(orderRows(records[1]))

		results, err := repo.Search(context.Background(), OrderSearchOptions{TriggerType: &trigger, Chain: &chain})
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, "executed", results[0].Status)
	})

	t.Run("newest first with explicit limit", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "trade_orders" ORDER BY order_id DESC LIMIT \$1`).
			WithArgs(2).
			WillReturnRows(orderRows(records...))

		results, err := repo.Search(context.Background(), OrderSearchOptions{Limit: 2})
		require.NoError(t, err)
		require.Len(t, results, 2)
		require.Equal(t, uint64(3), results[0].OrderID)
		require.Equal(t, uint64(1), results[1].OrderID)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryFindByOrderID(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := (&OrderRepository{}).WithDB(mockDB)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "trade_orders" WHERE order_id = \$1 ORDER BY "trade_orders"."id" LIMIT \$2`).
			WithArgs(uint64(7), 1).
			WillReturnRows(orderRows(model.OrderRecord{ID: 7, OrderID: 7, Status: "active"}))

		rec, err := repo.FindByOrderID(context.Background(), 7)
		require.NoError(t, err)
		require.NotNil(t, rec)
		require.Equal(t, uint64(7), rec.OrderID)
	})

	t.Run("missing returns nil without error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "trade_orders" WHERE order_id = \$1 ORDER BY "trade_orders"."id" LIMIT \$2`).
			WithArgs(uint64(404), 1).
			WillReturnRows(orderRows())

		rec, err := repo.FindByOrderID(context.Background(), 404)
		require.NoError(t, err)
		require.Nil(t, rec)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
