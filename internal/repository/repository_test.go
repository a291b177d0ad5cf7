//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/laundry-orders/internal/domain/catalog"
	"github.com/xenking/laundry-orders/internal/domain/order"
	"github.com/xenking/laundry-orders/internal/domain/promotion"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "laundry",
				"POSTGRES_PASSWORD": "laundry",
				"POSTGRES_DB":       "laundry",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://laundry:laundry@%s:%s/laundry?sslmode=disable", host, port.Port())
	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	// Schema is idempotent.
	require.NoError(t, RunMigrations(ctx, pool))

	return pool
}

func TestRepositories(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	catalogs := NewCatalogRepository(pool)
	orders := NewOrderRepository(pool)

	require.NoError(t, catalogs.UpsertService(ctx, catalog.Service{
		ID: "wash", Name: "Wash & fold", Price: decimal.RequireFromString("50000.50"), Unit: "kg",
	}))
	require.NoError(t, catalogs.UpsertService(ctx, catalog.Service{
		ID: "wash", Name: "Wash and fold", Price: decimal.RequireFromString("52000"), Unit: "kg",
	}))
	require.NoError(t, catalogs.UpsertGoods(ctx, catalog.Goods{
		ID: "bag", Name: "Laundry bag", Price: decimal.NewFromInt(15000), Stock: 7,
	}))
	until := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, catalogs.UpsertPromotion(ctx, promotion.Promotion{
		ID: "p10", Name: "Ten off", Kind: promotion.KindPercentage, Value: decimal.NewFromInt(10), ValidUntil: &until,
	}))

	err := catalogs.UpsertPromotion(ctx, promotion.Promotion{ID: "bad", Kind: "bogus"})
	require.ErrorIs(t, err, promotion.ErrInvalidKind)

	t.Run("ListCatalog", func(t *testing.T) {
		services, err := catalogs.ListServices(ctx)
		require.NoError(t, err)
		require.Len(t, services, 1)
		assert.Equal(t, "Wash and fold", services[0].Name)
		assert.True(t, decimal.NewFromInt(52000).Equal(services[0].Price))

		goods, err := catalogs.ListGoods(ctx)
		require.NoError(t, err)
		require.Len(t, goods, 1)
		assert.Equal(t, 7, goods[0].Stock)

		promos, err := catalogs.ListPromotions(ctx)
		require.NoError(t, err)
		require.Len(t, promos, 1)
		assert.Equal(t, promotion.KindPercentage, promos[0].Kind)
		assert.Nil(t, promos[0].ValidFrom)
		require.NotNil(t, promos[0].ValidUntil)
		assert.True(t, until.Equal(*promos[0].ValidUntil))
	})

	t.Run("CreateAndGetOrder", func(t *testing.T) {
		received := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
		o := &order.Order{
			ID: "order-1",
			Snapshot: order.Snapshot{
				Details: order.Details{
					StoreID:    "store-1",
					CustomerID: "cust-1",
					StaffID:    "staff-1",
					ReceivedAt: received,
					ReturnAt:   received.Add(48 * time.Hour),
					Status:     order.StatusPending,
				},
				Totals: order.Totals{
					TotalAmount:    decimal.NewFromInt(119000),
					DiscountAmount: decimal.NewFromInt(11900),
					AmountPaid:     decimal.NewFromInt(107100),
				},
				LineItems: []order.LineItem{
					{ServiceID: "wash", GoodsID: "bag", Quantity: 2, UnitPrice: decimal.NewFromInt(52000), Subtotal: decimal.NewFromInt(104000), Note: "delicate"},
					{ServiceID: "wash", Quantity: 1, UnitPrice: decimal.NewFromInt(15000), Subtotal: decimal.NewFromInt(15000)},
				},
				PromotionID: "p10",
			},
			CreatedAt: received.Add(time.Minute),
		}
		require.NoError(t, orders.Create(ctx, o))

		got, err := orders.Get(ctx, "order-1")
		require.NoError(t, err)
		assert.Equal(t, "p10", got.PromotionID)
		assert.Equal(t, order.StatusPending, got.Status)
		assert.True(t, received.Equal(got.ReceivedAt))
		assert.True(t, o.AmountPaid.Equal(got.AmountPaid))
		require.Len(t, got.LineItems, 2)
		assert.Equal(t, "bag", got.LineItems[0].GoodsID)
		assert.Equal(t, "delicate", got.LineItems[0].Note)
		assert.Empty(t, got.LineItems[1].GoodsID)
		assert.True(t, decimal.NewFromInt(15000).Equal(got.LineItems[1].Subtotal))
	})

	t.Run("DuplicateOrderRollsBack", func(t *testing.T) {
		o := &order.Order{ID: "order-1"}
		require.Error(t, orders.Create(ctx, o))
	})

	t.Run("GetMissingOrder", func(t *testing.T) {
		_, err := orders.Get(ctx, "nope")
		require.ErrorIs(t, err, order.ErrNotFound)
	})
}
