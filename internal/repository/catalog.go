package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/laundry-orders/internal/domain/catalog"
	"github.com/xenking/laundry-orders/internal/domain/promotion"
)

const (
	listServicesSQL = `SELECT id, name, price, unit
		FROM services WHERE active = TRUE ORDER BY name, id`

	listGoodsSQL = `SELECT id, name, price, stock
		FROM goods WHERE active = TRUE ORDER BY name, id`

	listPromotionsSQL = `SELECT id, name, kind, value, description, valid_from, valid_until
		FROM promotions WHERE active = TRUE ORDER BY name, id`

	upsertServiceSQL = `INSERT INTO services (id, name, price, unit, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, price = EXCLUDED.price, unit = EXCLUDED.unit,
			active = TRUE, updated_at = now()`

	upsertGoodsSQL = `INSERT INTO goods (id, name, price, stock, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, price = EXCLUDED.price, stock = EXCLUDED.stock,
			active = TRUE, updated_at = now()`

	upsertPromotionSQL = `INSERT INTO promotions (id, name, kind, value, description, valid_from, valid_until, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, kind = EXCLUDED.kind, value = EXCLUDED.value,
			description = EXCLUDED.description, valid_from = EXCLUDED.valid_from,
			valid_until = EXCLUDED.valid_until, active = TRUE, updated_at = now()`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListServices returns all active services ordered by name.
func (r *CatalogRepository) ListServices(ctx context.Context) ([]catalog.Service, error) {
	rows, err := r.pool.Query(ctx, listServicesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list services")
	}
	return pgx.CollectRows(rows, scanService)
}

// ListGoods returns all active goods ordered by name.
func (r *CatalogRepository) ListGoods(ctx context.Context) ([]catalog.Goods, error) {
	rows, err := r.pool.Query(ctx, listGoodsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list goods")
	}
	return pgx.CollectRows(rows, scanGoods)
}

// ListPromotions returns all active promotions regardless of their validity window.
func (r *CatalogRepository) ListPromotions(ctx context.Context) ([]promotion.Promotion, error) {
	rows, err := r.pool.Query(ctx, listPromotionsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list promotions")
	}
	return pgx.CollectRows(rows, scanPromotion)
}

// UpsertService inserts or updates a service and re-activates it.
func (r *CatalogRepository) UpsertService(ctx context.Context, s catalog.Service) error {
	if _, err := r.pool.Exec(ctx, upsertServiceSQL, s.ID, s.Name, s.Price, s.Unit); err != nil {
		return errors.Wrapf(err, "upsert service %q", s.ID)
	}
	return nil
}

// UpsertGoods inserts or updates a goods item and re-activates it.
func (r *CatalogRepository) UpsertGoods(ctx context.Context, g catalog.Goods) error {
	if _, err := r.pool.Exec(ctx, upsertGoodsSQL, g.ID, g.Name, g.Price, g.Stock); err != nil {
		return errors.Wrapf(err, "upsert goods %q", g.ID)
	}
	return nil
}

// UpsertPromotion validates and stores a promotion.
func (r *CatalogRepository) UpsertPromotion(ctx context.Context, p promotion.Promotion) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, upsertPromotionSQL,
		p.ID, p.Name, string(p.Kind), p.Value, p.Description, p.ValidFrom, p.ValidUntil,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert promotion %q", p.ID)
	}
	return nil
}

func scanService(row pgx.CollectableRow) (catalog.Service, error) {
	var (
		s     catalog.Service
		price decimal.Decimal
	)
	err := row.Scan(&s.ID, &s.Name, &price, &s.Unit)
	s.Price = price
	return s, err
}

func scanGoods(row pgx.CollectableRow) (catalog.Goods, error) {
	var (
		g     catalog.Goods
		price decimal.Decimal
		stock int32
	)
	err := row.Scan(&g.ID, &g.Name, &price, &stock)
	g.Price = price
	g.Stock = int(stock)
	return g, err
}

func scanPromotion(row pgx.CollectableRow) (promotion.Promotion, error) {
	var (
		p          promotion.Promotion
		kind       string
		value      decimal.Decimal
		validFrom  *time.Time
		validUntil *time.Time
	)
	err := row.Scan(&p.ID, &p.Name, &kind, &value, &p.Description, &validFrom, &validUntil)
	p.Kind = promotion.Kind(kind)
	p.Value = value
	p.ValidFrom = validFrom
	p.ValidUntil = validUntil
	return p, err
}
