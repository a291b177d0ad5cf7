// Command seed-catalog loads services, goods and promotions into the database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/laundry-orders/db"
	"github.com/xenking/laundry-orders/internal/domain/catalog"
	"github.com/xenking/laundry-orders/internal/domain/promotion"
	"github.com/xenking/laundry-orders/internal/repository"
)

type catalogJSON struct {
	Services []struct {
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
		Unit  string          `json:"unit"`
	} `json:"services"`
	Goods []struct {
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
		Stock int             `json:"stock"`
	} `json:"goods"`
	Promotions []struct {
		ID          string          `json:"id"`
		Name        string          `json:"name"`
		Kind        string          `json:"kind"`
		Value       decimal.Decimal `json:"value"`
		Description string          `json:"description"`
		ValidFrom   *time.Time      `json:"validFrom"`
		ValidUntil  *time.Time      `json:"validUntil"`
	} `json:"promotions"`
}

// catalogWriter is implemented by *repository.CatalogRepository.
type catalogWriter interface {
	UpsertService(ctx context.Context, s catalog.Service) error
	UpsertGoods(ctx context.Context, g catalog.Goods) error
	UpsertPromotion(ctx context.Context, p promotion.Promotion) error
}

func main() {
	var (
		databaseURL string
		catalogFile string
	)
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "", "path to catalog JSON file (embedded default catalog when empty)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		if databaseURL == "" {
			return errors.New("database URL is required: set --database-url or DATABASE_URL")
		}

		data := db.SeedCatalog
		if catalogFile != "" {
			lg.Info("Reading catalog file", zap.String("path", catalogFile))
			b, err := os.ReadFile(catalogFile)
			if err != nil {
				return errors.Wrap(err, "read catalog file")
			}
			data = b
		}
		c, err := parseCatalog(data)
		if err != nil {
			return errors.Wrap(err, "parse catalog")
		}

		pool, err := repository.NewPool(ctx, databaseURL)
		if err != nil {
			return errors.Wrap(err, "connect to database")
		}
		defer pool.Close()

		if err := repository.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}

		if err := seed(ctx, lg, repository.NewCatalogRepository(pool), c); err != nil {
			return errors.Wrap(err, "seed catalog")
		}
		lg.Info("Seed completed")
		return nil
	})
}

// parseCatalog decodes and validates a catalog document.
func parseCatalog(data []byte) (*catalog.Catalog, error) {
	var doc catalogJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode JSON")
	}

	services := make([]catalog.Service, 0, len(doc.Services))
	for _, s := range doc.Services {
		services = append(services, catalog.Service{ID: s.ID, Name: s.Name, Price: s.Price, Unit: s.Unit})
	}
	goods := make([]catalog.Goods, 0, len(doc.Goods))
	for _, g := range doc.Goods {
		goods = append(goods, catalog.Goods{ID: g.ID, Name: g.Name, Price: g.Price, Stock: g.Stock})
	}
	promotions := make([]promotion.Promotion, 0, len(doc.Promotions))
	for _, p := range doc.Promotions {
		promotions = append(promotions, promotion.Promotion{
			ID:          p.ID,
			Name:        p.Name,
			Kind:        promotion.Kind(p.Kind),
			Value:       p.Value,
			Description: p.Description,
			ValidFrom:   p.ValidFrom,
			ValidUntil:  p.ValidUntil,
		})
	}

	return catalog.New(services, goods, promotions)
}

func seed(ctx context.Context, lg *zap.Logger, w catalogWriter, c *catalog.Catalog) error {
	for _, s := range c.Services() {
		if err := w.UpsertService(ctx, s); err != nil {
			return err
		}
		lg.Info("Upserted service", zap.String("id", s.ID), zap.Stringer("price", s.Price))
	}
	for _, g := range c.GoodsList() {
		if err := w.UpsertGoods(ctx, g); err != nil {
			return err
		}
		lg.Info("Upserted goods", zap.String("id", g.ID), zap.Int("stock", g.Stock))
	}
	for _, p := range c.Promotions() {
		if err := w.UpsertPromotion(ctx, p); err != nil {
			return err
		}
		lg.Info("Upserted promotion", zap.String("id", p.ID), zap.String("kind", string(p.Kind)))
	}
	return nil
}
