// Package catalog holds the read-only lookup tables an order is priced
// against: laundry services, goods and promotions.
package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/laundry-orders/internal/domain/promotion"
)

// ErrDuplicateID is returned when two catalog entries of the same kind share an ID.
var ErrDuplicateID = errors.New("duplicate catalog id")

// Service is a priced laundry service (wash, dry clean, ironing, ...).
type Service struct {
	ID    string
	Name  string
	Price decimal.Decimal
	// Unit is the pricing unit shown to staff, e.g. "kg" or "piece".
	Unit string
}

// Goods is a sellable item that can be bundled with a service line.
type Goods struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Stock int
}

// Repository loads catalog entries from storage.
type Repository interface {
	ListServices(ctx context.Context) ([]Service, error)
	ListGoods(ctx context.Context) ([]Goods, error)
	ListPromotions(ctx context.Context) ([]promotion.Promotion, error)
}

// Catalog is an immutable snapshot of services, goods and promotions indexed by ID.
// It is safe for concurrent reads.
type Catalog struct {
	services   []Service
	goods      []Goods
	promotions []promotion.Promotion

	serviceIdx   map[string]int
	goodsIdx     map[string]int
	promotionIdx map[string]int
}

// New builds a Catalog from the given entries, preserving their order.
// Entries are validated: IDs must be non-empty and unique per kind, prices
// non-negative and promotions well-formed.
func New(services []Service, goods []Goods, promotions []promotion.Promotion) (*Catalog, error) {
	c := &Catalog{
		services:     append([]Service(nil), services...),
		goods:        append([]Goods(nil), goods...),
		promotions:   append([]promotion.Promotion(nil), promotions...),
		serviceIdx:   make(map[string]int, len(services)),
		goodsIdx:     make(map[string]int, len(goods)),
		promotionIdx: make(map[string]int, len(promotions)),
	}

	for i, s := range c.services {
		if err := index(c.serviceIdx, "service", s.ID, i); err != nil {
			return nil, err
		}
		if s.Price.IsNegative() {
			return nil, errors.Errorf("service %s: negative price %s", s.ID, s.Price)
		}
	}
	for i, g := range c.goods {
		if err := index(c.goodsIdx, "goods", g.ID, i); err != nil {
			return nil, err
		}
		if g.Price.IsNegative() {
			return nil, errors.Errorf("goods %s: negative price %s", g.ID, g.Price)
		}
	}
	for i, p := range c.promotions {
		if err := index(c.promotionIdx, "promotion", p.ID, i); err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func index(idx map[string]int, kind, id string, pos int) error {
	if id == "" {
		return errors.Errorf("%s at position %d: empty id", kind, pos)
	}
	if _, ok := idx[id]; ok {
		return errors.Wrapf(ErrDuplicateID, "%s %s", kind, id)
	}
	idx[id] = pos
	return nil
}

// Load reads all entries from repo and builds a Catalog. Promotions outside
// their validity window at now are left out.
func Load(ctx context.Context, repo Repository, now time.Time) (*Catalog, error) {
	services, err := repo.ListServices(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list services")
	}
	goods, err := repo.ListGoods(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list goods")
	}
	promotions, err := repo.ListPromotions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list promotions")
	}

	active := promotions[:0:0]
	for _, p := range promotions {
		if p.ActiveAt(now) {
			active = append(active, p)
		}
	}

	return New(services, goods, active)
}

// Service returns the service with the given ID.
func (c *Catalog) Service(id string) (Service, bool) {
	i, ok := c.serviceIdx[id]
	if !ok {
		return Service{}, false
	}
	return c.services[i], true
}

// Goods returns the goods item with the given ID.
func (c *Catalog) Goods(id string) (Goods, bool) {
	i, ok := c.goodsIdx[id]
	if !ok {
		return Goods{}, false
	}
	return c.goods[i], true
}

// Promotion returns the promotion with the given ID.
func (c *Catalog) Promotion(id string) (promotion.Promotion, bool) {
	i, ok := c.promotionIdx[id]
	if !ok {
		return promotion.Promotion{}, false
	}
	return c.promotions[i], true
}

// Services returns a copy of all services in insertion order.
func (c *Catalog) Services() []Service {
	return append([]Service(nil), c.services...)
}

// GoodsList returns a copy of all goods in insertion order.
func (c *Catalog) GoodsList() []Goods {
	return append([]Goods(nil), c.goods...)
}

// Promotions returns a copy of all promotions in insertion order.
func (c *Catalog) Promotions() []promotion.Promotion {
	return append([]promotion.Promotion(nil), c.promotions...)
}
