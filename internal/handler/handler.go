// Package handler implements the laundry HTTP API on net/http with a
// go-faster/jx JSON codec.
package handler

import (
	"context"
	"net/http"

	"github.com/xenking/laundry-orders/internal/domain/catalog"
	"github.com/xenking/laundry-orders/internal/domain/order"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// CatalogSource provides the current catalog snapshot.
type CatalogSource interface {
	Catalog(ctx context.Context) (*catalog.Catalog, error)
}

// OrderService prices and stores orders.
type OrderService interface {
	Quote(ctx context.Context, req order.Request) (order.Snapshot, error)
	Place(ctx context.Context, req order.Request) (*order.Order, error)
	Get(ctx context.Context, id string) (*order.Order, error)
}

var _ OrderService = (*order.Service)(nil)

// Handler serves the catalog and order endpoints.
type Handler struct {
	catalogs CatalogSource
	orders   OrderService
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(catalogs CatalogSource, orders OrderService) *Handler {
	return &Handler{
		catalogs: catalogs,
		orders:   orders,
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/catalog/services", h.ListServices)
	mux.HandleFunc("GET /api/catalog/goods", h.ListGoods)
	mux.HandleFunc("GET /api/catalog/promotions", h.ListPromotions)
	mux.HandleFunc("POST /api/orders/quote", h.QuoteOrder)
	mux.HandleFunc("POST /api/orders", h.PlaceOrder)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
}
