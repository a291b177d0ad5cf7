package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/laundry-orders/internal/domain/catalog"
)

// ListServices returns the active laundry services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	h.withCatalog(w, r, func(e *jx.Encoder, c *catalog.Catalog) {
		e.Arr(func(e *jx.Encoder) {
			for _, s := range c.Services() {
				encodeService(e, s)
			}
		})
	})
}

// ListGoods returns the goods that can be attached to line items.
func (h *Handler) ListGoods(w http.ResponseWriter, r *http.Request) {
	h.withCatalog(w, r, func(e *jx.Encoder, c *catalog.Catalog) {
		e.Arr(func(e *jx.Encoder) {
			for _, g := range c.GoodsList() {
				encodeGoods(e, g)
			}
		})
	})
}

// ListPromotions returns the promotions applicable right now.
func (h *Handler) ListPromotions(w http.ResponseWriter, r *http.Request) {
	h.withCatalog(w, r, func(e *jx.Encoder, c *catalog.Catalog) {
		e.Arr(func(e *jx.Encoder) {
			for _, p := range c.Promotions() {
				encodePromotion(e, p)
			}
		})
	})
}

func (h *Handler) withCatalog(w http.ResponseWriter, r *http.Request, fn func(*jx.Encoder, *catalog.Catalog)) {
	c, err := h.catalogs.Catalog(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var e jx.Encoder
	fn(&e, c)
	writeJSON(w, http.StatusOK, &e)
}
