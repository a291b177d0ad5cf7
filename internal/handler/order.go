package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/laundry-orders/internal/domain/order"
)

// QuoteOrder prices an order request without storing it.
func (h *Handler) QuoteOrder(w http.ResponseWriter, r *http.Request) {
	req, ok := readOrderRequest(w, r)
	if !ok {
		return
	}
	snap, err := h.orders.Quote(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeQuote(&e, snap)
	writeJSON(w, http.StatusOK, &e)
}

// PlaceOrder prices, validates and stores an order.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	req, ok := readOrderRequest(w, r)
	if !ok {
		return
	}
	o, err := h.orders.Place(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeOrder(&e, o)
	w.Header().Set("Location", "/api/orders/"+o.ID)
	writeJSON(w, http.StatusCreated, &e)
}

// GetOrder returns a stored order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeOrder(&e, o)
	writeJSON(w, http.StatusOK, &e)
}

func readOrderRequest(w http.ResponseWriter, r *http.Request) (order.Request, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeBadRequest(w, "read request body: "+err.Error())
		return order.Request{}, false
	}
	req, err := decodeOrderRequest(jx.DecodeBytes(body))
	if err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return order.Request{}, false
	}
	return req, true
}
