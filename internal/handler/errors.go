package handler

import (
	"net/http"
	"sort"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/laundry-orders/internal/domain/order"
)

// writeError maps domain errors to API error responses. Unknown errors are
// logged and reported as 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		detailsErr  *order.DetailsError
		notFoundErr *order.NotFoundError
		validErr    *order.ValidationError
	)
	switch {
	case errors.Is(err, order.ErrNotFound):
		writeErrorBody(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, order.ErrEmptyOrder):
		writeBadRequest(w, err.Error())
	case errors.As(err, &detailsErr):
		writeErrorBody(w, http.StatusUnprocessableEntity, "invalid order details", detailsErr.Fields)
	case errors.As(err, &validErr), errors.As(err, &notFoundErr):
		writeErrorBody(w, http.StatusUnprocessableEntity, err.Error(), nil)
	default:
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeErrorBody(w, http.StatusInternalServerError, "internal server error", nil)
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeErrorBody(w, http.StatusBadRequest, msg, nil)
}

func writeErrorBody(w http.ResponseWriter, code int, msg string, fields map[string]string) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		if len(fields) == 0 {
			return
		}
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		e.Field("fields", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, name := range names {
					e.Field(name, func(e *jx.Encoder) { e.Str(fields[name]) })
				}
			})
		})
	})
	writeJSON(w, code, &e)
}

func writeJSON(w http.ResponseWriter, code int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}
