package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/ggshop/internal/domain/auth"
	"github.com/xenking/ggshop/internal/domain/cart"
	"github.com/xenking/ggshop/internal/domain/checkout"
	"github.com/xenking/ggshop/internal/domain/order"
	"github.com/xenking/ggshop/internal/domain/product"
	"github.com/xenking/ggshop/internal/domain/stock"
	"github.com/xenking/ggshop/internal/domain/validation"
)

// writeError maps a domain error onto a status code and error envelope.
// Unexpected errors are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr      *validation.Error
		stockErr  *stock.InsufficientStockError
		issuesErr *checkout.InsufficientStockError
	)
	switch {
	case errors.As(err, &verr):
		writeFailure(w, http.StatusBadRequest, verr.Error(), func(e *encoder) {
			if verr.Field != "" {
				e.strField("field", verr.Field)
			}
		})
	case errors.Is(err, errMalformedBody):
		writeFailure(w, http.StatusBadRequest, "malformed request body", nil)
	case errors.As(err, &stockErr):
		writeFailure(w, http.StatusBadRequest, "Insufficient stock", func(e *encoder) {
			e.intField("availableStock", stockErr.Available)
			if stockErr.InCart > 0 {
				e.intField("currentInCart", stockErr.InCart)
			}
		})
	case errors.As(err, &issuesErr):
		writeFailure(w, http.StatusBadRequest, "Insufficient stock for some items", func(e *encoder) {
			e.arrField("stockIssues", len(issuesErr.Issues), func(e *encoder, i int) {
				is := issuesErr.Issues[i]
				e.int64Field("productId", is.ProductID)
				e.strField("product", is.ProductName)
				e.strField("color", is.Color)
				e.strField("size", is.Size)
				e.intField("requested", is.Requested)
				e.intField("available", is.Available)
			})
		})
	case errors.Is(err, checkout.ErrEmptyCart):
		writeFailure(w, http.StatusBadRequest, "Cart is empty", nil)
	case errors.Is(err, auth.ErrUnauthenticated):
		writeFailure(w, http.StatusUnauthorized, "Authentication required", nil)
	case errors.Is(err, auth.ErrForbidden):
		writeFailure(w, http.StatusForbidden, "Access denied", nil)
	case errors.Is(err, product.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "Product not found", nil)
	case errors.Is(err, stock.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "Stock entry not found", nil)
	case errors.Is(err, cart.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "Cart item not found", nil)
	case errors.Is(err, cart.ErrDuplicate):
		writeFailure(w, http.StatusConflict, "Cart item was modified concurrently, retry", nil)
	case errors.Is(err, order.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "Order not found", nil)
	default:
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeFailure(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// writeFailure writes {"success":false,"message":...} plus optional detail.
func writeFailure(w http.ResponseWriter, status int, message string, detail func(e *encoder)) {
	writeObject(w, status, func(e *encoder) {
		e.boolField("success", false)
		e.strField("message", message)
		if detail != nil {
			detail(e)
		}
	})
}
