// Package handler serves the shop HTTP API on a net/http ServeMux. Bodies
// are encoded and decoded with jx; request DTOs are checked with validator
// before they reach the domain services.
package handler

import (
	"net/http"
	"strings"

	"github.com/xenking/ggshop/internal/domain/cart"
	"github.com/xenking/ggshop/internal/domain/checkout"
	"github.com/xenking/ggshop/internal/domain/order"
	"github.com/xenking/ggshop/internal/domain/product"
	"github.com/xenking/ggshop/internal/domain/stock"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
	// MaxBodyBytes caps JSON request bodies. Zero means 1 MiB.
	MaxBodyBytes int64
}

// Services are the domain services behind the API.
type Services struct {
	Products *product.Service
	Stock    *stock.Service
	Cart     *cart.Service
	Checkout *checkout.Service
	Orders   *order.Service
}

// Handler implements the API routes.
type Handler struct {
	products *product.Service
	stock    *stock.Service
	cart     *cart.Service
	checkout *checkout.Service
	orders   *order.Service

	imageBaseURL string
	maxBodyBytes int64
}

// New constructs a Handler.
func New(cfg Config, svc Services) *Handler {
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return &Handler{
		products:     svc.Products,
		stock:        svc.Stock,
		cart:         svc.Cart,
		checkout:     svc.Checkout,
		orders:       svc.Orders,
		imageBaseURL: strings.TrimSuffix(cfg.ImageBaseURL, "/"),
		maxBodyBytes: maxBody,
	}
}

// Register mounts every API route on mux under /api.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.Health)

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("POST /api/products/check-stock", h.CheckStock)

	mux.HandleFunc("GET /api/products/cart", h.ListCart)
	mux.HandleFunc("POST /api/products/cart/add", h.AddToCart)
	mux.HandleFunc("PUT /api/products/cart/{cartItemId}", h.UpdateCartItem)
	mux.HandleFunc("DELETE /api/products/cart/{cartItemId}", h.RemoveCartItem)

	mux.HandleFunc("POST /api/products/checkout", h.Checkout)
	mux.HandleFunc("GET /api/products/orders", h.ListOrders)
	mux.HandleFunc("GET /api/products/orders/{orderId}", h.GetOrder)
	mux.HandleFunc("GET /api/products/admin/orders", h.ListAllOrders)

	mux.HandleFunc("POST /api/products/stock/update", h.UpdateStock)
	mux.HandleFunc("POST /api/products/stock/adjust", h.AdjustStock)
}

// Health reports that the API process is serving requests.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, func(e *encoder) {
		e.strField("status", "ok")
	})
}

// imageURL prefixes relative image paths with the configured base URL.
func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" ||
		strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return h.imageBaseURL + "/" + strings.TrimPrefix(path, "/")
}
