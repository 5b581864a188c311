package handler

import (
	"net/http"

	"github.com/xenking/ggshop/internal/domain/cart"
)

// CheckStock reports whether a quantity of a variant is available. No
// authentication is needed.
func (h *Handler) CheckStock(w http.ResponseWriter, r *http.Request) {
	var req checkStockRequest
	if err := h.readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.cart.CheckAvailability(r.Context(), req.key(), req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, func(e *encoder) {
		e.boolField("available", a.Available)
		e.intField("currentStock", a.CurrentStock)
	})
}

// ListCart returns the caller's cart with live availability.
func (h *Handler) ListCart(w http.ResponseWriter, r *http.Request) {
	views, err := h.cart.ListItems(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, func(e *encoder) {
		e.arrField("cart", len(views), func(e *encoder, i int) {
			v := views[i]
			h.encodeCartItem(e, v.Item)
			e.strField("name", v.ProductName)
			e.moneyField("price", v.Price)
			e.strField("image", h.imageURL(v.Image))
			e.intField("availableStock", v.AvailableStock)
			e.boolField("stockAvailable", v.StockAvailable)
			e.intField("maxQuantity", v.MaxQuantity)
		})
	})
}

// AddToCart adds a variant to the caller's cart, merging with an existing
// line.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if err := id.RequireCustomer(); err != nil {
		writeError(w, r, err)
		return
	}
	var req addToCartRequest
	if err := h.readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.cart.AddItem(r.Context(), id, req.key(), req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, func(e *encoder) {
		e.strField("message", "Product added to cart")
		e.objField("item", func(e *encoder) { h.encodeCartItem(e, *item) })
	})
}

// UpdateCartItem sets the quantity of one of the caller's lines.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if err := id.RequireCustomer(); err != nil {
		writeError(w, r, err)
		return
	}
	itemID, err := pathID(r, "cartItemId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateCartRequest
	if err := h.readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.cart.UpdateQuantity(r.Context(), id, itemID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, func(e *encoder) {
		e.strField("message", "Cart updated")
		e.objField("item", func(e *encoder) { h.encodeCartItem(e, *item) })
	})
}

// RemoveCartItem deletes one of the caller's lines.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if err := id.RequireCustomer(); err != nil {
		writeError(w, r, err)
		return
	}
	itemID, err := pathID(r, "cartItemId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.cart.RemoveItem(r.Context(), id, itemID); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, func(e *encoder) {
		e.strField("message", "Item removed from cart")
	})
}

func (h *Handler) encodeCartItem(e *encoder, it cart.Item) {
	e.int64Field("id", it.ID)
	e.int64Field("productId", it.Key.ProductID)
	e.strField("colorName", it.Key.Color)
	e.strField("size", it.Key.Size)
	e.intField("quantity", it.Quantity)
	e.timeField("createdAt", it.CreatedAt)
}
