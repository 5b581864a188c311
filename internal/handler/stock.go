package handler

import (
	"net/http"
)

// UpdateStock sets the quantity of a variant. Admin only.
func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if err := id.RequireAdmin(); err != nil {
		writeError(w, r, err)
		return
	}
	var req stockUpdateRequest
	if err := h.readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	key := req.key()
	if err := h.stock.Set(r.Context(), id, key, *req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, func(e *encoder) {
		e.strField("message", "Stock updated")
		e.intField("quantity", *req.Quantity)
	})
}

// AdjustStock adds a signed delta to a variant's quantity. Admin only.
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if err := id.RequireAdmin(); err != nil {
		writeError(w, r, err)
		return
	}
	var req stockAdjustRequest
	if err := h.readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	qty, err := h.stock.Adjust(r.Context(), id, req.key(), *req.Adjustment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, func(e *encoder) {
		e.strField("message", "Stock adjusted")
		e.intField("newQuantity", qty)
	})
}
