package handler

import (
	"net/http"

	"github.com/xenking/ggshop/internal/domain/order"
)

// Checkout converts the caller's cart into an order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	res, err := h.checkout.Checkout(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, func(e *encoder) {
		e.strField("message", "Order placed successfully")
		e.int64Field("orderId", res.OrderID)
		e.objField("summary", func(e *encoder) {
			e.intField("items", res.ItemCount)
			e.intField("totalItems", res.TotalQuantity)
			e.moneyField("total", res.Total)
		})
	})
}

// ListOrders returns the caller's order history.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListForUser(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, func(e *encoder) {
		e.arrField("orders", len(orders), func(e *encoder, i int) {
			encodeSummary(e, orders[i])
		})
	})
}

// GetOrder returns one of the caller's orders with its lines.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if err := id.RequireCustomer(); err != nil {
		writeError(w, r, err)
		return
	}
	orderID, err := pathID(r, "orderId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.orders.Detail(r.Context(), id, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, func(e *encoder) {
		e.objField("order", func(e *encoder) {
			encodeOrder(e, d.Order)
			e.arrField("items", len(d.Items), func(e *encoder, i int) {
				it := d.Items[i]
				e.int64Field("id", it.ID)
				e.FieldStart("productId")
				if it.ProductID > 0 {
					e.Int64(it.ProductID)
				} else {
					e.Null()
				}
				e.strField("productName", it.ProductName)
				e.strField("colorName", it.Color)
				e.strField("size", it.Size)
				e.intField("quantity", it.Quantity)
				e.moneyField("price", it.Price)
				e.moneyField("subtotal", it.Subtotal)
				e.strField("image", h.imageURL(it.Image))
			})
		})
	})
}

// ListAllOrders returns every order with its buyer. Admin only.
func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, func(e *encoder) {
		e.arrField("orders", len(orders), func(e *encoder, i int) {
			o := orders[i]
			encodeSummary(e, o)
			e.int64Field("userId", o.UserID)
			e.strField("username", o.CustomerName)
			e.strField("email", o.CustomerEmail)
		})
	})
}

func encodeOrder(e *encoder, o order.Order) {
	e.int64Field("id", o.ID)
	e.moneyField("totalAmount", o.Total)
	e.strField("status", o.Status.String())
	e.timeField("createdAt", o.CreatedAt)
	e.timeField("updatedAt", o.UpdatedAt)
}

func encodeSummary(e *encoder, s order.Summary) {
	encodeOrder(e, s.Order)
	e.intField("itemCount", s.ItemCount)
	e.intField("totalQuantity", s.TotalQuantity)
}
