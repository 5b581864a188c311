package handler

import (
	"net/http"
	"slices"

	"github.com/xenking/ggshop/internal/domain/product"
)

// ListProducts returns the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, func(e *encoder) {
		e.arrField("products", len(products), func(e *encoder, i int) {
			h.encodeProduct(e, products[i])
		})
	})
}

// GetProduct returns one product with gallery, colors and stock matrix.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.products.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, func(e *encoder) {
		e.objField("product", func(e *encoder) {
			h.encodeProduct(e, d.Product)

			e.FieldStart("images")
			e.ArrStart()
			for _, img := range d.Images {
				e.Str(h.imageURL(img))
			}
			e.ArrEnd()

			e.arrField("colors", len(d.Colors), func(e *encoder, i int) {
				e.strField("name", d.Colors[i].Name)
				e.strField("class", d.Colors[i].Class)
			})

			e.objField("stock", func(e *encoder) {
				for _, color := range sortedKeys(d.Stock) {
					sizes := d.Stock[color]
					e.objField(color, func(e *encoder) {
						for _, size := range sortedKeys(sizes) {
							e.intField(size, sizes[size])
						}
					})
				}
			})
		})
	})
}

func (h *Handler) encodeProduct(e *encoder, p product.Product) {
	e.int64Field("id", p.ID)
	e.strField("name", p.Name)
	e.strField("category", p.Category)
	e.moneyField("price", p.Price)
	e.FieldStart("oldPrice")
	if p.OldPrice.Valid {
		e.Str(p.OldPrice.Decimal.StringFixed(2))
	} else {
		e.Null()
	}
	e.FieldStart("discount")
	if p.Discount != "" {
		e.Str(p.Discount)
	} else {
		e.Null()
	}
	e.strField("rating", p.Rating.StringFixed(1))
	e.strField("description", p.Description)
	e.strField("image", h.imageURL(p.Image))
	e.boolField("outOfStock", p.OutOfStock)
	e.timeField("createdAt", p.CreatedAt)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
