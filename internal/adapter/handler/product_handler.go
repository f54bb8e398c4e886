package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/validation"
)

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ProductFilter{
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: domain.SortOrder(q.Get("sortOrder")),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.CategoryID, _ = strconv.ParseInt(q.Get("category"), 10, 64)
	filter.MinPrice = queryDecimal(q.Get("minPrice"))
	filter.MaxPrice = queryDecimal(q.Get("maxPrice"))

	products, page, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(map[string]any{
		"products":   products,
		"pagination": page,
	}, ""))
}

func queryDecimal(raw string) *decimal.Decimal {
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &d
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(map[string]any{"product": product}, ""))
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeBody(w, r, validation.CreateProduct)
	if !ok {
		return
	}

	price, _ := decimal.NewFromString(validation.String(body, "price"))
	categoryID, _ := validation.AsInt(body["categoryId"])
	stock, _ := validation.AsInt(body["stock"])

	var images []string
	if list, isList := body["images"].([]any); isList {
		for _, v := range list {
			if s, isString := v.(string); isString {
				images = append(images, s)
			}
		}
	}

	product, err := h.catalog.CreateProduct(r.Context(), domain.Product{
		Name:        validation.Clean(validation.String(body, "name")),
		Description: validation.String(body, "description"),
		Price:       price,
		SKU:         validation.Clean(validation.String(body, "sku")),
		Stock:       int(stock),
		ImageURL:    validation.String(body, "imageUrl"),
		Images:      images,
		CategoryID:  categoryID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, okResponse(map[string]any{"product": product}, "Product created successfully"))
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	if err := h.catalog.DeactivateProduct(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(nil, "Product deleted successfully"))
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(map[string]any{"categories": categories}, ""))
}
