package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/validation"
)

const idempotencyKeyHeader = "Idempotency-Key"

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.GetOrCreateCart(r.Context(), currentUser(r).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(map[string]any{
		"cart":    cart,
		"summary": domain.ComputeSummary(cart),
	}, ""))
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeBody(w, r, validation.AddCartItem)
	if !ok {
		return
	}

	productID, _ := validation.AsInt(body["productId"])
	quantity := int64(1)
	if q, present := validation.AsInt(body["quantity"]); present {
		quantity = q
	}

	item, err := h.carts.AddItemOnce(r.Context(), currentUser(r).ID, r.Header.Get(idempotencyKeyHeader), productID, int(quantity))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(map[string]any{"cartItem": item}, "Item added to cart successfully"))
}

func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeBody(w, r, validation.UpdateCartItem)
	if !ok {
		return
	}

	itemID, _ := strconv.ParseInt(mux.Vars(r)["itemId"], 10, 64)
	quantity, _ := validation.AsInt(body["quantity"])

	item, err := h.carts.UpdateItem(r.Context(), currentUser(r).ID, itemID, int(quantity))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(map[string]any{"cartItem": item}, "Cart item updated successfully"))
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, _ := strconv.ParseInt(mux.Vars(r)["itemId"], 10, 64)

	if err := h.carts.RemoveItem(r.Context(), currentUser(r).ID, itemID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(nil, "Item removed from cart successfully"))
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.ClearCart(r.Context(), currentUser(r).ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(nil, "Cart cleared successfully"))
}
