package handler

import (
	"net/http"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/validation"
)

type authPayload struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeBody(w, r, validation.Register)
	if !ok {
		return
	}

	user := domain.User{
		Email:     validation.NormalizeEmail(validation.String(body, "email")),
		FirstName: validation.Clean(validation.String(body, "firstName")),
		LastName:  validation.Clean(validation.String(body, "lastName")),
		Phone:     validation.Clean(validation.String(body, "phone")),
		Address:   validation.Clean(validation.String(body, "address")),
		City:      validation.Clean(validation.String(body, "city")),
		Country:   validation.Clean(validation.String(body, "country")),
		ZipCode:   validation.Clean(validation.String(body, "zipCode")),
	}

	created, token, err := h.auth.Register(r.Context(), user, validation.String(body, "password"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, okResponse(authPayload{User: created, Token: token}, "User registered successfully"))
}

func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeBody(w, r, validation.Login)
	if !ok {
		return
	}

	email := validation.NormalizeEmail(validation.String(body, "email"))
	user, token, err := h.auth.Login(r.Context(), email, validation.String(body, "password"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(authPayload{User: user, Token: token}, "Login successful"))
}

func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, okResponse(map[string]any{"user": currentUser(r)}, ""))
}

func (h *HTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), currentClaims(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(nil, "Logout successful"))
}
