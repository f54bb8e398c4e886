package handler

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/core/validation"
)

func (h *HTTPHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Profile(r.Context(), currentUser(r).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(map[string]any{"user": user}, ""))
}

func (h *HTTPHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeBody(w, r, validation.UpdateProfile)
	if !ok {
		return
	}

	field := func(name string, normalize func(string) string) *string {
		if _, present := body[name]; !present {
			return nil
		}
		v := normalize(validation.String(body, name))
		return &v
	}
	update := domain.ProfileUpdate{
		FirstName: field("firstName", validation.Clean),
		LastName:  field("lastName", validation.Clean),
		Email:     field("email", validation.NormalizeEmail),
		Phone:     field("phone", validation.Clean),
		Address:   field("address", validation.Clean),
		City:      field("city", validation.Clean),
		Country:   field("country", validation.Clean),
		ZipCode:   field("zipCode", validation.Clean),
	}

	user, err := h.users.UpdateProfile(r.Context(), currentUser(r).ID, update)
	if errors.Is(err, service.ErrEmailTaken) {
		writeJSON(w, http.StatusBadRequest, Response{Error: "Email already in use"})
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(map[string]any{"user": user}, "Profile updated successfully"))
}

func (h *HTTPHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeBody(w, r, nil)
	if !ok {
		return
	}

	err := h.users.ChangePassword(r.Context(), currentUser(r).ID,
		validation.String(body, "currentPassword"), validation.String(body, "newPassword"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(nil, "Password updated successfully"))
}

func (h *HTTPHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeBody(w, r, nil)
	if !ok {
		return
	}

	err := h.users.DeactivateAccount(r.Context(), currentUser(r).ID, validation.String(body, "password"))
	if errors.Is(err, service.ErrIncorrectPassword) {
		writeJSON(w, http.StatusBadRequest, Response{Error: "Incorrect password"})
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(nil, "Account deactivated successfully"))
}
