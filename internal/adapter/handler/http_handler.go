package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/core/validation"
)

const maxBodyBytes = 1 << 20

type HTTPHandler struct {
	auth    *service.AuthService
	users   *service.UserService
	catalog *service.CatalogService
	carts   *service.CartService
	health  *HealthReporter
	log     *logrus.Logger
}

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Message string            `json:"message,omitempty"`
	Details validation.Errors `json:"details,omitempty"`
}

func NewHTTPHandler(auth *service.AuthService, users *service.UserService, catalog *service.CatalogService, carts *service.CartService, health *HealthReporter, log *logrus.Logger) *HTTPHandler {
	return &HTTPHandler{
		auth:    auth,
		users:   users,
		catalog: catalog,
		carts:   carts,
		health:  health,
		log:     log,
	}
}

func (h *HTTPHandler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.withRequestID, h.withTracing, h.withLogging, h.withRecover)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, Response{Error: "Route " + r.URL.Path + " not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, Response{Error: "method not allowed"})
	})

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.Handle("/auth/me", h.requireAuth(h.Me)).Methods(http.MethodGet)
	api.Handle("/auth/logout", h.requireAuth(h.Logout)).Methods(http.MethodPost)

	api.Handle("/users/profile", h.requireAuth(h.Profile)).Methods(http.MethodGet)
	api.Handle("/users/profile", h.requireAuth(h.UpdateProfile)).Methods(http.MethodPut)
	api.Handle("/users/password", h.requireAuth(h.ChangePassword)).Methods(http.MethodPut)
	api.Handle("/users/account", h.requireAuth(h.DeleteAccount)).Methods(http.MethodDelete)

	api.HandleFunc("/products", h.ListProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/categories/all", h.ListCategories).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}", h.GetProduct).Methods(http.MethodGet)
	api.Handle("/products", h.requireAuth(h.requireRole(h.CreateProduct, domain.RoleAdmin))).Methods(http.MethodPost)
	api.Handle("/products/{id:[0-9]+}", h.requireAuth(h.requireRole(h.DeleteProduct, domain.RoleAdmin))).Methods(http.MethodDelete)

	api.Handle("/cart", h.requireAuth(h.GetCart)).Methods(http.MethodGet)
	api.Handle("/cart", h.requireAuth(h.ClearCart)).Methods(http.MethodDelete)
	api.Handle("/cart/items", h.requireAuth(h.AddCartItem)).Methods(http.MethodPost)
	api.Handle("/cart/items/{itemId:[0-9]+}", h.requireAuth(h.UpdateCartItem)).Methods(http.MethodPut)
	api.Handle("/cart/items/{itemId:[0-9]+}", h.requireAuth(h.RemoveCartItem)).Methods(http.MethodDelete)

	return r
}

// HealthCheck answers with the overall status published by the gRPC health
// reporter.
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, err := h.health.Check(r.Context(), "")
	if err != nil || status != healthpb.HealthCheckResponse_SERVING {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody reads the JSON body into a field map and runs rules against it.
// It writes the 400 response itself and returns ok=false when the request
// should stop.
func (h *HTTPHandler) decodeBody(w http.ResponseWriter, r *http.Request, rules validation.Set) (map[string]any, bool) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Error: "invalid request body"})
		return nil, false
	}
	body, err := validation.Decode(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Error: "invalid request body"})
		return nil, false
	}
	if errs := rules.Validate(body); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, Response{Error: "Validation failed", Details: errs})
		return nil, false
	}
	return body, true
}

type failure struct {
	status  int
	message string
}

var failures = []struct {
	err error
	failure
}{
	{service.ErrProductNotFound, failure{http.StatusNotFound, "Product not found or inactive"}},
	{service.ErrCartItemNotFound, failure{http.StatusNotFound, "Cart item not found"}},
	{service.ErrCategoryNotFound, failure{http.StatusNotFound, "Category not found"}},
	{service.ErrUserNotFound, failure{http.StatusNotFound, "User not found"}},
	{service.ErrQuantityExceedsStock, failure{http.StatusBadRequest, "Insufficient stock for the requested quantity"}},
	{service.ErrInsufficientStock, failure{http.StatusBadRequest, "Insufficient stock available"}},
	{service.ErrInvalidQuantity, failure{http.StatusBadRequest, "Quantity must be a positive integer"}},
	{service.ErrEmailTaken, failure{http.StatusBadRequest, "User already exists with this email"}},
	{service.ErrSKUTaken, failure{http.StatusBadRequest, "Product with this SKU already exists"}},
	{service.ErrPasswordRequired, failure{http.StatusBadRequest, "Current password and new password are required"}},
	{service.ErrConfirmRequired, failure{http.StatusBadRequest, "Password confirmation is required to delete account"}},
	{service.ErrWeakPassword, failure{http.StatusBadRequest, "New password must be at least 6 characters long"}},
	{service.ErrIncorrectPassword, failure{http.StatusBadRequest, "Current password is incorrect"}},
	{service.ErrInvalidCredentials, failure{http.StatusUnauthorized, "Invalid credentials"}},
	{service.ErrUnauthorized, failure{http.StatusUnauthorized, "Not authorized to access this route"}},
	{service.ErrForbidden, failure{http.StatusForbidden, "User role is not authorized to access this route"}},
	{service.ErrDuplicateRequest, failure{http.StatusConflict, "Duplicate request"}},
	{service.ErrConcurrentModification, failure{http.StatusConflict, "Cart was modified concurrently, please retry"}},
	{service.ErrTooManyAttempts, failure{http.StatusTooManyRequests, "Too many login attempts, please try again later"}},
}

func classify(err error) (failure, bool) {
	for _, f := range failures {
		if errors.Is(err, f.err) {
			return f.failure, true
		}
	}
	return failure{http.StatusInternalServerError, "Server Error"}, false
}

// writeError maps service errors to status codes. Unknown errors are logged
// with the request id and answered with a generic 500.
func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	f, known := classify(err)
	if !known {
		h.log.WithFields(logrus.Fields{
			"request_id": requestIDFrom(r.Context()),
			"path":       r.URL.Path,
			"error":      err.Error(),
		}).Error("request failed")
	}
	writeJSON(w, f.status, Response{Error: f.message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func okResponse(data any, message string) Response {
	return Response{Success: true, Data: data, Message: message}
}
