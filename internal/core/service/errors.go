package service

import "github.com/pkg/errors"

var (
	ErrProductNotFound        = errors.New("product not found or inactive")
	ErrCartItemNotFound       = errors.New("cart item not found")
	ErrCategoryNotFound       = errors.New("category not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidQuantity        = errors.New("quantity must be a positive integer")
	ErrConcurrentModification = errors.New("cart was modified concurrently")
	ErrDuplicateRequest       = errors.New("duplicate request")

	// ErrQuantityExceedsStock is the additive case: the line plus the new
	// quantity would exceed stock. errors.Is still matches ErrInsufficientStock.
	ErrQuantityExceedsStock = errors.Wrap(ErrInsufficientStock, "accumulated quantity exceeds stock")

	ErrEmailTaken         = errors.New("user already exists with this email")
	ErrSKUTaken           = errors.New("product with this sku already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrUnauthorized       = errors.New("not authorized")
	ErrForbidden          = errors.New("forbidden")
	ErrPasswordRequired   = errors.New("current password and new password are required")
	ErrConfirmRequired    = errors.New("password confirmation is required to delete account")
	ErrWeakPassword       = errors.New("new password must be at least 6 characters long")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
)
