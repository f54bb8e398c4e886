package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type CartRepository interface {
	// GetCartByUserID returns the user's cart with every line joined to its
	// product snapshot, or ErrNotFound
	GetCartByUserID(ctx context.Context, userID int64) (domain.Cart, error)

	// CreateCart inserts an empty cart, ErrDuplicate if the user already has one
	CreateCart(ctx context.Context, userID int64) (domain.Cart, error)

	// FindItemByProduct returns the line for (cart, product), or ErrNotFound
	FindItemByProduct(ctx context.Context, cartID, productID int64) (domain.CartItem, error)

	// FindItemForUser returns the line only if it sits in a cart owned by userID
	FindItemForUser(ctx context.Context, userID, itemID int64) (domain.CartItem, error)

	// InsertItem creates a line guarded on the product being active with
	// stock >= quantity. ErrVersionConflict when the guard or the
	// (cart, product) uniqueness rejects the insert.
	InsertItem(ctx context.Context, cartID, productID int64, quantity int) (domain.CartItem, error)

	// UpdateItemQuantity sets the quantity if the line is still at version and
	// quantity <= current stock, ErrVersionConflict otherwise
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity, version int) (domain.CartItem, error)

	// DeleteItemForUser removes the line if owned by userID, ErrNotFound otherwise
	DeleteItemForUser(ctx context.Context, userID, itemID int64) error

	// ClearCartByUserID removes every line of the user's cart; no cart is not an error
	ClearCartByUserID(ctx context.Context, userID int64) error
}
