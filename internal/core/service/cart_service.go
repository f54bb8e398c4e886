package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const (
	DefaultMaxAttempts = 8
	idempotencyKeyTTL  = 24 * time.Hour
)

// CartService reconciles cart lines against live product stock. Every
// read-check-write runs against a version/stock guarded write in the store and
// is retried when another request got there first.
type CartService struct {
	carts       port.CartRepository
	catalog     port.CatalogRepository
	cache       port.CacheRepository
	maxAttempts int
}

func NewCartService(carts port.CartRepository, catalog port.CatalogRepository, cache port.CacheRepository, maxAttempts int) *CartService {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &CartService{
		carts:       carts,
		catalog:     catalog,
		cache:       cache,
		maxAttempts: maxAttempts,
	}
}

// GetOrCreateCart returns the user's cart, creating an empty one on first access.
func (s *CartService) GetOrCreateCart(ctx context.Context, userID int64) (domain.Cart, error) {
	cart, err := s.carts.GetCartByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, port.ErrNotFound) {
		return domain.Cart{}, errors.Wrap(err, "get cart")
	}

	cart, err = s.carts.CreateCart(ctx, userID)
	if errors.Is(err, port.ErrDuplicate) {
		// lost the race against a concurrent first access
		cart, err = s.carts.GetCartByUserID(ctx, userID)
	}
	if err != nil {
		return domain.Cart{}, errors.Wrap(err, "create cart")
	}
	return cart, nil
}

// AddItem adds quantity of a product to the user's cart. Repeated adds
// accumulate on the same line; the accumulated quantity may not exceed stock.
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (domain.CartItem, error) {
	if quantity < 1 {
		return domain.CartItem{}, ErrInvalidQuantity
	}

	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return domain.CartItem{}, err
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		item, err := s.addItemOnce(ctx, cart.ID, productID, quantity)
		if errors.Is(err, port.ErrVersionConflict) {
			continue
		}
		return item, err
	}
	return domain.CartItem{}, ErrConcurrentModification
}

// AddItemOnce is AddItem guarded by a client supplied request key. A replayed
// key is rejected with ErrDuplicateRequest; a failed add frees the key again.
func (s *CartService) AddItemOnce(ctx context.Context, userID int64, requestKey string, productID int64, quantity int) (domain.CartItem, error) {
	if requestKey == "" || s.cache == nil {
		return s.AddItem(ctx, userID, productID, quantity)
	}

	key := fmt.Sprintf("idempotency:cart:%d:%s", userID, requestKey)
	ok, err := s.cache.SetIdempotency(ctx, key, idempotencyKeyTTL)
	if err != nil {
		return domain.CartItem{}, errors.Wrap(err, "idempotency check failed")
	}
	if !ok {
		return domain.CartItem{}, ErrDuplicateRequest
	}

	item, err := s.AddItem(ctx, userID, productID, quantity)
	if err != nil {
		// a key left behind only blocks retries until it expires
		_ = s.cache.ReleaseIdempotency(ctx, key)
		return domain.CartItem{}, err
	}
	return item, nil
}

func (s *CartService) addItemOnce(ctx context.Context, cartID, productID int64, quantity int) (domain.CartItem, error) {
	product, err := s.activeProduct(ctx, productID)
	if err != nil {
		return domain.CartItem{}, err
	}
	if quantity > product.Stock {
		return domain.CartItem{}, ErrInsufficientStock
	}

	existing, err := s.carts.FindItemByProduct(ctx, cartID, productID)
	if errors.Is(err, port.ErrNotFound) {
		return s.carts.InsertItem(ctx, cartID, productID, quantity)
	}
	if err != nil {
		return domain.CartItem{}, errors.Wrap(err, "find cart item")
	}

	total := existing.Quantity + quantity
	if total > product.Stock {
		return domain.CartItem{}, ErrQuantityExceedsStock
	}
	return s.carts.UpdateItemQuantity(ctx, existing.ID, total, existing.Version)
}

// UpdateItem replaces the quantity of a line the user owns.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (domain.CartItem, error) {
	if quantity < 1 {
		return domain.CartItem{}, ErrInvalidQuantity
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		item, err := s.carts.FindItemForUser(ctx, userID, itemID)
		if errors.Is(err, port.ErrNotFound) {
			return domain.CartItem{}, ErrCartItemNotFound
		}
		if err != nil {
			return domain.CartItem{}, errors.Wrap(err, "find cart item")
		}

		if quantity > item.Product.Stock {
			return domain.CartItem{}, ErrInsufficientStock
		}

		updated, err := s.carts.UpdateItemQuantity(ctx, item.ID, quantity, item.Version)
		if errors.Is(err, port.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return domain.CartItem{}, errors.Wrap(err, "update cart item")
		}
		return updated, nil
	}
	return domain.CartItem{}, ErrConcurrentModification
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) error {
	err := s.carts.DeleteItemForUser(ctx, userID, itemID)
	if errors.Is(err, port.ErrNotFound) {
		return ErrCartItemNotFound
	}
	return errors.Wrap(err, "delete cart item")
}

// ClearCart empties the user's cart. A user without a cart is left untouched.
func (s *CartService) ClearCart(ctx context.Context, userID int64) error {
	return errors.Wrap(s.carts.ClearCartByUserID(ctx, userID), "clear cart")
}

func (s *CartService) activeProduct(ctx context.Context, productID int64) (domain.Product, error) {
	product, err := s.catalog.FindProductByID(ctx, productID)
	if errors.Is(err, port.ErrNotFound) {
		return domain.Product{}, ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, errors.Wrap(err, "find product")
	}
	if !product.IsActive {
		return domain.Product{}, ErrProductNotFound
	}
	return product, nil
}
