package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const cartItemSelect = `
	SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.version, ci.created_at, ci.updated_at,
		p.id, p.name, p.price, p.image_url, p.stock, p.is_active
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id`

func scanCartItem(row rowScanner) (domain.CartItem, error) {
	var item domain.CartItem
	err := row.Scan(
		&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.Version, &item.CreatedAt, &item.UpdatedAt,
		&item.Product.ID, &item.Product.Name, &item.Product.Price, &item.Product.ImageURL, &item.Product.Stock, &item.Product.IsActive,
	)
	return item, err
}

func (s *SQLStore) GetCartByUserID(ctx context.Context, userID int64) (domain.Cart, error) {
	var cart domain.Cart
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, updated_at
		FROM carts WHERE user_id = ?`, userID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Cart{}, port.ErrNotFound
	}
	if err != nil {
		return domain.Cart{}, errors.Wrap(err, "query cart")
	}

	rows, err := s.db.QueryContext(ctx, cartItemSelect+`
		WHERE ci.cart_id = ?
		ORDER BY ci.id`, cart.ID)
	if err != nil {
		return domain.Cart{}, errors.Wrap(err, "query cart items")
	}
	defer rows.Close()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return domain.Cart{}, errors.Wrap(err, "scan cart item")
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return domain.Cart{}, errors.Wrap(err, "iterate cart items")
	}
	return cart, nil
}

func (s *SQLStore) CreateCart(ctx context.Context, userID int64) (domain.Cart, error) {
	now := s.now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO carts (user_id, created_at, updated_at) VALUES (?, ?, ?)`,
		userID, now, now,
	)
	if isUniqueViolation(err) {
		return domain.Cart{}, port.ErrDuplicate
	}
	if err != nil {
		return domain.Cart{}, errors.Wrap(err, "insert cart")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.Cart{}, errors.Wrap(err, "cart id")
	}
	return domain.Cart{ID: id, UserID: userID, Items: []domain.CartItem{}, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLStore) FindItemByProduct(ctx context.Context, cartID, productID int64) (domain.CartItem, error) {
	row := s.db.QueryRowContext(ctx, cartItemSelect+`
		WHERE ci.cart_id = ? AND ci.product_id = ?`, cartID, productID)
	return s.oneItem(row)
}

func (s *SQLStore) FindItemForUser(ctx context.Context, userID, itemID int64) (domain.CartItem, error) {
	row := s.db.QueryRowContext(ctx, cartItemSelect+`
		JOIN carts c ON c.id = ci.cart_id
		WHERE ci.id = ? AND c.user_id = ?`, itemID, userID)
	return s.oneItem(row)
}

func (s *SQLStore) findItem(ctx context.Context, itemID int64) (domain.CartItem, error) {
	row := s.db.QueryRowContext(ctx, cartItemSelect+`
		WHERE ci.id = ?`, itemID)
	return s.oneItem(row)
}

func (s *SQLStore) oneItem(row *sql.Row) (domain.CartItem, error) {
	item, err := scanCartItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CartItem{}, port.ErrNotFound
	}
	if err != nil {
		return domain.CartItem{}, errors.Wrap(err, "query cart item")
	}
	return item, nil
}

// InsertItem only inserts when the product is active with enough stock at
// the moment of the write. A concurrent insert of the same line trips the
// (cart_id, product_id) unique key; both cases are reported as a conflict so
// the caller re-reads and retries.
func (s *SQLStore) InsertItem(ctx context.Context, cartID, productID int64, quantity int) (domain.CartItem, error) {
	now := s.now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity, version, created_at, updated_at)
		SELECT ?, p.id, ?, 1, ?, ?
		FROM products p
		WHERE p.id = ? AND p.is_active = 1 AND p.stock >= ?`,
		cartID, quantity, now, now, productID, quantity,
	)
	if isUniqueViolation(err) {
		return domain.CartItem{}, port.ErrVersionConflict
	}
	if err != nil {
		return domain.CartItem{}, errors.Wrap(err, "insert cart item")
	}

	ok, err := affected(result)
	if err != nil {
		return domain.CartItem{}, err
	}
	if !ok {
		return domain.CartItem{}, port.ErrVersionConflict
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.CartItem{}, errors.Wrap(err, "cart item id")
	}
	return s.findItem(ctx, id)
}

func (s *SQLStore) UpdateItemQuantity(ctx context.Context, itemID int64, quantity, version int) (domain.CartItem, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE cart_items
		SET quantity = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
			AND ? <= (SELECT stock FROM products WHERE products.id = cart_items.product_id)`,
		quantity, s.now(), itemID, version, quantity,
	)
	if err != nil {
		return domain.CartItem{}, errors.Wrap(err, "update cart item")
	}

	ok, err := affected(result)
	if err != nil {
		return domain.CartItem{}, err
	}
	if !ok {
		return domain.CartItem{}, port.ErrVersionConflict
	}
	return s.findItem(ctx, itemID)
}

func (s *SQLStore) DeleteItemForUser(ctx context.Context, userID, itemID int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE id = ? AND cart_id IN (SELECT id FROM carts WHERE user_id = ?)`,
		itemID, userID,
	)
	if err != nil {
		return errors.Wrap(err, "delete cart item")
	}

	ok, err := affected(result)
	if err != nil {
		return err
	}
	if !ok {
		return port.ErrNotFound
	}
	return nil
}

func (s *SQLStore) ClearCartByUserID(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE cart_id IN (SELECT id FROM carts WHERE user_id = ?)`, userID)
	return errors.Wrap(err, "clear cart")
}
