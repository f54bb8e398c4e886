package storage

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, DialectSQLite, filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewSQLStore(db, DialectSQLite)
	require.NoError(t, store.Migrate(ctx))
	// a second run must be a no-op
	require.NoError(t, store.Migrate(ctx))
	return store
}

type fixture struct {
	store    *SQLStore
	category domain.Category
	user     domain.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := newSQLiteStore(t)
	ctx := context.Background()

	category, err := store.CreateCategory(ctx, domain.Category{Name: "Books", Description: "Books and literature"})
	require.NoError(t, err)

	user, err := store.Create(ctx, domain.User{Email: "jane@example.com", PasswordHash: "x", FirstName: "Jane", LastName: "Doe", IsActive: true})
	require.NoError(t, err)

	return fixture{store: store, category: category, user: user}
}

func (f fixture) product(t *testing.T, sku, price string, stock int) domain.Product {
	t.Helper()
	p, err := f.store.CreateProduct(context.Background(), domain.Product{
		Name:        "Product " + sku,
		Description: "about " + sku,
		Price:       decimal.RequireFromString(price),
		SKU:         sku,
		Stock:       stock,
		Images:      []string{"https://img.example.com/" + sku},
		CategoryID:  f.category.ID,
	})
	require.NoError(t, err)
	return p
}

func (f fixture) cartID(t *testing.T) int64 {
	t.Helper()
	cart, err := f.store.GetCartByUserID(context.Background(), f.user.ID)
	require.NoError(t, err)
	return cart.ID
}

func TestCreateUser_CreatesEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cart, err := f.store.GetCartByUserID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, cart.UserID)
	assert.Empty(t, cart.Items)

	_, err = f.store.CreateCart(ctx, f.user.ID)
	assert.ErrorIs(t, err, port.ErrDuplicate)

	_, err = f.store.Create(ctx, domain.User{Email: "jane@example.com", PasswordHash: "x", FirstName: "J", LastName: "D"})
	assert.ErrorIs(t, err, port.ErrDuplicate)

	found, err := f.store.FindByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, found.Role)
	assert.True(t, found.IsActive)
}

func TestCreateProduct_RoundTrip(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "BOOK001", "12.99", 200)

	assert.True(t, p.Price.Equal(decimal.RequireFromString("12.99")), "got %s", p.Price)
	assert.Equal(t, []string{"https://img.example.com/BOOK001"}, p.Images)
	require.NotNil(t, p.Category)
	assert.Equal(t, "Books", p.Category.Name)
	assert.True(t, p.IsActive)

	_, err := f.store.CreateProduct(context.Background(), domain.Product{Name: "dup", SKU: "BOOK001", CategoryID: f.category.ID})
	assert.ErrorIs(t, err, port.ErrDuplicate)
}

func TestInsertItem_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "SKU1", "9.99", 5)
	cartID := f.cartID(t)

	_, err := f.store.InsertItem(ctx, cartID, p.ID, 6)
	assert.ErrorIs(t, err, port.ErrVersionConflict)

	item, err := f.store.InsertItem(ctx, cartID, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, 1, item.Version)
	assert.Equal(t, p.Name, item.Product.Name)
	assert.Equal(t, 5, item.Product.Stock)

	_, err = f.store.InsertItem(ctx, cartID, p.ID, 1)
	assert.ErrorIs(t, err, port.ErrVersionConflict)

	other := f.product(t, "SKU2", "1", 5)
	require.NoError(t, f.store.DeactivateProduct(ctx, other.ID))
	_, err = f.store.InsertItem(ctx, cartID, other.ID, 1)
	assert.ErrorIs(t, err, port.ErrVersionConflict)
}

func TestUpdateItemQuantity_CompareAndSwap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "SKU1", "9.99", 5)

	item, err := f.store.InsertItem(ctx, f.cartID(t), p.ID, 1)
	require.NoError(t, err)

	updated, err := f.store.UpdateItemQuantity(ctx, item.ID, 4, item.Version)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)
	assert.Equal(t, item.Version+1, updated.Version)

	_, err = f.store.UpdateItemQuantity(ctx, item.ID, 2, item.Version)
	assert.ErrorIs(t, err, port.ErrVersionConflict, "stale version")

	_, err = f.store.UpdateItemQuantity(ctx, item.ID, 6, updated.Version)
	assert.ErrorIs(t, err, port.ErrVersionConflict, "above stock")

	// stock shrinking under the line blocks the write too
	require.NoError(t, f.store.SetStock(ctx, p.ID, 3))
	_, err = f.store.UpdateItemQuantity(ctx, item.ID, 4, updated.Version)
	assert.ErrorIs(t, err, port.ErrVersionConflict)

	// the guard is stock only: an existing line of a deactivated product can still change
	require.NoError(t, f.store.DeactivateProduct(ctx, p.ID))
	updated, err = f.store.UpdateItemQuantity(ctx, item.ID, 2, updated.Version)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Quantity)
}

func TestOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "SKU1", "1", 5)

	item, err := f.store.InsertItem(ctx, f.cartID(t), p.ID, 1)
	require.NoError(t, err)

	intruder, err := f.store.Create(ctx, domain.User{Email: "eve@example.com", PasswordHash: "x", FirstName: "E", LastName: "V", IsActive: true})
	require.NoError(t, err)

	_, err = f.store.FindItemForUser(ctx, intruder.ID, item.ID)
	assert.ErrorIs(t, err, port.ErrNotFound)
	assert.ErrorIs(t, f.store.DeleteItemForUser(ctx, intruder.ID, item.ID), port.ErrNotFound)

	found, err := f.store.FindItemForUser(ctx, f.user.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)

	require.NoError(t, f.store.DeleteItemForUser(ctx, f.user.ID, item.ID))
	assert.ErrorIs(t, f.store.DeleteItemForUser(ctx, f.user.ID, item.ID), port.ErrNotFound)
}

func TestClearCartByUserID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cartID := f.cartID(t)

	for _, sku := range []string{"A", "B", "C"} {
		p := f.product(t, sku, "1", 5)
		_, err := f.store.InsertItem(ctx, cartID, p.ID, 1)
		require.NoError(t, err)
	}

	require.NoError(t, f.store.ClearCartByUserID(ctx, f.user.ID))
	cart, err := f.store.GetCartByUserID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// no cart at all is fine
	require.NoError(t, f.store.ClearCartByUserID(ctx, 4242))
}

func TestListProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.product(t, "CHEAP", "5.00", 1)
	f.product(t, "MID", "50.00", 1)
	expensive := f.product(t, "PRICEY", "500.00", 1)
	hidden := f.product(t, "HIDDEN", "50.00", 1)
	require.NoError(t, f.store.DeactivateProduct(ctx, hidden.ID))

	products, total, err := f.store.ListProducts(ctx, domain.ProductFilter{Page: 1, Limit: 2, SortBy: "price", SortOrder: domain.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, products, 2)
	assert.Equal(t, expensive.ID, products[0].ID)

	products, _, err = f.store.ListProducts(ctx, domain.ProductFilter{Page: 2, Limit: 2, SortBy: "price", SortOrder: domain.SortDesc})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "CHEAP", products[0].SKU)

	minPrice := decimal.RequireFromString("10")
	maxPrice := decimal.RequireFromString("100")
	products, total, err = f.store.ListProducts(ctx, domain.ProductFilter{Page: 1, Limit: 10, MinPrice: &minPrice, MaxPrice: &maxPrice})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, "MID", products[0].SKU)

	_, total, err = f.store.ListProducts(ctx, domain.ProductFilter{Page: 1, Limit: 10, Search: "ABOUT pricey"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = f.store.ListProducts(ctx, domain.ProductFilter{Page: 1, Limit: 10, CategoryID: f.category.ID + 1})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestListActiveCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.CreateCategory(ctx, domain.Category{Name: "Apparel"})
	require.NoError(t, err)
	_, err = f.store.CreateCategory(ctx, domain.Category{Name: "Books"})
	assert.ErrorIs(t, err, port.ErrDuplicate)

	categories, err := f.store.ListActiveCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Apparel", categories[0].Name)
	assert.Equal(t, "Books", categories[1].Name)
}

func TestCartService_ConcurrentAddItemAgainstSQLite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	initialStock := 5
	totalRequests := 20
	p := f.product(t, "HOT", "19.99", initialStock)

	svc := service.NewCartService(f.store, f.store, NewMemoryCache(), 0)

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, f.user.ID, p.ID, 1)
			if err == nil {
				successCount.Add(1)
				return
			}
			if !errors.Is(err, service.ErrInsufficientStock) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(initialStock), successCount.Load())

	cart, err := svc.GetOrCreateCart(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, initialStock, cart.Items[0].Quantity)
	assert.Equal(t, "99.95", domain.ComputeSummary(cart).TotalAmount.StringFixed(2))
}
