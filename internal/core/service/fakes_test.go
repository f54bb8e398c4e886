package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// fakeStore keeps carts and catalog in memory and applies the same guarded
// writes as the SQL store: every method takes the lock once, so concurrent
// callers interleave between reads and writes exactly like separate statements.
type fakeStore struct {
	mu         sync.Mutex
	products   map[int64]domain.Product
	categories map[int64]domain.Category
	carts      map[int64]domain.Cart // by user id
	items      map[int64]domain.CartItem
	nextID     int64

	// conflicts makes the next N guarded writes lose against a phantom writer
	conflicts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:   make(map[int64]domain.Product),
		categories: make(map[int64]domain.Category),
		carts:      make(map[int64]domain.Cart),
		items:      make(map[int64]domain.CartItem),
		nextID:     100,
	}
}

func (f *fakeStore) addProduct(id int64, price string, stock int, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[id] = domain.Product{
		ID:       id,
		Name:     "product",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: active,
	}
}

func (f *fakeStore) setActive(id int64, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.products[id]
	p.IsActive = active
	f.products[id] = p
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) snapshot(item domain.CartItem) domain.CartItem {
	p := f.products[item.ProductID]
	item.Product = domain.ProductSnapshot{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		ImageURL: p.ImageURL,
		Stock:    p.Stock,
		IsActive: p.IsActive,
	}
	return item
}

func (f *fakeStore) loseRace() bool {
	if f.conflicts > 0 {
		f.conflicts--
		return true
	}
	return false
}

func (f *fakeStore) GetCartByUserID(ctx context.Context, userID int64) (domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart, ok := f.carts[userID]
	if !ok {
		return domain.Cart{}, port.ErrNotFound
	}
	cart.Items = nil
	for _, item := range f.items {
		if item.CartID == cart.ID {
			cart.Items = append(cart.Items, f.snapshot(item))
		}
	}
	sort.Slice(cart.Items, func(i, j int) bool { return cart.Items[i].ID < cart.Items[j].ID })
	return cart, nil
}

func (f *fakeStore) CreateCart(ctx context.Context, userID int64) (domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.carts[userID]; ok {
		return domain.Cart{}, port.ErrDuplicate
	}
	cart := domain.Cart{ID: f.id(), UserID: userID, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.carts[userID] = cart
	return cart, nil
}

func (f *fakeStore) FindItemByProduct(ctx context.Context, cartID, productID int64) (domain.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.CartID == cartID && item.ProductID == productID {
			return f.snapshot(item), nil
		}
	}
	return domain.CartItem{}, port.ErrNotFound
}

func (f *fakeStore) FindItemForUser(ctx context.Context, userID, itemID int64) (domain.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemID]
	cart, hasCart := f.carts[userID]
	if !ok || !hasCart || item.CartID != cart.ID {
		return domain.CartItem{}, port.ErrNotFound
	}
	return f.snapshot(item), nil
}

func (f *fakeStore) InsertItem(ctx context.Context, cartID, productID int64, quantity int) (domain.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loseRace() {
		return domain.CartItem{}, port.ErrVersionConflict
	}
	p, ok := f.products[productID]
	if !ok || !p.IsActive || p.Stock < quantity {
		return domain.CartItem{}, port.ErrVersionConflict
	}
	for _, item := range f.items {
		if item.CartID == cartID && item.ProductID == productID {
			return domain.CartItem{}, port.ErrVersionConflict
		}
	}
	item := domain.CartItem{ID: f.id(), CartID: cartID, ProductID: productID, Quantity: quantity, Version: 1}
	f.items[item.ID] = item
	return f.snapshot(item), nil
}

func (f *fakeStore) UpdateItemQuantity(ctx context.Context, itemID int64, quantity, version int) (domain.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemID]
	if !ok {
		return domain.CartItem{}, port.ErrVersionConflict
	}
	if f.loseRace() {
		item.Version++
		f.items[itemID] = item
	}
	if item.Version != version || quantity > f.products[item.ProductID].Stock {
		return domain.CartItem{}, port.ErrVersionConflict
	}
	item.Quantity = quantity
	item.Version++
	f.items[itemID] = item
	return f.snapshot(item), nil
}

func (f *fakeStore) DeleteItemForUser(ctx context.Context, userID, itemID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemID]
	cart, hasCart := f.carts[userID]
	if !ok || !hasCart || item.CartID != cart.ID {
		return port.ErrNotFound
	}
	delete(f.items, itemID)
	return nil
}

func (f *fakeStore) ClearCartByUserID(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart, ok := f.carts[userID]
	if !ok {
		return nil
	}
	for id, item := range f.items {
		if item.CartID == cart.ID {
			delete(f.items, id)
		}
	}
	return nil
}

func (f *fakeStore) FindProductByID(ctx context.Context, id int64) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return domain.Product{}, port.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) FindProductBySKU(ctx context.Context, sku string) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return domain.Product{}, port.ErrNotFound
}

func (f *fakeStore) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Product
	for _, p := range f.products {
		if !p.IsActive {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeStore) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.SKU == product.SKU {
			return domain.Product{}, port.ErrDuplicate
		}
	}
	product.ID = f.id()
	product.IsActive = true
	f.products[product.ID] = product
	return product, nil
}

func (f *fakeStore) DeactivateProduct(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return port.ErrNotFound
	}
	p.IsActive = false
	f.products[id] = p
	return nil
}

func (f *fakeStore) FindCategoryByID(ctx context.Context, id int64) (domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return domain.Category{}, port.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) FindCategoryByName(ctx context.Context, name string) (domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.Name == name {
			return c, nil
		}
	}
	return domain.Category{}, port.ErrNotFound
}

func (f *fakeStore) CreateCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	category.ID = f.id()
	category.IsActive = true
	f.categories[category.ID] = category
	return category, nil
}

func (f *fakeStore) ListActiveCategories(ctx context.Context) ([]domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Category
	for _, c := range f.categories {
		if c.IsActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// fakeCache mirrors the Redis adapter's contract with a mutex-guarded map.
type fakeCache struct {
	mu       sync.Mutex
	keys     map[string]bool
	revoked  map[string]bool
	attempts map[string]int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		keys:     make(map[string]bool),
		revoked:  make(map[string]bool),
		attempts: make(map[string]int),
	}
}

func (c *fakeCache) SetIdempotency(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys[key] {
		return false, nil
	}
	c.keys[key] = true
	return true, nil
}

func (c *fakeCache) ReleaseIdempotency(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, key)
	return nil
}

func (c *fakeCache) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[tokenID] = true
	return nil
}

func (c *fakeCache) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revoked[tokenID], nil
}

func (c *fakeCache) AllowAttempt(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts[key]++
	return c.attempts[key] <= limit, nil
}

func (c *fakeCache) ResetAttempts(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.attempts, key)
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error { return nil }

type fakeUsers struct {
	mu     sync.Mutex
	users  map[int64]domain.User
	nextID int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[int64]domain.User)}
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, port.ErrNotFound
}

func (f *fakeUsers) FindByID(ctx context.Context, id int64) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, port.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) Create(ctx context.Context, user domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return domain.User{}, port.ErrDuplicate
		}
	}
	f.nextID++
	user.ID = f.nextID
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUsers) Update(ctx context.Context, user domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return domain.User{}, port.ErrNotFound
	}
	f.users[user.ID] = user
	return user, nil
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return port.ErrNotFound
	}
	return nil
}

// fakeTokens issues "token-<n>" strings and remembers their claims.
type fakeTokens struct {
	mu     sync.Mutex
	issued map[string]port.Claims
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{issued: make(map[string]port.Claims)}
}

func (f *fakeTokens) Issue(userID int64) (string, port.Claims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("token-%d", len(f.issued)+1)
	claims := port.Claims{UserID: userID, TokenID: id, ExpiresAt: time.Now().Add(time.Hour)}
	f.issued[id] = claims
	return id, claims, nil
}

func (f *fakeTokens) Verify(token string) (port.Claims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	claims, ok := f.issued[token]
	if !ok {
		return port.Claims{}, port.ErrNotFound
	}
	return claims, nil
}
