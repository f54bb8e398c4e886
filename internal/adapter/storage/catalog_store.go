package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const productSelect = `
	SELECT p.id, p.name, p.description, p.price, p.sku, p.stock, p.image_url, p.images,
		p.category_id, p.is_active, p.created_at, p.updated_at, c.name, c.description
	FROM products p
	JOIN categories c ON c.id = p.category_id`

var productSortColumns = map[string]string{
	"createdAt": "p.created_at",
	"price":     "p.price",
	"name":      "p.name",
	"stock":     "p.stock",
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p      domain.Product
		images string
		ref    domain.CategoryRef
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.SKU, &p.Stock, &p.ImageURL, &images,
		&p.CategoryID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt, &ref.Name, &ref.Description,
	)
	if err != nil {
		return domain.Product{}, err
	}

	p.Images = []string{}
	if images != "" {
		if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
			return domain.Product{}, errors.Wrap(err, "decode product images")
		}
	}
	ref.ID = p.CategoryID
	p.Category = &ref
	return p, nil
}

func (s *SQLStore) FindProductByID(ctx context.Context, id int64) (domain.Product, error) {
	return s.oneProduct(s.db.QueryRowContext(ctx, productSelect+` WHERE p.id = ?`, id))
}

func (s *SQLStore) FindProductBySKU(ctx context.Context, sku string) (domain.Product, error) {
	return s.oneProduct(s.db.QueryRowContext(ctx, productSelect+` WHERE p.sku = ?`, sku))
}

func (s *SQLStore) oneProduct(row *sql.Row) (domain.Product, error) {
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, port.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, errors.Wrap(err, "query product")
	}
	return p, nil
}

// ListProducts returns one page of active products and the total match count.
// filter is expected to be normalised by the caller.
func (s *SQLStore) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	where := []string{"p.is_active = 1"}
	var args []any

	if filter.CategoryID > 0 {
		where = append(where, "p.category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		where = append(where, "(LOWER(p.name) LIKE ? OR LOWER(p.description) LIKE ?)")
		args = append(args, like, like)
	}
	if filter.MinPrice != nil {
		where = append(where, "p.price >= ?")
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		where = append(where, "p.price <= ?")
		args = append(args, *filter.MaxPrice)
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products p`+clause, args...).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}

	column, ok := productSortColumns[filter.SortBy]
	if !ok {
		column = "p.created_at"
	}
	direction := "DESC"
	if filter.SortOrder == domain.SortAsc {
		direction = "ASC"
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	query := productSelect + clause + ` ORDER BY ` + column + ` ` + direction + `, p.id ` + direction + ` LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "query products")
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "scan product")
		}
		// listings carry the category name only
		p.Category.Description = ""
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "iterate products")
	}
	return products, total, nil
}

func (s *SQLStore) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	images := product.Images
	if images == nil {
		images = []string{}
	}
	encoded, err := json.Marshal(images)
	if err != nil {
		return domain.Product{}, errors.Wrap(err, "encode product images")
	}

	now := s.now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO products (name, description, price, sku, stock, image_url, images, category_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		product.Name, product.Description, product.Price, product.SKU, product.Stock,
		product.ImageURL, string(encoded), product.CategoryID, now, now,
	)
	if isUniqueViolation(err) {
		return domain.Product{}, port.ErrDuplicate
	}
	if err != nil {
		return domain.Product{}, errors.Wrap(err, "insert product")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.Product{}, errors.Wrap(err, "product id")
	}
	return s.FindProductByID(ctx, id)
}

func (s *SQLStore) DeactivateProduct(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE products SET is_active = 0, updated_at = ? WHERE id = ?`, s.now(), id)
	if err != nil {
		return errors.Wrap(err, "deactivate product")
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

// SetStock overwrites a product's stock level. Used by seeding and restocks.
func (s *SQLStore) SetStock(ctx context.Context, id int64, stock int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`, stock, s.now(), id)
	if err != nil {
		return errors.Wrap(err, "update stock")
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

const categorySelect = `
	SELECT id, name, description, image_url, is_active, created_at, updated_at
	FROM categories`

func (s *SQLStore) oneCategory(row *sql.Row) (domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, port.ErrNotFound
	}
	if err != nil {
		return domain.Category{}, errors.Wrap(err, "query category")
	}
	return c, nil
}

func (s *SQLStore) FindCategoryByID(ctx context.Context, id int64) (domain.Category, error) {
	return s.oneCategory(s.db.QueryRowContext(ctx, categorySelect+` WHERE id = ?`, id))
}

func (s *SQLStore) FindCategoryByName(ctx context.Context, name string) (domain.Category, error) {
	return s.oneCategory(s.db.QueryRowContext(ctx, categorySelect+` WHERE name = ?`, name))
}

func (s *SQLStore) CreateCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	now := s.now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name, description, image_url, is_active, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)`,
		category.Name, category.Description, category.ImageURL, now, now,
	)
	if isUniqueViolation(err) {
		return domain.Category{}, port.ErrDuplicate
	}
	if err != nil {
		return domain.Category{}, errors.Wrap(err, "insert category")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.Category{}, errors.Wrap(err, "category id")
	}
	category.ID = id
	category.IsActive = true
	category.CreatedAt = now
	category.UpdatedAt = now
	return category, nil
}

func (s *SQLStore) ListActiveCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, categorySelect+` WHERE is_active = 1 ORDER BY name ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "query categories")
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan category")
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate categories")
	}
	return categories, nil
}
