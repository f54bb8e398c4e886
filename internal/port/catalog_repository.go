package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type CatalogRepository interface {
	// FindProductByID returns the product regardless of its active flag
	FindProductByID(ctx context.Context, id int64) (domain.Product, error)
	FindProductBySKU(ctx context.Context, sku string) (domain.Product, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error)
	// CreateProduct returns ErrDuplicate when the SKU is taken
	CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	DeactivateProduct(ctx context.Context, id int64) error

	FindCategoryByID(ctx context.Context, id int64) (domain.Category, error)
	FindCategoryByName(ctx context.Context, name string) (domain.Category, error)
	CreateCategory(ctx context.Context, category domain.Category) (domain.Category, error)
	ListActiveCategories(ctx context.Context) ([]domain.Category, error)
}
