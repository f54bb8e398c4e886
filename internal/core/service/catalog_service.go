package service

import (
	"context"

	"github.com/pkg/errors"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

var sortableColumns = map[string]bool{
	"createdAt": true,
	"price":     true,
	"name":      true,
	"stock":     true,
}

type CatalogService struct {
	catalog port.CatalogRepository
}

func NewCatalogService(catalog port.CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// ListProducts returns one page of active products matching filter.
func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, domain.Pagination, error) {
	filter = normalizeFilter(filter)

	products, total, err := s.catalog.ListProducts(ctx, filter)
	if err != nil {
		return nil, domain.Pagination{}, errors.Wrap(err, "list products")
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, domain.NewPagination(filter.Page, filter.Limit, total), nil
}

func normalizeFilter(filter domain.ProductFilter) domain.ProductFilter {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}
	if !sortableColumns[filter.SortBy] {
		filter.SortBy = "createdAt"
	}
	if filter.SortOrder != domain.SortAsc {
		filter.SortOrder = domain.SortDesc
	}
	return filter
}

// GetProduct returns an active product; inactive ones are not found.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	product, err := s.catalog.FindProductByID(ctx, id)
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

func (s *CatalogService) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	category, err := s.catalog.FindCategoryByID(ctx, product.CategoryID)
	if errors.Is(err, port.ErrNotFound) {
		return domain.Product{}, ErrCategoryNotFound
	}
	if err != nil {
		return domain.Product{}, errors.Wrap(err, "find category")
	}

	_, err = s.catalog.FindProductBySKU(ctx, product.SKU)
	if err == nil {
		return domain.Product{}, ErrSKUTaken
	}
	if !errors.Is(err, port.ErrNotFound) {
		return domain.Product{}, errors.Wrap(err, "find product")
	}

	if product.Images == nil {
		product.Images = []string{}
	}
	created, err := s.catalog.CreateProduct(ctx, product)
	if errors.Is(err, port.ErrDuplicate) {
		return domain.Product{}, ErrSKUTaken
	}
	if err != nil {
		return domain.Product{}, errors.Wrap(err, "create product")
	}
	created.Category = &domain.CategoryRef{ID: category.ID, Name: category.Name}
	return created, nil
}

// DeactivateProduct soft deletes a product. Cart lines pointing at it stay but
// no longer count towards summaries.
func (s *CatalogService) DeactivateProduct(ctx context.Context, id int64) error {
	err := s.catalog.DeactivateProduct(ctx, id)
	if errors.Is(err, port.ErrNotFound) {
		return ErrProductNotFound
	}
	return errors.Wrap(err, "deactivate product")
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.catalog.ListActiveCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}
