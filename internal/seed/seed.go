// Package seed loads the demo catalog and accounts. Loading is idempotent:
// rows that already exist, matched by category name, SKU or email, are left
// untouched.
package seed

import (
	"bytes"
	"context"
	_ "embed"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

//go:embed seed.yaml
var defaultFixtures []byte

type Fixtures struct {
	Categories []Category `yaml:"categories"`
	Products   []Product  `yaml:"products"`
	Users      []User     `yaml:"users"`
}

type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	ImageURL    string `yaml:"imageUrl"`
}

type Product struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       string   `yaml:"price"`
	SKU         string   `yaml:"sku"`
	Stock       int      `yaml:"stock"`
	ImageURL    string   `yaml:"imageUrl"`
	Images      []string `yaml:"images"`
	Category    string   `yaml:"category"`
}

type User struct {
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"firstName"`
	LastName  string `yaml:"lastName"`
	Role      string `yaml:"role"`
	Phone     string `yaml:"phone"`
	Address   string `yaml:"address"`
	City      string `yaml:"city"`
	Country   string `yaml:"country"`
	ZipCode   string `yaml:"zipCode"`
}

// Result counts the rows created by one run.
type Result struct {
	Categories int
	Products   int
	Users      int
}

type Loader struct {
	catalog port.CatalogRepository
	users   port.UserRepository
	hasher  port.PasswordHasher
	log     *logrus.Logger
}

func NewLoader(catalog port.CatalogRepository, users port.UserRepository, hasher port.PasswordHasher, log *logrus.Logger) *Loader {
	return &Loader{catalog: catalog, users: users, hasher: hasher, log: log}
}

func Parse(data []byte) (Fixtures, error) {
	var f Fixtures
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return Fixtures{}, errors.Wrap(err, "parse fixtures")
	}
	return f, nil
}

// LoadDefault loads the embedded demo fixtures.
func (l *Loader) LoadDefault(ctx context.Context) (Result, error) {
	f, err := Parse(defaultFixtures)
	if err != nil {
		return Result{}, err
	}
	return l.Load(ctx, f)
}

func (l *Loader) Load(ctx context.Context, f Fixtures) (Result, error) {
	var res Result

	categoryIDs := make(map[string]int64, len(f.Categories))
	for _, c := range f.Categories {
		existing, err := l.catalog.FindCategoryByName(ctx, c.Name)
		if err == nil {
			categoryIDs[c.Name] = existing.ID
			continue
		}
		if !errors.Is(err, port.ErrNotFound) {
			return res, errors.Wrapf(err, "find category %q", c.Name)
		}

		created, err := l.catalog.CreateCategory(ctx, domain.Category{
			Name:        c.Name,
			Description: c.Description,
			ImageURL:    c.ImageURL,
			IsActive:    true,
		})
		if err != nil {
			return res, errors.Wrapf(err, "create category %q", c.Name)
		}
		categoryIDs[c.Name] = created.ID
		res.Categories++
	}

	for _, p := range f.Products {
		_, err := l.catalog.FindProductBySKU(ctx, p.SKU)
		if err == nil {
			continue
		}
		if !errors.Is(err, port.ErrNotFound) {
			return res, errors.Wrapf(err, "find product %s", p.SKU)
		}

		categoryID, ok := categoryIDs[p.Category]
		if !ok {
			return res, errors.Errorf("product %s references unknown category %q", p.SKU, p.Category)
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return res, errors.Wrapf(err, "product %s price", p.SKU)
		}
		images := p.Images
		if len(images) == 0 && p.ImageURL != "" {
			images = []string{p.ImageURL}
		}

		_, err = l.catalog.CreateProduct(ctx, domain.Product{
			Name:        p.Name,
			Description: p.Description,
			Price:       price,
			SKU:         p.SKU,
			Stock:       p.Stock,
			ImageURL:    p.ImageURL,
			Images:      images,
			CategoryID:  categoryID,
			IsActive:    true,
		})
		if err != nil {
			return res, errors.Wrapf(err, "create product %s", p.SKU)
		}
		res.Products++
	}

	for _, u := range f.Users {
		_, err := l.users.FindByEmail(ctx, u.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, port.ErrNotFound) {
			return res, errors.Wrapf(err, "find user %s", u.Email)
		}

		hash, err := l.hasher.Hash(u.Password)
		if err != nil {
			return res, errors.Wrapf(err, "hash password for %s", u.Email)
		}
		role := domain.Role(u.Role)
		if role == "" {
			role = domain.RoleUser
		}

		// Create also opens the user's cart
		_, err = l.users.Create(ctx, domain.User{
			Email:        u.Email,
			PasswordHash: hash,
			FirstName:    u.FirstName,
			LastName:     u.LastName,
			Phone:        u.Phone,
			Address:      u.Address,
			City:         u.City,
			Country:      u.Country,
			ZipCode:      u.ZipCode,
			Role:         role,
			IsActive:     true,
		})
		if err != nil {
			return res, errors.Wrapf(err, "create user %s", u.Email)
		}
		res.Users++
	}

	l.log.WithFields(logrus.Fields{
		"categories": res.Categories,
		"products":   res.Products,
		"users":      res.Users,
	}).Info("seed completed")
	return res, nil
}
