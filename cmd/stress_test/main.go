package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/logging"
)

const (
	initialStock  = 20
	totalRequests = 50
)

func main() {
	driver := flag.String("driver", "sqlite3", "database driver (mysql|sqlite3)")
	dsn := flag.String("dsn", "", "database dsn, defaults to a temporary SQLite file")
	flag.Parse()

	log := logging.New("info", os.Stderr)
	if err := run(context.Background(), storage.Dialect(*driver), *dsn, log); err != nil {
		log.WithError(err).Fatal("stress test aborted")
	}
}

func run(ctx context.Context, dialect storage.Dialect, dsn string, log *logrus.Logger) error {
	if dsn == "" {
		dir, err := os.MkdirTemp("", "storefront-stress")
		if err != nil {
			return errors.Wrap(err, "temp dir")
		}
		defer os.RemoveAll(dir)
		dsn = filepath.Join(dir, "stress.db")
	}

	db, err := storage.Open(ctx, dialect, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	store := storage.NewSQLStore(db, dialect)
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	// unique names so repeated runs against a shared MySQL do not collide
	suffix := time.Now().Format("20060102150405.000")
	category, err := store.CreateCategory(ctx, domain.Category{Name: "stress " + suffix})
	if err != nil {
		return err
	}
	product, err := store.CreateProduct(ctx, domain.Product{
		Name:       "Flash item",
		Price:      decimal.RequireFromString("9.99"),
		SKU:        "STRESS-" + suffix,
		Stock:      initialStock,
		CategoryID: category.ID,
	})
	if err != nil {
		return err
	}
	user, err := store.Create(ctx, domain.User{
		Email:        "stress-" + suffix + "@example.com",
		PasswordHash: "-",
		FirstName:    "Stress",
		LastName:     "Test",
		IsActive:     true,
	})
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"product": product.ID, "user": user.ID}).Info("fixtures ready")

	carts := service.NewCartService(store, store, storage.NewMemoryCache(), service.DefaultMaxAttempts)

	var successCount, soldOutCount, conflictCount atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		g.Go(func() error {
			_, err := carts.AddItem(gctx, user.ID, product.ID, 1)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, service.ErrInsufficientStock):
				soldOutCount.Add(1)
			case errors.Is(err, service.ErrConcurrentModification):
				conflictCount.Add(1)
			default:
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	cart, err := carts.GetOrCreateCart(ctx, user.ID)
	if err != nil {
		return err
	}
	summary := domain.ComputeSummary(cart)

	report(os.Stdout, successCount.Load(), soldOutCount.Load(), conflictCount.Load(), summary, elapsed)
	return nil
}

func report(w io.Writer, success, soldOut, conflicts int32, summary domain.CartSummary, elapsed time.Duration) {
	fmt.Fprintln(w, "========== STRESS TEST RESULTS ==========")
	fmt.Fprintf(w, "Initial Stock:    %d\n", initialStock)
	fmt.Fprintf(w, "Total Requests:   %d\n", totalRequests)
	fmt.Fprintf(w, "Successful:       %d\n", success)
	fmt.Fprintf(w, "Insufficient:     %d\n", soldOut)
	fmt.Fprintf(w, "Gave up (409):    %d\n", conflicts)
	fmt.Fprintf(w, "Duration:         %v\n", elapsed)
	fmt.Fprintf(w, "Cart Quantity:    %d\n", summary.ItemsCount)
	fmt.Fprintf(w, "Cart Total:       %s\n", summary.TotalAmount.StringFixed(2))
	fmt.Fprintln(w, "==========================================")

	if summary.ItemsCount <= initialStock {
		fmt.Fprintln(w, "PASS: cart quantity never exceeded stock")
	} else {
		fmt.Fprintf(w, "FAIL: cart quantity %d exceeds stock %d\n", summary.ItemsCount, initialStock)
	}

	if int32(summary.ItemsCount) == success {
		fmt.Fprintln(w, "PASS: every successful add is reflected in the cart")
	} else {
		fmt.Fprintf(w, "FAIL: %d successful adds but cart holds %d\n", success, summary.ItemsCount)
	}
}
