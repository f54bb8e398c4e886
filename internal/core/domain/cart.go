package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ProductSnapshot is the product state joined onto a cart line at read time.
type ProductSnapshot struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl"`
	Stock    int             `json:"stock"`
	IsActive bool            `json:"isActive"`
}

type CartItem struct {
	ID        int64           `json:"id"`
	CartID    int64           `json:"cartId"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Version   int             `json:"-"` // optimistic locking
	Product   ProductSnapshot `json:"product"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CartSummary struct {
	ItemsCount  int             `json:"itemsCount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// MarshalJSON writes the total as a JSON number with two decimals. Product
// prices keep the quoted decimal encoding.
func (s CartSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ItemsCount  int         `json:"itemsCount"`
		TotalAmount json.Number `json:"totalAmount"`
	}{
		ItemsCount:  s.ItemsCount,
		TotalAmount: json.Number(s.TotalAmount.StringFixed(2)),
	})
}

// ComputeSummary totals the cart's active lines. Lines whose product has been
// deactivated stay in the cart but do not count.
func ComputeSummary(cart Cart) CartSummary {
	summary := CartSummary{TotalAmount: decimal.Zero}
	for _, item := range cart.Items {
		if !item.Product.IsActive {
			continue
		}
		summary.ItemsCount += item.Quantity
		summary.TotalAmount = summary.TotalAmount.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	summary.TotalAmount = summary.TotalAmount.Round(2)
	return summary
}
