package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one persisted cart line. Price is the product price captured
// at the last snapshot, not a live reference.
type CartItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	UserID    uuid.UUID       `json:"userId" db:"user_id"`
	ProductID uuid.UUID       `json:"productId" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`

	Product *Product `json:"Product,omitempty"`
}

// NewCartItem creates a line for product with the product's current price
func NewCartItem(userID uuid.UUID, product *Product, quantity int) *CartItem {
	now := time.Now()
	return &CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: product.ID,
		Quantity:  quantity,
		Price:     product.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Snapshot copies the product's current price into the line
func (i *CartItem) Snapshot(product *Product) {
	i.Price = product.Price
	i.UpdatedAt = time.Now()
}

// Subtotal returns price × quantity
func (i *CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the read model returned to buyers
type Cart struct {
	Items     []*CartItem
	Total     decimal.Decimal
	ItemCount int
}

// NewCart derives the totals from items
func NewCart(items []*CartItem) *Cart {
	if items == nil {
		items = []*CartItem{}
	}

	cart := &Cart{Items: items, Total: decimal.Zero}
	for _, item := range items {
		cart.Total = cart.Total.Add(item.Subtotal())
		cart.ItemCount += item.Quantity
	}

	return cart
}

// TotalString renders the total fixed to two decimals, e.g. "12.50"
func (c *Cart) TotalString() string {
	return c.Total.StringFixed(2)
}
