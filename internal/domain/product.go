package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus is the lifecycle state of a catalog product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusDeleted  ProductStatus = "deleted"
)

// Product represents a product in the catalog
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Title       string          `json:"title" db:"title"`
	Subtitle    string          `json:"subtitle,omitempty" db:"subtitle"`
	Description string          `json:"description,omitempty" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Rating      float64         `json:"rating" db:"rating"`
	Image       string          `json:"image" db:"image"`
	Category    string          `json:"category" db:"category"`
	Stock       int             `json:"stock" db:"stock"`
	SellerName  string          `json:"sellerName" db:"seller_name"`
	Status      ProductStatus   `json:"status" db:"status"`
	Images      []ProductImage  `json:"images"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// ProductImage is an additional image attached to a product
type ProductImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"productId" db:"product_id"`
	URL       string    `json:"url" db:"url"`
	IsPrimary bool      `json:"isPrimary" db:"is_primary"`
}

// IsActive reports whether the product can be put in a cart
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// HasStock reports whether quantity units can be taken from current stock
func (p *Product) HasStock(quantity int) bool {
	return quantity <= p.Stock
}
