package session

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// StoreCurrency is the currency every price is quoted in
var StoreCurrency = currency.INR

var displayLanguage = language.MustParse("en-IN")

// Product is the product summary embedded in a cart line
type Product struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Image      string          `json:"image"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	SellerName string          `json:"sellerName"`
	Status     string          `json:"status"`
}

// Item is one cart line as returned by the server
type Item struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Product   *Product        `json:"Product,omitempty"`
}

// Subtotal returns price × quantity
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the GET /api/buyer/cart payload
type Cart struct {
	Items     []Item          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

// Snapshot is an immutable view of the session state. Items, Total and
// ItemCount come from the last successful fetch and are never patched
// locally.
type Snapshot struct {
	Items            []Item
	Total            decimal.Decimal
	ItemCount        int
	Loading          bool
	Error            string
	ProcessingItemID string
}

func emptySnapshot() Snapshot {
	return Snapshot{Items: []Item{}, Total: decimal.Zero}
}

// IsProcessing reports whether a mutation on id is in flight
func (s Snapshot) IsProcessing(id string) bool {
	return id != "" && s.ProcessingItemID == id
}

// FormattedTotal renders the total in the store currency, e.g. "₹ 45.00"
func (s Snapshot) FormattedTotal() string {
	return FormatPrice(s.Total)
}

// FormatPrice renders an amount in the store currency
func FormatPrice(amount decimal.Decimal) string {
	p := message.NewPrinter(displayLanguage)
	return p.Sprint(currency.Symbol(StoreCurrency.Amount(amount.InexactFloat64())))
}
