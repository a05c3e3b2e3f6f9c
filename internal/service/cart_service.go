package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"utkal-mart/internal/domain"
	"utkal-mart/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrProductNotFound    = errors.New("product not found or unavailable")
	ErrProductUnavailable = errors.New("product is no longer available")
	ErrInsufficientStock  = errors.New("not enough stock available")
	ErrExceedsStock       = errors.New("cannot add more than available stock")
	ErrCartItemNotFound   = repository.ErrCartItemNotFound
	ErrCartConflict       = repository.ErrCartItemExists
)

// IsStockError reports whether err rejects a quantity against product stock
func IsStockError(err error) bool {
	return errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrExceedsStock)
}

// CartService defines the cart business rules. The user id always comes
// from the verified token, never from the request body.
type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	// AddToCart merges into the existing line for the product if there is
	// one; created reports whether a new line was inserted.
	AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity int) (item *domain.CartItem, created bool, err error)
	UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.CartItem, error)
	RemoveFromCart(ctx context.Context, userID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
	RefreshPrices(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
}

// CartOptions tunes price snapshot behaviour
type CartOptions struct {
	// KeepPriceOnMutation stops add-merge and quantity update from copying
	// the live product price into the line. The price set at insert time
	// is then kept until RefreshPrices.
	KeepPriceOnMutation bool
}

type cartService struct {
	carts repository.CartRepository
	opts  CartOptions
}

// NewCartService creates a new instance of CartService
func NewCartService(carts repository.CartRepository, opts CartOptions) CartService {
	return &cartService{
		carts: carts,
		opts:  opts,
	}
}

// GetCart returns the cart with derived totals
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	items, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return domain.NewCart(items), nil
}

// AddToCart validates stock and writes the line while holding the product
// row lock, so concurrent adds for the same product serialize
func (s *cartService) AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, bool, error) {
	if quantity < 1 {
		return nil, false, ErrInvalidQuantity
	}

	var (
		item    *domain.CartItem
		created bool
	)

	err := s.carts.WithTx(ctx, func(tx repository.CartTx) error {
		product, err := tx.LockProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		if !product.IsActive() {
			return ErrProductNotFound
		}

		if !product.HasStock(quantity) {
			return ErrInsufficientStock
		}

		existing, err := tx.LockItemByProduct(ctx, userID, productID)
		switch {
		case err == nil:
			newQuantity := existing.Quantity + quantity
			if !product.HasStock(newQuantity) {
				return ErrExceedsStock
			}

			existing.Quantity = newQuantity
			s.touch(existing, product)
			if err := tx.Update(ctx, existing); err != nil {
				return err
			}
			item = existing

		case errors.Is(err, repository.ErrCartItemNotFound):
			item = domain.NewCartItem(userID, product, quantity)
			if err := tx.Insert(ctx, item); err != nil {
				return err
			}
			created = true

		default:
			return err
		}

		item.Product = product
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return item, created, nil
}

// UpdateCartItem sets an absolute quantity on one of the user's lines
func (s *cartService) UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	// Read once unlocked to learn the product, then lock product before line
	current, err := s.carts.FindByID(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	var item *domain.CartItem
	err = s.carts.WithTx(ctx, func(tx repository.CartTx) error {
		product, err := tx.LockProduct(ctx, current.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return ErrProductUnavailable
			}
			return err
		}

		item, err = tx.LockItem(ctx, userID, itemID)
		if err != nil {
			return err
		}

		if !product.IsActive() {
			return ErrProductUnavailable
		}

		if !product.HasStock(quantity) {
			return ErrExceedsStock
		}

		item.Quantity = quantity
		s.touch(item, product)
		if err := tx.Update(ctx, item); err != nil {
			return err
		}

		item.Product = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// RemoveFromCart deletes one of the user's lines
func (s *cartService) RemoveFromCart(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.carts.Delete(ctx, userID, itemID)
}

// ClearCart deletes every line of the user; an empty cart is not an error
func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.carts.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	return nil
}

// RefreshPrices re-snapshots every line from the live product price
func (s *cartService) RefreshPrices(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	if _, err := s.carts.RefreshPrices(ctx, userID); err != nil {
		return nil, err
	}

	return s.GetCart(ctx, userID)
}

func (s *cartService) touch(item *domain.CartItem, product *domain.Product) {
	if s.opts.KeepPriceOnMutation {
		item.UpdatedAt = time.Now()
		return
	}
	item.Snapshot(product)
}
