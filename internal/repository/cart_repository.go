package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"utkal-mart/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrCartItemExists   = errors.New("cart item for this product already exists")
)

const cartItemColumns = `ci.id, ci.user_id, ci.product_id, ci.quantity, ci.price, ci.created_at, ci.updated_at`

// CartRepository defines the interface for cart data access. Every method
// is scoped by the owning user.
type CartRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error)
	FindByID(ctx context.Context, userID, itemID uuid.UUID) (*domain.CartItem, error)
	Delete(ctx context.Context, userID, itemID uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	RefreshPrices(ctx context.Context, userID uuid.UUID) (int64, error)
	// WithTx runs fn inside a transaction. Rows read through the CartTx
	// lock methods stay locked until fn returns.
	WithTx(ctx context.Context, fn func(tx CartTx) error) error
}

// CartTx is the read-modify-write surface available inside a transaction.
// Callers lock the product before the cart line to keep a single lock order.
type CartTx interface {
	LockProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error)
	LockItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.CartItem, error)
	LockItemByProduct(ctx context.Context, userID, productID uuid.UUID) (*domain.CartItem, error)
	Insert(ctx context.Context, item *domain.CartItem) error
	Update(ctx context.Context, item *domain.CartItem) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// ListByUser returns the user's cart lines joined with their products and
// product images, oldest first
func (r *cartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	query := `
		SELECT ` + productColumns + `, ` + cartItemColumns + `
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at ASC, ci.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []*domain.CartItem{}
	productIDs := []uuid.UUID{}
	for rows.Next() {
		item := &domain.CartItem{}
		product, err := scanProduct(rows, cartItemDest(item)...)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}

		item.Product = product
		items = append(items, item)
		productIDs = append(productIDs, product.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	images, err := findImages(ctx, r.db, productIDs)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if imgs, ok := images[item.ProductID]; ok {
			item.Product.Images = imgs
		}
	}

	return items, nil
}

// FindByID retrieves one cart line owned by userID
func (r *cartRepository) FindByID(ctx context.Context, userID, itemID uuid.UUID) (*domain.CartItem, error) {
	query := `SELECT ` + cartItemColumns + ` FROM cart_items ci WHERE ci.id = $1 AND ci.user_id = $2`
	return findItem(ctx, r.db, query, itemID, userID)
}

// Delete removes one cart line owned by userID
func (r *cartRepository) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	return checkRowsAffected(result, ErrCartItemNotFound)
}

// DeleteByUser removes every cart line of userID and reports how many
// were removed
func (r *cartRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n, nil
}

// RefreshPrices copies the live product price into every line of the cart
func (r *cartRepository) RefreshPrices(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `
		UPDATE cart_items ci
		SET price = p.price, updated_at = NOW()
		FROM products p
		WHERE ci.product_id = p.id AND ci.user_id = $1 AND ci.price <> p.price
	`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh cart prices: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n, nil
}

// WithTx runs fn in a transaction
func (r *cartRepository) WithTx(ctx context.Context, fn func(tx CartTx) error) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&cartTx{tx: tx})
	})
}

type cartTx struct {
	tx *sql.Tx
}

// LockProduct reads the product row with a row lock held until commit
func (t *cartTx) LockProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1 FOR UPDATE`

	product, err := scanProduct(t.tx.QueryRowContext(ctx, query, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	return product, nil
}

func (t *cartTx) LockItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.CartItem, error) {
	query := `SELECT ` + cartItemColumns + ` FROM cart_items ci WHERE ci.id = $1 AND ci.user_id = $2 FOR UPDATE`
	return findItem(ctx, t.tx, query, itemID, userID)
}

func (t *cartTx) LockItemByProduct(ctx context.Context, userID, productID uuid.UUID) (*domain.CartItem, error) {
	query := `SELECT ` + cartItemColumns + ` FROM cart_items ci WHERE ci.user_id = $1 AND ci.product_id = $2 FOR UPDATE`
	return findItem(ctx, t.tx, query, userID, productID)
}

func (t *cartTx) Insert(ctx context.Context, item *domain.CartItem) error {
	query := `
		INSERT INTO cart_items (id, user_id, product_id, quantity, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := t.tx.ExecContext(
		ctx,
		query,
		item.ID,
		item.UserID,
		item.ProductID,
		item.Quantity,
		item.Price,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCartItemExists
		}
		return fmt.Errorf("failed to create cart item: %w", err)
	}

	return nil
}

func (t *cartTx) Update(ctx context.Context, item *domain.CartItem) error {
	query := `
		UPDATE cart_items
		SET quantity = $3, price = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2
	`

	result, err := t.tx.ExecContext(ctx, query, item.ID, item.UserID, item.Quantity, item.Price, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}

	return checkRowsAffected(result, ErrCartItemNotFound)
}

func findItem(ctx context.Context, db querier, query string, args ...interface{}) (*domain.CartItem, error) {
	item := &domain.CartItem{}
	if err := db.QueryRowContext(ctx, query, args...).Scan(cartItemDest(item)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to find cart item: %w", err)
	}

	return item, nil
}

func cartItemDest(item *domain.CartItem) []interface{} {
	return []interface{}{
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.Price,
		&item.CreatedAt,
		&item.UpdatedAt,
	}
}
