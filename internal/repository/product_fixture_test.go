package repository

import (
	"context"
	"database/sql"
	"fmt"

	"utkal-mart/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// insertProduct writes a catalog product and its images for tests
func insertProduct(ctx context.Context, db *sql.DB, product *domain.Product) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO products (id, title, subtitle, description, price, rating, image, category,
			stock, seller_name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		product.ID, product.Title,
		sql.NullString{String: product.Subtitle, Valid: product.Subtitle != ""},
		sql.NullString{String: product.Description, Valid: product.Description != ""},
		product.Price, product.Rating, product.Image, product.Category, product.Stock,
		product.SellerName, string(product.Status), product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	for i := range product.Images {
		image := &product.Images[i]
		image.ProductID = product.ID
		if image.ID == uuid.Nil {
			image.ID = uuid.New()
		}
		_, err := db.ExecContext(ctx,
			`INSERT INTO product_images (id, product_id, url, is_primary) VALUES ($1, $2, $3, $4)`,
			image.ID, image.ProductID, image.URL, image.IsPrimary,
		)
		if err != nil {
			return fmt.Errorf("insert product image: %w", err)
		}
	}
	return nil
}

// setProductPrice changes the live catalog price
func setProductPrice(ctx context.Context, db *sql.DB, id uuid.UUID, price decimal.Decimal) error {
	result, err := db.ExecContext(ctx, `UPDATE products SET price = $2 WHERE id = $1`, id, price)
	if err != nil {
		return fmt.Errorf("update product price: %w", err)
	}
	return checkRowsAffected(result, ErrProductNotFound)
}
