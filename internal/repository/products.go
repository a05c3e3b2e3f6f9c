package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"utkal-mart/internal/domain"

	"github.com/google/uuid"
)

// ErrProductNotFound is returned when a cart operation names a missing
// product. Products are only read here, joined into cart queries or
// locked inside a cart transaction.
var ErrProductNotFound = errors.New("product not found")

const productColumns = `p.id, p.title, p.subtitle, p.description, p.price, p.rating, p.image,
	p.category, p.stock, p.seller_name, p.status, p.created_at, p.updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanProduct reads productColumns, optionally followed by extra columns
func scanProduct(row rowScanner, extra ...interface{}) (*domain.Product, error) {
	product := &domain.Product{Images: []domain.ProductImage{}}
	var subtitle, description sql.NullString

	dest := []interface{}{
		&product.ID,
		&product.Title,
		&subtitle,
		&description,
		&product.Price,
		&product.Rating,
		&product.Image,
		&product.Category,
		&product.Stock,
		&product.SellerName,
		&product.Status,
		&product.CreatedAt,
		&product.UpdatedAt,
	}

	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	product.Subtitle = subtitle.String
	product.Description = description.String
	return product, nil
}

// findImages loads images for several products in one query
func findImages(ctx context.Context, db querier, productIDs []uuid.UUID) (map[uuid.UUID][]domain.ProductImage, error) {
	images := make(map[uuid.UUID][]domain.ProductImage, len(productIDs))
	if len(productIDs) == 0 {
		return images, nil
	}

	ids := make([]string, len(productIDs))
	for i, id := range productIDs {
		ids[i] = id.String()
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, product_id, url, is_primary
		FROM product_images
		WHERE product_id = ANY($1::uuid[])
		ORDER BY is_primary DESC, created_at ASC
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list product images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var image domain.ProductImage
		if err := rows.Scan(&image.ID, &image.ProductID, &image.URL, &image.IsPrimary); err != nil {
			return nil, fmt.Errorf("failed to scan product image: %w", err)
		}
		images[image.ProductID] = append(images[image.ProductID], image)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product images: %w", err)
	}

	return images, nil
}
