/**
 * @description
 * This file implements the data access layer for the product catalog. Every
 * query is scoped by the owning merchant's user id so one merchant can never
 * read or mutate another merchant's products.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver and connection pooling.
 * - internal/domain: The service's domain models.
 */

package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/productr/merchant-service/internal/domain"
)

// ProductRepository defines the interface for catalog data storage.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (string, error)
	FindByID(ctx context.Context, id, userID string) (*domain.Product, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id, userID string) error
}

// PostgresProductRepository is the PostgreSQL implementation of the ProductRepository.
type PostgresProductRepository struct {
	db *pgxpool.Pool
}

// NewPostgresProductRepository creates a new instance of PostgresProductRepository.
func NewPostgresProductRepository(db *pgxpool.Pool) *PostgresProductRepository {
	return &PostgresProductRepository{db: db}
}

const productColumns = `id, user_id, product_name, product_type, quantity_stock, mrp, selling_price, brand_name, images, exchange_return, status, created_at, updated_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.ProductName,
		&p.ProductType,
		&p.QuantityStock,
		&p.MRP,
		&p.SellingPrice,
		&p.BrandName,
		&p.Images,
		&p.ExchangeReturn,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a new product and returns its generated UUID.
func (r *PostgresProductRepository) Create(ctx context.Context, product *domain.Product) (string, error) {
	query := `
        INSERT INTO products (user_id, product_name, product_type, quantity_stock, mrp, selling_price, brand_name, images, exchange_return, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id
    `
	var productID string
	err := r.db.QueryRow(ctx, query,
		product.UserID,
		product.ProductName,
		product.ProductType,
		product.QuantityStock,
		product.MRP,
		product.SellingPrice,
		product.BrandName,
		product.Images,
		product.ExchangeReturn,
		product.Status,
	).Scan(&productID)
	if err != nil {
		return "", err
	}
	return productID, nil
}

// FindByID retrieves one product owned by the given merchant.
func (r *PostgresProductRepository) FindByID(ctx context.Context, id, userID string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND user_id = $2`
	return scanProduct(r.db.QueryRow(ctx, query, id, userID))
}

// ListByUserID retrieves every product owned by the given merchant.
func (r *PostgresProductRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// Update persists the mutable fields of a product, scoped to its owner.
func (r *PostgresProductRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
        UPDATE products
        SET product_name = $3, product_type = $4, quantity_stock = $5, mrp = $6,
            selling_price = $7, brand_name = $8, images = $9, exchange_return = $10,
            status = $11, updated_at = NOW()
        WHERE id = $1 AND user_id = $2
    `
	tag, err := r.db.Exec(ctx, query,
		product.ID,
		product.UserID,
		product.ProductName,
		product.ProductType,
		product.QuantityStock,
		product.MRP,
		product.SellingPrice,
		product.BrandName,
		product.Images,
		product.ExchangeReturn,
		product.Status,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one product owned by the given merchant.
func (r *PostgresProductRepository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
