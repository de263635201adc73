package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tahaet/book-ecommerce/internal/domain"

	"github.com/google/uuid"
)

// ProductRepository is the data access boundary for products. Reads join the
// owning category explicitly instead of relying on implicit population.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type productRepository struct {
	store[domain.Product]
}

func NewProductRepository(db DBTX) ProductRepository {
	return &productRepository{
		store: store[domain.Product]{
			db:       db,
			table:    "products",
			notFound: ErrProductNotFound,
		},
	}
}

const productJoinQuery = `
	SELECT p.id, p.title, p.description, p.author, p.isbn, p.price,
	       p.category_id, p.images, p.created_at, p.updated_at,
	       c.id, c.name, c.display_order, c.description, c.created_at
	FROM products p
	JOIN categories c ON c.id = p.category_id
`

func scanProduct(s scanner) (*domain.Product, error) {
	p := &domain.Product{Category: &domain.Category{}}
	var images []byte
	err := s.Scan(
		&p.ID, &p.Title, &p.Description, &p.Author, &p.ISBN, &p.Price,
		&p.CategoryID, &images, &p.CreatedAt, &p.UpdatedAt,
		&p.Category.ID, &p.Category.Name, &p.Category.DisplayOrder,
		&p.Category.Description, &p.Category.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return nil, fmt.Errorf("failed to decode product images: %w", err)
	}
	return p, nil
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	if len(product.Images) == 0 {
		product.Images = []string{domain.DefaultProductImage}
	}
	images, err := json.Marshal(product.Images)
	if err != nil {
		return fmt.Errorf("failed to encode product images: %w", err)
	}

	query := `
		INSERT INTO products (id, title, description, author, isbn, price, category_id, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		product.ID, product.Title, product.Description, product.Author,
		product.ISBN, product.Price, product.CategoryID, images,
		product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := scanProduct(r.db.QueryRowContext(ctx, productJoinQuery+" WHERE p.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by id: %w", err)
	}
	return product, nil
}

func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, productJoinQuery+" ORDER BY c.display_order, p.title")
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	images, err := json.Marshal(product.Images)
	if err != nil {
		return fmt.Errorf("failed to encode product images: %w", err)
	}

	query := `
		UPDATE products
		SET title = $2, description = $3, author = $4, isbn = $5, price = $6,
		    category_id = $7, images = $8, updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		product.ID, product.Title, product.Description, product.Author,
		product.ISBN, product.Price, product.CategoryID, images)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}
