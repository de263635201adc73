package repository

import (
	"context"
	"fmt"

	"github.com/tahaet/book-ecommerce/internal/domain"

	"github.com/google/uuid"
)

// CategoryRepository is the data access boundary for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	Update(ctx context.Context, category *domain.Category) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type categoryRepository struct {
	store[domain.Category]
}

func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{
		store: store[domain.Category]{
			db:      db,
			table:   "categories",
			columns: "id, name, display_order, description, created_at",
			orderBy: "display_order, name",
			scan: func(s scanner) (*domain.Category, error) {
				c := &domain.Category{}
				err := s.Scan(&c.ID, &c.Name, &c.DisplayOrder, &c.Description, &c.CreatedAt)
				return c, err
			},
			notFound: ErrCategoryNotFound,
		},
	}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, display_order, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		category.ID, category.Name, category.DisplayOrder, category.Description, category.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	query := `
		UPDATE categories
		SET name = $2, display_order = $3, description = $4
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		category.ID, category.Name, category.DisplayOrder, category.Description)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
