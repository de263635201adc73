package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tahaet/book-ecommerce/internal/domain"
	"github.com/tahaet/book-ecommerce/internal/repository"
)

// CatalogService exposes categories and products. Reads are public,
// writes sit behind the admin routes. Bounds are enforced here as well
// as in the request DTOs so no path into the repository skips them.
type CatalogService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
}

func NewCatalogService(categories repository.CategoryRepository, products repository.ProductRepository) *CatalogService {
	return &CatalogService{categories: categories, products: products}
}

func validateCategory(name string, displayOrder int) error {
	if len(name) > domain.CategoryNameMaxLen {
		return ErrCategoryNameTooLong
	}
	if displayOrder < domain.DisplayOrderMin || displayOrder > domain.DisplayOrderMax {
		return ErrDisplayOrderOutOfRange
	}
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.categories.FindByID(ctx, id)
}

type CategoryInput struct {
	Name         string
	DisplayOrder int
	Description  string
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	if err := validateCategory(in.Name, in.DisplayOrder); err != nil {
		return nil, err
	}
	category := &domain.Category{
		ID:           uuid.New(),
		Name:         in.Name,
		DisplayOrder: in.DisplayOrder,
		Description:  in.Description,
		CreatedAt:    time.Now(),
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput) (*domain.Category, error) {
	if err := validateCategory(in.Name, in.DisplayOrder); err != nil {
		return nil, err
	}
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	category.Name = in.Name
	category.DisplayOrder = in.DisplayOrder
	category.Description = in.Description
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.categories.DeleteByID(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.products.List(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

type ProductInput struct {
	Title       string
	Description string
	Author      string
	ISBN        string
	Price       float64
	CategoryID  uuid.UUID
	Images      []string
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if in.Price < domain.ProductPriceMin || in.Price > domain.ProductPriceMax {
		return nil, ErrPriceOutOfRange
	}
	// Reject dangling category references up front.
	if _, err := s.categories.FindByID(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New(),
		Title:       in.Title,
		Description: in.Description,
		Author:      in.Author,
		ISBN:        in.ISBN,
		Price:       in.Price,
		CategoryID:  in.CategoryID,
		Images:      in.Images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return s.products.FindByID(ctx, product.ID)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error) {
	if in.Price < domain.ProductPriceMin || in.Price > domain.ProductPriceMax {
		return nil, ErrPriceOutOfRange
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.CategoryID != product.CategoryID {
		if _, err := s.categories.FindByID(ctx, in.CategoryID); err != nil {
			return nil, err
		}
	}
	product.Title = in.Title
	product.Description = in.Description
	product.Author = in.Author
	product.ISBN = in.ISBN
	product.Price = in.Price
	product.CategoryID = in.CategoryID
	if len(in.Images) > 0 {
		product.Images = in.Images
	}
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return s.products.FindByID(ctx, id)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.products.DeleteByID(ctx, id)
}
