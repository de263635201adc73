package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tahaet/book-ecommerce/internal/domain"
	"github.com/tahaet/book-ecommerce/internal/repository"
)

// CartService orchestrates the add/remove/clear dance over cart headers
// and details. Every mutation runs in a transaction so the stored total
// never drifts from the sum of the line items.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	tx       repository.TxManager
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, tx repository.TxManager) *CartService {
	return &CartService{carts: carts, products: products, tx: tx}
}

// GetMyCart returns the user's cart with its joined line items. A user
// without a cart gets repository.ErrCartNotFound, which the transport
// layer renders as an empty-cart message.
func (s *CartService) GetMyCart(ctx context.Context, userID uuid.UUID) (*domain.CartHeader, error) {
	return s.carts.GetByUser(ctx, userID)
}

// AddToMyCart adds count units of a product to the user's cart, creating
// the cart on first use. Adding a product already in the cart increments
// its count instead of duplicating the line.
func (s *CartService) AddToMyCart(ctx context.Context, userID, productID uuid.UUID, count int) (*domain.CartHeader, error) {
	if count < 1 {
		return nil, ErrCountTooSmall
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		carts := s.carts.WithTx(tx)
		header, err := carts.UpsertHeader(ctx, userID)
		if err != nil {
			return err
		}

		detail, err := carts.FindDetail(ctx, header.ID, productID)
		switch {
		case err == nil:
			detail.Count += count
			detail.Price = product.Price
			if err := carts.UpdateDetail(ctx, detail); err != nil {
				return err
			}
		case errors.Is(err, repository.ErrCartItemNotFound):
			detail = &domain.CartDetail{
				ID:           uuid.New(),
				CartHeaderID: header.ID,
				ProductID:    productID,
				Count:        count,
				Price:        product.Price,
			}
			if err := carts.CreateDetail(ctx, detail); err != nil {
				return err
			}
		default:
			return err
		}

		return s.recomputeTotal(ctx, carts, header.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.carts.GetByUser(ctx, userID)
}

// RemoveFromMyCart drops a product's line entirely regardless of count.
// Removing the last line deletes the header too, so an emptied cart
// disappears rather than lingering at total zero.
func (s *CartService) RemoveFromMyCart(ctx context.Context, userID, productID uuid.UUID) (*domain.CartHeader, error) {
	var emptied bool
	err := s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		carts := s.carts.WithTx(tx)
		header, err := carts.FindHeaderByUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := carts.DeleteDetail(ctx, header.ID, productID); err != nil {
			return err
		}

		details, err := carts.ListDetails(ctx, header.ID)
		if err != nil {
			return err
		}
		if len(details) == 0 {
			emptied = true
			return carts.DeleteHeader(ctx, header.ID)
		}
		return s.recomputeTotal(ctx, carts, header.ID)
	})
	if err != nil {
		return nil, err
	}
	if emptied {
		return nil, nil
	}
	return s.carts.GetByUser(ctx, userID)
}

// ClearMyCart deletes the user's cart wholesale. Clearing a cart that
// does not exist is a no-op, so the operation is idempotent.
func (s *CartService) ClearMyCart(ctx context.Context, userID uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		carts := s.carts.WithTx(tx)
		header, err := carts.FindHeaderByUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := carts.DeleteDetailsByHeader(ctx, header.ID); err != nil {
			return err
		}
		return carts.DeleteHeader(ctx, header.ID)
	})
	if errors.Is(err, repository.ErrCartNotFound) {
		return nil
	}
	return err
}

// ListCarts is the admin view over every cart header.
func (s *CartService) ListCarts(ctx context.Context) ([]*domain.CartHeader, error) {
	return s.carts.List(ctx)
}

// CreateCart provisions an empty cart for a user. If the user already
// has one it is returned untouched.
func (s *CartService) CreateCart(ctx context.Context, userID uuid.UUID) (*domain.CartHeader, error) {
	if _, err := s.carts.UpsertHeader(ctx, userID); err != nil {
		return nil, err
	}
	return s.carts.FindHeaderByUser(ctx, userID)
}

// RecalculateCart rewrites a cart's stored total from its line items.
// The total can only drift through out-of-band writes, so this is a
// repair operation for staff.
func (s *CartService) RecalculateCart(ctx context.Context, id uuid.UUID) (*domain.CartHeader, error) {
	err := s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		carts := s.carts.WithTx(tx)
		if _, err := carts.FindByID(ctx, id); err != nil {
			return err
		}
		return s.recomputeTotal(ctx, carts, id)
	})
	if err != nil {
		return nil, err
	}
	return s.carts.FindByID(ctx, id)
}

// GetCart fetches any cart by id for admins.
func (s *CartService) GetCart(ctx context.Context, id uuid.UUID) (*domain.CartHeader, error) {
	return s.carts.FindByID(ctx, id)
}

// DeleteCart removes any cart by id for admins.
func (s *CartService) DeleteCart(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		carts := s.carts.WithTx(tx)
		if _, err := carts.FindByID(ctx, id); err != nil {
			return err
		}
		if err := carts.DeleteDetailsByHeader(ctx, id); err != nil {
			return err
		}
		return carts.DeleteHeader(ctx, id)
	})
}

// recomputeTotal rewrites the stored total from the live line items.
func (s *CartService) recomputeTotal(ctx context.Context, carts repository.CartRepository, headerID uuid.UUID) error {
	details, err := carts.ListDetails(ctx, headerID)
	if err != nil {
		return err
	}
	var total float64
	for _, d := range details {
		total += d.Price * float64(d.Count)
	}
	if err := carts.UpdateTotal(ctx, headerID, total); err != nil {
		return fmt.Errorf("recomputing cart total: %w", err)
	}
	return nil
}
