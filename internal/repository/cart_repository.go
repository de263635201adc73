package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tahaet/book-ecommerce/internal/domain"

	"github.com/google/uuid"
)

// CartRepository exposes fine-grained cart operations. The cart service
// composes the mutating ones inside a single transaction via WithTx; the
// joined reads work on the pool directly.
type CartRepository interface {
	WithTx(tx *sql.Tx) CartRepository

	GetByUser(ctx context.Context, userID uuid.UUID) (*domain.CartHeader, error)
	FindHeaderByUser(ctx context.Context, userID uuid.UUID) (*domain.CartHeader, error)
	UpsertHeader(ctx context.Context, userID uuid.UUID) (*domain.CartHeader, error)
	DeleteHeader(ctx context.Context, headerID uuid.UUID) error
	UpdateTotal(ctx context.Context, headerID uuid.UUID, total float64) error

	FindDetail(ctx context.Context, headerID, productID uuid.UUID) (*domain.CartDetail, error)
	ListDetails(ctx context.Context, headerID uuid.UUID) ([]*domain.CartDetail, error)
	CreateDetail(ctx context.Context, detail *domain.CartDetail) error
	UpdateDetail(ctx context.Context, detail *domain.CartDetail) error
	DeleteDetail(ctx context.Context, headerID, productID uuid.UUID) error
	DeleteDetailsByHeader(ctx context.Context, headerID uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*domain.CartHeader, error)
	List(ctx context.Context) ([]*domain.CartHeader, error)
}

type cartRepository struct {
	db DBTX
}

func NewCartRepository(db DBTX) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) WithTx(tx *sql.Tx) CartRepository {
	return &cartRepository{db: tx}
}

func (r *cartRepository) findHeader(ctx context.Context, where string, arg any) (*domain.CartHeader, error) {
	query := "SELECT id, user_id, cart_total FROM cart_headers WHERE " + where

	header := &domain.CartHeader{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&header.ID, &header.UserID, &header.CartTotal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to find cart header: %w", err)
	}
	return header, nil
}

func (r *cartRepository) FindHeaderByUser(ctx context.Context, userID uuid.UUID) (*domain.CartHeader, error) {
	return r.findHeader(ctx, "user_id = $1", userID)
}

// UpsertHeader creates the user's cart header if it does not exist yet. The
// insert races safely against concurrent adds: the unique index on user_id
// plus ON CONFLICT DO NOTHING guarantees a single header, and the re-read
// returns whichever row won.
func (r *cartRepository) UpsertHeader(ctx context.Context, userID uuid.UUID) (*domain.CartHeader, error) {
	query := `
		INSERT INTO cart_headers (id, user_id, cart_total)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, uuid.New(), userID); err != nil {
		return nil, fmt.Errorf("failed to upsert cart header: %w", err)
	}
	return r.FindHeaderByUser(ctx, userID)
}

func (r *cartRepository) DeleteHeader(ctx context.Context, headerID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM cart_headers WHERE id = $1", headerID); err != nil {
		return fmt.Errorf("failed to delete cart header: %w", err)
	}
	return nil
}

func (r *cartRepository) UpdateTotal(ctx context.Context, headerID uuid.UUID, total float64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE cart_headers SET cart_total = $2 WHERE id = $1", headerID, total)
	if err != nil {
		return fmt.Errorf("failed to update cart total: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (r *cartRepository) FindDetail(ctx context.Context, headerID, productID uuid.UUID) (*domain.CartDetail, error) {
	query := `
		SELECT id, cart_header_id, product_id, count, price
		FROM cart_details
		WHERE cart_header_id = $1 AND product_id = $2
	`

	detail := &domain.CartDetail{}
	err := r.db.QueryRowContext(ctx, query, headerID, productID).Scan(
		&detail.ID, &detail.CartHeaderID, &detail.ProductID, &detail.Count, &detail.Price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to find cart detail: %w", err)
	}
	return detail, nil
}

func (r *cartRepository) ListDetails(ctx context.Context, headerID uuid.UUID) ([]*domain.CartDetail, error) {
	query := `
		SELECT id, cart_header_id, product_id, count, price
		FROM cart_details
		WHERE cart_header_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, headerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart details: %w", err)
	}
	defer rows.Close()

	details := []*domain.CartDetail{}
	for rows.Next() {
		detail := &domain.CartDetail{}
		if err := rows.Scan(&detail.ID, &detail.CartHeaderID, &detail.ProductID, &detail.Count, &detail.Price); err != nil {
			return nil, fmt.Errorf("failed to scan cart detail: %w", err)
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart details: %w", err)
	}
	return details, nil
}

func (r *cartRepository) CreateDetail(ctx context.Context, detail *domain.CartDetail) error {
	query := `
		INSERT INTO cart_details (id, cart_header_id, product_id, count, price)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		detail.ID, detail.CartHeaderID, detail.ProductID, detail.Count, detail.Price)
	if err != nil {
		return fmt.Errorf("failed to create cart detail: %w", err)
	}
	return nil
}

func (r *cartRepository) UpdateDetail(ctx context.Context, detail *domain.CartDetail) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE cart_details SET count = $2, price = $3 WHERE id = $1",
		detail.ID, detail.Count, detail.Price)
	if err != nil {
		return fmt.Errorf("failed to update cart detail: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *cartRepository) DeleteDetail(ctx context.Context, headerID, productID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM cart_details WHERE cart_header_id = $1 AND product_id = $2",
		headerID, productID)
	if err != nil {
		return fmt.Errorf("failed to delete cart detail: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *cartRepository) DeleteDetailsByHeader(ctx context.Context, headerID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM cart_details WHERE cart_header_id = $1", headerID); err != nil {
		return fmt.Errorf("failed to clear cart details: %w", err)
	}
	return nil
}

const cartDetailJoinQuery = `
	SELECT d.id, d.cart_header_id, d.product_id, d.count, d.price,
	       p.title, p.author, p.price
	FROM cart_details d
	JOIN products p ON p.id = d.product_id
	WHERE d.cart_header_id = $1
	ORDER BY d.id
`

// loadDetailGraph attaches the detail rows, with a trimmed product view, to
// a header.
func (r *cartRepository) loadDetailGraph(ctx context.Context, header *domain.CartHeader) error {
	rows, err := r.db.QueryContext(ctx, cartDetailJoinQuery, header.ID)
	if err != nil {
		return fmt.Errorf("failed to load cart details: %w", err)
	}
	defer rows.Close()

	header.Details = []*domain.CartDetail{}
	for rows.Next() {
		detail := &domain.CartDetail{Product: &domain.Product{}}
		err := rows.Scan(
			&detail.ID, &detail.CartHeaderID, &detail.ProductID, &detail.Count, &detail.Price,
			&detail.Product.Title, &detail.Product.Author, &detail.Product.Price)
		if err != nil {
			return fmt.Errorf("failed to scan cart detail: %w", err)
		}
		detail.Product.ID = detail.ProductID
		header.Details = append(header.Details, detail)
	}
	return rows.Err()
}

func (r *cartRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.CartHeader, error) {
	header, err := r.FindHeaderByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := r.loadDetailGraph(ctx, header); err != nil {
		return nil, err
	}
	return header, nil
}

func (r *cartRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CartHeader, error) {
	header, err := r.findHeader(ctx, "id = $1", id)
	if err != nil {
		return nil, err
	}
	if err := r.loadDetailGraph(ctx, header); err != nil {
		return nil, err
	}
	return header, nil
}

func (r *cartRepository) List(ctx context.Context) ([]*domain.CartHeader, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, user_id, cart_total FROM cart_headers ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list carts: %w", err)
	}
	defer rows.Close()

	headers := []*domain.CartHeader{}
	for rows.Next() {
		header := &domain.CartHeader{}
		if err := rows.Scan(&header.ID, &header.UserID, &header.CartTotal); err != nil {
			return nil, fmt.Errorf("failed to scan cart header: %w", err)
		}
		headers = append(headers, header)
	}
	return headers, rows.Err()
}
