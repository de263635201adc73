package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tahaet/book-ecommerce/internal/domain"

	"github.com/google/uuid"
)

const orderColumns = `id, user_id, order_date, shipping_date, payment_date, payment_due_date,
	order_total, order_status, payment_status, tracking_number, carrier,
	session_id, payment_intent_id, phone_number, street_address, city,
	state, postal_code, name`

// OrderRepository is the data access boundary for orders. Order rows are
// never deleted; all mutations are status transitions or payment bookkeeping.
type OrderRepository interface {
	WithTx(tx *sql.Tx) OrderRepository

	CreateHeader(ctx context.Context, order *domain.OrderHeader) error
	CreateDetails(ctx context.Context, details []*domain.OrderDetail) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.OrderHeader, error)
	List(ctx context.Context) ([]*domain.OrderHeader, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.OrderHeader, error)

	SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error
	SetPaid(ctx context.Context, id uuid.UUID, paymentIntentID string, paidAt time.Time) error
	SetOrderStatus(ctx context.Context, id uuid.UUID, status string) error
	SetShipped(ctx context.Context, id uuid.UUID, shippedAt time.Time, carrier, trackingNumber string) error
	SetCancelled(ctx context.Context, id uuid.UUID, paymentStatus string) error
}

type orderRepository struct {
	db DBTX
}

func NewOrderRepository(db DBTX) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithTx(tx *sql.Tx) OrderRepository {
	return &orderRepository{db: tx}
}

func scanOrder(s scanner) (*domain.OrderHeader, error) {
	o := &domain.OrderHeader{}
	err := s.Scan(
		&o.ID, &o.UserID, &o.OrderDate, &o.ShippingDate, &o.PaymentDate,
		&o.PaymentDueDate, &o.OrderTotal, &o.OrderStatus, &o.PaymentStatus,
		&o.TrackingNumber, &o.Carrier, &o.SessionID, &o.PaymentIntentID,
		&o.PhoneNumber, &o.StreetAddress, &o.City, &o.State, &o.PostalCode,
		&o.Name,
	)
	return o, err
}

func (r *orderRepository) CreateHeader(ctx context.Context, order *domain.OrderHeader) error {
	query := fmt.Sprintf(`
		INSERT INTO order_headers (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`, orderColumns)

	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.UserID, order.OrderDate, order.ShippingDate,
		order.PaymentDate, order.PaymentDueDate, order.OrderTotal,
		order.OrderStatus, order.PaymentStatus, order.TrackingNumber,
		order.Carrier, order.SessionID, order.PaymentIntentID,
		order.PhoneNumber, order.StreetAddress, order.City, order.State,
		order.PostalCode, order.Name)
	if err != nil {
		return fmt.Errorf("failed to create order header: %w", err)
	}
	return nil
}

func (r *orderRepository) CreateDetails(ctx context.Context, details []*domain.OrderDetail) error {
	query := `
		INSERT INTO order_details (id, order_header_id, product_id, count, price)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, detail := range details {
		_, err := r.db.ExecContext(ctx, query,
			detail.ID, detail.OrderHeaderID, detail.ProductID, detail.Count, detail.Price)
		if err != nil {
			return fmt.Errorf("failed to create order detail: %w", err)
		}
	}
	return nil
}

const orderDetailJoinQuery = `
	SELECT d.id, d.order_header_id, d.product_id, d.count, d.price,
	       p.title, p.author, p.price
	FROM order_details d
	JOIN products p ON p.id = d.product_id
	WHERE d.order_header_id = $1
	ORDER BY d.id
`

func (r *orderRepository) loadDetails(ctx context.Context, order *domain.OrderHeader) error {
	rows, err := r.db.QueryContext(ctx, orderDetailJoinQuery, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order details: %w", err)
	}
	defer rows.Close()

	order.Details = []*domain.OrderDetail{}
	for rows.Next() {
		detail := &domain.OrderDetail{Product: &domain.Product{}}
		err := rows.Scan(
			&detail.ID, &detail.OrderHeaderID, &detail.ProductID, &detail.Count, &detail.Price,
			&detail.Product.Title, &detail.Product.Author, &detail.Product.Price)
		if err != nil {
			return fmt.Errorf("failed to scan order detail: %w", err)
		}
		detail.Product.ID = detail.ProductID
		order.Details = append(order.Details, detail)
	}
	return rows.Err()
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.OrderHeader, error) {
	query := fmt.Sprintf("SELECT %s FROM order_headers WHERE id = $1", orderColumns)

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by id: %w", err)
	}
	if err := r.loadDetails(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) list(ctx context.Context, where string, args ...any) ([]*domain.OrderHeader, error) {
	query := fmt.Sprintf("SELECT %s FROM order_headers %s ORDER BY order_date DESC", orderColumns, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.OrderHeader{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	for _, order := range orders {
		if err := r.loadDetails(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *orderRepository) List(ctx context.Context) ([]*domain.OrderHeader, error) {
	return r.list(ctx, "")
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.OrderHeader, error) {
	return r.list(ctx, "WHERE user_id = $1", userID)
}

func (r *orderRepository) update(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	return r.update(ctx,
		"UPDATE order_headers SET session_id = $2 WHERE id = $1", id, sessionID)
}

func (r *orderRepository) SetPaid(ctx context.Context, id uuid.UUID, paymentIntentID string, paidAt time.Time) error {
	return r.update(ctx, `
		UPDATE order_headers
		SET payment_intent_id = $2, payment_date = $3, order_status = $4, payment_status = $5
		WHERE id = $1`,
		id, paymentIntentID, paidAt, domain.OrderStatusApproved, domain.PaymentStatusApproved)
}

func (r *orderRepository) SetOrderStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.update(ctx,
		"UPDATE order_headers SET order_status = $2 WHERE id = $1", id, status)
}

func (r *orderRepository) SetShipped(ctx context.Context, id uuid.UUID, shippedAt time.Time, carrier, trackingNumber string) error {
	return r.update(ctx, `
		UPDATE order_headers
		SET order_status = $2, shipping_date = $3, carrier = $4, tracking_number = $5
		WHERE id = $1`,
		id, domain.OrderStatusShipped, shippedAt, carrier, trackingNumber)
}

func (r *orderRepository) SetCancelled(ctx context.Context, id uuid.UUID, paymentStatus string) error {
	return r.update(ctx, `
		UPDATE order_headers
		SET order_status = $2, payment_status = $3
		WHERE id = $1`,
		id, domain.OrderStatusCancelled, paymentStatus)
}
