package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tahaet/book-ecommerce/internal/domain"
	"github.com/tahaet/book-ecommerce/internal/payment"
	"github.com/tahaet/book-ecommerce/internal/repository"
)

// OrderService turns carts into orders and walks them through the status
// graph. Payment happens through the payment.Provider, so the unit tests
// run against a fake while production talks to Stripe checkout.
type OrderService struct {
	orders     repository.OrderRepository
	carts      repository.CartRepository
	tx         repository.TxManager
	provider   payment.Provider
	successURL string
	cancelURL  string
}

func NewOrderService(orders repository.OrderRepository, carts repository.CartRepository, tx repository.TxManager, provider payment.Provider, successURL, cancelURL string) *OrderService {
	return &OrderService{
		orders:     orders,
		carts:      carts,
		tx:         tx,
		provider:   provider,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

type ShippingInput struct {
	Name          string
	PhoneNumber   string
	StreetAddress string
	City          string
	State         string
	PostalCode    string
}

// CreateOrder snapshots the user's cart into an immutable order and
// destroys the cart, all in one transaction. Company accounts skip
// up-front payment: their orders start Approved with deferred billing.
func (s *OrderService) CreateOrder(ctx context.Context, user *domain.User, in ShippingInput) (*domain.OrderHeader, error) {
	now := time.Now()
	order := &domain.OrderHeader{
		ID:             uuid.New(),
		UserID:         user.ID,
		OrderDate:      now,
		PaymentDueDate: now.Add(domain.PaymentDueIn),
		OrderStatus:    domain.OrderStatusPending,
		PaymentStatus:  domain.PaymentStatusPending,
		Name:           in.Name,
		PhoneNumber:    in.PhoneNumber,
		StreetAddress:  in.StreetAddress,
		City:           in.City,
		State:          in.State,
		PostalCode:     in.PostalCode,
	}
	if user.Role == domain.RoleCompany {
		order.OrderStatus = domain.OrderStatusApproved
		order.PaymentStatus = domain.PaymentStatusDelayedPayment
	}

	err := s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		carts := s.carts.WithTx(tx)
		orders := s.orders.WithTx(tx)

		cart, err := carts.GetByUser(ctx, user.ID)
		if err != nil {
			return err
		}

		order.OrderTotal = cart.Total()
		details := make([]*domain.OrderDetail, 0, len(cart.Details))
		for _, item := range cart.Details {
			details = append(details, &domain.OrderDetail{
				ID:            uuid.New(),
				OrderHeaderID: order.ID,
				ProductID:     item.ProductID,
				Count:         item.Count,
				Price:         item.Price,
			})
		}

		if err := orders.CreateHeader(ctx, order); err != nil {
			return err
		}
		if err := orders.CreateDetails(ctx, details); err != nil {
			return err
		}

		// The cart's life ends here; its lines live on as order details.
		if err := carts.DeleteDetailsByHeader(ctx, cart.ID); err != nil {
			return err
		}
		return carts.DeleteHeader(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.orders.FindByID(ctx, order.ID)
}

// GetCheckoutSession opens a payment session for one of the caller's own
// orders and remembers the session id for later validation.
func (s *OrderService) GetCheckoutSession(ctx context.Context, userID, orderID uuid.UUID) (*payment.CheckoutSession, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, order, s.successURL, s.cancelURL)
	if err != nil {
		return nil, fmt.Errorf("creating checkout session: %w", err)
	}
	if err := s.orders.SetCheckoutSession(ctx, order.ID, sess.ID); err != nil {
		return nil, err
	}
	return sess, nil
}

// ValidateCheckoutSession asks the provider whether the stored session
// was paid and, if so, marks the order Approved. For an unpaid session
// the provider's payment URL comes back so the client can retry.
func (s *OrderService) ValidateCheckoutSession(ctx context.Context, orderID uuid.UUID) (*domain.OrderHeader, string, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	if order.SessionID == "" {
		return nil, "", ErrNoCheckoutSession
	}

	sess, err := s.provider.RetrieveCheckoutSession(ctx, order.SessionID)
	if err != nil {
		return nil, "", fmt.Errorf("retrieving checkout session: %w", err)
	}
	if !sess.Paid {
		return order, sess.URL, nil
	}
	if order.PaymentStatus == domain.PaymentStatusPending {
		if err := s.orders.SetPaid(ctx, order.ID, sess.PaymentIntentID, time.Now()); err != nil {
			return nil, "", err
		}
	}
	order, err = s.orders.FindByID(ctx, orderID)
	return order, "", err
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.OrderHeader, error) {
	return s.orders.FindByID(ctx, id)
}

func (s *OrderService) ListOrders(ctx context.Context) ([]*domain.OrderHeader, error) {
	return s.orders.List(ctx)
}

func (s *OrderService) ListMyOrders(ctx context.Context, userID uuid.UUID) ([]*domain.OrderHeader, error) {
	return s.orders.ListByUser(ctx, userID)
}

// StartProcessing moves an approved order into fulfilment.
func (s *OrderService) StartProcessing(ctx context.Context, id uuid.UUID) (*domain.OrderHeader, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(order.OrderStatus, domain.OrderStatusProcessing) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, order.OrderStatus, domain.OrderStatusProcessing)
	}
	if err := s.orders.SetOrderStatus(ctx, id, domain.OrderStatusProcessing); err != nil {
		return nil, err
	}
	return s.orders.FindByID(ctx, id)
}

// ShipOrder records carrier and tracking and stamps the shipping date.
func (s *OrderService) ShipOrder(ctx context.Context, id uuid.UUID, carrier, trackingNumber string) (*domain.OrderHeader, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(order.OrderStatus, domain.OrderStatusShipped) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, order.OrderStatus, domain.OrderStatusShipped)
	}
	if err := s.orders.SetShipped(ctx, id, time.Now(), carrier, trackingNumber); err != nil {
		return nil, err
	}
	return s.orders.FindByID(ctx, id)
}

// CancelOrder cancels a not-yet-shipped order. If money already moved,
// the provider refunds it and the payment status records that.
func (s *OrderService) CancelOrder(ctx context.Context, id uuid.UUID) (*domain.OrderHeader, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(order.OrderStatus, domain.OrderStatusCancelled) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, order.OrderStatus, domain.OrderStatusCancelled)
	}

	paymentStatus := domain.PaymentStatusCancelled
	if order.PaymentStatus == domain.PaymentStatusApproved {
		if err := s.provider.Refund(ctx, order.PaymentIntentID); err != nil {
			return nil, fmt.Errorf("refunding payment: %w", err)
		}
		paymentStatus = domain.PaymentStatusRefunded
	}
	if err := s.orders.SetCancelled(ctx, id, paymentStatus); err != nil {
		return nil, err
	}
	return s.orders.FindByID(ctx, id)
}
