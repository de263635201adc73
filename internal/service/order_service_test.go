package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/tahaet/book-ecommerce/internal/domain"
	"github.com/tahaet/book-ecommerce/internal/repository"
)

func newTestOrderService(t *testing.T) (*OrderService, *CartService, *mockOrderRepository, *mockPaymentProvider, *mockProductRepository) {
	t.Helper()
	products := newMockProductRepository()
	carts := newMockCartRepository()
	orders := newMockOrderRepository()
	provider := newMockPaymentProvider()
	cartSvc := NewCartService(carts, products, mockTxManager{})
	orderSvc := NewOrderService(orders, carts, mockTxManager{}, provider,
		"http://localhost/success", "http://localhost/cancel")
	return orderSvc, cartSvc, orders, provider, products
}

func shipping() ShippingInput {
	return ShippingInput{
		Name:          "Reader",
		PhoneNumber:   "555-0100",
		StreetAddress: "1 Book St",
		City:          "Booktown",
		State:         "BK",
		PostalCode:    "12345",
	}
}

func fillCart(t *testing.T, cartSvc *CartService, products *mockProductRepository, userID uuid.UUID) float64 {
	t.Helper()
	first := seedProduct(t, products, 10)
	second := seedProduct(t, products, 25)
	ctx := context.Background()
	if _, err := cartSvc.AddToMyCart(ctx, userID, first.ID, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := cartSvc.AddToMyCart(ctx, userID, second.ID, 1); err != nil {
		t.Fatal(err)
	}
	return 45
}

func TestCreateOrderSnapshotsAndDestroysCart(t *testing.T) {
	orderSvc, cartSvc, _, _, products := newTestOrderService(t)
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Role: domain.RoleUser}
	wantTotal := fillCart(t, cartSvc, products, user.ID)

	order, err := orderSvc.CreateOrder(ctx, user, shipping())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.OrderTotal != wantTotal {
		t.Fatalf("expected total %v, got %v", wantTotal, order.OrderTotal)
	}
	if len(order.Details) != 2 {
		t.Fatalf("expected 2 order lines, got %d", len(order.Details))
	}
	if order.OrderStatus != domain.OrderStatusPending || order.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("expected Pending/Pending, got %s/%s", order.OrderStatus, order.PaymentStatus)
	}

	// The cart does not survive checkout.
	if _, err := cartSvc.GetMyCart(ctx, user.ID); !errors.Is(err, repository.ErrCartNotFound) {
		t.Fatal("cart should be destroyed by order creation")
	}
}

func TestCreateOrderWithEmptyCartFails(t *testing.T) {
	orderSvc, _, _, _, _ := newTestOrderService(t)
	user := &domain.User{ID: uuid.New(), Role: domain.RoleUser}

	if _, err := orderSvc.CreateOrder(context.Background(), user, shipping()); !errors.Is(err, repository.ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestCompanyOrdersStartApprovedWithDeferredBilling(t *testing.T) {
	orderSvc, cartSvc, _, _, products := newTestOrderService(t)
	user := &domain.User{ID: uuid.New(), Role: domain.RoleCompany}
	fillCart(t, cartSvc, products, user.ID)

	order, err := orderSvc.CreateOrder(context.Background(), user, shipping())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.OrderStatus != domain.OrderStatusApproved {
		t.Fatalf("company orders start Approved, got %s", order.OrderStatus)
	}
	if order.PaymentStatus != domain.PaymentStatusDelayedPayment {
		t.Fatalf("company orders bill later, got %s", order.PaymentStatus)
	}
	if !order.PaymentDueDate.After(order.OrderDate) {
		t.Fatal("payment due date must fall after the order date")
	}
}

func TestCheckoutSessionLifecycle(t *testing.T) {
	orderSvc, cartSvc, _, provider, products := newTestOrderService(t)
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Role: domain.RoleUser}
	fillCart(t, cartSvc, products, user.ID)

	order, err := orderSvc.CreateOrder(ctx, user, shipping())
	if err != nil {
		t.Fatal(err)
	}

	// Validating before a session exists is a client error.
	if _, _, err := orderSvc.ValidateCheckoutSession(ctx, order.ID); !errors.Is(err, ErrNoCheckoutSession) {
		t.Fatalf("expected ErrNoCheckoutSession, got %v", err)
	}

	// Another user cannot open a session on this order.
	if _, err := orderSvc.GetCheckoutSession(ctx, uuid.New(), order.ID); !errors.Is(err, repository.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for foreign order, got %v", err)
	}

	sess, err := orderSvc.GetCheckoutSession(ctx, user.ID, order.ID)
	if err != nil {
		t.Fatalf("GetCheckoutSession: %v", err)
	}
	if sess.URL == "" {
		t.Fatal("checkout session needs a redirect URL")
	}

	// Unpaid session leaves the order Pending and hands back the
	// payment link so the client can retry.
	unpaid, retryURL, err := orderSvc.ValidateCheckoutSession(ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if unpaid.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("unpaid session must not approve the order, got %s", unpaid.PaymentStatus)
	}
	if retryURL != sess.URL {
		t.Fatalf("expected retry URL %q, got %q", sess.URL, retryURL)
	}

	// Once the provider reports payment, validation approves.
	provider.paid = true
	paid, retryURL, err := orderSvc.ValidateCheckoutSession(ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if retryURL != "" {
		t.Fatalf("paid session must not carry a retry URL, got %q", retryURL)
	}
	if paid.OrderStatus != domain.OrderStatusApproved || paid.PaymentStatus != domain.PaymentStatusApproved {
		t.Fatalf("expected Approved/Approved, got %s/%s", paid.OrderStatus, paid.PaymentStatus)
	}
	if paid.PaymentDate == nil {
		t.Fatal("payment date should be stamped")
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	orderSvc, cartSvc, orders, provider, products := newTestOrderService(t)
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Role: domain.RoleUser}
	fillCart(t, cartSvc, products, user.ID)

	order, err := orderSvc.CreateOrder(ctx, user, shipping())
	if err != nil {
		t.Fatal(err)
	}

	// Pending orders cannot jump straight to Processing or Shipped.
	if _, err := orderSvc.StartProcessing(ctx, order.ID); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
	if _, err := orderSvc.ShipOrder(ctx, order.ID, "UPS", "1Z999"); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}

	// Approve via payment, then walk the happy path.
	if err := orders.SetPaid(ctx, order.ID, "pi_test", order.OrderDate); err != nil {
		t.Fatal(err)
	}
	if _, err := orderSvc.StartProcessing(ctx, order.ID); err != nil {
		t.Fatalf("StartProcessing: %v", err)
	}
	shipped, err := orderSvc.ShipOrder(ctx, order.ID, "UPS", "1Z999")
	if err != nil {
		t.Fatalf("ShipOrder: %v", err)
	}
	if shipped.Carrier != "UPS" || shipped.TrackingNumber != "1Z999" || shipped.ShippingDate == nil {
		t.Fatalf("shipping details not recorded: %+v", shipped)
	}

	// Shipped orders cannot be cancelled.
	if _, err := orderSvc.CancelOrder(ctx, order.ID); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition after shipping, got %v", err)
	}
	if len(provider.refunded) != 0 {
		t.Fatal("no refund should happen on a rejected cancel")
	}
}

func TestCancelOrderRefundsPaidOrders(t *testing.T) {
	orderSvc, cartSvc, _, provider, products := newTestOrderService(t)
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Role: domain.RoleUser}
	fillCart(t, cartSvc, products, user.ID)

	order, err := orderSvc.CreateOrder(ctx, user, shipping())
	if err != nil {
		t.Fatal(err)
	}

	// Unpaid cancel: no refund, payment marked Cancelled.
	cancelled, err := orderSvc.CancelOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if cancelled.OrderStatus != domain.OrderStatusCancelled || cancelled.PaymentStatus != domain.PaymentStatusCancelled {
		t.Fatalf("expected Cancelled/Cancelled, got %s/%s", cancelled.OrderStatus, cancelled.PaymentStatus)
	}
	if len(provider.refunded) != 0 {
		t.Fatal("unpaid orders must not be refunded")
	}

	// Paid cancel: refund issued, payment marked Refunded.
	fillCart(t, cartSvc, products, user.ID)
	paidOrder, err := orderSvc.CreateOrder(ctx, user, shipping())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := orderSvc.GetCheckoutSession(ctx, user.ID, paidOrder.ID); err != nil {
		t.Fatal(err)
	}
	provider.paid = true
	if _, _, err := orderSvc.ValidateCheckoutSession(ctx, paidOrder.ID); err != nil {
		t.Fatal(err)
	}

	refunded, err := orderSvc.CancelOrder(ctx, paidOrder.ID)
	if err != nil {
		t.Fatalf("CancelOrder paid: %v", err)
	}
	if refunded.PaymentStatus != domain.PaymentStatusRefunded {
		t.Fatalf("expected Refunded, got %s", refunded.PaymentStatus)
	}
	if len(provider.refunded) != 1 {
		t.Fatalf("expected exactly one refund, got %d", len(provider.refunded))
	}
}
