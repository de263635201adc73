package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tahaet/book-ecommerce/internal/domain"
	"github.com/tahaet/book-ecommerce/internal/middleware"
	"github.com/tahaet/book-ecommerce/internal/service"
)

type CreateOrderRequest struct {
	Name          string `json:"name" validate:"required"`
	PhoneNumber   string `json:"phoneNumber" validate:"required"`
	StreetAddress string `json:"streetAddress" validate:"required"`
	City          string `json:"city" validate:"required"`
	State         string `json:"state" validate:"required"`
	PostalCode    string `json:"postalCode" validate:"required"`
}

type OrderIDRequest struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
}

type ShipOrderRequest struct {
	OrderID        string `json:"orderId" validate:"required,uuid"`
	Carrier        string `json:"carrier" validate:"required"`
	TrackingNumber string `json:"trackingNumber" validate:"required"`
}

// OrderHandler serves checkout and order fulfilment.
type OrderHandler struct {
	orders *service.OrderService
	logger *zap.Logger
}

func NewOrderHandler(orders *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router, protect func(http.Handler) http.Handler) {
	staffOnly := middleware.RequireRole(h.logger, domain.RoleAdmin, domain.RoleEmployee)

	r.Route("/orders", func(r chi.Router) {
		r.Use(protect)

		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/validate-session/{orderId}", h.ValidateCheckoutSession)
		r.Patch("/cancel-order", h.CancelOrder)

		r.Group(func(r chi.Router) {
			r.Use(staffOnly)
			r.Patch("/start-processing", h.StartProcessing)
			r.Patch("/ship-order", h.ShipOrder)
		})

		// Fetching an order by id opens a hosted checkout session for it.
		r.Get("/{orderId}", h.GetCheckoutSession)
	})
}

// isStaff reports whether the user may act on orders they do not own.
func isStaff(user *domain.User) bool {
	return user.Role == domain.RoleAdmin || user.Role == domain.RoleEmployee
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	var req CreateOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), user, service.ShippingInput{
		Name:          req.Name,
		PhoneNumber:   req.PhoneNumber,
		StreetAddress: req.StreetAddress,
		City:          req.City,
		State:         req.State,
		PostalCode:    req.PostalCode,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", user.ID.String()),
		zap.Float64("total", order.OrderTotal),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// ListOrders returns every order for staff and only the caller's own
// orders for everyone else.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	var (
		orders []*domain.OrderHeader
		err    error
	)
	if isStaff(user) {
		orders, err = h.orders.ListOrders(r.Context())
	} else {
		orders, err = h.orders.ListMyOrders(r.Context(), user.ID)
	}
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetCheckoutSession(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	id, err := idParam(r, "orderId")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	sess, err := h.orders.GetCheckoutSession(r.Context(), user.ID, id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, sess)
}

func (h *OrderHandler) ValidateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	id, err := idParam(r, "orderId")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, retryURL, err := h.orders.ValidateCheckoutSession(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if order.UserID != user.ID && !isStaff(user) {
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		return
	}
	if retryURL != "" {
		middleware.RespondWithFailData(w, http.StatusNotFound,
			"you have not paid for this order, please pay for the order first",
			map[string]any{"payment_link": retryURL})
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) StartProcessing(w http.ResponseWriter, r *http.Request) {
	var req OrderIDRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}
	id, _ := uuid.Parse(req.OrderID)

	order, err := h.orders.StartProcessing(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) ShipOrder(w http.ResponseWriter, r *http.Request) {
	var req ShipOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}
	id, _ := uuid.Parse(req.OrderID)

	order, err := h.orders.ShipOrder(r.Context(), id, req.Carrier, req.TrackingNumber)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Order shipped",
		zap.String("order_id", order.ID.String()),
		zap.String("carrier", req.Carrier),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// CancelOrder is open to the order's owner and to staff.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	var req OrderIDRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}
	id, _ := uuid.Parse(req.OrderID)

	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if order.UserID != user.ID && !isStaff(user) {
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		return
	}

	cancelled, err := h.orders.CancelOrder(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Order cancelled",
		zap.String("order_id", cancelled.ID.String()),
		zap.String("payment_status", cancelled.PaymentStatus),
	)
	middleware.RespondWithJSON(w, http.StatusOK, cancelled)
}
