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

// AddToCartRequest leaves count optional; an omitted count means one
// unit, matching the POST /my-cart contract.
type AddToCartRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Count     int    `json:"count" validate:"omitempty,gte=1"`
}

type RemoveFromCartRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
}

type CreateCartRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

// CartHandler serves the caller's own cart plus the admin cart views.
type CartHandler struct {
	carts  *service.CartService
	logger *zap.Logger
}

func NewCartHandler(carts *service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

func (h *CartHandler) RegisterRoutes(r chi.Router, protect func(http.Handler) http.Handler) {
	r.Route("/carts", func(r chi.Router) {
		r.Use(protect)

		r.Get("/my-cart", h.GetMyCart)
		r.Post("/my-cart", h.AddToMyCart)
		r.Patch("/my-cart", h.RemoveFromMyCart)
		r.Delete("/my-cart", h.ClearMyCart)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(h.logger, domain.RoleAdmin, domain.RoleEmployee))
			r.Get("/", h.ListCarts)
			r.Post("/", h.CreateCart)
			r.Get("/{id}", h.GetCart)
			r.Patch("/{id}", h.RecalculateCart)
			r.Delete("/{id}", h.DeleteCart)
		})
	})
}

func (h *CartHandler) GetMyCart(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	cart, err := h.carts.GetMyCart(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) AddToMyCart(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	var req AddToCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}
	productID, _ := uuid.Parse(req.ProductID)
	if req.Count == 0 {
		req.Count = 1
	}

	cart, err := h.carts.AddToMyCart(r.Context(), user.ID, productID, req.Count)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) RemoveFromMyCart(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	var req RemoveFromCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}
	productID, _ := uuid.Parse(req.ProductID)

	cart, err := h.carts.RemoveFromMyCart(r.Context(), user.ID, productID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if cart == nil {
		middleware.RespondWithMessage(w, http.StatusOK, "your cart is now empty")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) ClearMyCart(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	if err := h.carts.ClearMyCart(r.Context(), user.ID); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) ListCarts(w http.ResponseWriter, r *http.Request) {
	carts, err := h.carts.ListCarts(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, carts)
}

func (h *CartHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	var req CreateCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}
	userID, _ := uuid.Parse(req.UserID)

	cart, err := h.carts.CreateCart(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, cart)
}

func (h *CartHandler) RecalculateCart(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid cart id")
		return
	}

	cart, err := h.carts.RecalculateCart(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid cart id")
		return
	}

	cart, err := h.carts.GetCart(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid cart id")
		return
	}

	if err := h.carts.DeleteCart(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
