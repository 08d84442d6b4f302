package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	service "github.com/aaravmahajanofficial/storefront-checkout/internal/services"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CartHandler struct {
	cartService service.CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validator:   validator.New(),
	}
}

func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		principal, _, ok := requestIdentity(w, r)
		if !ok {
			return
		}

		cart, err := h.cartService.GetOrCreateCart(r.Context(), principal)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.NewCartResponse(cart))

	}
}

func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		principal, _, ok := requestIdentity(w, r)
		if !ok {
			return
		}

		var req models.AddLineRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		quantity := 1
		if req.Quantity != nil {
			quantity = *req.Quantity
		}

		line, err := h.cartService.AddLine(r.Context(), principal, req.ProductID, quantity, req.Replace)
		if err != nil {
			response.Error(w, err)
			return
		}

		if line == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		middleware.LoggerFromContext(r.Context()).Info("Item added to cart",
			slog.Int64("product_id", line.ProductID),
			slog.Int("quantity", line.Quantity),
		)
		response.Success(w, http.StatusOK, line)

	}
}

func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		principal, _, ok := requestIdentity(w, r)
		if !ok {
			return
		}

		productID, ok := pathID(w, r, "productId")
		if !ok {
			return
		}

		var req models.UpdateLineRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		line, err := h.cartService.UpdateQuantity(r.Context(), principal, productID, req.Quantity)
		if err != nil {
			response.Error(w, err)
			return
		}

		if line == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		response.Success(w, http.StatusOK, line)

	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		principal, _, ok := requestIdentity(w, r)
		if !ok {
			return
		}

		productID, ok := pathID(w, r, "productId")
		if !ok {
			return
		}

		if err := h.cartService.RemoveLine(r.Context(), principal, productID); err != nil {
			response.Error(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)

	}
}
