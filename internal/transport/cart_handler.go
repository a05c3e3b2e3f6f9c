package transport

import (
	"errors"
	"net/http"
	"time"

	"utkal-mart/internal/domain"
	"utkal-mart/internal/middleware"
	"utkal-mart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddToCartRequest is the body of POST /api/buyer/cart. Quantity defaults to 1.
type AddToCartRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  *int   `json:"quantity" validate:"omitempty,min=1"`
}

// UpdateCartItemRequest is the body of PUT /api/buyer/cart/{id}
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=1"`
}

// CartResponse is the buyer's cart with derived totals
type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	Total     string             `json:"total"`
	ItemCount int                `json:"itemCount"`
}

// CartItemResponse is one cart line joined with its product
type CartItemResponse struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     string           `json:"price"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Product   *ProductResponse `json:"Product,omitempty"`
}

// ProductResponse is the product summary embedded in a cart line
type ProductResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Subtitle    string                `json:"subtitle,omitempty"`
	Description string                `json:"description,omitempty"`
	Price       string                `json:"price"`
	Rating      float64               `json:"rating"`
	Image       string                `json:"image"`
	Category    string                `json:"category"`
	Stock       int                   `json:"stock"`
	SellerName  string                `json:"sellerName"`
	Status      string                `json:"status"`
	Images      []domain.ProductImage `json:"images"`
}

// CartItemMessage wraps a single line with a user-facing message
type CartItemMessage struct {
	Message string           `json:"message"`
	Item    CartItemResponse `json:"item"`
}

// MessageResponse carries only a user-facing message
type MessageResponse struct {
	Message string `json:"message"`
}

func newCartResponse(cart *domain.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, newCartItemResponse(item))
	}

	return CartResponse{
		Items:     items,
		Total:     cart.TotalString(),
		ItemCount: cart.ItemCount,
	}
}

func newCartItemResponse(item *domain.CartItem) CartItemResponse {
	resp := CartItemResponse{
		ID:        item.ID.String(),
		UserID:    item.UserID.String(),
		ProductID: item.ProductID.String(),
		Quantity:  item.Quantity,
		Price:     item.Price.StringFixed(2),
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}

	if p := item.Product; p != nil {
		images := p.Images
		if images == nil {
			images = []domain.ProductImage{}
		}
		resp.Product = &ProductResponse{
			ID:          p.ID.String(),
			Title:       p.Title,
			Subtitle:    p.Subtitle,
			Description: p.Description,
			Price:       p.Price.StringFixed(2),
			Rating:      p.Rating,
			Image:       p.Image,
			Category:    p.Category,
			Stock:       p.Stock,
			SellerName:  p.SellerName,
			Status:      string(p.Status),
			Images:      images,
		}
	}

	return resp
}

// CartHandler serves the buyer cart endpoints
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes mounts the cart under /api/buyer/cart behind guards,
// applied in order
func (h *CartHandler) RegisterRoutes(r chi.Router, guards ...func(http.Handler) http.Handler) {
	r.Route("/api/buyer/cart", func(r chi.Router) {
		r.Use(guards...)

		r.Get("/", h.GetCart)
		r.Post("/", h.AddToCart)
		r.Delete("/", h.ClearCart)
		r.Post("/refresh-prices", h.RefreshPrices)
		r.Put("/{id}", h.UpdateCartItem)
		r.Delete("/{id}", h.RemoveFromCart)
	})
}

// GetCart returns the buyer's cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	cart, err := h.cartService.GetCart(r.Context(), userID)
	if err != nil {
		h.respondWithCartError(w, err, "Failed to get cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newCartResponse(cart))
}

// AddToCart adds a product or merges into its existing line
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req AddToCartRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	item, created, err := h.cartService.AddToCart(r.Context(), userID, uuid.MustParse(req.ProductID), quantity)
	if err != nil {
		h.respondWithCartError(w, err, "Failed to add item to cart")
		return
	}

	if created {
		middleware.RespondWithJSON(w, http.StatusCreated, CartItemMessage{
			Message: "Item added to cart",
			Item:    newCartItemResponse(item),
		})
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CartItemMessage{
		Message: "Cart updated successfully",
		Item:    newCartItemResponse(item),
	})
}

// UpdateCartItem sets an absolute quantity on a line
func (h *CartHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}

	item, err := h.cartService.UpdateCartItem(r.Context(), userID, itemID, *req.Quantity)
	if err != nil {
		h.respondWithCartError(w, err, "Failed to update cart item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CartItemMessage{
		Message: "Cart item updated",
		Item:    newCartItemResponse(item),
	})
}

// RemoveFromCart deletes a single line
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}

	if err := h.cartService.RemoveFromCart(r.Context(), userID, itemID); err != nil {
		h.respondWithCartError(w, err, "Failed to remove item from cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "Item removed from cart"})
}

// ClearCart deletes every line of the buyer
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.cartService.ClearCart(r.Context(), userID); err != nil {
		h.respondWithCartError(w, err, "Failed to clear cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "Cart cleared successfully"})
}

// RefreshPrices re-snapshots line prices and returns the updated cart
func (h *CartHandler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	cart, err := h.cartService.RefreshPrices(r.Context(), userID)
	if err != nil {
		h.respondWithCartError(w, err, "Failed to refresh cart prices")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Error("User ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
	}
	return userID, ok
}

func (h *CartHandler) itemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "Cart item not found")
		return uuid.Nil, false
	}
	return itemID, true
}

// respondWithCartError maps service errors to status and error kind.
// Anything unrecognised is logged and reported with fallback.
func (h *CartHandler) respondWithCartError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		middleware.RespondWithErrorCode(w, http.StatusBadRequest, middleware.CodeInvalidArgument, "Quantity must be at least 1")
	case errors.Is(err, service.ErrProductNotFound):
		middleware.RespondWithErrorCode(w, http.StatusNotFound, middleware.CodeNotFound, "Product not found or unavailable")
	case errors.Is(err, service.ErrProductUnavailable):
		middleware.RespondWithErrorCode(w, http.StatusBadRequest, middleware.CodeProductUnavailable, "Product is no longer available")
	case errors.Is(err, service.ErrInsufficientStock):
		middleware.RespondWithErrorCode(w, http.StatusBadRequest, middleware.CodeInsufficientStock, "Not enough stock available")
	case errors.Is(err, service.ErrExceedsStock):
		middleware.RespondWithErrorCode(w, http.StatusBadRequest, middleware.CodeInsufficientStock, "Cannot add more than available stock")
	case errors.Is(err, service.ErrCartItemNotFound):
		middleware.RespondWithErrorCode(w, http.StatusNotFound, middleware.CodeNotFound, "Cart item not found")
	case errors.Is(err, service.ErrCartConflict):
		middleware.RespondWithErrorCode(w, http.StatusConflict, middleware.CodeConflict, "Cart changed while updating, please try again")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
