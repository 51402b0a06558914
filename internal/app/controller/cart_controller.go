package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/cart-service/internal/app/service"
	apperrors "github.com/ikkim/cart-service/internal/errors"
	"github.com/ikkim/cart-service/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type UpdateItemRequest struct {
	// Pointer so an explicit 0 (remove) survives binding validation
	Quantity *int `json:"quantity" binding:"required"`
}

type MergeCartsRequest struct {
	AnonymousUserID string `json:"anonymous_user_id" binding:"required"`
}

// GetCart returns the priced cart for the current identity
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	view, err := ctrl.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		log.Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": view,
	})
}

// AddItem adds a product to the cart
// POST /api/v1/cart/items
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add item request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	view, clamped, err := ctrl.cartService.AddItem(c.Request.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		log.Warn("Failed to add item to cart", map[string]interface{}{
			"user_id":    userID,
			"product_id": req.ProductID,
			"quantity":   req.Quantity,
			"error":      err.Error(),
		})
		apperrors.Respond(c, err)
		return
	}

	log.Info("Item added to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": req.ProductID,
		"quantity":   req.Quantity,
		"clamped":    clamped,
	})

	c.JSON(http.StatusCreated, gin.H{
		"cart":    view,
		"clamped": clamped,
	})
}

// UpdateItem overwrites a line's quantity; 0 removes the line
// PUT /api/v1/cart/items/:productId
func (ctrl *CartController) UpdateItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	productID := c.Param("productId")

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update item request", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	view, err := ctrl.cartService.UpdateItem(c.Request.Context(), userID, productID, *req.Quantity)
	if err != nil {
		log.Warn("Failed to update cart item", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"quantity":   *req.Quantity,
			"error":      err.Error(),
		})
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": view,
	})
}

// RemoveItem removes a line from the cart, idempotently
// DELETE /api/v1/cart/items/:productId
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	productID := c.Param("productId")

	view, err := ctrl.cartService.RemoveItem(c.Request.Context(), userID, productID)
	if err != nil {
		log.Error("Failed to remove cart item", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": view,
	})
}

// ClearCart deletes the whole cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.cartService.ClearCart(c.Request.Context(), userID); err != nil {
		log.Error("Failed to clear cart", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

// MergeCarts folds an anonymous cart into the authenticated user's cart.
// Requires authentication; called on login.
// POST /api/v1/cart/merge
func (ctrl *CartController) MergeCarts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists || !middleware.IsAuthenticated(c) {
		apperrors.Unauthorized(c, "Login is required to merge carts")
		return
	}

	var req MergeCartsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid merge request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationRequired, "anonymous_user_id is required")
		return
	}

	view, err := ctrl.cartService.MergeCarts(c.Request.Context(), req.AnonymousUserID, userID)
	if err != nil {
		log.Error("Failed to merge carts", err, map[string]interface{}{
			"user_id":           userID,
			"anonymous_user_id": req.AnonymousUserID,
		})
		apperrors.Respond(c, err)
		return
	}

	log.Info("Carts merged", map[string]interface{}{
		"user_id":           userID,
		"anonymous_user_id": req.AnonymousUserID,
	})

	c.JSON(http.StatusOK, gin.H{
		"cart": view,
	})
}
