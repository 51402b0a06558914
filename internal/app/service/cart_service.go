package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/cart-service/config"
	"github.com/ikkim/cart-service/internal/app/catalog"
	"github.com/ikkim/cart-service/internal/app/model"
	"github.com/ikkim/cart-service/internal/app/pricing"
	"github.com/ikkim/cart-service/internal/app/store"
	"github.com/ikkim/cart-service/pkg/logger"
)

var (
	ErrInvalidQuantity       = errors.New("quantity out of range")
	ErrProductNotFound       = errors.New("product not found in catalog")
	ErrItemNotFound          = errors.New("item not in cart")
	ErrQuantityLimitExceeded = errors.New("quantity limit exceeded")
	ErrStorageUnavailable    = errors.New("cart storage unavailable")
	ErrCatalogUnavailable    = errors.New("product catalog unavailable")
)

// CartService owns every cart-level invariant: quantity bounds, clamping,
// TTL refresh on mutation, and the merge-on-login flow. Prices are never
// stored; each returned view is a fresh join against the catalog.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*model.CartView, error)
	// AddItem returns the new view plus a clamped flag: adding to an
	// existing line caps at the quantity limit and reports the clamp
	// instead of rejecting already-accepted state.
	AddItem(ctx context.Context, userID, productID string, quantity int) (*model.CartView, bool, error)
	UpdateItem(ctx context.Context, userID, productID string, quantity int) (*model.CartView, error)
	RemoveItem(ctx context.Context, userID, productID string) (*model.CartView, error)
	ClearCart(ctx context.Context, userID string) error
	// MergeCarts folds the anonymous user's cart into the authenticated
	// user's cart and deletes the anonymous key. All-or-nothing: on error
	// the merge target has not been written.
	MergeCarts(ctx context.Context, anonymousUserID, authenticatedUserID string) (*model.CartView, error)
}

type cartService struct {
	cartStore     store.CartStore
	catalogClient catalog.Client
	defaultTTL    time.Duration
	maxQuantity   int
}

func NewCartService(cartStore store.CartStore, catalogClient catalog.Client, cfg config.CartConfig) CartService {
	return &cartService{
		cartStore:     cartStore,
		catalogClient: catalogClient,
		defaultTTL:    cfg.DefaultTTL,
		maxQuantity:   cfg.MaxQuantity,
	}
}

// loadCart normalizes "no stored cart" to an explicit empty cart so no
// caller ever branches on nil. found reports whether the store had a value.
func (s *cartService) loadCart(ctx context.Context, userID string) (cart *model.RawCart, found bool, err error) {
	cart, err = s.cartStore.Get(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if cart == nil {
		return model.NewRawCart(userID), false, nil
	}
	return cart, true, nil
}

func (s *cartService) saveCart(ctx context.Context, cart *model.RawCart) error {
	cart.UpdatedAt = time.Now().UTC()
	if err := s.cartStore.Save(ctx, cart, s.defaultTTL); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// buildView prices the raw cart against a fresh catalog snapshot. A full
// catalog outage on this read path degrades to an all-lines-unavailable
// view instead of failing the whole read.
func (s *cartService) buildView(ctx context.Context, cart *model.RawCart) (*model.CartView, error) {
	snapshot := map[string]catalog.ProductInfo{}
	if !cart.IsEmpty() {
		var err error
		snapshot, err = s.catalogClient.GetMany(ctx, cart.ProductIDs())
		if err != nil {
			logger.Warn("Catalog unavailable, returning cart with all lines unavailable", map[string]interface{}{
				"user_id": cart.UserID,
				"items":   len(cart.Items),
				"error":   err.Error(),
			})
			snapshot = map[string]catalog.ProductInfo{}
		}
	}

	view := pricing.Price(cart, snapshot)

	ttl, ok, err := s.cartStore.RemainingTTL(ctx, cart.UserID)
	if err != nil {
		logger.Debug("Could not read cart TTL", map[string]interface{}{
			"user_id": cart.UserID,
			"error":   err.Error(),
		})
	} else if ok {
		view.ExpiresInSeconds = int64(ttl.Seconds())
	}
	return view, nil
}

func (s *cartService) GetCart(ctx context.Context, userID string) (*model.CartView, error) {
	logger.Debug("Fetching cart", map[string]interface{}{
		"user_id": userID,
	})

	// Absent cart is a valid empty state, not an error
	cart, _, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, cart)
}

func (s *cartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*model.CartView, bool, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity < 1 || quantity > s.maxQuantity {
		return nil, false, fmt.Errorf("%w: %d not in [1,%d]", ErrInvalidQuantity, quantity, s.maxQuantity)
	}

	// The product must have a catalog record at all; being out of stock is
	// fine, the view will flag it.
	info, err := s.catalogClient.GetOne(ctx, productID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if info == nil {
		logger.Warn("Cannot add to cart: product not in catalog", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, false, ErrProductNotFound
	}

	cart, _, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	clamped := false
	if existing, ok := cart.Items[productID]; ok {
		newQuantity := existing.Quantity + quantity
		if newQuantity > s.maxQuantity {
			// Cap, don't block: the cart already accepted this line
			newQuantity = s.maxQuantity
			clamped = true
			logger.Warn("Cart line clamped to quantity limit", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
				"requested":  existing.Quantity + quantity,
				"clamped_to": s.maxQuantity,
			})
		}
		existing.Quantity = newQuantity
		existing.UpdatedAt = now
		cart.Items[productID] = existing
	} else {
		cart.Items[productID] = model.RawItem{
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   now,
			UpdatedAt: now,
		}
	}

	if err := s.saveCart(ctx, cart); err != nil {
		return nil, false, err
	}

	view, err := s.buildView(ctx, cart)
	if err != nil {
		return nil, false, err
	}
	return view, clamped, nil
}

func (s *cartService) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*model.CartView, error) {
	logger.Info("Updating cart item", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity < 0 || quantity > s.maxQuantity {
		return nil, fmt.Errorf("%w: %d not in [0,%d]", ErrInvalidQuantity, quantity, s.maxQuantity)
	}

	if quantity == 0 {
		// Update to zero is removal
		return s.RemoveItem(ctx, userID, productID)
	}

	// Confirm the catalog is reachable before accepting the write;
	// availability cannot be confirmed during an outage.
	if _, err := s.catalogClient.GetOne(ctx, productID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	cart, found, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, ok := cart.Items[productID]
	if !found || !ok {
		logger.Warn("Cart item not found for update", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, ErrItemNotFound
	}

	item.Quantity = quantity
	item.UpdatedAt = time.Now().UTC()
	cart.Items[productID] = item

	if err := s.saveCart(ctx, cart); err != nil {
		return nil, err
	}
	return s.buildView(ctx, cart)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID string) (*model.CartView, error) {
	logger.Info("Removing cart item", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	cart, found, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		// Nothing stored; removal is idempotent
		return s.buildView(ctx, cart)
	}

	delete(cart.Items, productID)

	if err := s.saveCart(ctx, cart); err != nil {
		return nil, err
	}
	return s.buildView(ctx, cart)
}

func (s *cartService) ClearCart(ctx context.Context, userID string) error {
	logger.Info("Clearing cart", map[string]interface{}{
		"user_id": userID,
	})

	if err := s.cartStore.Delete(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *cartService) MergeCarts(ctx context.Context, anonymousUserID, authenticatedUserID string) (*model.CartView, error) {
	logger.Info("Merging carts", map[string]interface{}{
		"anonymous_user_id":     anonymousUserID,
		"authenticated_user_id": authenticatedUserID,
	})

	anonCart, anonFound, err := s.loadCart(ctx, anonymousUserID)
	if err != nil {
		return nil, err
	}
	if !anonFound || anonCart.IsEmpty() {
		// Nothing to merge; a missing anonymous cart is a successful no-op
		authCart, _, err := s.loadCart(ctx, authenticatedUserID)
		if err != nil {
			return nil, err
		}
		return s.buildView(ctx, authCart)
	}

	authCart, _, err := s.loadCart(ctx, authenticatedUserID)
	if err != nil {
		return nil, err
	}

	merged := mergeRawCarts(authCart, anonCart, time.Now().UTC(), s.maxQuantity)

	// Read-merge-write with no cross-key transaction: a concurrent write to
	// the authenticated cart between our read and this save loses
	// (last-write-wins). If the save fails, neither key was touched.
	if err := s.saveCart(ctx, merged); err != nil {
		return nil, err
	}
	if err := s.cartStore.Delete(ctx, anonymousUserID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	logger.Info("Carts merged", map[string]interface{}{
		"authenticated_user_id": authenticatedUserID,
		"items":                 len(merged.Items),
	})
	return s.buildView(ctx, merged)
}
