package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ikkim/cart-service/config"
	"github.com/ikkim/cart-service/internal/app/catalog"
	"github.com/ikkim/cart-service/internal/app/model"
	"github.com/ikkim/cart-service/internal/app/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCatalog is an in-memory catalog client for tests. Setting err makes
// every lookup fail as a transport error.
type stubCatalog struct {
	products map[string]catalog.ProductInfo
	err      error
}

func (s *stubCatalog) GetOne(ctx context.Context, productID string) (*catalog.ProductInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	info, ok := s.products[productID]
	if !ok {
		return nil, nil
	}
	return &info, nil
}

func (s *stubCatalog) GetMany(ctx context.Context, productIDs []string) (map[string]catalog.ProductInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := make(map[string]catalog.ProductInfo)
	for _, id := range productIDs {
		if info, ok := s.products[id]; ok {
			result[id] = info
		}
	}
	return result, nil
}

// failingStore errors on every operation, as an unreachable Redis would
type failingStore struct{}

var errStoreDown = errors.New("connection refused")

func (failingStore) Get(ctx context.Context, userID string) (*model.RawCart, error) {
	return nil, errStoreDown
}
func (failingStore) Save(ctx context.Context, cart *model.RawCart, ttl time.Duration) error {
	return errStoreDown
}
func (failingStore) Delete(ctx context.Context, userID string) error { return errStoreDown }
func (failingStore) Exists(ctx context.Context, userID string) (bool, error) {
	return false, errStoreDown
}
func (failingStore) RemainingTTL(ctx context.Context, userID string) (time.Duration, bool, error) {
	return 0, false, errStoreDown
}
func (failingStore) ExtendTTL(ctx context.Context, userID string, ttl time.Duration) error {
	return errStoreDown
}

const testTTL = 7 * 24 * time.Hour

func testCartConfig() config.CartConfig {
	return config.CartConfig{DefaultTTL: testTTL, MaxQuantity: 100}
}

func setupCartServiceTest(t *testing.T) (CartService, store.CartStore, *stubCatalog, context.Context) {
	t.Helper()
	compareAt := 100.0
	catalogStub := &stubCatalog{products: map[string]catalog.ProductInfo{
		"sku-1":     {ProductID: "sku-1", Price: 80, CompareAtPrice: &compareAt, StockQuantity: 50, IsAvailable: true},
		"sku-2":     {ProductID: "sku-2", Price: 25, StockQuantity: 10, IsAvailable: true},
		"sku-empty": {ProductID: "sku-empty", Price: 10, StockQuantity: 0, IsAvailable: true},
	}}
	cartStore := store.NewMemoryCartStore(testTTL)
	svc := NewCartService(cartStore, catalogStub, testCartConfig())
	return svc, cartStore, catalogStub, context.Background()
}

// requireQuantityBounds asserts the persisted-cart invariant: every stored
// line has quantity in [1, 100].
func requireQuantityBounds(t *testing.T, cartStore store.CartStore, ctx context.Context, userID string) {
	t.Helper()
	cart, err := cartStore.Get(ctx, userID)
	require.NoError(t, err)
	if cart == nil {
		return
	}
	for productID, item := range cart.Items {
		assert.GreaterOrEqual(t, item.Quantity, 1, "product %s", productID)
		assert.LessOrEqual(t, item.Quantity, 100, "product %s", productID)
	}
}

func TestCartService_GetCart_Empty(t *testing.T) {
	svc, _, _, ctx := setupCartServiceTest(t)

	view, err := svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0, view.ItemCount)
	assert.Equal(t, 0.0, view.Total)
}

func TestCartService_GetCart_Idempotent(t *testing.T) {
	svc, _, _, ctx := setupCartServiceTest(t)

	_, _, err := svc.AddItem(ctx, "user-1", "sku-1", 2)
	require.NoError(t, err)

	first, err := svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	second, err := svc.GetCart(ctx, "user-1")
	require.NoError(t, err)

	require.Len(t, second.Items, len(first.Items))
	assert.Equal(t, first.Items[0].ProductID, second.Items[0].ProductID)
	assert.Equal(t, first.Items[0].Quantity, second.Items[0].Quantity)
}

func TestCartService_AddItem_Success(t *testing.T) {
	svc, cartStore, _, ctx := setupCartServiceTest(t)

	view, clamped, err := svc.AddItem(ctx, "user-1", "sku-1", 2)
	require.NoError(t, err)
	assert.False(t, clamped)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, 160.0, view.Items[0].Subtotal)
	assert.Equal(t, 40.0, view.Items[0].DiscountTotal)
	assert.Equal(t, 120.0, view.Items[0].Total)
	assert.True(t, view.Items[0].IsAvailable)

	requireQuantityBounds(t, cartStore, ctx, "user-1")
}

func TestCartService_AddItem_InvalidQuantity(t *testing.T) {
	svc, _, _, ctx := setupCartServiceTest(t)

	for _, quantity := range []int{0, -1, 101} {
		_, _, err := svc.AddItem(ctx, "user-1", "sku-1", quantity)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "quantity %d", quantity)
	}
}

func TestCartService_AddItem_ProductNotFound(t *testing.T) {
	svc, cartStore, _, ctx := setupCartServiceTest(t)

	_, _, err := svc.AddItem(ctx, "user-1", "sku-ghost", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	// Rejected before touching the store
	exists, err := cartStore.Exists(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCartService_AddItem_OutOfStockAllowed(t *testing.T) {
	svc, _, _, ctx := setupCartServiceTest(t)

	// Exists-but-out-of-stock is distinct from not-found: the add succeeds
	view, clamped, err := svc.AddItem(ctx, "user-1", "sku-empty", 1)
	require.NoError(t, err)
	assert.False(t, clamped)
	require.Len(t, view.Items, 1)
	assert.False(t, view.Items[0].IsAvailable)
}

func TestCartService_AddItem_Twice(t *testing.T) {
	svc, _, _, ctx := setupCartServiceTest(t)

	_, _, err := svc.AddItem(ctx, "user-1", "sku-1", 3)
	require.NoError(t, err)
	view, clamped, err := svc.AddItem(ctx, "user-1", "sku-1", 3)
	require.NoError(t, err)

	assert.False(t, clamped)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 6, view.Items[0].Quantity)
}

func TestCartService_AddItem_ClampsExistingLine(t *testing.T) {
	svc, cartStore, _, ctx := setupCartServiceTest(t)

	_, _, err := svc.AddItem(ctx, "user-1", "sku-1", 97)
	require.NoError(t, err)

	view, clamped, err := svc.AddItem(ctx, "user-1", "sku-1", 10)
	require.NoError(t, err)
	assert.True(t, clamped)
	assert.Equal(t, 100, view.Items[0].Quantity)

	requireQuantityBounds(t, cartStore, ctx, "user-1")
}

func TestCartService_AddItem_CatalogUnavailable(t *testing.T) {
	svc, cartStore, catalogStub, ctx := setupCartServiceTest(t)
	catalogStub.err = errors.New("dial tcp: connection refused")

	_, _, err := svc.AddItem(ctx, "user-1", "sku-1", 1)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)

	exists, err := cartStore.Exists(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCartService_GetCart_CatalogUnavailableDegrades(t *testing.T) {
	svc, _, catalogStub, ctx := setupCartServiceTest(t)

	_, _, err := svc.AddItem(ctx, "user-1", "sku-1", 2)
	require.NoError(t, err)

	// Read path degrades instead of failing
	catalogStub.err = errors.New("dial tcp: connection refused")
	view, err := svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.False(t, view.Items[0].IsAvailable)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, 0.0, view.Total)
}

func TestCartService_UpdateItem_Success(t *testing.T) {
	svc, _, _, ctx := setupCartServiceTest(t)

	_, _, err := svc.AddItem(ctx, "user-1", "sku-1", 2)
	require.NoError(t, err)

	view, err := svc.UpdateItem(ctx, "user-1", "sku-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, view.Items[0].Quantity)
}

func TestCartService_UpdateItem_ZeroRemoves(t *testing.T) {
	svc, _, _, ctx := setupCartServiceTest(t)

	_, _, err := svc.AddItem(ctx, "user-1", "sku-1", 2)
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, "user-1", "sku-2", 1)
	require.NoError(t, err)

	view, err := svc.UpdateItem(ctx, "user-1", "sku-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, view.ItemCount)
	assert.Equal(t, "sku-2", view.Items[0].ProductID)
}

func TestCartService_UpdateItem_InvalidQuantity(t *testing.T) {
	svc, _, _, ctx := setupCartServiceTest(t)

	_, _, err := svc.AddItem(ctx, "user-1", "sku-1", 2)
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, "user-1", "sku-1", 101)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.UpdateItem(ctx, "user-1", "sku-1", -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCartService_UpdateItem_NotFound(t *testing.T) {
	svc, _, _, ctx := setupCartServiceTest(t)

	_, err := svc.UpdateItem(ctx, "user-1", "sku-1", 5)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestCartService_RemoveItem_Success(t *testing.T) {
	svc, _, _, ctx := setupCartServiceTest(t)

	_, _, err := svc.AddItem(ctx, "user-1", "sku-1", 2)
	require.NoError(t, err)

	view, err := svc.RemoveItem(ctx, "user-1", "sku-1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartService_RemoveItem_Idempotent(t *testing.T) {
	svc, _, _, ctx := setupCartServiceTest(t)

	// Absent item and absent cart are both fine
	view, err := svc.RemoveItem(ctx, "user-1", "sku-1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, _, err = svc.AddItem(ctx, "user-1", "sku-1", 2)
	require.NoError(t, err)
	_, err = svc.RemoveItem(ctx, "user-1", "sku-ghost")
	require.NoError(t, err)
}

func TestCartService_ClearCart(t *testing.T) {
	svc, cartStore, _, ctx := setupCartServiceTest(t)

	_, _, err := svc.AddItem(ctx, "user-1", "sku-1", 2)
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(ctx, "user-1"))

	exists, err := cartStore.Exists(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCartService_TTLRefreshedOnMutation(t *testing.T) {
	svc, cartStore, _, ctx := setupCartServiceTest(t)

	_, _, err := svc.AddItem(ctx, "user-1", "sku-1", 1)
	require.NoError(t, err)

	ttl, ok, err := cartStore.RemainingTTL(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, testTTL.Seconds(), ttl.Seconds(), 5)
}

func TestCartService_StorageUnavailable(t *testing.T) {
	svc := NewCartService(failingStore{}, &stubCatalog{products: map[string]catalog.ProductInfo{
		"sku-1": {ProductID: "sku-1", Price: 10, StockQuantity: 5, IsAvailable: true},
	}}, testCartConfig())
	ctx := context.Background()

	_, err := svc.GetCart(ctx, "user-1")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, _, err = svc.AddItem(ctx, "user-1", "sku-1", 1)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	err = svc.ClearCart(ctx, "user-1")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestCartService_MergeCarts_Arithmetic(t *testing.T) {
	svc, cartStore, _, ctx := setupCartServiceTest(t)

	_, _, err := svc.AddItem(ctx, "anon-1", "sku-1", 5)
	require.NoError(t, err)

	_, _, err = svc.AddItem(ctx, "auth-1", "sku-1", 96)
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, "auth-1", "sku-2", 1)
	require.NoError(t, err)

	view, err := svc.MergeCarts(ctx, "anon-1", "auth-1")
	require.NoError(t, err)

	require.Equal(t, 2, view.ItemCount)
	quantities := map[string]int{}
	for _, item := range view.Items {
		quantities[item.ProductID] = item.Quantity
	}
	assert.Equal(t, 100, quantities["sku-1"])
	assert.Equal(t, 1, quantities["sku-2"])

	// The anonymous cart is consumed by the merge
	exists, err := cartStore.Exists(ctx, "anon-1")
	require.NoError(t, err)
	assert.False(t, exists)

	requireQuantityBounds(t, cartStore, ctx, "auth-1")
}

func TestCartService_MergeCarts_AbsentAnonymous(t *testing.T) {
	svc, _, _, ctx := setupCartServiceTest(t)

	_, _, err := svc.AddItem(ctx, "auth-1", "sku-1", 3)
	require.NoError(t, err)

	view, err := svc.MergeCarts(ctx, "anon-ghost", "auth-1")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
}

func TestCartService_MergeCarts_IntoAbsentAuthenticated(t *testing.T) {
	svc, cartStore, _, ctx := setupCartServiceTest(t)

	_, _, err := svc.AddItem(ctx, "anon-1", "sku-1", 4)
	require.NoError(t, err)

	view, err := svc.MergeCarts(ctx, "anon-1", "auth-1")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 4, view.Items[0].Quantity)

	exists, err := cartStore.Exists(ctx, "anon-1")
	require.NoError(t, err)
	assert.False(t, exists)
}
