package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/ikkim/cart-service/internal/app/model"
	"github.com/ikkim/cart-service/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCatalogTest(t *testing.T) (Client, *gorm.DB) {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return NewDBClient(testDB), testDB
}

func seedProduct(t *testing.T, testDB *gorm.DB, sku string, price float64, compareAt *float64, stock int) {
	t.Helper()
	require.NoError(t, testDB.Create(&model.Product{
		SKU:            sku,
		Name:           "Product " + sku,
		Price:          price,
		CompareAtPrice: compareAt,
		StockQuantity:  stock,
		IsAvailable:    true,
	}).Error)
}

func TestDBClient_GetOne(t *testing.T) {
	client, testDB := setupCatalogTest(t)
	compareAt := 100.0
	seedProduct(t, testDB, "sku-1", 80, &compareAt, 10)

	info, err := client.GetOne(context.Background(), "sku-1")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "sku-1", info.ProductID)
	assert.Equal(t, 80.0, info.Price)
	require.NotNil(t, info.CompareAtPrice)
	assert.Equal(t, 100.0, *info.CompareAtPrice)
	assert.Equal(t, 10, info.StockQuantity)
	assert.True(t, info.IsAvailable)
}

func TestDBClient_GetOne_Unknown(t *testing.T) {
	client, _ := setupCatalogTest(t)

	info, err := client.GetOne(context.Background(), "no-such-sku")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestDBClient_GetMany(t *testing.T) {
	client, testDB := setupCatalogTest(t)
	seedProduct(t, testDB, "sku-1", 10, nil, 5)
	seedProduct(t, testDB, "sku-2", 20, nil, 0)

	// Unknown ids must be absent from the result, not errors
	result, err := client.GetMany(context.Background(), []string{"sku-1", "sku-2", "sku-ghost"})
	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Equal(t, 10.0, result["sku-1"].Price)
	assert.Equal(t, 0, result["sku-2"].StockQuantity)
	assert.NotContains(t, result, "sku-ghost")
}

func TestDBClient_GetMany_Empty(t *testing.T) {
	client, _ := setupCatalogTest(t)

	result, err := client.GetMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestDBClient_GetMany_ManyBatches(t *testing.T) {
	client, testDB := setupCatalogTest(t)

	ids := make([]string, 0, batchSize*3)
	for i := 0; i < batchSize*3; i++ {
		sku := fmt.Sprintf("sku-%03d", i)
		seedProduct(t, testDB, sku, float64(i), nil, i)
		ids = append(ids, sku)
	}

	result, err := client.GetMany(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, result, batchSize*3)
	assert.Equal(t, 42.0, result["sku-042"].Price)
}
