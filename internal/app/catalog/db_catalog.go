package catalog

import (
	"context"
	"errors"
	"sync"

	"github.com/ikkim/cart-service/internal/app/model"
	"github.com/ikkim/cart-service/pkg/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// batchSize bounds the size of a single IN query; carts rarely get near
// this but a batch endpoint should not trust its input size.
const batchSize = 50

// maxConcurrentBatches caps parallel catalog queries per GetMany call
const maxConcurrentBatches = 4

// dbClient reads product data straight from the platform catalog database.
type dbClient struct {
	db *gorm.DB
}

func NewDBClient(db *gorm.DB) Client {
	return &dbClient{db: db}
}

func toInfo(p *model.Product) ProductInfo {
	return ProductInfo{
		ProductID:      p.SKU,
		Name:           p.Name,
		Price:          p.Price,
		CompareAtPrice: p.CompareAtPrice,
		StockQuantity:  p.StockQuantity,
		IsAvailable:    p.IsAvailable,
	}
}

func (c *dbClient) GetOne(ctx context.Context, productID string) (*ProductInfo, error) {
	var product model.Product
	err := c.db.WithContext(ctx).Where("sku = ?", productID).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Catalog lookup failed", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	info := toInfo(&product)
	return &info, nil
}

func (c *dbClient) GetMany(ctx context.Context, productIDs []string) (map[string]ProductInfo, error) {
	result := make(map[string]ProductInfo, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBatches)

	for start := 0; start < len(productIDs); start += batchSize {
		end := start + batchSize
		if end > len(productIDs) {
			end = len(productIDs)
		}
		batch := productIDs[start:end]

		g.Go(func() error {
			var products []model.Product
			if err := c.db.WithContext(gctx).Where("sku IN ?", batch).Find(&products).Error; err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for i := range products {
				result[products[i].SKU] = toInfo(&products[i])
			}
			return nil
		})
	}

	// All batches must settle before a result exists: partial means
	// "product absent", never "lookup still pending".
	if err := g.Wait(); err != nil {
		logger.Error("Catalog batch lookup failed", err, map[string]interface{}{
			"requested": len(productIDs),
		})
		return nil, err
	}

	logger.Debug("Catalog batch resolved", map[string]interface{}{
		"requested": len(productIDs),
		"found":     len(result),
	})
	return result, nil
}
