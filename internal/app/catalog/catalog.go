package catalog

import (
	"context"
)

// ProductInfo is the point-in-time catalog data for one product. It is
// fetched fresh for every priced read and never cached by the cart core.
type ProductInfo struct {
	ProductID      string   `json:"product_id"`
	Name           string   `json:"name"`
	Price          float64  `json:"price"`
	CompareAtPrice *float64 `json:"compare_at_price,omitempty"`
	StockQuantity  int      `json:"stock_quantity"`
	IsAvailable    bool     `json:"is_available"`
}

// Client looks up current product data. Unknown ids are reported by
// absence, never by error: GetOne returns (nil, nil) and GetMany simply
// omits the id from the result. Errors mean the catalog itself could not
// be reached.
type Client interface {
	GetOne(ctx context.Context, productID string) (*ProductInfo, error)
	GetMany(ctx context.Context, productIDs []string) (map[string]ProductInfo, error)
}
