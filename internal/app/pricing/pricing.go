// Package pricing joins raw cart lines against a catalog snapshot. It is a
// pure computation: no I/O, no state, and no failure mode.
package pricing

import (
	"sort"

	"github.com/ikkim/cart-service/internal/app/catalog"
	"github.com/ikkim/cart-service/internal/app/model"
)

// Price computes the priced view of a raw cart from a point-in-time catalog
// snapshot. Lines absent from the snapshot stay listed with zero money
// fields and isAvailable=false so callers can prompt removal; they
// contribute nothing to the aggregates. Callers own ExpiresInSeconds.
func Price(cart *model.RawCart, snapshot map[string]catalog.ProductInfo) *model.CartView {
	view := &model.CartView{
		UserID:           cart.UserID,
		Items:            make([]model.CartViewItem, 0, len(cart.Items)),
		ExpiresInSeconds: -1,
	}

	for _, raw := range cart.Items {
		line := model.CartViewItem{
			ProductID: raw.ProductID,
			Quantity:  raw.Quantity,
			AddedAt:   raw.AddedAt,
			UpdatedAt: raw.UpdatedAt,
		}

		if info, found := snapshot[raw.ProductID]; found {
			line.Price = info.Price
			line.CompareAtPrice = info.CompareAtPrice
			if info.CompareAtPrice != nil && *info.CompareAtPrice > info.Price {
				line.Discount = *info.CompareAtPrice - info.Price
			}
			line.Subtotal = line.Price * float64(raw.Quantity)
			line.DiscountTotal = line.Discount * float64(raw.Quantity)
			line.Total = line.Subtotal - line.DiscountTotal
			line.IsAvailable = info.IsAvailable && info.StockQuantity >= raw.Quantity

			view.Subtotal += line.Subtotal
			view.DiscountTotal += line.DiscountTotal
			view.Total += line.Total
		}

		view.ItemCount++
		view.TotalQuantity += raw.Quantity
		view.Items = append(view.Items, line)
	}

	// Stable ordering: oldest line first, product id as tie-breaker
	sort.Slice(view.Items, func(i, j int) bool {
		if !view.Items[i].AddedAt.Equal(view.Items[j].AddedAt) {
			return view.Items[i].AddedAt.Before(view.Items[j].AddedAt)
		}
		return view.Items[i].ProductID < view.Items[j].ProductID
	})

	return view
}
