package service

import (
	"time"

	"github.com/ikkim/cart-service/internal/app/model"
)

// mergeRawCarts combines an anonymous cart into an authenticated cart.
// Lines present in both sum their quantities capped at maxQuantity; the
// excess is dropped silently because merging is best-effort consolidation,
// not an operation a user can correct. Anonymous-only lines come across
// with a fresh addedAt. Inputs are not mutated.
func mergeRawCarts(auth, anon *model.RawCart, now time.Time, maxQuantity int) *model.RawCart {
	merged := &model.RawCart{
		UserID:    auth.UserID,
		Items:     make(map[string]model.RawItem, len(auth.Items)+len(anon.Items)),
		CreatedAt: auth.CreatedAt,
		UpdatedAt: now,
	}
	for productID, item := range auth.Items {
		merged.Items[productID] = item
	}

	for productID, anonItem := range anon.Items {
		if authItem, ok := merged.Items[productID]; ok {
			quantity := authItem.Quantity + anonItem.Quantity
			if quantity > maxQuantity {
				quantity = maxQuantity
			}
			authItem.Quantity = quantity
			authItem.UpdatedAt = now
			merged.Items[productID] = authItem
			continue
		}

		anonItem.AddedAt = now
		anonItem.UpdatedAt = now
		merged.Items[productID] = anonItem
	}

	return merged
}
