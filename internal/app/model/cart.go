package model

import (
	"encoding/json"
	"sort"
	"time"
)

// RawItem is a single cart line as persisted: identity and quantity only,
// never derived pricing.
type RawItem struct {
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RawCart is the persisted cart document. Items are keyed by product id in
// memory; the wire encoding flattens them to an array with stable field
// names (see MarshalJSON). Unknown fields in stored documents are ignored
// on read for forward compatibility.
type RawCart struct {
	UserID    string
	Items     map[string]RawItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewRawCart(userID string) *RawCart {
	now := time.Now().UTC()
	return &RawCart{
		UserID:    userID,
		Items:     make(map[string]RawItem),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsEmpty reports whether the cart has no lines
func (c *RawCart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ProductIDs returns the distinct product ids in the cart, sorted for
// deterministic batch lookups and logging.
func (c *RawCart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for id := range c.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// rawCartDocument is the stable wire shape stored in Redis.
type rawCartDocument struct {
	UserID    string    `json:"userId"`
	Items     []RawItem `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *RawCart) MarshalJSON() ([]byte, error) {
	doc := rawCartDocument{
		UserID:    c.UserID,
		Items:     make([]RawItem, 0, len(c.Items)),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, id := range c.ProductIDs() {
		doc.Items = append(doc.Items, c.Items[id])
	}
	return json.Marshal(doc)
}

func (c *RawCart) UnmarshalJSON(data []byte) error {
	var doc rawCartDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	c.UserID = doc.UserID
	c.CreatedAt = doc.CreatedAt
	c.UpdatedAt = doc.UpdatedAt
	c.Items = make(map[string]RawItem, len(doc.Items))
	for _, item := range doc.Items {
		c.Items[item.ProductID] = item
	}
	return nil
}

// CartViewItem is a cart line joined against the current catalog snapshot.
// Derived per request, never persisted.
type CartViewItem struct {
	ProductID      string    `json:"product_id"`
	Quantity       int       `json:"quantity"`
	Price          float64   `json:"price"`
	CompareAtPrice *float64  `json:"compare_at_price,omitempty"`
	Discount       float64   `json:"discount"`
	Subtotal       float64   `json:"subtotal"`
	DiscountTotal  float64   `json:"discount_total"`
	Total          float64   `json:"total"`
	IsAvailable    bool      `json:"is_available"`
	AddedAt        time.Time `json:"added_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CartView is the priced cart returned to callers.
type CartView struct {
	UserID        string         `json:"user_id"`
	Items         []CartViewItem `json:"items"`
	ItemCount     int            `json:"item_count"`     // distinct lines
	TotalQuantity int            `json:"total_quantity"` // sum of line quantities
	Subtotal      float64        `json:"subtotal"`
	DiscountTotal float64        `json:"discount_total"`
	Total         float64        `json:"total"`
	// ExpiresInSeconds is the remaining store TTL, -1 when unknown
	ExpiresInSeconds int64 `json:"expires_in_seconds"`
}
