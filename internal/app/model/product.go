package model

import (
	"time"

	"gorm.io/gorm"
)

// Product is a row in the platform's product catalog. The cart service
// reads it through the catalog client and never writes it.
type Product struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	SKU            string         `gorm:"uniqueIndex;not null" json:"sku"`
	Name           string         `gorm:"not null" json:"name"`
	Price          float64        `gorm:"not null" json:"price"`
	CompareAtPrice *float64       `json:"compare_at_price,omitempty"`
	StockQuantity  int            `gorm:"default:0" json:"stock_quantity"`
	IsAvailable    bool           `gorm:"default:true" json:"is_available"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}
