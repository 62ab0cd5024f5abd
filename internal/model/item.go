package model

// LowStockThreshold is the fixed policy cutoff below which an item is
// flagged for restocking. Not configurable per item.
const LowStockThreshold = 10

// Item is a tracked inventory unit. Quantity is the only field the sale
// engine mutates, and only through the atomic decrement inside a sale.
type Item struct {
	BaseModel
	SKU            string `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku" validate:"required"`
	Name           string `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Quantity       int    `gorm:"not null;default:0" json:"quantity" validate:"gte=0"`
	Unit           string `gorm:"type:varchar(20)" json:"unit"`
	UnitPriceCents int64  `gorm:"not null;default:0" json:"unit_price_cents" validate:"gte=0"`
}

// LowStock reports whether the item is below the restock threshold.
func (i *Item) LowStock() bool {
	return i.Quantity < LowStockThreshold
}
