package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleRecord is an immutable ledger entry for a completed sale. The item
// name and unit price are snapshots taken at sale time, so later renames or
// deletions of the source item never alter history. Records are append-only:
// nothing in this codebase updates or deletes them.
type SaleRecord struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;" json:"id"`
	ItemID         *uuid.UUID `gorm:"type:uuid;index" json:"item_id,omitempty"` // nil for custom sales
	ItemName       string     `gorm:"type:varchar(255);not null" json:"item_name"`
	Quantity       int        `gorm:"not null" json:"quantity"`
	UnitPriceCents int64      `gorm:"not null;default:0" json:"unit_price_cents"`
	TotalCents     int64      `gorm:"not null" json:"total_cents"`
	SellerID       string     `gorm:"type:varchar(255);not null" json:"seller_id"`
	IdempotencyKey *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
}

func (r *SaleRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// Custom reports whether the sale was not backed by a tracked item.
func (r *SaleRecord) Custom() bool {
	return r.ItemID == nil
}

// SellRequest asks the engine to sell a quantity of a tracked item.
// IdempotencyKey is optional; a retried request carrying the same key
// returns the originally committed outcome instead of selling again.
type SellRequest struct {
	ItemID         uuid.UUID `json:"item_id" validate:"uuid_required"`
	Quantity       int       `json:"quantity" validate:"required,gte=1"`
	IdempotencyKey string    `json:"idempotency_key,omitempty" validate:"omitempty,max=64"`
	SellerID       string    `json:"-"` // stamped from the authenticated context
}

// CustomSaleRequest records a sale for something not tracked in inventory,
// e.g. a consultation fee. The total is supplied directly.
type CustomSaleRequest struct {
	Name           string `json:"name" validate:"required"`
	Quantity       int    `json:"quantity" validate:"required,gte=1"`
	TotalCents     int64  `json:"total_cents" validate:"gte=0"`
	IdempotencyKey string `json:"idempotency_key,omitempty" validate:"omitempty,max=64"`
	SellerID       string `json:"-"`
}

// SaleOutcome is the success payload of a sale. RemainingStock is zero for
// custom sales, which touch no inventory row.
type SaleOutcome struct {
	SaleID         uuid.UUID `json:"sale_id"`
	ItemName       string    `json:"item_name"`
	QuantitySold   int       `json:"quantity_sold"`
	TotalCents     int64     `json:"total_cents"`
	RemainingStock int       `json:"remaining_stock"`
}

// ReportView selects the sale set for a sales report.
type ReportView string

const (
	ReportAll   ReportView = "all"
	ReportToday ReportView = "today"
	ReportRange ReportView = "range"
)
