package repository

import (
	"errors"
	"time"

	"github.com/aody34/Darusalaampharmcy/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleRepository is the append-only sale ledger. No update or delete is
// exposed: completed sales are history.
type SaleRepository interface {
	Append(tx *gorm.DB, rec *model.SaleRecord) error
	FindAll() ([]model.SaleRecord, error)
	FindInRange(start, end time.Time) ([]model.SaleRecord, error)
	FindByID(id uuid.UUID) (*model.SaleRecord, error)
	FindByIdempotencyKey(tx *gorm.DB, key string) (*model.SaleRecord, error)
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

// Append takes tx so the insert can share a transaction with the stock
// decrement.
func (r *saleRepo) Append(tx *gorm.DB, rec *model.SaleRecord) error {
	return tx.Create(rec).Error
}

func (r *saleRepo) FindAll() ([]model.SaleRecord, error) {
	var sales []model.SaleRecord
	err := r.db.Order("created_at DESC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) FindInRange(start, end time.Time) ([]model.SaleRecord, error) {
	var sales []model.SaleRecord
	err := r.db.
		Where("created_at BETWEEN ? AND ?", start, end).
		Order("created_at DESC").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) FindByID(id uuid.UUID) (*model.SaleRecord, error) {
	var sale model.SaleRecord
	err := r.db.First(&sale, "id = ?", id).Error
	return &sale, err
}

// FindByIdempotencyKey returns (nil, nil) when no sale carries the key.
func (r *saleRepo) FindByIdempotencyKey(tx *gorm.DB, key string) (*model.SaleRecord, error) {
	var sale model.SaleRecord
	err := tx.First(&sale, "idempotency_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}
