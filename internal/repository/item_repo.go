package repository

import (
	"errors"

	"github.com/aody34/Darusalaampharmcy/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrStaleStock is returned when a guarded decrement matches no row, which
// means the stock changed under us or the item vanished mid-transaction.
var ErrStaleStock = errors.New("stock changed during transaction")

type ItemRepository interface {
	Create(item *model.Item) error
	FindAll() ([]model.Item, error)
	FindByID(id uuid.UUID) (*model.Item, error)
	FindBySKU(sku string) (*model.Item, error)
	Update(item *model.Item) error
	Delete(id uuid.UUID, deletedBy string) error
	DecrementStock(tx *gorm.DB, id uuid.UUID, amount int, updatedBy string) error
}

type itemRepo struct {
	db *gorm.DB
}

func NewItemRepo(db *gorm.DB) ItemRepository {
	return &itemRepo{db}
}

func (r *itemRepo) Create(item *model.Item) error {
	return r.db.Create(item).Error
}

func (r *itemRepo) FindAll() ([]model.Item, error) {
	var items []model.Item
	err := r.db.Order("name ASC").Find(&items).Error
	return items, err
}

func (r *itemRepo) FindByID(id uuid.UUID) (*model.Item, error) {
	var item model.Item
	err := r.db.First(&item, "id = ?", id).Error
	return &item, err
}

func (r *itemRepo) FindBySKU(sku string) (*model.Item, error) {
	var item model.Item
	err := r.db.First(&item, "sku = ?", sku).Error
	return &item, err
}

func (r *itemRepo) Update(item *model.Item) error {
	return r.db.Save(item).Error
}

func (r *itemRepo) Delete(id uuid.UUID, deletedBy string) error {
	if err := r.db.Model(&model.Item{}).
		Where("id = ?", id).
		Update("updated_by", deletedBy).Error; err != nil {
		return err
	}
	return r.db.Delete(&model.Item{}, "id = ?", id).Error
}

// DecrementStock runs inside the caller's transaction (tx). The WHERE guard
// on quantity keeps the invariant even if the row lock were somehow bypassed:
// a decrement that would go negative matches no row.
func (r *itemRepo) DecrementStock(tx *gorm.DB, id uuid.UUID, amount int, updatedBy string) error {
	res := tx.Model(&model.Item{}).
		Where("id = ? AND quantity >= ?", id, amount).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", amount),
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrStaleStock
	}
	return nil
}
