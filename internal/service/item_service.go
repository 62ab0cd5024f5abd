package service

import (
	"context"
	"errors"

	"github.com/aody34/Darusalaampharmcy/internal/model"
	"github.com/aody34/Darusalaampharmcy/internal/repository"
	"github.com/aody34/Darusalaampharmcy/internal/ws"
	"github.com/aody34/Darusalaampharmcy/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemService manages the inventory catalog. Stock edits here are
// admin-side corrections; sales never go through Update, only through the
// engine's atomic decrement.
type ItemService interface {
	CreateItem(ctx context.Context, item *model.Item, actorID string) error
	UpdateItem(ctx context.Context, id uuid.UUID, item *model.Item, actorID string) (*model.Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID, actorID string) error
	ListItems(ctx context.Context) ([]model.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error)
}

type itemService struct {
	itemRepo repository.ItemRepository
	db       *gorm.DB
	wsHub    *ws.Hub
}

func NewItemService(itemRepo repository.ItemRepository, db *gorm.DB, hub *ws.Hub) ItemService {
	return &itemService{itemRepo: itemRepo, db: db, wsHub: hub}
}

func (s *itemService) CreateItem(ctx context.Context, item *model.Item, actorID string) error {
	if errs := validator.ValidateStruct(item); len(errs) > 0 {
		return errors.New("validation failed on field " + errs[0].FailedField)
	}

	existing, _ := s.itemRepo.FindBySKU(item.SKU)
	if existing != nil && existing.ID != uuid.Nil {
		return errors.New("SKU already exists")
	}

	item.CreatedBy = actorID
	item.UpdatedBy = actorID
	if err := s.itemRepo.Create(item); err != nil {
		return err
	}

	if s.wsHub != nil {
		go s.wsHub.BroadcastEvent("item_created", item)
	}
	return nil
}

func (s *itemService) UpdateItem(ctx context.Context, id uuid.UUID, req *model.Item, actorID string) (*model.Item, error) {
	var updated *model.Item

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Item
		// Lock the row so a concurrent sale cannot interleave with this
		// stock correction.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&existing, "id = ?", id).Error; err != nil {
			return ErrItemNotFound
		}

		if req.Quantity < 0 {
			return errors.New("quantity cannot be negative")
		}

		existing.Name = req.Name
		existing.SKU = req.SKU
		existing.Quantity = req.Quantity
		existing.Unit = req.Unit
		existing.UnitPriceCents = req.UnitPriceCents
		existing.UpdatedBy = actorID

		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		updated = &existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.wsHub != nil {
		go s.wsHub.BroadcastEvent("item_updated", updated)
	}
	return updated, nil
}

func (s *itemService) DeleteItem(ctx context.Context, id uuid.UUID, actorID string) error {
	if _, err := s.itemRepo.FindByID(id); err != nil {
		return ErrItemNotFound
	}
	// Past sale records keep their name/price snapshots, so history
	// survives the delete.
	return s.itemRepo.Delete(id, actorID)
}

func (s *itemService) ListItems(ctx context.Context) ([]model.Item, error) {
	return s.itemRepo.FindAll()
}

func (s *itemService) GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	item, err := s.itemRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}
