package service

import (
	"context"
	"errors"
	"strings"

	"github.com/aody34/Darusalaampharmcy/internal/model"
	"github.com/aody34/Darusalaampharmcy/internal/redisx"
	"github.com/aody34/Darusalaampharmcy/internal/repository"
	"github.com/aody34/Darusalaampharmcy/internal/ws"
	"github.com/aody34/Darusalaampharmcy/pkg/validator"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SalesService is the sale transaction engine. Sell owns the whole
// read-check-decrement-append sequence as one atomic unit; callers never
// compose stock reads and writes themselves.
//
// Two implementations exist with the same contract: this one (Postgres,
// row-locked transaction) and the embedded memstore (single-writer command
// loop).
type SalesService interface {
	Sell(ctx context.Context, req *model.SellRequest) (*model.SaleOutcome, error)
	SellCustom(ctx context.Context, req *model.CustomSaleRequest) (*model.SaleOutcome, error)
}

type salesService struct {
	itemRepo repository.ItemRepository
	saleRepo repository.SaleRepository
	db       *gorm.DB
	rdb      *redis.Client // optional idempotency fast path
	wsHub    *ws.Hub
}

func NewSalesService(itemRepo repository.ItemRepository, saleRepo repository.SaleRepository, db *gorm.DB, rdb *redis.Client, hub *ws.Hub) SalesService {
	return &salesService{
		itemRepo: itemRepo,
		saleRepo: saleRepo,
		db:       db,
		rdb:      rdb,
		wsHub:    hub,
	}
}

func (s *salesService) Sell(ctx context.Context, req *model.SellRequest) (*model.SaleOutcome, error) {
	// Preconditions first, before any mutation.
	if err := validateSellRequest(req); err != nil {
		return nil, err
	}

	// Fast path for an obvious replay: key already marked committed.
	if s.rdb != nil && req.IdempotencyKey != "" {
		if seen, err := redisx.SaleSeen(ctx, s.rdb, req.IdempotencyKey); err == nil && seen {
			if prior, err := s.saleRepo.FindByIdempotencyKey(s.db.WithContext(ctx), req.IdempotencyKey); err == nil && prior != nil {
				return s.replayOutcome(ctx, prior), nil
			}
		}
	}

	var outcome *model.SaleOutcome
	var replayed bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Idempotency check inside the transaction boundary. The unique
		// index on idempotency_key backs this up under races.
		if req.IdempotencyKey != "" {
			prior, err := s.saleRepo.FindByIdempotencyKey(tx, req.IdempotencyKey)
			if err != nil {
				return &TransientError{Err: err}
			}
			if prior != nil {
				outcome = s.replayOutcome(ctx, prior)
				replayed = true
				return nil
			}
		}

		// Re-read the quantity under a row lock; never trust a value
		// cached before this call began.
		var item model.Item
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, "id = ?", req.ItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return &TransientError{Err: err}
		}

		newQuantity := item.Quantity - req.Quantity
		if newQuantity < 0 {
			return &InsufficientStockError{Available: item.Quantity}
		}

		if err := s.itemRepo.DecrementStock(tx, item.ID, req.Quantity, req.SellerID); err != nil {
			return &TransientError{Err: err}
		}

		rec := &model.SaleRecord{
			ItemID:         &item.ID,
			ItemName:       item.Name,
			Quantity:       req.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.UnitPriceCents * int64(req.Quantity),
			SellerID:       req.SellerID,
		}
		if req.IdempotencyKey != "" {
			key := req.IdempotencyKey
			rec.IdempotencyKey = &key
		}
		// If this append fails the whole transaction rolls back, so the
		// decrement above is never committed without its ledger entry.
		if err := s.saleRepo.Append(tx, rec); err != nil {
			return &TransientError{Err: err}
		}

		outcome = &model.SaleOutcome{
			SaleID:         rec.ID,
			ItemName:       rec.ItemName,
			QuantitySold:   rec.Quantity,
			TotalCents:     rec.TotalCents,
			RemainingStock: newQuantity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !replayed {
		s.afterCommit(ctx, req.IdempotencyKey, outcome)
	}
	return outcome, nil
}

func (s *salesService) SellCustom(ctx context.Context, req *model.CustomSaleRequest) (*model.SaleOutcome, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errors.New("validation failed on field " + errs[0].FailedField)
	}

	var outcome *model.SaleOutcome
	var replayed bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.IdempotencyKey != "" {
			prior, err := s.saleRepo.FindByIdempotencyKey(tx, req.IdempotencyKey)
			if err != nil {
				return &TransientError{Err: err}
			}
			if prior != nil {
				outcome = s.replayOutcome(ctx, prior)
				replayed = true
				return nil
			}
		}

		// No inventory row is touched: the record stands alone.
		rec := &model.SaleRecord{
			ItemID:     nil,
			ItemName:   req.Name,
			Quantity:   req.Quantity,
			TotalCents: req.TotalCents,
			SellerID:   req.SellerID,
		}
		if req.IdempotencyKey != "" {
			key := req.IdempotencyKey
			rec.IdempotencyKey = &key
		}
		if err := s.saleRepo.Append(tx, rec); err != nil {
			return &TransientError{Err: err}
		}

		outcome = &model.SaleOutcome{
			SaleID:       rec.ID,
			ItemName:     rec.ItemName,
			QuantitySold: rec.Quantity,
			TotalCents:   rec.TotalCents,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !replayed {
		s.afterCommit(ctx, req.IdempotencyKey, outcome)
	}
	return outcome, nil
}

// replayOutcome rebuilds the outcome of an already-committed sale so a
// retried submission is a no-op. RemainingStock reflects the current stock,
// which is the best available answer after the fact.
func (s *salesService) replayOutcome(ctx context.Context, rec *model.SaleRecord) *model.SaleOutcome {
	outcome := &model.SaleOutcome{
		SaleID:       rec.ID,
		ItemName:     rec.ItemName,
		QuantitySold: rec.Quantity,
		TotalCents:   rec.TotalCents,
	}
	if rec.ItemID != nil {
		if item, err := s.itemRepo.FindByID(*rec.ItemID); err == nil {
			outcome.RemainingStock = item.Quantity
		}
	}
	return outcome
}

// afterCommit runs the side effects that must not influence the transaction:
// marking the idempotency key in Redis and broadcasting to terminals.
func (s *salesService) afterCommit(ctx context.Context, idempotencyKey string, outcome *model.SaleOutcome) {
	if s.rdb != nil && idempotencyKey != "" {
		_ = redisx.MarkSale(ctx, s.rdb, idempotencyKey)
	}
	if s.wsHub != nil {
		go s.wsHub.BroadcastEvent("sale_recorded", outcome)
	}
}

func validateSellRequest(req *model.SellRequest) error {
	if req.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if req.ItemID == uuid.Nil {
		return ErrItemNotFound
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		if strings.Contains(first.FailedField, "Quantity") {
			return ErrInvalidQuantity
		}
		if strings.Contains(first.FailedField, "ItemID") {
			return ErrItemNotFound
		}
		return errors.New("validation failed on field " + first.FailedField)
	}
	return nil
}
