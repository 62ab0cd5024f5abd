// Package memstore is the embedded single-terminal backend. All writes are
// serialized through one goroutine's command loop, so the sale sequence
// (re-read, recheck, decrement, append) runs with nothing interleaved and
// needs no locks. Durability comes from an optional JSON snapshot file; a
// mutation whose snapshot cannot be written is rolled back before anyone
// can observe it.
package memstore

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/aody34/Darusalaampharmcy/internal/model"
	"github.com/aody34/Darusalaampharmcy/internal/service"

	"github.com/google/uuid"
)

// queueTimeout bounds how long a caller waits on a busy store. No call
// blocks indefinitely; once the loop picks a command up it runs to
// completion or failure.
const queueTimeout = 2 * time.Second

type command struct {
	action string
	sell   *model.SellRequest
	custom *model.CustomSaleRequest
	item   *model.Item
	id     uuid.UUID
	actor  string
	reply  chan commandResult
}

type commandResult struct {
	outcome *model.SaleOutcome
	item    *model.Item
	err     error
}

type query struct {
	action     string
	id         uuid.UUID
	start, end time.Time
	reply      chan queryResult
}

type queryResult struct {
	items []model.Item
	sales []model.SaleRecord
	item  *model.Item
	err   error
}

// Store owns the in-memory state and the goroutine that serializes access
// to it.
type Store struct {
	commands chan command
	queries  chan query
	quit     chan struct{}

	// owned by the loop goroutine
	items map[uuid.UUID]*model.Item
	sales []model.SaleRecord
	keys  map[string]int // idempotency key -> index into sales
	path  string         // snapshot file; empty means memory only
}

// Interface checks: the store is a drop-in engine for the same handlers the
// Postgres backend uses.
var (
	_ service.SalesService = (*Store)(nil)
	_ service.ItemService  = (*Store)(nil)
)

// New loads the snapshot file (when path is non-empty) and starts the
// command loop.
func New(path string) (*Store, error) {
	s := &Store{
		commands: make(chan command),
		queries:  make(chan query),
		quit:     make(chan struct{}),
		items:    make(map[uuid.UUID]*model.Item),
		keys:     make(map[string]int),
		path:     path,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	go s.loop()
	return s, nil
}

// Close stops the loop goroutine.
func (s *Store) Close() {
	close(s.quit)
}

func (s *Store) loop() {
	for {
		select {
		case cmd := <-s.commands:
			var res commandResult
			switch cmd.action {
			case "sell":
				res.outcome, res.err = s.doSell(cmd.sell)
			case "sellCustom":
				res.outcome, res.err = s.doSellCustom(cmd.custom)
			case "createItem":
				res.err = s.doCreateItem(cmd.item, cmd.actor)
			case "updateItem":
				res.item, res.err = s.doUpdateItem(cmd.id, cmd.item, cmd.actor)
			case "deleteItem":
				res.err = s.doDeleteItem(cmd.id)
			default:
				res.err = errors.New("unknown store action " + cmd.action)
			}
			cmd.reply <- res
		case q := <-s.queries:
			q.reply <- s.doQuery(q)
		case <-s.quit:
			return
		}
	}
}

func (s *Store) submit(ctx context.Context, cmd command) (commandResult, error) {
	cmd.reply = make(chan commandResult, 1)
	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return commandResult{}, ctx.Err()
	case <-time.After(queueTimeout):
		return commandResult{}, &service.TransientError{Err: errors.New("store queue is busy")}
	}
	select {
	case res := <-cmd.reply:
		return res, res.err
	case <-time.After(queueTimeout):
		return commandResult{}, &service.TransientError{Err: errors.New("store reply timed out")}
	}
}

func (s *Store) ask(ctx context.Context, q query) (queryResult, error) {
	q.reply = make(chan queryResult, 1)
	select {
	case s.queries <- q:
	case <-ctx.Done():
		return queryResult{}, ctx.Err()
	case <-time.After(queueTimeout):
		return queryResult{}, &service.TransientError{Err: errors.New("store queue is busy")}
	}
	select {
	case res := <-q.reply:
		return res, res.err
	case <-time.After(queueTimeout):
		return queryResult{}, &service.TransientError{Err: errors.New("store reply timed out")}
	}
}

// --- engine operations, executed inside the loop ---

func (s *Store) doSell(req *model.SellRequest) (*model.SaleOutcome, error) {
	if req.Quantity < 1 {
		return nil, service.ErrInvalidQuantity
	}
	if req.IdempotencyKey != "" {
		if idx, ok := s.keys[req.IdempotencyKey]; ok {
			return s.replayOutcome(&s.sales[idx]), nil
		}
	}

	item, ok := s.items[req.ItemID]
	if !ok {
		return nil, service.ErrItemNotFound
	}
	newQuantity := item.Quantity - req.Quantity
	if newQuantity < 0 {
		return nil, &service.InsufficientStockError{Available: item.Quantity}
	}

	itemID := item.ID
	rec := model.SaleRecord{
		ID:             uuid.New(),
		ItemID:         &itemID,
		ItemName:       item.Name,
		Quantity:       req.Quantity,
		UnitPriceCents: item.UnitPriceCents,
		TotalCents:     item.UnitPriceCents * int64(req.Quantity),
		SellerID:       req.SellerID,
		CreatedAt:      time.Now(),
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		rec.IdempotencyKey = &key
	}

	// Apply both mutations, then persist. If the snapshot cannot be
	// written the whole unit is undone: no decrement without its ledger
	// entry and vice versa.
	previous := *item
	item.Quantity = newQuantity
	item.UpdatedAt = rec.CreatedAt
	item.UpdatedBy = req.SellerID
	s.sales = append(s.sales, rec)
	if err := s.persist(); err != nil {
		*item = previous
		s.sales = s.sales[:len(s.sales)-1]
		return nil, &service.TransientError{Err: err}
	}
	if req.IdempotencyKey != "" {
		s.keys[req.IdempotencyKey] = len(s.sales) - 1
	}

	return &model.SaleOutcome{
		SaleID:         rec.ID,
		ItemName:       rec.ItemName,
		QuantitySold:   rec.Quantity,
		TotalCents:     rec.TotalCents,
		RemainingStock: newQuantity,
	}, nil
}

func (s *Store) doSellCustom(req *model.CustomSaleRequest) (*model.SaleOutcome, error) {
	if req.Quantity < 1 {
		return nil, service.ErrInvalidQuantity
	}
	if req.Name == "" {
		return nil, errors.New("sale name is required")
	}
	if req.TotalCents < 0 {
		return nil, errors.New("total cannot be negative")
	}
	if req.IdempotencyKey != "" {
		if idx, ok := s.keys[req.IdempotencyKey]; ok {
			return s.replayOutcome(&s.sales[idx]), nil
		}
	}

	rec := model.SaleRecord{
		ID:         uuid.New(),
		ItemName:   req.Name,
		Quantity:   req.Quantity,
		TotalCents: req.TotalCents,
		SellerID:   req.SellerID,
		CreatedAt:  time.Now(),
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		rec.IdempotencyKey = &key
	}

	s.sales = append(s.sales, rec)
	if err := s.persist(); err != nil {
		s.sales = s.sales[:len(s.sales)-1]
		return nil, &service.TransientError{Err: err}
	}
	if req.IdempotencyKey != "" {
		s.keys[req.IdempotencyKey] = len(s.sales) - 1
	}

	return &model.SaleOutcome{
		SaleID:       rec.ID,
		ItemName:     rec.ItemName,
		QuantitySold: rec.Quantity,
		TotalCents:   rec.TotalCents,
	}, nil
}

func (s *Store) replayOutcome(rec *model.SaleRecord) *model.SaleOutcome {
	outcome := &model.SaleOutcome{
		SaleID:       rec.ID,
		ItemName:     rec.ItemName,
		QuantitySold: rec.Quantity,
		TotalCents:   rec.TotalCents,
	}
	if rec.ItemID != nil {
		if item, ok := s.items[*rec.ItemID]; ok {
			outcome.RemainingStock = item.Quantity
		}
	}
	return outcome
}

func (s *Store) doCreateItem(item *model.Item, actor string) error {
	if item.Name == "" || item.SKU == "" {
		return errors.New("item name and SKU are required")
	}
	if item.Quantity < 0 || item.UnitPriceCents < 0 {
		return errors.New("quantity and price cannot be negative")
	}
	for _, existing := range s.items {
		if existing.SKU == item.SKU {
			return errors.New("SKU already exists")
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	item.CreatedBy = actor
	item.UpdatedBy = actor

	stored := *item
	s.items[stored.ID] = &stored
	if err := s.persist(); err != nil {
		delete(s.items, stored.ID)
		return &service.TransientError{Err: err}
	}
	return nil
}

func (s *Store) doUpdateItem(id uuid.UUID, req *model.Item, actor string) (*model.Item, error) {
	existing, ok := s.items[id]
	if !ok {
		return nil, service.ErrItemNotFound
	}
	if req.Quantity < 0 {
		return nil, errors.New("quantity cannot be negative")
	}

	previous := *existing
	existing.Name = req.Name
	existing.SKU = req.SKU
	existing.Quantity = req.Quantity
	existing.Unit = req.Unit
	existing.UnitPriceCents = req.UnitPriceCents
	existing.UpdatedAt = time.Now()
	existing.UpdatedBy = actor

	if err := s.persist(); err != nil {
		*existing = previous
		return nil, &service.TransientError{Err: err}
	}
	updated := *existing
	return &updated, nil
}

func (s *Store) doDeleteItem(id uuid.UUID) error {
	existing, ok := s.items[id]
	if !ok {
		return service.ErrItemNotFound
	}
	delete(s.items, id)
	if err := s.persist(); err != nil {
		s.items[id] = existing
		return &service.TransientError{Err: err}
	}
	return nil
}

func (s *Store) doQuery(q query) queryResult {
	switch q.action {
	case "items":
		items := make([]model.Item, 0, len(s.items))
		for _, item := range s.items {
			items = append(items, *item)
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
		return queryResult{items: items}
	case "item":
		item, ok := s.items[q.id]
		if !ok {
			return queryResult{err: service.ErrItemNotFound}
		}
		copied := *item
		return queryResult{item: &copied}
	case "sales":
		return queryResult{sales: s.salesBetween(time.Time{}, time.Time{})}
	case "salesRange":
		return queryResult{sales: s.salesBetween(q.start, q.end)}
	default:
		return queryResult{err: errors.New("unknown store query " + q.action)}
	}
}

// salesBetween returns records newest first; zero bounds mean unbounded.
func (s *Store) salesBetween(start, end time.Time) []model.SaleRecord {
	out := make([]model.SaleRecord, 0, len(s.sales))
	for i := len(s.sales) - 1; i >= 0; i-- {
		rec := s.sales[i]
		if !start.IsZero() && rec.CreatedAt.Before(start) {
			continue
		}
		if !end.IsZero() && rec.CreatedAt.After(end) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// --- public API, mirroring the Postgres-backed services ---

func (s *Store) Sell(ctx context.Context, req *model.SellRequest) (*model.SaleOutcome, error) {
	res, err := s.submit(ctx, command{action: "sell", sell: req})
	if err != nil {
		return nil, err
	}
	return res.outcome, nil
}

func (s *Store) SellCustom(ctx context.Context, req *model.CustomSaleRequest) (*model.SaleOutcome, error) {
	res, err := s.submit(ctx, command{action: "sellCustom", custom: req})
	if err != nil {
		return nil, err
	}
	return res.outcome, nil
}

func (s *Store) CreateItem(ctx context.Context, item *model.Item, actor string) error {
	res, err := s.submit(ctx, command{action: "createItem", item: item, actor: actor})
	if err != nil {
		return err
	}
	if res.item != nil {
		*item = *res.item
	}
	return nil
}

func (s *Store) UpdateItem(ctx context.Context, id uuid.UUID, item *model.Item, actor string) (*model.Item, error) {
	res, err := s.submit(ctx, command{action: "updateItem", id: id, item: item, actor: actor})
	if err != nil {
		return nil, err
	}
	return res.item, nil
}

func (s *Store) DeleteItem(ctx context.Context, id uuid.UUID, actor string) error {
	_, err := s.submit(ctx, command{action: "deleteItem", id: id, actor: actor})
	return err
}

func (s *Store) ListItems(ctx context.Context) ([]model.Item, error) {
	res, err := s.ask(ctx, query{action: "items"})
	if err != nil {
		return nil, err
	}
	return res.items, nil
}

func (s *Store) GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	res, err := s.ask(ctx, query{action: "item", id: id})
	if err != nil {
		return nil, err
	}
	return res.item, nil
}

// Inventory and Ledger expose the read-only views the report service
// consumes.
func (s *Store) Inventory() service.InventoryReader { return inventoryReader{s} }
func (s *Store) Ledger() service.LedgerReader       { return ledgerReader{s} }

type inventoryReader struct{ s *Store }

func (r inventoryReader) FindAll() ([]model.Item, error) {
	return r.s.ListItems(context.Background())
}

type ledgerReader struct{ s *Store }

func (r ledgerReader) FindAll() ([]model.SaleRecord, error) {
	res, err := r.s.ask(context.Background(), query{action: "sales"})
	if err != nil {
		return nil, err
	}
	return res.sales, nil
}

func (r ledgerReader) FindInRange(start, end time.Time) ([]model.SaleRecord, error) {
	res, err := r.s.ask(context.Background(), query{action: "salesRange", start: start, end: end})
	if err != nil {
		return nil, err
	}
	return res.sales, nil
}
