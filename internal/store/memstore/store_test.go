package memstore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aody34/Darusalaampharmcy/internal/model"
	"github.com/aody34/Darusalaampharmcy/internal/service"
	"github.com/aody34/Darusalaampharmcy/internal/store/memstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *memstore.Store {
	t.Helper()
	s, err := memstore.New("")
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func addItem(t *testing.T, s *memstore.Store, name, sku string, quantity int, priceCents int64) uuid.UUID {
	t.Helper()
	item := &model.Item{Name: name, SKU: sku, Quantity: quantity, UnitPriceCents: priceCents}
	require.NoError(t, s.CreateItem(context.Background(), item, "tester"))
	return item.ID
}

func TestSellDecrementsStockAndAppendsRecord(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := addItem(t, s, "Aspirin", "ASP-01", 10, 250)

	outcome, err := s.Sell(ctx, &model.SellRequest{ItemID: id, Quantity: 3, SellerID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, "Aspirin", outcome.ItemName)
	assert.Equal(t, 3, outcome.QuantitySold)
	assert.Equal(t, int64(750), outcome.TotalCents)
	assert.Equal(t, 7, outcome.RemainingStock)

	item, err := s.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 7, item.Quantity)

	sales, err := s.Ledger().FindAll()
	require.NoError(t, err)
	require.Len(t, sales, 1)
	rec := sales[0]
	require.NotNil(t, rec.ItemID)
	assert.Equal(t, id, *rec.ItemID)
	assert.Equal(t, "Aspirin", rec.ItemName)
	assert.Equal(t, int64(250), rec.UnitPriceCents)
	assert.Equal(t, int64(750), rec.TotalCents)
	assert.Equal(t, "u1", rec.SellerID)
}

func TestSellInsufficientStockLeavesStateUntouched(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := addItem(t, s, "Aspirin", "ASP-01", 2, 250)

	_, err := s.Sell(ctx, &model.SellRequest{ItemID: id, Quantity: 5, SellerID: "u1"})

	var insufficient *service.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 2, insufficient.Available)
	assert.Contains(t, err.Error(), "only 2 left")

	item, err := s.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity, "failed sale must not change stock")

	sales, err := s.Ledger().FindAll()
	require.NoError(t, err)
	assert.Empty(t, sales, "failed sale must not append a record")
}

func TestSellInvalidQuantity(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := addItem(t, s, "Aspirin", "ASP-01", 10, 250)

	for _, quantity := range []int{0, -3} {
		_, err := s.Sell(ctx, &model.SellRequest{ItemID: id, Quantity: quantity, SellerID: "u1"})
		assert.ErrorIs(t, err, service.ErrInvalidQuantity)
	}

	item, err := s.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10, item.Quantity)
}

func TestSellUnknownItem(t *testing.T) {
	s := newStore(t)

	_, err := s.Sell(context.Background(), &model.SellRequest{ItemID: uuid.New(), Quantity: 1, SellerID: "u1"})
	assert.ErrorIs(t, err, service.ErrItemNotFound)
}

func TestSellCustomTouchesNoInventory(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := addItem(t, s, "Aspirin", "ASP-01", 10, 250)

	outcome, err := s.SellCustom(ctx, &model.CustomSaleRequest{Name: "Consultation", Quantity: 1, TotalCents: 2000, SellerID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), outcome.TotalCents)

	sales, err := s.Ledger().FindAll()
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Nil(t, sales[0].ItemID)
	assert.Equal(t, "Consultation", sales[0].ItemName)

	item, err := s.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10, item.Quantity)
}

func TestConcurrentSalesOfLastUnit(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := addItem(t, s, "Insulin", "INS-01", 1, 12000)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Sell(ctx, &model.SellRequest{ItemID: id, Quantity: 1, SellerID: "u1"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, rejections int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var insufficient *service.InsufficientStockError
		require.True(t, errors.As(err, &insufficient))
		assert.Equal(t, 0, insufficient.Available)
		rejections++
	}
	assert.Equal(t, 1, successes, "exactly one sale may win the last unit")
	assert.Equal(t, 1, rejections)

	item, err := s.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, item.Quantity)
}

func TestQuantityNeverGoesNegativeUnderLoad(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := addItem(t, s, "Bandage", "BAN-01", 5, 100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Sell(ctx, &model.SellRequest{ItemID: id, Quantity: 1, SellerID: "u1"})
		}()
	}
	wg.Wait()

	item, err := s.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, item.Quantity)

	sales, err := s.Ledger().FindAll()
	require.NoError(t, err)
	assert.Len(t, sales, 5, "exactly the available units can be sold")
}

func TestSaleSnapshotsSurviveRenameAndDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := addItem(t, s, "Aspirin", "ASP-01", 10, 250)

	_, err := s.Sell(ctx, &model.SellRequest{ItemID: id, Quantity: 1, SellerID: "u1"})
	require.NoError(t, err)

	_, err = s.UpdateItem(ctx, id, &model.Item{Name: "Aspirin Forte", SKU: "ASP-01", Quantity: 9, UnitPriceCents: 400}, "tester")
	require.NoError(t, err)
	require.NoError(t, s.DeleteItem(ctx, id, "tester"))

	sales, err := s.Ledger().FindAll()
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "Aspirin", sales[0].ItemName, "history keeps the name at time of sale")
	assert.Equal(t, int64(250), sales[0].UnitPriceCents)
}

func TestIdempotentSellReplaysOriginalOutcome(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := addItem(t, s, "Aspirin", "ASP-01", 10, 250)

	req := &model.SellRequest{ItemID: id, Quantity: 3, SellerID: "u1", IdempotencyKey: "txn-42"}
	first, err := s.Sell(ctx, req)
	require.NoError(t, err)

	second, err := s.Sell(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.SaleID, second.SaleID)
	assert.Equal(t, first.TotalCents, second.TotalCents)

	item, err := s.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 7, item.Quantity, "replay must not decrement again")

	sales, err := s.Ledger().FindAll()
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestSnapshotPersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos.json")
	ctx := context.Background()

	s, err := memstore.New(path)
	require.NoError(t, err)
	item := &model.Item{Name: "Aspirin", SKU: "ASP-01", Quantity: 10, UnitPriceCents: 250}
	require.NoError(t, s.CreateItem(ctx, item, "tester"))
	_, err = s.Sell(ctx, &model.SellRequest{ItemID: item.ID, Quantity: 4, SellerID: "u1", IdempotencyKey: "txn-7"})
	require.NoError(t, err)
	s.Close()

	reopened, err := memstore.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	restored, err := reopened.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, restored.Quantity)

	sales, err := reopened.Ledger().FindAll()
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, int64(1000), sales[0].TotalCents)

	// Idempotency keys survive the restart too.
	replay, err := reopened.Sell(ctx, &model.SellRequest{ItemID: item.ID, Quantity: 4, SellerID: "u1", IdempotencyKey: "txn-7"})
	require.NoError(t, err)
	assert.Equal(t, sales[0].ID, replay.SaleID)

	after, err := reopened.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, after.Quantity)
}

func TestFailedSnapshotWriteRollsBackSale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos.json")
	ctx := context.Background()

	s, err := memstore.New(path)
	require.NoError(t, err)
	defer s.Close()
	item := &model.Item{Name: "Aspirin", SKU: "ASP-01", Quantity: 10, UnitPriceCents: 250}
	require.NoError(t, s.CreateItem(ctx, item, "tester"))

	// A directory where the snapshot file should go makes the final rename
	// fail, after the in-memory mutation has already been applied.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))

	_, err = s.Sell(ctx, &model.SellRequest{ItemID: item.ID, Quantity: 3, SellerID: "clerk", IdempotencyKey: "txn-9"})
	var transient *service.TransientError
	require.True(t, errors.As(err, &transient), "unwritable snapshot must surface as retryable")

	after, err := s.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, after.Quantity, "failed persist must undo the decrement")
	assert.Equal(t, "tester", after.UpdatedBy, "failed persist must undo the audit stamp")
	assert.Equal(t, item.UpdatedAt, after.UpdatedAt)

	sales, err := s.Ledger().FindAll()
	require.NoError(t, err)
	assert.Empty(t, sales, "failed persist must undo the ledger append")

	// Once the path is writable again the same request goes through as a
	// fresh sale; the failed attempt must not have claimed its key.
	require.NoError(t, os.Remove(path))
	outcome, err := s.Sell(ctx, &model.SellRequest{ItemID: item.ID, Quantity: 3, SellerID: "clerk", IdempotencyKey: "txn-9"})
	require.NoError(t, err)
	assert.Equal(t, 7, outcome.RemainingStock)
}

func TestSellCustomRejectsNegativeTotal(t *testing.T) {
	s := newStore(t)

	_, err := s.SellCustom(context.Background(), &model.CustomSaleRequest{Name: "Refund", Quantity: 1, TotalCents: -500, SellerID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative")

	sales, err := s.Ledger().FindAll()
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestCreateItemRejectsDuplicateSKU(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	addItem(t, s, "Aspirin", "ASP-01", 10, 250)

	err := s.CreateItem(ctx, &model.Item{Name: "Other", SKU: "ASP-01", Quantity: 1, UnitPriceCents: 100}, "tester")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SKU already exists")
}
