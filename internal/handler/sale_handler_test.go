package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aody34/Darusalaampharmcy/internal/handler"
	"github.com/aody34/Darusalaampharmcy/internal/middleware"
	"github.com/aody34/Darusalaampharmcy/internal/service"
	"github.com/aody34/Darusalaampharmcy/internal/store/memstore"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newTestApp wires the embedded store behind the same routes cmd/pos uses.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store, err := memstore.New("")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	reportService := service.NewReportService(store.Inventory(), store.Ledger())
	saleHandler := handler.NewSaleHandler(store, reportService)
	itemHandler := handler.NewItemHandler(store)
	dashHandler := handler.NewDashboardHandler(reportService)

	app := fiber.New()
	api := app.Group("/api/v1", middleware.StaticSeller("counter-1"))
	api.Get("/dashboard/stats", dashHandler.GetDashboardStats)
	api.Get("/items", itemHandler.GetItems)
	api.Post("/items", itemHandler.CreateItem)
	api.Get("/sales", saleHandler.GetSalesReport)
	api.Post("/sales", saleHandler.CreateSale)
	api.Post("/sales/custom", saleHandler.CreateCustomSale)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func createItem(t *testing.T, app *fiber.App, name, sku string, quantity int, priceCents int64) string {
	t.Helper()
	status, env := doJSON(t, app, http.MethodPost, "/api/v1/items", fiber.Map{
		"name": name, "sku": sku, "quantity": quantity, "unit_price_cents": priceCents,
	})
	require.Equal(t, http.StatusCreated, status)
	require.True(t, env.Success)

	var item struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &item))
	return item.ID
}

func TestCreateSaleEndpoint(t *testing.T) {
	app := newTestApp(t)
	itemID := createItem(t, app, "Aspirin", "ASP-01", 10, 250)

	status, env := doJSON(t, app, http.MethodPost, "/api/v1/sales", fiber.Map{
		"item_id": itemID, "quantity": 3,
	})
	require.Equal(t, http.StatusCreated, status)
	require.True(t, env.Success)

	var outcome struct {
		ItemName       string `json:"item_name"`
		QuantitySold   int    `json:"quantity_sold"`
		TotalCents     int64  `json:"total_cents"`
		RemainingStock int    `json:"remaining_stock"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &outcome))
	assert.Equal(t, "Aspirin", outcome.ItemName)
	assert.Equal(t, 3, outcome.QuantitySold)
	assert.Equal(t, int64(750), outcome.TotalCents)
	assert.Equal(t, 7, outcome.RemainingStock)
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	app := newTestApp(t)
	itemID := createItem(t, app, "Aspirin", "ASP-01", 2, 250)

	status, env := doJSON(t, app, http.MethodPost, "/api/v1/sales", fiber.Map{
		"item_id": itemID, "quantity": 5,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, env.Success)
	assert.Equal(t, "INSUFFICIENT_STOCK", env.Error.Code)
	assert.Contains(t, env.Error.Message, "only 2 left")
}

func TestCreateSaleInvalidQuantity(t *testing.T) {
	app := newTestApp(t)
	itemID := createItem(t, app, "Aspirin", "ASP-01", 10, 250)

	status, env := doJSON(t, app, http.MethodPost, "/api/v1/sales", fiber.Map{
		"item_id": itemID, "quantity": 0,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_QUANTITY", env.Error.Code)
}

func TestCreateSaleUnknownItem(t *testing.T) {
	app := newTestApp(t)

	status, env := doJSON(t, app, http.MethodPost, "/api/v1/sales", fiber.Map{
		"item_id": "0b6cbad7-4f0d-4d44-8c9a-3d9e6f6f55a1", "quantity": 1,
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "ITEM_NOT_FOUND", env.Error.Code)
}

func TestCustomSaleEndpoint(t *testing.T) {
	app := newTestApp(t)

	status, env := doJSON(t, app, http.MethodPost, "/api/v1/sales/custom", fiber.Map{
		"name": "Consultation", "quantity": 1, "total_cents": 2000,
	})
	require.Equal(t, http.StatusCreated, status)
	require.True(t, env.Success)

	var outcome struct {
		TotalCents int64 `json:"total_cents"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &outcome))
	assert.Equal(t, int64(2000), outcome.TotalCents)
}

func TestSalesReportAndDashboardEndpoints(t *testing.T) {
	app := newTestApp(t)
	itemID := createItem(t, app, "Aspirin", "ASP-01", 10, 250)

	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/sales", fiber.Map{
		"item_id": itemID, "quantity": 3,
	})
	require.Equal(t, http.StatusCreated, status)

	status, env := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/sales?view=%s", "today"), nil)
	require.Equal(t, http.StatusOK, status)
	var report struct {
		TotalRevenueCents int64 `json:"total_revenue_cents"`
		TotalUnits        int   `json:"total_units"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, int64(750), report.TotalRevenueCents)
	assert.Equal(t, 3, report.TotalUnits)

	status, env = doJSON(t, app, http.MethodGet, "/api/v1/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, status)
	var stats struct {
		TotalItems         int   `json:"total_items"`
		TodaysRevenueCents int64 `json:"todays_revenue_cents"`
		LowStockItems      []struct {
			Name string `json:"name"`
		} `json:"low_stock_items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 7, stats.TotalItems)
	assert.Equal(t, int64(750), stats.TodaysRevenueCents)
	require.Len(t, stats.LowStockItems, 1)
	assert.Equal(t, "Aspirin", stats.LowStockItems[0].Name)
}

func TestSalesReportRejectsBadRange(t *testing.T) {
	app := newTestApp(t)

	status, env := doJSON(t, app, http.MethodGet, "/api/v1/sales?view=range&start=2025-03-10", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
}
