package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/aody34/Darusalaampharmcy/internal/model"
)

// TopItemsLimit caps the per-report "top items by revenue" list.
const TopItemsLimit = 5

// InventoryReader and LedgerReader are the read-only views the report layer
// needs. Both the GORM repositories and the embedded memstore satisfy them,
// so the same aggregation code serves both deployments. Nothing in this
// service mutates store state.
type InventoryReader interface {
	FindAll() ([]model.Item, error)
}

type LedgerReader interface {
	FindAll() ([]model.SaleRecord, error)
	FindInRange(start, end time.Time) ([]model.SaleRecord, error)
}

// DashboardStats is the overview block for the landing dashboard.
type DashboardStats struct {
	TotalItems           int          `json:"total_items"` // sum of quantities on hand
	TotalStockValueCents int64        `json:"total_stock_value_cents"`
	LowStockItems        []model.Item `json:"low_stock_items"`
	TodaysRevenueCents   int64        `json:"todays_revenue_cents"`
}

// ItemRevenue is one row of the top-items table.
type ItemRevenue struct {
	ItemName     string `json:"item_name"`
	QuantitySold int    `json:"quantity_sold"`
	RevenueCents int64  `json:"revenue_cents"`
}

// SalesReport bundles the sale set for a view with its derived aggregates.
type SalesReport struct {
	View              model.ReportView   `json:"view"`
	Sales             []model.SaleRecord `json:"sales"`
	TotalRevenueCents int64              `json:"total_revenue_cents"`
	TotalUnits        int                `json:"total_units"`
	AverageSaleCents  int64              `json:"average_sale_cents"`
	TopItems          []ItemRevenue      `json:"top_items"`
}

var ErrInvalidRange = errors.New("report range requires valid start and end dates")

type ReportService interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
	SalesReport(ctx context.Context, view model.ReportView, start, end time.Time) (*SalesReport, error)
}

type reportService struct {
	items  InventoryReader
	ledger LedgerReader
}

func NewReportService(items InventoryReader, ledger LedgerReader) ReportService {
	return &reportService{items: items, ledger: ledger}
}

func (s *reportService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	items, err := s.items.FindAll()
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{LowStockItems: []model.Item{}}
	for _, item := range items {
		stats.TotalItems += item.Quantity
		stats.TotalStockValueCents += int64(item.Quantity) * item.UnitPriceCents
		if item.LowStock() {
			stats.LowStockItems = append(stats.LowStockItems, item)
		}
	}

	start, _ := dayBounds(time.Now())
	todays, err := s.ledger.FindInRange(start, time.Now())
	if err != nil {
		return nil, err
	}
	for _, sale := range todays {
		stats.TodaysRevenueCents += sale.TotalCents
	}

	return stats, nil
}

func (s *reportService) SalesReport(ctx context.Context, view model.ReportView, start, end time.Time) (*SalesReport, error) {
	var (
		sales []model.SaleRecord
		err   error
	)

	switch view {
	case model.ReportAll:
		sales, err = s.ledger.FindAll()
	case model.ReportToday:
		dayStart, _ := dayBounds(time.Now())
		sales, err = s.ledger.FindInRange(dayStart, time.Now())
	case model.ReportRange:
		if start.IsZero() || end.IsZero() || end.Before(start) {
			return nil, ErrInvalidRange
		}
		rangeStart, _ := dayBounds(start)
		_, rangeEnd := dayBounds(end)
		sales, err = s.ledger.FindInRange(rangeStart, rangeEnd)
	default:
		return nil, errors.New("unknown report view: " + string(view))
	}
	if err != nil {
		return nil, err
	}

	report := &SalesReport{View: view, Sales: sales, TopItems: []ItemRevenue{}}

	// Records arrive newest first; walk them oldest first so ties in the
	// top-items ranking keep first-appearance order.
	byName := make(map[string]*ItemRevenue)
	order := []string{}
	for i := len(sales) - 1; i >= 0; i-- {
		sale := sales[i]
		report.TotalRevenueCents += sale.TotalCents
		report.TotalUnits += sale.Quantity

		entry, ok := byName[sale.ItemName]
		if !ok {
			entry = &ItemRevenue{ItemName: sale.ItemName}
			byName[sale.ItemName] = entry
			order = append(order, sale.ItemName)
		}
		entry.QuantitySold += sale.Quantity
		entry.RevenueCents += sale.TotalCents
	}

	if len(sales) > 0 {
		report.AverageSaleCents = report.TotalRevenueCents / int64(len(sales))
	}

	ranked := make([]ItemRevenue, 0, len(order))
	for _, name := range order {
		ranked = append(ranked, *byName[name])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RevenueCents > ranked[j].RevenueCents
	})
	if len(ranked) > TopItemsLimit {
		ranked = ranked[:TopItemsLimit]
	}
	report.TopItems = ranked

	return report, nil
}

// dayBounds returns the inclusive bounds of t's local calendar day:
// 00:00:00.000 through the last instant before the next midnight. The end
// is derived from the next calendar date rather than a fixed 24h offset,
// which keeps the bounds right on DST-transition days.
func dayBounds(t time.Time) (time.Time, time.Time) {
	year, month, day := t.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	end := time.Date(year, month, day+1, 0, 0, 0, 0, t.Location()).Add(-time.Nanosecond)
	return start, end
}
