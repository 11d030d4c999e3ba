package service

import (
	"context"
	"testing"
	"time"

	"supermarket-pos/internal/model"
	"supermarket-pos/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary(t *testing.T) {
	f := newFixture(t)
	reports := NewReportService(repository.NewReportRepo(f.db), time.UTC).(*reportService)
	reports.now = fixedClock(time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC))
	ctx := context.Background()

	cashier := seedUser(t, f.db, "cashier", model.RoleCashier)
	cat := seedCategory(t, f.db, "Misc")
	p := seedProduct(t, f.db, cat, "A", productOpts{price: "100.00", stock: 14})
	seedProduct(t, f.db, cat, "LOW-INACTIVE", productOpts{stock: 1, inactive: true})

	// Yesterday's sale is outside today's window
	f.svc.now = fixedClock(time.Date(2024, 12, 31, 20, 0, 0, 0, time.UTC))
	_, err := f.svc.RecordSale(ctx, basket(model.PaymentCash, line(p.ID, 1)), cashier)
	require.NoError(t, err)

	f.svc.now = fixedClock(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))
	_, err = f.svc.RecordSale(ctx, basket(model.PaymentCash, line(p.ID, 2)), cashier)
	require.NoError(t, err)
	_, err = f.svc.RecordSale(ctx, basket(model.PaymentMomo, line(p.ID, 1)), cashier)
	require.NoError(t, err)

	summary, err := reports.Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), summary.TodaySales.TransactionCount)
	assert.Equal(t, "354.00", summary.TodaySales.TotalSales)

	require.Len(t, summary.SalesByPaymentMethod, 2)
	assert.Equal(t, model.PaymentCash, summary.SalesByPaymentMethod[0].PaymentMethod)
	assert.Equal(t, "236.00", summary.SalesByPaymentMethod[0].Total)
	assert.Equal(t, model.PaymentMomo, summary.SalesByPaymentMethod[1].PaymentMethod)
	assert.Equal(t, "118.00", summary.SalesByPaymentMethod[1].Total)

	// 14 - 4 sold = 10, at the threshold; the inactive product is ignored
	require.Len(t, summary.LowStockProducts, 1)
	assert.Equal(t, p.ID, summary.LowStockProducts[0].ID)
	assert.Equal(t, 10, summary.LowStockProducts[0].StockQuantity)
}

func TestSummaryOnEmptyDay(t *testing.T) {
	f := newFixture(t)
	summary, err := NewReportService(repository.NewReportRepo(f.db), time.UTC).Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.00", summary.TodaySales.TotalSales)
	assert.Zero(t, summary.TodaySales.TransactionCount)
	assert.Empty(t, summary.SalesByPaymentMethod)
	assert.Empty(t, summary.LowStockProducts)
}
