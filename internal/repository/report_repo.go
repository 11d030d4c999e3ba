package repository

import (
	"context"
	"time"

	"supermarket-pos/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LowStockLimit caps the alert list of the daily summary
const LowStockLimit = 10

// SalesTotals aggregates completed sales in a period
type SalesTotals struct {
	TotalSales       decimal.Decimal `json:"total_sales"`
	TransactionCount int64           `json:"transaction_count"`
}

// PaymentMethodTotal is one row of the sales-by-payment-method breakdown
type PaymentMethodTotal struct {
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	Total         decimal.Decimal     `json:"total"`
	Count         int64               `json:"count"`
}

type ReportRepository interface {
	SalesSince(ctx context.Context, since time.Time) (*SalesTotals, error)
	SalesByPaymentMethod(ctx context.Context, since time.Time) ([]PaymentMethodTotal, error)
	LowStockProducts(ctx context.Context, limit int) ([]model.LowStockProduct, error)
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db}
}

func (r *reportRepo) SalesSince(ctx context.Context, since time.Time) (*SalesTotals, error) {
	var totals SalesTotals
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("COALESCE(SUM(total_amount), 0) AS total_sales, COUNT(id) AS transaction_count").
		Where("status = ? AND created_at >= ?", model.SaleCompleted, since).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

func (r *reportRepo) SalesByPaymentMethod(ctx context.Context, since time.Time) ([]PaymentMethodTotal, error) {
	results := []PaymentMethodTotal{}
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("payment_method, COALESCE(SUM(total_amount), 0) AS total, COUNT(id) AS count").
		Where("status = ? AND created_at >= ?", model.SaleCompleted, since).
		Group("payment_method").
		Order("payment_method ASC").
		Scan(&results).Error
	return results, err
}

// LowStockProducts lists active products at or below their threshold, lowest stock first
func (r *reportRepo) LowStockProducts(ctx context.Context, limit int) ([]model.LowStockProduct, error) {
	results := []model.LowStockProduct{}
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("id, name, stock_quantity, low_stock_threshold").
		Where("is_active = ? AND stock_quantity <= low_stock_threshold", true).
		Order("stock_quantity ASC").Order("id ASC").
		Limit(limit).
		Scan(&results).Error
	return results, err
}
