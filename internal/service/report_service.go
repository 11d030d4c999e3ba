package service

import (
	"context"
	"time"

	"supermarket-pos/internal/model"
	"supermarket-pos/internal/repository"
	"supermarket-pos/pkg/apperror"
)

type TodaySales struct {
	TotalSales       string `json:"total_sales"`
	TransactionCount int64  `json:"transaction_count"`
}

type PaymentMethodSales struct {
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	Total         string              `json:"total"`
	Count         int64               `json:"count"`
}

type SalesSummary struct {
	TodaySales           TodaySales              `json:"today_sales"`
	SalesByPaymentMethod []PaymentMethodSales    `json:"sales_by_payment_method"`
	LowStockProducts     []model.LowStockProduct `json:"low_stock_products"`
}

type ReportService interface {
	Summary(ctx context.Context) (*SalesSummary, error)
}

type reportService struct {
	reportRepo repository.ReportRepository
	loc        *time.Location
	now        func() time.Time
}

func NewReportService(rRepo repository.ReportRepository, loc *time.Location) ReportService {
	if loc == nil {
		loc = time.Local
	}
	return &reportService{reportRepo: rRepo, loc: loc, now: time.Now}
}

// Summary covers completed sales since local midnight plus the low stock alerts
func (s *reportService) Summary(ctx context.Context) (*SalesSummary, error) {
	now := s.now().In(s.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	totals, err := s.reportRepo.SalesSince(ctx, midnight)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	byMethod, err := s.reportRepo.SalesByPaymentMethod(ctx, midnight)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	lowStock, err := s.reportRepo.LowStockProducts(ctx, repository.LowStockLimit)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	summary := &SalesSummary{
		TodaySales: TodaySales{
			TotalSales:       model.Money(totals.TotalSales),
			TransactionCount: totals.TransactionCount,
		},
		SalesByPaymentMethod: make([]PaymentMethodSales, 0, len(byMethod)),
		LowStockProducts:     lowStock,
	}
	for _, row := range byMethod {
		summary.SalesByPaymentMethod = append(summary.SalesByPaymentMethod, PaymentMethodSales{
			PaymentMethod: row.PaymentMethod,
			Total:         model.Money(row.Total),
			Count:         row.Count,
		})
	}
	return summary, nil
}
