package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supermarket-pos/internal/model"
	"supermarket-pos/internal/repository"
	"supermarket-pos/pkg/apperror"
	"supermarket-pos/pkg/validator"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxSaleAttempts = 3

// Events pushed to live dashboards after a sale commits
const (
	EventSaleRecorded = "sale_recorded"
	EventStockUpdate  = "stock_update"
)

// EventPublisher receives notifications once a change is durable
type EventPublisher interface {
	Publish(event string, payload interface{})
}

type SaleItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"min=1"`
}

type RecordSaleRequest struct {
	Items         []SaleItemRequest   `json:"items" validate:"required,min=1,dive"`
	PaymentMethod model.PaymentMethod `json:"payment_method" validate:"required,oneof=CASH MOMO CARD"`
	CustomerID    *model.CustomerTag  `json:"customer_id" validate:"omitempty,max=64"`
}

type SaleService interface {
	RecordSale(ctx context.Context, req *RecordSaleRequest, actor *model.User) (*model.Sale, error)
	ListSales(ctx context.Context, filter repository.SaleFilter) ([]model.Sale, int64, error)
	GetSale(ctx context.Context, id uint, actor *model.User) (*model.Sale, error)
}

type stockUpdate struct {
	ProductID     uint   `json:"product_id"`
	Name          string `json:"name"`
	Sold          int    `json:"sold"`
	StockQuantity int    `json:"stock_quantity"`
	LowStock      bool   `json:"low_stock"`
}

type saleService struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	invoices    *InvoiceSequencer
	publisher   EventPublisher
	loc         *time.Location
	now         func() time.Time
	log         zerolog.Logger
}

func NewSaleService(db *gorm.DB, pRepo repository.ProductRepository, sRepo repository.SaleRepository, publisher EventPublisher, loc *time.Location, log zerolog.Logger) SaleService {
	if loc == nil {
		loc = time.Local
	}
	return &saleService{
		db:          db,
		productRepo: pRepo,
		saleRepo:    sRepo,
		invoices:    NewInvoiceSequencer(sRepo),
		publisher:   publisher,
		loc:         loc,
		now:         time.Now,
		log:         log.With().Str("component", "sale").Logger(),
	}
}

func (s *saleService) RecordSale(ctx context.Context, req *RecordSaleRequest, actor *model.User) (*model.Sale, error) {
	// 1. Validate input before opening a transaction
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	if actor == nil || !actor.IsActive || !actor.HasRole(model.RoleAdmin, model.RoleCashier) {
		return nil, apperror.Forbidden("You are not allowed to record sales")
	}

	// 2. Run the whole sale atomically, retrying transient conflicts
	var (
		sale    *model.Sale
		updates []stockUpdate
		err     error
	)
	for attempt := 1; attempt <= maxSaleAttempts; attempt++ {
		sale, updates, err = s.recordOnce(ctx, req, actor)
		if err == nil || !isRetryable(err) {
			break
		}
		s.log.Warn().Err(err).Int("attempt", attempt).Msg("sale transaction conflict, retrying")
	}
	if err != nil {
		return nil, s.classify(err)
	}

	// 3. Reload with user and product summaries
	recorded, err := s.saleRepo.FindByID(ctx, sale.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	s.log.Info().
		Str("invoice", recorded.InvoiceNumber).
		Uint("user_id", actor.ID).
		Str("total", model.Money(recorded.TotalAmount)).
		Int("items", len(recorded.Items)).
		Msg("sale recorded")

	// 4. Notify only after commit so a rollback never reaches clients
	if s.publisher != nil {
		s.publisher.Publish(EventSaleRecorded, recorded.ToResponse())
		for _, u := range updates {
			s.publisher.Publish(EventStockUpdate, u)
		}
	}
	return recorded, nil
}

func (s *saleService) recordOnce(ctx context.Context, req *RecordSaleRequest, actor *model.User) (*model.Sale, []stockUpdate, error) {
	now := s.now().In(s.loc)

	var (
		sale    *model.Sale
		updates []stockUpdate
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoiceNumber, err := s.invoices.Next(tx, now)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		vatTotal := decimal.Zero
		items := make([]model.SaleItem, 0, len(req.Items))
		updates = make([]stockUpdate, 0, len(req.Items))

		for _, line := range req.Items {
			// A. Lock the product row for the rest of the transaction
			product, err := s.productRepo.FindForUpdate(tx, line.ProductID)
			if err != nil {
				return notFoundOr(err, ErrProductNotFound, fmt.Sprintf("Product with ID %d not found", line.ProductID))
			}

			// B. Business checks
			if !product.IsActive {
				return apperror.Wrap(apperror.KindBusinessRule, ErrProductInactive,
					fmt.Sprintf("Product %s is not active", product.Name))
			}
			if product.StockQuantity < line.Quantity {
				return insufficientStock(product)
			}

			// C. Snapshot prices and accumulate
			amounts := ComputeLine(product.SellingPrice, line.Quantity, product.VATCategory)
			subtotal = subtotal.Add(amounts.TotalPrice)
			vatTotal = vatTotal.Add(amounts.VATAmount)

			// D. Conditional decrement closes the gap between check and write
			if err := s.productRepo.DecrementStock(tx, product.ID, line.Quantity); err != nil {
				if errors.Is(err, repository.ErrStockConflict) {
					return insufficientStock(product)
				}
				return err
			}

			items = append(items, model.SaleItem{
				ProductID:  product.ID,
				Quantity:   line.Quantity,
				UnitPrice:  amounts.UnitPrice,
				VATAmount:  amounts.VATAmount,
				TotalPrice: amounts.TotalPrice,
			})
			remaining := product.StockQuantity - line.Quantity
			updates = append(updates, stockUpdate{
				ProductID:     product.ID,
				Name:          product.Name,
				Sold:          line.Quantity,
				StockQuantity: remaining,
				LowStock:      remaining <= product.LowStockThreshold,
			})
		}

		sale = &model.Sale{
			InvoiceNumber: invoiceNumber,
			UserID:        actor.ID,
			CustomerID:    normalizeCustomer(req.CustomerID),
			Subtotal:      subtotal,
			VATTotal:      vatTotal,
			TotalAmount:   subtotal.Add(vatTotal),
			PaymentMethod: req.PaymentMethod,
			Status:        model.SaleCompleted,
			CreatedAt:     now,
			Items:         items,
		}
		return s.saleRepo.Create(tx, sale)
	})
	if err != nil {
		return nil, nil, err
	}
	return sale, updates, nil
}

func (s *saleService) ListSales(ctx context.Context, filter repository.SaleFilter) ([]model.Sale, int64, error) {
	if filter.PaymentMethod != "" && !filter.PaymentMethod.Valid() {
		return nil, 0, apperror.Validation("Validation failed", apperror.FieldError{
			Field:   "payment_method",
			Message: "payment_method must be one of [CASH MOMO CARD]",
		})
	}
	sales, total, err := s.saleRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return sales, total, nil
}

// GetSale returns a sale; cashiers may only see the ones they recorded
func (s *saleService) GetSale(ctx context.Context, id uint, actor *model.User) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrSaleNotFound, "Sale not found")
	}
	if actor != nil && actor.Role != model.RoleAdmin && sale.UserID != actor.ID {
		return nil, apperror.Forbidden("You can only view your own sales")
	}
	return sale, nil
}

// classify turns a failed attempt into the error reported to the caller.
// Transient conflicts win over any wrapping applied on the way up.
func (s *saleService) classify(err error) error {
	if isRetryable(err) {
		return apperror.Wrap(apperror.KindConflict, err, "Sale could not be recorded due to concurrent activity, please retry")
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.Internal(err)
}

func insufficientStock(p *model.Product) error {
	return apperror.Wrap(apperror.KindBusinessRule, ErrInsufficientStock,
		fmt.Sprintf("Insufficient stock for %s. Available: %d", p.Name, p.StockQuantity))
}

func normalizeCustomer(tag *model.CustomerTag) *model.CustomerTag {
	if tag == nil || *tag == "" {
		return nil
	}
	return tag
}

// isRetryable reports conflicts that a fresh transaction can resolve:
// a duplicate invoice number, a serialization failure or a deadlock.
func isRetryable(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "40001", "40P01":
			return true
		}
	}
	return false
}
