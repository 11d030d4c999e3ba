package repository

import (
	"context"
	"time"

	"supermarket-pos/internal/model"

	"gorm.io/gorm"
)

// SaleFilter narrows sale listings. Zero values mean "no filter".
type SaleFilter struct {
	StartDate     *time.Time
	EndDate       *time.Time
	UserID        uint
	PaymentMethod model.PaymentMethod
	PageRequest
}

type SaleRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Sale, error)
	List(ctx context.Context, filter SaleFilter) ([]model.Sale, int64, error)

	// Transactional helpers used by the sale engine
	Create(tx *gorm.DB, sale *model.Sale) error
	LockInvoiceDay(tx *gorm.DB, prefix string) error
	LastInvoiceNumber(tx *gorm.DB, prefix string) (string, error)
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func preloadSaleDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("User").Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Preload("Items.Product")
}

func (r *saleRepo) FindByID(ctx context.Context, id uint) (*model.Sale, error) {
	var sale model.Sale
	if err := preloadSaleDetails(r.db.WithContext(ctx)).First(&sale, id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) List(ctx context.Context, filter SaleFilter) ([]model.Sale, int64, error) {
	page := filter.PageRequest.Normalize()

	q := r.db.WithContext(ctx).Model(&model.Sale{})
	if filter.StartDate != nil {
		q = q.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("created_at <= ?", *filter.EndDate)
	}
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.PaymentMethod != "" {
		q = q.Where("payment_method = ?", filter.PaymentMethod)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sales []model.Sale
	err := preloadSaleDetails(q).
		Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&sales).Error
	return sales, total, err
}

// Create inserts the sale together with its items
func (r *saleRepo) Create(tx *gorm.DB, sale *model.Sale) error {
	return tx.Omit("User").Create(sale).Error
}

// LockInvoiceDay serializes invoice allocation for one day until tx ends.
// Only Postgres has advisory locks; other dialects rely on the unique index.
func (r *saleRepo) LockInvoiceDay(tx *gorm.DB, prefix string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix).Error
}

// LastInvoiceNumber returns the greatest invoice number starting with prefix, or "".
func (r *saleRepo) LastInvoiceNumber(tx *gorm.DB, prefix string) (string, error) {
	var numbers []string
	err := tx.Model(&model.Sale{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Order("invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &numbers).Error
	if err != nil || len(numbers) == 0 {
		return "", err
	}
	return numbers[0], nil
}
