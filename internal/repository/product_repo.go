package repository

import (
	"context"
	"errors"
	"strings"

	"supermarket-pos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStockConflict means a conditional decrement matched no row: the stock moved below the requested quantity.
var ErrStockConflict = errors.New("stock changed concurrently")

// ProductFilter narrows product listings. Zero values mean "no filter".
type ProductFilter struct {
	Search     string
	CategoryID uint
	LowStock   bool
	PageRequest
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	CountByCategory(ctx context.Context, categoryID uint) (int64, error)
	HasSaleItems(ctx context.Context, id uint) (bool, error)
	Deactivate(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error

	// Transactional helpers used by the sale engine
	FindForUpdate(tx *gorm.DB, id uint) (*model.Product, error)
	DecrementStock(tx *gorm.DB, id uint, quantity int) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Preload("Category").Where("barcode = ?", barcode).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	page := filter.PageRequest.Normalize()

	q := r.db.WithContext(ctx).Model(&model.Product{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		// LOWER keeps the match case-insensitive on every dialect
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(barcode) LIKE ?", like, like)
	}
	if filter.CategoryID != 0 {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.LowStock {
		q = q.Where("stock_quantity <= low_stock_threshold")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	err := q.Preload("Category").
		Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&products).Error
	return products, total, err
}

func (r *productRepo) CountByCategory(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

func (r *productRepo) HasSaleItems(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SaleItem{}).Where("product_id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *productRepo) Deactivate(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("is_active", false).Error
}

func (r *productRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Product{}, id).Error
}

// FindForUpdate loads the product and holds its row lock until tx ends
func (r *productRepo) FindForUpdate(tx *gorm.DB, id uint) (*model.Product, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var product model.Product
	if err := q.First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementStock subtracts quantity only while enough stock remains.
func (r *productRepo) DecrementStock(tx *gorm.DB, id uint, quantity int) error {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockConflict
	}
	return nil
}
