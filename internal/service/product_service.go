package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"supermarket-pos/internal/model"
	"supermarket-pos/internal/repository"
	"supermarket-pos/pkg/apperror"
	"supermarket-pos/pkg/validator"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const expiryDateLayout = "2006-01-02"

type CreateProductRequest struct {
	Name              string            `json:"name" validate:"required,max=255"`
	Barcode           string            `json:"barcode" validate:"required,max=64"`
	CategoryID        uint              `json:"category_id" validate:"required"`
	BuyingPrice       *decimal.Decimal  `json:"buying_price" validate:"required"`
	SellingPrice      *decimal.Decimal  `json:"selling_price" validate:"required"`
	StockQuantity     *int              `json:"stock_quantity" validate:"required,min=0"`
	VATCategory       model.VATCategory `json:"vat_category" validate:"omitempty,oneof=STANDARD ZERO_RATED EXEMPT"`
	ExpiryDate        *string           `json:"expiry_date"` // Format: YYYY-MM-DD
	LowStockThreshold *int              `json:"low_stock_threshold" validate:"omitempty,min=0"`
	IsActive          *bool             `json:"is_active"`
}

type UpdateProductRequest struct {
	Name              *string            `json:"name" validate:"omitempty,min=1,max=255"`
	Barcode           *string            `json:"barcode" validate:"omitempty,min=1,max=64"`
	CategoryID        *uint              `json:"category_id" validate:"omitempty,min=1"`
	BuyingPrice       *decimal.Decimal   `json:"buying_price"`
	SellingPrice      *decimal.Decimal   `json:"selling_price"`
	StockQuantity     *int               `json:"stock_quantity" validate:"omitempty,min=0"`
	VATCategory       *model.VATCategory `json:"vat_category" validate:"omitempty,oneof=STANDARD ZERO_RATED EXEMPT"`
	ExpiryDate        *string            `json:"expiry_date"` // Format: YYYY-MM-DD, empty clears it
	LowStockThreshold *int               `json:"low_stock_threshold" validate:"omitempty,min=0"`
	IsActive          *bool              `json:"is_active"`
}

type ProductService interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	CreateProduct(ctx context.Context, req *CreateProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uint, req *UpdateProductRequest) (*model.Product, error)
	// DeleteProduct reports deactivated=true when the product was kept for sale history
	DeleteProduct(ctx context.Context, id uint) (deactivated bool, err error)
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	publisher    EventPublisher
}

func NewProductService(pRepo repository.ProductRepository, cRepo repository.CategoryRepository, publisher EventPublisher) ProductService {
	return &productService{
		productRepo:  pRepo,
		categoryRepo: cRepo,
		publisher:    publisher,
	}
}

func (s *productService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error) {
	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return products, total, nil
}

func (s *productService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrProductNotFound, "Product not found")
	}
	return product, nil
}

func (s *productService) GetProductByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	product, err := s.productRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, notFoundOr(err, ErrProductNotFound, "Product not found")
	}
	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*model.Product, error) {
	// 1. Validate request shape
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	// 2. Price rule, checked on the stored precision
	buying, selling := req.BuyingPrice.Round(2), req.SellingPrice.Round(2)
	if err := validateProductPrices(buying, selling); err != nil {
		return nil, err
	}

	expiry, err := parseExpiryDate(req.ExpiryDate)
	if err != nil {
		return nil, err
	}

	// 3. Referential checks
	barcode := strings.TrimSpace(req.Barcode)
	if err := s.ensureBarcodeFree(ctx, barcode, 0); err != nil {
		return nil, err
	}
	if err := s.ensureCategoryExists(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	// 4. Defaults are explicit so a false/zero from the client is kept
	product := &model.Product{
		Name:              strings.TrimSpace(req.Name),
		Barcode:           barcode,
		CategoryID:        req.CategoryID,
		BuyingPrice:       buying,
		SellingPrice:      selling,
		StockQuantity:     *req.StockQuantity,
		VATCategory:       model.VATStandard,
		ExpiryDate:        expiry,
		LowStockThreshold: model.DefaultLowStockThreshold,
		IsActive:          true,
	}
	if req.VATCategory != "" {
		product.VATCategory = req.VATCategory
	}
	if req.LowStockThreshold != nil {
		product.LowStockThreshold = *req.LowStockThreshold
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	// 5. Save
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, translateWriteError(err, "Product with this barcode already exists")
	}

	created, err := s.productRepo.FindByID(ctx, product.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	s.notify("product_created", created)
	return created, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uint, req *UpdateProductRequest) (*model.Product, error) {
	// 1. Validate request shape
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	// 2. Find existing product
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrProductNotFound, "Product not found")
	}

	// 3. Merge, then check the rules against the merged state
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Barcode != nil {
		barcode := strings.TrimSpace(*req.Barcode)
		if barcode != product.Barcode {
			if err := s.ensureBarcodeFree(ctx, barcode, product.ID); err != nil {
				return nil, err
			}
		}
		product.Barcode = barcode
	}
	if req.CategoryID != nil && *req.CategoryID != product.CategoryID {
		if err := s.ensureCategoryExists(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *req.CategoryID
		product.Category = nil
	}
	if req.BuyingPrice != nil {
		product.BuyingPrice = req.BuyingPrice.Round(2)
	}
	if req.SellingPrice != nil {
		product.SellingPrice = req.SellingPrice.Round(2)
	}
	if err := validateProductPrices(product.BuyingPrice, product.SellingPrice); err != nil {
		return nil, err
	}
	if req.StockQuantity != nil {
		product.StockQuantity = *req.StockQuantity
	}
	if req.VATCategory != nil {
		product.VATCategory = *req.VATCategory
	}
	if req.ExpiryDate != nil {
		expiry, err := parseExpiryDate(req.ExpiryDate)
		if err != nil {
			return nil, err
		}
		product.ExpiryDate = expiry
	}
	if req.LowStockThreshold != nil {
		product.LowStockThreshold = *req.LowStockThreshold
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	// 4. Save
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, translateWriteError(err, "Product with this barcode already exists")
	}

	updated, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	s.notify("product_updated", updated)
	return updated, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uint) (bool, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return false, notFoundOr(err, ErrProductNotFound, "Product not found")
	}

	// Products that appear on past sales are kept and deactivated
	sold, err := s.productRepo.HasSaleItems(ctx, id)
	if err != nil {
		return false, apperror.Internal(err)
	}
	if sold {
		if err := s.productRepo.Deactivate(ctx, id); err != nil {
			return false, apperror.Internal(err)
		}
		product.IsActive = false
		s.notify("product_deactivated", product)
		return true, nil
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return false, apperror.Internal(err)
	}
	s.notify("product_deleted", product)
	return false, nil
}

// validateProductPrices enforces selling_price > buying_price >= 0 before any write
func validateProductPrices(buying, selling decimal.Decimal) error {
	var fields []apperror.FieldError
	if buying.IsNegative() {
		fields = append(fields, apperror.FieldError{Field: "buying_price", Message: "buying_price must be at least 0"})
	}
	if selling.IsNegative() {
		fields = append(fields, apperror.FieldError{Field: "selling_price", Message: "selling_price must be at least 0"})
	}
	if len(fields) > 0 {
		return apperror.Validation("Validation failed", fields...)
	}
	if selling.LessThanOrEqual(buying) {
		return apperror.Wrap(apperror.KindBusinessRule, ErrInvalidPrice, "Selling price must be greater than buying price")
	}
	return nil
}

func parseExpiryDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(expiryDateLayout, strings.TrimSpace(*raw))
	if err != nil {
		return nil, apperror.Validation("Validation failed", apperror.FieldError{
			Field:   "expiry_date",
			Message: "invalid expiry_date format, use YYYY-MM-DD",
		})
	}
	return &parsed, nil
}

func (s *productService) ensureBarcodeFree(ctx context.Context, barcode string, selfID uint) error {
	existing, err := s.productRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperror.Internal(err)
	}
	if existing.ID != selfID {
		return apperror.Conflict("Product with this barcode already exists")
	}
	return nil
}

func (s *productService) ensureCategoryExists(ctx context.Context, categoryID uint) error {
	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Wrap(apperror.KindValidation, ErrCategoryNotFound, "Category not found")
		}
		return apperror.Internal(err)
	}
	return nil
}

func (s *productService) notify(action string, p *model.Product) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(EventStockUpdate, map[string]interface{}{
		"action":  action,
		"product": p.ToResponse(),
	})
}

// translateWriteError turns a unique key race into a Conflict
func translateWriteError(err error, conflictMessage string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Wrap(apperror.KindConflict, err, conflictMessage)
	}
	return apperror.Internal(err)
}
