package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type VATCategory string

const (
	VATStandard  VATCategory = "STANDARD"
	VATZeroRated VATCategory = "ZERO_RATED"
	VATExempt    VATCategory = "EXEMPT"
)

func (v VATCategory) Valid() bool {
	switch v {
	case VATStandard, VATZeroRated, VATExempt:
		return true
	}
	return false
}

// DefaultLowStockThreshold applies when a product is created without a threshold
const DefaultLowStockThreshold = 10

type Product struct {
	BaseModel
	Name              string          `gorm:"type:varchar(255);not null" json:"name"`
	Barcode           string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"barcode"`
	CategoryID        uint            `gorm:"not null;index" json:"category_id"`
	Category          *Category       `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category,omitempty"`
	BuyingPrice       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"buying_price"`
	SellingPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"selling_price"`
	StockQuantity     int             `gorm:"not null;check:chk_products_stock_quantity,stock_quantity >= 0" json:"stock_quantity"`
	VATCategory       VATCategory     `gorm:"column:vat_category;type:varchar(16);not null" json:"vat_category"`
	ExpiryDate        *time.Time      `json:"expiry_date"`
	LowStockThreshold int             `gorm:"not null" json:"low_stock_threshold"`
	IsActive          bool            `gorm:"not null;index" json:"is_active"`
}

// IsLowStock reports whether the product is at or below its restock floor
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}

// ProductResponse is used for API responses; money is rendered at 2 decimals
type ProductResponse struct {
	ID                uint         `json:"id"`
	Name              string       `json:"name"`
	Barcode           string       `json:"barcode"`
	CategoryID        uint         `json:"category_id"`
	Category          *CategoryRef `json:"category,omitempty"`
	BuyingPrice       string       `json:"buying_price"`
	SellingPrice      string       `json:"selling_price"`
	StockQuantity     int          `json:"stock_quantity"`
	VATCategory       VATCategory  `json:"vat_category"`
	ExpiryDate        *time.Time   `json:"expiry_date"`
	LowStockThreshold int          `json:"low_stock_threshold"`
	IsActive          bool         `json:"is_active"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

func (p *Product) ToResponse() ProductResponse {
	resp := ProductResponse{
		ID:                p.ID,
		Name:              p.Name,
		Barcode:           p.Barcode,
		CategoryID:        p.CategoryID,
		BuyingPrice:       Money(p.BuyingPrice),
		SellingPrice:      Money(p.SellingPrice),
		StockQuantity:     p.StockQuantity,
		VATCategory:       p.VATCategory,
		ExpiryDate:        p.ExpiryDate,
		LowStockThreshold: p.LowStockThreshold,
		IsActive:          p.IsActive,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if p.Category != nil {
		resp.Category = &CategoryRef{ID: p.Category.ID, Name: p.Category.Name}
	}
	return resp
}

// ProductReference is the summary listed under a category
type ProductReference struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Barcode       string `json:"barcode"`
	StockQuantity int    `json:"stock_quantity"`
	SellingPrice  string `json:"selling_price"`
}

func (p *Product) ToReference() ProductReference {
	return ProductReference{
		ID:            p.ID,
		Name:          p.Name,
		Barcode:       p.Barcode,
		StockQuantity: p.StockQuantity,
		SellingPrice:  Money(p.SellingPrice),
	}
}

// LowStockProduct is the row shape of the low stock alert list
type LowStockProduct struct {
	ID                uint   `json:"id"`
	Name              string `json:"name"`
	StockQuantity     int    `json:"stock_quantity"`
	LowStockThreshold int    `json:"low_stock_threshold"`
}

// Money renders a currency amount with exactly two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
