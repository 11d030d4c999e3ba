package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "CASH"
	PaymentMomo PaymentMethod = "MOMO"
	PaymentCard PaymentMethod = "CARD"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentMomo, PaymentCard:
		return true
	}
	return false
}

type SaleStatus string

const (
	SaleCompleted SaleStatus = "COMPLETED"
	SaleCancelled SaleStatus = "CANCELLED"
)

// CustomerTag is an opaque customer reference carried on a sale. There is no
// customer entity behind it; clients send either a number or a string.
type CustomerTag string

func (t *CustomerTag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = CustomerTag(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("customer_id must be a string or a number")
	}
	*t = CustomerTag(n.String())
	return nil
}

// Sale is immutable once recorded, so it carries no update timestamp.
type Sale struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	InvoiceNumber string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"invoice_number"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	User          *User           `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"user,omitempty"`
	CustomerID    *CustomerTag    `gorm:"column:customer_id;type:varchar(64)" json:"customer_id"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	VATTotal      decimal.Decimal `gorm:"column:vat_total;type:decimal(12,2);not null" json:"vat_total"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(8);not null;index" json:"payment_method"`
	Status        SaleStatus      `gorm:"type:varchar(16);not null;index" json:"status"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	Items         []SaleItem      `gorm:"foreignKey:SaleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
}

type SaleItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	SaleID     uint            `gorm:"not null;index" json:"sale_id"`
	ProductID  uint            `gorm:"not null;index" json:"product_id"`
	Product    *Product        `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity   int             `gorm:"not null;check:chk_sale_items_quantity,quantity >= 1" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	VATAmount  decimal.Decimal `gorm:"column:vat_amount;type:decimal(12,2);not null" json:"vat_amount"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
}

// SaleProductRef is the product summary embedded in a sale line
type SaleProductRef struct {
	ID          uint        `json:"id"`
	Name        string      `json:"name"`
	Barcode     string      `json:"barcode"`
	VATCategory VATCategory `json:"vat_category"`
}

type SaleItemResponse struct {
	ID         uint            `json:"id"`
	ProductID  uint            `json:"product_id"`
	Product    *SaleProductRef `json:"product,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitPrice  string          `json:"unit_price"`
	VATAmount  string          `json:"vat_amount"`
	TotalPrice string          `json:"total_price"`
}

type SaleResponse struct {
	ID            uint               `json:"id"`
	InvoiceNumber string             `json:"invoice_number"`
	UserID        uint               `json:"user_id"`
	User          *UserRef           `json:"user,omitempty"`
	CustomerID    *CustomerTag       `json:"customer_id"`
	Subtotal      string             `json:"subtotal"`
	VATTotal      string             `json:"vat_total"`
	TotalAmount   string             `json:"total_amount"`
	PaymentMethod PaymentMethod      `json:"payment_method"`
	Status        SaleStatus         `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	Items         []SaleItemResponse `json:"items"`
}

func (s *Sale) ToResponse() SaleResponse {
	resp := SaleResponse{
		ID:            s.ID,
		InvoiceNumber: s.InvoiceNumber,
		UserID:        s.UserID,
		CustomerID:    s.CustomerID,
		Subtotal:      Money(s.Subtotal),
		VATTotal:      Money(s.VATTotal),
		TotalAmount:   Money(s.TotalAmount),
		PaymentMethod: s.PaymentMethod,
		Status:        s.Status,
		CreatedAt:     s.CreatedAt,
		Items:         make([]SaleItemResponse, 0, len(s.Items)),
	}
	if s.User != nil {
		resp.User = &UserRef{ID: s.User.ID, FullName: s.User.FullName, Username: s.User.Username}
	}
	for i := range s.Items {
		resp.Items = append(resp.Items, s.Items[i].ToResponse())
	}
	return resp
}

func (i *SaleItem) ToResponse() SaleItemResponse {
	resp := SaleItemResponse{
		ID:         i.ID,
		ProductID:  i.ProductID,
		Quantity:   i.Quantity,
		UnitPrice:  Money(i.UnitPrice),
		VATAmount:  Money(i.VATAmount),
		TotalPrice: Money(i.TotalPrice),
	}
	if i.Product != nil {
		resp.Product = &SaleProductRef{
			ID:          i.Product.ID,
			Name:        i.Product.Name,
			Barcode:     i.Product.Barcode,
			VATCategory: i.Product.VATCategory,
		}
	}
	return resp
}
