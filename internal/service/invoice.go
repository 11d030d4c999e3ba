package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"supermarket-pos/internal/repository"
	"supermarket-pos/pkg/apperror"

	"gorm.io/gorm"
)

const (
	invoiceDateLayout  = "20060102"
	maxInvoiceSequence = 99999
)

// InvoicePrefix is the per-day prefix shared by every invoice number of day
func InvoicePrefix(day time.Time) string {
	return day.Format(invoiceDateLayout) + "-"
}

// FormatInvoiceNumber renders YYYYMMDD-NNNNN
func FormatInvoiceNumber(day time.Time, sequence int) string {
	return fmt.Sprintf("%s%05d", InvoicePrefix(day), sequence)
}

// InvoiceSequencer allocates per-day invoice numbers inside the caller's transaction.
type InvoiceSequencer struct {
	sales repository.SaleRepository
}

func NewInvoiceSequencer(sales repository.SaleRepository) *InvoiceSequencer {
	return &InvoiceSequencer{sales: sales}
}

// Next returns the number following the greatest invoice issued on day.
// The sale insert must happen in the same tx.
func (s *InvoiceSequencer) Next(tx *gorm.DB, day time.Time) (string, error) {
	prefix := InvoicePrefix(day)
	if err := s.sales.LockInvoiceDay(tx, prefix); err != nil {
		return "", err
	}

	last, err := s.sales.LastInvoiceNumber(tx, prefix)
	if err != nil {
		return "", err
	}

	sequence := 1
	if last != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(last, prefix))
		if err != nil {
			return "", fmt.Errorf("malformed invoice number %q: %w", last, err)
		}
		sequence = n + 1
	}

	if sequence > maxInvoiceSequence {
		return "", apperror.Wrap(apperror.KindBusinessRule, ErrInvoiceSequenceExhausted,
			fmt.Sprintf("Daily invoice limit of %d reached", maxInvoiceSequence))
	}
	return FormatInvoiceNumber(day, sequence), nil
}
