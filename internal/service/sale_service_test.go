package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"supermarket-pos/internal/model"
	"supermarket-pos/internal/repository"
	"supermarket-pos/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func basket(method model.PaymentMethod, lines ...SaleItemRequest) *RecordSaleRequest {
	return &RecordSaleRequest{Items: lines, PaymentMethod: method}
}

func line(productID uint, qty int) SaleItemRequest {
	return SaleItemRequest{ProductID: productID, Quantity: qty}
}

func TestRecordSaleComputesTotals(t *testing.T) {
	f := newFixture(t)
	cashier := seedUser(t, f.db, "cashier", model.RoleCashier)
	cat := seedCategory(t, f.db, "Dairy")
	p1 := seedProduct(t, f.db, cat, "P1", productOpts{price: "100.00", stock: 10})

	sale, err := f.svc.RecordSale(context.Background(), basket(model.PaymentCash, line(p1.ID, 2)), cashier)
	require.NoError(t, err)

	assert.Equal(t, "200.00", model.Money(sale.Subtotal))
	assert.Equal(t, "36.00", model.Money(sale.VATTotal))
	assert.Equal(t, "236.00", model.Money(sale.TotalAmount))
	assert.Equal(t, model.SaleCompleted, sale.Status)
	assert.Equal(t, "20250101-00001", sale.InvoiceNumber)

	require.Len(t, sale.Items, 1)
	item := sale.Items[0]
	assert.Equal(t, "100.00", model.Money(item.UnitPrice))
	assert.Equal(t, "200.00", model.Money(item.TotalPrice))
	assert.Equal(t, "36.00", model.Money(item.VATAmount))
	require.NotNil(t, item.Product)
	assert.Equal(t, "P1", item.Product.Barcode)
	require.NotNil(t, sale.User)
	assert.Equal(t, cashier.Username, sale.User.Username)

	assert.Equal(t, 8, stockOf(t, f.db, p1.ID))
	assert.Equal(t, 1, f.publisher.count(EventSaleRecorded))
	assert.Equal(t, 1, f.publisher.count(EventStockUpdate))
}

func TestRecordSaleTotalsAddUpAcrossMixedBasket(t *testing.T) {
	f := newFixture(t)
	cashier := seedUser(t, f.db, "cashier", model.RoleCashier)
	cat := seedCategory(t, f.db, "Grocery")
	std := seedProduct(t, f.db, cat, "STD", productOpts{price: "3.33", stock: 50})
	zero := seedProduct(t, f.db, cat, "ZERO", productOpts{price: "12.49", stock: 50, vat: model.VATZeroRated})
	exempt := seedProduct(t, f.db, cat, "EX", productOpts{price: "0.99", stock: 50, vat: model.VATExempt})

	sale, err := f.svc.RecordSale(context.Background(),
		basket(model.PaymentCard, line(std.ID, 7), line(zero.ID, 3), line(exempt.ID, 11)), cashier)
	require.NoError(t, err)

	subtotal, vat := decimal.Zero, decimal.Zero
	for _, it := range sale.Items {
		subtotal = subtotal.Add(it.TotalPrice)
		vat = vat.Add(it.VATAmount)
	}
	assert.True(t, subtotal.Equal(sale.Subtotal), "subtotal %s != sum %s", sale.Subtotal, subtotal)
	assert.True(t, vat.Equal(sale.VATTotal))
	assert.True(t, sale.Subtotal.Add(sale.VATTotal).Equal(sale.TotalAmount))

	// 3.33*7 = 23.31, VAT 4.1958 -> 4.20; others untaxed
	assert.Equal(t, "4.20", model.Money(sale.VATTotal))
	assert.Equal(t, "71.67", model.Money(sale.Subtotal))
	assert.Equal(t, "75.87", model.Money(sale.TotalAmount))
}

func TestRecordSaleRollsBackOnInsufficientStock(t *testing.T) {
	f := newFixture(t)
	cashier := seedUser(t, f.db, "cashier", model.RoleCashier)
	cat := seedCategory(t, f.db, "Bakery")
	plenty := seedProduct(t, f.db, cat, "A", productOpts{stock: 10})
	scarce := seedProduct(t, f.db, cat, "B", productOpts{stock: 1})

	_, err := f.svc.RecordSale(context.Background(),
		basket(model.PaymentCash, line(plenty.ID, 2), line(scarce.ID, 5)), cashier)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, apperror.KindBusinessRule, apperror.KindOf(err))

	assert.Equal(t, 10, stockOf(t, f.db, plenty.ID))
	assert.Equal(t, 1, stockOf(t, f.db, scarce.ID))
	assert.Zero(t, countSales(t, f.db))
	assert.Zero(t, f.publisher.count(EventSaleRecorded))
}

func TestRecordSaleRollsBackOnMissingProduct(t *testing.T) {
	f := newFixture(t)
	cashier := seedUser(t, f.db, "cashier", model.RoleCashier)
	cat := seedCategory(t, f.db, "Drinks")
	p := seedProduct(t, f.db, cat, "A", productOpts{stock: 4})

	_, err := f.svc.RecordSale(context.Background(),
		basket(model.PaymentMomo, line(p.ID, 1), line(9999, 1)), cashier)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Equal(t, 4, stockOf(t, f.db, p.ID))
	assert.Zero(t, countSales(t, f.db))
}

func TestRecordSaleRejectsInactiveProduct(t *testing.T) {
	f := newFixture(t)
	cashier := seedUser(t, f.db, "cashier", model.RoleCashier)
	cat := seedCategory(t, f.db, "Frozen")
	p := seedProduct(t, f.db, cat, "A", productOpts{stock: 4, inactive: true})

	_, err := f.svc.RecordSale(context.Background(), basket(model.PaymentCash, line(p.ID, 1)), cashier)
	assert.ErrorIs(t, err, ErrProductInactive)
	assert.Equal(t, 4, stockOf(t, f.db, p.ID))
}

func TestRecordSaleValidatesRequest(t *testing.T) {
	f := newFixture(t)
	cashier := seedUser(t, f.db, "cashier", model.RoleCashier)

	cases := map[string]*RecordSaleRequest{
		"empty basket":   basket(model.PaymentCash),
		"zero quantity":  basket(model.PaymentCash, line(1, 0)),
		"bad method":     basket("CHEQUE", line(1, 1)),
		"missing method": basket("", line(1, 1)),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.RecordSale(context.Background(), req, cashier)
			require.Error(t, err)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		})
	}
}

func TestRecordSaleRequiresActiveActor(t *testing.T) {
	f := newFixture(t)
	cashier := seedUser(t, f.db, "cashier", model.RoleCashier)
	cashier.IsActive = false

	_, err := f.svc.RecordSale(context.Background(), basket(model.PaymentCash, line(1, 1)), cashier)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}

func TestInvoiceNumbersIncreaseWithinDay(t *testing.T) {
	f := newFixture(t)
	cashier := seedUser(t, f.db, "cashier", model.RoleCashier)
	cat := seedCategory(t, f.db, "Snacks")
	p := seedProduct(t, f.db, cat, "A", productOpts{stock: 100})

	var invoices []string
	for i := 0; i < 10; i++ {
		sale, err := f.svc.RecordSale(context.Background(), basket(model.PaymentCash, line(p.ID, 1)), cashier)
		require.NoError(t, err)
		invoices = append(invoices, sale.InvoiceNumber)
	}
	assert.Equal(t, "20250101-00001", invoices[0])
	assert.Equal(t, "20250101-00010", invoices[9])

	// A new day starts over
	f.svc.now = fixedClock(time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC))
	sale, err := f.svc.RecordSale(context.Background(), basket(model.PaymentCash, line(p.ID, 1)), cashier)
	require.NoError(t, err)
	assert.Equal(t, "20250102-00001", sale.InvoiceNumber)
}

// One sqlite connection runs these transactions back to back; the lock paths
// are covered by TestConcurrentSalesOnPostgres.
func TestConcurrentSalesOfLastStock(t *testing.T) {
	f := newFixture(t)
	cat := seedCategory(t, f.db, "Produce")
	p := seedProduct(t, f.db, cat, "A", productOpts{stock: 5})
	cashiers := []*model.User{
		seedUser(t, f.db, "one", model.RoleCashier),
		seedUser(t, f.db, "two", model.RoleCashier),
	}

	errs := make([]error, len(cashiers))
	var wg sync.WaitGroup
	for i, c := range cashiers {
		wg.Add(1)
		go func(i int, c *model.User) {
			defer wg.Done()
			_, errs[i] = f.svc.RecordSale(context.Background(), basket(model.PaymentCash, line(p.ID, 5)), c)
		}(i, c)
	}
	wg.Wait()

	succeeded, outOfStock := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ErrInsufficientStock):
			outOfStock++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, outOfStock)
	assert.Equal(t, 0, stockOf(t, f.db, p.ID))
	assert.Equal(t, int64(1), countSales(t, f.db))
}

func TestSaleKeepsPriceSnapshot(t *testing.T) {
	f := newFixture(t)
	cashier := seedUser(t, f.db, "cashier", model.RoleCashier)
	cat := seedCategory(t, f.db, "Household")
	p := seedProduct(t, f.db, cat, "A", productOpts{price: "100.00", stock: 10})

	sale, err := f.svc.RecordSale(context.Background(), basket(model.PaymentCash, line(p.ID, 1)), cashier)
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", p.ID).
		Update("selling_price", dec("150.00")).Error)

	reloaded, err := f.svc.GetSale(context.Background(), sale.ID, cashier)
	require.NoError(t, err)
	assert.Equal(t, "100.00", model.Money(reloaded.Items[0].UnitPrice))
	assert.Equal(t, "118.00", model.Money(reloaded.TotalAmount))
}

func TestRecordSaleKeepsCustomerTag(t *testing.T) {
	f := newFixture(t)
	cashier := seedUser(t, f.db, "cashier", model.RoleCashier)
	cat := seedCategory(t, f.db, "Tea")
	p := seedProduct(t, f.db, cat, "A", productOpts{stock: 3})

	tag := model.CustomerTag("42")
	req := basket(model.PaymentMomo, line(p.ID, 1))
	req.CustomerID = &tag

	sale, err := f.svc.RecordSale(context.Background(), req, cashier)
	require.NoError(t, err)
	require.NotNil(t, sale.CustomerID)
	assert.Equal(t, tag, *sale.CustomerID)
}

func TestGetSaleRestrictsCashiersToOwnSales(t *testing.T) {
	f := newFixture(t)
	owner := seedUser(t, f.db, "owner", model.RoleCashier)
	other := seedUser(t, f.db, "other", model.RoleCashier)
	admin := seedUser(t, f.db, "boss", model.RoleAdmin)
	cat := seedCategory(t, f.db, "Spices")
	p := seedProduct(t, f.db, cat, "A", productOpts{stock: 3})

	sale, err := f.svc.RecordSale(context.Background(), basket(model.PaymentCash, line(p.ID, 1)), owner)
	require.NoError(t, err)

	_, err = f.svc.GetSale(context.Background(), sale.ID, other)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	_, err = f.svc.GetSale(context.Background(), sale.ID, admin)
	assert.NoError(t, err)

	_, err = f.svc.GetSale(context.Background(), 9999, admin)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestListSalesFilters(t *testing.T) {
	f := newFixture(t)
	one := seedUser(t, f.db, "one", model.RoleCashier)
	two := seedUser(t, f.db, "two", model.RoleCashier)
	cat := seedCategory(t, f.db, "Oils")
	p := seedProduct(t, f.db, cat, "A", productOpts{stock: 20})

	for _, r := range []struct {
		user   *model.User
		method model.PaymentMethod
	}{{one, model.PaymentCash}, {one, model.PaymentCard}, {two, model.PaymentCash}} {
		_, err := f.svc.RecordSale(context.Background(), basket(r.method, line(p.ID, 1)), r.user)
		require.NoError(t, err)
	}

	sales, total, err := f.svc.ListSales(context.Background(), repository.SaleFilter{UserID: one.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, sales, 2)

	_, total, err = f.svc.ListSales(context.Background(), repository.SaleFilter{PaymentMethod: model.PaymentCash})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	sales, total, err = f.svc.ListSales(context.Background(), repository.SaleFilter{
		PageRequest: repository.PageRequest{Page: 2, Limit: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, sales, 1)

	_, _, err = f.svc.ListSales(context.Background(), repository.SaleFilter{PaymentMethod: "GOLD"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, isRetryable(ErrInsufficientStock))
	assert.True(t, isRetryable(fmt.Errorf("insert sale: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, isRetryable(&pgconn.PgError{Code: "40001"}))
	assert.True(t, isRetryable(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, isRetryable(&pgconn.PgError{Code: "23503"}))
}

func TestClassifyExhaustedConflicts(t *testing.T) {
	f := newFixture(t)

	// A lock failure wrapped while loading a product still reads as a conflict
	wrapped := notFoundOr(&pgconn.PgError{Code: "40P01"}, ErrProductNotFound, "Product with ID 1 not found")
	require.Equal(t, apperror.KindInternal, apperror.KindOf(wrapped))
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(f.svc.classify(wrapped)))

	assert.Equal(t, apperror.KindConflict, apperror.KindOf(f.svc.classify(fmt.Errorf("insert sale: %w", gorm.ErrDuplicatedKey))))

	rule := apperror.Wrap(apperror.KindBusinessRule, ErrInsufficientStock, "Insufficient stock for A. Available: 0")
	assert.Same(t, rule, f.svc.classify(rule))
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(f.svc.classify(errors.New("disk full"))))
}
