package service

import (
	"sync"
	"testing"
	"time"

	"supermarket-pos/internal/model"
	"supermarket-pos/internal/repository"
	"supermarket-pos/internal/testutil"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type publishedEvent struct {
	Name    string
	Payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Name: event, Payload: payload})
}

func (p *recordingPublisher) count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

type fixture struct {
	db        *gorm.DB
	products  repository.ProductRepository
	sales     repository.SaleRepository
	publisher *recordingPublisher
	svc       *saleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, testutil.NewTestDB(t))
}

func newFixtureOn(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	products := repository.NewProductRepo(db)
	sales := repository.NewSaleRepo(db)
	pub := &recordingPublisher{}

	svc := NewSaleService(db, products, sales, pub, time.UTC, zerolog.Nop()).(*saleService)
	svc.now = fixedClock(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))

	return &fixture{db: db, products: products, sales: sales, publisher: pub, svc: svc}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedUser(t *testing.T, db *gorm.DB, username string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{
		FullName:     "User " + username,
		Username:     username,
		Email:        username + "@example.com",
		Role:         role,
		IsActive:     true,
		TokenVersion: "v1",
	}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *model.Category {
	t.Helper()
	category := &model.Category{Name: name}
	require.NoError(t, db.Create(category).Error)
	return category
}

type productOpts struct {
	price    string
	stock    int
	vat      model.VATCategory
	inactive bool
}

func seedProduct(t *testing.T, db *gorm.DB, category *model.Category, barcode string, opts productOpts) *model.Product {
	t.Helper()
	if opts.price == "" {
		opts.price = "100.00"
	}
	if opts.vat == "" {
		opts.vat = model.VATStandard
	}
	selling := dec(opts.price)
	product := &model.Product{
		Name:              "Product " + barcode,
		Barcode:           barcode,
		CategoryID:        category.ID,
		BuyingPrice:       selling.Div(decimal.NewFromInt(2)).Round(2),
		SellingPrice:      selling,
		StockQuantity:     opts.stock,
		VATCategory:       opts.vat,
		LowStockThreshold: model.DefaultLowStockThreshold,
		IsActive:          !opts.inactive,
	}
	require.NoError(t, db.Omit("Category").Create(product).Error)
	return product
}

func stockOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var p model.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.StockQuantity
}

func countSales(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.Sale{}).Count(&n).Error)
	return n
}
