package handler

import (
	"time"

	"supermarket-pos/internal/middleware"
	"supermarket-pos/internal/model"
	"supermarket-pos/internal/repository"
	"supermarket-pos/internal/service"
	"supermarket-pos/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type SaleHandler struct {
	saleService service.SaleService
	loc         *time.Location
}

func NewSaleHandler(saleService service.SaleService, loc *time.Location) *SaleHandler {
	if loc == nil {
		loc = time.Local
	}
	return &SaleHandler{saleService: saleService, loc: loc}
}

// CreateSale records a sale for the authenticated cashier
// POST /api/sales
func (h *SaleHandler) CreateSale(c *fiber.Ctx) error {
	var req service.RecordSaleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	sale, err := h.saleService.RecordSale(c.UserContext(), &req, middleware.Actor(c))
	if err != nil {
		return err
	}
	return response.Created(c, "Sale completed successfully", sale.ToResponse())
}

// GetSales lists every sale
// GET /api/sales?start_date=2025-01-01&end_date=2025-01-31&user_id=2&payment_method=CASH
func (h *SaleHandler) GetSales(c *fiber.Ctx) error {
	filter, err := h.saleFilter(c)
	if err != nil {
		return err
	}
	filter.UserID = uint(c.QueryInt("user_id", 0))
	return h.list(c, filter)
}

// GetMySales lists the sales recorded by the caller
// GET /api/sales/my-sales
func (h *SaleHandler) GetMySales(c *fiber.Ctx) error {
	filter, err := h.saleFilter(c)
	if err != nil {
		return err
	}
	filter.UserID = middleware.Actor(c).ID
	return h.list(c, filter)
}

// GET /api/sales/:id
func (h *SaleHandler) GetSale(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	sale, err := h.saleService.GetSale(c.UserContext(), id, middleware.Actor(c))
	if err != nil {
		return err
	}
	return response.OK(c, "", sale.ToResponse())
}

func (h *SaleHandler) saleFilter(c *fiber.Ctx) (repository.SaleFilter, error) {
	start, err := queryTime(c, "start_date", h.loc, false)
	if err != nil {
		return repository.SaleFilter{}, err
	}
	end, err := queryTime(c, "end_date", h.loc, true)
	if err != nil {
		return repository.SaleFilter{}, err
	}
	return repository.SaleFilter{
		StartDate:     start,
		EndDate:       end,
		PaymentMethod: model.PaymentMethod(c.Query("payment_method")),
		PageRequest:   pageRequest(c),
	}, nil
}

func (h *SaleHandler) list(c *fiber.Ctx, filter repository.SaleFilter) error {
	sales, total, err := h.saleService.ListSales(c.UserContext(), filter)
	if err != nil {
		return err
	}
	data := make([]model.SaleResponse, len(sales))
	for i := range sales {
		data[i] = sales[i].ToResponse()
	}
	return response.Paginated(c, data, response.NewPagination(total, filter.Page, filter.Limit))
}
