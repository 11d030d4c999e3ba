package response

import (
	"math"

	"supermarket-pos/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// Envelope is the body shape of every API response.
type Envelope struct {
	Success    bool                  `json:"success"`
	Message    string                `json:"message,omitempty"`
	Data       interface{}           `json:"data,omitempty"`
	Errors     []apperror.FieldError `json:"errors,omitempty"`
	Pagination *Pagination           `json:"pagination,omitempty"`
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

func NewPagination(total int64, page, limit int) *Pagination {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return &Pagination{Total: total, Page: page, Limit: limit, Pages: pages}
}

func OK(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Message: message, Data: data})
}

func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Message: message, Data: data})
}

func Paginated(c *fiber.Ctx, data interface{}, p *Pagination) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Data: data, Pagination: p})
}

func Fail(c *fiber.Ctx, status int, message string, errs []apperror.FieldError) error {
	return c.Status(status).JSON(Envelope{Success: false, Message: message, Errors: errs})
}
