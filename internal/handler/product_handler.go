package handler

import (
	"strings"

	"supermarket-pos/internal/model"
	"supermarket-pos/internal/repository"
	"supermarket-pos/internal/service"
	"supermarket-pos/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	productService service.ProductService
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// GetProducts lists products with search, category and low stock filters
// GET /api/products?page=1&limit=10&search=milk&category_id=2&low_stock=true
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	filter := repository.ProductFilter{
		Search:      strings.TrimSpace(c.Query("search")),
		CategoryID:  uint(c.QueryInt("category_id", 0)),
		LowStock:    c.QueryBool("low_stock", false),
		PageRequest: pageRequest(c),
	}

	products, total, err := h.productService.ListProducts(c.UserContext(), filter)
	if err != nil {
		return err
	}

	data := make([]model.ProductResponse, len(products))
	for i := range products {
		data[i] = products[i].ToResponse()
	}
	return response.Paginated(c, data, response.NewPagination(total, filter.Page, filter.Limit))
}

// GetProductByBarcode is used by the scanner at the till
// GET /api/products/barcode/:barcode
func (h *ProductHandler) GetProductByBarcode(c *fiber.Ctx) error {
	product, err := h.productService.GetProductByBarcode(c.UserContext(), c.Params("barcode"))
	if err != nil {
		return err
	}
	return response.OK(c, "", product.ToResponse())
}

// GET /api/products/:id
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.productService.GetProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "", product.ToResponse())
}

// CreateProduct handles product creation
// POST /api/products
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.CreateProductRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	product, err := h.productService.CreateProduct(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return response.Created(c, "Product created successfully", product.ToResponse())
}

// PUT /api/products/:id
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateProductRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	product, err := h.productService.UpdateProduct(c.UserContext(), id, &req)
	if err != nil {
		return err
	}
	return response.OK(c, "Product updated successfully", product.ToResponse())
}

// DeleteProduct removes a product, or deactivates it when it has sales
// DELETE /api/products/:id
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	deactivated, err := h.productService.DeleteProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	if deactivated {
		return response.OK(c, "Product deactivated successfully (has existing sales)", nil)
	}
	return response.OK(c, "Product deleted successfully", nil)
}
