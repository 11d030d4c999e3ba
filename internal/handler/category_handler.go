package handler

import (
	"supermarket-pos/internal/model"
	"supermarket-pos/internal/service"
	"supermarket-pos/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	categoryService service.CategoryService
}

func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// GET /api/categories
func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.categoryService.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	data := make([]model.CategoryResponse, len(categories))
	for i := range categories {
		data[i] = categories[i].ToResponse()
	}
	return response.OK(c, "", data)
}

// GetCategory returns a category with its active products
// GET /api/categories/:id
func (h *CategoryHandler) GetCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	category, err := h.categoryService.GetCategory(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "", category.ToResponse())
}

// POST /api/categories
func (h *CategoryHandler) CreateCategory(c *fiber.Ctx) error {
	var req service.CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	category, err := h.categoryService.CreateCategory(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return response.Created(c, "Category created successfully", category.ToResponse())
}

// PUT /api/categories/:id
func (h *CategoryHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateCategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	category, err := h.categoryService.UpdateCategory(c.UserContext(), id, &req)
	if err != nil {
		return err
	}
	return response.OK(c, "Category updated successfully", category.ToResponse())
}

// DeleteCategory refuses while products still reference the category
// DELETE /api/categories/:id
func (h *CategoryHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.categoryService.DeleteCategory(c.UserContext(), id); err != nil {
		return err
	}
	return response.OK(c, "Category deleted successfully", nil)
}
