package service

import (
	"context"
	"errors"
	"strings"

	"supermarket-pos/internal/model"
	"supermarket-pos/internal/repository"
	"supermarket-pos/pkg/apperror"
	"supermarket-pos/pkg/validator"

	"gorm.io/gorm"
)

type CategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
}

type CategoryService interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id uint) (*model.Category, error)
	CreateCategory(ctx context.Context, req *CategoryRequest) (*model.Category, error)
	UpdateCategory(ctx context.Context, id uint, req *UpdateCategoryRequest) (*model.Category, error)
	DeleteCategory(ctx context.Context, id uint) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
}

func NewCategoryService(cRepo repository.CategoryRepository, pRepo repository.ProductRepository) CategoryService {
	return &categoryService{categoryRepo: cRepo, productRepo: pRepo}
}

func (s *categoryService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return categories, nil
}

// GetCategory returns the category with its active products
func (s *categoryService) GetCategory(ctx context.Context, id uint) (*model.Category, error) {
	category, err := s.categoryRepo.FindByIDWithActiveProducts(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrCategoryNotFound, "Category not found")
	}
	return category, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, req *CategoryRequest) (*model.Category, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return nil, err
	}

	category := &model.Category{Name: name, Description: req.Description}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, translateWriteError(err, "Category with this name already exists")
	}
	return category, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, id uint, req *UpdateCategoryRequest) (*model.Category, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrCategoryNotFound, "Category not found")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != category.Name {
			if err := s.ensureNameFree(ctx, name, category.ID); err != nil {
				return nil, err
			}
		}
		category.Name = name
	}
	if req.Description != nil {
		category.Description = req.Description
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, translateWriteError(err, "Category with this name already exists")
	}
	return category, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, id uint) error {
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		return notFoundOr(err, ErrCategoryNotFound, "Category not found")
	}

	count, err := s.productRepo.CountByCategory(ctx, id)
	if err != nil {
		return apperror.Internal(err)
	}
	if count > 0 {
		return apperror.Wrap(apperror.KindBusinessRule, ErrCategoryInUse, "Cannot delete category with existing products")
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		// The foreign key still guards against a product added meanwhile
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return apperror.Wrap(apperror.KindBusinessRule, ErrCategoryInUse, "Cannot delete category with existing products")
		}
		return apperror.Internal(err)
	}
	return nil
}

func (s *categoryService) ensureNameFree(ctx context.Context, name string, selfID uint) error {
	existing, err := s.categoryRepo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperror.Internal(err)
	}
	if existing.ID != selfID {
		return apperror.Conflict("Category with this name already exists")
	}
	return nil
}
