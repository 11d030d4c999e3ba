package service

import (
	"context"
	"testing"

	"supermarket-pos/internal/repository"
	"supermarket-pos/internal/testutil"
	"supermarket-pos/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryLifecycle(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepo(db), repository.NewProductRepo(db))
	ctx := context.Background()

	desc := "Milk and cheese"
	dairy, err := svc.CreateCategory(ctx, &CategoryRequest{Name: "Dairy", Description: &desc})
	require.NoError(t, err)

	_, err = svc.CreateCategory(ctx, &CategoryRequest{Name: "Dairy"})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	_, err = svc.CreateCategory(ctx, &CategoryRequest{})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	renamed := "Dairy & Eggs"
	updated, err := svc.UpdateCategory(ctx, dairy.ID, &UpdateCategoryRequest{Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, renamed, updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, desc, *updated.Description)

	require.NoError(t, svc.DeleteCategory(ctx, dairy.ID))
	_, err = svc.GetCategory(ctx, dairy.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestDeleteCategoryWithProductsIsRejected(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepo(db), repository.NewProductRepo(db))
	cat := seedCategory(t, db, "Bakery")
	seedProduct(t, db, cat, "BREAD", productOpts{stock: 1, inactive: true})

	err := svc.DeleteCategory(context.Background(), cat.ID)
	assert.ErrorIs(t, err, ErrCategoryInUse)

	_, err = svc.GetCategory(context.Background(), cat.ID)
	assert.NoError(t, err)
}

func TestGetCategoryListsOnlyActiveProducts(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepo(db), repository.NewProductRepo(db))
	cat := seedCategory(t, db, "Drinks")
	seedProduct(t, db, cat, "WATER", productOpts{stock: 1})
	seedProduct(t, db, cat, "OLD-SODA", productOpts{stock: 1, inactive: true})

	got, err := svc.GetCategory(context.Background(), cat.ID)
	require.NoError(t, err)
	require.Len(t, got.Products, 1)
	assert.Equal(t, "WATER", got.Products[0].Barcode)

	all, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Products, 2)
}
