package service

import (
	"errors"

	"supermarket-pos/pkg/apperror"

	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials       = errors.New("invalid username or password")
	ErrUserNotFound             = errors.New("user not found")
	ErrUserInactive             = errors.New("user account is inactive")
	ErrSessionReplaced          = errors.New("session expired (logged in on another device)")
	ErrProductNotFound          = errors.New("product not found")
	ErrProductInactive          = errors.New("product is not active")
	ErrInsufficientStock        = errors.New("insufficient stock")
	ErrInvalidPrice             = errors.New("selling price must be greater than buying price")
	ErrCategoryNotFound         = errors.New("category not found")
	ErrCategoryInUse            = errors.New("category has products")
	ErrSaleNotFound             = errors.New("sale not found")
	ErrInvoiceSequenceExhausted = errors.New("invoice sequence exhausted for the day")
)

// notFoundOr maps a missing row to a NotFound error and anything else to Internal
func notFoundOr(err error, sentinel error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Wrap(apperror.KindNotFound, sentinel, message)
	}
	return apperror.Internal(err)
}
