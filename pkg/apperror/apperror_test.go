package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatusCode(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:   http.StatusBadRequest,
		KindConflict:     http.StatusBadRequest,
		KindBusinessRule: http.StatusBadRequest,
		KindNotFound:     http.StatusNotFound,
		KindUnauthorized: http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
		KindInternal:     http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.StatusCode(), kind.String())
	}
}

func TestWrapKeepsSentinel(t *testing.T) {
	sentinel := errors.New("insufficient stock")
	err := fmt.Errorf("recording sale: %w", Wrap(KindBusinessRule, sentinel, "Insufficient stock for Milk"))

	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, KindBusinessRule, KindOf(err))

	var appErr *Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Insufficient stock for Milk", appErr.Error())
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}
