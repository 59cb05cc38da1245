package apperrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"storefront/internal/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cases := map[error]int{
		apperrors.Validation("bad"):              http.StatusBadRequest,
		apperrors.NotFound("missing"):            http.StatusNotFound,
		apperrors.Forbidden("nope"):              http.StatusForbidden,
		apperrors.InvalidState("terminal"):       http.StatusBadRequest,
		apperrors.InsufficientStock("empty"):     http.StatusBadRequest,
		apperrors.Unauthenticated("who"):         http.StatusUnauthorized,
		apperrors.Conflict("dup"):                http.StatusConflict,
		errors.New("boom"):                       http.StatusInternalServerError,
		fmt.Errorf("wrapped: %w", apperrors.NotFound("x")): http.StatusNotFound,
	}
	for err, want := range cases {
		assert.Equal(t, want, apperrors.StatusCode(err), err.Error())
	}
}

func TestIsFollowsWrapping(t *testing.T) {
	err := fmt.Errorf("create order: %w", apperrors.InsufficientStock("product %s", "p1"))

	assert.True(t, apperrors.Is(err, apperrors.KindInsufficientStock))
	assert.False(t, apperrors.Is(err, apperrors.KindInvalidState))
	assert.False(t, apperrors.Is(errors.New("plain"), apperrors.KindInternal))

	appErr, ok := apperrors.As(err)
	assert.True(t, ok)
	assert.Equal(t, "product p1", appErr.Message)
}
