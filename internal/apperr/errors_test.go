package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound("order", "o1"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestVersionConflictIsAlsoInvalidTransition(t *testing.T) {
	err := VersionConflict("o1")

	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.True(t, errors.Is(err, ErrVersionConflict))
	assert.False(t, errors.Is(InvalidTransition("status", "a", "b"), ErrVersionConflict))
}

func TestUpstreamRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Upstream(CodeUpstreamTimeout, "stripe", context.DeadlineExceeded)))
	assert.True(t, IsRetryable(Upstream(CodeUpstreamUnavailable, "cj", errors.New("503"))))
	assert.False(t, IsRetryable(Upstream(CodeUpstreamRejected, "cj", errors.New("400"))))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("x"), http.StatusBadRequest},
		{NotFound("order", "1"), http.StatusNotFound},
		{Duplicate("dup", "p1"), http.StatusConflict},
		{InvalidTransition("status", "delivered", "pending"), http.StatusConflict},
		{NotLinked("1"), http.StatusConflict},
		{Upstream(CodeUpstreamUnavailable, "stripe", nil), http.StatusBadGateway},
		{Upstream(CodeUpstreamTimeout, "stripe", nil), http.StatusGatewayTimeout},
		{Persistence("insert order", errors.New("conn refused")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}
