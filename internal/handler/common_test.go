package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/walkin-queue/internal/engine"
	"github.com/iliyamo/walkin-queue/internal/repository"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestEngineErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", fmt.Errorf("queue 7: %w", engine.ErrNotFound), http.StatusNotFound},
		{"duplicate member", engine.ErrDuplicateMember, http.StatusUnprocessableEntity},
		{"empty queue", engine.ErrEmptyQueue, http.StatusUnprocessableEntity},
		{"invalid state", fmt.Errorf("queue is paused: %w", engine.ErrInvalidState), http.StatusConflict},
		{"lock contention", fmt.Errorf("lock: %w", engine.ErrConflict), http.StatusConflict},
		{"opaque", fmt.Errorf("driver exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(t)
			require.NoError(t, engineError(c, tc.err))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestEngineErrorHidesInternals(t *testing.T) {
	c, rec := newTestContext(t)
	require.NoError(t, engineError(c, fmt.Errorf("dial tcp 10.0.0.5:3306: i/o timeout")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestRepoErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{repository.ErrQueueNotFound, http.StatusNotFound},
		{repository.ErrBranchNotFound, http.StatusNotFound},
		{repository.ErrBusinessNotFound, http.StatusNotFound},
		{repository.ErrForbidden, http.StatusForbidden},
		{repository.ErrConflict, http.StatusConflict},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		c, rec := newTestContext(t)
		require.NoError(t, repoError(c, tc.err))
		assert.Equal(t, tc.code, rec.Code, "error %v", tc.err)
	}
}

func TestGetUserIDAcceptsClaimShapes(t *testing.T) {
	for _, v := range []any{uint64(7), int(7), int64(7), float64(7), "7"} {
		c, _ := newTestContext(t)
		c.Set("user_id", v)
		id, err := getUserID(c)
		require.NoError(t, err, "shape %T", v)
		assert.Equal(t, uint64(7), id)
	}

	c, _ := newTestContext(t)
	_, err := getUserID(c)
	require.Error(t, err)
}
