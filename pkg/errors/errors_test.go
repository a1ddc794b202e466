package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Validation([]string{"a"}), http.StatusBadRequest},
		{BusinessRule("x"), http.StatusBadRequest},
		{Forbidden("x"), http.StatusForbidden},
		{Conflict("x", nil), http.StatusConflict},
		{InvalidToken(nil), http.StatusUnauthorized},
		{ExpiredToken(nil), http.StatusUnauthorized},
		{Unavailable(nil), http.StatusServiceUnavailable},
		{Internal(nil), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.HTTPStatus(), tc.err.Message)
	}
}

func TestValidationJoinsMessages(t *testing.T) {
	err := Validation([]string{"premier", "second"})
	assert.Equal(t, "Données invalides: premier, second", err.Error())
}

func TestFromDB(t *testing.T) {
	dup := FromDB(fmt.Errorf("insert user: %w", &pq.Error{Code: "23505"}))
	require.True(t, Is(dup, ErrConflict))

	fk := FromDB(&pq.Error{Code: "23503"})
	assert.True(t, Is(fk, ErrBadRequest))

	conn := FromDB(&pq.Error{Code: "08006"})
	assert.True(t, Is(conn, ErrUnavailable))

	timeout := FromDB(fmt.Errorf("query: %w", context.DeadlineExceeded))
	assert.True(t, Is(timeout, ErrUnavailable))

	plain := stderrors.New("boom")
	assert.Same(t, plain, FromDB(plain))

	app := NotFound("missing")
	assert.Same(t, app, FromDB(app))

	assert.Nil(t, FromDB(nil))
}
