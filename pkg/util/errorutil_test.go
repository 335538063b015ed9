package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryStatus(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("bad input", nil), CodeValidation, http.StatusBadRequest},
		{NewNotFound("ticket", nil), CodeNotFound, http.StatusNotFound},
		{NewUnauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{NewForbidden("no access"), CodeForbidden, http.StatusForbidden},
		{NewConflict("already assigned", nil), CodeConflict, http.StatusConflict},
		{NewTransient("db down", nil), CodeTransient, http.StatusServiceUnavailable},
		{NewInternalError(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			var domainErr *DomainError
			require.True(t, errors.As(tc.err, &domainErr))
			assert.Equal(t, tc.code, domainErr.Code)
			assert.Equal(t, tc.status, domainErr.HTTPStatus)
		})
	}
}

func TestIsCode(t *testing.T) {
	err := NewNotFound("ticket", nil)

	assert.True(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(err, CodeConflict))
	assert.False(t, IsCode(nil, CodeNotFound))
	assert.False(t, IsCode(errors.New("plain"), CodeNotFound))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, IsCode(wrapped, CodeNotFound), "matching follows the unwrap chain")
}

func TestToDomainErrorMappings(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	noRows := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, CodeNotFound, noRows.Code)

	deadline := ToDomainError(context.DeadlineExceeded)
	assert.Equal(t, CodeTransient, deadline.Code)

	canceled := ToDomainError(context.Canceled)
	assert.Equal(t, CodeTransient, canceled.Code)

	badID := ToDomainError(&pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"})
	assert.Equal(t, CodeValidation, badID.Code, "a malformed id is the caller's fault, not an internal failure")
	assert.Equal(t, http.StatusBadRequest, badID.HTTPStatus)

	wrappedBadID := ToDomainError(fmt.Errorf("get ticket: %w", &pgconn.PgError{Code: "22P02"}))
	assert.Equal(t, CodeValidation, wrappedBadID.Code)

	otherPg := ToDomainError(&pgconn.PgError{Code: "23505"})
	assert.Equal(t, CodeInternal, otherPg.Code, "only the malformed-identifier class maps to validation")

	unknown := ToDomainError(errors.New("disk on fire"))
	assert.Equal(t, CodeInternal, unknown.Code)
	assert.Equal(t, "internal server error", unknown.Message, "internal detail never leaks into the message")

	already := NewConflict("taken", nil)
	assert.Same(t, already.(*DomainError), ToDomainError(already), "existing DomainError passes through")
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewTransient("db down", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "db down")
	assert.Contains(t, err.Error(), "connection refused")
}
