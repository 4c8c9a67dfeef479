package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"civicfix/models"
)

func TestRespondDomainErrorStatusMapping(t *testing.T) {
	cases := []struct {
		kind models.ErrorKind
		want int
	}{
		{models.ErrInvalidTransition, http.StatusBadRequest},
		{models.ErrValidation, http.StatusBadRequest},
		{models.ErrUnauthorized, http.StatusForbidden},
		{models.ErrOwnershipRequired, http.StatusForbidden},
		{models.ErrDepartmentMismatch, http.StatusForbidden},
		{models.ErrPreconditionFailed, http.StatusForbidden},
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrConflict, http.StatusConflict},
		{models.ErrExternalUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondDomainError(rec, models.NewDomainError(tc.kind, "boom"))
			require.Equal(t, tc.want, rec.Code)
			require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestRespondDomainErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	respondDomainError(rec, errors.New("sql: connection refused at 10.0.0.3"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "10.0.0.3")
}
