package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Body {
	t.Helper()
	var body Body
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestWriteTenantMissing(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Write(rec, fmt.Errorf("resolve scope: %w", ErrTenantMissing))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "tenant_missing", body.Code)
	require.False(t, body.Retryable)
}

func TestWriteConflictIdentifiesResource(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("reserve: %w", &ConflictError{Resource: "vehicle", Key: "VEH777"})
	require.True(t, errors.Is(err, ErrSchedulingConflict))

	rec := httptest.NewRecorder()
	Write(rec, err)

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "scheduling_conflict", body.Code)
	require.Equal(t, "vehicle", body.Resource)
	require.Equal(t, "VEH777", body.Key)
}

func TestWriteBindingFailureIsRetryable(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Write(rec, fmt.Errorf("begin tx: %w", ErrTenantBindingFailed))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.True(t, decode(t, rec).Retryable)
}

func TestWriteUnknownErrorMapsToUnavailable(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Write(rec, errors.New("connection refused"))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "unavailable", decode(t, rec).Code)
}
