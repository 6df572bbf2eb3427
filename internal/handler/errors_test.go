package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"shop-api/internal/apperr"
	"shop-api/internal/dto"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, err error) (int, dto.ErrorResponse) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	ErrorHandler(zerolog.Nop())(err, c)

	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestErrorHandlerRendersDomainErrors(t *testing.T) {
	code, body := render(t, fmt.Errorf("checkout: %w", apperr.ErrProductNotFound.Withf("product with id 9 not found")))
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "product_not_found", body.Error)
	require.Equal(t, "product with id 9 not found", body.Message)

	code, body = render(t, apperr.ErrProviderRejected.WithDetails(map[string]any{"message": "Invalid key"}))
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, map[string]any{"message": "Invalid key"}, body.Details)
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	code, body := render(t, errors.New("pq: password authentication failed"))
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, "internal_error", body.Error)
	require.NotContains(t, body.Message, "password")
}

func TestErrorHandlerEchoErrors(t *testing.T) {
	code, body := render(t, echo.ErrNotFound)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "not_found", body.Error)

	code, body = render(t, echo.ErrTooManyRequests)
	require.Equal(t, http.StatusTooManyRequests, code)
	require.Equal(t, "too_many_requests", body.Error)
}

func TestBindJSONRejectsUnknownFields(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":2,"price":1}`)), httptest.NewRecorder())

	var req dto.UpdateCartItemRequest
	require.ErrorIs(t, bindJSON(c, &req), apperr.ErrValidation)

	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")), httptest.NewRecorder())
	var empty dto.UpdateCartItemRequest
	require.NoError(t, bindJSON(c, &empty))
	require.Nil(t, empty.Quantity)
}
