package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"shop-api/internal/apperr"
	"shop-api/internal/dto"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorHandler renders every error as {"error", "message", "details"}. Anything that is not an
// apperr.Error or echo.HTTPError is an internal error and is logged, never echoed.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			logger.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("uri", c.Request().RequestURI).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error().Err(err).Msg("write error response")
		}
	}
}

func errorResponse(err error) (int, *dto.ErrorResponse) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr.Kind.HTTPStatus(), &dto.ErrorResponse{
			Error:   appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, &dto.ErrorResponse{
			Error:   strings.ReplaceAll(strings.ToLower(http.StatusText(httpErr.Code)), " ", "_"),
			Message: fmt.Sprint(httpErr.Message),
		}
	}

	return http.StatusInternalServerError, &dto.ErrorResponse{
		Error:   "internal_error",
		Message: "internal server error",
	}
}

// bindJSON decodes the request body into v, rejecting unknown fields. An empty body leaves v untouched.
func bindJSON(c echo.Context, v any) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.ErrValidation.Withf("invalid request body: %v", err)
	}
	return nil
}

func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.ErrValidation.Withf("'%s' must be a positive integer", name)
	}
	return uint(id), nil
}
