package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"bundlehub/internal/model"
)

// httpError maps the domain error taxonomy onto HTTP statuses in one place.
// Idempotency hits never reach here; the services return the existing record
// as success.
func httpError(err error) error {
	switch {
	case errors.Is(err, model.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrAnonymousBuyer), errors.Is(err, model.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, "not allowed")
	case model.IsQuotaExceeded(err):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrPaymentNotCompleted):
		// retryable: the payment may still settle upstream
		return echo.NewHTTPError(http.StatusPaymentRequired, err.Error())
	case errors.Is(err, model.ErrPartialWrite):
		// the whole operation is safe to retry thanks to per-sink idempotency
		return echo.NewHTTPError(http.StatusServiceUnavailable, "temporary write failure, retry the request")
	default:
		return err
	}
}
