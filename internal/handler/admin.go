package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bundlehub/internal/service"
)

type AdminHandler struct {
	reconciler service.LegacyReconciler
}

func NewAdminHandler(reconciler service.LegacyReconciler) *AdminHandler {
	return &AdminHandler{
		reconciler: reconciler,
	}
}

// Reconcile forward-fills legacy purchases into the unified index. Safe to
// call repeatedly; the second run reports the first run's upserts as skips.
func (h *AdminHandler) Reconcile(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.reconciler.Reconcile(ctx)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, result)
}
