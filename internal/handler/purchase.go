package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"bundlehub/internal/dto"
	"bundlehub/internal/middleware"
	"bundlehub/internal/repository"
	"bundlehub/internal/service"
)

type PurchaseHandler struct {
	checkoutService service.CheckoutService
	verifier        service.FulfillmentVerifier
	indexRepo       repository.PurchaseIndexRepository
}

func NewPurchaseHandler(
	checkoutService service.CheckoutService,
	verifier service.FulfillmentVerifier,
	indexRepo repository.PurchaseIndexRepository,
) *PurchaseHandler {
	return &PurchaseHandler{
		checkoutService: checkoutService,
		verifier:        verifier,
		indexRepo:       indexRepo,
	}
}

func (h *PurchaseHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	resp, err := h.checkoutService.Checkout(ctx, middleware.BuyerID(c), req.BundleID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

// Verify is the client-initiated "verify and grant" call after checkout.
func (h *PurchaseHandler) Verify(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.VerifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	resp, err := h.verifier.VerifyAndRecord(ctx, middleware.BuyerID(c), req.SessionID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

// Await blocks through the bounded polling loop after the checkout
// redirect. A "delayed" body is a 200; the webhook will finish the job.
func (h *PurchaseHandler) Await(c echo.Context) error {
	ctx := c.Request().Context()

	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing session_id")
	}

	resp, err := h.verifier.AwaitCompletion(ctx, middleware.BuyerID(c), sessionID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

// StripeWebhook accepts provider events. The raw body is passed through
// untouched because the signature covers the exact bytes.
func (h *PurchaseHandler) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	err = h.verifier.HandleWebhook(ctx, c.Request().Header.Get("Stripe-Signature"), body)
	if err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusOK)
}

// Library lists the authenticated buyer's completed purchases.
func (h *PurchaseHandler) Library(c echo.Context) error {
	ctx := c.Request().Context()

	records, err := h.indexRepo.ListCompletedByBuyer(ctx, middleware.BuyerID(c))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, records)
}
