package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"bundlehub/internal/dto"
	"bundlehub/internal/middleware"
	"bundlehub/internal/model"
	"bundlehub/internal/repository"
	"bundlehub/internal/service"
)

type BundleHandler struct {
	contentService service.BundleContentService
	bundleRepo     repository.BundleRepository
	creatorRepo    repository.CreatorRepository
	ledgerRepo     repository.SalesLedgerRepository
}

func NewBundleHandler(
	contentService service.BundleContentService,
	bundleRepo repository.BundleRepository,
	creatorRepo repository.CreatorRepository,
	ledgerRepo repository.SalesLedgerRepository,
) *BundleHandler {
	return &BundleHandler{
		contentService: contentService,
		bundleRepo:     bundleRepo,
		creatorRepo:    creatorRepo,
		ledgerRepo:     ledgerRepo,
	}
}

func (h *BundleHandler) GetBundle(c echo.Context) error {
	ctx := c.Request().Context()

	bundle, err := h.bundleRepo.FindByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, bundle)
}

func (h *BundleHandler) ListCreatorBundles(c echo.Context) error {
	ctx := c.Request().Context()

	bundles, err := h.bundleRepo.FindActiveByCreator(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, bundles)
}

// AddContent appends content to a bundle owned by the caller, under the
// caller's tier quota. Returns the partial-success counts so the UI can say
// "N added, M skipped".
func (h *BundleHandler) AddContent(c echo.Context) error {
	ctx := c.Request().Context()
	callerID := middleware.BuyerID(c)

	var req dto.AddContentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	bundle, err := h.bundleRepo.FindByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	if bundle.CreatorID != callerID {
		return httpError(model.ErrUnauthorized)
	}

	tier := model.TierForPlan(model.PlanFree)
	creator, err := h.creatorRepo.Get(ctx, callerID)
	if err == nil {
		tier = model.TierForPlan(model.Plan(creator.Plan))
	} else if !errors.Is(err, model.ErrNotFound) {
		return httpError(err)
	}

	result, err := h.contentService.AddContent(ctx, bundle.ID, req.ContentIDs, tier)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *BundleHandler) CreatorSales(c echo.Context) error {
	ctx := c.Request().Context()
	creatorID := c.Param("id")

	if creatorID != middleware.BuyerID(c) {
		return httpError(model.ErrUnauthorized)
	}

	entries, err := h.ledgerRepo.ListByCreator(ctx, creatorID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, entries)
}
