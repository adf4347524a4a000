package server

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bundlehub/internal/config"
	"bundlehub/internal/handler"
	"bundlehub/internal/middleware"
)

type Server struct {
	echo            *echo.Echo
	authCfg         config.Auth
	purchaseHandler *handler.PurchaseHandler
	bundleHandler   *handler.BundleHandler
	adminHandler    *handler.AdminHandler
}

func NewServer(
	authCfg config.Auth,
	purchaseHandler *handler.PurchaseHandler,
	bundleHandler *handler.BundleHandler,
	adminHandler *handler.AdminHandler,
) *Server {
	e := echo.New()

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	s := &Server{
		echo:            e,
		authCfg:         authCfg,
		purchaseHandler: purchaseHandler,
		bundleHandler:   bundleHandler,
		adminHandler:    adminHandler,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// -------- public catalogue --------
	api.GET("/bundles/:id", s.bundleHandler.GetBundle)
	api.GET("/creators/:id/bundles", s.bundleHandler.ListCreatorBundles)

	// -------- stripe webhooks --------
	api.POST("/stripe/webhook", s.purchaseHandler.StripeWebhook)

	// -------- authenticated --------
	auth := api.Group("", middleware.Auth(s.authCfg))
	auth.POST("/checkout", s.purchaseHandler.Checkout)
	auth.POST("/purchases/verify", s.purchaseHandler.Verify)
	auth.GET("/purchases/await", s.purchaseHandler.Await)
	auth.GET("/purchases", s.purchaseHandler.Library)
	auth.POST("/bundles/:id/content", s.bundleHandler.AddContent)
	auth.GET("/creators/:id/sales", s.bundleHandler.CreatorSales)
	auth.POST("/admin/reconcile", s.adminHandler.Reconcile)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
