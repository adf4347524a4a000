package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"bundlehub/internal/client"
	"bundlehub/internal/config"
	"bundlehub/internal/handler"
	"bundlehub/internal/logger"
	"bundlehub/internal/repository"
	"bundlehub/internal/server"
	"bundlehub/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	zlog, err := logger.New(cfg.Log, cfg.Environment.Name)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer zlog.Sync()

	db := client.InitSqliteClient(cfg.DatabaseURL)
	stripeClient := client.NewStripeClient(&cfg.Stripe, cfg.BaseURL)

	bundleRepo := repository.NewBundleRepository(db)
	contentRepo := repository.NewContentRepository(db)
	uploadRepo := repository.NewUploadRepository(db)
	indexRepo := repository.NewPurchaseIndexRepository(db)
	ledgerRepo := repository.NewSalesLedgerRepository(db)
	historyRepo := repository.NewPurchaseHistoryRepository(db)
	creatorRepo := repository.NewCreatorRepository(db)
	buyerRepo := repository.NewBuyerRepository(db)
	orderRepo := repository.NewCheckoutOrderRepository(db)
	eventRepo := repository.NewProcessedEventRepository(db)
	legacyRepo := repository.NewLegacyPurchaseRepository(db)

	recorder := service.NewPurchaseRecorder(
		indexRepo, ledgerRepo, historyRepo,
		bundleRepo, contentRepo, uploadRepo,
		creatorRepo, buyerRepo,
		zlog,
	)
	verifier := service.NewFulfillmentVerifier(
		stripeClient, recorder,
		indexRepo, eventRepo, orderRepo,
		cfg.Polling,
		zlog,
	)
	checkoutService := service.NewCheckoutService(stripeClient, bundleRepo, orderRepo, zlog)
	contentService := service.NewBundleContentService(bundleRepo, contentRepo, uploadRepo, zlog)
	reconciler := service.NewLegacyReconciler(legacyRepo, indexRepo, recorder, zlog)

	if cfg.ReconcileOnBoot {
		if result, err := reconciler.Reconcile(context.Background()); err != nil {
			zlog.Errorw("boot reconcile failed", "error", err)
		} else {
			zlog.Infow("boot reconcile done", "upserted", result.Upserted, "skipped", result.Skipped)
		}
	}

	purchaseHandler := handler.NewPurchaseHandler(checkoutService, verifier, indexRepo)
	bundleHandler := handler.NewBundleHandler(contentService, bundleRepo, creatorRepo, ledgerRepo)
	adminHandler := handler.NewAdminHandler(reconciler)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(cfg.Auth, purchaseHandler, bundleHandler, adminHandler)

	zlog.Infow("starting HTTP server", "addr", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	zlog.Info("signal received, starting graceful shutdown...")

	_, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}
