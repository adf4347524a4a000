package client

import (
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bundlehub/internal/model"
)

func InitSqliteClient(databaseURL string) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(databaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal(err)
	}

	// Connection pool (important for webhooks)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&model.BundleDocument{},
		&model.Creator{},
		&model.Buyer{},
		&model.ContentRecord{},
		&model.CreatorUpload{},
		&model.PurchaseRecord{},
		&model.SalesLedgerEntry{},
		&model.PurchaseHistoryEntry{},
		&model.CheckoutOrder{},
		&model.ProcessedEvent{},
		&model.LegacyPurchase{},
	); err != nil {
		log.Fatal(err)
	}

	return db
}
