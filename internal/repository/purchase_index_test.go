package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bundlehub/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.PurchaseRecord{},
		&model.Creator{},
		&model.Buyer{},
	))
	return db
}

func testRecord(key string, purchasedAt time.Time) *model.PurchaseRecord {
	return &model.PurchaseRecord{
		IdempotencyKey: key,
		BuyerID:        "buyer-1",
		BundleID:       "b1",
		CreatorID:      "creator-1",
		AmountMinor:    1999,
		Currency:       "usd",
		Status:         model.PurchaseCompleted,
		Items: []model.ContentItem{
			{ID: "c1", FileURL: "https://cdn.test/c1.mp4", MimeType: "video/mp4", ContentType: model.ContentTypeVideo},
		},
		PurchasedAt: purchasedAt,
	}
}

func TestPurchaseIndex_CreateIfAbsent(t *testing.T) {
	repo := NewPurchaseIndexRepository(newTestDB(t))
	ctx := context.Background()

	inserted, err := repo.CreateIfAbsent(ctx, testRecord("cs_1", time.Now()))
	require.NoError(t, err)
	assert.True(t, inserted)

	// the same key again is a silent no-op, not a constraint error
	inserted, err = repo.CreateIfAbsent(ctx, testRecord("cs_1", time.Now()))
	require.NoError(t, err)
	assert.False(t, inserted)

	record, err := repo.FindByKey(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseCompleted, record.Status)
	require.Len(t, record.Items, 1)
	assert.Equal(t, "c1", record.Items[0].ID)
}

func TestPurchaseIndex_FindByKeyNotFound(t *testing.T) {
	repo := NewPurchaseIndexRepository(newTestDB(t))

	_, err := repo.FindByKey(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPurchaseIndex_ListCompletedByBuyer(t *testing.T) {
	repo := NewPurchaseIndexRepository(newTestDB(t))
	ctx := context.Background()

	older := testRecord("cs_old", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := testRecord("cs_new", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	pending := testRecord("cs_pending", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	pending.Status = model.PurchasePending
	foreign := testRecord("cs_other", time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC))
	foreign.BuyerID = "buyer-2"

	for _, r := range []*model.PurchaseRecord{older, newer, pending, foreign} {
		_, err := repo.CreateIfAbsent(ctx, r)
		require.NoError(t, err)
	}

	records, err := repo.ListCompletedByBuyer(ctx, "buyer-1")
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "cs_new", records[0].IdempotencyKey)
	assert.Equal(t, "cs_old", records[1].IdempotencyKey)
}

func TestCreatorRepo_IncrementSalesIsAtomicUpsert(t *testing.T) {
	db := newTestDB(t)
	repo := NewCreatorRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.IncrementSales(ctx, "creator-1", 1000))
	require.NoError(t, repo.IncrementSales(ctx, "creator-1", 500))

	creator, err := repo.Get(ctx, "creator-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), creator.TotalSales)
	assert.Equal(t, int64(1500), creator.TotalRevenue)
	assert.Equal(t, string(model.PlanFree), creator.Plan)
}

func TestBuyerRepo_IncrementPurchasesIsAtomicUpsert(t *testing.T) {
	db := newTestDB(t)
	repo := NewBuyerRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.IncrementPurchases(ctx, "buyer-1", 1999))
	require.NoError(t, repo.IncrementPurchases(ctx, "buyer-1", 999))

	buyer, err := repo.Get(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), buyer.TotalPurchases)
	assert.Equal(t, int64(2998), buyer.TotalSpent)
}
