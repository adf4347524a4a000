package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"bundlehub/internal/client"
	"bundlehub/internal/model"
)

// -------- test fakes --------

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

type fakeBundleRepo struct {
	mu      sync.Mutex
	bundles map[string]*model.BundleDocument
}

func newFakeBundleRepo(bundles ...*model.BundleDocument) *fakeBundleRepo {
	f := &fakeBundleRepo{bundles: make(map[string]*model.BundleDocument)}
	for _, b := range bundles {
		f.bundles[b.ID] = b
	}
	return f
}

func (f *fakeBundleRepo) FindByID(ctx context.Context, bundleID string) (*model.BundleDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bundles[bundleID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return b, nil
}

func (f *fakeBundleRepo) FindActiveByCreator(ctx context.Context, creatorID string) ([]*model.BundleDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.BundleDocument
	for _, b := range f.bundles {
		if b.CreatorID == creatorID && b.Active {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBundleRepo) UpdateContent(ctx context.Context, bundleID string, fn func(b *model.BundleDocument) error) (*model.BundleDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bundles[bundleID]
	if !ok {
		return nil, model.ErrNotFound
	}
	if err := fn(b); err != nil {
		return nil, err
	}
	return b, nil
}

type fakeContentRepo struct {
	records map[string]*model.ContentRecord
}

func (f *fakeContentRepo) FindByID(ctx context.Context, contentID string) (*model.ContentRecord, error) {
	r, ok := f.records[contentID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return r, nil
}

func (f *fakeContentRepo) FindByBundleID(ctx context.Context, bundleID string) ([]*model.ContentRecord, error) {
	var out []*model.ContentRecord
	for _, r := range f.records {
		if r.BundleID == bundleID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeUploadRepo struct {
	uploads map[string]*model.CreatorUpload
}

func (f *fakeUploadRepo) FindByID(ctx context.Context, uploadID string) (*model.CreatorUpload, error) {
	u, ok := f.uploads[uploadID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return u, nil
}

func (f *fakeUploadRepo) FindByBundleID(ctx context.Context, bundleID string) ([]*model.CreatorUpload, error) {
	var out []*model.CreatorUpload
	for _, u := range f.uploads {
		if u.BundleID == bundleID {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeIndexRepo struct {
	mu       sync.Mutex
	records  map[string]*model.PurchaseRecord
	findErr  error
	writeErr error
	inserts  int
}

func newFakeIndexRepo() *fakeIndexRepo {
	return &fakeIndexRepo{records: make(map[string]*model.PurchaseRecord)}
}

func (f *fakeIndexRepo) FindByKey(ctx context.Context, key string) (*model.PurchaseRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	r, ok := f.records[key]
	if !ok {
		return nil, model.ErrNotFound
	}
	return r, nil
}

func (f *fakeIndexRepo) CreateIfAbsent(ctx context.Context, record *model.PurchaseRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return false, f.writeErr
	}
	if _, ok := f.records[record.IdempotencyKey]; ok {
		return false, nil
	}
	f.records[record.IdempotencyKey] = record
	f.inserts++
	return true, nil
}

func (f *fakeIndexRepo) ListCompletedByBuyer(ctx context.Context, buyerID string) ([]*model.PurchaseRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.PurchaseRecord
	for _, r := range f.records {
		if r.BuyerID == buyerID && r.Status == model.PurchaseCompleted {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeLedgerRepo struct {
	mu      sync.Mutex
	entries map[string]*model.SalesLedgerEntry
	err     error
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{entries: make(map[string]*model.SalesLedgerEntry)}
}

func (f *fakeLedgerRepo) CreateIfAbsent(ctx context.Context, entry *model.SalesLedgerEntry) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.entries[entry.IdempotencyKey]; ok {
		return false, nil
	}
	f.entries[entry.IdempotencyKey] = entry
	return true, nil
}

func (f *fakeLedgerRepo) ListByCreator(ctx context.Context, creatorID string) ([]*model.SalesLedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.SalesLedgerEntry
	for _, e := range f.entries {
		if e.CreatorID == creatorID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries map[string]*model.PurchaseHistoryEntry
	err     error
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{entries: make(map[string]*model.PurchaseHistoryEntry)}
}

func (f *fakeHistoryRepo) CreateIfAbsent(ctx context.Context, entry *model.PurchaseHistoryEntry) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.entries[entry.IdempotencyKey]; ok {
		return false, nil
	}
	f.entries[entry.IdempotencyKey] = entry
	return true, nil
}

func (f *fakeHistoryRepo) ListByBuyer(ctx context.Context, buyerID string) ([]*model.PurchaseHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.PurchaseHistoryEntry
	for _, e := range f.entries {
		if e.BuyerID == buyerID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeCreatorRepo struct {
	mu       sync.Mutex
	creators map[string]*model.Creator
}

func newFakeCreatorRepo() *fakeCreatorRepo {
	return &fakeCreatorRepo{creators: make(map[string]*model.Creator)}
}

func (f *fakeCreatorRepo) Get(ctx context.Context, creatorID string) (*model.Creator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creators[creatorID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return c, nil
}

func (f *fakeCreatorRepo) IncrementSales(ctx context.Context, creatorID string, amountMinor int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creators[creatorID]
	if !ok {
		c = &model.Creator{ID: creatorID, Plan: string(model.PlanFree)}
		f.creators[creatorID] = c
	}
	c.TotalSales++
	c.TotalRevenue += amountMinor
	return nil
}

type fakeBuyerRepo struct {
	mu     sync.Mutex
	buyers map[string]*model.Buyer
}

func newFakeBuyerRepo() *fakeBuyerRepo {
	return &fakeBuyerRepo{buyers: make(map[string]*model.Buyer)}
}

func (f *fakeBuyerRepo) Get(ctx context.Context, buyerID string) (*model.Buyer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.buyers[buyerID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return b, nil
}

func (f *fakeBuyerRepo) IncrementPurchases(ctx context.Context, buyerID string, amountMinor int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.buyers[buyerID]
	if !ok {
		b = &model.Buyer{ID: buyerID}
		f.buyers[buyerID] = b
	}
	b.TotalPurchases++
	b.TotalSpent += amountMinor
	return nil
}

type fakeEventRepo struct {
	mu        sync.Mutex
	processed map[string]string
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{processed: make(map[string]string)}
}

func (f *fakeEventRepo) Exists(eventID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.processed[eventID]
	return ok, nil
}

func (f *fakeEventRepo) MarkProcessed(eventID, eventType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed[eventID] = eventType
	return nil
}

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    map[string]*model.CheckoutOrder
	completed []string
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*model.CheckoutOrder)}
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *model.CheckoutOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[order.SessionID] = order
	return nil
}

func (f *fakeOrderRepo) FindBySessionID(ctx context.Context, sessionID string) (*model.CheckoutOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[sessionID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) MarkCompleted(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, sessionID)
	return nil
}

type fakeLegacyRepo struct {
	rows []*model.LegacyPurchase
}

func (f *fakeLegacyRepo) ListByType(ctx context.Context, recordType string, afterID uint, limit int) ([]*model.LegacyPurchase, error) {
	var out []*model.LegacyPurchase
	for _, row := range f.rows {
		if row.RecordType != recordType || row.ID <= afterID {
			continue
		}
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeStripeClient struct {
	mu       sync.Mutex
	sessions map[string]*model.StripeCheckoutSession
	getCalls int
	sigErr   error
	created  []client.CreateSessionParams

	// when set, sessions report paid once this many lookups have happened,
	// which is how the polling tests simulate a slow async settlement
	paidAfterCalls int
}

func newFakeStripeClient(sessions ...*model.StripeCheckoutSession) *fakeStripeClient {
	f := &fakeStripeClient{sessions: make(map[string]*model.StripeCheckoutSession)}
	for _, s := range sessions {
		f.sessions[s.ID] = s
	}
	return f
}

func (f *fakeStripeClient) CreateCheckoutSession(ctx context.Context, params client.CreateSessionParams) (*model.StripeCheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, params)
	session := &model.StripeCheckoutSession{
		ID:            fmt.Sprintf("cs_test_%d", len(f.created)),
		URL:           "https://checkout.stripe.test/pay",
		PaymentStatus: "unpaid",
		Status:        "open",
		AmountTotal:   params.AmountMinor,
		Currency:      params.Currency,
		ClientRefID:   params.BuyerID,
		Metadata: model.StripeMetadata{
			BundleID:  params.BundleID,
			BuyerID:   params.BuyerID,
			CreatorID: params.CreatorID,
		},
	}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakeStripeClient) GetCheckoutSession(ctx context.Context, sessionID string) (*model.StripeCheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, errors.New("stripe error 404: no such session")
	}
	if f.paidAfterCalls > 0 && f.getCalls >= f.paidAfterCalls {
		s.PaymentStatus = "paid"
		s.Status = "complete"
	}
	return s, nil
}

func (f *fakeStripeClient) GetPaymentIntent(ctx context.Context, intentID string) (*model.StripePaymentIntent, error) {
	return nil, errors.New("stripe error 404: no such payment intent")
}

func (f *fakeStripeClient) VerifyWebhookSignature(header string, body []byte) error {
	return f.sigErr
}
