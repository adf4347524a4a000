package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bundlehub/internal/config"
	"bundlehub/internal/model"
)

type verifierFixture struct {
	*recorderFixture
	stripe   *fakeStripeClient
	events   *fakeEventRepo
	orders   *fakeOrderRepo
	verifier FulfillmentVerifier
}

func newVerifierFixture(t *testing.T, sessions ...*model.StripeCheckoutSession) *verifierFixture {
	t.Helper()
	f := &verifierFixture{
		recorderFixture: newRecorderFixture(seedBundle(2)),
		stripe:          newFakeStripeClient(sessions...),
		events:          newFakeEventRepo(),
		orders:          newFakeOrderRepo(),
	}
	f.verifier = NewFulfillmentVerifier(
		f.stripe, f.recorder,
		f.index, f.events, f.orders,
		config.Polling{MaxAttempts: 3, AttemptDelay: time.Millisecond},
		testLogger(),
	)
	return f
}

func (f *verifierFixture) seedOrder(sessionID, buyerID string) {
	_ = f.orders.Create(context.Background(), &model.CheckoutOrder{
		SessionID: sessionID,
		BuyerID:   buyerID,
		BundleID:  "b1",
		Status:    "CREATED",
	})
}

func paidSession(id string) *model.StripeCheckoutSession {
	return &model.StripeCheckoutSession{
		ID:            id,
		PaymentStatus: "paid",
		Status:        "complete",
		AmountTotal:   1999,
		Currency:      "usd",
		Metadata: model.StripeMetadata{
			BundleID: "b1",
			BuyerID:  "buyer-1",
		},
	}
}

func webhookBody(t *testing.T, eventID string, session *model.StripeCheckoutSession) []byte {
	t.Helper()
	body, err := json.Marshal(model.StripeWebhookEvent{
		ID:   eventID,
		Type: "checkout.session.completed",
		Data: model.StripeEventData{Object: *session},
	})
	require.NoError(t, err)
	return body
}

func TestHandleWebhook_FulfillsPaidSession(t *testing.T) {
	f := newVerifierFixture(t)
	session := paidSession("cs_1")

	err := f.verifier.HandleWebhook(context.Background(), "sig", webhookBody(t, "evt_1", session))
	require.NoError(t, err)

	record, err := f.index.FindByKey(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseCompleted, record.Status)
	assert.Equal(t, "buyer-1", record.BuyerID)

	processed, _ := f.events.Exists("evt_1")
	assert.True(t, processed)
	assert.Contains(t, f.orders.completed, "cs_1")
}

func TestHandleWebhook_RedeliveryIsNoOp(t *testing.T) {
	f := newVerifierFixture(t)
	body := webhookBody(t, "evt_1", paidSession("cs_1"))

	require.NoError(t, f.verifier.HandleWebhook(context.Background(), "sig", body))
	require.NoError(t, f.verifier.HandleWebhook(context.Background(), "sig", body))

	assert.Equal(t, 1, f.index.inserts)
	assert.Len(t, f.ledger.entries, 1)
}

func TestHandleWebhook_DistinctEventsSameSessionConverge(t *testing.T) {
	f := newVerifierFixture(t)
	session := paidSession("cs_1")

	// Stripe can emit more than one event type for the same session
	require.NoError(t, f.verifier.HandleWebhook(context.Background(), "sig", webhookBody(t, "evt_1", session)))
	require.NoError(t, f.verifier.HandleWebhook(context.Background(), "sig", webhookBody(t, "evt_2", session)))

	assert.Equal(t, 1, f.index.inserts)
}

func TestHandleWebhook_BadSignatureRejected(t *testing.T) {
	f := newVerifierFixture(t)
	f.stripe.sigErr = errors.New("no matching v1 signature")

	err := f.verifier.HandleWebhook(context.Background(), "sig", webhookBody(t, "evt_1", paidSession("cs_1")))
	require.Error(t, err)

	assert.Equal(t, 0, f.index.inserts)
}

func TestHandleWebhook_AnonymousSessionRejected(t *testing.T) {
	f := newVerifierFixture(t)
	session := paidSession("cs_1")
	session.Metadata.BuyerID = ""
	session.ClientRefID = ""

	err := f.verifier.HandleWebhook(context.Background(), "sig", webhookBody(t, "evt_1", session))
	assert.ErrorIs(t, err, model.ErrAnonymousBuyer)
	assert.Equal(t, 0, f.index.inserts)
}

func TestHandleWebhook_UnpaidSessionNotRecorded(t *testing.T) {
	f := newVerifierFixture(t)
	session := paidSession("cs_1")
	session.PaymentStatus = "unpaid"

	err := f.verifier.HandleWebhook(context.Background(), "sig", webhookBody(t, "evt_1", session))
	assert.ErrorIs(t, err, model.ErrPaymentNotCompleted)
	assert.Equal(t, 0, f.index.inserts)
}

func TestVerifyAndRecord_CorroboratesWithProvider(t *testing.T) {
	f := newVerifierFixture(t, paidSession("cs_1"))

	resp, err := f.verifier.VerifyAndRecord(context.Background(), "buyer-1", "cs_1")
	require.NoError(t, err)

	assert.Equal(t, "completed", resp.Status)
	require.NotNil(t, resp.Purchase)
	assert.False(t, resp.AlreadyGranted)
	assert.Equal(t, 1, f.stripe.getCalls)
}

func TestVerifyAndRecord_ShortCircuitsWithoutProviderCall(t *testing.T) {
	f := newVerifierFixture(t, paidSession("cs_1"))

	_, err := f.verifier.VerifyAndRecord(context.Background(), "buyer-1", "cs_1")
	require.NoError(t, err)

	resp, err := f.verifier.VerifyAndRecord(context.Background(), "buyer-1", "cs_1")
	require.NoError(t, err)

	assert.True(t, resp.AlreadyGranted)
	assert.Equal(t, 1, f.stripe.getCalls, "second call must not hit the provider")
}

func TestVerifyAndRecord_UnpaidSurfacesPaymentNotCompleted(t *testing.T) {
	session := paidSession("cs_1")
	session.PaymentStatus = "unpaid"
	f := newVerifierFixture(t, session)

	_, err := f.verifier.VerifyAndRecord(context.Background(), "buyer-1", "cs_1")
	assert.ErrorIs(t, err, model.ErrPaymentNotCompleted)
}

func TestVerifyAndRecord_RejectsForeignSession(t *testing.T) {
	f := newVerifierFixture(t, paidSession("cs_1"))

	_, err := f.verifier.VerifyAndRecord(context.Background(), "buyer-2", "cs_1")
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	assert.Equal(t, 0, f.index.inserts)
}

func TestVerifyAndRecord_RejectsForeignSessionAfterFulfillment(t *testing.T) {
	f := newVerifierFixture(t, paidSession("cs_1"))

	_, err := f.verifier.VerifyAndRecord(context.Background(), "buyer-1", "cs_1")
	require.NoError(t, err)

	// replaying the owner's session ID must not leak the stored receipt
	resp, err := f.verifier.VerifyAndRecord(context.Background(), "buyer-2", "cs_1")
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	assert.Nil(t, resp)
	assert.Equal(t, 1, f.stripe.getCalls)
}

func TestVerifyAndRecord_RejectsAnonymousCaller(t *testing.T) {
	f := newVerifierFixture(t, paidSession("cs_1"))

	for _, buyerID := range []string{"", model.AnonymousBuyerID} {
		_, err := f.verifier.VerifyAndRecord(context.Background(), buyerID, "cs_1")
		assert.ErrorIs(t, err, model.ErrAnonymousBuyer)
	}
}

func TestAwaitCompletion_SettlesMidPoll(t *testing.T) {
	session := paidSession("cs_1")
	session.PaymentStatus = "unpaid"
	f := newVerifierFixture(t, session)
	f.seedOrder("cs_1", "buyer-1")
	f.stripe.paidAfterCalls = 2

	resp, err := f.verifier.AwaitCompletion(context.Background(), "buyer-1", "cs_1")
	require.NoError(t, err)

	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, 2, f.stripe.getCalls)
}

func TestAwaitCompletion_BudgetExhaustedIsDelayedNotError(t *testing.T) {
	session := paidSession("cs_1")
	session.PaymentStatus = "unpaid"
	f := newVerifierFixture(t, session)
	f.seedOrder("cs_1", "buyer-1")

	resp, err := f.verifier.AwaitCompletion(context.Background(), "buyer-1", "cs_1")
	require.NoError(t, err)

	assert.Equal(t, "delayed", resp.Status)
	assert.Equal(t, 3, f.stripe.getCalls, "one provider call per budgeted attempt")
	assert.Equal(t, 0, f.index.inserts)
}

func TestAwaitCompletion_StopsOnContextCancel(t *testing.T) {
	session := paidSession("cs_1")
	session.PaymentStatus = "unpaid"
	f := newVerifierFixture(t, session)
	f.seedOrder("cs_1", "buyer-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.verifier.AwaitCompletion(ctx, "buyer-1", "cs_1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAwaitCompletion_UnknownSessionIsNotFound(t *testing.T) {
	f := newVerifierFixture(t, paidSession("cs_1"))

	// no pending order row was ever created for this session
	_, err := f.verifier.AwaitCompletion(context.Background(), "buyer-1", "cs_ghost")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, 0, f.stripe.getCalls)
}
