package payment

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"etuition/internal/domain"
	"etuition/internal/events"
	"etuition/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	sessions map[string]*Session
	created  []CheckoutRequest
	event    *WebhookEvent
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*Session, error) {
	f.created = append(f.created, req)
	return &Session{ID: "cs_new", URL: "https://checkout.example/cs_new"}, nil
}

func (f *fakeProvider) RetrieveSession(_ context.Context, id string) (*Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("no such session")
	}
	return s, nil
}

func (f *fakeProvider) ParseWebhookEvent([]byte, string) (*WebhookEvent, error) {
	if f.event == nil {
		return nil, errors.New("bad signature")
	}
	return f.event, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingPublisher) PublishJSON(_ context.Context, key string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

type fixture struct {
	svc      *Service
	store    *store.MemoryStore
	provider *fakeProvider
	pub      *recordingPublisher
	app      *domain.Application
	post     *domain.TuitionPost
}

func newFixture(t *testing.T, status string) *fixture {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	post := &domain.TuitionPost{StudentEmail: "s@example.com", Subject: "Math", Class: "10", Budget: 500, Status: domain.StatusApproved}
	require.NoError(t, st.CreateTuition(ctx, post))
	app := &domain.Application{TuitionID: post.ID, TutorEmail: "t@example.com", TutorName: "Tina", ExpectedSalary: 450, Status: domain.StatusPending}
	require.NoError(t, st.CreateApplication(ctx, app))

	provider := &fakeProvider{sessions: map[string]*Session{
		"cs_1": {
			ID:              "cs_1",
			PaymentStatus:   status,
			PaymentIntentID: "pi_1",
			AmountTotal:     45000,
			Currency:        "usd",
			CustomerEmail:   "s@example.com",
			Metadata: map[string]string{
				MetaApplicationID: app.ID,
				MetaTuitionID:     post.ID,
				MetaTutorEmail:    "t@example.com",
			},
		},
	}}
	pub := &recordingPublisher{}
	svc := NewService(provider, st, pub, "USD", "https://site.example/")
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return &fixture{svc: svc, store: st, provider: provider, pub: pub, app: app, post: post}
}

func TestCheckoutBuildsSession(t *testing.T) {
	f := newFixture(t, domain.PaymentPaid)

	url, err := f.svc.Checkout(context.Background(), CheckoutInput{
		ApplicationID:  f.app.ID,
		TuitionID:      f.post.ID,
		ExpectedSalary: json.Number("450"),
		TutorEmail:     "T@example.com",
		TutorName:      "Tina",
		Subject:        "Math",
		TuitionClass:   "10",
		StudentEmail:   "s@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/cs_new", url)

	require.Len(t, f.provider.created, 1)
	req := f.provider.created[0]
	assert.EqualValues(t, 45000, req.AmountMinor)
	assert.Equal(t, "usd", req.Currency)
	assert.Equal(t, "Tuition: Math | Class : 10", req.ProductName)
	assert.Equal(t, "https://site.example/dashboard/payment-success?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
	assert.Equal(t, "https://site.example/dashboard/payment-cancelled", req.CancelURL)
	assert.Equal(t, map[string]string{
		MetaApplicationID: f.app.ID,
		MetaTuitionID:     f.post.ID,
		MetaTutorEmail:    "t@example.com",
	}, req.Metadata)
}

func TestCheckoutRejectsNonPositiveSalary(t *testing.T) {
	f := newFixture(t, domain.PaymentPaid)
	for _, salary := range []string{"0", "-5", "abc"} {
		_, err := f.svc.Checkout(context.Background(), CheckoutInput{ExpectedSalary: json.Number(salary)})
		assert.ErrorIs(t, err, domain.ErrValidation, salary)
	}
	assert.Empty(t, f.provider.created)
}

func TestCheckoutRejectsOversizedSalary(t *testing.T) {
	f := newFixture(t, domain.PaymentPaid)
	for _, salary := range []string{"92233720368547759", "9223372036854775807", "1e30", "-1e30", "1e400"} {
		_, err := f.svc.Checkout(context.Background(), CheckoutInput{ExpectedSalary: json.Number(salary)})
		assert.ErrorIs(t, err, domain.ErrValidation, salary)
	}
	assert.Empty(t, f.provider.created)

	_, err := f.svc.Checkout(context.Background(), CheckoutInput{ExpectedSalary: json.Number("92233720368547758")})
	require.NoError(t, err)
	require.Len(t, f.provider.created, 1)
	assert.EqualValues(t, int64(9223372036854775800), f.provider.created[0].AmountMinor)
}

func TestReconcileRecordsPaymentAndApproves(t *testing.T) {
	f := newFixture(t, domain.PaymentPaid)
	ctx := context.Background()

	res, err := f.svc.Reconcile(ctx, "cs_1")
	require.NoError(t, err)
	require.True(t, res.Paid)
	assert.False(t, res.Replayed)
	p := res.Payment
	assert.Equal(t, 450.0, p.Amount)
	assert.Equal(t, "usd", p.Currency)
	assert.Equal(t, "Tina", p.TutorName)
	assert.Equal(t, "Math", p.Subject)
	assert.Equal(t, "10", p.Class)
	assert.Equal(t, "pi_1", p.TransactionID)
	assert.Equal(t, "s@example.com", p.StudentEmail)

	app, err := f.store.GetApplication(ctx, f.app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, app.Status)
	assert.Equal(t, "pi_1", app.TransactionID)
	assert.Equal(t, []string{events.KeyPaymentPaid}, f.pub.keys)
}

func TestReconcileReplayIsNoop(t *testing.T) {
	f := newFixture(t, domain.PaymentPaid)
	ctx := context.Background()

	first, err := f.svc.Reconcile(ctx, "cs_1")
	require.NoError(t, err)
	second, err := f.svc.Reconcile(ctx, "cs_1")
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, *first.Payment, *second.Payment)
	report, err := f.store.Report(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Transactions, 1)
	assert.Len(t, f.pub.keys, 1)
}

func TestReconcileUnpaidSessionWritesNothing(t *testing.T) {
	f := newFixture(t, "unpaid")
	ctx := context.Background()

	res, err := f.svc.Reconcile(ctx, "cs_1")
	require.NoError(t, err)
	assert.False(t, res.Paid)
	assert.Nil(t, res.Payment)

	_, err = f.store.GetPaymentBySession(ctx, "cs_1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	app, err := f.store.GetApplication(ctx, f.app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, app.Status)
	assert.Empty(t, f.pub.keys)
}

func TestReconcileMissingApplicationIsNotFound(t *testing.T) {
	f := newFixture(t, domain.PaymentPaid)
	f.provider.sessions["cs_1"].Metadata[MetaApplicationID] = "missing"

	_, err := f.svc.Reconcile(context.Background(), "cs_1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandleWebhookReconcilesCompletedCheckout(t *testing.T) {
	f := newFixture(t, domain.PaymentPaid)
	ctx := context.Background()

	f.provider.event = &WebhookEvent{Type: "payment_intent.created"}
	require.NoError(t, f.svc.HandleWebhook(ctx, nil, "sig"))
	_, err := f.store.GetPaymentBySession(ctx, "cs_1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	f.provider.event = &WebhookEvent{Type: EventCheckoutCompleted, SessionID: "cs_1"}
	require.NoError(t, f.svc.HandleWebhook(ctx, nil, "sig"))
	p, err := f.store.GetPaymentBySession(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, f.app.ID, p.ApplicationID)

	f.provider.event = nil
	assert.ErrorIs(t, f.svc.HandleWebhook(ctx, nil, "bad"), domain.ErrValidation)
}
