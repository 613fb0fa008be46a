package payment

import (
	"context"       // Request-scoped cancellation
	"encoding/json" // json.Number salaries
	"errors"        // Error matching
	"fmt"           // Error wrapping
	"math"          // Amount bounds
	"strings"       // Currency and URL normalization
	"time"          // Payment timestamps

	"etuition/internal/domain" // Importing domain models
	"etuition/internal/events" // Payment event publisher

	"github.com/sirupsen/logrus" // Structured logging
)

// maxSalary is the largest salary whose minor-unit amount fits in an int64
const maxSalary = math.MaxInt64 / 100

// Store is the slice of the data store the bridge needs
type Store interface {
	GetPaymentBySession(ctx context.Context, sessionID string) (*domain.Payment, error)
	GetApplication(ctx context.Context, id string) (*domain.Application, error)
	GetTuition(ctx context.Context, id string) (*domain.TuitionPost, error)
	RecordPayment(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
}

// Service creates checkouts and reconciles paid sessions
type Service struct {
	provider   Provider         // Hosted checkout
	store      Store            // Payments and the records they reference
	publisher  events.Publisher // payment.paid events
	currency   string           // ISO currency, lower-case
	siteDomain string           // Front-end origin for redirects
	now        func() time.Time // Clock, replaced in tests
}

// NewService wires the bridge; a nil publisher discards events
func NewService(provider Provider, store Store, publisher events.Publisher, currency, siteDomain string) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{
		provider:   provider,
		store:      store,
		publisher:  publisher,
		currency:   strings.ToLower(currency),
		siteDomain: strings.TrimRight(siteDomain, "/"),
		now:        time.Now,
	}
}

// CheckoutInput is the client's checkout request
type CheckoutInput struct {
	ApplicationID  string      `json:"applicationId" binding:"required"`  // Application being paid for
	TuitionID      string      `json:"tuitionId" binding:"required"`      // Post the application targets
	ExpectedSalary json.Number `json:"expectedSalary" binding:"required"` // Major units, number or numeric string
	TutorEmail     string      `json:"tutorEmail" binding:"required"`     // Payee
	TutorName      string      `json:"tutorName"`                         // Shown on the line item
	Subject        string      `json:"subject"`                           // Shown on the line item
	TuitionClass   string      `json:"tuitionClass"`                      // Shown on the line item
	StudentEmail   string      `json:"studentEmail"`                      // Prefilled payer email
}

// salary parses the expected salary as whole major units, truncating fractions
func (in CheckoutInput) salary() (int64, error) {
	if n, err := in.ExpectedSalary.Int64(); err == nil {
		return n, nil
	}
	f, err := in.ExpectedSalary.Float64()
	if err != nil {
		return 0, err
	}
	// Out-of-range floats have no defined int64 conversion
	if !(f >= 0 && f <= maxSalary) {
		return 0, errors.New("salary out of range")
	}
	return int64(f), nil
}

// Checkout opens a hosted checkout and returns its redirect URL
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (string, error) {
	salary, err := in.salary()
	if err != nil || salary <= 0 || salary > maxSalary {
		return "", fmt.Errorf("expected salary must be a positive amount: %w", domain.ErrValidation)
	}
	sess, err := s.provider.CreateCheckoutSession(ctx, CheckoutRequest{
		AmountMinor:   salary * 100,
		Currency:      s.currency,
		ProductName:   fmt.Sprintf("Tuition: %s | Class : %s", in.Subject, in.TuitionClass),
		ProductDetail: fmt.Sprintf("Tutor: %s | Email: %s", in.TutorName, in.TutorEmail),
		CustomerEmail: domain.NormalizeEmail(in.StudentEmail),
		SuccessURL:    s.siteDomain + "/dashboard/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.siteDomain + "/dashboard/payment-cancelled",
		Metadata: map[string]string{
			MetaApplicationID: in.ApplicationID,
			MetaTuitionID:     in.TuitionID,
			MetaTutorEmail:    domain.NormalizeEmail(in.TutorEmail),
		},
	})
	if err != nil {
		return "", err
	}
	logrus.WithFields(logrus.Fields{
		"session_id":     sess.ID,
		"application_id": in.ApplicationID,
		"amount":         salary,
	}).Info("Checkout session created")
	return sess.URL, nil
}

// Result is the outcome of a reconciliation
type Result struct {
	Paid     bool            // Provider reports the session paid
	Replayed bool            // Payment already existed for the session
	Payment  *domain.Payment // Stored payment when Paid
}

// Reconcile records the payment for a paid session and approves its application.
// Unpaid sessions produce no writes; a session already recorded returns the
// stored payment unchanged.
func (s *Service) Reconcile(ctx context.Context, sessionID string) (Result, error) {
	if sessionID == "" {
		return Result{}, fmt.Errorf("session_id is required: %w", domain.ErrValidation)
	}
	sess, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	if sess.PaymentStatus != domain.PaymentPaid {
		return Result{}, nil
	}
	// Idempotent replay
	existing, err := s.store.GetPaymentBySession(ctx, sess.ID)
	if err == nil {
		return Result{Paid: true, Replayed: true, Payment: existing}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return Result{}, err
	}

	applicationID := sess.Metadata[MetaApplicationID]
	tuitionID := sess.Metadata[MetaTuitionID]
	application, err := s.store.GetApplication(ctx, applicationID)
	if err != nil {
		return Result{}, fmt.Errorf("application %q: %w", applicationID, err)
	}
	tuition, err := s.store.GetTuition(ctx, tuitionID)
	if err != nil {
		return Result{}, fmt.Errorf("tuition %q: %w", tuitionID, err)
	}

	p := &domain.Payment{
		SessionID:     sess.ID,
		ApplicationID: application.ID,
		TuitionID:     tuition.ID,
		StudentEmail:  domain.NormalizeEmail(sess.CustomerEmail),
		TutorEmail:    domain.NormalizeEmail(sess.Metadata[MetaTutorEmail]),
		TutorName:     application.TutorName,
		Subject:       tuition.Subject,
		Class:         tuition.Class,
		Amount:        float64(sess.AmountTotal) / 100,
		Currency:      sess.Currency,
		TransactionID: sess.PaymentIntentID,
		PaymentStatus: sess.PaymentStatus,
		PaidAt:        s.now(),
	}
	stored, err := s.store.RecordPayment(ctx, p)
	if errors.Is(err, domain.ErrDuplicate) {
		return Result{Paid: true, Replayed: true, Payment: stored}, nil
	}
	if err != nil {
		return Result{}, err
	}

	logrus.WithFields(logrus.Fields{
		"session_id":     stored.SessionID,
		"application_id": stored.ApplicationID,
		"transaction_id": stored.TransactionID,
		"amount":         stored.Amount,
	}).Info("Payment recorded, application approved")
	s.publishPaid(ctx, stored)
	return Result{Paid: true, Payment: stored}, nil
}

// HandleWebhook verifies a provider notification and reconciles completed checkouts
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.provider.ParseWebhookEvent(payload, signature)
	if errors.Is(err, ErrWebhookDisabled) {
		return fmt.Errorf("%w: %w", err, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("verify webhook: %v: %w", err, domain.ErrValidation)
	}
	if ev.Type != EventCheckoutCompleted || ev.SessionID == "" {
		return nil // Other events are acknowledged and ignored
	}
	_, err = s.Reconcile(ctx, ev.SessionID)
	return err
}

// publishPaid emits payment.paid; failures are logged, never returned
func (s *Service) publishPaid(ctx context.Context, p *domain.Payment) {
	evt := events.NewPaymentPaid(s.now())
	evt.Data.PaymentID = p.ID
	evt.Data.SessionID = p.SessionID
	evt.Data.ApplicationID = p.ApplicationID
	evt.Data.TuitionID = p.TuitionID
	evt.Data.TutorEmail = p.TutorEmail
	evt.Data.StudentEmail = p.StudentEmail
	evt.Data.Amount = p.Amount
	evt.Data.Currency = p.Currency
	if err := s.publisher.PublishJSON(ctx, events.KeyPaymentPaid, evt); err != nil {
		logrus.WithFields(logrus.Fields{
			"session_id": p.SessionID,
			"error":      err.Error(),
		}).Warn("Publish payment.paid failed")
	}
}
