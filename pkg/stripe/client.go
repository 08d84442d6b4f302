package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Event = stripe.Event

type PaymentIntent = stripe.PaymentIntent

var (
	ErrNoAPIKey        = errors.New("stripe api key not configured")
	ErrNoWebhookSecret = errors.New("webhook secret not configured")
	ErrCircuitOpen     = errors.New("stripe circuit breaker is open")
)

var tracer = otel.Tracer("github.com/aaravmahajanofficial/storefront-checkout/pkg/stripe")

// Keys are the account credentials used for a single gateway call.
type Keys struct {
	SecretKey     string
	WebhookSecret string
}

// KeySource resolves the credentials to use. It is consulted on every call so
// rotated keys take effect without a restart.
type KeySource interface {
	StripeKeys(ctx context.Context) (Keys, error)
}

type KeySourceFunc func(ctx context.Context) (Keys, error)

func (f KeySourceFunc) StripeKeys(ctx context.Context) (Keys, error) {
	return f(ctx)
}

type CreateIntentParams struct {
	Amount         int64
	Currency       string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
}

// defines the methods that any of payment client must implement.
type Client interface {
	CreatePaymentIntent(ctx context.Context, params CreateIntentParams) (*stripe.PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	UpdatePaymentIntentMetadata(ctx context.Context, id string, metadata map[string]string) error
	VerifyWebhookSignature(ctx context.Context, payload []byte, signature string) (Event, error)
	CheckBalance(ctx context.Context) error
}

type Options struct {
	RequestTimeout     time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
	// Backends overrides the Stripe API endpoints, mostly for tests.
	Backends *stripe.Backends
}

type stripeClient struct {
	keys     KeySource
	timeout  time.Duration
	backends *stripe.Backends
	breaker  *gobreaker.CircuitBreaker[*stripe.PaymentIntent]

	mu      sync.Mutex
	clients map[string]*client.API
}

func NewStripeClient(keys KeySource, opts Options) Client {
	maxFailures := opts.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	settings := gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: 1,
		Timeout:     opts.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: countsAsSuccess,
	}

	return &stripeClient{
		keys:     keys,
		timeout:  opts.RequestTimeout,
		backends: opts.Backends,
		breaker:  gobreaker.NewCircuitBreaker[*stripe.PaymentIntent](settings),
		clients:  map[string]*client.API{},
	}
}

// countsAsSuccess keeps caller mistakes such as declined cards or unknown ids
// from tripping the breaker. Only outages and throttling count as failures.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode > 0 && stripeErr.HTTPStatusCode < http.StatusInternalServerError &&
			stripeErr.HTTPStatusCode != http.StatusTooManyRequests
	}

	return false
}

func (s *stripeClient) api(ctx context.Context) (*client.API, Keys, error) {
	keys, err := s.keys.StripeKeys(ctx)
	if err != nil {
		return nil, Keys{}, err
	}

	if keys.SecretKey == "" {
		return nil, Keys{}, ErrNoAPIKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	api, ok := s.clients[keys.SecretKey]
	if !ok {
		api = client.New(keys.SecretKey, s.backends)
		s.clients[keys.SecretKey] = api
	}

	return api, keys, nil
}

func (s *stripeClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.timeout)
}

func (s *stripeClient) execute(ctx context.Context, op string, fn func(ctx context.Context, api *client.API) (*stripe.PaymentIntent, error), attrs ...attribute.KeyValue) (*stripe.PaymentIntent, error) {
	ctx, span := tracer.Start(ctx, "stripe."+op, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
	defer span.End()

	api, _, err := s.api(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	intent, err := s.breaker.Execute(func() (*stripe.PaymentIntent, error) {
		return fn(callCtx, api)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	span.SetAttributes(attribute.String("stripe.payment_intent.status", string(intent.Status)))

	return intent, nil
}

// PaymentIntent == "planned payment" or order waiting for payment.
func (s *stripeClient) CreatePaymentIntent(ctx context.Context, p CreateIntentParams) (*stripe.PaymentIntent, error) {
	return s.execute(ctx, "CreatePaymentIntent", func(ctx context.Context, api *client.API) (*stripe.PaymentIntent, error) {
		params := &stripe.PaymentIntentParams{
			Amount:   stripe.Int64(p.Amount),
			Currency: stripe.String(p.Currency),
			AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
				Enabled: stripe.Bool(true),
			},
		}

		if p.Description != "" {
			params.Description = stripe.String(p.Description)
		}

		if p.IdempotencyKey != "" {
			params.SetIdempotencyKey(p.IdempotencyKey)
		}

		for k, v := range p.Metadata {
			params.AddMetadata(k, v)
		}

		params.Context = ctx

		return api.PaymentIntents.New(params)
	}, attribute.Int64("stripe.amount", p.Amount), attribute.String("stripe.currency", p.Currency))
}

func (s *stripeClient) RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	return s.execute(ctx, "RetrievePaymentIntent", func(ctx context.Context, api *client.API) (*stripe.PaymentIntent, error) {
		params := &stripe.PaymentIntentParams{}
		params.Context = ctx

		return api.PaymentIntents.Get(id, params)
	}, attribute.String("stripe.payment_intent.id", id))
}

func (s *stripeClient) UpdatePaymentIntentMetadata(ctx context.Context, id string, metadata map[string]string) error {
	_, err := s.execute(ctx, "UpdatePaymentIntentMetadata", func(ctx context.Context, api *client.API) (*stripe.PaymentIntent, error) {
		params := &stripe.PaymentIntentParams{}

		for k, v := range metadata {
			params.AddMetadata(k, v)
		}

		params.Context = ctx

		return api.PaymentIntents.Update(id, params)
	}, attribute.String("stripe.payment_intent.id", id))

	return err
}

// VerifyWebhookSignature checks the Stripe-Signature header against the configured endpoint secret.
func (s *stripeClient) VerifyWebhookSignature(ctx context.Context, payload []byte, signature string) (Event, error) {
	keys, err := s.keys.StripeKeys(ctx)
	if err != nil {
		return Event{}, err
	}

	if keys.WebhookSecret == "" {
		return Event{}, ErrNoWebhookSecret
	}

	return webhook.ConstructEventWithOptions(payload, signature, keys.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

// CheckBalance is a cheap authenticated call used by the health endpoint.
func (s *stripeClient) CheckBalance(ctx context.Context) error {
	api, _, err := s.api(ctx)
	if err != nil {
		return err
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	params := &stripe.BalanceParams{}
	params.Context = callCtx

	if _, err := api.Balance.Get(params); err != nil {
		return fmt.Errorf("stripe balance check failed: %w", err)
	}

	return nil
}

// IsAccepted reports whether an intent can still be paid or already has been.
// Any other status means the intent was consumed and a new one is needed.
func IsAccepted(status stripe.PaymentIntentStatus) bool {
	switch status {
	case stripe.PaymentIntentStatusRequiresPaymentMethod,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusSucceeded:
		return true
	default:
		return false
	}
}
