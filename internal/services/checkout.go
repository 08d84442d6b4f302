package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/credentials"
	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/events"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/metrics"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/session"
	stripeClient "github.com/aaravmahajanofficial/storefront-checkout/pkg/stripe"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
)

// MaxIntentRetries is how many replacement intents a single submission may
// create after finding its intent consumed.
const MaxIntentRetries = 1

const (
	RedirectConfirmation = "/api/v1/checkout/confirmation"

	maxCartItemsMetadata = 500
)

type CheckoutService interface {
	// Prepare returns what the payment form needs, reusing the session's intent while the cart is unchanged.
	Prepare(ctx context.Context, principal models.Principal, sess session.Store) (*models.CheckoutPage, error)
	Submit(ctx context.Context, principal models.Principal, sess session.Store, form *models.CheckoutForm) (*models.CheckoutResult, error)
	// Confirmation returns the order placed in this session and forgets it.
	Confirmation(ctx context.Context, sess session.Store) (*models.Order, error)
}

type CheckoutDeps struct {
	Carts       repository.CartRepository
	Orders      repository.OrderRepository
	Gateway     stripeClient.Client
	Credentials credentials.Provider
	Notifier    NotificationService
	Publisher   events.Publisher
	Currency    string
}

type checkoutService struct {
	carts     repository.CartRepository
	orders    repository.OrderRepository
	gateway   stripeClient.Client
	creds     credentials.Provider
	notifier  NotificationService
	publisher events.Publisher
	currency  string

	cache     *PaymentSessionCache
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

func NewCheckoutService(deps CheckoutDeps) CheckoutService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	currency := strings.ToLower(deps.Currency)
	if currency == "" {
		currency = "usd"
	}

	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}

	return &checkoutService{
		carts:     deps.Carts,
		orders:    deps.Orders,
		gateway:   deps.Gateway,
		creds:     deps.Credentials,
		notifier:  deps.Notifier,
		publisher: publisher,
		currency:  currency,
		cache:     NewPaymentSessionCache(),
		validate:  validate,
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
}

func (s *checkoutService) Prepare(ctx context.Context, principal models.Principal, sess session.Store) (*models.CheckoutPage, error) {

	logger := middleware.LoggerFromContext(ctx)

	cart, err := s.loadCart(ctx, principal)
	if err != nil {
		return nil, err
	}

	if cart.IsEmpty() {
		logger.Info("Checkout requested with an empty cart")
		return nil, appErrors.EmptyCartError()
	}

	creds, err := s.creds.Resolve(ctx)
	if err != nil {
		logger.Error("Payment gateway credentials unavailable", slog.Any("error", err))
		return nil, appErrors.PaymentGatewayUnavailableError("Payments are temporarily unavailable").WithError(err)
	}

	valid, err := s.cache.IsValid(ctx, sess, cart)
	if err != nil {
		return nil, sessionError(err)
	}

	var cached models.PaymentSession

	if valid {
		cached, _, err = s.cache.Load(ctx, sess)
		if err != nil {
			return nil, sessionError(err)
		}

		logger.Debug("Reusing cached payment intent", slog.String("payment_intent_id", cached.PaymentIntentID))
	} else {
		reason, err := s.staleReason(ctx, sess)
		if err != nil {
			return nil, err
		}

		intent, err := s.replaceIntent(ctx, principal, sess, cart, reason)
		if err != nil {
			return nil, err
		}

		cached = models.PaymentSession{PaymentIntentID: intent.ID, ClientSecret: intent.ClientSecret}
	}

	return &models.CheckoutPage{
		Cart:            models.NewCartResponse(cart),
		PublishableKey:  creds.PublishableKey,
		ClientSecret:    cached.ClientSecret,
		PaymentIntentID: cached.PaymentIntentID,
	}, nil
}

func (s *checkoutService) Submit(ctx context.Context, principal models.Principal, sess session.Store, form *models.CheckoutForm) (*models.CheckoutResult, error) {

	logger := middleware.LoggerFromContext(ctx)

	cart, err := s.loadCart(ctx, principal)
	if err != nil {
		metrics.RecordOrderOutcome(metrics.OutcomeInternalError)
		return nil, err
	}

	if cart.IsEmpty() {
		logger.Info("Checkout submitted with an empty cart")
		metrics.RecordOrderOutcome(metrics.OutcomeEmptyCart)
		return nil, appErrors.EmptyCartError()
	}

	if err := s.validateForm(form); err != nil {
		logger.Info("Checkout form rejected", slog.Any("fields", err.Fields))
		metrics.RecordOrderOutcome(metrics.OutcomeInvalidForm)
		return nil, err
	}

	intentID, err := s.reconcileIntent(ctx, principal, sess, cart, form.ClientSecret)
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	intent, err := s.confirmIntent(ctx, principal, sess, cart, intentID)
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	order := s.buildOrder(principal, form, cart, intent)

	if err := s.orders.PlaceOrder(ctx, order, cart.ID); err != nil {
		attrs := []any{
			slog.String("cart_id", cart.ID.String()),
			slog.String("items", describeLines(cart.Lines)),
			slog.Any("error", err),
		}

		var lineErr *repository.LineInsertError
		if errors.As(err, &lineErr) {
			attrs = append(attrs, slog.Int64("failed_product_id", lineErr.ProductID))
		}

		logger.Error("Order commit failed, nothing was persisted", attrs...)
		metrics.RecordOrderOutcome(metrics.OutcomeCommitFailed)

		return nil, appErrors.OrderCommitFailedError("We could not place your order, please try again").WithError(err)
	}

	if err := s.cache.Clear(ctx, sess); err != nil {
		logger.Warn("Failed to clear payment session after commit", slog.Any("error", err))
	}

	if err := sess.Set(ctx, session.KeyOrderID, strconv.FormatInt(order.ID, 10)); err != nil {
		logger.Warn("Failed to remember order for confirmation", slog.Any("error", err))
	}

	logger.Info("Order placed",
		slog.Int64("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.String("payment_intent_id", order.PaymentIntentID),
		slog.String("grand_total", order.GrandTotal.StringFixed(2)),
	)
	metrics.RecordOrderOutcome(metrics.OutcomePlaced)

	s.afterCommit(ctx, order)

	return &models.CheckoutResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		RedirectTo:  RedirectConfirmation,
	}, nil
}

func (s *checkoutService) Confirmation(ctx context.Context, sess session.Store) (*models.Order, error) {

	value, found, err := sess.Get(ctx, session.KeyOrderID)
	if err != nil {
		return nil, sessionError(err)
	}

	if !found {
		return nil, appErrors.NotFoundError("No recent order in this session").WithRedirect(appErrors.RedirectCart)
	}

	orderID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		_ = sess.Delete(ctx, session.KeyOrderID)
		return nil, appErrors.NotFoundError("No recent order in this session").WithRedirect(appErrors.RedirectCart)
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, appErrors.NotFoundError("Order not found").WithRedirect(appErrors.RedirectCart)
		}

		return nil, appErrors.DatabaseError("Failed to fetch order").WithError(err)
	}

	if err := sess.Delete(ctx, session.KeyOrderID); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Failed to consume order id from session", slog.Any("error", err))
	}

	return order, nil
}

func (s *checkoutService) loadCart(ctx context.Context, principal models.Principal) (*models.Cart, error) {
	cart, err := s.carts.GetOrCreateCart(ctx, principal)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to load cart").WithError(err)
	}

	return cart, nil
}

// reconcileIntent returns the intent the submission should pay with, replacing
// the cached one when the cart changed or the posted secret belongs elsewhere.
func (s *checkoutService) reconcileIntent(ctx context.Context, principal models.Principal, sess session.Store, cart *models.Cart, postedSecret string) (string, error) {

	cached, found, err := s.cache.Load(ctx, sess)
	if err != nil {
		return "", sessionError(err)
	}

	clientSecret := postedSecret
	if clientSecret == "" {
		clientSecret = cached.ClientSecret
	}

	reason := ""

	switch {
	case !found:
		reason = metrics.ReasonNoCache
	case cached.CartSignature != ComputeSignature(cart):
		reason = metrics.ReasonCartChanged
	case !secretMatches(clientSecret, cached):
		reason = metrics.ReasonSecretMismatch
	}

	if reason == "" {
		return cached.PaymentIntentID, nil
	}

	middleware.LoggerFromContext(ctx).Info("Cached payment intent not usable", slog.String("reason", reason))

	intent, err := s.replaceIntent(ctx, principal, sess, cart, reason)
	if err != nil {
		return "", err
	}

	return intent.ID, nil
}

// confirmIntent re-reads the intent from the gateway. A consumed or unreadable
// intent is replaced at most MaxIntentRetries times.
func (s *checkoutService) confirmIntent(ctx context.Context, principal models.Principal, sess session.Store, cart *models.Cart, intentID string) (*stripe.PaymentIntent, error) {

	logger := middleware.LoggerFromContext(ctx)

	for attempt := 0; ; attempt++ {
		intent, err := s.gateway.RetrievePaymentIntent(ctx, intentID)

		switch {
		case err != nil:
			metrics.RecordGatewayError("retrieve")
			logger.Warn("Failed to retrieve payment intent", slog.String("payment_intent_id", intentID), slog.Any("error", err))
		case stripeClient.IsAccepted(intent.Status):
			return intent, nil
		default:
			logger.Info("Payment intent already consumed", slog.String("payment_intent_id", intentID), slog.String("status", string(intent.Status)))
		}

		if attempt >= MaxIntentRetries {
			logger.Warn("Payment intent still unusable after retry", slog.String("payment_intent_id", intentID))
			return nil, appErrors.PaymentGatewayError("Payment system error, please try again")
		}

		replacement, err := s.replaceIntent(ctx, principal, sess, cart, metrics.ReasonConsumed)
		if err != nil {
			return nil, err
		}

		intentID = replacement.ID
	}
}

// replaceIntent drops whatever the session cached and stores a fresh intent
// for the current cart.
func (s *checkoutService) replaceIntent(ctx context.Context, principal models.Principal, sess session.Store, cart *models.Cart, reason string) (*stripe.PaymentIntent, error) {

	logger := middleware.LoggerFromContext(ctx)

	if err := s.cache.Clear(ctx, sess); err != nil {
		return nil, sessionError(err)
	}

	signature := ComputeSignature(cart)

	intent, err := s.gateway.CreatePaymentIntent(ctx, stripeClient.CreateIntentParams{
		Amount:         toMinorUnits(cart.TotalPrice()),
		Currency:       s.currency,
		Description:    fmt.Sprintf("Storefront checkout, %d items", cart.ItemCount()),
		Metadata:       s.intentMetadata(principal, cart, signature),
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		metrics.RecordGatewayError("create")

		if errors.Is(err, stripeClient.ErrNoAPIKey) || errors.Is(err, credentials.ErrCredentialsNotFound) {
			logger.Error("Payment gateway is not configured", slog.Any("error", err))
			return nil, appErrors.PaymentGatewayUnavailableError("Payments are temporarily unavailable").WithError(err)
		}

		logger.Warn("Failed to create payment intent", slog.Any("error", err))
		return nil, appErrors.PaymentGatewayError("Payment system error, please try again").WithError(err)
	}

	if err := s.cache.Store(ctx, sess, cart, intent.ID, intent.ClientSecret); err != nil {
		return nil, sessionError(err)
	}

	metrics.RecordIntentCreated(reason)
	logger.Info("Payment intent created", slog.String("payment_intent_id", intent.ID), slog.String("reason", reason))

	return intent, nil
}

func (s *checkoutService) staleReason(ctx context.Context, sess session.Store) (string, error) {
	_, found, err := s.cache.Load(ctx, sess)
	if err != nil {
		return "", sessionError(err)
	}

	if found {
		return metrics.ReasonCartChanged, nil
	}

	return metrics.ReasonNoCache, nil
}

func (s *checkoutService) intentMetadata(principal models.Principal, cart *models.Cart, signature string) map[string]string {
	items := make([]map[string]any, 0, len(cart.Lines))

	for _, line := range cart.Lines {
		items = append(items, map[string]any{
			"product_id": line.ProductID,
			"name":       line.ProductName,
			"quantity":   line.Quantity,
			"price":      line.UnitPrice.StringFixed(2),
		})
	}

	snapshot, _ := json.Marshal(items)

	metadata := map[string]string{
		"cart_signature": signature,
		"cart_items":     truncate(string(snapshot), maxCartItemsMetadata),
		"item_count":     strconv.Itoa(cart.ItemCount()),
		"created_at":     s.now().UTC().Format(time.RFC3339),
	}

	if principal.IsAuthenticated() {
		metadata["user_id"] = principal.UserID.String()
	} else {
		metadata["session_key"] = principal.SessionKey
	}

	return metadata
}

func (s *checkoutService) validateForm(form *models.CheckoutForm) *appErrors.AppError {
	for _, field := range []*string{
		&form.FullName, &form.Email, &form.Phone, &form.AddressLine1, &form.AddressLine2,
		&form.City, &form.State, &form.PostalCode, &form.Country,
	} {
		*field = strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(*field)))
	}

	form.Country = strings.ToUpper(form.Country)

	err := s.validate.Struct(form)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return appErrors.ValidationError("Invalid checkout form").WithError(err)
	}

	fields := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		fields = append(fields, fieldErr.Field())
	}

	return appErrors.ValidationError("Please correct the highlighted fields").
		WithDetail("invalid fields: " + strings.Join(fields, ", ")).
		WithFields(fields...)
}

func (s *checkoutService) buildOrder(principal models.Principal, form *models.CheckoutForm, cart *models.Cart, intent *stripe.PaymentIntent) *models.Order {
	total := cart.TotalPrice()

	order := &models.Order{
		FullName:        form.FullName,
		Email:           form.Email,
		Phone:           form.Phone,
		AddressLine1:    form.AddressLine1,
		AddressLine2:    form.AddressLine2,
		City:            form.City,
		State:           form.State,
		PostalCode:      form.PostalCode,
		Country:         form.Country,
		Status:          models.OrderStatusCreated,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentIntentID: intent.ID,
		TotalPrice:      total,
		GrandTotal:      total,
		Currency:        s.currency,
		Lines:           make([]models.OrderLine, 0, len(cart.Lines)),
	}

	if principal.IsAuthenticated() {
		order.UserID = uuid.NullUUID{UUID: *principal.UserID, Valid: true}
	} else {
		order.SessionKey = principal.SessionKey
	}

	for _, line := range cart.Lines {
		order.Lines = append(order.Lines, models.OrderLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
		})
	}

	return order
}

// afterCommit runs the follow-ups that must not undo a placed order.
func (s *checkoutService) afterCommit(ctx context.Context, order *models.Order) {

	logger := middleware.LoggerFromContext(ctx).With(slog.String("order_number", order.OrderNumber))

	err := s.gateway.UpdatePaymentIntentMetadata(ctx, order.PaymentIntentID, map[string]string{
		"order_number": order.OrderNumber,
		"order_id":     strconv.FormatInt(order.ID, 10),
	})
	if err != nil {
		metrics.RecordGatewayError("update")
		logger.Warn("Failed to tag payment intent with order number", slog.Any("error", err))
	}

	if s.notifier != nil {
		if _, err := s.notifier.SendOrderConfirmation(ctx, order); err != nil {
			logger.Warn("Failed to send order confirmation", slog.Any("error", err))
		}
	}

	lines := make([]events.OrderLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, events.OrderLine{ProductID: line.ProductID, Quantity: line.Quantity, Price: line.Price})
	}

	err = s.publisher.Publish(ctx, order.OrderNumber, &events.Envelope{
		Type:       events.TypeOrderCreated,
		OccurredAt: s.now().UTC(),
		Data: events.OrderCreated{
			OrderID:         order.ID,
			OrderNumber:     order.OrderNumber,
			PaymentIntentID: order.PaymentIntentID,
			Email:           order.Email,
			GrandTotal:      order.GrandTotal,
			Currency:        order.Currency,
			Lines:           lines,
		},
	})
	if err != nil {
		logger.Warn("Failed to publish order event", slog.Any("error", err))
	}
}

func (s *checkoutService) recordFailure(err error) {
	if appErr, ok := appErrors.IsAppError(err); ok && appErr.Code == appErrors.ErrCodeInternal {
		metrics.RecordOrderOutcome(metrics.OutcomeInternalError)
		return
	}

	metrics.RecordOrderOutcome(metrics.OutcomeGatewayError)
}

// secretMatches accepts the cached secret itself or any secret minted for the
// cached intent, whose form is <intent id>_secret_<random>.
func secretMatches(clientSecret string, cached models.PaymentSession) bool {
	if clientSecret == "" {
		return false
	}

	if clientSecret == cached.ClientSecret {
		return true
	}

	intentID, _, ok := strings.Cut(clientSecret, "_secret_")

	return ok && intentID == cached.PaymentIntentID
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func sessionError(err error) error {
	return appErrors.InternalError("Failed to access checkout session").WithError(err)
}

func describeLines(lines []models.CartLine) string {
	parts := make([]string, 0, len(lines))

	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("%d x%d @%s", line.ProductID, line.Quantity, line.UnitPrice.StringFixed(2)))
	}

	return strings.Join(parts, ", ")
}

// truncate keeps at most limit characters, never splitting a multi-byte rune.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := 0
	for i := range s {
		if runes == limit {
			return s[:i]
		}
		runes++
	}

	return s
}
