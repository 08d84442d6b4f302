package models

// PaymentSession is the payment state cached in a browsing session, tying a
// payment intent to the cart contents it was created for.
type PaymentSession struct {
	CartSignature   string `json:"cart_signature"`
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
}

type GatewayCredentials struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	Source         string
}

type CheckoutPage struct {
	Cart            *CartResponse `json:"cart"`
	PublishableKey  string        `json:"publishable_key"`
	ClientSecret    string        `json:"client_secret"`
	PaymentIntentID string        `json:"payment_intent_id"`
}

type CheckoutResult struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	RedirectTo  string `json:"redirect_to"`
}

type WebhookResult struct {
	EventID         string        `json:"event_id"`
	EventType       string        `json:"event_type"`
	PaymentIntentID string        `json:"payment_intent_id,omitempty"`
	PaymentStatus   PaymentStatus `json:"payment_status,omitempty"`
	Applied         bool          `json:"applied"`
}
