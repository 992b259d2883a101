// Package gateway wraps the payment processor API for session, intent and
// subscription creation, plus the lookups the webhook dispatcher needs.
package gateway

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"go.uber.org/zap"

	"github.com/jjdow676/donationform-backend-test/internal/apperror"
	"github.com/jjdow676/donationform-backend-test/internal/config"
	"github.com/jjdow676/donationform-backend-test/internal/model"
)

// CheckoutSession is the caller-facing result of a session creation.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PaymentIntent carries the client secret the frontend confirms with.
type PaymentIntent struct {
	ClientSecret string `json:"clientSecret"`
}

// SetupIntent carries the client secret plus the customer created for it.
type SetupIntent struct {
	ClientSecret string `json:"clientSecret"`
	CustomerID   string `json:"customerId"`
}

// Subscription is the caller-facing result of a subscription creation.
type Subscription struct {
	ID     string `json:"subscriptionId"`
	Status string `json:"status"`
}

// CheckoutSessionInput carries what the frontend sends for a hosted session.
type CheckoutSessionInput struct {
	AmountCents int64
	Frequency   model.Frequency
	DonorEmail  string
	Metadata    map[string]string
}

// PaymentIntentInput carries an already fee-adjusted charge amount.
type PaymentIntentInput struct {
	AmountCents int64
	Currency    string
	DonorEmail  string
	DonorName   string
	Metadata    map[string]string
}

// SubscriptionInput carries what the frontend sends to start a recurring
// donation from a saved payment method.
type SubscriptionInput struct {
	CustomerID      string
	PaymentMethodID string
	AmountCents     int64
	Currency        string
	Interval        string
	Metadata        map[string]string
}

// Gateway issues creation and lookup calls against the processor.
type Gateway struct {
	sc  *client.API
	cfg *config.Config
	log *zap.Logger
}

// New initializes the processor client from the configured secret key.
func New(cfg *config.Config, log *zap.Logger) *Gateway {
	sc := &client.API{}
	sc.Init(cfg.StripeSecretKey, nil)
	return &Gateway{sc: sc, cfg: cfg, log: log}
}

// CreateCheckoutSession builds a hosted checkout session, recurring when the
// donor chose monthly.
func (g *Gateway) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	params := checkoutSessionParams(in, g.cfg)
	params.Context = ctx
	s, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, wrap("create checkout session", err)
	}
	g.log.Info("checkout session created", zap.String("session_id", s.ID))
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// CreatePaymentIntent creates an intent for the given amount. The handler
// has already applied the fee calculator, so the amount is charged verbatim.
func (g *Gateway) CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (*PaymentIntent, error) {
	params := paymentIntentParams(in, g.cfg.Currency)
	params.Context = ctx
	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, wrap("create payment intent", err)
	}
	g.log.Info("payment intent created",
		zap.String("payment_intent_id", pi.ID), zap.Int64("amount_cents", in.AmountCents))
	return &PaymentIntent{ClientSecret: pi.ClientSecret}, nil
}

// CreateSetupIntent creates a customer for the donor and a setup intent to
// collect a reusable payment method.
func (g *Gateway) CreateSetupIntent(ctx context.Context, donorEmail string) (*SetupIntent, error) {
	custParams := &stripe.CustomerParams{Email: stripe.String(donorEmail)}
	custParams.Context = ctx
	cust, err := g.sc.Customers.New(custParams)
	if err != nil {
		return nil, wrap("create customer", err)
	}

	siParams := &stripe.SetupIntentParams{
		Customer:           stripe.String(cust.ID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	siParams.Context = ctx
	si, err := g.sc.SetupIntents.New(siParams)
	if err != nil {
		return nil, wrap("create setup intent", err)
	}
	return &SetupIntent{ClientSecret: si.ClientSecret, CustomerID: cust.ID}, nil
}

// CreateSubscription attaches the payment method to the customer, makes it
// the default, and starts the recurring donation.
func (g *Gateway) CreateSubscription(ctx context.Context, in SubscriptionInput) (*Subscription, error) {
	attach := &stripe.PaymentMethodAttachParams{Customer: stripe.String(in.CustomerID)}
	attach.Context = ctx
	if _, err := g.sc.PaymentMethods.Attach(in.PaymentMethodID, attach); err != nil {
		return nil, wrap("attach payment method", err)
	}

	update := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(in.PaymentMethodID),
		},
	}
	update.Context = ctx
	if _, err := g.sc.Customers.Update(in.CustomerID, update); err != nil {
		return nil, wrap("set default payment method", err)
	}

	params := subscriptionParams(in, g.cfg)
	params.Context = ctx
	sub, err := g.sc.Subscriptions.New(params)
	if err != nil {
		return nil, wrap("create subscription", err)
	}
	g.log.Info("subscription created",
		zap.String("subscription_id", sub.ID), zap.String("status", string(sub.Status)))
	return &Subscription{ID: sub.ID, Status: string(sub.Status)}, nil
}

// Subscription fetches a subscription for webhook enrichment.
func (g *Gateway) Subscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	return g.sc.Subscriptions.Get(id, params)
}

// Customer fetches a customer for webhook enrichment.
func (g *Gateway) Customer(ctx context.Context, id string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	return g.sc.Customers.Get(id, params)
}

func checkoutSessionParams(in CheckoutSessionInput, cfg *config.Config) *stripe.CheckoutSessionParams {
	price := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency:   stripe.String(cfg.Currency),
		UnitAmount: stripe.Int64(in.AmountCents),
		ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String("Donation"),
		},
	}

	mode := stripe.CheckoutSessionModePayment
	if in.Frequency == model.FrequencyMonthly {
		mode = stripe.CheckoutSessionModeSubscription
		price.ProductData.Name = stripe.String("Monthly Donation")
		price.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripe.String("month"),
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(mode)),
		SuccessURL: stripe.String(cfg.FrontendURL + "/thank-you?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(cfg.FrontendURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: price,
			Quantity:  stripe.Int64(1),
		}},
	}
	if mode == stripe.CheckoutSessionModePayment {
		// submit_type is only accepted in payment mode.
		params.SubmitType = stripe.String(string(stripe.CheckoutSessionSubmitTypeDonate))
	}
	if in.DonorEmail != "" {
		params.CustomerEmail = stripe.String(in.DonorEmail)
	}
	params.AddMetadata("frequency", string(in.Frequency))
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}

func paymentIntentParams(in PaymentIntentInput, defaultCurrency string) *stripe.PaymentIntentParams {
	currency := in.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(in.AmountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if in.DonorEmail != "" {
		params.ReceiptEmail = stripe.String(in.DonorEmail)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	if in.DonorName != "" {
		params.AddMetadata(model.MetaDonorName, in.DonorName)
	}
	return params
}

func subscriptionParams(in SubscriptionInput, cfg *config.Config) *stripe.SubscriptionParams {
	currency := in.Currency
	if currency == "" {
		currency = cfg.Currency
	}
	interval := in.Interval
	if interval == "" {
		interval = "month"
	}

	params := &stripe.SubscriptionParams{
		Customer:             stripe.String(in.CustomerID),
		DefaultPaymentMethod: stripe.String(in.PaymentMethodID),
		Items: []*stripe.SubscriptionItemsParams{{
			PriceData: &stripe.SubscriptionItemPriceDataParams{
				Currency:   stripe.String(currency),
				Product:    stripe.String(cfg.StripeProductID),
				UnitAmount: stripe.Int64(in.AmountCents),
				Recurring: &stripe.SubscriptionItemPriceDataRecurringParams{
					Interval: stripe.String(interval),
				},
			},
		}},
	}
	params.AddMetadata("frequency", string(model.FrequencyMonthly))
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}

// wrap converts processor errors into GatewayError, surfacing the
// processor's own message when it provides one.
func wrap(op string, err error) error {
	msg := err.Error()
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		msg = stripeErr.Msg
	}
	return &apperror.GatewayError{Op: op, Message: msg, Cause: err}
}
