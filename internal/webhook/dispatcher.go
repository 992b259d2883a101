// Package webhook verifies inbound processor events and turns them into
// notification sends.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/stripe/stripe-go/v81"
	stripewebhook "github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"github.com/jjdow676/donationform-backend-test/internal/apperror"
	"github.com/jjdow676/donationform-backend-test/internal/config"
	"github.com/jjdow676/donationform-backend-test/internal/mailer"
	"github.com/jjdow676/donationform-backend-test/internal/model"
	"github.com/jjdow676/donationform-backend-test/internal/notify"
)

// EnrichmentClient fetches processor objects that invoice events reference
// but do not embed.
type EnrichmentClient interface {
	Subscription(ctx context.Context, id string) (*stripe.Subscription, error)
	Customer(ctx context.Context, id string) (*stripe.Customer, error)
}

// Dispatcher verifies, classifies and handles webhook events.
type Dispatcher struct {
	log        *zap.Logger
	signingKey string
	currency   string
	emailFrom  string
	recipients []string
	enrich     EnrichmentClient
	mailer     mailer.Mailer
}

// New creates a Dispatcher wired to the given enrichment client and mailer.
func New(cfg *config.Config, log *zap.Logger, enrich EnrichmentClient, m mailer.Mailer) *Dispatcher {
	return &Dispatcher{
		log:        log,
		signingKey: cfg.StripeWebhookSecret,
		currency:   cfg.Currency,
		emailFrom:  cfg.EmailFrom,
		recipients: cfg.InternalRecipients,
		enrich:     enrich,
		mailer:     m,
	}
}

// Handle verifies the raw payload against the signature header, then routes
// the event by type. Verification must run on the unparsed request body; a
// re-serialized body would not match the signature.
func (d *Dispatcher) Handle(ctx context.Context, payload []byte, sigHeader string) error {
	// The processor pins each endpoint to its own API version, which need
	// not match the SDK's.
	event, err := stripewebhook.ConstructEventWithOptions(payload, sigHeader, d.signingKey,
		stripewebhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return &apperror.AuthenticityError{Cause: err}
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return d.handleCheckoutSession(ctx, &event)
	case stripe.EventTypePaymentIntentSucceeded:
		return d.handlePaymentIntent(ctx, &event)
	case stripe.EventTypeInvoicePaymentSucceeded:
		return d.handleInvoice(ctx, &event)
	default:
		// The processor sends event types this system does not care about.
		d.log.Debug("ignoring event",
			zap.String("event_id", event.ID), zap.String("type", string(event.Type)))
		return nil
	}
}

// handleCheckoutSession covers the legacy hosted-checkout flow.
func (d *Dispatcher) handleCheckoutSession(ctx context.Context, event *stripe.Event) error {
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}

	email := cs.CustomerEmail
	if email == "" && cs.CustomerDetails != nil {
		email = cs.CustomerDetails.Email
	}

	ev := model.DonationEvent{
		AmountCents: cs.AmountTotal,
		Currency:    d.currency,
		Frequency:   frequencyFrom(cs.Metadata),
		DonorEmail:  email,
		Metadata:    cs.Metadata,
	}
	d.log.Info("checkout session completed",
		zap.String("event_id", event.ID), zap.Int64("amount_cents", ev.AmountCents))
	d.notify(ctx, ev)
	return nil
}

func (d *Dispatcher) handlePaymentIntent(ctx context.Context, event *stripe.Event) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return fmt.Errorf("decode payment intent: %w", err)
	}

	// Subscription billing cycles raise invoice.payment_succeeded as the
	// authoritative trigger; acting here too would double-send.
	if pi.Invoice != nil && pi.Invoice.ID != "" {
		d.log.Info("payment intent belongs to an invoice, skipping",
			zap.String("event_id", event.ID), zap.String("invoice", pi.Invoice.ID))
		return nil
	}

	ev := model.DonationEvent{
		AmountCents: pi.Amount,
		Currency:    d.currency,
		Frequency:   frequencyFrom(pi.Metadata),
		DonorEmail:  pi.ReceiptEmail,
		Metadata:    pi.Metadata,
	}
	d.log.Info("payment intent succeeded",
		zap.String("event_id", event.ID), zap.Int64("amount_cents", ev.AmountCents))
	d.notify(ctx, ev)
	return nil
}

func (d *Dispatcher) handleInvoice(ctx context.Context, event *stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("decode invoice: %w", err)
	}

	ev := model.DonationEvent{
		AmountCents: inv.AmountPaid,
		Currency:    d.currency,
		Frequency:   model.FrequencyMonthly,
		DonorEmail:  inv.CustomerEmail,
	}

	// Invoices carry no donor metadata; pull it from the subscription when
	// one is referenced. A failed lookup leaves the event partially filled.
	if inv.Subscription != nil && inv.Subscription.ID != "" {
		sub, err := d.enrich.Subscription(ctx, inv.Subscription.ID)
		if err != nil {
			d.log.Warn("proceeding without subscription metadata",
				zap.String("event_id", event.ID),
				zap.Error(&apperror.EnrichmentLookupError{Kind: "subscription", ID: inv.Subscription.ID, Cause: err}))
		} else {
			ev.Metadata = sub.Metadata
			if ev.DonorEmail == "" && sub.Customer != nil && sub.Customer.ID != "" {
				cust, err := d.enrich.Customer(ctx, sub.Customer.ID)
				if err != nil {
					d.log.Warn("proceeding without customer email",
						zap.String("event_id", event.ID),
						zap.Error(&apperror.EnrichmentLookupError{Kind: "customer", ID: sub.Customer.ID, Cause: err}))
				} else {
					ev.DonorEmail = cust.Email
				}
			}
		}
	}

	d.log.Info("invoice payment succeeded",
		zap.String("event_id", event.ID), zap.Int64("amount_cents", ev.AmountCents))
	d.notify(ctx, ev)
	return nil
}

// notify sends the donor and internal messages concurrently. The two sends
// are independent failure domains, but both must finish before the HTTP
// response is written, so failures are logged here and never returned.
func (d *Dispatcher) notify(ctx context.Context, ev model.DonationEvent) {
	msgs := make([]*model.NotificationMessage, 0, 2)
	if m := notify.DonorMessage(ev, d.emailFrom); m != nil {
		msgs = append(msgs, m)
	}
	if m := notify.InternalMessage(ev, d.emailFrom, d.recipients); m != nil {
		msgs = append(msgs, m)
	}

	var wg sync.WaitGroup
	for _, msg := range msgs {
		wg.Add(1)
		go func(msg *model.NotificationMessage) {
			defer wg.Done()
			if err := d.mailer.Send(ctx, msg); err != nil {
				d.log.Error("notification send failed",
					zap.Strings("recipients", msg.Recipients), zap.Error(err))
			}
		}(msg)
	}
	wg.Wait()
}

// frequencyFrom reads the donation-form frequency out of processor metadata,
// defaulting to one-time.
func frequencyFrom(meta map[string]string) model.Frequency {
	if meta["frequency"] == string(model.FrequencyMonthly) {
		return model.FrequencyMonthly
	}
	return model.FrequencyOneTime
}
