// Package handler contains HTTP handlers for the donation API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jjdow676/donationform-backend-test/internal/apperror"
	"github.com/jjdow676/donationform-backend-test/internal/fees"
	"github.com/jjdow676/donationform-backend-test/internal/gateway"
	"github.com/jjdow676/donationform-backend-test/internal/model"
)

// maxWebhookBody caps how much of a webhook delivery is read.
const maxWebhookBody = int64(65536)

// FrequencyValidator accepts the two donation frequencies the form offers.
var FrequencyValidator = func(fl validator.FieldLevel) bool {
	switch model.Frequency(fl.Field().String()) {
	case model.FrequencyOneTime, model.FrequencyMonthly:
		return true
	}
	return false
}

// Gateway is the processor surface the creation endpoints need.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, in gateway.CheckoutSessionInput) (*gateway.CheckoutSession, error)
	CreatePaymentIntent(ctx context.Context, in gateway.PaymentIntentInput) (*gateway.PaymentIntent, error)
	CreateSetupIntent(ctx context.Context, donorEmail string) (*gateway.SetupIntent, error)
	CreateSubscription(ctx context.Context, in gateway.SubscriptionInput) (*gateway.Subscription, error)
}

// Dispatcher handles one verified webhook delivery.
type Dispatcher interface {
	Handle(ctx context.Context, payload []byte, sigHeader string) error
}

// Handler wraps HTTP handlers with logger, gateway and dispatcher.
type Handler struct {
	log      *zap.Logger
	gw       Gateway
	disp     Dispatcher
	validate *validator.Validate
}

// New creates a new Handler instance.
func New(log *zap.Logger, gw Gateway, disp Dispatcher, v *validator.Validate) *Handler {
	return &Handler{log: log, gw: gw, disp: disp, validate: v}
}

// DonorInfo is the free-form donor detail block the form submits; it is
// forwarded to the processor as metadata.
type DonorInfo struct {
	Name                  string `json:"name"`
	Email                 string `json:"email"`
	Phone                 string `json:"phone"`
	Address               string `json:"address"`
	City                  string `json:"city"`
	State                 string `json:"state"`
	Zip                   string `json:"zip"`
	Dedication            string `json:"dedication"`
	NotifyEmail           string `json:"notifyEmail"`
	SubscribeToNewsletter string `json:"subscribeToNewsletter"`
}

func (d DonorInfo) metadata() map[string]string {
	meta := map[string]string{}
	put := func(k, v string) {
		if v != "" {
			meta[k] = v
		}
	}
	put(model.MetaDonorName, d.Name)
	put(model.MetaPhone, d.Phone)
	put(model.MetaAddress, d.Address)
	put(model.MetaCity, d.City)
	put(model.MetaState, d.State)
	put(model.MetaZip, d.Zip)
	put(model.MetaDedication, d.Dedication)
	put(model.MetaNotifyEmail, d.NotifyEmail)
	put(model.MetaNewsletter, d.SubscribeToNewsletter)
	return meta
}

// CheckoutSessionRequest is the /create-checkout-session payload.
type CheckoutSessionRequest struct {
	Amount    int64     `json:"amount" validate:"required,gt=0"`
	Frequency string    `json:"frequency" validate:"omitempty,frequency"`
	DonorInfo DonorInfo `json:"donorInfo"`
}

// PaymentIntentRequest is the /create-payment-intent payload.
type PaymentIntentRequest struct {
	AmountCents int64             `json:"amountCents" validate:"omitempty,gt=0"`
	Currency    string            `json:"currency"`
	DonorEmail  string            `json:"donorEmail" validate:"omitempty,email"`
	DonorName   string            `json:"donorName"`
	CoverFees   bool              `json:"coverFees"`
	Metadata    map[string]string `json:"metadata"`
}

// SetupIntentRequest is the /create-setup-intent payload.
type SetupIntentRequest struct {
	DonorEmail string `json:"donorEmail" validate:"required,email"`
}

// SubscriptionRequest is the /create-subscription payload.
type SubscriptionRequest struct {
	CustomerID      string            `json:"customerId" validate:"required"`
	PaymentMethodID string            `json:"paymentMethodId" validate:"required"`
	AmountCents     int64             `json:"amountCents" validate:"required,gt=0"`
	Currency        string            `json:"currency"`
	Interval        string            `json:"interval" validate:"omitempty,oneof=month year"`
	Metadata        map[string]string `json:"metadata"`
}

// Health is a simple liveness endpoint.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Donation backend is running"))
}

// Webhook receives processor event notifications. The body must reach the
// dispatcher unparsed or signature verification cannot succeed.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Error("failed to read webhook body", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	err = h.disp.Handle(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	var authErr *apperror.AuthenticityError
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.As(err, &authErr):
		h.log.Warn("webhook signature rejected", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(authErr.Error()))
	default:
		// No internal detail leaks to the caller.
		h.log.Error("webhook handling failed", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// CreateCheckoutSession creates a hosted checkout session for the donation.
func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req CheckoutSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("failed to decode json", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.log.Warn("validation failed", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, apperror.CustomValidationError(err))
		return
	}

	freq := model.FrequencyOneTime
	if req.Frequency == string(model.FrequencyMonthly) {
		freq = model.FrequencyMonthly
	}

	s, err := h.gw.CreateCheckoutSession(r.Context(), gateway.CheckoutSessionInput{
		AmountCents: req.Amount,
		Frequency:   freq,
		DonorEmail:  req.DonorInfo.Email,
		Metadata:    req.DonorInfo.metadata(),
	})
	if err != nil {
		h.log.Error("create checkout session failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": errorMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// CreatePaymentIntent creates an intent for a card payment. When the request
// carries metadata.base_amount_cents the charge total is recomputed server
// side, so a tampered client amount never reaches the processor.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req PaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("failed to decode json", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.log.Warn("validation failed", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, apperror.CustomValidationError(err))
		return
	}

	amount := req.AmountCents
	if raw, ok := req.Metadata["base_amount_cents"]; ok {
		base, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid base_amount_cents")
			return
		}
		amount, err = fees.ComputeGross(base, req.CoverFees)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be a positive number")
		return
	}

	pi, err := h.gw.CreatePaymentIntent(r.Context(), gateway.PaymentIntentInput{
		AmountCents: amount,
		Currency:    req.Currency,
		DonorEmail:  req.DonorEmail,
		DonorName:   req.DonorName,
		Metadata:    req.Metadata,
	})
	if err != nil {
		h.log.Error("create payment intent failed", zap.Error(err))
		writeError(w, http.StatusBadRequest, errorMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, pi)
}

// CreateSetupIntent prepares a reusable payment method for a new donor.
func (h *Handler) CreateSetupIntent(w http.ResponseWriter, r *http.Request) {
	var req SetupIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("failed to decode json", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.log.Warn("validation failed", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, apperror.CustomValidationError(err))
		return
	}

	si, err := h.gw.CreateSetupIntent(r.Context(), req.DonorEmail)
	if err != nil {
		h.log.Error("create setup intent failed", zap.Error(err))
		writeError(w, http.StatusBadRequest, errorMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, si)
}

// CreateSubscription starts a recurring donation from a saved payment method.
func (h *Handler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("failed to decode json", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.log.Warn("validation failed", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, apperror.CustomValidationError(err))
		return
	}

	sub, err := h.gw.CreateSubscription(r.Context(), gateway.SubscriptionInput{
		CustomerID:      req.CustomerID,
		PaymentMethodID: req.PaymentMethodID,
		AmountCents:     req.AmountCents,
		Currency:        req.Currency,
		Interval:        req.Interval,
		Metadata:        req.Metadata,
	})
	if err != nil {
		h.log.Error("create subscription failed", zap.Error(err))
		writeError(w, http.StatusBadRequest, errorMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Message: msg}})
}

// errorMessage extracts the caller-facing message from a gateway error.
func errorMessage(err error) string {
	var gwErr *apperror.GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Message
	}
	return err.Error()
}
