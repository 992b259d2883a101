package gateway

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v81"

	"github.com/jjdow676/donationform-backend-test/internal/apperror"
	"github.com/jjdow676/donationform-backend-test/internal/config"
	"github.com/jjdow676/donationform-backend-test/internal/model"
)

func testConfig() *config.Config {
	return &config.Config{
		FrontendURL:     "https://donate.example.org",
		Currency:        "usd",
		StripeProductID: "prod_donation",
	}
}

func TestCheckoutSessionParams_OneTime(t *testing.T) {
	params := checkoutSessionParams(CheckoutSessionInput{
		AmountCents: 2550,
		Frequency:   model.FrequencyOneTime,
		DonorEmail:  "jane@example.org",
		Metadata:    map[string]string{model.MetaDonorName: "Jane Doe"},
	}, testConfig())

	assert.Equal(t, string(stripe.CheckoutSessionModePayment), *params.Mode)
	assert.Equal(t, string(stripe.CheckoutSessionSubmitTypeDonate), *params.SubmitType)
	assert.Equal(t, "https://donate.example.org/thank-you?session_id={CHECKOUT_SESSION_ID}", *params.SuccessURL)
	assert.Equal(t, "https://donate.example.org", *params.CancelURL)
	assert.Equal(t, "jane@example.org", *params.CustomerEmail)

	assert.Len(t, params.LineItems, 1)
	price := params.LineItems[0].PriceData
	assert.Equal(t, "usd", *price.Currency)
	assert.Equal(t, int64(2550), *price.UnitAmount)
	assert.Equal(t, "Donation", *price.ProductData.Name)
	assert.Nil(t, price.Recurring)

	assert.Equal(t, "one_time", params.Metadata["frequency"])
	assert.Equal(t, "Jane Doe", params.Metadata[model.MetaDonorName])
}

func TestCheckoutSessionParams_Monthly(t *testing.T) {
	params := checkoutSessionParams(CheckoutSessionInput{
		AmountCents: 1000,
		Frequency:   model.FrequencyMonthly,
	}, testConfig())

	assert.Equal(t, string(stripe.CheckoutSessionModeSubscription), *params.Mode)
	assert.Nil(t, params.SubmitType, "submit_type is only accepted in payment mode")
	assert.Nil(t, params.CustomerEmail)

	price := params.LineItems[0].PriceData
	assert.Equal(t, "Monthly Donation", *price.ProductData.Name)
	assert.NotNil(t, price.Recurring)
	assert.Equal(t, "month", *price.Recurring.Interval)
	assert.Equal(t, "monthly", params.Metadata["frequency"])
}

func TestPaymentIntentParams(t *testing.T) {
	params := paymentIntentParams(PaymentIntentInput{
		AmountCents: 1061,
		DonorEmail:  "jane@example.org",
		DonorName:   "Jane Doe",
		Metadata:    map[string]string{"base_amount_cents": "1000"},
	}, "usd")

	assert.Equal(t, int64(1061), *params.Amount)
	assert.Equal(t, "usd", *params.Currency, "falls back to the configured currency")
	assert.Equal(t, "jane@example.org", *params.ReceiptEmail)
	assert.True(t, *params.AutomaticPaymentMethods.Enabled)
	assert.Equal(t, "1000", params.Metadata["base_amount_cents"])
	assert.Equal(t, "Jane Doe", params.Metadata[model.MetaDonorName])
}

func TestPaymentIntentParams_ExplicitCurrency(t *testing.T) {
	params := paymentIntentParams(PaymentIntentInput{AmountCents: 500, Currency: "cad"}, "usd")

	assert.Equal(t, "cad", *params.Currency)
	assert.Nil(t, params.ReceiptEmail)
}

func TestSubscriptionParams(t *testing.T) {
	params := subscriptionParams(SubscriptionInput{
		CustomerID:      "cus_1",
		PaymentMethodID: "pm_1",
		AmountCents:     1500,
		Metadata:        map[string]string{model.MetaDonorName: "Jane Doe"},
	}, testConfig())

	assert.Equal(t, "cus_1", *params.Customer)
	assert.Equal(t, "pm_1", *params.DefaultPaymentMethod)

	assert.Len(t, params.Items, 1)
	price := params.Items[0].PriceData
	assert.Equal(t, "usd", *price.Currency)
	assert.Equal(t, "prod_donation", *price.Product)
	assert.Equal(t, int64(1500), *price.UnitAmount)
	assert.Equal(t, "month", *price.Recurring.Interval, "interval defaults to month")

	assert.Equal(t, "monthly", params.Metadata["frequency"])
	assert.Equal(t, "Jane Doe", params.Metadata[model.MetaDonorName])
}

func TestWrap(t *testing.T) {
	stripeErr := &stripe.Error{Msg: "No such customer"}
	err := wrap("create subscription", stripeErr)

	var gwErr *apperror.GatewayError
	assert.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "No such customer", gwErr.Message)
	assert.Equal(t, "create subscription: No such customer", err.Error())

	plain := wrap("create customer", errors.New("connection reset"))
	assert.ErrorAs(t, plain, &gwErr)
	assert.Equal(t, "connection reset", gwErr.Message)
}
