package validation

import (
	"strings"
	"testing"

	pkgerrors "github.com/k-code-yt/paystack-payments/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() CreatePaymentInput {
	return CreatePaymentInput{
		CustomerName:  "John Doe",
		CustomerEmail: "john@example.com",
		PhoneNumber:   "+2348012345678",
		State:         "Lagos",
		Country:       "Nigeria",
		Amount:        "50.00",
		Currency:      "ngn",
	}
}

func fieldsOf(t *testing.T, err error) map[string][]string {
	t.Helper()
	require.Error(t, err)
	require.True(t, pkgerrors.IsValidationError(err))
	var appErr *pkgerrors.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Fields
}

func TestCreatePaymentNormalizes(t *testing.T) {
	v := NewPaymentValidator([]string{"NGN", "USD", "GHS"})

	in := validInput()
	in.CustomerName = "  John Doe "
	params, err := v.CreatePayment(in)
	require.NoError(t, err)

	assert.Equal(t, "John Doe", params.CustomerName)
	assert.Equal(t, "NGN", params.Currency)
	assert.Equal(t, "50.00", params.Amount.StringFixed(2))
}

func TestCreatePaymentReportsEveryField(t *testing.T) {
	v := NewPaymentValidator([]string{"NGN"})

	fields := fieldsOf(t, func() error {
		_, err := v.CreatePayment(CreatePaymentInput{CustomerEmail: "not-an-email"})
		return err
	}())

	for _, f := range []string{"customer_name", "customer_email", "phone_number", "state", "country", "amount", "currency"} {
		assert.Contains(t, fields, f)
	}
	assert.Equal(t, []string{"Enter a valid email address."}, fields["customer_email"])
}

func TestCreatePaymentAmountRules(t *testing.T) {
	v := NewPaymentValidator([]string{"NGN"})

	cases := map[string]bool{
		"50.00":        true,
		"0.01":         true,
		"99999999.99":  true,
		"50.000":       true,
		"0":            false,
		"-5":           false,
		"12.345":       false,
		"abc":          false,
		"100000000.00": false,
	}

	for amount, ok := range cases {
		in := validInput()
		in.Amount = amount
		_, err := v.CreatePayment(in)
		if ok {
			assert.NoError(t, err, amount)
			continue
		}
		assert.Contains(t, fieldsOf(t, err), "amount", amount)
	}
}

func TestCreatePaymentRejectsUnsupportedCurrency(t *testing.T) {
	v := NewPaymentValidator([]string{"NGN"})

	in := validInput()
	in.Currency = "EUR"
	fields := fieldsOf(t, func() error { _, err := v.CreatePayment(in); return err }())

	assert.Len(t, fields, 1)
	assert.Contains(t, fields["currency"][0], "EUR")
}

func TestCreatePaymentMaxLength(t *testing.T) {
	v := NewPaymentValidator([]string{"NGN"})

	in := validInput()
	in.PhoneNumber = strings.Repeat("1", 21)
	fields := fieldsOf(t, func() error { _, err := v.CreatePayment(in); return err }())

	assert.Equal(t, []string{"Ensure this field has no more than 20 characters."}, fields["phone_number"])
}
