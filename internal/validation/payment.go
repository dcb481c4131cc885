package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/k-code-yt/paystack-payments/internal/domain/payment"
	pkgerrors "github.com/k-code-yt/paystack-payments/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	amountDecimalPlaces = 2
	msgRequired         = "This field is required."
)

var (
	minAmount = decimal.RequireFromString("0.01")
	maxAmount = decimal.RequireFromString("99999999.99")
)

// CreatePaymentInput is the raw creation request. Amount stays a string until
// it is parsed here so malformed values become field errors.
type CreatePaymentInput struct {
	CustomerName  string `json:"customer_name" validate:"required,max=255"`
	CustomerEmail string `json:"customer_email" validate:"required,email,max=254"`
	PhoneNumber   string `json:"phone_number" validate:"required,max=20"`
	State         string `json:"state" validate:"required,max=100"`
	Country       string `json:"country" validate:"required,max=100"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}

type PaymentValidator struct {
	validate   *validator.Validate
	currencies map[string]struct{}
}

func NewPaymentValidator(supportedCurrencies []string) *PaymentValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	currencies := make(map[string]struct{}, len(supportedCurrencies))
	for _, c := range supportedCurrencies {
		currencies[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}

	return &PaymentValidator{
		validate:   v,
		currencies: currencies,
	}
}

// CreatePayment normalizes the input and reports every violated field at once.
func (pv *PaymentValidator) CreatePayment(in CreatePaymentInput) (payment.NewPaymentParams, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.State = strings.TrimSpace(in.State)
	in.Country = strings.TrimSpace(in.Country)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))

	fields := map[string][]string{}

	if err := pv.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return payment.NewPaymentParams{}, fmt.Errorf("validator failed: %w", err)
		}
		for _, fe := range verrs {
			fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
		}
	}

	amount, amountErr := parseAmount(in.Amount)
	if amountErr != "" {
		fields["amount"] = append(fields["amount"], amountErr)
	}

	if currencyErr := pv.checkCurrency(in.Currency); currencyErr != "" {
		fields["currency"] = append(fields["currency"], currencyErr)
	}

	if len(fields) > 0 {
		return payment.NewPaymentParams{}, pkgerrors.NewValidationError("Invalid payment data", fields)
	}

	return payment.NewPaymentParams{
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		PhoneNumber:   in.PhoneNumber,
		State:         in.State,
		Country:       in.Country,
		Amount:        amount,
		Currency:      in.Currency,
	}, nil
}

func (pv *PaymentValidator) checkCurrency(currency string) string {
	if currency == "" {
		return msgRequired
	}
	if _, ok := pv.currencies[currency]; !ok {
		return fmt.Sprintf("%q is not a valid choice.", currency)
	}
	return ""
}

func parseAmount(raw string) (decimal.Decimal, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, msgRequired
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, "A valid number is required."
	}
	if !amount.Equal(amount.Round(amountDecimalPlaces)) {
		return decimal.Zero, fmt.Sprintf("Ensure that there are no more than %d decimal places.", amountDecimalPlaces)
	}
	if amount.LessThan(minAmount) {
		return decimal.Zero, "Ensure this value is greater than or equal to 0.01."
	}
	if amount.GreaterThan(maxAmount) {
		return decimal.Zero, "Ensure that there are no more than 10 digits in total."
	}
	return amount.Round(amountDecimalPlaces), ""
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}
