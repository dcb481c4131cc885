package payment

import "context"

type InitiateRequest struct {
	Reference      string
	AmountSubunits int64 // kobo for NGN
	Currency       string
	Email          string
	CallbackURL    string
	Metadata       map[string]string
}

type InitiateResult struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

// Provider isolates all outbound coupling to the payment processor.
type Provider interface {
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	VerifySignature(body []byte, signature, secret string) bool
}
