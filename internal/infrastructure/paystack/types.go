package paystack

const (
	SignatureHeader = "x-paystack-signature"
	initializePath  = "/transaction/initialize"
)

type initializeRequest struct {
	Amount      int64             `json:"amount"`
	Email       string            `json:"email"`
	Currency    string            `json:"currency"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}
