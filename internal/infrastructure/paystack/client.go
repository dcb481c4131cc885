package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/k-code-yt/paystack-payments/internal/domain/payment"
	pkgerrors "github.com/k-code-yt/paystack-payments/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

const DefaultBaseURL = "https://api.paystack.co"

type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

type Client struct {
	cfg    Config
	http   *fasthttp.Client
	logger logrus.FieldLogger
}

func NewClient(cfg Config, logger logrus.FieldLogger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		cfg: cfg,
		http: &fasthttp.Client{
			Name:         "paystack-payments",
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		},
		logger: logger.WithField("component", "paystack"),
	}
}

// Initiate calls /transaction/initialize. Any transport failure, timeout,
// non-2xx response or status=false body is a ProviderError.
func (c *Client) Initiate(ctx context.Context, in payment.InitiateRequest) (*payment.InitiateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewProviderError("payment provider request cancelled", err)
	}

	body, err := json.Marshal(initializeRequest{
		Amount:      in.AmountSubunits,
		Email:       in.Email,
		Currency:    in.Currency,
		Reference:   in.Reference,
		CallbackURL: in.CallbackURL,
		Metadata:    in.Metadata,
	})
	if err != nil {
		return nil, pkgerrors.NewProviderError("failed to encode provider request", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()

	req.SetRequestURI(c.cfg.BaseURL + initializePath)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.SetBody(body)

	start := time.Now()
	if err := c.do(ctx, req, resp); err != nil {
		c.logger.WithFields(logrus.Fields{
			"reference": in.Reference,
			"elapsed":   time.Since(start),
		}).WithError(err).Error("PAYSTACK:INITIALIZE_TRANSPORT_FAILED")
		return nil, pkgerrors.NewProviderError("payment provider unavailable", err)
	}

	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	status := resp.StatusCode()
	var out initializeResponse
	decodeErr := json.Unmarshal(resp.Body(), &out)

	if status < 200 || status >= 300 || decodeErr != nil || !out.Status {
		c.logger.WithFields(logrus.Fields{
			"reference":   in.Reference,
			"status_code": status,
			"message":     out.Message,
		}).Error("PAYSTACK:INITIALIZE_REJECTED")
		cause := fmt.Errorf("initialize returned status %d: %s", status, out.Message)
		if decodeErr != nil {
			cause = fmt.Errorf("%w: %v", cause, decodeErr)
		}
		return nil, pkgerrors.NewProviderError("failed to initialize payment with provider", cause)
	}

	if out.Data.AuthorizationURL == "" {
		return nil, pkgerrors.NewProviderError("failed to initialize payment with provider",
			errors.New("initialize returned no authorization url"))
	}

	reference := out.Data.Reference
	if reference == "" {
		reference = in.Reference
	}

	c.logger.WithFields(logrus.Fields{
		"reference": reference,
		"elapsed":   time.Since(start),
	}).Debug("PAYSTACK:INITIALIZED")

	return &payment.InitiateResult{
		Reference:        reference,
		AuthorizationURL: out.Data.AuthorizationURL,
		AccessCode:       out.Data.AccessCode,
	}, nil
}

func (c *Client) VerifySignature(body []byte, signature, secret string) bool {
	return VerifySignature(body, signature, secret)
}

// do returns when the call completes or ctx is done, whichever is first.
// req and resp are released here on error; on success the caller owns them.
// An abandoned call keeps them until DoDeadline returns.
func (c *Client) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	done := make(chan error, 1)
	go func() {
		done <- c.http.DoDeadline(req, resp, c.deadline(ctx))
	}()

	select {
	case err := <-done:
		if err != nil {
			fasthttp.ReleaseRequest(req)
			fasthttp.ReleaseResponse(resp)
		}
		return err
	case <-ctx.Done():
		go func() {
			<-done
			fasthttp.ReleaseRequest(req)
			fasthttp.ReleaseResponse(resp)
		}()
		return ctx.Err()
	}
}

func (c *Client) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(c.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		return d
	}
	return deadline
}
