package client

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"shop-api/internal/apperr"
	"shop-api/internal/config"
	"shop-api/internal/model"
	"strings"
)

const SignatureHeader = "X-Paystack-Signature"

type PaystackClient interface {
	InitializeTransaction(ctx context.Context, req *InitializeRequest) (*model.PaystackInitializeData, error)
	VerifyTransaction(ctx context.Context, reference string) (*model.PaystackTransaction, error)
	VerifyWebhookSignature(headers http.Header, body []byte) error
}

type InitializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"` // minor unit (pesewas, kobo)
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url,omitempty"`
	Metadata    any    `json:"metadata,omitempty"`
}

type paystackClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	secretKey  string
}

func NewPaystackClient(cfg *config.Paystack) PaystackClient {
	return &paystackClientImpl{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseApiURL: strings.TrimRight(cfg.BaseApiURL, "/"),
		secretKey:  cfg.SecretKey,
	}
}

func (c *paystackClientImpl) InitializeTransaction(ctx context.Context, in *InitializeRequest) (*model.PaystackInitializeData, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/transaction/initialize",
		bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var data model.PaystackInitializeData
	if err := c.do(req, &data); err != nil {
		return nil, err
	}
	if data.AuthorizationURL == "" || data.Reference == "" {
		return nil, apperr.ErrProviderRejected.Withf("paystack returned an empty authorization url or reference")
	}

	return &data, nil
}

func (c *paystackClientImpl) VerifyTransaction(ctx context.Context, reference string) (*model.PaystackTransaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseApiURL+"/transaction/verify/"+url.PathEscape(reference),
		nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}

	var tx model.PaystackTransaction
	if err := c.do(req, &tx); err != nil {
		return nil, err
	}

	return &tx, nil
}

// VerifyWebhookSignature checks the hex HMAC-SHA512 of the raw body, keyed with the secret key.
func (c *paystackClientImpl) VerifyWebhookSignature(headers http.Header, body []byte) error {
	if c.secretKey == "" {
		return apperr.ErrInvalidPayload.Withf("webhook secret is not configured")
	}
	signature := headers.Get(SignatureHeader)
	if signature == "" {
		return apperr.ErrInvalidPayload.Withf("missing %s header", SignatureHeader)
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return apperr.ErrInvalidPayload.Withf("malformed webhook signature")
	}

	if !hmac.Equal(got, Sign(c.secretKey, body)) {
		return apperr.ErrInvalidPayload.Withf("webhook signature mismatch")
	}
	return nil
}

// Sign computes the raw HMAC-SHA512 Paystack attaches to webhook deliveries.
func Sign(secretKey string, body []byte) []byte {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	return mac.Sum(nil)
}

// do sends req and decodes the data field of a successful envelope into out.
// Transport failures map to ProviderUnavailable, business failures to ProviderRejected
// carrying the provider payload.
func (c *paystackClientImpl) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return apperr.ErrProviderUnavailable.
			Withf("paystack error %d", resp.StatusCode).
			WithDetails(payload(raw))
	}

	var envelope model.PaystackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return apperr.ErrProviderRejected.
			Withf("decode paystack response (status %d)", resp.StatusCode).
			WithDetails(payload(raw)).
			Wrap(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.Status {
		return apperr.ErrProviderRejected.
			Withf("paystack: %s", envelope.Message).
			WithDetails(payload(raw))
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return apperr.ErrProviderRejected.Withf("decode paystack data").Wrap(err)
	}
	return nil
}

func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperr.ErrProviderTimeout.Wrap(err)
	}
	return apperr.ErrProviderUnavailable.Wrap(err)
}

// payload keeps JSON bodies as-is so error responses can echo the provider's error object.
func payload(raw []byte) any {
	if json.Valid(raw) {
		return json.RawMessage(raw)
	}
	return string(raw)
}
