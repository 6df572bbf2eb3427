package model

import "encoding/json"

const (
	PaystackEventChargeSuccess = "charge.success"

	PaystackStatusSuccess = "success"
	PaystackStatusFailed  = "failed"
)

type PaystackCustomer struct {
	Email string `json:"email"`
}

type PaystackTransaction struct {
	ID              int64            `json:"id"`
	Status          string           `json:"status"`
	Reference       string           `json:"reference"`
	Amount          int64            `json:"amount"` // minor unit
	Currency        string           `json:"currency"`
	Channel         string           `json:"channel"`
	GatewayResponse string           `json:"gateway_response"`
	PaidAt          string           `json:"paid_at"`
	Customer        PaystackCustomer `json:"customer"`
}

type PaystackInitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// PaystackEnvelope is the common {status, message, data} response shape.
type PaystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type PaystackWebhookEvent struct {
	Event string              `json:"event"`
	Data  PaystackTransaction `json:"data"`
}
