package testutil

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"shop-api/internal/client"
	"shop-api/internal/config"
	"shop-api/internal/model"
	"strings"
	"sync"
	"testing"
	"time"
)

const PaystackSecret = "sk_test_fake"

// FakePaystack serves the initialize and verify endpoints from memory. Initialized
// transactions start as "ongoing" until SetOutcome changes them.
type FakePaystack struct {
	Server *httptest.Server

	mu           sync.Mutex
	transactions map[string]*model.PaystackTransaction
	initRequests []client.InitializeRequest
	initFailure  *fakeFailure
}

type fakeFailure struct {
	status int
	body   string
}

func NewFakePaystack(t testing.TB) *FakePaystack {
	t.Helper()

	f := &FakePaystack{transactions: map[string]*model.PaystackTransaction{}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /transaction/initialize", f.initialize)
	mux.HandleFunc("GET /transaction/verify/{reference}", f.verify)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakePaystack) Config() *config.Paystack {
	return &config.Paystack{
		BaseApiURL:  f.Server.URL,
		SecretKey:   PaystackSecret,
		Currency:    "GHS",
		CallbackURL: "http://localhost:8080/payment/callback",
		Timeout:     2 * time.Second,
	}
}

// SetOutcome sets what verify reports for reference.
func (f *FakePaystack) SetOutcome(reference, status string, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tx, ok := f.transactions[reference]
	if !ok {
		tx = &model.PaystackTransaction{Reference: reference, Currency: "GHS"}
		f.transactions[reference] = tx
	}
	tx.Status = status
	tx.Amount = amount
	tx.Channel = "card"
	tx.PaidAt = time.Now().UTC().Format(time.RFC3339)
}

// FailInitialize makes every following initialize call answer with status and body.
func (f *FakePaystack) FailInitialize(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initFailure = &fakeFailure{status: status, body: body}
}

func (f *FakePaystack) InitRequests() []client.InitializeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]client.InitializeRequest(nil), f.initRequests...)
}

// Webhook builds a signed delivery of event for reference.
func (f *FakePaystack) Webhook(event, reference string, amount int64) ([]byte, http.Header) {
	body, _ := json.Marshal(model.PaystackWebhookEvent{
		Event: event,
		Data: model.PaystackTransaction{
			Status:    model.PaystackStatusSuccess,
			Reference: reference,
			Amount:    amount,
			Currency:  "GHS",
			Channel:   "card",
			PaidAt:    time.Now().UTC().Format(time.RFC3339),
		},
	})
	return body, SignedHeaders(body)
}

func SignedHeaders(body []byte) http.Header {
	headers := http.Header{}
	headers.Set(client.SignatureHeader, hex.EncodeToString(client.Sign(PaystackSecret, body)))
	headers.Set("Content-Type", "application/json")
	return headers
}

func (f *FakePaystack) initialize(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+PaystackSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"status": false, "message": "Invalid key"})
		return
	}

	var req client.InitializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": false, "message": err.Error()})
		return
	}

	f.mu.Lock()
	f.initRequests = append(f.initRequests, req)
	failure := f.initFailure
	if failure == nil {
		f.transactions[req.Reference] = &model.PaystackTransaction{
			Status:    "ongoing",
			Reference: req.Reference,
			Amount:    req.Amount,
			Currency:  req.Currency,
		}
	}
	f.mu.Unlock()

	if failure != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(failure.status)
		_, _ = w.Write([]byte(failure.body))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  true,
		"message": "Authorization URL created",
		"data": model.PaystackInitializeData{
			AuthorizationURL: "https://checkout.paystack.com/" + strings.ReplaceAll(req.Reference, "-", ""),
			AccessCode:       "access_" + req.Reference,
			Reference:        req.Reference,
		},
	})
}

func (f *FakePaystack) verify(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	tx, ok := f.transactions[r.PathValue("reference")]
	var data model.PaystackTransaction
	if ok {
		data = *tx
	}
	f.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": false, "message": "Transaction reference not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": true, "message": "Verification successful", "data": data})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
