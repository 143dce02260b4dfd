// Package notify delivers fulfillment lifecycle events to an external
// endpoint as HMAC-SHA256 signed webhooks. Delivery happens after the
// state-mutating transaction commits; failures are logged, never fatal.
package notify

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"
)

// Event types.
const (
	EventBatchUploaded    = "batch.uploaded"
	EventBatchApproved    = "batch.approved"
	EventBatchRejected    = "batch.rejected"
	EventRequestCreated   = "request.created"
	EventRequestFulfilled = "request.fulfilled"
	EventRequestCancelled = "request.cancelled"
)

// Payload is the body posted to the endpoint. Data never contains
// plaintext credentials.
type Payload struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Notifier posts signed events to one configured endpoint. A nil Notifier
// is valid and drops all events, so wiring stays unconditional.
type Notifier struct {
	url        string
	secret     string
	httpClient *http.Client
}

// New creates a notifier. An empty URL disables delivery.
func New(url, secret string) *Notifier {
	if url == "" {
		return nil
	}
	return &Notifier{
		url:    url,
		secret: secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Fire delivers an event asynchronously with retries. It must only be
// called after the triggering transaction has committed.
func (n *Notifier) Fire(event string, data interface{}) {
	if n == nil {
		return
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		log.Printf("notify: failed to marshal %s data: %v", event, err)
		return
	}

	go n.deliver(event, dataJSON)
}

// deliver posts the payload with 3 attempts and exponential backoff.
func (n *Notifier) deliver(event string, data json.RawMessage) {
	payload := Payload{
		ID:        generatePayloadID(),
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("notify: failed to marshal %s payload: %v", event, err)
		return
	}

	signature := computeSignature(n.secret, body)

	maxAttempts := 3
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		statusCode, deliveryErr := n.post(body, signature)
		if deliveryErr == nil && statusCode < 300 {
			return
		}
		log.Printf("notify: %s delivery attempt %d failed (status %d): %v",
			event, attempt, statusCode, deliveryErr)
		if attempt < maxAttempts {
			time.Sleep(time.Duration(attempt*attempt) * time.Second)
		}
	}
}

func (n *Notifier) post(body []byte, signature string) (int, error) {
	req, err := http.NewRequest(http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VendorVault-Signature", signature)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// computeSignature returns hex(HMAC-SHA256(secret, body)).
func computeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func generatePayloadID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b)
}
