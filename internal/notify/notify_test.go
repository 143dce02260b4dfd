package notify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDisabledWithoutURL(t *testing.T) {
	assert.Nil(t, New("", "secret"))

	// Firing on a nil notifier is a no-op, not a panic.
	var n *Notifier
	n.Fire(EventBatchUploaded, map[string]string{"x": "y"})
}

func TestComputeSignature(t *testing.T) {
	body := []byte(`{"event":"batch.uploaded"}`)
	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, computeSignature("topsecret", body))
	assert.NotEqual(t, want, computeSignature("othersecret", body))
}

func TestFireDeliversSignedPayload(t *testing.T) {
	received := make(chan *http.Request, 1)
	bodies := make(chan []byte, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies <- b
		received <- r
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := New(server.URL, "whsecret")
	require.NotNil(t, n)

	n.Fire(EventRequestFulfilled, map[string]interface{}{"request_id": "r1"})

	select {
	case r := <-received:
		body := <-bodies
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, computeSignature("whsecret", body), r.Header.Get("X-VendorVault-Signature"))

		var payload Payload
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, EventRequestFulfilled, payload.Event)
		assert.NotEmpty(t, payload.ID)
		assert.JSONEq(t, `{"request_id":"r1"}`, string(payload.Data))
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was not delivered")
	}
}
