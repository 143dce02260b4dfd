package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIClient handles HTTP communication with the VendorVault server.
type APIClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error (%d)", e.StatusCode)
}

// NewClient creates a new APIClient from the stored session.
func NewClient() (*APIClient, error) {
	session, err := LoadSession()
	if err != nil {
		return nil, err
	}
	return &APIClient{
		BaseURL: strings.TrimRight(session.Server, "/"),
		Token:   session.Token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// NewClientWithURL creates a new APIClient with an explicit server URL (for login).
func NewClientWithURL(serverURL string) *APIClient {
	return &APIClient{
		BaseURL: strings.TrimRight(serverURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *APIClient) do(method, path string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	url := c.BaseURL + path
	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(respBody, apiErr)
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// Login authenticates with email/password and returns a JWT token.
func (c *APIClient) Login(email, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}

	err := c.do("POST", "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)

	if err != nil {
		return "", err
	}

	if resp.Token == "" {
		return "", fmt.Errorf("server returned empty token")
	}

	return resp.Token, nil
}

// Product is a product as returned by the API.
type Product struct {
	ID           string `json:"id"`
	VendorID     string `json:"vendor_id"`
	Name         string `json:"name"`
	ServiceType  string `json:"service_type"`
	Provider     string `json:"provider"`
	Stock        int    `json:"stock"`
	ReviewStatus string `json:"review_status"`
	CreatedAt    string `json:"created_at"`
}

// ListProducts lists products visible to the caller.
func (c *APIClient) ListProducts() ([]Product, error) {
	var resp struct {
		Products []Product `json:"products"`
	}
	if err := c.do("GET", "/api/v1/products", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// CreateProduct registers a new product for review.
func (c *APIClient) CreateProduct(name, serviceType, provider string) (*Product, error) {
	var resp Product
	err := c.do("POST", "/api/v1/products", map[string]string{
		"name":         name,
		"service_type": serviceType,
		"provider":     provider,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReviewProduct sets a product's review decision (admin).
func (c *APIClient) ReviewProduct(id, decision string) (*Product, error) {
	var resp Product
	err := c.do("POST", "/api/v1/products/"+id+"/review", map[string]string{
		"decision": decision,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// StockRequest is a stock request as returned by the API.
type StockRequest struct {
	ID                string `json:"id"`
	VendorID          string `json:"vendor_id"`
	ProductID         string `json:"product_id"`
	QuantityRequested int    `json:"quantity_requested"`
	QuantityFulfilled int    `json:"quantity_fulfilled"`
	Status            string `json:"status"`
	Notes             string `json:"notes"`
	Deadline          string `json:"deadline"`
	CreatedAt         string `json:"created_at"`
}

// ListStockRequests lists requests, optionally filtered by status.
func (c *APIClient) ListStockRequests(status string) ([]StockRequest, error) {
	path := "/api/v1/stock-requests"
	if status != "" {
		path += "?status=" + status
	}
	var resp struct {
		Requests []StockRequest `json:"requests"`
	}
	if err := c.do("GET", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Requests, nil
}

// CreateStockRequest issues an admin demand for units of a product.
func (c *APIClient) CreateStockRequest(vendorID, productID string, quantity int, notes string) (*StockRequest, error) {
	var resp StockRequest
	err := c.do("POST", "/api/v1/stock-requests", map[string]interface{}{
		"vendor_id":  vendorID,
		"product_id": productID,
		"quantity":   quantity,
		"notes":      notes,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelStockRequest closes an open request (admin).
func (c *APIClient) CancelStockRequest(id string) (*StockRequest, error) {
	var resp StockRequest
	if err := c.do("POST", "/api/v1/stock-requests/"+id+"/cancel", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeclineStockRequest turns down an open request addressed to this vendor.
func (c *APIClient) DeclineStockRequest(id string) (*StockRequest, error) {
	var resp StockRequest
	if err := c.do("POST", "/api/v1/stock-requests/"+id+"/decline", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadResult reports what an upload imported.
type UploadResult struct {
	Imported   int `json:"imported"`
	TotalUnits int `json:"total_units"`
	Errors     []struct {
		Line   int    `json:"line"`
		Reason string `json:"reason"`
	} `json:"errors"`
	UpdatedRequest *StockRequest `json:"updated_request"`
}

// UploadManual sends pre-structured entries as a credential upload.
// Entries are opaque to the client; the server validates them per the
// product's service type.
func (c *APIClient) UploadManual(productID string, entries []map[string]interface{}, requestID string) (*UploadResult, error) {
	body := map[string]interface{}{
		"mode":    "manual",
		"entries": entries,
	}
	if requestID != "" {
		body["admin_request_id"] = requestID
	}
	var resp UploadResult
	if err := c.do("POST", "/api/v1/products/"+productID+"/batches", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadCSV sends CSV content as a credential upload for a product.
func (c *APIClient) UploadCSV(productID, csvContent string, requestID string) (*UploadResult, error) {
	body := map[string]interface{}{
		"mode": "csv",
		"csv":  csvContent,
	}
	if requestID != "" {
		body["admin_request_id"] = requestID
	}
	var resp UploadResult
	if err := c.do("POST", "/api/v1/products/"+productID+"/batches", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BatchSummary is a masked batch listing entry.
type BatchSummary struct {
	ID             string `json:"id"`
	BatchNumber    int    `json:"batch_number"`
	CredentialType string `json:"credential_type"`
	MaskedLabel    string `json:"masked_label"`
	TotalCount     int    `json:"total_count"`
	AssignedCount  int    `json:"assigned_count"`
	AvailableCount int    `json:"available_count"`
	IsValid        bool   `json:"is_valid"`
	Approved       bool   `json:"approved"`
	CreatedAt      string `json:"created_at"`
}

// ListBatches lists masked batch metadata for a product.
func (c *APIClient) ListBatches(productID string) ([]BatchSummary, error) {
	var resp struct {
		Batches []BatchSummary `json:"batches"`
	}
	if err := c.do("GET", "/api/v1/products/"+productID+"/batches", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Batches, nil
}

// RevealBatch decrypts a batch for admin review. The server writes the
// audit entry; the client just renders the payload.
func (c *APIClient) RevealBatch(id string) (json.RawMessage, error) {
	var resp json.RawMessage
	if err := c.do("POST", "/api/v1/batches/"+id+"/reveal", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ApproveBatch passes a request-linked batch into sellable stock (admin).
func (c *APIClient) ApproveBatch(id, comment string) error {
	return c.do("POST", "/api/v1/batches/"+id+"/approve", map[string]string{
		"comment": comment,
	}, nil)
}

// RejectBatch tombstones a batch with a mandatory reason (admin).
func (c *APIClient) RejectBatch(id, reason string) error {
	return c.do("POST", "/api/v1/batches/"+id+"/reject", map[string]string{
		"reason": reason,
	}, nil)
}
