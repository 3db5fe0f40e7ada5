package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrVerificationFailed indicates the provider did not confirm the payment.
var ErrVerificationFailed = errors.New("payment: verification failed")

// VerifiedPayment describes a payment confirmed by the provider.
type VerifiedPayment struct {
	TransactionID string
	Reference     string
	Amount        float64
	Currency      string
}

// Verifier confirms an externally reported payment against the provider.
type Verifier interface {
	VerifyTransaction(ctx context.Context, transactionID string) (*VerifiedPayment, error)
}

// FlutterwaveConfig holds credentials for the Flutterwave v3 API.
type FlutterwaveConfig struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

// FlutterwaveClient verifies transactions against the Flutterwave API.
type FlutterwaveClient struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewFlutterwaveClient constructs a Flutterwave verification client.
func NewFlutterwaveClient(cfg FlutterwaveConfig) (*FlutterwaveClient, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("flutterwave: secret key is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.flutterwave.com/v3"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &FlutterwaveClient{
		secretKey: cfg.SecretKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

type flutterwaveEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID       int64   `json:"id"`
		TxRef    string  `json:"tx_ref"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
		Status   string  `json:"status"`
	} `json:"data"`
}

// VerifyTransaction confirms the transaction with Flutterwave and returns the
// settled amount. Any non-successful provider status is reported as
// ErrVerificationFailed.
func (c *FlutterwaveClient) VerifyTransaction(ctx context.Context, transactionID string) (*VerifiedPayment, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, errors.New("flutterwave: transaction id is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	url := fmt.Sprintf("%s/transactions/%s/verify", c.baseURL, transactionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("flutterwave: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flutterwave: verify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("flutterwave: unexpected status %d: %w", resp.StatusCode, ErrVerificationFailed)
	}

	var envelope flutterwaveEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("flutterwave: decode response: %w", err)
	}

	if !strings.EqualFold(envelope.Status, "success") || !strings.EqualFold(envelope.Data.Status, "successful") {
		return nil, fmt.Errorf("flutterwave: transaction %s not successful: %w", transactionID, ErrVerificationFailed)
	}

	return &VerifiedPayment{
		TransactionID: fmt.Sprintf("%d", envelope.Data.ID),
		Reference:     envelope.Data.TxRef,
		Amount:        envelope.Data.Amount,
		Currency:      envelope.Data.Currency,
	}, nil
}
