package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// ChapaGateway implements payment collection via the Chapa hosted checkout
type ChapaGateway struct {
	apiURL        string
	secretKey     string
	webhookSecret string
	client        *http.Client
}

// ChapaConfig holds configuration for the Chapa gateway
type ChapaConfig struct {
	APIURL        string
	SecretKey     string
	WebhookSecret string
}

// NewChapaGateway creates a new Chapa gateway client
func NewChapaGateway(config ChapaConfig) *ChapaGateway {
	return &ChapaGateway{
		apiURL:        config.APIURL,
		secretKey:     config.SecretKey,
		webhookSecret: config.WebhookSecret,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the gateway identifier
func (g *ChapaGateway) Name() string {
	return "chapa"
}

// chapaInitializeRequest is the transaction initialize payload
type chapaInitializeRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	TxRef       string `json:"tx_ref"`
	CallbackURL string `json:"callback_url,omitempty"`
	ReturnURL   string `json:"return_url,omitempty"`
}

// chapaInitializeResponse is the transaction initialize response
type chapaInitializeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

// CreateIntent opens a Chapa checkout session and returns its hosted URL
func (g *ChapaGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	initReq := chapaInitializeRequest{
		Amount:      strconv.FormatFloat(req.Amount, 'f', 2, 64),
		Currency:    req.Currency,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		TxRef:       req.TxRef,
		CallbackURL: req.CallbackURL,
		ReturnURL:   req.ReturnURL,
	}

	jsonData, err := json.Marshal(initReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal initialize request: %w", err)
	}

	url := fmt.Sprintf("%s/transaction/initialize", g.apiURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create initialize request: %w", err)
	}
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", g.secretKey))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read initialize response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: chapa returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var initResp chapaInitializeResponse
	if err := json.Unmarshal(body, &initResp); err != nil {
		return nil, fmt.Errorf("failed to parse initialize response: %w", err)
	}
	if initResp.Status != "success" {
		return nil, fmt.Errorf("checkout initialization failed: %s", initResp.Message)
	}
	if initResp.Data.CheckoutURL == "" {
		return nil, fmt.Errorf("initialize response missing checkout url")
	}

	return &Intent{
		TxRef:       req.TxRef,
		CheckoutURL: initResp.Data.CheckoutURL,
	}, nil
}

// VerifyWebhook validates the Chapa-Signature header: hex HMAC-SHA256 of the
// raw payload with the webhook secret.
func (g *ChapaGateway) VerifyWebhook(signature string, payload []byte) error {
	if signature == "" {
		return fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

// chapaWebhookEvent is the subset of the webhook payload we consume
type chapaWebhookEvent struct {
	Event    string `json:"event"`
	Status   string `json:"status"`
	TxRef    string `json:"tx_ref"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// ParseWebhook extracts the neutral event from a verified Chapa payload
func (g *ChapaGateway) ParseWebhook(payload []byte) (*WebhookEvent, error) {
	var event chapaWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	if event.TxRef == "" {
		return nil, fmt.Errorf("webhook payload missing tx_ref")
	}

	amount, err := strconv.ParseFloat(event.Amount, 64)
	if err != nil && event.Amount != "" {
		return nil, fmt.Errorf("failed to parse webhook amount: %w", err)
	}

	return &WebhookEvent{
		TxRef:    event.TxRef,
		Success:  event.Event == "charge.success" || event.Status == "success",
		Amount:   amount,
		Currency: event.Currency,
	}, nil
}
