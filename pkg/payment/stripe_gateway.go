package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const stripeAPIURL = "https://api.stripe.com/v1"

// stripeSignatureTolerance bounds how old a webhook timestamp may be
const stripeSignatureTolerance = 5 * time.Minute

// StripeGateway implements payment collection via Stripe PaymentIntents
type StripeGateway struct {
	secretKey     string
	webhookSecret string
	client        *http.Client
	now           func() time.Time
}

// StripeConfig holds configuration for the Stripe gateway
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// NewStripeGateway creates a new Stripe gateway client
func NewStripeGateway(config StripeConfig) *StripeGateway {
	return &StripeGateway{
		secretKey:     config.SecretKey,
		webhookSecret: config.WebhookSecret,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}
}

// Name returns the gateway identifier
func (g *StripeGateway) Name() string {
	return "stripe"
}

// stripeIntentResponse is the subset of the PaymentIntent object we use
type stripeIntentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Error        *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CreateIntent opens a Stripe PaymentIntent. The booking's tx_ref travels in
// metadata so the webhook can map the intent back to the booking.
func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	form := url.Values{}
	// Stripe amounts are in minor units
	form.Set("amount", strconv.FormatInt(int64(math.Round(req.Amount*100)), 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("metadata[tx_ref]", req.TxRef)
	form.Set("metadata[booking_id]", req.BookingID.String())
	if req.Email != "" {
		form.Set("receipt_email", req.Email)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		stripeAPIURL+"/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent request: %w", err)
	}
	httpReq.SetBasicAuth(g.secretKey, "")
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Idempotency-Key", req.TxRef)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read payment intent response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: stripe returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var intentResp stripeIntentResponse
	if err := json.Unmarshal(body, &intentResp); err != nil {
		return nil, fmt.Errorf("failed to parse payment intent response: %w", err)
	}
	if intentResp.Error != nil {
		return nil, fmt.Errorf("payment intent creation failed: %s", intentResp.Error.Message)
	}
	if intentResp.ClientSecret == "" {
		return nil, fmt.Errorf("payment intent response missing client secret")
	}

	return &Intent{
		TxRef:        req.TxRef,
		ClientSecret: intentResp.ClientSecret,
	}, nil
}

// VerifyWebhook validates a Stripe-Signature header: "t=<unix>,v1=<hmac>".
// The HMAC-SHA256 is computed over "<t>.<payload>" with the webhook secret.
func (g *StripeGateway) VerifyWebhook(signature string, payload []byte) error {
	var timestamp string
	var candidates []string
	for _, part := range strings.Split(signature, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			candidates = append(candidates, kv[1])
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return fmt.Errorf("%w: malformed signature header", ErrInvalidSignature)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp", ErrInvalidSignature)
	}
	age := g.now().Sub(time.Unix(ts, 0))
	if age > stripeSignatureTolerance || age < -stripeSignatureTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, candidate := range candidates {
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// stripeWebhookEvent is the subset of the event envelope we consume
type stripeWebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			AmountReceived int64  `json:"amount_received"`
			Currency       string `json:"currency"`
			Metadata       struct {
				TxRef string `json:"tx_ref"`
			} `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ParseWebhook extracts the neutral event from a verified Stripe payload
func (g *StripeGateway) ParseWebhook(payload []byte) (*WebhookEvent, error) {
	var event stripeWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	if event.Data.Object.Metadata.TxRef == "" {
		return nil, fmt.Errorf("webhook payload missing tx_ref metadata")
	}

	return &WebhookEvent{
		TxRef:    event.Data.Object.Metadata.TxRef,
		Success:  event.Type == "payment_intent.succeeded",
		Amount:   float64(event.Data.Object.AmountReceived) / 100,
		Currency: strings.ToUpper(event.Data.Object.Currency),
	}, nil
}
