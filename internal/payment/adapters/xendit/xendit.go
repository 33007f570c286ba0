package xendit

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sitesell/sitesell/internal/config"
	paymentdomain "github.com/sitesell/sitesell/internal/payment/domain"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.xendit.co"

	callbackTokenHeader = "X-Callback-Token"
)

type Adapter struct {
	baseURL     string
	apiKey      string
	callbackKey string
	client      *http.Client
	log         *zap.Logger
}

func New(cfg config.GatewayConfig, log *zap.Logger) *Adapter {
	return &Adapter{
		baseURL:     defaultBaseURL,
		apiKey:      cfg.XenditAPIKey,
		callbackKey: cfg.XenditCallbackKey,
		client:      &http.Client{Timeout: 15 * time.Second},
		log:         log.Named("payment.xendit"),
	}
}

func (a *Adapter) Provider() string { return "xendit" }

type createInvoiceRequest struct {
	ExternalID      string `json:"external_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Description     string `json:"description"`
	PayerEmail      string `json:"payer_email,omitempty"`
	InvoiceDuration int64  `json:"invoice_duration"`
}

type invoiceResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	InvoiceURL string `json:"invoice_url"`
}

func (a *Adapter) CreateCheckout(ctx context.Context, req paymentdomain.CheckoutRequest) (*paymentdomain.CheckoutSession, error) {
	duration := int64(time.Until(req.ExpiresAt).Seconds())
	if duration <= 0 {
		duration = 3600
	}

	body := createInvoiceRequest{
		ExternalID:      req.MerchantRef,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Description:     req.ItemName,
		PayerEmail:      req.CustomerEmail,
		InvoiceDuration: duration,
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v2/invoices", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(a.apiKey, "")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrGatewayFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrGatewayFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		a.log.Warn("invoice creation rejected", zap.Int("status_code", resp.StatusCode))
		return nil, paymentdomain.ErrGatewayFailure
	}

	var parsed invoiceResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: bad response body", paymentdomain.ErrGatewayFailure)
	}

	return &paymentdomain.CheckoutSession{
		ProviderRef: parsed.ID,
		PaymentURL:  parsed.InvoiceURL,
		RawResponse: raw,
	}, nil
}

// Verify compares the shared callback token. An unconfigured key skips
// the check with a warning; never acceptable in production.
func (a *Adapter) Verify(_ context.Context, _ []byte, headers http.Header) error {
	if a.callbackKey == "" {
		a.log.Warn("callback token check skipped, callback key not configured")
		return nil
	}
	token := strings.TrimSpace(headers.Get(callbackTokenHeader))
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.callbackKey)) != 1 {
		return paymentdomain.ErrInvalidSignature
	}
	return nil
}

type callbackPayload struct {
	ID            string `json:"id"`
	ExternalID    string `json:"external_id"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	PaidAmount    int64  `json:"paid_amount"`
	PaymentMethod string `json:"payment_method"`
	PaidAt        string `json:"paid_at"`
}

func (a *Adapter) Parse(_ context.Context, payload []byte) (*paymentdomain.CallbackEvent, error) {
	var cb callbackPayload
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(cb.ExternalID) == "" {
		return nil, paymentdomain.ErrInvalidPayload
	}

	var status paymentdomain.Status
	switch strings.ToUpper(strings.TrimSpace(cb.Status)) {
	case "PAID", "SETTLED":
		status = paymentdomain.StatusCompleted
	case "EXPIRED":
		status = paymentdomain.StatusExpired
	default:
		a.log.Warn("callback with unmapped status, transaction stays pending",
			zap.String("external_id", cb.ExternalID),
			zap.String("status", cb.Status),
		)
		return nil, paymentdomain.ErrEventIgnored
	}

	amount := cb.PaidAmount
	if amount == 0 {
		amount = cb.Amount
	}

	var paidAt *time.Time
	if status == paymentdomain.StatusCompleted {
		at := time.Now().UTC()
		if parsed, err := time.Parse(time.RFC3339, cb.PaidAt); err == nil {
			at = parsed.UTC()
		}
		paidAt = &at
	}

	return &paymentdomain.CallbackEvent{
		Provider:    a.Provider(),
		MerchantRef: strings.TrimSpace(cb.ExternalID),
		ProviderRef: strings.TrimSpace(cb.ID),
		Method:      strings.TrimSpace(cb.PaymentMethod),
		Status:      status,
		Amount:      amount,
		PaidAt:      paidAt,
		RawPayload:  payload,
	}, nil
}
