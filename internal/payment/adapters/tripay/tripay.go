package tripay

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
	"strings"
	"time"

	"github.com/sitesell/sitesell/internal/config"
	paymentdomain "github.com/sitesell/sitesell/internal/payment/domain"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://tripay.co.id/api"
	defaultMethod  = "QRIS"

	signatureHeader = "X-Callback-Signature"
	eventHeader     = "X-Callback-Event"
)

type Adapter struct {
	baseURL      string
	merchantCode string
	apiKey       string
	privateKey   string
	client       *http.Client
	log          *zap.Logger
}

func New(cfg config.GatewayConfig, log *zap.Logger) *Adapter {
	return &Adapter{
		baseURL:      defaultBaseURL,
		merchantCode: cfg.TripayMerchantCode,
		apiKey:       cfg.TripayAPIKey,
		privateKey:   cfg.TripayPrivateKey,
		client:       &http.Client{Timeout: 15 * time.Second},
		log:          log.Named("payment.tripay"),
	}
}

func (a *Adapter) Provider() string { return "tripay" }

type createRequest struct {
	Method        string        `json:"method"`
	MerchantRef   string        `json:"merchant_ref"`
	Amount        int64         `json:"amount"`
	CustomerName  string        `json:"customer_name"`
	CustomerEmail string        `json:"customer_email"`
	OrderItems    []requestItem `json:"order_items"`
	ExpiredTime   int64         `json:"expired_time"`
	Signature     string        `json:"signature"`
}

type requestItem struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type createResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Data    createResponseData `json:"data"`
}

type createResponseData struct {
	Reference     string `json:"reference"`
	PaymentMethod string `json:"payment_method"`
	CheckoutURL   string `json:"checkout_url"`
}

func (a *Adapter) CreateCheckout(ctx context.Context, req paymentdomain.CheckoutRequest) (*paymentdomain.CheckoutSession, error) {
	method := strings.TrimSpace(req.Method)
	if method == "" {
		method = defaultMethod
	}

	body := createRequest{
		Method:        method,
		MerchantRef:   req.MerchantRef,
		Amount:        req.Amount,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		OrderItems: []requestItem{
			{Name: req.ItemName, Price: req.Amount, Quantity: 1},
		},
		ExpiredTime: req.ExpiresAt.Unix(),
		Signature:   a.requestSignature(req.MerchantRef, req.Amount),
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/transaction/create", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
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

	var parsed createResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: bad response body", paymentdomain.ErrGatewayFailure)
	}
	if resp.StatusCode != http.StatusOK || !parsed.Success {
		a.log.Warn("checkout creation rejected",
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", parsed.Message),
		)
		return nil, paymentdomain.ErrGatewayFailure
	}

	return &paymentdomain.CheckoutSession{
		ProviderRef: parsed.Data.Reference,
		PaymentURL:  parsed.Data.CheckoutURL,
		Method:      parsed.Data.PaymentMethod,
		RawResponse: raw,
	}, nil
}

// requestSignature signs merchant_code + merchant_ref + amount with the
// private key, per the gateway's checkout contract.
func (a *Adapter) requestSignature(merchantRef string, amount int64) string {
	mac := hmac.New(sha256.New, []byte(a.privateKey))
	fmt.Fprintf(mac, "%s%s%d", a.merchantCode, merchantRef, amount)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the callback body HMAC. An unconfigured private key
// skips verification with a warning so local setups still work; that is
// never acceptable in production.
func (a *Adapter) Verify(_ context.Context, payload []byte, headers http.Header) error {
	if a.privateKey == "" {
		a.log.Warn("callback signature check skipped, private key not configured")
		return nil
	}

	signature := strings.TrimSpace(headers.Get(signatureHeader))
	if signature == "" {
		return paymentdomain.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(a.privateKey))
	_, _ = mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return paymentdomain.ErrInvalidSignature
	}
	return nil
}

type callbackPayload struct {
	Reference     string `json:"reference"`
	MerchantRef   string `json:"merchant_ref"`
	PaymentMethod string `json:"payment_method"`
	TotalAmount   int64  `json:"total_amount"`
	Status        string `json:"status"`
	PaidAt        int64  `json:"paid_at"`
}

func (a *Adapter) Parse(_ context.Context, payload []byte) (*paymentdomain.CallbackEvent, error) {
	var cb callbackPayload
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(cb.MerchantRef) == "" {
		return nil, paymentdomain.ErrInvalidPayload
	}

	var status paymentdomain.Status
	switch strings.ToUpper(strings.TrimSpace(cb.Status)) {
	case "PAID":
		status = paymentdomain.StatusCompleted
	case "EXPIRED":
		status = paymentdomain.StatusExpired
	case "FAILED":
		status = paymentdomain.StatusFailed
	default:
		a.log.Warn("callback with unmapped status, transaction stays pending",
			zap.String("merchant_ref", cb.MerchantRef),
			zap.String("status", cb.Status),
		)
		return nil, paymentdomain.ErrEventIgnored
	}

	var paidAt *time.Time
	if status == paymentdomain.StatusCompleted {
		at := time.Now().UTC()
		if cb.PaidAt > 0 {
			at = time.Unix(cb.PaidAt, 0).UTC()
		}
		paidAt = &at
	}

	return &paymentdomain.CallbackEvent{
		Provider:    a.Provider(),
		MerchantRef: strings.TrimSpace(cb.MerchantRef),
		ProviderRef: strings.TrimSpace(cb.Reference),
		Method:      strings.TrimSpace(cb.PaymentMethod),
		Status:      status,
		Amount:      cb.TotalAmount,
		PaidAt:      paidAt,
		RawPayload:  payload,
	}, nil
}
