package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds the marketplace API client configuration.
type Config struct {
	BaseURL string        `env:"CHECKOUT_API_BASE_URL,required"`
	Timeout time.Duration `env:"CHECKOUT_API_TIMEOUT" envDefault:"30s"`
}

// TokenSource supplies the bearer token for an outgoing call. The token is
// attached to the single request and discarded; it is never retained by the
// client between calls.
type TokenSource func(ctx context.Context) (string, error)

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, primarily for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// Client is the typed marketplace REST client.
type Client struct {
	baseURL    string
	timeout    time.Duration
	tokens     TokenSource
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a marketplace API client.
// Panics if the token source is nil to fail fast during initialization.
func New(cfg Config, tokens TokenSource, opts ...Option) (*Client, error) {
	if tokens == nil {
		panic("api: TokenSource is required")
	}
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    timeout,
		tokens:     tokens,
		httpClient: http.DefaultClient,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetCheckoutData fetches the checkout bootstrap payload for a purchase.
func (c *Client) GetCheckoutData(ctx context.Context, intent PurchaseIntent) (*CheckoutData, error) {
	q := url.Values{}
	q.Set("type", string(intent.Type))
	q.Set("plan_id", intent.PlanID)
	if intent.ListingID != "" {
		q.Set("listing_id", intent.ListingID)
	}

	var out CheckoutData
	if err := c.do(ctx, http.MethodGet, c.endpoint("get-checkout-data")+"?"+q.Encode(), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ApplyCoupon validates a coupon code against a plan. Backend rejections are
// returned as *CouponDeclinedError; transport failures keep their network
// classification so callers can tell a declined code from a flaky connection.
func (c *Client) ApplyCoupon(ctx context.Context, planID, code string) (*CouponInfo, error) {
	body := map[string]any{
		"plan_id":     planID,
		"coupon_code": code,
	}

	var out CouponInfo
	if err := c.do(ctx, http.MethodPost, c.endpoint("coupon/apply"), body, "", &out); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			return nil, &CouponDeclinedError{Code: apiErr.Code, Message: apiErr.Message}
		}
		return nil, err
	}
	return &out, nil
}

// SubmitCheckout posts the checkout request. The response is one of three
// shapes (terminal order, card-challenge demand, or redirect/SDK handoff);
// the caller branches on the populated fields.
func (c *Client) SubmitCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	var out CheckoutResponse
	headers := map[string]string{}
	if req.IdempotencyKey != "" {
		headers["Idempotency-Key"] = req.IdempotencyKey
	}
	if err := c.doWithHeaders(ctx, http.MethodPost, c.endpoint("checkout"), req.payload(), "", headers, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// confirmResponse is the wire shape of the per-gateway confirm endpoint.
type confirmResponse struct {
	Result    string     `json:"result"`
	Message   string     `json:"message,omitempty"`
	OrderData *OrderData `json:"order_data,omitempty"`
}

// ConfirmIntent calls the per-response confirm endpoint after a client-side
// challenge. On a non-success result the partial order record (if any) is
// still returned alongside ErrConfirmDeclined, since the order may already
// exist server-side in a pending state.
func (c *Client) ConfirmIntent(ctx context.Context, confirmURL string, orderID int64) (*OrderData, error) {
	body := map[string]any{
		"rest_api": true,
		"order_id": orderID,
	}

	var out confirmResponse
	if err := c.do(ctx, http.MethodPost, confirmURL, body, "", &out); err != nil {
		return nil, err
	}
	if out.Result != "success" {
		err := ErrConfirmDeclined
		if out.Message != "" {
			err = fmt.Errorf("%w: %s", ErrConfirmDeclined, out.Message)
		}
		return out.OrderData, err
	}
	return out.OrderData, nil
}

// verifyResponse is the wire shape of the native-SDK verification endpoint.
type verifyResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    *OrderData `json:"data,omitempty"`
}

// VerifyNativePayment posts the native SDK callback payload to the
// per-response verification endpoint as a multipart form.
func (c *Client) VerifyNativePayment(ctx context.Context, verifyURL string, req VerifyRequest) (*OrderData, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("payment_id", req.PaymentID); err != nil {
		return nil, err
	}
	if err := mw.WriteField("rest_api", "1"); err != nil {
		return nil, err
	}
	for field, value := range req.Signature {
		if err := mw.WriteField(field, value); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out verifyResponse
	if err := c.doRaw(ctx, http.MethodPost, verifyURL, &buf, mw.FormDataContentType(), nil, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		err := ErrVerifyDeclined
		if out.Message != "" {
			err = fmt.Errorf("%w: %s", ErrVerifyDeclined, out.Message)
		}
		return out.Data, err
	}
	return out.Data, nil
}

// CancelOrder sends a best-effort cancel notification for a pending
// server-side order. Callers log failures instead of surfacing them.
func (c *Client) CancelOrder(ctx context.Context, orderID int64) error {
	body := map[string]any{"order_id": orderID}
	return c.do(ctx, http.MethodPost, c.endpoint("orders/cancel"), body, "", nil)
}

// Me fetches the authenticated user's current profile.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.do(ctx, http.MethodGet, c.endpoint("my"), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) do(ctx context.Context, method, rawURL string, body any, contentType string, out any) error {
	return c.doWithHeaders(ctx, method, rawURL, body, contentType, nil, out)
}

func (c *Client) doWithHeaders(ctx context.Context, method, rawURL string, body any, contentType string, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
		if contentType == "" {
			contentType = "application/json"
		}
	}
	return c.doRaw(ctx, method, rawURL, reader, contentType, headers, out)
}

// doRaw executes a single request with the bounded timeout and per-call
// bearer attachment, classifying failures into the package error taxonomy.
func (c *Client) doRaw(ctx context.Context, method, rawURL string, body io.Reader, contentType string, headers map[string]string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	token, err := c.tokens(ctx)
	if err != nil {
		return errors.Join(ErrMissingToken, err)
	}
	// The header lives on this request only; the client keeps no durable
	// authorization state between calls.
	req.Header.Set("Authorization", "Bearer "+token)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.classifyTransportError(method, rawURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	c.log.DebugContext(ctx, "api request completed",
		slog.String("method", method),
		slog.String("url", rawURL),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(started)),
	)

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Join(ErrNetwork, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return c.decodeError(resp.StatusCode, payload)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return errors.Join(ErrDecoding, err)
	}
	return nil
}

func (c *Client) classifyTransportError(method, rawURL string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		c.log.Warn("api request timed out", slog.String("method", method), slog.String("url", rawURL))
		return errors.Join(ErrRequestTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return errors.Join(ErrNetwork, err)
}

// errorBody is the backend's structured failure payload. Some endpoints nest
// the message under "data", so both shapes are tried.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"data"`
}

func (c *Client) decodeError(status int, payload []byte) error {
	apiErr := &Error{StatusCode: status}
	var body errorBody
	if err := json.Unmarshal(payload, &body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Data.Message
		}
	}
	if apiErr.Message == "" && len(payload) > 0 && len(payload) < 256 {
		// Fall back to the raw body when it is short enough to be a plain
		// text error rather than an HTML error page.
		trimmed := strings.TrimSpace(string(payload))
		if !strings.HasPrefix(trimmed, "<") {
			apiErr.Message = trimmed
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
		if apiErr.Message == "" {
			apiErr.Message = "request failed with status " + strconv.Itoa(status)
		}
	}
	return apiErr
}
