package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"craftlink/models"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TokenSource supplies the bearer token attached to every request. Token
// acquisition and storage live outside this package.
type TokenSource func() string

// APIError carries a server rejection back to the caller verbatim.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// Client is the authenticated HTTP client for the marketplace backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient builds a Client for the given base URL. The limiter paces all
// outbound requests; pass nil to disable pacing.
func NewClient(baseURL string, tokens TokenSource, limiter *rate.Limiter, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		tokens:     tokens,
		limiter:    limiter,
		logger:     logger,
	}
}

// doJSON issues a request with an optional JSON body and decodes a JSON
// response into out (which may be nil). Non-2xx responses are returned as an
// *APIError carrying the server's message unchanged.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.tokens())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError reads a non-2xx body into an APIError. Bodies that are not the
// backend's {message, details} shape fall back to the raw text.
func (c *Client) decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("HTTP %d", resp.StatusCode)
		apiErr.Details = strings.TrimSpace(string(raw))
	}
	c.logger.Warn("backend rejected request",
		zap.Int("status", resp.StatusCode),
		zap.String("message", apiErr.Message))
	return apiErr
}

// CreateBooking submits a new booking and returns its id, status and the
// acceptance window deadline.
func (c *Client) CreateBooking(ctx context.Context, req models.CreateBookingRequest) (*models.BookingCreated, error) {
	var created models.BookingCreated
	if err := c.doJSON(ctx, http.MethodPost, "/bookings", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetBooking fetches the full booking record.
func (c *Client) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := c.doJSON(ctx, http.MethodGet, "/bookings/"+id, nil, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// CancelBooking cancels a booking. The server treats cancellation of an
// already-terminal booking as a no-op.
func (c *Client) CancelBooking(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPut, "/bookings/"+id+"/cancel", nil, nil)
}

// AcceptBooking accepts a pending booking at the quoted price (artisan side).
func (c *Client) AcceptBooking(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPut, "/bookings/"+id+"/accept", nil, nil)
}

// DeclineBooking refuses a pending booking outright (artisan side).
func (c *Client) DeclineBooking(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPut, "/bookings/"+id+"/decline", nil, nil)
}

// CounterOffer sends a counter price into an open negotiation.
func (c *Client) CounterOffer(ctx context.Context, id string, req models.CounterOfferRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/bookings/"+id+"/counter-offer", req, nil)
}

// AcceptPrice accepts the counterparty's latest proposed price.
func (c *Client) AcceptPrice(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPost, "/bookings/"+id+"/accept-price", nil, nil)
}

// RejectNegotiation ends the negotiation without agreement.
func (c *Client) RejectNegotiation(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPost, "/bookings/"+id+"/reject-negotiation", nil, nil)
}

// GetNegotiation fetches the negotiation round history for a booking.
func (c *Client) GetNegotiation(ctx context.Context, id string) (*models.Negotiation, error) {
	var neg models.Negotiation
	if err := c.doJSON(ctx, http.MethodGet, "/bookings/"+id+"/negotiation", nil, &neg); err != nil {
		return nil, err
	}
	return &neg, nil
}

// InitializePayment starts an escrow capture for a booking and returns the
// hosted payment page URL.
func (c *Client) InitializePayment(ctx context.Context, bookingID string) (*models.PaymentInit, error) {
	body := map[string]string{"bookingId": bookingID}
	var init models.PaymentInit
	if err := c.doJSON(ctx, http.MethodPost, "/payments/initialize", body, &init); err != nil {
		return nil, err
	}
	return &init, nil
}

// OpenVerifyStream opens the one-shot payment verification event stream and
// returns its body for incremental reading. A non-OK response is returned as
// an *APIError and no reader is handed out.
func (c *Client) OpenVerifyStream(ctx context.Context, reference string) (io.ReadCloser, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payments/verify-stream/"+reference, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.tokens())

	// The stream outlives the default client timeout; use a dedicated client.
	streamClient := &http.Client{}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, c.decodeError(resp)
	}
	return resp.Body, nil
}
