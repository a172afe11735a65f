// Package api implements the HTTP client for the EcoCollect backend.
// It enforces a single authentication contract across every outbound
// request: the stored session token is attached as a bearer credential,
// and authentication failures are classified centrally so that exactly
// one component decides when a session is invalid.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every request. Its expiry surfaces as a
// transport error, never as an authentication failure.
const DefaultTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	// BaseURL is the backend root, e.g. "https://api.ecocollect.example".
	// The documented endpoints live under BaseURL + "/api".
	BaseURL string

	// Sessions provides the token for the outbound stage and is cleared
	// on session invalidation.
	Sessions SessionStore

	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration

	// LandingActive reports whether the application is currently in the
	// unauthenticated landing state. A 401 arriving then never triggers
	// invalidation (prevents logout loops on the landing page).
	LandingActive func() bool

	// OnInvalidate is signaled after the session store has been cleared
	// by the inbound stage. The application shell uses it to notify the
	// user and return to the landing state.
	OnInvalidate func()
}

// Client is an HTTP client for the EcoCollect API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	pipeline   func(base http.RoundTripper) http.RoundTripper
}

// New creates a new API client. The underlying http.Client carries a
// cookie jar because some deployments authenticate via a credentialed
// cookie in addition to the bearer token.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	pipeline := func(base http.RoundTripper) http.RoundTripper {
		if base == nil {
			base = http.DefaultTransport
		}
		return &bearerTransport{
			sessions: cfg.Sessions,
			base: &unauthorizedTransport{
				base:          base,
				sessions:      cfg.Sessions,
				landingActive: cfg.LandingActive,
				onInvalidate:  cfg.OnInvalidate,
			},
		}
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		pipeline: pipeline,
		httpClient: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: pipeline(nil),
		},
	}, nil
}

// SetHTTPClient replaces the underlying HTTP client, rebuilding the
// transport pipeline around whatever transport it carries. Used for
// self-signed deployments and by tests.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	httpClient.Transport = c.pipeline(httpClient.Transport)
	if httpClient.Jar == nil {
		httpClient.Jar = c.httpClient.Jar
	}
	c.httpClient = httpClient
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do issues one request and decodes the response into out (when out is
// non-nil). Non-2xx statuses become *Error carrying the server detail.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api"+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		data, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(data, &eb)
		return &Error{StatusCode: resp.StatusCode, Detail: eb.message()}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Login exchanges an identity-provider credential for a backend session
// token. It does not touch the session store; the application shell
// persists the returned session.
func (c *Client) Login(ctx context.Context, credential string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/google", LoginRequest{Credential: credential}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me fetches the current authenticated profile.
func (c *Client) Me(ctx context.Context) (*UserProfile, error) {
	var user UserProfile
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout invalidates the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// WasteTypes lists the bookable waste categories. Public endpoint.
func (c *Client) WasteTypes(ctx context.Context) ([]WasteType, error) {
	var types []WasteType
	if err := c.do(ctx, http.MethodGet, "/waste-types", nil, &types); err != nil {
		return nil, err
	}
	return types, nil
}

// SeedData triggers idempotent demo-data seeding. Public endpoint.
func (c *Client) SeedData(ctx context.Context) (*SeedResult, error) {
	var result SeedResult
	if err := c.do(ctx, http.MethodPost, "/seed-data", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateBooking creates a new pickup booking.
func (c *Client) CreateBooking(ctx context.Context, req CreateBookingRequest) (*Booking, error) {
	var booking Booking
	if err := c.do(ctx, http.MethodPost, "/bookings", req, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListBookings returns the caller's bookings.
func (c *Client) ListBookings(ctx context.Context) ([]Booking, error) {
	var bookings []Booking
	if err := c.do(ctx, http.MethodGet, "/bookings", nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// GetBooking fetches one booking by id.
func (c *Client) GetBooking(ctx context.Context, id string) (*Booking, error) {
	var booking Booking
	if err := c.do(ctx, http.MethodGet, "/bookings/"+url.PathEscape(id), nil, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// DeleteBooking deletes a booking. The backend rejects the request with
// a client error unless the booking is pending or cancelled; the
// server's detail message is carried on the returned *Error.
func (c *Client) DeleteBooking(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/bookings/"+url.PathEscape(id), nil, nil)
}

// CheckoutPayment creates a payment session for a booking and returns
// the URL where the user completes payment.
func (c *Client) CheckoutPayment(ctx context.Context, bookingID string) (*CheckoutSession, error) {
	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/payments/checkout", CheckoutRequest{BookingID: bookingID}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// PaymentStatus polls the state of a payment session.
func (c *Client) PaymentStatus(ctx context.Context, sessionID string) (*PaymentStatus, error) {
	var status PaymentStatus
	if err := c.do(ctx, http.MethodGet, "/payments/status/"+url.PathEscape(sessionID), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// AdminStats fetches the aggregate dashboard counters. Admin only.
func (c *Client) AdminStats(ctx context.Context) (*AdminStats, error) {
	var stats AdminStats
	if err := c.do(ctx, http.MethodGet, "/admin/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// AdminBookings lists all bookings across users. Admin only.
func (c *Client) AdminBookings(ctx context.Context) ([]Booking, error) {
	var bookings []Booking
	if err := c.do(ctx, http.MethodGet, "/admin/bookings", nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateBookingStatus updates a booking's status. Admin only.
func (c *Client) UpdateBookingStatus(ctx context.Context, id, status string) (*Booking, error) {
	var booking Booking
	if err := c.do(ctx, http.MethodPatch, "/admin/bookings/"+url.PathEscape(id), UpdateBookingStatusRequest{Status: status}, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}
