// Package client talks to the webinar admin site over HTTP.
//
// Admin actions are state-changing POSTs guarded by Django's CSRF check: the
// request must echo the csrftoken cookie in a header and, over HTTPS, carry a
// same-origin Referer. Every action answers with the same JSON envelope,
// {"success": bool, "message": string}, including on 4xx and 5xx statuses.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxResponseSize limits response bodies read from the admin site.
const maxResponseSize = 1 << 20

const (
	// DefaultCSRFHeader is the header Django reads the CSRF token from.
	DefaultCSRFHeader = "X-CSRFToken"

	// RequestIDHeader correlates client logs with server logs.
	RequestIDHeader = "X-Request-ID"
)

// HeaderSource renders the Cookie header sent with every request.
type HeaderSource interface {
	Header() string
}

// Client is an HTTP client for the webinar admin site.
type Client struct {
	baseURL    string
	httpClient *http.Client
	csrfHeader string
	cookies    HeaderSource
	logger     *slog.Logger

	// Applied to a copy of httpClient once all options have run
	timeout *time.Duration
	jar     http.CookieJar
}

// Result is the JSON envelope returned by admin actions.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`

	// RegistrantID is set by a successful Zoom registration.
	RegistrantID string `json:"registrant_id,omitempty"`
}

// envelope detects whether a JSON body is a Result at all.
type envelope struct {
	Success      *bool  `json:"success"`
	Message      string `json:"message"`
	RegistrantID string `json:"registrant_id"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. Its Jar, if any, supplies cookies.
// A nil client keeps the default.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithTimeout sets the request timeout. The HTTP client passed to
// WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.timeout = &d
	}
}

// WithJar attaches a cookie jar. The HTTP client passed to WithHTTPClient is
// copied, never modified.
func WithJar(jar http.CookieJar) Option {
	return func(client *Client) {
		client.jar = jar
	}
}

// WithCookieHeader sends src's header on every request instead of jar cookies.
func WithCookieHeader(src HeaderSource) Option {
	return func(client *Client) {
		client.cookies = src
	}
}

// WithCSRFHeader overrides the header that carries the CSRF token.
func WithCSRFHeader(name string) Option {
	return func(client *Client) {
		if name != "" {
			client.csrfHeader = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(client *Client) {
		client.logger = logger
	}
}

// NewClient creates a client for the admin site rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		csrfHeader: DefaultCSRFHeader,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.timeout != nil || c.jar != nil {
		hc := *c.httpClient
		if c.timeout != nil {
			hc.Timeout = *c.timeout
		}
		if c.jar != nil {
			hc.Jar = c.jar
		}
		c.httpClient = &hc
	}

	return c
}

// BaseURL returns the site root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PostAction sends one action POST to path with csrfToken in the CSRF header.
//
// A decoded envelope is returned as a Result whatever the status code, so an
// unsuccessful action is a Result with Success false and a nil error. Errors
// wrap ErrTransport or ErrProtocol.
func (c *Client) PostAction(ctx context.Context, path, csrfToken string) (*Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrTransport, err)
	}
	requestID := uuid.New().String()
	httpReq.Header.Set(c.csrfHeader, csrfToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Referer", c.baseURL+"/")
	httpReq.Header.Set(RequestIDHeader, requestID)
	c.setCookies(httpReq)

	c.logger.Debug("Posting admin action", "path", path, "request_id", requestID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}

	c.logger.Debug("Admin action responded",
		"path", path,
		"request_id", requestID,
		"status", resp.StatusCode)

	return decodeResult(resp, body)
}

func decodeResult(resp *http.Response, body []byte) (*Result, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Success == nil {
		if resp.StatusCode >= 400 {
			return nil, &StatusError{
				StatusCode: resp.StatusCode,
				Body:       summarizeBody(resp.Header.Get("Content-Type"), body),
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%w: decode response: %w", ErrProtocol, err)
		}
		return nil, fmt.Errorf("%w: response has no success field", ErrProtocol)
	}

	if *env.Success && resp.StatusCode >= 400 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: env.Message}
	}

	return &Result{
		Success:      *env.Success,
		Message:      env.Message,
		RegistrantID: env.RegistrantID,
	}, nil
}

// Prime fetches path so the site can set its session and CSRF cookies on the
// client's jar.
func (c *Client) Prime(ctx context.Context, path string) error {
	if path == "" {
		path = "/"
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setCookies(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))

	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// Attendee is the attendee record served by the REST API.
type Attendee struct {
	ID           int64     `json:"id"`
	WebinarDate  int64     `json:"webinar_date"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Organization string    `json:"organization,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Zoom fields are only present when the API exposes them; the stock
	// attendee serializer does not.
	ZoomRegistrantID      string `json:"zoom_registrant_id,omitempty"`
	ZoomJoinURL           string `json:"zoom_join_url,omitempty"`
	ZoomRegistrationError string `json:"zoom_registration_error,omitempty"`

	// ZoomMeetingID is the webinar date's meeting id. Nil when not exposed;
	// empty when the webinar has no Zoom meeting.
	ZoomMeetingID *string `json:"zoom_meeting_id,omitempty"`
}

// HasZoomFields reports whether the record carries any registration field.
func (a *Attendee) HasZoomFields() bool {
	return a.ZoomRegistrantID != "" || a.ZoomRegistrationError != "" || a.ZoomJoinURL != ""
}

// ZoomStatus mirrors the admin page's registration status column.
func (a *Attendee) ZoomStatus() string {
	switch {
	case a.ZoomMeetingID != nil && *a.ZoomMeetingID == "":
		return "No Zoom webinar"
	case a.ZoomRegistrantID != "":
		return "Registered"
	case a.ZoomRegistrationError != "":
		return "Failed"
	default:
		return "Not registered"
	}
}

// String formats the attendee the way the admin site lists it.
func (a *Attendee) String() string {
	return fmt.Sprintf("%s %s - %s", a.FirstName, a.LastName, a.Email)
}

// GetAttendee fetches one attendee from the REST API.
func (c *Client) GetAttendee(ctx context.Context, id string) (*Attendee, error) {
	endpoint := fmt.Sprintf("%s/api/attendees/%s/", c.baseURL, url.PathEscape(id))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	c.setCookies(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       summarizeBody(resp.Header.Get("Content-Type"), body),
		}
	}

	var attendee Attendee
	if err := json.Unmarshal(body, &attendee); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &attendee, nil
}

func (c *Client) setCookies(req *http.Request) {
	if c.cookies == nil {
		return
	}
	if header := c.cookies.Header(); header != "" {
		req.Header.Set("Cookie", header)
	}
}
