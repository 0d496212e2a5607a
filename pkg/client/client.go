package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parkingmate/parkmate/pkg/domain"
)

// DefaultTimeout bounds a single request when no other timeout is configured.
const DefaultTimeout = 30 * time.Second

// SignupRequest is the payload for registering an account.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// CreateSpaceRequest is the payload for publishing a parking space.
type CreateSpaceRequest struct {
	Address      string   `json:"address"`
	PricePerHour int64    `json:"pricePerHour"`
	Description  string   `json:"description"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	ImageURLs    string   `json:"imageUrls,omitempty"`
}

// UpdateSpaceRequest replaces the editable fields of an owned space.
type UpdateSpaceRequest struct {
	Address      string `json:"address"`
	PricePerHour int64  `json:"pricePerHour"`
	Description  string `json:"description"`
}

// SpaceQuery selects one page of the space listing.
type SpaceQuery struct {
	Address string
	Sort    domain.SpaceSort
	Page    int
	Size    int // 0 leaves the backend default
}

// NearbyQuery selects one page of spaces within RadiusKm of a point.
type NearbyQuery struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64 // 0 leaves the backend default
	Sort      domain.SpaceSort
	Page      int
	Size      int
}

// CreateBookingRequest is the payload for reserving a space.
type CreateBookingRequest struct {
	ParkingSpaceID int64            `json:"parkingSpaceId"`
	StartTime      domain.LocalTime `json:"startTime"`
	EndTime        domain.LocalTime `json:"endTime"`
}

// Client is the ParkingMate API client. The bearer token is supplied by the
// session through SetToken and can change between requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a new API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken sets the bearer credential for subsequent requests. An empty
// token removes the Authorization header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// --- Users ---

// Signup registers a new account and returns the backend's message.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (string, error) {
	msg, err := c.doRequest(ctx, http.MethodPost, "/api/users/signup", req, nil)
	if err != nil {
		return "", fmt.Errorf("client.Signup: %w", err)
	}
	return msg, nil
}

// Login exchanges credentials for an access token. The token is returned,
// not stored: the caller hands it to the session.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	body := map[string]string{"email": email, "password": password}
	if _, err := c.doRequest(ctx, http.MethodPost, "/api/users/login", body, &resp); err != nil {
		return "", fmt.Errorf("client.Login: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("client.Login: response carried no access token")
	}
	return resp.AccessToken, nil
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*domain.Profile, error) {
	var p domain.Profile
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/users/me", nil, &p); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &p, nil
}

// --- Spaces ---

// ListSpaces fetches all spaces, optionally filtered by address.
func (c *Client) ListSpaces(ctx context.Context, address string) ([]domain.ParkingSpace, error) {
	path := "/api/spaces"
	if address = strings.TrimSpace(address); address != "" {
		params := url.Values{}
		params.Set("address", address)
		path += "?" + params.Encode()
	}
	var spaces []domain.ParkingSpace
	if _, err := c.doRequest(ctx, http.MethodGet, path, nil, &spaces); err != nil {
		return nil, fmt.Errorf("client.ListSpaces: %w", err)
	}
	return spaces, nil
}

// SearchSpaces fetches one sorted page of spaces.
func (c *Client) SearchSpaces(ctx context.Context, q SpaceQuery) (*domain.SpacePage, error) {
	params := url.Values{}
	if a := strings.TrimSpace(q.Address); a != "" {
		params.Set("address", a)
	}
	pageParams(params, q.Sort, q.Page, q.Size)
	var page domain.SpacePage
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/spaces?"+params.Encode(), nil, &page); err != nil {
		return nil, fmt.Errorf("client.SearchSpaces: %w", err)
	}
	return &page, nil
}

// NearbySpaces fetches one page of spaces around a point.
func (c *Client) NearbySpaces(ctx context.Context, q NearbyQuery) (*domain.SpacePage, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
	if q.RadiusKm > 0 {
		params.Set("radiusKm", strconv.FormatFloat(q.RadiusKm, 'f', -1, 64))
	}
	pageParams(params, q.Sort, q.Page, q.Size)
	var page domain.SpacePage
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/spaces/nearby?"+params.Encode(), nil, &page); err != nil {
		return nil, fmt.Errorf("client.NearbySpaces: %w", err)
	}
	return &page, nil
}

// pageParams always sets page, which switches the listing endpoint to its
// paged response.
func pageParams(params url.Values, sort domain.SpaceSort, page, size int) {
	if sort != "" {
		params.Set("sortBy", string(sort))
	}
	if page < 0 {
		page = 0
	}
	params.Set("page", strconv.Itoa(page))
	if size > 0 {
		params.Set("size", strconv.Itoa(size))
	}
}

// GetSpace fetches a single space by ID.
func (c *Client) GetSpace(ctx context.Context, id int64) (*domain.ParkingSpace, error) {
	var space domain.ParkingSpace
	if _, err := c.doRequest(ctx, http.MethodGet, spacePath(id), nil, &space); err != nil {
		return nil, fmt.Errorf("client.GetSpace: %w", err)
	}
	return &space, nil
}

// CreateSpace publishes a new space.
func (c *Client) CreateSpace(ctx context.Context, req CreateSpaceRequest) (string, error) {
	msg, err := c.doRequest(ctx, http.MethodPost, "/api/spaces", req, nil)
	if err != nil {
		return "", fmt.Errorf("client.CreateSpace: %w", err)
	}
	return msg, nil
}

// UpdateSpace edits one of the caller's spaces.
func (c *Client) UpdateSpace(ctx context.Context, id int64, req UpdateSpaceRequest) (string, error) {
	msg, err := c.doRequest(ctx, http.MethodPut, spacePath(id), req, nil)
	if err != nil {
		return "", fmt.Errorf("client.UpdateSpace: %w", err)
	}
	return msg, nil
}

// DeleteSpace removes one of the caller's spaces.
func (c *Client) DeleteSpace(ctx context.Context, id int64) (string, error) {
	msg, err := c.doRequest(ctx, http.MethodDelete, spacePath(id), nil, nil)
	if err != nil {
		return "", fmt.Errorf("client.DeleteSpace: %w", err)
	}
	return msg, nil
}

// MySpaces lists the spaces the caller owns.
func (c *Client) MySpaces(ctx context.Context) ([]domain.ParkingSpace, error) {
	var spaces []domain.ParkingSpace
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/spaces/my", nil, &spaces); err != nil {
		return nil, fmt.Errorf("client.MySpaces: %w", err)
	}
	return spaces, nil
}

// AvailableSlots asks the backend which slotHours-long intervals between
// from and to are free. The backend computes availability.
func (c *Client) AvailableSlots(ctx context.Context, id int64, from, to time.Time, slotHours int) ([]domain.TimeSlot, error) {
	params := url.Values{}
	params.Set("startDate", from.Format(domain.LocalLayout))
	params.Set("endDate", to.Format(domain.LocalLayout))
	if slotHours > 0 {
		params.Set("slotDurationHours", strconv.Itoa(slotHours))
	}
	var slots []domain.TimeSlot
	if _, err := c.doRequest(ctx, http.MethodGet, spacePath(id)+"/available-slots?"+params.Encode(), nil, &slots); err != nil {
		return nil, fmt.Errorf("client.AvailableSlots: %w", err)
	}
	return slots, nil
}

// --- Bookings ---

// MyBookings lists the caller's reservations.
func (c *Client) MyBookings(ctx context.Context) ([]domain.Booking, error) {
	var bookings []domain.Booking
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/bookings/my", nil, &bookings); err != nil {
		return nil, fmt.Errorf("client.MyBookings: %w", err)
	}
	return bookings, nil
}

// CreateBooking submits a reservation. A 4xx other than an auth failure or
// a missing space is reported as a ConflictError carrying the backend's
// message, since overlap is only detected server-side.
func (c *Client) CreateBooking(ctx context.Context, req CreateBookingRequest) (string, error) {
	msg, err := c.doRequest(ctx, http.MethodPost, "/api/bookings", req, nil)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && !IsAuth(err) && !IsConflict(err) &&
			httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 && httpErr.StatusCode != http.StatusNotFound {
			err = &ConflictError{HTTPError: httpErr}
		}
		return "", fmt.Errorf("client.CreateBooking: %w", err)
	}
	return msg, nil
}

// CancelBooking cancels a reservation by ID.
func (c *Client) CancelBooking(ctx context.Context, id int64) (string, error) {
	msg, err := c.doRequest(ctx, http.MethodDelete, "/api/bookings/"+strconv.FormatInt(id, 10), nil, nil)
	if err != nil {
		return "", fmt.Errorf("client.CancelBooking: %w", err)
	}
	return msg, nil
}

// --- Notifications ---

// Notifications lists the caller's notifications.
func (c *Client) Notifications(ctx context.Context) ([]domain.Notification, error) {
	var notes []domain.Notification
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/notifications", nil, &notes); err != nil {
		return nil, fmt.Errorf("client.Notifications: %w", err)
	}
	return notes, nil
}

// UnreadCount returns the number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var n int64
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/notifications/unread-count", nil, &n); err != nil {
		return 0, fmt.Errorf("client.UnreadCount: %w", err)
	}
	return n, nil
}

// MarkRead marks one notification as read.
func (c *Client) MarkRead(ctx context.Context, id int64) error {
	if _, err := c.doRequest(ctx, http.MethodPut, "/api/notifications/"+strconv.FormatInt(id, 10)+"/read", nil, nil); err != nil {
		return fmt.Errorf("client.MarkRead: %w", err)
	}
	return nil
}

// MarkAllRead marks every notification as read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	if _, err := c.doRequest(ctx, http.MethodPut, "/api/notifications/read-all", nil, nil); err != nil {
		return fmt.Errorf("client.MarkAllRead: %w", err)
	}
	return nil
}

func spacePath(id int64) string {
	return "/api/spaces/" + strconv.FormatInt(id, 10)
}

// doRequest sends one request and decodes the payload into out. It returns
// the backend's message when the response carries one.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) (string, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if tok := c.currentToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max body
	c.logger.Debug("request",
		"method", method, "path", path, "status", resp.StatusCode,
		"request_id", requestID, "duration", time.Since(start))
	if err != nil {
		return "", &NetworkError{Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode >= 400 {
		return "", classify(&HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)})
	}
	return decodeResponse(respBody, out)
}

// decodeResponse unwraps the optional {data, message} envelope and decodes
// the payload into out. A plain-text or JSON-string body is a message.
func decodeResponse(raw []byte, out any) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", nil
	}

	var msg string
	payload := raw
	switch raw[0] {
	case '{':
		var env map[string]json.RawMessage
		if err := json.Unmarshal(raw, &env); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if m, ok := env["message"]; ok {
			json.Unmarshal(m, &msg) //nolint:errcheck // non-string message is ignored
		}
		if d, ok := env["data"]; ok {
			payload = d
		} else if msg != "" && out == nil {
			return msg, nil
		}
	case '[':
	case '"':
		if err := json.Unmarshal(raw, &msg); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if out == nil {
			return msg, nil
		}
	default:
		if out == nil {
			return string(raw), nil
		}
	}

	if out == nil || bytes.Equal(payload, []byte("null")) {
		return msg, nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return msg, nil
}

// errorMessage extracts a human message from an error body: {message},
// then {error}, then the raw text.
func errorMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	var apiErr struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &apiErr) == nil {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if apiErr.Error != "" {
			return apiErr.Error
		}
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}
