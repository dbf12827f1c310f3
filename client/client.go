package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rishimanjunath15/acquisitions/core"
)

var (
	// ErrPasswordMismatch is returned before any network I/O when the signup
	// confirmation does not match.
	ErrPasswordMismatch = errors.New("Passwords do not match")
	// ErrSubmissionInFlight is returned when a signup/signin attempt is started
	// while another one is still running.
	ErrSubmissionInFlight = errors.New("another attempt is already in progress")
	// ErrNotAuthenticated is returned by calls that require a session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// APIError is a structured error decoded from a non-2xx server response.
// Transport failures stay ordinary errors.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details []string
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(e.Details, "; "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Client drives the signup/signin protocol against the API and keeps the
// session store in sync with outcomes. One attempt runs at a time; a stale
// completion (finishing after a later SignOut or attempt) never touches the
// session.
type Client struct {
	baseURL string
	http    *http.Client
	session *SessionStore

	mu       sync.Mutex
	inFlight bool
	gen      uint64
}

// New builds a Client for baseURL using the given session store.
func New(baseURL string, session *SessionStore) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		session: session,
	}
}

// Session exposes the underlying store for callers that render auth state.
func (c *Client) Session() *SessionStore { return c.session }

// SignUp submits a new account. The confirmation check happens locally: on
// mismatch no request is issued. On success the session holds the new token
// and user.
func (c *Client) SignUp(ctx context.Context, name, email, password, confirmPassword string) (*core.User, error) {
	if password != confirmPassword {
		return nil, ErrPasswordMismatch
	}

	gen, err := c.begin()
	if err != nil {
		return nil, err
	}
	defer c.end()

	payload := map[string]string{
		"name":            name,
		"email":           email,
		"password":        password,
		"confirmPassword": confirmPassword,
	}
	resp, err := c.postAuth(ctx, "/api/auth/signup", payload)
	if err != nil {
		return nil, err
	}
	return c.applyAuth(gen, resp)
}

// SignIn authenticates with existing credentials. If a session is already
// present it short-circuits and returns the cached user without contacting
// the server.
func (c *Client) SignIn(ctx context.Context, email, password string) (*core.User, error) {
	if c.session.IsAuthenticated() {
		return c.session.User(), nil
	}

	gen, err := c.begin()
	if err != nil {
		return nil, err
	}
	defer c.end()

	payload := map[string]string{"email": email, "password": password}
	resp, err := c.postAuth(ctx, "/api/auth/signin", payload)
	if err != nil {
		return nil, err
	}
	return c.applyAuth(gen, resp)
}

// Me fetches the identity behind the current session. A 401 from the server
// clears the cached session.
func (c *Client) Me(ctx context.Context) (*core.User, error) {
	if !c.session.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	gen := c.currentGen()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/users/me", nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.session.AuthHeaders() {
		req.Header.Set(k, v)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized {
		if c.stillCurrent(gen) {
			c.session.ClearAuth()
		}
		return nil, decodeAPIError(res)
	}
	if res.StatusCode != http.StatusOK {
		return nil, decodeAPIError(res)
	}

	var body struct {
		User core.User `json:"user"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &body.User, nil
}

// SignOut drops the session. The server keeps no state for bearer tokens, so
// nothing is revoked remotely; any response still in flight becomes stale.
func (c *Client) SignOut() {
	c.mu.Lock()
	c.gen++
	c.mu.Unlock()
	c.session.ClearAuth()
}

type authResponse struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

// begin marks an attempt as in flight and returns its generation. Parallel
// attempts are rejected rather than queued.
func (c *Client) begin() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return 0, ErrSubmissionInFlight
	}
	c.inFlight = true
	c.gen++
	return c.gen, nil
}

func (c *Client) end() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

func (c *Client) currentGen() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *Client) stillCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen
}

// applyAuth commits a successful auth response to the session, unless the
// attempt has been superseded while the response was in flight.
func (c *Client) applyAuth(gen uint64, resp *authResponse) (*core.User, error) {
	if !c.stillCurrent(gen) {
		return &resp.User, nil
	}
	if err := c.session.SetAuth(resp.Token, resp.User); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) postAuth(ctx context.Context, path string, payload any) (*authResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return nil, decodeAPIError(res)
	}

	var auth authResponse
	if err := json.NewDecoder(res.Body).Decode(&auth); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if auth.Token == "" || auth.User.ID == "" {
		return nil, errors.New("server response missing token or user")
	}
	return &auth, nil
}

// decodeAPIError turns the server's {"error":{...}} payload into an *APIError,
// falling back to the bare status when the body is not in that shape.
func decodeAPIError(res *http.Response) error {
	var body struct {
		Error struct {
			Code    string   `json:"code"`
			Message string   `json:"message"`
			Details []string `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil || body.Error.Code == "" {
		return &APIError{Status: res.StatusCode, Code: "HTTP_ERROR", Message: res.Status}
	}
	return &APIError{
		Status:  res.StatusCode,
		Code:    body.Error.Code,
		Message: body.Error.Message,
		Details: body.Error.Details,
	}
}
