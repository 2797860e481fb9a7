// Package everhour is a minimal client for the Everhour time tracking API.
package everhour

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/xolan/evertrack/internal/entry"
	"github.com/xolan/evertrack/internal/logging"
)

const (
	DefaultBaseURL     = "https://api.everhour.com"
	DefaultMaxAttempts = 3
	DefaultBackoff     = 500 * time.Millisecond
	DefaultTimeout     = 15 * time.Second
	DefaultMaxBodySize = 16 << 20

	AuthAPIKey = "api-key"
	AuthBearer = "bearer"

	dateLayout = "2006-01-02"
)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL     string
	Token       string
	AuthScheme  string
	HTTPClient  *http.Client
	Logger      logging.Logger
	MaxAttempts int
	Backoff     time.Duration
	MaxBodySize int64
}

// Client talks to the Everhour REST API.
type Client struct {
	baseURL     string
	token       string
	scheme      string
	http        *http.Client
	log         logging.Logger
	maxAttempts int
	backoff     time.Duration
	maxBody     int64
}

// User is the subset of /users/me that evertrack reads.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewClient builds a client. With the bearer scheme the token is attached
// by an oauth2 transport; otherwise it is sent as X-Api-Key.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		token:       opts.Token,
		scheme:      strings.ToLower(opts.AuthScheme),
		log:         opts.Logger,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		maxBody:     opts.MaxBodySize,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.scheme == "" {
		c.scheme = AuthAPIKey
	}
	if c.log == nil {
		c.log = logging.Nop()
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.backoff <= 0 {
		c.backoff = DefaultBackoff
	}
	if c.maxBody <= 0 {
		c.maxBody = DefaultMaxBodySize
	}

	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: DefaultTimeout}
	}
	c.http = base
	if c.scheme == AuthBearer && c.token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token, TokenType: "Bearer"})
		c.http = &http.Client{
			Timeout:       base.Timeout,
			CheckRedirect: base.CheckRedirect,
			Jar:           base.Jar,
			Transport:     &oauth2.Transport{Source: src, Base: base.Transport},
		}
	}
	return c
}

// FetchTimeEntries returns the current user's time records dated from..to,
// both days inclusive.
func (c *Client) FetchTimeEntries(ctx context.Context, from, to time.Time) ([]entry.TimeEntry, error) {
	q := url.Values{}
	q.Set("from", from.Format(dateLayout))
	q.Set("to", to.Format(dateLayout))

	body, err := c.get(ctx, "/users/me/time", q)
	if err != nil {
		return nil, err
	}

	entries, ok, err := entry.DecodeEntries(body)
	if err != nil {
		return nil, err
	}
	if !ok {
		c.log.Warnf("time entries response is not a list, counting zero entries")
	}
	c.log.Debugf("fetched %d time entries for %s..%s", len(entries), q.Get("from"), q.Get("to"))
	return entries, nil
}

// CurrentUser returns the user the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	body, err := c.get(ctx, "/users/me", nil)
	if err != nil {
		return User{}, err
	}
	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return User{}, fmt.Errorf("failed to decode user: %w", err)
	}
	if u.ID == 0 {
		return User{}, errors.New("user ID not found in response")
	}
	return u, nil
}

// get performs a GET with retries on 429, 5xx and transport failures.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			wait := c.backoff << (attempt - 2)
			c.log.Infof("retrying GET %s in %s (attempt %d/%d): %v", path, wait, attempt, c.maxAttempts, lastErr)
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		body, err := c.do(ctx, endpoint, path, attempt)
		if err == nil {
			return body, nil
		}
		if !retryable(ctx, err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) do(ctx context.Context, endpoint, path string, attempt int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.scheme != AuthBearer {
		req.Header.Set("X-Api-Key", c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("everhour request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("GET %s: %w (limit %d bytes)", path, ErrResponseTooLarge, c.maxBody)
	}
	c.log.Debugf("GET %s -> %d in %s (attempt %d)", path, resp.StatusCode, time.Since(start).Round(time.Millisecond), attempt)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, body)
	}
	return body, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return !errors.Is(err, ErrUnauthorized) && !errors.Is(err, ErrForbidden) && !errors.Is(err, ErrResponseTooLarge)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
