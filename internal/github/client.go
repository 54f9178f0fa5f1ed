package github

import (
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
	"time"

	"golang.org/x/time/rate"

	"issuegrid/internal/config"
	"issuegrid/internal/logging"
	"issuegrid/internal/services"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultPerPage = 100
	acceptHeader   = "application/vnd.github+json"
	apiVersion     = "2022-11-28"
	maxErrorBody   = 4 << 10
)

// Client provides access to the GitHub issues API.
type Client struct {
	baseURL     string
	token       string
	userAgent   string
	perPage     int
	maxPages    int
	concurrency int
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithToken sets the token sent as "Authorization: token ...".
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent = strings.TrimSpace(userAgent); userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithPaging sets the page size and the maximum number of pages followed per
// listing. Non-positive values keep the defaults.
func WithPaging(perPage, maxPages int) Option {
	return func(c *Client) {
		if perPage > 0 {
			c.perPage = min(perPage, defaultPerPage)
		}
		if maxPages > 0 {
			c.maxPages = maxPages
		}
	}
}

// WithRateLimit throttles requests to rps with the given burst. rps <= 0
// disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithConcurrency bounds the parallel comment fetches of IssuesWithComments.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "github")
	}
}

// New creates a client with defaults suitable for api.github.com.
func New(opts ...Option) *Client {
	client := &Client{
		baseURL:     defaultBaseURL,
		userAgent:   "issuegrid",
		perPage:     defaultPerPage,
		maxPages:    10,
		concurrency: 4,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// NewFromConfig builds a client from the [github] configuration section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) *Client {
	gh := cfg.GitHub
	base := []Option{
		WithBaseURL(gh.APIURL),
		WithToken(gh.Token),
		WithUserAgent(gh.UserAgent),
		WithPaging(gh.PerPage, gh.MaxPages),
		WithRateLimit(gh.RequestsPerSecond, gh.Burst),
		WithConcurrency(gh.Concurrency),
		WithLogger(logger),
	}
	if gh.TimeoutSeconds > 0 {
		base = append(base, WithHTTPClient(&http.Client{Timeout: time.Duration(gh.TimeoutSeconds) * time.Second}))
	}
	return New(append(base, opts...)...)
}

// Authenticated reports whether a token is configured.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// get fetches one resource into out and returns the next-page URL, if any.
// target is either a path relative to the base URL or an absolute URL taken
// from a Link header.
func (c *Client) get(ctx context.Context, target string, params url.Values, out any) (string, error) {
	endpoint, err := c.resolve(target, params)
	if err != nil {
		return "", err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("github rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "github", "GET "+endpoint.Path, "request timed out", err)
		}
		return "", services.Wrap(services.ErrTransient, "github", "GET "+endpoint.Path,
			fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	c.logger.Debug("github request",
		logging.String("path", endpoint.Path),
		logging.String("query", endpoint.RawQuery),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency),
		logging.String("rate_remaining", resp.Header.Get("X-RateLimit-Remaining")),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", classify(resp, http.MethodGet, endpoint.Path, errorMessage(resp.Body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return "", services.Wrap(services.ErrExternalAPI, "github", "GET "+endpoint.Path, "decode response", err)
	}
	return nextLink(resp.Header.Get("Link")), nil
}

func (c *Client) resolve(target string, params url.Values) (*url.URL, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		endpoint, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("parse github url: %w", err)
		}
		// The token is only ever sent to the configured API origin.
		if !c.sameOrigin(endpoint) {
			return nil, services.Wrap(services.ErrExternalAPI, "github", "GET "+endpoint.Path,
				fmt.Sprintf("refusing pagination link to %s://%s outside %s", endpoint.Scheme, endpoint.Host, c.baseURL), nil)
		}
		return endpoint, nil
	}
	endpoint, err := url.Parse(c.baseURL + target)
	if err != nil {
		return nil, fmt.Errorf("parse github url: %w", err)
	}
	if len(params) > 0 {
		endpoint.RawQuery = params.Encode()
	}
	return endpoint, nil
}

func (c *Client) sameOrigin(endpoint *url.URL) bool {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(base.Scheme, endpoint.Scheme) && strings.EqualFold(base.Host, endpoint.Host)
}

// errorMessage extracts GitHub's {"message": ...} field, falling back to the
// raw body.
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(data))
}

// nextLink returns the rel="next" target of an RFC 8288 Link header.
func nextLink(header string) string {
	for part := range strings.SplitSeq(header, ",") {
		target, params, ok := strings.Cut(strings.TrimSpace(part), ";")
		if !ok {
			continue
		}
		target = strings.TrimSpace(target)
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for param := range strings.SplitSeq(params, ";") {
			key, value, _ := strings.Cut(strings.TrimSpace(param), "=")
			if strings.TrimSpace(key) == "rel" && strings.Trim(strings.TrimSpace(value), `"`) == "next" {
				return target[1 : len(target)-1]
			}
		}
	}
	return ""
}

func rateLimitReset(header http.Header) time.Time {
	if value := header.Get("X-RateLimit-Reset"); value != "" {
		if epoch, err := strconv.ParseInt(value, 10, 64); err == nil && epoch > 0 {
			return time.Unix(epoch, 0)
		}
	}
	if value := header.Get("Retry-After"); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
			return time.Now().Add(time.Duration(seconds) * time.Second)
		}
	}
	return time.Time{}
}
