// Package patreon provides a client for the Patreon OAuth2 API (v1), the
// JSON:API document model it returns, and cursor extraction for paginated
// pledge listings.
package patreon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the API namespace every request is resolved against.
	DefaultBaseURL = "https://www.patreon.com/api/oauth2/api/"

	// DefaultTimeout bounds a single HTTP round trip.
	DefaultTimeout = 30 * time.Second

	// DefaultPageSize is the number of pledges requested per page.
	DefaultPageSize = 25

	// Version is reported in the default User-Agent.
	Version = "0.1.0"
)

// Logical endpoint names used in logs and metric labels.
const (
	endpointCurrentUser = "current_user"
	endpointCampaigns   = "campaigns"
	endpointPledges     = "pledges"
)

// Relationship names of a campaign.
const (
	RelationshipRewards = "rewards"
	RelationshipCreator = "creator"
	RelationshipGoals   = "goals"
	RelationshipPledges = "pledges"
)

// DefaultCampaignIncludes are the relationships the API includes with a
// campaign when none are requested.
var DefaultCampaignIncludes = []string{
	RelationshipRewards,
	RelationshipCreator,
	RelationshipGoals,
}

// Client talks to the Patreon API.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Creator access token sent as a bearer token.
	AccessToken string

	// BaseURL of the API namespace (default DefaultBaseURL).
	BaseURL string

	// User-Agent header
	UserAgent string

	// Timeout per request, ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient overrides the default client (for testing).
	HTTPClient *http.Client
}

// DefaultUserAgent identifies this library, its version and the platform.
func DefaultUserAgent() string {
	return fmt.Sprintf("patreon-roster/%s (%s; %s/%s)", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// DefaultConfig returns a configuration for the public API.
func DefaultConfig(accessToken string) Config {
	return Config{
		AccessToken: accessToken,
		BaseURL:     DefaultBaseURL,
		UserAgent:   DefaultUserAgent(),
		Timeout:     DefaultTimeout,
	}
}

// New creates a new Patreon client.
func New(cfg Config) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
		}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		config:     cfg,
		logger:     log.With().Str("component", "patreon-client").Logger(),
	}, nil
}

// FetchUser returns the user owning the access token.
func (c *Client) FetchUser(ctx context.Context, includes []string, fields map[string][]string) (*Document, error) {
	return c.getDocument(ctx, endpointCurrentUser, BuildURL("current_user", includes, fields))
}

// FetchCampaign returns the campaigns of the current user.
func (c *Client) FetchCampaign(ctx context.Context, includes []string, fields map[string][]string) (*Document, error) {
	return c.getDocument(ctx, endpointCampaigns, BuildURL("current_user/campaigns", includes, fields))
}

// FetchCampaignAndPatrons returns the campaigns of the current user with their
// pledges included. includes defaults to DefaultCampaignIncludes plus pledges.
func (c *Client) FetchCampaignAndPatrons(ctx context.Context, includes []string, fields map[string][]string) (*Document, error) {
	if len(includes) == 0 {
		includes = append(append([]string{}, DefaultCampaignIncludes...), RelationshipPledges)
	}
	return c.FetchCampaign(ctx, includes, fields)
}

// PledgePageRequest selects one page of a campaign's pledges.
type PledgePageRequest struct {
	CampaignID string
	PageSize   int

	// Cursor is an opaque cursor taken from a previous page.
	Cursor string

	// CursorTime starts the page at a point in time and wins over Cursor.
	CursorTime time.Time

	Includes []string
	Fields   map[string][]string
}

// cursor returns the page[cursor] value, with timestamps normalized to UTC.
func (r PledgePageRequest) cursor() string {
	if !r.CursorTime.IsZero() {
		return r.CursorTime.UTC().Format(time.RFC3339Nano)
	}
	return r.Cursor
}

// FetchPageOfPledges returns one page of pledges for a campaign.
func (c *Client) FetchPageOfPledges(ctx context.Context, req PledgePageRequest) (*Document, error) {
	if req.CampaignID == "" {
		return nil, ErrMissingCampaignID
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	params := url.Values{}
	params.Set("page[count]", strconv.Itoa(pageSize))
	if cursor := req.cursor(); cursor != "" {
		params.Set(cursorParam, cursor)
	}

	path := fmt.Sprintf("campaigns/%s/pledges?%s", url.PathEscape(req.CampaignID), params.Encode())
	return c.getDocument(ctx, endpointPledges, BuildURL(path, req.Includes, req.Fields))
}

// getDocument performs a GET and decodes the body. Error payloads come back
// as *APIError.
func (c *Client) getDocument(ctx context.Context, endpoint, suffix string) (*Document, error) {
	status, body, err := c.get(ctx, endpoint, suffix)
	if err != nil {
		return nil, err
	}

	if err := checkResponse(endpoint, status, body); err != nil {
		patreonErrorsTotal.WithLabelValues(endpoint, "api").Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", status).
			Err(err).
			Msg("Patreon returned an error payload")
		return nil, err
	}

	doc, err := ParseDocument(body)
	if err != nil {
		patreonErrorsTotal.WithLabelValues(endpoint, "decode").Inc()
		return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	return doc, nil
}

// get executes an authenticated GET against the API namespace and returns the
// status code and full body.
func (c *Client) get(ctx context.Context, endpoint, suffix string) (int, []byte, error) {
	target, err := c.baseURL.Parse(suffix)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s url: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("path", target.Path).
		Msg("Executing Patreon request")

	startTime := time.Now()
	defer func() {
		patreonRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		patreonRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		patreonErrorsTotal.WithLabelValues(endpoint, "network").Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return 0, nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	patreonRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		patreonErrorsTotal.WithLabelValues(endpoint, "network").Inc()
		return resp.StatusCode, nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	return resp.StatusCode, body, nil
}

// IsAPIError reports whether err carries an error payload from the API.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
