package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultAuthURL = "https://www.reddit.com"
	defaultAPIURL  = "https://oauth.reddit.com"
)

// Client reads subreddit listings through the OAuth API.
type Client interface {
	Posts(ctx context.Context, subreddit string, sort Sort, opts ListOptions) (*Listing, error)
}

// Sort selects which listing endpoint a request reads.
type Sort string

const (
	SortNew    Sort = "new"
	SortHot    Sort = "hot"
	SortTop    Sort = "top"
	SortRising Sort = "rising"
)

// ListOptions controls a single listing page request.
type ListOptions struct {
	// Limit is the page size, capped at 100 by the API.
	Limit int
	// After is the fullname cursor of the previous page's last item.
	After string
	// Timeframe bounds "top" listings, e.g. "day" or "week". The other
	// listings ignore it.
	Timeframe string
}

// Post is one submission as returned by the listing endpoint.
type Post struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Permalink   string  `json:"permalink"`
	URL         string  `json:"url"`
	CreatedUTC  float64 `json:"created_utc"`
	Ups         int     `json:"ups"`
	NumComments int     `json:"num_comments"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	Stickied    bool    `json:"stickied"`
	Over18      bool    `json:"over_18"`
}

// CreatedAt converts the API's epoch float to UTC time.
func (p Post) CreatedAt() time.Time {
	return time.Unix(int64(p.CreatedUTC), 0).UTC()
}

// Listing is one page of posts plus the cursor for the next page.
type Listing struct {
	Posts []Post
	After string
}

type listingEnvelope struct {
	Data struct {
		Children []struct {
			Data Post `json:"data"`
		} `json:"children"`
		After string `json:"after"`
	} `json:"data"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// APIError is a non-2xx response. Callers inspect StatusCode to decide
// whether the failure is retryable.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("reddit: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithAuthURL overrides the token endpoint base URL.
func WithAuthURL(u string) Option {
	return func(c *httpClient) {
		c.authURL = u
	}
}

// WithAPIURL overrides the API base URL.
func WithAPIURL(u string) Option {
	return func(c *httpClient) {
		c.apiURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	clientID     string
	clientSecret string
	userAgent    string
	authURL      string
	apiURL       string
	http         *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a Reddit API client using the application-only OAuth
// flow. The user agent is required by the API's rules.
func NewClient(clientID, clientSecret, userAgent string, opts ...Option) Client {
	c := &httpClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		authURL:      defaultAuthURL,
		apiURL:       defaultAPIURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Posts reads one page of the subreddit listing selected by sort.
func (c *httpClient) Posts(ctx context.Context, subreddit string, sort Sort, opts ListOptions) (*Listing, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	if sort == "" {
		sort = SortNew
	}

	q := url.Values{}
	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("raw_json", "1")
	if opts.After != "" {
		q.Set("after", opts.After)
	}
	if sort == SortTop && opts.Timeframe != "" {
		q.Set("t", opts.Timeframe)
	}

	endpoint := fmt.Sprintf("%s/r/%s/%s.json?%s", c.apiURL, url.PathEscape(subreddit), sort, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "reddit: create request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "reddit: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "reddit: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var envelope listingEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, eris.Wrap(err, "reddit: unmarshal listing")
	}

	listing := &Listing{After: envelope.Data.After}
	for _, child := range envelope.Data.Children {
		listing.Posts = append(listing.Posts, child.Data)
	}
	return listing, nil
}

// accessToken returns a cached application-only token, fetching a fresh one
// when the cached token is within a minute of expiry.
func (c *httpClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.authURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", eris.Wrap(err, "reddit: create token request")
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "reddit: send token request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "reddit: read token response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", eris.Wrap(err, "reddit: unmarshal token response")
	}
	if token.AccessToken == "" {
		return "", eris.New("reddit: empty access token")
	}

	c.token = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return c.token, nil
}
