package gsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// Client runs programmable-search queries.
type Client interface {
	Search(ctx context.Context, query string, opts SearchOptions) (*Results, error)
}

// SearchOptions controls one query.
type SearchOptions struct {
	// Num is the number of results to return, capped at 10 by the API.
	Num int
	// DateRestrict limits result age, e.g. "d7" for the last seven days.
	DateRestrict string
	// Start is the 1-based index of the first result for pagination.
	Start int
}

// Result is a single search hit.
type Result struct {
	Title   string   `json:"title"`
	Link    string   `json:"link"`
	Snippet string   `json:"snippet"`
	Pagemap *Pagemap `json:"pagemap,omitempty"`
}

// Pagemap carries the structured page metadata the API extracts from the
// result page, when the page declares any.
type Pagemap struct {
	Metatags []map[string]string `json:"metatags"`
}

// publishedKeys are the metatag names checked for a publication timestamp,
// in preference order.
var publishedKeys = []string{
	"article:published_time",
	"og:published_time",
	"article:modified_time",
	"date",
}

var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// PublishedAt extracts the publication time from the result's pagemap
// metatags. It returns the zero time when the page does not declare one in a
// recognisable format.
func (r Result) PublishedAt() time.Time {
	if r.Pagemap == nil {
		return time.Time{}
	}
	for _, tags := range r.Pagemap.Metatags {
		for _, key := range publishedKeys {
			v := tags[key]
			if v == "" {
				continue
			}
			for _, layout := range publishedLayouts {
				if t, err := time.Parse(layout, v); err == nil {
					return t.UTC()
				}
			}
		}
	}
	return time.Time{}
}

// Results is the parsed response for one query.
type Results struct {
	Items        []Result
	TotalResults int64
}

type searchEnvelope struct {
	Items             []Result `json:"items"`
	SearchInformation struct {
		TotalResults string `json:"totalResults"`
	} `json:"searchInformation"`
}

// APIError is a non-2xx response. Callers inspect StatusCode to decide
// whether the failure is retryable.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gsearch: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey   string
	engineID string
	baseURL  string
	http     *http.Client
}

// NewClient creates a programmable-search client bound to one engine.
func NewClient(apiKey, engineID string, opts ...Option) Client {
	c := &httpClient{
		apiKey:   apiKey,
		engineID: engineID,
		baseURL:  defaultBaseURL,
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

func (c *httpClient) Search(ctx context.Context, query string, opts SearchOptions) (*Results, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("cx", c.engineID)
	q.Set("q", query)

	num := opts.Num
	if num <= 0 || num > 10 {
		num = 10
	}
	q.Set("num", strconv.Itoa(num))
	if opts.DateRestrict != "" {
		q.Set("dateRestrict", opts.DateRestrict)
	}
	if opts.Start > 0 {
		q.Set("start", strconv.Itoa(opts.Start))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "gsearch: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "gsearch: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "gsearch: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var envelope searchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, eris.Wrap(err, "gsearch: unmarshal response")
	}

	results := &Results{Items: envelope.Items}
	if envelope.SearchInformation.TotalResults != "" {
		if n, err := strconv.ParseInt(envelope.SearchInformation.TotalResults, 10, 64); err == nil {
			results.TotalResults = n
		}
	}
	return results, nil
}
