// Package kernel implements a client for the upstream kernel repository:
// the paginated changes feed and the per-document front-matter endpoint.
package kernel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/scieloorg/oaipmh/internal/domain"
	"github.com/scieloorg/oaipmh/pkg/retry"
)

// DefaultTimeout bounds each HTTP call to the upstream. Retries compose on
// top of it under the client's retry policy.
const DefaultTimeout = 2 * time.Second

// Client talks to a kernel instance rooted at a base URL.
type Client struct {
	host       string
	httpClient *http.Client
	policy     retry.Policy
}

// NewClient creates a kernel client for the given base URL.
func NewClient(host string, opts ...Option) *Client {
	c := &Client{
		host:       strings.TrimRight(host, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		policy:     retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option configures the kernel client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }
func WithRetryPolicy(p retry.Policy) Option { return func(c *Client) { c.policy = p } }
func WithTimeout(d time.Duration) Option    { return func(c *Client) { c.httpClient.Timeout = d } }

// Changes returns an iterator over all changelog entries newer than since.
// Pages are fetched lazily; after a page is drained the next request uses
// the timestamp of the last yielded entry as its cursor. An empty page
// terminates the stream.
func (c *Client) Changes(since string) domain.Changelog {
	return &ChangeIterator{client: c, since: since}
}

// ChangeIterator implements domain.Changelog over the /changes endpoint.
type ChangeIterator struct {
	client *Client
	since  string
	buf    []domain.ChangelogEntry
	pos    int
	done   bool
}

type changesPage struct {
	Results []domain.ChangelogEntry `json:"results"`
}

// Next yields the next changelog entry, fetching a new page when the
// current one is drained. ok is false once the upstream returns an empty
// page.
func (it *ChangeIterator) Next(ctx context.Context) (domain.ChangelogEntry, bool, error) {
	for it.pos >= len(it.buf) {
		if it.done {
			return domain.ChangelogEntry{}, false, nil
		}

		u := fmt.Sprintf("%s/changes?since=%s", it.client.host, url.QueryEscape(it.since))
		var page changesPage
		if err := it.client.getJSON(ctx, u, &page); err != nil {
			return domain.ChangelogEntry{}, false, fmt.Errorf("fetch changes since %q: %w", it.since, err)
		}
		if len(page.Results) == 0 {
			it.done = true
			return domain.ChangelogEntry{}, false, nil
		}
		it.buf = page.Results
		it.pos = 0
		it.since = page.Results[len(page.Results)-1].Timestamp
	}

	entry := it.buf[it.pos]
	it.pos++
	return entry, true, nil
}

// DocMetadata fetches the front matter of the document at docURL and maps
// it to the mirror record shape.
func (c *Client) DocMetadata(ctx context.Context, docURL string) (*domain.Record, error) {
	resolved, err := c.resolveURL(docURL)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := c.getJSON(ctx, resolved+"/front", &raw); err != nil {
		return nil, fmt.Errorf("fetch front of %q: %w", docURL, err)
	}

	rec, err := extractRecord(resolved, raw, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("extract metadata of %q: %w", docURL, err)
	}
	return rec, nil
}

// resolveURL treats the client host as base: urls already under the host
// are kept as-is, anything else is joined onto it.
func (c *Client) resolveURL(docURL string) (string, error) {
	resolved := docURL
	if !strings.HasPrefix(docURL, c.host) {
		resolved = c.host + "/" + strings.TrimLeft(docURL, "/")
	}
	u, err := url.Parse(resolved)
	if err != nil {
		return "", fmt.Errorf("invalid document url %q: %w", docURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid scheme %q in %q", u.Scheme, docURL)
	}
	return resolved, nil
}

// getJSON performs a GET under the retry policy. Transport failures and
// 5xx responses are retried; 4xx responses and undecodable payloads are
// terminal.
func (c *Client) getJSON(ctx context.Context, u string, out interface{}) error {
	return c.policy.Do(ctx, func() error {
		log.WithField("url", u).Debug("kernel: GET")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("User-Agent", "scielo-oaipmh/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Timeouts and connection failures are worth retrying.
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(body, out); err != nil {
				return retry.Permanent(fmt.Errorf("decode response of %q: %w", u, err))
			}
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("HTTP %d from %q", resp.StatusCode, u)
		default:
			return retry.Permanent(fmt.Errorf("HTTP %d from %q", resp.StatusCode, u))
		}
	})
}
