// Package client is a small HTTP client for the folio API used by the CLI
// commands that talk to a running server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/papercomputeco/folio/api"
	apisearch "github.com/papercomputeco/folio/api/search"
	"github.com/papercomputeco/folio/pkg/storage"
)

// Client calls a folio API server as a single caller identity.
type Client struct {
	target string
	caller string
	http   *http.Client
}

// New returns a Client for the server at target. A nil httpClient uses
// http.DefaultClient.
func New(target, caller string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API target URL: %q", target)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		target: strings.TrimRight(target, "/"),
		caller: caller,
		http:   httpClient,
	}, nil
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("folio API request failed (HTTP %d): %s", e.Status, e.Message)
}

// SearchOptions narrows a search.
type SearchOptions struct {
	Tags   []string
	Enrich bool
	Limit  int
}

// Search runs a semantic search over a wiki.
func (c *Client) Search(ctx context.Context, wikiID, query string, opts SearchOptions) ([]apisearch.SearchResult, error) {
	q := url.Values{}
	q.Set("query", query)
	if len(opts.Tags) > 0 {
		q.Set("tags", strings.Join(opts.Tags, ","))
	}
	if opts.Enrich {
		q.Set("enrich_mode", "1")
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	var out api.SearchResponse
	if err := c.do(ctx, http.MethodGet, "/v1/wikis/"+url.PathEscape(wikiID)+"/search?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

// GetPage fetches a page of a wiki.
func (c *Client) GetPage(ctx context.Context, wikiID, pageID string) (*storage.Document, error) {
	var doc storage.Document
	path := "/v1/wikis/" + url.PathEscape(wikiID) + "/pages/" + url.PathEscape(pageID)
	if err := c.do(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListPages lists the pages of a wiki.
func (c *Client) ListPages(ctx context.Context, wikiID string) ([]*storage.Document, error) {
	var out struct {
		Pages []*storage.Document `json:"pages"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/wikis/"+url.PathEscape(wikiID)+"/pages", nil, &out); err != nil {
		return nil, err
	}
	return out.Pages, nil
}

// CreateWiki creates a wiki with the client's caller as its first member.
func (c *Client) CreateWiki(ctx context.Context, title string) (*storage.Wiki, error) {
	var wiki storage.Wiki
	if err := c.do(ctx, http.MethodPost, "/v1/wikis", api.CreateWikiRequest{Title: title}, &wiki); err != nil {
		return nil, err
	}
	return &wiki, nil
}

// CreateTag creates a tag. A nil color takes the server default.
func (c *Client) CreateTag(ctx context.Context, name string, color *storage.Color) (*storage.Tag, error) {
	var tag storage.Tag
	if err := c.do(ctx, http.MethodPost, "/v1/tags", api.CreateTagRequest{Name: name, Color: color}, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// ListTags lists every tag by name.
func (c *Client) ListTags(ctx context.Context) ([]*storage.Tag, error) {
	var tags []*storage.Tag
	if err := c.do(ctx, http.MethodGet, "/v1/tags", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.target+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.caller != "" {
		req.Header.Set(api.CallerHeader, c.caller)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to folio API at %s: %w", c.target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure struct {
			Error *string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &failure) == nil && failure.Error != nil {
			msg = *failure.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
