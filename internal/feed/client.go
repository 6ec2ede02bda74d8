package feed

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
	"strings"
	"time"

	"github.com/matheuskafuri/devfeed/internal/article"
)

// ErrStatus is returned when the feed API answers with a non-2xx status.
var ErrStatus = errors.New("unexpected status from feed api")

// Query narrows an article listing. The zero value lists everything.
type Query struct {
	Search   string
	Tag      string
	Trending bool
}

func (q Query) IsZero() bool {
	return q.Search == "" && q.Tag == "" && !q.Trending
}

func (q Query) values() url.Values {
	v := url.Values{}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if q.Tag != "" {
		v.Set("tag", q.Tag)
	}
	if q.Trending {
		v.Set("trending", "true")
	}
	return v
}

// Client talks to the feed API: /api/feed, /api/vote and /api/stats.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Articles lists articles in the order the server ranks them.
func (c *Client) Articles(ctx context.Context, q Query) ([]article.Article, error) {
	var articles []article.Article
	if err := c.getJSON(ctx, "/api/feed", q.values(), &articles); err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range articles {
		a := &articles[i]
		a.Source = article.SourceAPI
		a.FetchedAt = now
		a.Title = cleanText(a.Title)
		a.Description = cleanText(a.Description)
		if a.Tags == nil {
			a.Tags = []string{}
		}
	}
	return articles, nil
}

type voteRequest struct {
	ID   article.ID       `json:"id"`
	Type article.VoteKind `json:"type"`
}

// Vote submits a vote. The server decides whether repeat votes count.
func (c *Client) Vote(ctx context.Context, id article.ID, kind article.VoteKind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown vote kind %q", kind)
	}
	body, err := json.Marshal(voteRequest{ID: id, Type: kind})
	if err != nil {
		return fmt.Errorf("encoding vote: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/vote", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) Stats(ctx context.Context) (article.Stats, error) {
	var s article.Stats
	if err := c.getJSON(ctx, "/api/stats", nil, &s); err != nil {
		return article.Stats{}, err
	}
	return s, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	c.logger.Debug("feed api request",
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %w %d", req.Method, req.URL.Path, ErrStatus, resp.StatusCode)
	}
	return resp, nil
}
