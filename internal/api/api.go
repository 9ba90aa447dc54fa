package api

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
	"time"

	"codeberg.org/afewwords/companion/internal/metrics"
	"golang.org/x/time/rate"
)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) { c.limiter = limiter }
}

func WithRecorder(recorder metrics.Recorder) Option {
	return func(c *Client) { c.recorder = recorder }
}

// creates a new API client for the backend at baseURL
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
		tokens:   tokens,
		limiter:  rate.NewLimiter(rate.Limit(defaultRateLimit), defaultRateBurst),
		recorder: metrics.Nop{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// sets the hook run on every 401, typically session logout
func (c *Client) OnUnauthorized(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// fetches one page of words, newest first
func (c *Client) ListWords(ctx context.Context, offset, size int) ([]WordEntry, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("size", strconv.Itoa(size))

	var words []WordEntry
	if err := c.do(ctx, "list_words", http.MethodGet, "/api/v1/words?"+query.Encode(), nil, &words); err != nil {
		return nil, err
	}

	return words, nil
}

// validates and stores a new word; returns the created entry
func (c *Client) CreateWord(ctx context.Context, entry WordEntry) (*WordEntry, error) {
	if err := ValidateWord(entry); err != nil {
		return nil, &Error{Kind: KindInvalid, Op: "create_word", Message: err.Error(), Err: err}
	}

	payload := WordEntry{
		Word:       entry.Word,
		Definition: entry.Definition,
		URL:        entry.URL,
	}

	var created WordEntry
	if err := c.do(ctx, "create_word", http.MethodPost, "/api/v1/words", payload, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// deletes a word by id
func (c *Client) DeleteWord(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_word", http.MethodDelete, fmt.Sprintf("/api/v1/words/%d", id), nil, nil)
}

// translates text through the backend
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	query := url.Values{}
	query.Set("text", text)

	var result translateResponse
	if err := c.do(ctx, "translate", http.MethodGet, "/api/v1/translate?"+query.Encode(), nil, &result); err != nil {
		return "", err
	}

	return result.Text, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(KindOf(err))
		}
		c.recorder.RecordAPICall(op, outcome, time.Since(start))
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindInvalid, Op: op, Err: fmt.Errorf("failed to marshal request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindInvalid, Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.unauthorized(ctx)
		return &Error{Kind: KindUnauthorized, Op: op, StatusCode: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Kind: KindStatus, Op: op, StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{Kind: KindDecode, Op: op, Err: err}
	}

	return nil
}

func (c *Client) unauthorized(ctx context.Context) {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()

	if fn != nil {
		fn(ctx)
	}
}
