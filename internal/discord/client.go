// internal/discord/client.go
//
// Minimal Discord channel-message client.
// Responsibilities:
//   - Paginate GET /channels/{id}/messages with limit/before cursors.
//   - Stop on empty page, message cap, or a date limit (collection runs
//     most-recent-first, so pages older than the limit end the walk).
//   - Client-side rate limiting plus Retry-After handling on 429.
//
// Only the fields the parser needs are decoded; everything else in the
// message object passes through untouched.

package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://discord.com/api/v9"

// Message is one channel message, trimmed to what the record builder uses.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    string    `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// wire shape of the Discord message object.
type apiMessage struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Author  struct {
		Username string `json:"username"`
	} `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

// Client talks to the Discord REST API with a user/bot authorization token.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (tests point it at httptest).
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// NewClient builds a Client for the given authorization token.
// Requests are limited to a couple per second; Discord's own limits are
// stricter than we ever hit at that pace.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: defaultBaseURL,
		token:   token,
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchOptions bounds a channel walk.
type FetchOptions struct {
	PageLimit   int       // messages per API request (1..100, default 50)
	MaxMessages int       // overall cap (default 5000)
	Since       time.Time // stop once a page ends before this instant (zero = no limit)
}

func (o *FetchOptions) defaults() {
	if o.PageLimit <= 0 || o.PageLimit > 100 {
		o.PageLimit = 50
	}
	if o.MaxMessages <= 0 {
		o.MaxMessages = 5000
	}
}

// ChannelMessages walks a channel newest-first and returns its messages.
//
// Mirrors the channel scrape the tracker has always done: fetch a page,
// remember the oldest message id, pass it as the next "before" cursor.
// Because pages arrive in chunks, a few messages older than Since can still
// be included; callers dedupe on message id anyway.
func (c *Client) ChannelMessages(ctx context.Context, channelID string, opts FetchOptions) ([]Message, error) {
	opts.defaults()

	var (
		out    []Message
		before string
	)
	for len(out) < opts.MaxMessages {
		page, err := c.messagesPage(ctx, channelID, opts.PageLimit, before)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		out = append(out, page...)
		oldest := page[len(page)-1]
		before = oldest.ID

		if !opts.Since.IsZero() && oldest.Timestamp.Before(opts.Since) {
			break
		}
	}

	log.Debug().Int("messages", len(out)).Str("channel", channelID).Msg("channel walk complete")
	return out, nil
}

// max429Retries bounds how many times one page fetch honors a 429 backoff
// before giving up on the walk.
const max429Retries = 3

// messagesPage fetches one page, honoring the limiter and 429 backoff.
func (c *Client) messagesPage(ctx context.Context, channelID string, limit int, before string) ([]Message, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if before != "" {
		q.Set("before", before)
	}
	u := fmt.Sprintf("%s/channels/%s/messages?%s", c.baseURL, channelID, q.Encode())

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", c.token)

		res, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch messages: %w", err)
		}

		if res.StatusCode == http.StatusTooManyRequests {
			wait := retryAfter(res)
			res.Body.Close()
			if attempt >= max429Retries {
				return nil, fmt.Errorf("discord: still rate limited after %d retries for channel %s", max429Retries, channelID)
			}
			log.Warn().Dur("retry_after", wait).Int("attempt", attempt+1).Msg("rate limited by discord")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}

		page, err := decodePage(res, channelID)
		res.Body.Close()
		return page, err
	}
}

// decodePage turns a 200 response body into messages.
func decodePage(res *http.Response, channelID string) ([]Message, error) {
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord: status %d for channel %s", res.StatusCode, channelID)
	}

	var raw []apiMessage
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}

	page := make([]Message, len(raw))
	for i, m := range raw {
		page[i] = Message{
			ID:        m.ID,
			Content:   m.Content,
			Author:    m.Author.Username,
			Timestamp: m.Timestamp,
		}
	}
	return page, nil
}

// retryAfter reads the Retry-After header, defaulting to one second.
func retryAfter(res *http.Response) time.Duration {
	if s := res.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.ParseFloat(s, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return time.Second
}
