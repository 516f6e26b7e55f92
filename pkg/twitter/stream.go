// Copyright 2024-2026 Aiku AI

package twitter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/dghubble/oauth1"
	"github.com/rs/zerolog"
)

// DefaultStreamURL is the filtered statuses streaming endpoint.
const DefaultStreamURL = "https://stream.twitter.com/1.1/statuses/filter.json"

// StatusRateLimited is the HTTP status the streaming API answers with when
// the connection rate is exhausted. It gets a fixed cooldown instead of
// exponential backoff.
const StatusRateLimited = 420

// StreamError describes a connection-level stream failure.
type StreamError struct {
	URL        string
	Status     int
	StatusText string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream error (%d: %s) at %s", e.Status, e.StatusText, e.URL)
}

// Handlers receives stream lifecycle and data events. All callbacks are
// invoked from a single goroutine per session, never concurrently.
type Handlers struct {
	OnStart func()
	OnData  func(*Tweet)
	OnError func(*StreamError)
	OnEnd   func()
}

// Stream is a live connection handle. Disconnect is idempotent and
// suppresses the OnEnd callback for the deliberate teardown.
type Stream interface {
	Disconnect()
}

// StreamOpener opens a live connection following a set of author IDs.
// Connection failures are reported through the handlers, not returned.
type StreamOpener interface {
	OpenStream(ctx context.Context, ids []string, h Handlers) Stream
}

// Credentials holds the OAuth1 application and user tokens.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

// Client opens OAuth1-signed connections to the streaming API.
type Client struct {
	httpClient *http.Client
	streamURL  string
	log        zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithStreamURL overrides the streaming endpoint, mainly for tests.
func WithStreamURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.streamURL = u
		}
	}
}

// WithHTTPClient overrides the signed HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a stream client with OAuth1 request signing.
func NewClient(creds Credentials, log zerolog.Logger, opts ...ClientOption) *Client {
	config := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	c := &Client{
		httpClient: config.Client(oauth1.NoContext, token),
		streamURL:  DefaultStreamURL,
		log:        log.With().Str("component", "twitter_stream").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// liveStream is the handle for one open connection.
type liveStream struct {
	cancel   context.CancelFunc
	stopOnce sync.Once
	stopped  chan struct{}
}

func (s *liveStream) Disconnect() {
	s.stopOnce.Do(func() {
		close(s.stopped)
		s.cancel()
	})
}

// OpenStream implements StreamOpener. The connection is established in the
// background; OnStart fires once the stream answers 200 and all failures are
// surfaced through OnError/OnEnd.
func (c *Client) OpenStream(ctx context.Context, ids []string, h Handlers) Stream {
	streamCtx, cancel := context.WithCancel(ctx)
	s := &liveStream{cancel: cancel, stopped: make(chan struct{})}
	go c.run(streamCtx, s, ids, h)
	return s
}

func (c *Client) run(ctx context.Context, s *liveStream, ids []string, h Handlers) {
	form := url.Values{"follow": {strings.Join(ids, ",")}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.streamURL, strings.NewReader(form.Encode()))
	if err != nil {
		h.OnError(&StreamError{URL: c.streamURL, StatusText: err.Error()})
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if s.deliberate() {
			return
		}
		h.OnError(&StreamError{URL: c.streamURL, StatusText: err.Error()})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.OnError(&StreamError{
			URL:        c.streamURL,
			Status:     resp.StatusCode,
			StatusText: strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode))),
		})
		return
	}

	h.OnStart()

	scanner := bufio.NewScanner(resp.Body)
	// Tweets with nested quoted statuses can get large.
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			// Keep-alive newline.
			continue
		}
		var tweet Tweet
		if err := json.Unmarshal([]byte(line), &tweet); err != nil {
			c.log.Warn().Err(err).Int("len", len(line)).Msg("Dropping undecodable stream message")
			continue
		}
		h.OnData(&tweet)
	}

	if s.deliberate() {
		return
	}
	if err := scanner.Err(); err != nil {
		c.log.Warn().Err(err).Msg("Stream read failed")
	}
	h.OnEnd()
}

// deliberate reports whether the stream was torn down via Disconnect.
// Disconnect closes stopped before cancelling the request context, so a read
// failure caused by the teardown always observes the closed channel.
func (s *liveStream) deliberate() bool {
	select {
	case <-s.stopped:
		return true
	default:
		return false
	}
}
