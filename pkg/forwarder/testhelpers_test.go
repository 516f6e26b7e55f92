// Copyright 2024-2026 Aiku AI

package forwarder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiku/tweetbridge/pkg/forwarder/tweetfmt"
	"github.com/aiku/tweetbridge/pkg/subs"
	"github.com/aiku/tweetbridge/pkg/twitter"
)

// fakeStore is an in-memory subs.Store with scriptable failures.
type fakeStore struct {
	mu       sync.Mutex
	ids      []string
	subs     map[string][]subs.Subscription
	subsErr  error
	recorded []string
}

func (s *fakeStore) FollowedIDs(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids, nil
}

func (s *fakeStore) SubscriptionsFor(_ context.Context, authorID string) ([]subs.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subsErr != nil {
		return nil, s.subsErr
	}
	return s.subs[authorID], nil
}

func (s *fakeStore) RecordActivity(_ context.Context, authorID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorded = append(s.recorded, authorID)
	return nil
}

// sentItem records one delivery call.
type sentItem struct {
	channelID string
	text      string
	msg       *tweetfmt.Message
}

// fakeDelivery records every send in order.
type fakeDelivery struct {
	mu   sync.Mutex
	sent []sentItem
}

func (d *fakeDelivery) SendEmbed(_ context.Context, dest subs.Destination, msg *tweetfmt.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sentItem{channelID: dest.ChannelID, msg: msg})
	return nil
}

func (d *fakeDelivery) SendText(_ context.Context, dest subs.Destination, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sentItem{channelID: dest.ChannelID, text: text})
	return nil
}

// fakeStream is a Stream handle that records Disconnect.
type fakeStream struct {
	mu           sync.Mutex
	disconnected bool
}

func (s *fakeStream) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnected = true
}

func (s *fakeStream) isDisconnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnected
}

// fakeOpener records OpenStream calls and hands out fresh fakeStreams.
type fakeOpener struct {
	mu      sync.Mutex
	opened  int
	lastIDs []string
	streams []*fakeStream
}

func (o *fakeOpener) OpenStream(_ context.Context, ids []string, _ twitter.Handlers) twitter.Stream {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened++
	o.lastIDs = ids
	s := &fakeStream{}
	o.streams = append(o.streams, s)
	return s
}

func (o *fakeOpener) openCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opened
}

// scheduled is one captured deferred call.
type scheduled struct {
	delay time.Duration
	fn    func()
}

// timerCapture replaces time.AfterFunc so tests can observe delays and fire
// deferred work deterministically.
type timerCapture struct {
	mu    sync.Mutex
	calls []scheduled
}

func (c *timerCapture) afterFunc(d time.Duration, fn func()) *time.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, scheduled{delay: d, fn: fn})
	// Inert timer; the captured fn is fired manually by tests.
	return time.AfterFunc(24*time.Hour, func() {})
}

func (c *timerCapture) last(t *testing.T) scheduled {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.calls) == 0 {
		t.Fatal("no timer was scheduled")
	}
	return c.calls[len(c.calls)-1]
}

func (c *timerCapture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{}
	if err := cfg.PostProcess(); err != nil {
		t.Fatalf("config defaults: %v", err)
	}
	return cfg
}

// newTestForwarder builds a Forwarder over fakes with captured timers.
func newTestForwarder(t *testing.T, store *fakeStore, delivery *fakeDelivery, opener *fakeOpener) (*Forwarder, *timerCapture) {
	t.Helper()
	if store.subs == nil {
		store.subs = make(map[string][]subs.Subscription)
	}
	f := New(testConfig(t), store, delivery, opener, nil, zerolog.Nop())
	capture := &timerCapture{}
	f.afterFunc = capture.afterFunc
	t.Cleanup(f.Destroy)
	return f, capture
}
