// Copyright 2024-2026 Aiku AI

package forwarder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiku/tweetbridge/pkg/forwarder/tweetfmt"
	"github.com/aiku/tweetbridge/pkg/subs"
	"github.com/aiku/tweetbridge/pkg/twitter"
)

// Delivery is the outbound boundary: sending formatted embeds and plain
// messages to a destination.
type Delivery interface {
	SendEmbed(ctx context.Context, dest subs.Destination, msg *tweetfmt.Message) error
	SendText(ctx context.Context, dest subs.Destination, text string) error
}

// Forwarder owns the lifecycle of the single live stream session: it opens
// the connection against the followed author set, dispatches posts through
// filter, formatter and delivery, and schedules reconnection with bounded
// exponential backoff when the stream fails or falls silent.
//
// The hosting process creates exactly one Forwarder; reconnects reuse it
// and only replace the underlying connection handle.
type Forwarder struct {
	cfg       *Config
	store     subs.Store
	delivery  Delivery
	opener    twitter.StreamOpener
	formatter *tweetfmt.Formatter
	backoff   *Backoff
	log       zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// afterFunc schedules deferred work. Tests inject a fake to observe
	// the computed delays without waiting for them.
	afterFunc func(d time.Duration, fn func()) *time.Timer

	mu             sync.Mutex
	stream         twitter.Stream
	connected      bool
	closed         bool
	reconnectTimer *time.Timer
	watchdogTimer  *time.Timer
}

// New creates a Forwarder. unfurler may be nil to disable link preview
// enrichment.
func New(cfg *Config, store subs.Store, delivery Delivery, opener twitter.StreamOpener, unfurler tweetfmt.Unfurler, log zerolog.Logger) *Forwarder {
	ctx, cancel := context.WithCancel(context.Background())
	return &Forwarder{
		cfg:       cfg,
		store:     store,
		delivery:  delivery,
		opener:    opener,
		formatter: tweetfmt.NewFormatter(unfurler, cfg.PingHashtag, log),
		backoff:   NewBackoff(cfg.ReconnectMin(), cfg.ReconnectMax()),
		log:       log.With().Str("component", "forwarder").Logger(),
		ctx:       ctx,
		cancel:    cancel,
		afterFunc: time.AfterFunc,
	}
}

// Connect opens a stream session against the current followed author set.
// With nothing to follow, no connection is opened and the forwarder stays
// idle until the next Connect call. Connection failures after this point
// are handled internally via scheduled reconnects.
func (f *Forwarder) Connect() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return fmt.Errorf("forwarder is shut down")
	}
	f.mu.Unlock()

	ids, err := f.store.FollowedIDs(f.ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve followed authors: %w", err)
	}
	if len(ids) == 0 {
		f.log.Info().Msg("No followed authors, not opening a stream")
		return nil
	}

	f.log.Info().Int("authors", len(ids)).Msg("Opening stream")
	stream := f.opener.OpenStream(f.ctx, ids, twitter.Handlers{
		OnStart: f.handleStart,
		OnData:  f.handleData,
		OnError: f.handleError,
		OnEnd:   f.handleEnd,
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		stream.Disconnect()
		return fmt.Errorf("forwarder is shut down")
	}
	if f.stream != nil {
		f.stream.Disconnect()
	}
	f.stream = stream
	return nil
}

// Destroy tears the session down and stops all scheduled reconnection. The
// forwarder cannot be reused afterwards.
func (f *Forwarder) Destroy() {
	f.mu.Lock()
	f.closed = true
	f.markDisconnectedLocked()
	if f.reconnectTimer != nil {
		f.reconnectTimer.Stop()
		f.reconnectTimer = nil
	}
	f.mu.Unlock()
	f.cancel()
	f.log.Info().Msg("Forwarder shut down")
}

// markDisconnectedLocked clears the watchdog and drops the connection
// handle. Callers hold f.mu.
func (f *Forwarder) markDisconnectedLocked() {
	f.connected = false
	if f.watchdogTimer != nil {
		f.watchdogTimer.Stop()
		f.watchdogTimer = nil
	}
	if f.stream != nil {
		f.stream.Disconnect()
		f.stream = nil
	}
}

// scheduleReconnectLocked arms the single reconnect timer, superseding any
// pending one. Callers hold f.mu.
func (f *Forwarder) scheduleReconnectLocked(delay time.Duration) {
	if f.closed {
		return
	}
	if f.reconnectTimer != nil {
		f.reconnectTimer.Stop()
	}
	f.reconnectTimer = f.afterFunc(delay, func() {
		if err := f.Connect(); err != nil {
			f.log.Error().Err(err).Msg("Reconnect failed")
		}
	})
}

// armWatchdog (re)starts the silence watchdog. If it fires without any
// intervening data the session is force-recreated.
func (f *Forwarder) armWatchdog() {
	timeout := f.cfg.WatchdogTimeout()
	if timeout <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if f.watchdogTimer != nil {
		f.watchdogTimer.Stop()
	}
	f.watchdogTimer = f.afterFunc(timeout, f.watchdogFired)
}

func (f *Forwarder) watchdogFired() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.log.Warn().Dur("timeout", f.cfg.WatchdogTimeout()).Msg("Stream silent past deadline, recreating session")
	f.markDisconnectedLocked()
	f.mu.Unlock()

	if err := f.Connect(); err != nil {
		f.log.Error().Err(err).Msg("Watchdog reconnect failed")
	}
}
