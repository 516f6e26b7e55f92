// Copyright 2024-2026 Aiku AI

package forwarder

import (
	"context"
	"time"

	"github.com/aiku/tweetbridge/pkg/twitter"
)

// handleStart marks the session live: backoff returns to its minimum and
// the silence watchdog is armed.
func (f *Forwarder) handleStart() {
	f.log.Info().Msg("Stream successfully started")
	f.mu.Lock()
	f.connected = true
	f.backoff.Reset()
	f.mu.Unlock()
	f.armWatchdog()
}

// handleData re-arms the watchdog and dispatches the post asynchronously so
// a slow delivery (or preview fetch) never blocks unrelated posts.
func (f *Forwarder) handleData(t *twitter.Tweet) {
	f.armWatchdog()
	go f.dispatch(f.ctx, t)
}

// dispatch runs one post through filter, formatter and delivery. All
// per-post failures are contained here; nothing propagates to the session.
func (f *Forwarder) dispatch(ctx context.Context, t *twitter.Tweet) {
	targets := f.filteredTargets(ctx, t)
	if len(targets) == 0 {
		return
	}

	msg, err := f.formatter.Format(ctx, t, false)
	if err != nil {
		f.log.Warn().Err(err).Str("post_id", t.ID).Msg("Skipping malformed post")
		return
	}

	for _, tgt := range targets {
		if msg.Ping && tgt.Flags.Ping {
			f.log.Info().Str("channel_id", tgt.Destination.ChannelID).Msg("Pinging @everyone")
			if err := f.delivery.SendText(ctx, tgt.Destination, "@everyone"); err != nil {
				f.log.Error().Err(err).Str("channel_id", tgt.Destination.ChannelID).Msg("Failed to send ping")
			}
		}
		if err := f.delivery.SendEmbed(ctx, tgt.Destination, msg); err != nil {
			f.log.Error().Err(err).Str("channel_id", tgt.Destination.ChannelID).Str("post_id", t.ID).Msg("Failed to deliver post")
		}
	}

	if t.IsQuoteStatus && t.QuotedStatus != nil {
		f.dispatchQuoted(ctx, t, targets)
	}

	if err := f.store.RecordActivity(ctx, t.User.ID, t.User.ScreenName); err != nil {
		f.log.Warn().Err(err).Str("author_id", t.User.ID).Msg("Failed to record author activity")
	}
}

// dispatchQuoted formats the nested quoted post and delivers it to every
// target that has not suppressed quotes.
func (f *Forwarder) dispatchQuoted(ctx context.Context, t *twitter.Tweet, targets []Target) {
	qmsg, err := f.formatter.Format(ctx, t.QuotedStatus, true)
	if err != nil {
		f.log.Warn().Err(err).Str("post_id", t.ID).Msg("Skipping malformed quoted post")
		return
	}
	for _, tgt := range targets {
		if tgt.Flags.NoQuote {
			continue
		}
		if err := f.delivery.SendEmbed(ctx, tgt.Destination, qmsg); err != nil {
			f.log.Error().Err(err).Str("channel_id", tgt.Destination.ChannelID).Msg("Failed to deliver quoted post")
		}
	}
}

// handleError schedules reconnection: rate limiting gets a fixed cooldown
// without touching backoff, everything else consumes and grows the backoff.
func (f *Forwarder) handleError(e *twitter.StreamError) {
	f.mu.Lock()
	f.markDisconnectedLocked()
	var delay time.Duration
	if e.Status == twitter.StatusRateLimited {
		delay = f.cfg.RateLimitWait()
	} else {
		delay = f.backoff.Value()
		f.backoff.Increment()
	}
	f.scheduleReconnectLocked(delay)
	f.mu.Unlock()

	f.log.Error().
		Int("status", e.Status).
		Str("status_text", e.StatusText).
		Str("url", e.URL).
		Dur("reconnect_in", delay).
		Msg("Stream error, reconnecting")
}

// handleEnd schedules reconnection after the stream closed without an
// explicit error.
func (f *Forwarder) handleEnd() {
	f.mu.Lock()
	f.markDisconnectedLocked()
	delay := f.backoff.Value()
	f.backoff.Increment()
	f.scheduleReconnectLocked(delay)
	f.mu.Unlock()

	f.log.Warn().Dur("reconnect_in", delay).Msg("Stream disconnected, reconnecting")
}
