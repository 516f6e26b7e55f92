// Copyright 2024-2026 Aiku AI

package forwarder

import (
	"context"

	"github.com/aiku/tweetbridge/pkg/subs"
	"github.com/aiku/tweetbridge/pkg/twitter"
)

// Target is one destination a post should be delivered to, with the flags
// that still apply downstream (ping, noquote).
type Target struct {
	Flags       subs.Flags
	Destination subs.Destination
}

// isValid rejects posts that cannot be formatted: missing author, or a
// quote post whose quoted post or quoted author is missing.
func isValid(t *twitter.Tweet) bool {
	if t == nil || t.User == nil {
		return false
	}
	if t.IsQuoteStatus && (t.QuotedStatus == nil || t.QuotedStatus.User == nil) {
		return false
	}
	return true
}

// passesFlags applies the per-subscription inclusion rules to a post.
func passesFlags(fl subs.Flags, t *twitter.Tweet) bool {
	if fl.NoText && !t.HasMedia() {
		return false
	}
	if !fl.Retweet && t.RetweetedStatus != nil {
		return false
	}
	// noquote only suppresses the nested quoted delivery, not the post
	// itself; see dispatchQuoted.
	return true
}

// filteredTargets resolves the destinations interested in a post. It fails
// closed: invalid posts, unknown authors, and replies to anyone other than
// the author themself (self-thread continuations pass) all yield nil. Store
// errors are logged and treated as no subscribers.
func (f *Forwarder) filteredTargets(ctx context.Context, t *twitter.Tweet) []Target {
	if !isValid(t) {
		return nil
	}
	subList, err := f.store.SubscriptionsFor(ctx, t.User.ID)
	if err != nil {
		f.log.Error().Err(err).Str("author_id", t.User.ID).Msg("Subscription lookup failed")
		return nil
	}
	if len(subList) == 0 {
		return nil
	}
	if t.InReplyToUserID != "" && t.InReplyToUserID != t.User.ID {
		return nil
	}

	targets := make([]Target, 0, len(subList))
	for _, sub := range subList {
		if passesFlags(sub.Flags, t) {
			targets = append(targets, Target{Flags: sub.Flags, Destination: sub.Destination})
		}
	}
	return targets
}
