// Copyright 2024-2026 Aiku AI

// Package subs holds the subscription model: which chat destinations follow
// which authors, and with which per-destination flags.
package subs

import "context"

// Flags are the per-subscription inclusion rules.
type Flags struct {
	// Retweet includes retweets; they are dropped by default.
	Retweet bool `yaml:"retweet" json:"retweet"`
	// NoText excludes posts without any media attached.
	NoText bool `yaml:"notext" json:"notext"`
	// NoQuote suppresses the nested quoted-post delivery for quote posts;
	// the primary post still goes out.
	NoQuote bool `yaml:"noquote" json:"noquote"`
	// Ping sends a broadcast-attention message when a post carries the
	// configured trigger hashtag.
	Ping bool `yaml:"ping" json:"ping"`
}

// Destination identifies one chat channel or direct-message target.
type Destination struct {
	ChannelID string `yaml:"channel_id" json:"channel_id"`
	IsDirect  bool   `yaml:"is_direct,omitempty" json:"is_direct,omitempty"`
}

// Subscription binds a destination to an author with its flags.
type Subscription struct {
	Flags       Flags       `yaml:"flags" json:"flags"`
	Destination Destination `yaml:"destination" json:"destination"`
}

// Store is the subscription lookup boundary consumed by the forwarder.
type Store interface {
	// FollowedIDs returns the author IDs with at least one subscription.
	FollowedIDs(ctx context.Context) ([]string, error)
	// SubscriptionsFor returns the subscriptions for one author ID, in a
	// stable order. An unknown author yields an empty list, not an error.
	SubscriptionsFor(ctx context.Context, authorID string) ([]Subscription, error)
	// RecordActivity refreshes bookkeeping for an author after one of
	// their posts was delivered.
	RecordActivity(ctx context.Context, authorID, screenName string) error
}
