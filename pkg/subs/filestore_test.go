// Copyright 2024-2026 Aiku AI

package subs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func tempStore(t *testing.T) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subscriptions.yaml")
	s, err := OpenFileStore(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenFileStore() = %v", err)
	}
	return s
}

func TestOpenFileStore_MissingFile(t *testing.T) {
	t.Parallel()
	s := tempStore(t)
	ids, err := s.FollowedIDs(context.Background())
	if err != nil {
		t.Fatalf("FollowedIDs() = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("FollowedIDs() = %v, want empty", ids)
	}
}

func TestOpenFileStore_MalformedFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "subscriptions.yaml")
	if err := os.WriteFile(path, []byte("users: {not: [a, list"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := OpenFileStore(path, zerolog.Nop()); err == nil {
		t.Error("OpenFileStore() succeeded on malformed YAML, want error")
	}
}

func TestFileStore_SubscribeAndLookup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := tempStore(t)

	sub := Subscription{
		Flags:       Flags{Retweet: true},
		Destination: Destination{ChannelID: "c1"},
	}
	if err := s.Subscribe(ctx, "42", "alice", sub); err != nil {
		t.Fatalf("Subscribe() = %v", err)
	}

	got, err := s.SubscriptionsFor(ctx, "42")
	if err != nil {
		t.Fatalf("SubscriptionsFor() = %v", err)
	}
	if len(got) != 1 || got[0] != sub {
		t.Errorf("SubscriptionsFor(42) = %v, want [%v]", got, sub)
	}
	if got, _ := s.SubscriptionsFor(ctx, "99"); got != nil {
		t.Errorf("SubscriptionsFor(99) = %v, want nil", got)
	}
}

// TestFileStore_SubscribeReplacesSameDestination checks that re-subscribing
// the same channel updates flags in place instead of duplicating.
func TestFileStore_SubscribeReplacesSameDestination(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := tempStore(t)
	dest := Destination{ChannelID: "c1"}

	if err := s.Subscribe(ctx, "42", "alice", Subscription{Destination: dest}); err != nil {
		t.Fatalf("Subscribe() = %v", err)
	}
	updated := Subscription{Flags: Flags{Ping: true}, Destination: dest}
	if err := s.Subscribe(ctx, "42", "alice", updated); err != nil {
		t.Fatalf("Subscribe() = %v", err)
	}

	got, _ := s.SubscriptionsFor(ctx, "42")
	if len(got) != 1 || !got[0].Flags.Ping {
		t.Errorf("SubscriptionsFor(42) = %v, want single subscription with ping", got)
	}
}

func TestFileStore_Unsubscribe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := tempStore(t)

	if err := s.Subscribe(ctx, "42", "alice", Subscription{Destination: Destination{ChannelID: "c1"}}); err != nil {
		t.Fatalf("Subscribe() = %v", err)
	}
	if err := s.Unsubscribe(ctx, "42", Destination{ChannelID: "c1"}); err != nil {
		t.Fatalf("Unsubscribe() = %v", err)
	}

	// The author record survives without subscriptions, but stops counting
	// as followed.
	ids, _ := s.FollowedIDs(ctx)
	if len(ids) != 0 {
		t.Errorf("FollowedIDs() = %v after unsubscribe, want empty", ids)
	}
	if err := s.Unsubscribe(ctx, "unknown", Destination{ChannelID: "c1"}); err != nil {
		t.Errorf("Unsubscribe(unknown) = %v, want nil", err)
	}
}

func TestFileStore_FollowedIDsOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := tempStore(t)

	for _, id := range []string{"3", "1", "2"} {
		if err := s.Subscribe(ctx, id, "", Subscription{Destination: Destination{ChannelID: "c"}}); err != nil {
			t.Fatalf("Subscribe(%s) = %v", id, err)
		}
	}
	ids, err := s.FollowedIDs(ctx)
	if err != nil {
		t.Fatalf("FollowedIDs() = %v", err)
	}
	if len(ids) != 3 || ids[0] != "3" || ids[1] != "1" || ids[2] != "2" {
		t.Errorf("FollowedIDs() = %v, want [3 1 2] (insertion order)", ids)
	}
}

// TestFileStore_RoundTrip persists a store and reopens it from disk.
func TestFileStore_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "subscriptions.yaml")
	s, err := OpenFileStore(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenFileStore() = %v", err)
	}
	sub := Subscription{
		Flags:       Flags{NoText: true, Ping: true},
		Destination: Destination{ChannelID: "c1", IsDirect: true},
	}
	if err := s.Subscribe(ctx, "42", "alice", sub); err != nil {
		t.Fatalf("Subscribe() = %v", err)
	}
	if err := s.RecordActivity(ctx, "42", "alice_renamed"); err != nil {
		t.Fatalf("RecordActivity() = %v", err)
	}

	reopened, err := OpenFileStore(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.SubscriptionsFor(ctx, "42")
	if err != nil {
		t.Fatalf("SubscriptionsFor() = %v", err)
	}
	if len(got) != 1 || got[0] != sub {
		t.Errorf("reopened SubscriptionsFor(42) = %v, want [%v]", got, sub)
	}
	ids, _ := reopened.FollowedIDs(ctx)
	if len(ids) != 1 || ids[0] != "42" {
		t.Errorf("reopened FollowedIDs() = %v, want [42]", ids)
	}
}

func TestFileStore_RecordActivityUnknownAuthor(t *testing.T) {
	t.Parallel()
	s := tempStore(t)
	if err := s.RecordActivity(context.Background(), "missing", "ghost"); err != nil {
		t.Errorf("RecordActivity(missing) = %v, want nil", err)
	}
}
