// Copyright 2024-2026 Aiku AI

package subs

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// UserRecord is one followed author with their subscriptions.
type UserRecord struct {
	TwitterID     string         `yaml:"twitter_id"`
	ScreenName    string         `yaml:"screen_name,omitempty"`
	LastSeen      time.Time      `yaml:"last_seen,omitempty"`
	Subscriptions []Subscription `yaml:"subscriptions"`
}

type storeFile struct {
	Users []UserRecord `yaml:"users"`
}

// FileStore is a YAML-file-backed Store. The whole file is held in memory
// and rewritten on every mutation.
type FileStore struct {
	path string
	log  zerolog.Logger

	mu    sync.RWMutex
	users map[string]*UserRecord
	order []string
}

var _ Store = (*FileStore)(nil)

// OpenFileStore loads the subscription file at path. A missing file yields
// an empty store; the file is created on the first mutation.
func OpenFileStore(path string, log zerolog.Logger) (*FileStore, error) {
	s := &FileStore{
		path:  path,
		log:   log.With().Str("component", "sub_store").Logger(),
		users: make(map[string]*UserRecord),
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read subscription file: %w", err)
	}
	var file storeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse subscription file: %w", err)
	}
	for i := range file.Users {
		u := file.Users[i]
		if u.TwitterID == "" {
			continue
		}
		s.users[u.TwitterID] = &u
		s.order = append(s.order, u.TwitterID)
	}
	return s, nil
}

// FollowedIDs implements Store. IDs come back in file order.
func (s *FileStore) FollowedIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if len(s.users[id].Subscriptions) > 0 {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// SubscriptionsFor implements Store.
func (s *FileStore) SubscriptionsFor(_ context.Context, authorID string) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[authorID]
	if !ok {
		return nil, nil
	}
	out := make([]Subscription, len(u.Subscriptions))
	copy(out, u.Subscriptions)
	return out, nil
}

// RecordActivity implements Store. It refreshes the last-seen timestamp and
// screen name of the author and persists the file.
func (s *FileStore) RecordActivity(_ context.Context, authorID, screenName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[authorID]
	if !ok {
		return nil
	}
	u.LastSeen = time.Now().UTC()
	if screenName != "" {
		u.ScreenName = screenName
	}
	return s.saveLocked()
}

// Subscribe adds or replaces a destination's subscription to an author.
func (s *FileStore) Subscribe(_ context.Context, authorID, screenName string, sub Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[authorID]
	if !ok {
		u = &UserRecord{TwitterID: authorID, ScreenName: screenName}
		s.users[authorID] = u
		s.order = append(s.order, authorID)
	}
	for i := range u.Subscriptions {
		if u.Subscriptions[i].Destination == sub.Destination {
			u.Subscriptions[i] = sub
			return s.saveLocked()
		}
	}
	u.Subscriptions = append(u.Subscriptions, sub)
	sort.SliceStable(u.Subscriptions, func(i, j int) bool {
		return u.Subscriptions[i].Destination.ChannelID < u.Subscriptions[j].Destination.ChannelID
	})
	return s.saveLocked()
}

// Unsubscribe removes a destination's subscription to an author. Authors
// left without subscriptions are kept so their bookkeeping survives.
func (s *FileStore) Unsubscribe(_ context.Context, authorID string, dest Destination) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[authorID]
	if !ok {
		return nil
	}
	kept := u.Subscriptions[:0]
	for _, sub := range u.Subscriptions {
		if sub.Destination != dest {
			kept = append(kept, sub)
		}
	}
	u.Subscriptions = kept
	return s.saveLocked()
}

func (s *FileStore) saveLocked() error {
	var file storeFile
	for _, id := range s.order {
		file.Users = append(file.Users, *s.users[id])
	}
	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("failed to encode subscription file: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write subscription file: %w", err)
	}
	s.log.Debug().Int("users", len(file.Users)).Msg("Saved subscription file")
	return nil
}
