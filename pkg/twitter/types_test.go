// Copyright 2024-2026 Aiku AI

package twitter

import (
	"encoding/json"
	"testing"
)

func TestHasMedia(t *testing.T) {
	t.Parallel()
	photo := []MediaEntity{{Type: MediaTypePhoto, MediaURL: "https://img/a.jpg"}}
	tests := []struct {
		name  string
		tweet *Tweet
		want  bool
	}{
		{"Nil", nil, false},
		{"NoEntities", &Tweet{Text: "hello"}, false},
		{"EmptyMediaList", &Tweet{ExtendedEntities: &ExtendedEntities{}}, false},
		{"OwnMedia", &Tweet{ExtendedEntities: &ExtendedEntities{Media: photo}}, true},
		{"ExtendedTweetMedia", &Tweet{ExtendedTweet: &ExtendedTweet{
			ExtendedEntities: &ExtendedEntities{Media: photo},
		}}, true},
		{"RetweetedMedia", &Tweet{RetweetedStatus: &Tweet{
			ExtendedEntities: &ExtendedEntities{Media: photo},
		}}, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := test.tweet.HasMedia(); got != test.want {
				t.Errorf("HasMedia() = %v, want %v", got, test.want)
			}
		})
	}
}

// TestTweet_DecodeStreamPayload decodes a trimmed-down but structurally
// faithful streaming API message.
func TestTweet_DecodeStreamPayload(t *testing.T) {
	t.Parallel()
	payload := `{
		"id_str": "1001",
		"text": "short text",
		"in_reply_to_user_id_str": "42",
		"is_quote_status": true,
		"user": {
			"id_str": "42",
			"name": "Alice",
			"screen_name": "alice",
			"profile_image_url_https": "https://img/alice.jpg",
			"profile_link_color": "ff5500"
		},
		"entities": {
			"user_mentions": [{"screen_name": "bob", "name": "Bob", "indices": [0, 4]}],
			"urls": [{"url": "https://t.co/x", "expanded_url": "https://example.com", "indices": [5, 19]}],
			"hashtags": [{"text": "go", "indices": [20, 23]}]
		},
		"extended_tweet": {
			"full_text": "the much longer form of the text",
			"extended_entities": {
				"media": [{
					"type": "video",
					"media_url_https": "https://img/thumb.jpg",
					"video_info": {
						"duration_millis": 12000,
						"variants": [{"bitrate": 832000, "content_type": "video/mp4", "url": "https://vid/a.mp4?tag=1"}]
					}
				}]
			}
		},
		"quoted_status": {
			"id_str": "900",
			"text": "quoted",
			"user": {"id_str": "99", "screen_name": "bob"}
		}
	}`
	var tweet Tweet
	if err := json.Unmarshal([]byte(payload), &tweet); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tweet.ID != "1001" || tweet.User.ScreenName != "alice" {
		t.Errorf("tweet = %+v, want id 1001 by alice", tweet)
	}
	if tweet.InReplyToUserID != "42" || !tweet.IsQuoteStatus {
		t.Errorf("reply/quote markers wrong: %+v", tweet)
	}
	if len(tweet.Entities.Mentions) != 1 || tweet.Entities.Mentions[0].Indices[1] != 4 {
		t.Errorf("mentions = %+v", tweet.Entities.Mentions)
	}
	if tweet.ExtendedTweet == nil || tweet.ExtendedTweet.FullText != "the much longer form of the text" {
		t.Errorf("extended tweet = %+v", tweet.ExtendedTweet)
	}
	media := tweet.ExtendedTweet.ExtendedEntities.Media
	if len(media) != 1 || media[0].VideoInfo.Variants[0].Bitrate != 832000 {
		t.Errorf("media = %+v", media)
	}
	if tweet.QuotedStatus == nil || tweet.QuotedStatus.User.ID != "99" {
		t.Errorf("quoted status = %+v", tweet.QuotedStatus)
	}
	if !tweet.HasMedia() {
		t.Error("HasMedia() = false for a post with extended tweet media")
	}
}

func TestURLHelpers(t *testing.T) {
	t.Parallel()
	if got, want := UserURL("alice"), "https://twitter.com/alice"; got != want {
		t.Errorf("UserURL = %q, want %q", got, want)
	}
	if got, want := StatusURL("alice", "1001"), "https://twitter.com/alice/status/1001"; got != want {
		t.Errorf("StatusURL = %q, want %q", got, want)
	}
	if got, want := HashtagURL("go"), "https://twitter.com/hashtag/go?src=hash"; got != want {
		t.Errorf("HashtagURL = %q, want %q", got, want)
	}
}
