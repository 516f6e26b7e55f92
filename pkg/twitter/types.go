// Copyright 2024-2026 Aiku AI

// Package twitter holds the wire types for posts received from the Twitter
// streaming API and the stream client that delivers them.
package twitter

// User is the author record attached to a tweet.
type User struct {
	ID               string `json:"id_str"`
	Name             string `json:"name"`
	ScreenName       string `json:"screen_name"`
	ProfileImageURL  string `json:"profile_image_url_https"`
	ProfileLinkColor string `json:"profile_link_color"`
}

// MentionEntity is an @-mention span within a tweet's text.
type MentionEntity struct {
	ScreenName string `json:"screen_name"`
	Name       string `json:"name"`
	Indices    []int  `json:"indices"`
}

// URLEntity is a t.co-wrapped link span within a tweet's text.
type URLEntity struct {
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url"`
	Indices     []int  `json:"indices"`
}

// HashtagEntity is a hashtag span within a tweet's text. Text does not
// include the leading '#'.
type HashtagEntity struct {
	Text    string `json:"text"`
	Indices []int  `json:"indices"`
}

// Entities groups the annotation spans of a tweet. All indices are measured
// in Unicode code points over the original (pre-rewrite) text.
type Entities struct {
	Mentions []MentionEntity `json:"user_mentions"`
	URLs     []URLEntity     `json:"urls"`
	Hashtags []HashtagEntity `json:"hashtags"`
}

// Media type values used by the streaming API.
const (
	MediaTypePhoto       = "photo"
	MediaTypeVideo       = "video"
	MediaTypeAnimatedGIF = "animated_gif"
)

// VideoVariant is one encoding of a video or animated GIF.
type VideoVariant struct {
	Bitrate     int    `json:"bitrate"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// VideoInfo describes the playable encodings of a video media item.
type VideoInfo struct {
	DurationMillis int            `json:"duration_millis"`
	Variants       []VideoVariant `json:"variants"`
}

// MediaEntity is one attached media item (photo, video or animated GIF).
type MediaEntity struct {
	Type      string     `json:"type"`
	MediaURL  string     `json:"media_url_https"`
	VideoInfo *VideoInfo `json:"video_info"`
}

// ExtendedEntities carries the full media list of a tweet. The plain
// entities object only ever contains the first media item.
type ExtendedEntities struct {
	Media []MediaEntity `json:"media"`
}

// ExtendedTweet is the overflow representation used when a tweet's text
// exceeds the classic length limit.
type ExtendedTweet struct {
	Text             string            `json:"text"`
	FullText         string            `json:"full_text"`
	Entities         *Entities         `json:"entities"`
	ExtendedEntities *ExtendedEntities `json:"extended_entities"`
}

// Tweet is one post from the stream. Quoted and retweeted posts nest the
// same type one level deep.
type Tweet struct {
	ID               string            `json:"id_str"`
	User             *User             `json:"user"`
	Text             string            `json:"text"`
	FullText         string            `json:"full_text"`
	Entities         *Entities         `json:"entities"`
	ExtendedEntities *ExtendedEntities `json:"extended_entities"`
	ExtendedTweet    *ExtendedTweet    `json:"extended_tweet"`
	QuotedStatus     *Tweet            `json:"quoted_status"`
	RetweetedStatus  *Tweet            `json:"retweeted_status"`
	IsQuoteStatus    bool              `json:"is_quote_status"`
	InReplyToUserID  string            `json:"in_reply_to_user_id_str"`
}

// HasMedia reports whether the tweet carries at least one media item in any
// of its entity sets, including the extended and retweeted variants. Tweets
// without media are rendered as text posts.
func (t *Tweet) HasMedia() bool {
	if t == nil {
		return false
	}
	if t.ExtendedEntities != nil && len(t.ExtendedEntities.Media) > 0 {
		return true
	}
	if t.ExtendedTweet != nil && t.ExtendedTweet.ExtendedEntities != nil &&
		len(t.ExtendedTweet.ExtendedEntities.Media) > 0 {
		return true
	}
	if t.RetweetedStatus != nil && t.RetweetedStatus.ExtendedEntities != nil &&
		len(t.RetweetedStatus.ExtendedEntities.Media) > 0 {
		return true
	}
	return false
}
