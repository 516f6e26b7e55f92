// Copyright 2024-2026 Aiku AI

package tweetfmt

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"go.mau.fi/util/ptr"

	"github.com/aiku/tweetbridge/pkg/twitter"
)

// Default embed colors per post kind, applied when the author has no theme
// color of their own.
const (
	ColorText  = 0x69b2d6
	ColorVideo = 0x67d67d
	ColorImage = 0xd667cf
)

// Thresholds for attaching a video file directly instead of linking it.
const (
	maxDirectVideoMillis = 20000
	maxVariantBitrate    = 1000000
)

// EmbedAuthor is the author line of an embed.
type EmbedAuthor struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// EmbedImage is an image reference inside an embed.
type EmbedImage struct {
	URL string `json:"url,omitempty"`
}

// Embed is the display representation of a single post, shaped like the
// embed object chat webhooks accept.
type Embed struct {
	Author      EmbedAuthor `json:"author"`
	Thumbnail   *EmbedImage `json:"thumbnail,omitempty"`
	Image       *EmbedImage `json:"image,omitempty"`
	Color       int         `json:"color,omitempty"`
	Description string      `json:"description,omitempty"`
}

// Message is the formatter output handed to delivery: the embed, any extra
// file attachments, and the ping signal extracted from the text.
type Message struct {
	Embed Embed
	Files []string
	Ping  bool
}

// Formatter converts raw tweets into Messages.
type Formatter struct {
	unfurler Unfurler
	pingTag  string
	log      zerolog.Logger
}

// NewFormatter creates a Formatter. unfurler may be nil to disable link
// preview enrichment; pingTag empty means DefaultPingTag.
func NewFormatter(unfurler Unfurler, pingTag string, log zerolog.Logger) *Formatter {
	return &Formatter{
		unfurler: unfurler,
		pingTag:  pingTag,
		log:      log.With().Str("component", "formatter").Logger(),
	}
}

// Format builds the display record for a tweet. quoted marks a nested
// quoted post and prefixes the author line.
func (f *Formatter) Format(ctx context.Context, t *twitter.Tweet, quoted bool) (*Message, error) {
	if t == nil || t.User == nil {
		return nil, fmt.Errorf("tweetfmt: tweet without author")
	}

	text := t.FullText
	if text == "" {
		text = t.Text
	}
	entities := t.Entities
	extMedia := t.ExtendedEntities
	// The extended variant carries the authoritative text and entities for
	// posts over the classic length limit.
	if et := t.ExtendedTweet; et != nil {
		entities = et.Entities
		extMedia = et.ExtendedEntities
		text = et.FullText
		if text == "" {
			text = et.Text
		}
	}

	id := t.ID
	targetScreenName := t.User.ScreenName
	if rs := t.RetweetedStatus; rs != nil {
		// Retweets carry no media of their own; adopt the original's
		// media and permalink while keeping the outer author credit.
		if extMedia == nil {
			extMedia = rs.ExtendedEntities
		}
		if rs.ID != "" {
			id = rs.ID
		}
		if rs.User != nil && rs.User.ScreenName != "" {
			targetScreenName = rs.User.ScreenName
		}
	}

	prefix := ""
	if quoted {
		prefix = "[QUOTED] "
	}
	embed := Embed{
		Author: EmbedAuthor{
			Name: fmt.Sprintf("%s%s (@%s)", prefix, t.User.Name, t.User.ScreenName),
			URL:  twitter.StatusURL(targetScreenName, id),
		},
		Thumbnail: &EmbedImage{URL: t.User.ProfileImageURL},
		Color:     parseLinkColor(t.User.ProfileLinkColor),
	}

	isText := !t.HasMedia()
	res, err := Rewrite(ctx, text, entities, RewriteOptions{
		Unfurler:    f.unfurler,
		WantPreview: isText,
		PingTag:     f.pingTag,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rewrite post text: %w", err)
	}
	text = res.Text

	var files []string
	var media *twitter.MediaEntity
	if extMedia != nil && len(extMedia.Media) > 0 {
		media = &extMedia.Media[0]
	}

	switch {
	case media == nil:
		if res.PreviewURL != "" {
			embed.Image = &EmbedImage{URL: res.PreviewURL}
		}
		if embed.Color == 0 {
			embed.Color = ColorText
		}
	case media.Type == twitter.MediaTypeVideo || media.Type == twitter.MediaTypeAnimatedGIF:
		text = f.attachVideo(text, media, &embed, &files)
		if embed.Color == 0 {
			embed.Color = ColorVideo
		}
	default:
		for _, m := range extMedia.Media {
			files = append(files, m.MediaURL)
		}
		if len(files) == 1 {
			embed.Image = ptr.Ptr(EmbedImage{URL: files[0]})
			files = nil
		}
		if embed.Color == 0 {
			embed.Color = ColorImage
		}
	}

	embed.Description = text
	return &Message{Embed: embed, Files: files, Ping: res.Ping}, nil
}

// attachVideo picks the best mp4 variant of a video or animated GIF. Short
// clips and zero-bitrate encodings are attached as raw files; anything else
// embeds the thumbnail and appends a link to the full video. Returns the
// possibly extended body text.
func (f *Formatter) attachVideo(text string, media *twitter.MediaEntity, embed *Embed, files *[]string) string {
	vi := media.VideoInfo
	if vi == nil {
		f.log.Warn().Msg("Video post without video info")
		return text
	}
	vidURL := ""
	bitrate := -1
	for _, v := range vi.Variants {
		if v.ContentType == "video/mp4" && v.Bitrate < maxVariantBitrate {
			vidURL = stripQuery(v.URL)
			bitrate = v.Bitrate
		}
	}
	if vidURL == "" {
		// Recoverable: the post still goes out, just without the video.
		f.log.Warn().Int("variants", len(vi.Variants)).Msg("Video post with no usable variant")
		return text
	}
	if vi.DurationMillis < maxDirectVideoMillis || bitrate == 0 {
		*files = append(*files, vidURL)
		return text
	}
	embed.Image = &EmbedImage{URL: media.MediaURL}
	return text + "\n[Link to video](" + vidURL + ")"
}

// stripQuery drops query parameters from a variant URL when present.
func stripQuery(u string) string {
	paramIdx := strings.LastIndex(u, "?")
	if paramIdx != -1 && paramIdx > strings.LastIndex(u, "/") {
		return u[:paramIdx]
	}
	return u
}

// parseLinkColor parses the author's hex theme color. Empty, invalid and
// black all come back as 0, which callers replace with the per-kind default.
func parseLinkColor(hex string) int {
	if hex == "" {
		return 0
	}
	v, err := strconv.ParseInt(hex, 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}
