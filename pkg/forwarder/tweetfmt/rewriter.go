// Copyright 2024-2026 Aiku AI

// Package tweetfmt turns raw stream posts into delivery-ready embeds. The
// rewriter applies the post's index-tagged annotations (mentions, links,
// hashtags) over a code-point view of the text; the formatter wraps the
// result with author, color and media handling.
package tweetfmt

import (
	"context"
	"errors"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/aiku/tweetbridge/pkg/twitter"
)

// DefaultPingTag is the hashtag that requests a broadcast-attention message.
const DefaultPingTag = "qtweet"

// shortLinkMarker is the prefix of the short links the API appends to the
// text for attached media. Media is rendered separately, so the text is cut
// at the first occurrence.
const shortLinkMarker = "https://t.co/"

// ErrMalformedEntities signals a URL annotation without an index span or
// expanded URL. The whole rewrite fails rather than silently skipping.
var ErrMalformedEntities = errors.New("tweetfmt: malformed url entity")

// RewriteResult is the rewritten text plus the signals extracted from the
// annotations.
type RewriteResult struct {
	Text       string
	Ping       bool
	PreviewURL string
}

// RewriteOptions controls the optional enrichment steps of a rewrite.
type RewriteOptions struct {
	// Unfurler, when set together with WantPreview, is asked for a social
	// preview image of the first link. Failures degrade to no preview.
	Unfurler    Unfurler
	WantPreview bool
	// PingTag is matched case-insensitively against hashtags. Empty means
	// DefaultPingTag.
	PingTag string
}

// change is one replacement span over the code-point view of the text.
// start and end refer to the original text; drift from earlier replacements
// is tracked separately during application.
type change struct {
	start, end int
	text       string
}

// Rewrite applies the entity annotations to text. Indices are interpreted
// as Unicode code points over the NFC-normalized original text, matching
// how the streaming API counts them. A nil entity set returns the text
// unchanged.
func Rewrite(ctx context.Context, text string, entities *twitter.Entities, opts RewriteOptions) (RewriteResult, error) {
	if entities == nil {
		return RewriteResult{Text: text}, nil
	}
	pingTag := opts.PingTag
	if pingTag == "" {
		pingTag = DefaultPingTag
	}

	var res RewriteResult
	var changes []change

	// A leading run of @-replies is stripped entirely (plus one trailing
	// separator character each); every mention after the run is rendered
	// as a markdown profile link.
	inReplies := true
	replyIndex := 0
	for _, m := range entities.Mentions {
		if m.ScreenName == "" || len(m.Indices) != 2 {
			continue
		}
		start, end := m.Indices[0], m.Indices[1]
		if inReplies && start == replyIndex {
			changes = append(changes, change{start: start, end: end + 1})
			replyIndex = end + 1
			continue
		}
		inReplies = false
		name := m.Name
		if name == "" {
			name = m.ScreenName
		}
		changes = append(changes, change{
			start: start,
			end:   end,
			text:  "[@" + name + "](" + twitter.UserURL(m.ScreenName) + ")",
		})
	}

	for i, u := range entities.URLs {
		if u.ExpandedURL == "" || len(u.Indices) != 2 {
			return RewriteResult{}, ErrMalformedEntities
		}
		if i == 0 && opts.WantPreview && opts.Unfurler != nil {
			res.PreviewURL = resolvePreview(ctx, opts.Unfurler, u.ExpandedURL)
		}
		changes = append(changes, change{start: u.Indices[0], end: u.Indices[1], text: u.ExpandedURL})
	}

	for _, h := range entities.Hashtags {
		if h.Text == "" || len(h.Indices) != 2 {
			continue
		}
		changes = append(changes, change{
			start: h.Indices[0],
			end:   h.Indices[1],
			text:  "[#" + h.Text + "](" + twitter.HashtagURL(h.Text) + ")",
		})
		if strings.EqualFold(h.Text, pingTag) {
			res.Ping = true
		}
	}

	res.Text = applyChanges(text, changes)
	return res, nil
}

// applyChanges replaces the spans over the code-point sequence of text,
// ascending by start, accumulating the length drift of earlier replacements.
func applyChanges(text string, changes []change) string {
	points := []rune(norm.NFC.String(text))
	// Ties keep the original relative order.
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].start < changes[j].start })

	offset := 0
	for _, ch := range changes {
		repl := []rune(norm.NFC.String(ch.text))
		start := clamp(ch.start+offset, 0, len(points))
		end := clamp(ch.end+offset, start, len(points))
		next := make([]rune, 0, len(points)+len(repl)-(end-start))
		next = append(next, points[:start]...)
		next = append(next, repl...)
		next = append(next, points[end:]...)
		points = next
		offset += len(repl) - (ch.end - ch.start)
	}

	out := string(points)
	out = strings.ReplaceAll(out, "&amp;", "&")
	out = strings.ReplaceAll(out, "&gt;", ">")
	out = strings.ReplaceAll(out, "&lt;", "<")
	if i := strings.Index(out, shortLinkMarker); i >= 0 {
		out = out[:i]
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// resolvePreview asks the unfurler for a social preview image and applies
// the conservative URL policy: protocol-relative URLs upgrade to https, and
// anything not absolute is discarded. Any failure means no preview.
func resolvePreview(ctx context.Context, u Unfurler, link string) string {
	p, err := u.Unfurl(ctx, link)
	if err != nil {
		return ""
	}
	img := p.CardImage
	if img == "" {
		img = p.OGImage
	}
	switch {
	case img == "":
		return ""
	case strings.HasPrefix(img, "//"):
		return "https:" + img
	case strings.HasPrefix(img, "http"):
		return img
	default:
		return ""
	}
}
