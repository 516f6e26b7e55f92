// Copyright 2024-2026 Aiku AI

package tweetfmt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dyatlov/go-opengraph/opengraph"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// Preview holds the social preview images a page advertises.
type Preview struct {
	OGImage   string
	CardImage string
}

// Unfurler resolves a link into its social preview metadata.
type Unfurler interface {
	Unfurl(ctx context.Context, link string) (Preview, error)
}

// HTTPUnfurler fetches the page and extracts OpenGraph and twitter-card
// images from its head.
type HTTPUnfurler struct {
	client  *http.Client
	maxBody int64
	log     zerolog.Logger
}

// NewHTTPUnfurler creates an unfurler with a short request timeout; preview
// enrichment is best-effort and must not stall post delivery for long.
func NewHTTPUnfurler(log zerolog.Logger) *HTTPUnfurler {
	return &HTTPUnfurler{
		client:  &http.Client{Timeout: 10 * time.Second},
		maxBody: 512 * 1024,
		log:     log.With().Str("component", "unfurler").Logger(),
	}
}

// Unfurl implements Unfurler.
func (u *HTTPUnfurler) Unfurl(ctx context.Context, link string) (Preview, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return Preview{}, fmt.Errorf("failed to build unfurl request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := u.client.Do(req)
	if err != nil {
		return Preview{}, fmt.Errorf("unfurl fetch failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Preview{}, fmt.Errorf("unfurl fetch failed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, u.maxBody))
	if err != nil {
		return Preview{}, fmt.Errorf("unfurl read failed: %w", err)
	}

	var p Preview
	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(bytes.NewReader(body)); err == nil && len(og.Images) > 0 {
		p.OGImage = og.Images[0].URL
	}
	p.CardImage = findCardImage(bytes.NewReader(body))

	u.log.Debug().Str("url", link).
		Bool("og", p.OGImage != "").
		Bool("card", p.CardImage != "").
		Msg("Unfurled link")
	return p, nil
}

// findCardImage scans meta tags for a twitter:image entry, which the
// OpenGraph parser does not cover.
func findCardImage(r io.Reader) string {
	tokenizer := html.NewTokenizer(r)
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if token.Data != "meta" {
				continue
			}
			var name, content string
			for _, attr := range token.Attr {
				switch attr.Key {
				case "name", "property":
					name = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if (name == "twitter:image" || name == "twitter:image:src") && strings.TrimSpace(content) != "" {
				return strings.TrimSpace(content)
			}
		}
	}
}
