// Package render turns comment markdown into sanitized HTML.
package render

import (
	"bytes"
	"fmt"
	"html"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown to HTML safe to embed in a page. Results are
// cached by source text, so identical messages render once.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	cache  *lru.Cache[string, string]
}

// New creates a Renderer holding at most cacheSize rendered messages
func New(cacheSize int) (*Renderer, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create render cache: %w", err)
	}

	policy := bluemonday.UGCPolicy()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
			goldmark.WithRendererOptions(
				goldhtml.WithHardWraps(),
			),
		),
		policy: policy,
		cache:  cache,
	}, nil
}

// Render returns sanitized HTML for a markdown message
func (r *Renderer) Render(source string) string {
	if cached, ok := r.cache.Get(source); ok {
		return cached
	}

	var buf bytes.Buffer
	var out string
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		out = "<p>" + html.EscapeString(source) + "</p>"
	} else {
		out = string(r.policy.SanitizeBytes(buf.Bytes()))
	}

	r.cache.Add(source, out)
	return out
}
