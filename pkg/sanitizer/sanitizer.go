// Package sanitizer cleans user-supplied text before it is stored.
package sanitizer

import (
	"io"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var (
	notesPolicyOnce sync.Once
	notesPolicy     *bluemonday.Policy
)

// PlainText strips all markup and collapses runs of whitespace into single spaces.
//
//   - "<b>Jane</b>  Doe" -> "Jane Doe"
//   - "O+" -> "O+"
func PlainText(input string) string {
	return strings.Join(strings.Fields(StripTags(input)), " ")
}

// StripTags removes HTML/XML tags and keeps text nodes. Entities are decoded.
// It is a content cleaner; use Notes for anything rendered back as HTML.
func StripTags(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	if !strings.ContainsAny(input, "<&") {
		return input
	}

	tokenizer := html.NewTokenizer(strings.NewReader(input))
	var buf strings.Builder

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			if tokenizer.Err() == io.EOF {
				break
			}
			return ""
		}
		if tt == html.TextToken {
			buf.WriteString(tokenizer.Token().Data)
		}
	}

	return strings.TrimSpace(buf.String())
}

// Notes sanitizes free-form notes, keeping basic formatting (paragraphs, lists,
// emphasis, links) and dropping scripts, styles and event handlers.
func Notes(input string) string {
	notesPolicyOnce.Do(func() {
		notesPolicy = bluemonday.UGCPolicy()
	})
	return strings.TrimSpace(notesPolicy.Sanitize(input))
}
