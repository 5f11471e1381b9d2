// Package websearch fetches external context for a sales question.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxResults caps results per query.
const DefaultMaxResults = 5

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Client searches the web.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Format renders results as a bullet list for prompts.
func Format(results []Result) string {
	if len(results) == 0 {
		return "No relevant web results found."
	}
	var b strings.Builder
	for _, r := range results {
		title := r.Title
		if title == "" {
			title = r.URL
		}
		fmt.Fprintf(&b, "- %s", title)
		if r.URL != "" && r.URL != title {
			fmt.Fprintf(&b, " (%s)", r.URL)
		}
		if c := Clean(r.Content); c != "" {
			fmt.Fprintf(&b, ": %s", c)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

type fallback []Client

// Fallback tries each client in order and returns the first successful
// non-empty result set.
func Fallback(clients ...Client) Client {
	return fallback(clients)
}

func (f fallback) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	var errs []error
	for _, c := range f {
		if c == nil {
			continue
		}
		res, err := c.Search(ctx, query, maxResults)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			errs = append(errs, err)
			continue
		}
		if len(res) > 0 {
			return res, nil
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, nil
}
