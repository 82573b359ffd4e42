// Package rewrite enriches search queries with a chat model before they are
// embedded.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// SystemPrompt instructs the model how to rewrite a query.
const SystemPrompt = "You are to enrich the user's search queries for use with embedding search. " +
	"Make sure to emphasize key topics and potentially relevant topics to the query."

var (
	// ErrRewrite wraps every failure to obtain a rewritten query.
	ErrRewrite = errors.New("query rewrite failed")

	// ErrEmptyRewrite is returned when the model answers with no text.
	ErrEmptyRewrite = fmt.Errorf("%w: empty response", ErrRewrite)
)

// Rewriter rewrites a search query into text better suited for embedding
// search. tags may give further context and can be empty.
type Rewriter interface {
	Rewrite(ctx context.Context, query string, tags []string) (string, error)
}

// UserPrompt formats the query and its tags for the model.
func UserPrompt(query string, tags []string) string {
	var b strings.Builder
	b.WriteString("USER QUERY = {")
	b.WriteString(query)
	b.WriteString("}")
	if len(tags) > 0 {
		b.WriteString(" TAGS = {")
		b.WriteString(strings.Join(tags, " "))
		b.WriteString("}")
	}
	return b.String()
}
