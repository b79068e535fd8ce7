package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rcliao/synapse/internal/model"
)

// SearchMode selects the ranking strategy.
type SearchMode string

const (
	ModeSemantic SearchMode = "semantic"
	ModeKeyword  SearchMode = "keyword"
	ModeHybrid   SearchMode = "hybrid"
)

// DefaultSearchLimit is sent when SearchOptions.Limit is zero.
const DefaultSearchLimit = 10

// ParseSearchMode accepts a mode name, case-insensitively.
func ParseSearchMode(s string) (SearchMode, error) {
	switch m := SearchMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSemantic, ModeKeyword, ModeHybrid:
		return m, nil
	}
	return "", fmt.Errorf("unknown search mode %q (valid: semantic, keyword, hybrid)", s)
}

// SearchOptions tunes a search. Weights only apply to hybrid mode and are
// sent on the query string; zero weights are left to the server's defaults.
type SearchOptions struct {
	Limit          int
	ContentType    model.MemoryType
	SemanticWeight float64
	KeywordWeight  float64
}

// searchBody is shared by all modes; keyword mode names its text field differently.
type searchBody struct {
	Query       string           `json:"query,omitempty"`
	Keywords    string           `json:"keywords,omitempty"`
	Limit       int              `json:"limit"`
	ContentType model.MemoryType `json:"contentType,omitempty"`
}

func searchRequest(mode SearchMode, query string, opts SearchOptions) (request, error) {
	if strings.TrimSpace(query) == "" {
		return request{}, &ValidationError{Op: string(mode) + " search", Fields: []string{"query is required"}}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	body := searchBody{Limit: limit, ContentType: opts.ContentType}

	r := request{method: http.MethodPost, path: "/api/search/" + string(mode), body: &body}
	switch mode {
	case ModeSemantic:
		body.Query = query
	case ModeKeyword:
		body.Keywords = query
	case ModeHybrid:
		body.Query = query
		if opts.SemanticWeight != 0 {
			r.query = r.query.add("semantic_weight", formatWeight(opts.SemanticWeight))
		}
		if opts.KeywordWeight != 0 {
			r.query = r.query.add("keyword_weight", formatWeight(opts.KeywordWeight))
		}
	default:
		return request{}, fmt.Errorf("unknown search mode %q", mode)
	}
	return r, nil
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

// Search runs a ranked search in the given mode.
func (c *Client) Search(ctx context.Context, mode SearchMode, query string, opts SearchOptions) ([]model.SearchResult, error) {
	r, err := searchRequest(mode, query, opts)
	if err != nil {
		return nil, err
	}
	var out []model.SearchResult
	err = c.do(ctx, r, &out)
	return out, err
}

// SemanticSearch ranks memories by meaning.
func (c *Client) SemanticSearch(ctx context.Context, query string, opts SearchOptions) ([]model.SearchResult, error) {
	return c.Search(ctx, ModeSemantic, query, opts)
}

// KeywordSearch ranks memories by keyword match.
func (c *Client) KeywordSearch(ctx context.Context, keywords string, opts SearchOptions) ([]model.SearchResult, error) {
	return c.Search(ctx, ModeKeyword, keywords, opts)
}

// HybridSearch combines semantic and keyword relevance.
func (c *Client) HybridSearch(ctx context.Context, query string, opts SearchOptions) ([]model.SearchResult, error) {
	return c.Search(ctx, ModeHybrid, query, opts)
}

// Related returns memories similar to memoryID. A non-positive limit is not sent.
func (c *Client) Related(ctx context.Context, memoryID string, limit int) ([]model.SearchResult, error) {
	if err := requireID("related", "memory id", memoryID); err != nil {
		return nil, err
	}
	var q params
	if limit > 0 {
		q = q.add("limit", strconv.Itoa(limit))
	}
	var out []model.SearchResult
	err := c.do(ctx, request{method: http.MethodGet, path: pathf("/api/search/related/%s", memoryID), query: q}, &out)
	return out, err
}
