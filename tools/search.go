package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tandemkit/tandem/schema"
)

const (
	defaultSearchEndpoint = "https://html.duckduckgo.com/html/"
	defaultSearchLimit    = 5
	maxSearchLimit        = 10
	searchUserAgent       = "Mozilla/5.0 (compatible; tandem/1.0)"
)

// SearchResult is a single search hit.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// SearchResponse is the JSON payload returned to the model.
type SearchResponse struct {
	Query   string         `json:"query"`
	Count   int            `json:"count"`
	Results []SearchResult `json:"results"`
}

// SearchTool queries the DuckDuckGo HTML endpoint and scrapes results.
// The network call is opaque to the framework; only the JSON result shape
// is part of the contract.
type SearchTool struct {
	*BaseTool
	endpoint     string
	client       *http.Client
	defaultLimit int
}

type searchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchOption configures the search tool.
type SearchOption func(*SearchTool)

// WithSearchEndpoint overrides the search endpoint, mainly for tests.
func WithSearchEndpoint(endpoint string) SearchOption {
	return func(t *SearchTool) { t.endpoint = endpoint }
}

// WithSearchClient overrides the HTTP client.
func WithSearchClient(client *http.Client) SearchOption {
	return func(t *SearchTool) { t.client = client }
}

// WithSearchLimit sets the default result count used when the model does
// not ask for a specific limit.
func WithSearchLimit(limit int) SearchOption {
	return func(t *SearchTool) {
		if limit > 0 && limit <= maxSearchLimit {
			t.defaultLimit = limit
		}
	}
}

// NewSearchTool creates the web_search tool.
func NewSearchTool(opts ...SearchOption) *SearchTool {
	toolSchema := CreateToolSchema(
		"Search the web and return result titles, snippets and URLs",
		map[string]interface{}{
			"query": StringProperty("Search query string"),
			"limit": IntegerProperty(fmt.Sprintf("Maximum number of results (default %d, max %d)", defaultSearchLimit, maxSearchLimit)),
		},
		[]string{"query"},
	)
	t := &SearchTool{
		BaseTool: NewBaseTool("web_search", "Searches the web for current information", toolSchema),
		endpoint:     defaultSearchEndpoint,
		client:       &http.Client{Timeout: 20 * time.Second},
		defaultLimit: defaultSearchLimit,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *SearchTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var args searchArgs
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, schema.NewToolError(t.Name(), "decode", err)
	}
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return nil, schema.NewValidationError("query", args.Query, "query cannot be empty")
	}
	limit := args.Limit
	if limit <= 0 {
		limit = t.defaultLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	results, err := t.search(ctx, query, limit)
	if err != nil {
		return nil, schema.NewToolError(t.Name(), "search", err)
	}

	return json.Marshal(SearchResponse{
		Query:   query,
		Count:   len(results),
		Results: results,
	})
}

func (t *SearchTool) search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	form := url.Values{}
	form.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", searchUserAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search endpoint returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, limit)
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a")
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		snippet := strings.TrimSpace(sel.Find(".result__snippet").Text())
		if title == "" || href == "" {
			return true
		}
		results = append(results, SearchResult{
			Title:   title,
			Snippet: snippet,
			URL:     cleanResultURL(href),
		})
		return len(results) < limit
	})

	return results, nil
}

// cleanResultURL strips the DuckDuckGo redirect wrapper when present.
func cleanResultURL(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		if unwrapped, err := url.QueryUnescape(target); err == nil {
			return unwrapped
		}
	}
	return href
}
