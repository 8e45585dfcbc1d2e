package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/tandemkit/tandem/schema"
)

const (
	maxFetchBytes    = 2 << 20 // 2MB response cap
	maxMarkdownRunes = 20000   // keep pages within a model-friendly size
)

// FetchTool downloads a page and converts it to markdown so agents can
// read it without HTML noise.
type FetchTool struct {
	*BaseTool
	client    *http.Client
	converter *md.Converter
}

type fetchArgs struct {
	URL string `json:"url"`
}

type fetchResponse struct {
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Markdown  string `json:"markdown"`
	Truncated bool   `json:"truncated,omitempty"`
}

// NewFetchTool creates the fetch_page tool.
func NewFetchTool() *FetchTool {
	toolSchema := CreateToolSchema(
		"Fetch a web page and return its content as markdown",
		map[string]interface{}{
			"url": StringProperty("Absolute URL of the page to fetch"),
		},
		[]string{"url"},
	)
	return &FetchTool{
		BaseTool:  NewBaseTool("fetch_page", "Fetches a web page and converts it to markdown", toolSchema),
		client:    &http.Client{Timeout: 20 * time.Second},
		converter: md.NewConverter("", true, nil),
	}
}

func (t *FetchTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var args fetchArgs
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, schema.NewToolError(t.Name(), "decode", err)
	}

	target, err := url.Parse(strings.TrimSpace(args.URL))
	if err != nil || !target.IsAbs() {
		return nil, schema.NewValidationError("url", args.URL, "must be an absolute URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, schema.NewToolError(t.Name(), "request", err)
	}
	req.Header.Set("User-Agent", searchUserAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, schema.NewToolError(t.Name(), "fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, schema.NewToolError(t.Name(), "fetch", fmt.Errorf("status %d from %s", resp.StatusCode, target.Host))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, schema.NewToolError(t.Name(), "read", err)
	}

	markdown, err := t.converter.ConvertString(string(body))
	if err != nil {
		return nil, schema.NewToolError(t.Name(), "convert", err)
	}

	out := fetchResponse{URL: target.String(), Title: pageTitle(string(body))}
	runes := []rune(markdown)
	if len(runes) > maxMarkdownRunes {
		out.Markdown = string(runes[:maxMarkdownRunes])
		out.Truncated = true
	} else {
		out.Markdown = markdown
	}

	return json.Marshal(out)
}

func pageTitle(html string) string {
	lower := strings.ToLower(html)
	start := strings.Index(lower, "<title")
	if start < 0 {
		return ""
	}
	open := strings.Index(html[start:], ">")
	if open < 0 {
		return ""
	}
	rest := html[start+open+1:]
	end := strings.Index(strings.ToLower(rest), "</title>")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}
