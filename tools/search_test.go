package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

const searchFixture = `<html><body>
<div class="result">
  <a class="result__a" href="https://duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fgdp">UK GDP statistics</a>
  <div class="result__snippet">GDP figures for the United Kingdom over the past five years.</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.org/other">Other page</a>
  <div class="result__snippet">Something else entirely.</div>
</div>
</body></html>`

func TestSearchToolScrapesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("q") == "" {
			t.Errorf("missing query parameter")
		}
		w.Write([]byte(searchFixture))
	}))
	defer server.Close()

	tool := NewSearchTool(WithSearchEndpoint(server.URL), WithSearchClient(server.Client()))

	raw, err := tool.Execute(context.Background(), json.RawMessage(`{"query":"uk gdp","limit":1}`))
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}

	var resp SearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("bad result payload: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("limit not applied, got %d results", resp.Count)
	}
	if resp.Results[0].Title != "UK GDP statistics" {
		t.Errorf("unexpected title: %s", resp.Results[0].Title)
	}
	if resp.Results[0].URL != "https://example.com/gdp" {
		t.Errorf("redirect wrapper not stripped: %s", resp.Results[0].URL)
	}
}

func TestSearchToolRejectsEmptyQuery(t *testing.T) {
	tool := NewSearchTool()
	if _, err := tool.Execute(context.Background(), json.RawMessage(`{"query":"  "}`)); err == nil {
		t.Error("empty query should be rejected")
	}
}
