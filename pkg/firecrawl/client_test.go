package firecrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMapAndScrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer fc-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/map"):
			if body["limit"] != float64(30) {
				t.Errorf("expected limit 30, got %v", body["limit"])
			}
			w.Write([]byte(`{"success":true,"links":["https://acme.test/","https://acme.test/pricing"]}`))
		case strings.HasSuffix(r.URL.Path, "/scrape"):
			if body["url"] != "https://acme.test/pricing" {
				t.Errorf("unexpected scrape url %v", body["url"])
			}
			w.Write([]byte(`{"success":true,"data":{"markdown":"# Pricing","metadata":{"title":"Pricing","sourceURL":"https://acme.test/pricing"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c, err := NewClient("fc-key", server.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	ctx := context.Background()

	links, err := c.Map(ctx, "https://acme.test", 30)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if len(links) != 2 || links[1] != "https://acme.test/pricing" {
		t.Fatalf("unexpected links %v", links)
	}

	page, err := c.Scrape(ctx, "https://acme.test/pricing")
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if page.Markdown != "# Pricing" || page.Title != "Pricing" || page.URL != "https://acme.test/pricing" {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestScrapeErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"success":false,"error":"insufficient credits"}`))
	}))
	defer server.Close()

	c, err := NewClient("fc-key", server.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, err := c.Scrape(context.Background(), "https://acme.test"); err == nil {
		t.Error("expected error on non-2xx status")
	}
	if _, err := c.Map(context.Background(), "https://acme.test", 1); err == nil {
		t.Error("expected error on non-2xx status")
	}
}

func TestCanceledContextSkipsRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	c, _ := NewClient("fc-key", server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Scrape(ctx, "https://acme.test"); err == nil {
		t.Error("expected canceled context error")
	}
	if called {
		t.Error("no request should be sent after cancellation")
	}
}

func TestMappedLinkAcceptsObjects(t *testing.T) {
	var decoded struct {
		Links []mappedLink `json:"links"`
	}
	if err := json.Unmarshal([]byte(`{"links":["https://a.test",{"url":"https://b.test","title":"B"}]}`), &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(decoded.Links) != 2 || decoded.Links[0] != "https://a.test" || decoded.Links[1] != "https://b.test" {
		t.Errorf("unexpected links %v", decoded.Links)
	}
}
