// Package firecrawl adapts the Firecrawl SDK to the knowledge crawler.
package firecrawl

import (
	"context"
	"encoding/json"
	"fmt"

	"inboxpilot-backend/internal/knowledge/domain"
	"inboxpilot-backend/pkg/metrics"

	fc "github.com/mendableai/firecrawl-go/v2"
)

type Client struct {
	app *fc.FirecrawlApp
}

// NewClient builds the crawler. An empty baseURL uses the hosted Firecrawl API.
func NewClient(apiKey, baseURL string) (*Client, error) {
	app, err := fc.NewFirecrawlApp(apiKey, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firecrawl client: %w", err)
	}
	return &Client{app: app}, nil
}

// Map lists up to limit links reachable from url.
func (c *Client) Map(ctx context.Context, url string, limit int64) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := int(limit)
	resp, err := c.app.MapURL(url, &fc.MapParams{Limit: &n})
	metrics.ProviderCall("firecrawl", "map", err)
	if err != nil {
		return nil, fmt.Errorf("map failed: %w", err)
	}

	// links arrive as plain URLs or as link objects depending on the API version;
	// the page metadata fields vary the same way, so both are read through JSON
	var decoded struct {
		Links []mappedLink `json:"links"`
	}
	if err := reshape(resp, &decoded); err != nil {
		return nil, fmt.Errorf("failed to read map response: %w", err)
	}
	links := make([]string, 0, len(decoded.Links))
	for _, l := range decoded.Links {
		if l != "" {
			links = append(links, string(l))
		}
	}
	return links, nil
}

// Scrape fetches one page as markdown.
func (c *Client) Scrape(ctx context.Context, url string) (*domain.ScrapedPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := c.app.ScrapeURL(url, &fc.ScrapeParams{Formats: []string{"markdown"}})
	metrics.ProviderCall("firecrawl", "scrape", err)
	if err != nil {
		return nil, fmt.Errorf("scrape failed: %w", err)
	}

	var page struct {
		Markdown string `json:"markdown"`
		Metadata struct {
			Title string `json:"title"`
		} `json:"metadata"`
	}
	if err := reshape(doc, &page); err != nil {
		return nil, fmt.Errorf("failed to read scraped page: %w", err)
	}
	return &domain.ScrapedPage{URL: url, Title: page.Metadata.Title, Markdown: page.Markdown}, nil
}

type mappedLink string

func (l *mappedLink) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = mappedLink(s)
		return nil
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*l = mappedLink(obj.URL)
	return nil
}

func reshape(in, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
