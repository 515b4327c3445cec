package domain

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"time"
)

// PageMap maps a page URL to its scraped text. Stored as a JSON text column.
type PageMap map[string]string

// Value implements driver.Valuer
func (m PageMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (m *PageMap) Scan(value interface{}) error {
	*m = PageMap{}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// Characters is the total text length across all pages.
func (m PageMap) Characters() int64 {
	var n int64
	for _, text := range m {
		n += int64(len(text))
	}
	return n
}

// Source holds an organization's knowledge used to answer email.
type Source struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	OrgID       string     `json:"org_id" gorm:"uniqueIndex;not null"`
	WebsiteData PageMap    `json:"website_data" gorm:"type:text"`
	LastTrained *time.Time `json:"last_trained"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type CrawlMode string

const (
	CrawlPage CrawlMode = "page"
	CrawlSite CrawlMode = "site"
)

func (m CrawlMode) Valid() bool {
	return m == CrawlPage || m == CrawlSite
}

// CrawlResult reports what happened to each discovered link.
type CrawlResult struct {
	Added   []string `json:"added"`
	Skipped []string `json:"skipped"` // over the plan's character limit or empty
	Failed  []string `json:"failed"`
}

type SearchHit struct {
	URL      string  `json:"url"`
	Distance float64 `json:"distance"`
}

type ScrapedPage struct {
	URL      string
	Title    string
	Markdown string
}

// Crawler discovers and fetches website pages.
type Crawler interface {
	Map(ctx context.Context, url string, limit int64) ([]string, error)
	Scrape(ctx context.Context, url string) (*ScrapedPage, error)
}

// Indexer keeps page embeddings in a vector store.
type Indexer interface {
	DocumentID(orgID, url string) string
	UpsertPage(ctx context.Context, orgID, url, title, text string) error
	DeletePages(ctx context.Context, orgID string, urls []string) error
	Search(ctx context.Context, orgID, query string, limit int) ([]string, []float64, error)
}
