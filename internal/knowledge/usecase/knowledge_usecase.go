package usecase

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	billingdomain "inboxpilot-backend/internal/billing/domain"
	"inboxpilot-backend/internal/knowledge/domain"
	"inboxpilot-backend/internal/knowledge/repository"
	"inboxpilot-backend/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// PlanLookup resolves the plan that bounds an organization's crawl.
type PlanLookup interface {
	CurrentPlan(ctx context.Context, orgID string) billingdomain.Plan
}

type KnowledgeUsecase interface {
	CrawlWebsite(ctx context.Context, orgID, rawURL string, mode domain.CrawlMode, excludePaths []string) (*domain.CrawlResult, error)
	RemovePages(ctx context.Context, orgID string, urls []string) (*domain.Source, error)
	GetSource(ctx context.Context, orgID string) (*domain.Source, error)
	SearchPages(ctx context.Context, orgID, query string, limit int) ([]domain.SearchHit, error)
}

type knowledgeUsecase struct {
	repo     repository.SourceRepository
	crawler  domain.Crawler
	indexer  domain.Indexer
	plans    PlanLookup
	validate *validator.Validate
	now      func() time.Time
}

// NewKnowledgeUsecase wires the crawler. indexer may be nil, in which case
// pages are only stored on the source row.
func NewKnowledgeUsecase(repo repository.SourceRepository, crawler domain.Crawler, indexer domain.Indexer, plans PlanLookup) KnowledgeUsecase {
	return &knowledgeUsecase{
		repo:     repo,
		crawler:  crawler,
		indexer:  indexer,
		plans:    plans,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (u *knowledgeUsecase) CrawlWebsite(ctx context.Context, orgID, rawURL string, mode domain.CrawlMode, excludePaths []string) (*domain.CrawlResult, error) {
	if u.crawler == nil {
		return nil, apperror.Validation("website crawler is not configured")
	}
	if mode == "" {
		mode = domain.CrawlPage
	}
	if !mode.Valid() {
		return nil, apperror.Validation("mode must be page or site")
	}
	if err := u.validate.Var(rawURL, "required,http_url"); err != nil {
		return nil, apperror.Validation("a valid http(s) url is required")
	}
	plan := u.plans.CurrentPlan(ctx, orgID)

	links := []string{rawURL}
	if mode == domain.CrawlSite {
		mapped, err := u.crawler.Map(ctx, rawURL, plan.Links)
		if err != nil {
			return nil, fmt.Errorf("failed to map website: %w", err)
		}
		links = filterLinks(mapped, excludePaths, plan.Links)
	}

	pages := make([]*domain.ScrapedPage, len(links))
	g, gctx := errgroup.WithContext(ctx)
	for i, link := range links {
		g.Go(func() error {
			page, err := u.crawler.Scrape(gctx, link)
			if err != nil {
				log.Printf("[Crawler] Failed to scrape %s: %v", link, err)
				return nil
			}
			pages[i] = page
			return nil
		})
	}
	_ = g.Wait()

	source, err := u.loadOrNew(ctx, orgID)
	if err != nil {
		return nil, err
	}

	result := &domain.CrawlResult{Added: []string{}, Skipped: []string{}, Failed: []string{}}
	total := source.WebsiteData.Characters()
	var added []*domain.ScrapedPage
	for i, page := range pages {
		if page == nil {
			result.Failed = append(result.Failed, links[i])
			continue
		}
		text := strings.TrimSpace(page.Markdown)
		next := total - int64(len(source.WebsiteData[links[i]])) + int64(len(text))
		if text == "" || next > plan.CharactersPerChatbot {
			result.Skipped = append(result.Skipped, links[i])
			continue
		}
		page.URL = links[i]
		source.WebsiteData[links[i]] = text
		total = next
		result.Added = append(result.Added, links[i])
		added = append(added, page)
	}

	if len(added) == 0 {
		return result, nil
	}

	trained := u.now()
	source.LastTrained = &trained
	if err := u.repo.Save(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to save source: %w", err)
	}
	log.Printf("[Crawler] Stored %d pages for org %s (%d skipped, %d failed)", len(result.Added), orgID, len(result.Skipped), len(result.Failed))

	if u.indexer != nil {
		for _, page := range added {
			if err := u.indexer.UpsertPage(ctx, orgID, page.URL, page.Title, source.WebsiteData[page.URL]); err != nil {
				log.Printf("[Chroma] Failed to index %s: %v", page.URL, err)
			}
		}
	}
	return result, nil
}

// filterLinks drops links whose path starts with an excluded prefix and keeps
// at most limit of the rest, in order.
func filterLinks(links, excludePaths []string, limit int64) []string {
	prefixes := make([]string, 0, len(excludePaths))
	for _, p := range excludePaths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		prefixes = append(prefixes, p)
	}

	seen := make(map[string]bool, len(links))
	out := make([]string, 0, len(links))
	for _, link := range links {
		if seen[link] || int64(len(out)) >= limit {
			continue
		}
		parsed, err := url.Parse(link)
		if err != nil {
			continue
		}
		excluded := false
		for _, p := range prefixes {
			if strings.HasPrefix(parsed.Path, p) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		seen[link] = true
		out = append(out, link)
	}
	return out
}

func (u *knowledgeUsecase) loadOrNew(ctx context.Context, orgID string) (*domain.Source, error) {
	source, err := u.repo.FindByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source: %w", err)
	}
	if source == nil {
		source = &domain.Source{ID: uuid.New().String(), OrgID: orgID}
	}
	if source.WebsiteData == nil {
		source.WebsiteData = domain.PageMap{}
	}
	return source, nil
}

func (u *knowledgeUsecase) RemovePages(ctx context.Context, orgID string, urls []string) (*domain.Source, error) {
	if len(urls) == 0 {
		return nil, apperror.Validation("at least one url is required")
	}
	source, err := u.repo.FindByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source: %w", err)
	}
	if source == nil {
		return nil, apperror.NotFound("no knowledge source for organization")
	}

	var removed []string
	for _, link := range urls {
		if _, ok := source.WebsiteData[link]; ok {
			delete(source.WebsiteData, link)
			removed = append(removed, link)
		}
	}
	if len(removed) == 0 {
		return source, nil
	}
	if err := u.repo.Save(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to save source: %w", err)
	}
	if u.indexer != nil {
		if err := u.indexer.DeletePages(ctx, orgID, removed); err != nil {
			log.Printf("[Chroma] Failed to delete pages for org %s: %v", orgID, err)
		}
	}
	return source, nil
}

func (u *knowledgeUsecase) GetSource(ctx context.Context, orgID string) (*domain.Source, error) {
	source, err := u.repo.FindByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source: %w", err)
	}
	if source == nil {
		return nil, apperror.NotFound("no knowledge source for organization")
	}
	return source, nil
}

func (u *knowledgeUsecase) SearchPages(ctx context.Context, orgID, query string, limit int) ([]domain.SearchHit, error) {
	if u.indexer == nil {
		return nil, apperror.Validation("search index is not configured")
	}
	if strings.TrimSpace(query) == "" {
		return nil, apperror.Validation("query is required")
	}
	if limit <= 0 || limit > 20 {
		limit = 5
	}
	source, err := u.GetSource(ctx, orgID)
	if err != nil {
		return nil, err
	}

	ids, distances, err := u.indexer.Search(ctx, orgID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search pages: %w", err)
	}

	urlByID := make(map[string]string, len(source.WebsiteData))
	for link := range source.WebsiteData {
		urlByID[u.indexer.DocumentID(orgID, link)] = link
	}
	hits := make([]domain.SearchHit, 0, len(ids))
	for i, id := range ids {
		link, ok := urlByID[id]
		if !ok {
			// indexed page no longer on the source
			continue
		}
		hit := domain.SearchHit{URL: link}
		if i < len(distances) {
			hit.Distance = distances[i]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
