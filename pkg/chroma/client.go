package chroma

import (
	"context"
	"fmt"
	"log"
	"os"

	"inboxpilot-backend/pkg/config"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings/gemini"
	"github.com/google/uuid"
)

const (
	collectionName = "knowledge"
	maxDocumentLen = 10000
)

// PageIndex stores crawled website pages as embeddings, one document per
// organization and URL.
type PageIndex struct {
	collection chroma.Collection
}

func NewPageIndex(cfg *config.Config) (*PageIndex, error) {
	if cfg.ChromaAPIKey == "" {
		return nil, fmt.Errorf("CHROMA_API_KEY is required")
	}

	if cfg.GeminiApiKey != "" {
		os.Setenv("GEMINI_API_KEY", cfg.GeminiApiKey)
	}

	embedFunc, err := gemini.NewGeminiEmbeddingFunction(
		gemini.WithEnvAPIKey(),
		gemini.WithDefaultModel("text-embedding-004"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini embedding function: %w", err)
	}

	var client chroma.Client
	switch {
	case cfg.ChromaDatabase != "" && cfg.ChromaTenant != "":
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
			chroma.WithDatabaseAndTenant(cfg.ChromaDatabase, cfg.ChromaTenant),
		)
	case cfg.ChromaTenant != "":
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
			chroma.WithTenant(cfg.ChromaTenant),
		)
	default:
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Chroma client: %w", err)
	}

	collection, err := client.GetOrCreateCollection(
		context.Background(),
		collectionName,
		chroma.WithEmbeddingFunctionCreate(embedFunc),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("[Chroma] Initialized collection: %s", collectionName)

	return &PageIndex{collection: collection}, nil
}

// DocumentID is the stable id of a page within an organization.
func (p *PageIndex) DocumentID(orgID, url string) string {
	return documentID(orgID, url)
}

func documentID(orgID, url string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(orgID+"|"+url)).String()
}

// UpsertPage replaces the stored embedding for url.
func (p *PageIndex) UpsertPage(ctx context.Context, orgID, url, title, text string) error {
	doc := fmt.Sprintf("Title: %s\n\n%s", title, text)
	if len(doc) > maxDocumentLen {
		doc = doc[:maxDocumentLen]
	}

	metadata, err := chroma.NewDocumentMetadataFromMap(map[string]interface{}{
		"org_id": orgID,
		"url":    url,
		"title":  title,
	})
	if err != nil {
		return fmt.Errorf("failed to create metadata: %w", err)
	}

	err = p.collection.Upsert(
		ctx,
		chroma.WithIDs(chroma.DocumentID(documentID(orgID, url))),
		chroma.WithMetadatas(metadata),
		chroma.WithTexts(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert page: %w", err)
	}
	return nil
}

func (p *PageIndex) DeletePages(ctx context.Context, orgID string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	ids := make([]chroma.DocumentID, 0, len(urls))
	for _, u := range urls {
		ids = append(ids, chroma.DocumentID(documentID(orgID, u)))
	}
	if err := p.collection.Delete(ctx, chroma.WithIDsDelete(ids...)); err != nil {
		return fmt.Errorf("failed to delete pages: %w", err)
	}
	return nil
}

// Search returns the document ids closest to query within the organization,
// nearest first, with their distances.
func (p *PageIndex) Search(ctx context.Context, orgID, query string, limit int) ([]string, []float64, error) {
	results, err := p.collection.Query(
		ctx,
		chroma.WithQueryTexts(query),
		chroma.WithNResults(limit),
		chroma.WithWhereQuery(chroma.EqString("org_id", orgID)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query collection: %w", err)
	}
	if results == nil || results.CountGroups() == 0 {
		return []string{}, []float64{}, nil
	}

	idGroups := results.GetIDGroups()
	if len(idGroups) == 0 {
		return []string{}, []float64{}, nil
	}
	ids := make([]string, 0, len(idGroups[0]))
	for _, id := range idGroups[0] {
		ids = append(ids, string(id))
	}

	distances := []float64{}
	if groups := results.GetDistancesGroups(); len(groups) > 0 {
		for _, d := range groups[0] {
			distances = append(distances, float64(d))
		}
	}
	return ids, distances, nil
}
