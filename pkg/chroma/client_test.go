package chroma

import (
	"testing"

	"inboxpilot-backend/pkg/config"
)

func TestDocumentIDStable(t *testing.T) {
	var p *PageIndex
	a := p.DocumentID("org-1", "https://acme.test/pricing")
	if a != p.DocumentID("org-1", "https://acme.test/pricing") {
		t.Error("expected the same id for the same org and url")
	}
	if a == p.DocumentID("org-2", "https://acme.test/pricing") {
		t.Error("expected different ids across organizations")
	}
	if a == p.DocumentID("org-1", "https://acme.test/") {
		t.Error("expected different ids across urls")
	}
}

func TestNewPageIndexRequiresKey(t *testing.T) {
	if _, err := NewPageIndex(&config.Config{}); err == nil {
		t.Error("expected error without CHROMA_API_KEY")
	}
}
