package server

import (
	"context"
	"testing"

	"github.com/preston-bernstein/bracket-live-service/internal/config"
)

func TestProviderFactoryBuildsWrappedFixture(t *testing.T) {
	factory := newProviderFactory(nil, nil)
	prov := factory.build(config.Config{Provider: "fixture"})
	if prov == nil {
		t.Fatalf("expected provider")
	}

	snap, err := prov.FetchSnapshot(context.Background(), "any")
	if err != nil {
		t.Fatalf("expected embedded sample, got %v", err)
	}
	if len(snap.Teams) == 0 {
		t.Fatalf("expected sample rounds")
	}
}

func TestNormalizeProviderName(t *testing.T) {
	if got := normalizeProviderName("Upstream", nil); got != "upstream" {
		t.Fatalf("expected lower-cased name, got %q", got)
	}
	if got := normalizeProviderName("", nil); got != "provider" {
		t.Fatalf("expected fallback name, got %q", got)
	}
	if got := normalizeProviderName("", selectProvider(config.Config{}, nil)); got != "*fixture.provider" {
		t.Fatalf("expected type-derived name, got %q", got)
	}
}
