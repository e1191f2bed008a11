package match_test

import (
	"context"
	"testing"

	"github.com/ratchetapps/urlstash/internal/history"
	"github.com/ratchetapps/urlstash/internal/match"
	"github.com/ratchetapps/urlstash/internal/testsupport"
)

func newEngine(t *testing.T, rows []history.Row) *match.Engine {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if len(rows) > 0 {
		testsupport.SeedRows(t, store, rows...)
	}
	return match.NewEngine(store, nil)
}

func TestFindMatchesAcrossFormatting(t *testing.T) {
	engine := newEngine(t, []history.Row{
		{URL: "https://example.net/scene", Title: "Scene Title!"},
	})

	result, found, err := engine.Find(context.Background(), "Scene_Title-02.mp4")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !found {
		t.Fatal("expected a match")
	}
	if result.URL != "https://example.net/scene" {
		t.Fatalf("unexpected URL %q", result.URL)
	}
	if result.CanonicalKey != "scenetitle" {
		t.Fatalf("unexpected key %q", result.CanonicalKey)
	}
}

func TestFindPrefersEarliestOnAmbiguity(t *testing.T) {
	engine := newEngine(t, []history.Row{
		{URL: "https://example.net/first", Title: "Shared Name"},
		{URL: "https://example.net/second", Title: "Shared Name"},
	})

	result, found, err := engine.Find(context.Background(), "Shared-Name.mkv")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !found {
		t.Fatal("expected a match")
	}
	if result.URL != "https://example.net/first" {
		t.Fatalf("earliest record should win, got %q", result.URL)
	}
	if len(result.Alternates) != 1 || result.Alternates[0] != "https://example.net/second" {
		t.Fatalf("unexpected alternates: %v", result.Alternates)
	}
}

func TestFindNoMatch(t *testing.T) {
	engine := newEngine(t, []history.Row{
		{URL: "https://example.net/a", Title: "Something Else"},
	})

	result, found, err := engine.Find(context.Background(), "Unseen_Scene.mp4")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found {
		t.Fatalf("expected no match, got %+v", result)
	}
	if result.CanonicalKey != "unseenscene" {
		t.Fatalf("unexpected key %q", result.CanonicalKey)
	}
}

func TestFindEmptyKey(t *testing.T) {
	engine := newEngine(t, nil)

	_, found, err := engine.Find(context.Background(), "---.mp4")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found {
		t.Fatal("empty key must not match")
	}
}
