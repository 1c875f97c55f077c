package memory

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"finwise/internal/core"
	"finwise/internal/ports"
)

func TestStoreProfilesAndStates(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.GetProfile(ctx, "u1"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.SaveProfile(ctx, core.Profile{UserID: "u1", Income: -1}); err == nil {
		t.Fatalf("expected validation error")
	}
	if err := s.SaveProfile(ctx, core.Profile{UserID: "u1", Name: "A", Income: 100}); err != nil {
		t.Fatalf("save: %v", err)
	}
	p, err := s.GetProfile(ctx, "u1")
	if err != nil || p.Income != 100 || p.UpdatedAt.IsZero() {
		t.Fatalf("unexpected profile %+v err=%v", p, err)
	}

	if err := s.SaveBenefitState(ctx, core.BenefitState{UserID: "u1", Benefit: "PMSBY", Applied: true}); err != nil {
		t.Fatalf("save state: %v", err)
	}
	states, _ := s.ListBenefitStates(ctx, "u1")
	if !states["PMSBY"].Applied || len(states) != 1 {
		t.Fatalf("unexpected states %v", states)
	}
	// returned map is a copy
	delete(states, "PMSBY")
	again, _ := s.ListBenefitStates(ctx, "u1")
	if len(again) != 1 {
		t.Fatalf("store state leaked through returned map")
	}
}

func TestStoreSummaries(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.LatestSummary(ctx, "u1"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_ = s.SaveSummary(ctx, core.DashboardSummary{UserID: "u1", ProgressPercentage: 40})
	_ = s.SaveSummary(ctx, core.DashboardSummary{UserID: "u1", ProgressPercentage: 55})
	sum, err := s.LatestSummary(ctx, "u1")
	if err != nil || sum.ProgressPercentage != 55 {
		t.Fatalf("unexpected summary %+v err=%v", sum, err)
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("missing files must not fail: %v", err)
	}
	if ps, _ := s.ListProfiles(context.Background()); len(ps) != 0 {
		t.Fatalf("expected empty store, got %v", ps)
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("profiles.json", `[{"user_id":"b","name":"B","income":500000},{"user_id":"a","name":"A","age":30}]`)
	mustWrite("tokens.txt", "# token user\nsecret-a a\n\nsecret-b b\n")

	s, err = NewFromFiles(dir)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	ps, _ := s.ListProfiles(context.Background())
	if len(ps) != 2 || ps[0].UserID != "a" || ps[1].Income != 500000 {
		t.Fatalf("unexpected profiles %+v", ps)
	}
	user, err := s.UserForToken(context.Background(), "secret-b")
	if err != nil || user != "b" {
		t.Fatalf("token lookup: %q %v", user, err)
	}
	if _, err := s.UserForToken(context.Background(), "nope"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	mustWrite("tokens.txt", "only-one-field\n")
	if _, err := NewFromFiles(dir); err == nil {
		t.Fatalf("expected malformed tokens error")
	}
}

func TestNewFromFilesReportsUnreadableTokens(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, path string)
	}{
		{"directory", func(t *testing.T, path string) {
			if err := os.Mkdir(path, 0o755); err != nil {
				t.Fatalf("mkdir: %v", err)
			}
		}},
		{"line too long", func(t *testing.T, path string) {
			long := strings.Repeat("x", bufio.MaxScanTokenSize+1) + " u1\n"
			if err := os.WriteFile(path, []byte(long), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, filepath.Join(dir, "tokens.txt"))
			if _, err := NewFromFiles(dir); err == nil {
				t.Fatal("expected an error for an unreadable tokens.txt")
			}
		})
	}
}

func TestStoreLibrary(t *testing.T) {
	ctx := context.Background()
	s := New()

	topics := []string{"Habits"}
	a, err := s.SaveBook(ctx, core.Book{Title: "Atomic Habits", Author: "James Clear", FinancialTopics: topics})
	if err != nil || a.ID != 1 {
		t.Fatalf("save book: %+v err=%v", a, err)
	}
	topics[0] = "changed"
	if got, _ := s.GetBook(ctx, a.ID); got.FinancialTopics[0] != "Habits" {
		t.Fatalf("store should keep its own copy of topics, got %v", got.FinancialTopics)
	}
	again, err := s.SaveBook(ctx, core.Book{Title: "Atomic Habits", Author: "James Clear", Rating: 4.6})
	if err != nil || again.ID != a.ID {
		t.Fatalf("expected upsert onto id %d, got %+v err=%v", a.ID, again, err)
	}
	if _, err := s.SaveBook(ctx, core.Book{ID: 7, Title: "Deep Work", Author: "Cal Newport"}); err != nil {
		t.Fatalf("save with id: %v", err)
	}
	next, _ := s.SaveBook(ctx, core.Book{Title: "Shoe Dog", Author: "Phil Knight"})
	if next.ID != 8 {
		t.Fatalf("expected id 8 after explicit id 7, got %d", next.ID)
	}
	books, _ := s.ListBooks(ctx)
	if len(books) != 3 || books[0].ID != 1 || books[2].ID != 8 {
		t.Fatalf("unexpected books %+v", books)
	}
	if _, err := s.GetBook(ctx, 99); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.SaveBook(ctx, core.Book{Title: "Untitled"}); !errors.Is(err, core.ErrInvalidBook) {
		t.Fatalf("expected ErrInvalidBook, got %v", err)
	}

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []int64{1, 7, 8} {
		e := core.ReadingEntry{UserID: "u1", BookID: id, Status: core.ReadingWantToRead, UpdatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := s.SaveReading(ctx, e); err != nil {
			t.Fatalf("save reading: %v", err)
		}
	}
	history, _ := s.ListReading(ctx, "u1")
	if len(history) != 3 || history[0].BookID != 8 || history[2].BookID != 1 {
		t.Fatalf("expected newest first, got %+v", history)
	}
	if err := s.SaveReading(ctx, core.ReadingEntry{UserID: "u1", BookID: 1, Status: "done"}); !errors.Is(err, core.ErrInvalidReading) {
		t.Fatalf("expected ErrInvalidReading, got %v", err)
	}

	if _, err := s.GetReadingPreference(ctx, "u1"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	p := core.DefaultReadingPreference("u1")
	p.PreferredGenres = []string{core.GenreInvestment}
	if err := s.SaveReadingPreference(ctx, p); err != nil {
		t.Fatalf("save preference: %v", err)
	}
	got, _ := s.GetReadingPreference(ctx, "u1")
	if got.UpdatedAt.IsZero() || got.PreferredGenres[0] != core.GenreInvestment {
		t.Fatalf("unexpected preference %+v", got)
	}
	p.PreferredDifficulty = ""
	if err := s.SaveReadingPreference(ctx, p); !errors.Is(err, core.ErrInvalidPreference) {
		t.Fatalf("expected ErrInvalidPreference, got %v", err)
	}
}
