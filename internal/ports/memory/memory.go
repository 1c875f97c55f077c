// Package memory is an in-process implementation of the persistence ports,
// used for development and tests.
package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"finwise/internal/core"
	"finwise/internal/ports"
)

type Store struct {
	mu        sync.Mutex
	profiles  map[string]core.Profile
	states    map[string]map[string]core.BenefitState
	summaries map[string]core.DashboardSummary
	tokens    map[string]string

	books   map[int64]core.Book
	nextID  int64
	reading map[string]map[int64]core.ReadingEntry
	prefs   map[string]core.ReadingPreference
}

func New() *Store {
	return &Store{
		profiles:  map[string]core.Profile{},
		states:    map[string]map[string]core.BenefitState{},
		summaries: map[string]core.DashboardSummary{},
		tokens:    map[string]string{},
		books:     map[int64]core.Book{},
		reading:   map[string]map[int64]core.ReadingEntry{},
		prefs:     map[string]core.ReadingPreference{},
	}
}

// NewFromFiles seeds the store from profiles.json and tokens.txt in base.
// Missing files leave the store empty; malformed ones are reported.
func NewFromFiles(base string) (*Store, error) {
	s := New()

	raw, err := os.ReadFile(filepath.Join(base, "profiles.json"))
	switch {
	case err == nil:
		var profiles []core.Profile
		if err := json.Unmarshal(raw, &profiles); err != nil {
			return nil, fmt.Errorf("decode profiles.json: %w", err)
		}
		for _, p := range profiles {
			if err := p.Validate(); err != nil {
				return nil, fmt.Errorf("seed profile %q: %w", p.UserID, err)
			}
			s.profiles[p.UserID] = p
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read profiles.json: %w", err)
	}

	lines, err := readLines(filepath.Join(base, "tokens.txt"))
	if err != nil {
		return nil, fmt.Errorf("read tokens.txt: %w", err)
	}
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("tokens.txt: expected \"<token> <user>\", got %q", line)
		}
		s.tokens[fields[0]] = fields[1]
	}
	return s, nil
}

// AddToken registers an API token for userID.
func (s *Store) AddToken(token, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = userID
}

func (s *Store) GetProfile(_ context.Context, userID string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return core.Profile{}, ports.ErrNotFound
	}
	return p, nil
}

func (s *Store) SaveProfile(_ context.Context, p core.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
	return nil
}

// ListProfiles returns all profiles ordered by user id.
func (s *Store) ListProfiles(_ context.Context) ([]core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) ListBenefitStates(_ context.Context, userID string) (map[string]core.BenefitState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]core.BenefitState, len(s.states[userID]))
	for k, v := range s.states[userID] {
		out[k] = v
	}
	return out, nil
}

func (s *Store) SaveBenefitState(_ context.Context, st core.BenefitState) error {
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.states[st.UserID] == nil {
		s.states[st.UserID] = map[string]core.BenefitState{}
	}
	s.states[st.UserID][st.Benefit] = st
	return nil
}

func (s *Store) SaveSummary(_ context.Context, sum core.DashboardSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum.Recommendations = append([]string(nil), sum.Recommendations...)
	s.summaries[sum.UserID] = sum
	return nil
}

func (s *Store) LatestSummary(_ context.Context, userID string) (core.DashboardSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.summaries[userID]
	if !ok {
		return core.DashboardSummary{}, ports.ErrNotFound
	}
	return sum, nil
}

func (s *Store) UserForToken(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.tokens[token]
	if !ok {
		return "", ports.ErrNotFound
	}
	return userID, nil
}

// ListBooks returns the catalogue ordered by id.
func (s *Store) ListBooks(_ context.Context) ([]core.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetBook(_ context.Context, id int64) (core.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return core.Book{}, ports.ErrNotFound
	}
	return b, nil
}

func (s *Store) SaveBook(_ context.Context, b core.Book) (core.Book, error) {
	if err := b.Validate(); err != nil {
		return core.Book{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		for id, existing := range s.books {
			if existing.Title == b.Title && existing.Author == b.Author {
				b.ID = id
				break
			}
		}
	}
	if b.ID == 0 {
		s.nextID++
		b.ID = s.nextID
	} else if b.ID > s.nextID {
		s.nextID = b.ID
	}
	b.FinancialTopics = slices.Clone(b.FinancialTopics)
	s.books[b.ID] = b
	return b, nil
}

// ListReading returns the user's entries, most recently updated first.
func (s *Store) ListReading(_ context.Context, userID string) ([]core.ReadingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ReadingEntry, 0, len(s.reading[userID]))
	for _, e := range s.reading[userID] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].BookID < out[j].BookID
	})
	return out, nil
}

func (s *Store) SaveReading(_ context.Context, e core.ReadingEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reading[e.UserID] == nil {
		s.reading[e.UserID] = map[int64]core.ReadingEntry{}
	}
	s.reading[e.UserID][e.BookID] = e
	return nil
}

func (s *Store) GetReadingPreference(_ context.Context, userID string) (core.ReadingPreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prefs[userID]
	if !ok {
		return core.ReadingPreference{}, ports.ErrNotFound
	}
	return p, nil
}

func (s *Store) SaveReadingPreference(_ context.Context, p core.ReadingPreference) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	p.PreferredGenres = slices.Clone(p.PreferredGenres)
	p.PreferredAuthors = slices.Clone(p.PreferredAuthors)
	p.PreferredTopics = slices.Clone(p.PreferredTopics)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[p.UserID] = p
	return nil
}

// readLines returns the non-blank, non-comment lines of path. A missing file
// yields no lines.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ ports.Store = (*Store)(nil)
