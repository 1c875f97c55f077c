package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"finwise/internal/core"
	"finwise/internal/ports"
)

// ErrBookNotFound is returned for an unknown book id.
var ErrBookNotFound = errors.New("book not found")

const (
	candidateLimit      = 20
	recommendationLimit = 10
	recentLimit         = 5
	similarLimit        = 6
	reasonSeparator     = " • "
)

type (
	BookRecommendation struct {
		Book   core.Book `json:"book"`
		Score  float64   `json:"score"`
		Reason string    `json:"reason"`
	}

	ReadingStats struct {
		TotalBooks       int     `json:"total_books"`
		CompletedBooks   int     `json:"completed_books"`
		CurrentlyReading int     `json:"currently_reading"`
		WantToRead       int     `json:"want_to_read"`
		AverageRating    float64 `json:"average_rating"`
		CompletionRate   float64 `json:"completion_rate"`
	}

	// ReadingView is a reading entry together with its book.
	ReadingView struct {
		core.ReadingEntry
		Book core.Book `json:"book"`
	}

	// LibraryOverview backs the wisdom library page.
	LibraryOverview struct {
		Recommendations []BookRecommendation   `json:"recommendations"`
		ReadingStats    ReadingStats           `json:"reading_stats"`
		RecentBooks     []ReadingView          `json:"recent_books"`
		Preferences     core.ReadingPreference `json:"user_preferences"`
	}

	// BookFilter narrows the book list. Empty fields match everything.
	BookFilter struct {
		Search          string
		Genre           string
		Difficulty      string
		InvestmentLevel string
	}

	BookFacets struct {
		Genres           []string `json:"genres"`
		Difficulties     []string `json:"difficulties"`
		InvestmentLevels []string `json:"investment_levels"`
	}

	BookList struct {
		Books   []core.Book `json:"books"`
		Filters BookFacets  `json:"filters"`
	}

	BookDetail struct {
		Book         core.Book          `json:"book"`
		UserHistory  *core.ReadingEntry `json:"user_history"`
		SimilarBooks []core.Book        `json:"similar_books"`
	}

	// ReadingUpdate records a status change for one book. Status defaults to
	// want_to_read; a nil Rating or empty Review keeps the stored value.
	ReadingUpdate struct {
		BookID int64    `json:"book_id"`
		Status string   `json:"status"`
		Rating *float64 `json:"rating"`
		Review string   `json:"review"`
	}

	// PreferenceUpdate changes only the fields that are set.
	PreferenceUpdate struct {
		PreferredGenres          *[]string `json:"preferred_genres"`
		PreferredAuthors         *[]string `json:"preferred_authors"`
		PreferredTopics          *[]string `json:"preferred_topics"`
		PreferredDifficulty      *string   `json:"preferred_difficulty"`
		PreferredInvestmentLevel *string   `json:"preferred_investment_level"`
		BooksPerMonth            *int      `json:"books_per_month"`
		ReadingGoal              *int      `json:"reading_goal"`
	}
)

// LibraryService serves the wisdom library: the book catalogue, reading
// history, reading preferences and profile-driven recommendations.
type LibraryService struct {
	profiles ports.ProfileStore
	books    ports.BookStore
	reading  ports.ReadingStore
}

func NewLibraryService(profiles ports.ProfileStore, books ports.BookStore, reading ports.ReadingStore) *LibraryService {
	return &LibraryService{profiles: profiles, books: books, reading: reading}
}

// SeedCatalogue stores BookCatalogue when the library is empty and returns
// how many books were added.
func (s *LibraryService) SeedCatalogue(ctx context.Context) (int, error) {
	existing, err := s.books.ListBooks(ctx)
	if err != nil {
		return 0, fmt.Errorf("list books: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	books := BookCatalogue()
	for _, b := range books {
		if _, err := s.books.SaveBook(ctx, b); err != nil {
			return 0, fmt.Errorf("seed %q: %w", b.Title, err)
		}
	}
	slog.InfoContext(ctx, "Wisdom library seeded", "books", len(books))
	return len(books), nil
}

// Overview assembles recommendations, reading statistics, recent books and
// preferences for userID.
func (s *LibraryService) Overview(ctx context.Context, userID string) (LibraryOverview, error) {
	p, err := loadProfile(ctx, s.profiles, userID)
	if err != nil {
		return LibraryOverview{}, err
	}

	var (
		prefs   core.ReadingPreference
		books   []core.Book
		history []core.ReadingEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prefs, err = s.Preferences(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		if books, err = s.books.ListBooks(gctx); err != nil {
			return fmt.Errorf("list books: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if history, err = s.reading.ListReading(gctx, userID); err != nil {
			return fmt.Errorf("list reading history: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return LibraryOverview{}, err
	}

	recent := joinBooks(history, books)
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	return LibraryOverview{
		Recommendations: Recommend(p, prefs, books, history),
		ReadingStats:    ComputeReadingStats(history),
		RecentBooks:     recent,
		Preferences:     prefs,
	}, nil
}

// Books lists the catalogue matching f, plus the filter values available
// across the whole catalogue.
func (s *LibraryService) Books(ctx context.Context, f BookFilter) (BookList, error) {
	all, err := s.books.ListBooks(ctx)
	if err != nil {
		return BookList{}, fmt.Errorf("list books: %w", err)
	}
	out := BookList{Books: []core.Book{}, Filters: facets(all)}
	for _, b := range all {
		if !b.Matches(f.Search) ||
			(f.Genre != "" && b.Genre != f.Genre) ||
			(f.Difficulty != "" && b.DifficultyLevel != f.Difficulty) ||
			(f.InvestmentLevel != "" && b.InvestmentLevel != f.InvestmentLevel) {
			continue
		}
		out.Books = append(out.Books, b)
	}
	return out, nil
}

// Book returns one book with the user's entry for it and up to six books
// sharing its genre or investment level.
func (s *LibraryService) Book(ctx context.Context, userID string, id int64) (BookDetail, error) {
	if userID == "" {
		return BookDetail{}, core.ErrEmptyUserID
	}
	book, err := s.getBook(ctx, id)
	if err != nil {
		return BookDetail{}, err
	}
	history, err := s.reading.ListReading(ctx, userID)
	if err != nil {
		return BookDetail{}, fmt.Errorf("list reading history: %w", err)
	}
	all, err := s.books.ListBooks(ctx)
	if err != nil {
		return BookDetail{}, fmt.Errorf("list books: %w", err)
	}

	detail := BookDetail{Book: book, SimilarBooks: []core.Book{}}
	for i := range history {
		if history[i].BookID == id {
			detail.UserHistory = &history[i]
			break
		}
	}
	for _, b := range all {
		if len(detail.SimilarBooks) == similarLimit {
			break
		}
		if b.ID == id {
			continue
		}
		if b.Genre == book.Genre || (book.InvestmentLevel != "" && b.InvestmentLevel == book.InvestmentLevel) {
			detail.SimilarBooks = append(detail.SimilarBooks, b)
		}
	}
	return detail, nil
}

// History returns the user's reading entries, most recently updated first.
func (s *LibraryService) History(ctx context.Context, userID string) ([]ReadingView, error) {
	if userID == "" {
		return nil, core.ErrEmptyUserID
	}
	history, err := s.reading.ListReading(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reading history: %w", err)
	}
	books, err := s.books.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return joinBooks(history, books), nil
}

// UpdateHistory creates or updates the user's entry for u.BookID.
func (s *LibraryService) UpdateHistory(ctx context.Context, userID string, u ReadingUpdate) (ReadingView, error) {
	if userID == "" {
		return ReadingView{}, core.ErrEmptyUserID
	}
	status := strings.TrimSpace(u.Status)
	if status == "" {
		status = core.ReadingWantToRead
	}
	book, err := s.getBook(ctx, u.BookID)
	if err != nil {
		return ReadingView{}, err
	}
	history, err := s.reading.ListReading(ctx, userID)
	if err != nil {
		return ReadingView{}, fmt.Errorf("list reading history: %w", err)
	}

	entry := core.ReadingEntry{UserID: userID, BookID: book.ID}
	for _, e := range history {
		if e.BookID == book.ID {
			entry = e
			break
		}
	}
	entry.Status = status
	if u.Rating != nil {
		rating := *u.Rating
		entry.Rating = &rating
	}
	if review := strings.TrimSpace(u.Review); review != "" {
		entry.Review = review
	}
	if status == core.ReadingCompleted && book.Pages > 0 {
		entry.PagesRead = book.Pages
	}
	entry.UpdatedAt = time.Now().UTC()

	if err := s.reading.SaveReading(ctx, entry); err != nil {
		return ReadingView{}, err
	}
	slog.InfoContext(ctx, "Reading history updated",
		"user_id", userID,
		"book_id", book.ID,
		"status", status)
	return ReadingView{ReadingEntry: entry, Book: book}, nil
}

// Preferences returns the user's reading preferences or the defaults.
func (s *LibraryService) Preferences(ctx context.Context, userID string) (core.ReadingPreference, error) {
	if userID == "" {
		return core.ReadingPreference{}, core.ErrEmptyUserID
	}
	p, err := s.reading.GetReadingPreference(ctx, userID)
	if errors.Is(err, ports.ErrNotFound) {
		return core.DefaultReadingPreference(userID), nil
	}
	if err != nil {
		return core.ReadingPreference{}, fmt.Errorf("get reading preference: %w", err)
	}
	return p, nil
}

// UpdatePreferences applies u on top of the stored preferences.
func (s *LibraryService) UpdatePreferences(ctx context.Context, userID string, u PreferenceUpdate) (core.ReadingPreference, error) {
	p, err := s.Preferences(ctx, userID)
	if err != nil {
		return core.ReadingPreference{}, err
	}
	if u.PreferredGenres != nil {
		p.PreferredGenres = cleanList(*u.PreferredGenres)
	}
	if u.PreferredAuthors != nil {
		p.PreferredAuthors = cleanList(*u.PreferredAuthors)
	}
	if u.PreferredTopics != nil {
		p.PreferredTopics = cleanList(*u.PreferredTopics)
	}
	if u.PreferredDifficulty != nil {
		p.PreferredDifficulty = *u.PreferredDifficulty
	}
	if u.PreferredInvestmentLevel != nil {
		p.PreferredInvestmentLevel = *u.PreferredInvestmentLevel
	}
	if u.BooksPerMonth != nil {
		p.BooksPerMonth = *u.BooksPerMonth
	}
	if u.ReadingGoal != nil {
		p.ReadingGoal = *u.ReadingGoal
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.reading.SaveReadingPreference(ctx, p); err != nil {
		return core.ReadingPreference{}, err
	}
	return p, nil
}

func (s *LibraryService) getBook(ctx context.Context, id int64) (core.Book, error) {
	b, err := s.books.GetBook(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return core.Book{}, fmt.Errorf("%w: %d", ErrBookNotFound, id)
	}
	if err != nil {
		return core.Book{}, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

// FinancialGenres returns the genres suited to the profile's income, age and
// investments, sorted.
func FinancialGenres(p core.Profile) []string {
	var genres []string
	switch {
	case p.Income > 1_000_000:
		genres = append(genres, core.GenreBusiness, core.GenreInvestment)
	case p.Income > 500_000:
		genres = append(genres, core.GenreBusiness, core.GenreSelfHelp)
	default:
		genres = append(genres, core.GenreSelfHelp, core.GenrePsychology)
	}
	switch {
	case p.Age < 30:
		genres = append(genres, core.GenreSelfHelp)
	case p.Age > 50:
		genres = append(genres, core.GenreInvestment, core.GenrePsychology)
	}
	if p.InvestmentAmount > 100_000 {
		genres = append(genres, core.GenreInvestment)
	}
	slices.Sort(genres)
	return slices.Compact(genres)
}

// InvestmentLevels returns the book levels matching how much the profile has
// invested.
func InvestmentLevels(p core.Profile) []string {
	switch {
	case p.InvestmentAmount > 500_000:
		return []string{core.LevelAdvanced, core.LevelIntermediate}
	case p.InvestmentAmount > 100_000:
		return []string{core.LevelIntermediate, core.LevelBeginner}
	default:
		return []string{core.LevelBeginner}
	}
}

// FinancialRelevance scores how well b fits the profile, between 0 and 1.
func FinancialRelevance(b core.Book, p core.Profile) float64 {
	var r float64
	switch {
	case p.Income > 1_000_000 && b.Genre == core.GenreBusiness:
		r += 0.5
	case p.Income < 500_000 && b.Genre == core.GenreSelfHelp:
		r += 0.5
	}
	switch {
	case p.InvestmentAmount > 500_000 && b.InvestmentLevel == core.LevelAdvanced:
		r += 0.3
	case p.InvestmentAmount < 100_000 && b.InvestmentLevel == core.LevelBeginner:
		r += 0.3
	}
	switch {
	case p.Age < 30 && b.Genre == core.GenreSelfHelp:
		r += 0.2
	case p.Age > 50 && b.Genre == core.GenreInvestment:
		r += 0.2
	}
	return r
}

// RecommendationScore weighs rating, preferred genre, financial relevance and
// popularity. The result is rounded to three decimals.
func RecommendationScore(b core.Book, p core.Profile, prefs core.ReadingPreference) float64 {
	score := decimal.NewFromFloat(b.Rating).Mul(decimal.RequireFromString("0.3"))
	if slices.Contains(prefs.PreferredGenres, b.Genre) {
		score = score.Add(decimal.RequireFromString("0.4"))
	}
	score = score.
		Add(decimal.NewFromFloat(FinancialRelevance(b, p)).Mul(decimal.RequireFromString("0.3"))).
		Add(decimal.NewFromFloat(b.PopularityScore).Mul(decimal.RequireFromString("0.1")))
	return score.Round(3).InexactFloat64()
}

// RecommendationReason explains in one line why b suits the user.
func RecommendationReason(b core.Book, p core.Profile, prefs core.ReadingPreference) string {
	var reasons []string
	if slices.Contains(prefs.PreferredGenres, b.Genre) {
		reasons = append(reasons, "Matches your preferred genre: "+b.Genre)
	}
	switch {
	case p.Income > 1_000_000 && b.Genre == core.GenreBusiness:
		reasons = append(reasons, "Perfect for high-income professionals")
	case p.Income < 500_000 && b.Genre == core.GenreSelfHelp:
		reasons = append(reasons, "Great for building financial foundation")
	}
	if b.Rating >= 4.0 {
		reasons = append(reasons, "Highly rated by readers")
	}
	switch {
	case b.InvestmentLevel == core.LevelBeginner && p.InvestmentAmount < 100_000:
		reasons = append(reasons, "Perfect for beginners")
	case b.InvestmentLevel == core.LevelAdvanced && p.InvestmentAmount > 500_000:
		reasons = append(reasons, "Advanced strategies for experienced investors")
	}
	if len(reasons) == 0 {
		return "Recommended based on your profile"
	}
	return strings.Join(reasons, reasonSeparator)
}

// Recommend ranks the books for a user. Candidates are books in a preferred
// or profile-derived genre, or at a suitable investment level, that the user
// has not completed; the first twenty by id are scored and the best ten
// returned. With no candidates it falls back to the most popular books rated
// 4 or more.
func Recommend(p core.Profile, prefs core.ReadingPreference, books []core.Book, history []core.ReadingEntry) []BookRecommendation {
	genres := append(slices.Clone(prefs.PreferredGenres), FinancialGenres(p)...)
	levels := InvestmentLevels(p)
	completed := map[int64]bool{}
	for _, e := range history {
		if e.Status == core.ReadingCompleted {
			completed[e.BookID] = true
		}
	}

	var candidates []core.Book
	for _, b := range books {
		if completed[b.ID] {
			continue
		}
		if slices.Contains(genres, b.Genre) || slices.Contains(levels, b.InvestmentLevel) {
			candidates = append(candidates, b)
		}
		if len(candidates) == candidateLimit {
			break
		}
	}
	if len(candidates) == 0 {
		return popularBooks(books)
	}

	out := make([]BookRecommendation, 0, len(candidates))
	for _, b := range candidates {
		out = append(out, BookRecommendation{
			Book:   b,
			Score:  RecommendationScore(b, p, prefs),
			Reason: RecommendationReason(b, p, prefs),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > recommendationLimit {
		out = out[:recommendationLimit]
	}
	return out
}

func popularBooks(books []core.Book) []BookRecommendation {
	var popular []core.Book
	for _, b := range books {
		if b.Rating >= 4.0 {
			popular = append(popular, b)
		}
	}
	sort.SliceStable(popular, func(i, j int) bool { return popular[i].PopularityScore > popular[j].PopularityScore })
	if len(popular) > recommendationLimit {
		popular = popular[:recommendationLimit]
	}
	out := make([]BookRecommendation, 0, len(popular))
	for _, b := range popular {
		out = append(out, BookRecommendation{
			Book:   b,
			Score:  b.Rating,
			Reason: fmt.Sprintf("Popular %s book with %s★ rating", b.Genre, strconv.FormatFloat(b.Rating, 'f', -1, 64)),
		})
	}
	return out
}

// ComputeReadingStats summarises a reading history. Percentages and the average rating
// are rounded to one decimal.
func ComputeReadingStats(history []core.ReadingEntry) ReadingStats {
	st := ReadingStats{TotalBooks: len(history)}
	var (
		ratingSum decimal.Decimal
		rated     int64
	)
	for _, e := range history {
		switch e.Status {
		case core.ReadingCompleted:
			st.CompletedBooks++
		case core.ReadingCurrent:
			st.CurrentlyReading++
		case core.ReadingWantToRead:
			st.WantToRead++
		}
		if e.Rating != nil {
			ratingSum = ratingSum.Add(decimal.NewFromFloat(*e.Rating))
			rated++
		}
	}
	if rated > 0 {
		st.AverageRating = ratingSum.Div(decimal.NewFromInt(rated)).Round(1).InexactFloat64()
	}
	if st.TotalBooks > 0 {
		st.CompletionRate = decimal.NewFromInt(int64(st.CompletedBooks)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(st.TotalBooks))).
			Round(1).InexactFloat64()
	}
	return st
}

func facets(books []core.Book) BookFacets {
	var f BookFacets
	for _, b := range books {
		f.Genres = append(f.Genres, b.Genre)
		f.Difficulties = append(f.Difficulties, b.DifficultyLevel)
		f.InvestmentLevels = append(f.InvestmentLevels, b.InvestmentLevel)
	}
	return BookFacets{
		Genres:           distinct(f.Genres),
		Difficulties:     distinct(f.Difficulties),
		InvestmentLevels: distinct(f.InvestmentLevels),
	}
}

// distinct returns the sorted non-empty unique values of in.
func distinct(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// joinBooks pairs each entry with its book, keeping the entry order. Entries
// whose book no longer exists are skipped.
func joinBooks(history []core.ReadingEntry, books []core.Book) []ReadingView {
	byID := make(map[int64]core.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	out := make([]ReadingView, 0, len(history))
	for _, e := range history {
		b, ok := byID[e.BookID]
		if !ok {
			continue
		}
		out = append(out, ReadingView{ReadingEntry: e, Book: b})
	}
	return out
}
