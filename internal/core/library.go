package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Book levels shared by difficulty and investment level.
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
)

// Genres the recommendation rules refer to.
const (
	GenreBusiness   = "Business & Management"
	GenreInvestment = "Investment"
	GenreSelfHelp   = "Self-Help / Personal Growth"
	GenrePsychology = "Psychology"
)

// Reading statuses.
const (
	ReadingWantToRead = "want_to_read"
	ReadingCurrent    = "currently_reading"
	ReadingCompleted  = "completed"
	ReadingAbandoned  = "abandoned"
)

var (
	ErrInvalidBook       = errors.New("invalid book")
	ErrInvalidReading    = errors.New("invalid reading entry")
	ErrInvalidPreference = errors.New("invalid reading preference")
)

type (
	// Book is one title in the wisdom library.
	Book struct {
		ID              int64               `json:"id"`
		Title           string              `json:"title"`
		Author          string              `json:"author"`
		Genre           string              `json:"genre"`
		SubGenre        string              `json:"sub_genre,omitempty"`
		Description     string              `json:"description"`
		Rating          float64             `json:"rating"`
		Price           decimal.NullDecimal `json:"price"`
		Pages           int                 `json:"pages,omitempty"`
		PublicationYear int                 `json:"publication_year,omitempty"`
		ISBN            string              `json:"isbn,omitempty"`
		CoverImageURL   string              `json:"cover_image_url,omitempty"`
		AmazonURL       string              `json:"amazon_url,omitempty"`
		InvestmentLevel string              `json:"investment_level"`
		DifficultyLevel string              `json:"difficulty_level"`
		FinancialTopics []string            `json:"financial_topics"`
		PopularityScore float64             `json:"popularity_score"`
	}

	// ReadingEntry is a user's interaction with one book.
	ReadingEntry struct {
		UserID    string    `json:"user_id"`
		BookID    int64     `json:"book_id"`
		Status    string    `json:"status"`
		Rating    *float64  `json:"rating"`
		Review    string    `json:"review,omitempty"`
		PagesRead int       `json:"pages_read"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	// ReadingPreference holds what a user wants to read.
	ReadingPreference struct {
		UserID                   string    `json:"user_id"`
		PreferredGenres          []string  `json:"preferred_genres"`
		PreferredAuthors         []string  `json:"preferred_authors"`
		PreferredTopics          []string  `json:"preferred_topics"`
		PreferredDifficulty      string    `json:"preferred_difficulty"`
		PreferredInvestmentLevel string    `json:"preferred_investment_level"`
		BooksPerMonth            int       `json:"books_per_month"`
		ReadingGoal              int       `json:"reading_goal"`
		UpdatedAt                time.Time `json:"updated_at"`
	}
)

// DefaultReadingPreference is what a user without saved preferences gets.
func DefaultReadingPreference(userID string) ReadingPreference {
	return ReadingPreference{
		UserID:                   userID,
		PreferredGenres:          []string{},
		PreferredAuthors:         []string{},
		PreferredTopics:          []string{},
		PreferredDifficulty:      LevelBeginner,
		PreferredInvestmentLevel: LevelBeginner,
		BooksPerMonth:            1,
		ReadingGoal:              12,
	}
}

func (b Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" || strings.TrimSpace(b.Author) == "" {
		return fmt.Errorf("%w: title and author are required", ErrInvalidBook)
	}
	if b.Rating < 0 || b.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 0 and 5", ErrInvalidBook)
	}
	if b.Price.Valid && b.Price.Decimal.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidBook)
	}
	return nil
}

// Matches reports whether query occurs in the title, author or genre,
// ignoring case.
func (b Book) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(b.Title), q) ||
		strings.Contains(strings.ToLower(b.Author), q) ||
		strings.Contains(strings.ToLower(b.Genre), q)
}

// ValidReadingStatus reports whether s is a known reading status.
func ValidReadingStatus(s string) bool {
	switch s {
	case ReadingWantToRead, ReadingCurrent, ReadingCompleted, ReadingAbandoned:
		return true
	}
	return false
}

func (e ReadingEntry) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyUserID
	}
	if !ValidReadingStatus(e.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidReading, e.Status)
	}
	if e.Rating != nil && (*e.Rating < 0 || *e.Rating > 5) {
		return fmt.Errorf("%w: rating must be between 0 and 5", ErrInvalidReading)
	}
	if e.PagesRead < 0 {
		return fmt.Errorf("%w: pages read must not be negative", ErrInvalidReading)
	}
	return nil
}

// ValidLevel reports whether s is Beginner, Intermediate or Advanced.
func ValidLevel(s string) bool {
	switch s {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

func (p ReadingPreference) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return ErrEmptyUserID
	}
	if !ValidLevel(p.PreferredDifficulty) || !ValidLevel(p.PreferredInvestmentLevel) {
		return fmt.Errorf("%w: levels must be Beginner, Intermediate or Advanced", ErrInvalidPreference)
	}
	if p.BooksPerMonth < 0 || p.ReadingGoal < 0 {
		return fmt.Errorf("%w: reading goals must not be negative", ErrInvalidPreference)
	}
	return nil
}
