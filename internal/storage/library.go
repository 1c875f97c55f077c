package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"finwise/internal/core"
	"finwise/internal/ports"
)

const bookColumns = `id, title, author, genre, sub_genre, description, rating, price, pages,
	publication_year, isbn, cover_image_url, amazon_url, investment_level, difficulty_level,
	financial_topics, popularity_score`

func scanBook(row scanner) (core.Book, error) {
	var (
		b      core.Book
		topics string
	)
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.SubGenre, &b.Description, &b.Rating,
		&b.Price, &b.Pages, &b.PublicationYear, &b.ISBN, &b.CoverImageURL, &b.AmazonURL,
		&b.InvestmentLevel, &b.DifficultyLevel, &topics, &b.PopularityScore)
	if err != nil {
		return core.Book{}, err
	}
	if err := json.Unmarshal([]byte(topics), &b.FinancialTopics); err != nil {
		return core.Book{}, fmt.Errorf("decode financial_topics: %w", err)
	}
	return b, nil
}

// ListBooks implements ports.BookStore
func (r *SQLiteRepository) ListBooks(ctx context.Context) ([]core.Book, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var out []core.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBook implements ports.BookStore
func (r *SQLiteRepository) GetBook(ctx context.Context, id int64) (core.Book, error) {
	b, err := scanBook(r.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Book{}, ports.ErrNotFound
	}
	if err != nil {
		return core.Book{}, fmt.Errorf("get book %d: %w", id, err)
	}
	return b, nil
}

// SaveBook implements ports.BookStore. A new book whose title and author
// already exist updates that row.
func (r *SQLiteRepository) SaveBook(ctx context.Context, b core.Book) (core.Book, error) {
	if err := b.Validate(); err != nil {
		return core.Book{}, err
	}
	topics, err := json.Marshal(nonNil(b.FinancialTopics))
	if err != nil {
		return core.Book{}, fmt.Errorf("encode financial_topics: %w", err)
	}
	args := []any{b.Title, b.Author, b.Genre, b.SubGenre, b.Description, b.Rating, b.Price,
		b.Pages, b.PublicationYear, b.ISBN, b.CoverImageURL, b.AmazonURL, b.InvestmentLevel,
		b.DifficultyLevel, string(topics), b.PopularityScore}
	const set = `genre = excluded.genre, sub_genre = excluded.sub_genre,
			description = excluded.description, rating = excluded.rating, price = excluded.price,
			pages = excluded.pages, publication_year = excluded.publication_year, isbn = excluded.isbn,
			cover_image_url = excluded.cover_image_url, amazon_url = excluded.amazon_url,
			investment_level = excluded.investment_level, difficulty_level = excluded.difficulty_level,
			financial_topics = excluded.financial_topics, popularity_score = excluded.popularity_score`

	if b.ID == 0 {
		err = r.db.QueryRowContext(ctx, `INSERT INTO books (`+bookColumns[len("id, "):]+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(title, author) DO UPDATE SET `+set+`
			RETURNING id`, args...).Scan(&b.ID)
	} else {
		_, err = r.db.ExecContext(ctx, `INSERT INTO books (`+bookColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET title = excluded.title, author = excluded.author, `+set,
			append([]any{b.ID}, args...)...)
	}
	if err != nil {
		return core.Book{}, fmt.Errorf("save book %q: %w", b.Title, err)
	}
	return b, nil
}

// ListReading implements ports.ReadingStore
func (r *SQLiteRepository) ListReading(ctx context.Context, userID string) ([]core.ReadingEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT book_id, status, rating, review, pages_read, updated_at
		FROM reading_history WHERE user_id = ? ORDER BY updated_at DESC, book_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list reading history: %w", err)
	}
	defer rows.Close()

	var out []core.ReadingEntry
	for rows.Next() {
		var (
			e         = core.ReadingEntry{UserID: userID}
			rating    sql.NullFloat64
			updatedAt string
		)
		if err := rows.Scan(&e.BookID, &e.Status, &rating, &e.Review, &e.PagesRead, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan reading entry: %w", err)
		}
		if rating.Valid {
			e.Rating = &rating.Float64
		}
		if e.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveReading implements ports.ReadingStore
func (r *SQLiteRepository) SaveReading(ctx context.Context, e core.ReadingEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}
	var rating sql.NullFloat64
	if e.Rating != nil {
		rating = sql.NullFloat64{Float64: *e.Rating, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO reading_history
		(user_id, book_id, status, rating, review, pages_read, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, book_id) DO UPDATE SET
			status = excluded.status, rating = excluded.rating, review = excluded.review,
			pages_read = excluded.pages_read, updated_at = excluded.updated_at`,
		e.UserID, e.BookID, e.Status, rating, e.Review, e.PagesRead, e.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save reading entry: %w", err)
	}
	return nil
}

// GetReadingPreference implements ports.ReadingStore
func (r *SQLiteRepository) GetReadingPreference(ctx context.Context, userID string) (core.ReadingPreference, error) {
	var (
		p                       = core.ReadingPreference{UserID: userID}
		genres, authors, topics string
		updatedAt               string
	)
	err := r.db.QueryRowContext(ctx, `SELECT preferred_genres, preferred_authors, preferred_topics,
			preferred_difficulty, preferred_investment_level, books_per_month, reading_goal, updated_at
		FROM reading_preferences WHERE user_id = ?`, userID).
		Scan(&genres, &authors, &topics, &p.PreferredDifficulty, &p.PreferredInvestmentLevel,
			&p.BooksPerMonth, &p.ReadingGoal, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ReadingPreference{}, ports.ErrNotFound
	}
	if err != nil {
		return core.ReadingPreference{}, fmt.Errorf("get reading preference: %w", err)
	}
	for _, f := range []struct {
		raw string
		dst *[]string
	}{{genres, &p.PreferredGenres}, {authors, &p.PreferredAuthors}, {topics, &p.PreferredTopics}} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return core.ReadingPreference{}, fmt.Errorf("decode preferences: %w", err)
		}
	}
	if p.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return core.ReadingPreference{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return p, nil
}

// SaveReadingPreference implements ports.ReadingStore
func (r *SQLiteRepository) SaveReadingPreference(ctx context.Context, p core.ReadingPreference) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	encoded := make([]string, 0, 3)
	for _, list := range [][]string{p.PreferredGenres, p.PreferredAuthors, p.PreferredTopics} {
		raw, err := json.Marshal(nonNil(list))
		if err != nil {
			return fmt.Errorf("encode preferences: %w", err)
		}
		encoded = append(encoded, string(raw))
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO reading_preferences
		(user_id, preferred_genres, preferred_authors, preferred_topics, preferred_difficulty,
		 preferred_investment_level, books_per_month, reading_goal, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			preferred_genres = excluded.preferred_genres, preferred_authors = excluded.preferred_authors,
			preferred_topics = excluded.preferred_topics, preferred_difficulty = excluded.preferred_difficulty,
			preferred_investment_level = excluded.preferred_investment_level,
			books_per_month = excluded.books_per_month, reading_goal = excluded.reading_goal,
			updated_at = excluded.updated_at`,
		p.UserID, encoded[0], encoded[1], encoded[2], p.PreferredDifficulty,
		p.PreferredInvestmentLevel, p.BooksPerMonth, p.ReadingGoal, p.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save reading preference: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
