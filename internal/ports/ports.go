// Package ports declares the outbound interfaces the finance services depend on.
package ports

import (
	"context"
	"errors"

	"finwise/internal/core"
)

// ErrNotFound is returned by stores when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// Ports for outbound adapters.
type (
	ProfileStore interface {
		// GetProfile returns ErrNotFound when the user has no profile yet.
		GetProfile(ctx context.Context, userID string) (core.Profile, error)
		SaveProfile(ctx context.Context, p core.Profile) error
		ListProfiles(ctx context.Context) ([]core.Profile, error)
	}

	BenefitStateStore interface {
		// ListBenefitStates returns the states keyed by benefit name.
		ListBenefitStates(ctx context.Context, userID string) (map[string]core.BenefitState, error)
		SaveBenefitState(ctx context.Context, s core.BenefitState) error
	}

	// SummaryStore keeps the latest dashboard snapshot per user.
	SummaryStore interface {
		SaveSummary(ctx context.Context, s core.DashboardSummary) error
		LatestSummary(ctx context.Context, userID string) (core.DashboardSummary, error)
	}

	// TokenStore resolves API tokens to user ids.
	TokenStore interface {
		UserForToken(ctx context.Context, token string) (string, error)
	}

	// BookStore holds the wisdom library catalogue.
	BookStore interface {
		// ListBooks returns every book ordered by id.
		ListBooks(ctx context.Context) ([]core.Book, error)
		GetBook(ctx context.Context, id int64) (core.Book, error)
		// SaveBook inserts b when b.ID is zero and returns it with its id.
		SaveBook(ctx context.Context, b core.Book) (core.Book, error)
	}

	// ReadingStore keeps reading history and preferences per user.
	ReadingStore interface {
		// ListReading returns the user's entries, most recently updated first.
		ListReading(ctx context.Context, userID string) ([]core.ReadingEntry, error)
		SaveReading(ctx context.Context, e core.ReadingEntry) error
		GetReadingPreference(ctx context.Context, userID string) (core.ReadingPreference, error)
		SaveReadingPreference(ctx context.Context, p core.ReadingPreference) error
	}

	// ReportWriter pushes rows of an exported report to an external sink.
	ReportWriter interface {
		AppendRows(ctx context.Context, sheet string, rows [][]string) (rangeRef string, err error)
	}

	// Store bundles the persistence ports a backend provides.
	Store interface {
		ProfileStore
		BenefitStateStore
		SummaryStore
		TokenStore
		BookStore
		ReadingStore
	}
)
