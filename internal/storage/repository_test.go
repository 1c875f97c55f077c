package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finwise/internal/core"
	"finwise/internal/ports"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "finwise.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	v1, err := RunMigrations(path)
	require.NoError(t, err)
	v2, err := RunMigrations(path)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.EqualValues(t, 2, v1)
}

func TestProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.GetProfile(ctx, "u1")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	p := core.Profile{
		UserID:            "u1",
		Name:              "Asha",
		Email:             "asha@example.com",
		Income:            1200000,
		Age:               41,
		Dependents:        2,
		InvestmentTypes:   "PPF,ELSS",
		EmergencyFund:     50000,
		RetirementSavings: 300000,
		PropertyOwned:     true,
		UpdatedAt:         time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.SaveProfile(ctx, p))

	got, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	p.Income = 1500000
	require.NoError(t, repo.SaveProfile(ctx, p))
	all, err := repo.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.EqualValues(t, 1500000, all[0].Income)

	assert.ErrorIs(t, repo.SaveProfile(ctx, core.Profile{UserID: "u2", Age: -1}), core.ErrInvalidProfile)
}

func TestBenefitStates(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.SaveBenefitState(ctx, core.BenefitState{UserID: "u1", Benefit: "PM-KISAN", Applied: true}))
	require.NoError(t, repo.SaveBenefitState(ctx, core.BenefitState{UserID: "u1", Benefit: "PM-KISAN", Applied: true, Claimed: true}))
	require.NoError(t, repo.SaveBenefitState(ctx, core.BenefitState{UserID: "u2", Benefit: "PMSBY", Applied: true}))

	states, err := repo.ListBenefitStates(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.True(t, states["PM-KISAN"].Claimed)
	assert.False(t, states["PM-KISAN"].UpdatedAt.IsZero())
}

func TestSummariesLatestWins(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.LatestSummary(ctx, "u1")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, repo.SaveSummary(ctx, core.DashboardSummary{UserID: "u1", ProgressPercentage: 10}))
	require.NoError(t, repo.SaveSummary(ctx, core.DashboardSummary{
		UserID:             "u1",
		ProgressPercentage: 60,
		HealthScore:        75,
		Recommendations:    []string{"Build an emergency fund"},
	}))

	s, err := repo.LatestSummary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 60, s.ProgressPercentage)
	assert.Equal(t, 75, s.HealthScore)
	assert.Equal(t, []string{"Build an emergency fund"}, s.Recommendations)
}

func TestTokens(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.UserForToken(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, repo.AddToken(ctx, "abc", "u1"))
	require.NoError(t, repo.AddToken(ctx, "abc", "u2"))
	user, err := repo.UserForToken(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "u2", user)
}
