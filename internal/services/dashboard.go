package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"finwise/internal/cache"
	"finwise/internal/core"
	"finwise/internal/ports"
)

// DashboardStats is everything the dashboard page renders.
type DashboardStats struct {
	Summary               core.DashboardSummary `json:"summary"`
	TotalSavingsDisplay   string                `json:"total_savings_display"`
	MonthlySavingsDisplay string                `json:"monthly_savings_display"`
	SavingsGoalDisplay    string                `json:"savings_goal_display"`
	Breakdown             []BreakdownEntry      `json:"breakdown"`
	EligibleBenefits      int                   `json:"eligible_benefits"`
	BenefitsValueDisplay  string                `json:"benefits_value_display"`
	TaxSavingsPotential   int64                 `json:"tax_savings_potential"`
	TaxSavingsDisplay     string                `json:"tax_savings_display"`
	ProfileComplete       bool                  `json:"profile_complete"`
}

type DashboardService struct {
	profiles  ports.ProfileStore
	summaries ports.SummaryStore
	benefits  *BenefitsService
	tax       *TaxSavingsService
	agg       *core.Aggregator
	cache     cache.Cache[DashboardStats]
	now       func() time.Time
}

// NewDashboardService wires the service. stats may be nil to disable caching.
func NewDashboardService(profiles ports.ProfileStore, summaries ports.SummaryStore, benefits *BenefitsService, tax *TaxSavingsService, parser *core.Parser, stats cache.Cache[DashboardStats]) *DashboardService {
	return &DashboardService{
		profiles:  profiles,
		summaries: summaries,
		benefits:  benefits,
		tax:       tax,
		agg:       core.NewAggregator(parser),
		cache:     stats,
		now:       time.Now,
	}
}

// Stats returns the dashboard for userID and records a snapshot of it.
func (s *DashboardService) Stats(ctx context.Context, userID string) (DashboardStats, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(userID); ok {
			return cached, nil
		}
	}

	stats, err := s.compute(ctx, userID)
	if err != nil {
		return DashboardStats{}, err
	}
	if err := s.summaries.SaveSummary(ctx, stats.Summary); err != nil {
		return DashboardStats{}, fmt.Errorf("save dashboard summary: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(userID, stats)
	}
	return stats, nil
}

func (s *DashboardService) compute(ctx context.Context, userID string) (DashboardStats, error) {
	p, err := loadProfile(ctx, s.profiles, userID)
	if err != nil {
		return DashboardStats{}, err
	}

	var (
		benefits BenefitsSummary
		taxSum   TaxSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		benefits, err = s.benefits.Summary(gctx, userID, BenefitFilter{})
		return err
	})
	g.Go(func() error {
		_, taxSum = s.tax.Recommendations(p)
		return nil
	})
	if err := g.Wait(); err != nil {
		return DashboardStats{}, err
	}

	summary := core.DashboardSummary{
		UserID:             userID,
		TotalSavings:       p.TotalSavings,
		MonthlySavings:     p.MonthlySavings,
		SavingsGoal:        p.SavingsGoal,
		ProgressPercentage: SavingsProgress(p.TotalSavings, p.SavingsGoal),
		Recommendations:    TaxTips(p),
		HealthScore:        HealthScore(p),
		ComputedAt:         s.now().UTC(),
	}
	return DashboardStats{
		Summary:               summary,
		TotalSavingsDisplay:   core.FormatCompact(p.TotalSavings),
		MonthlySavingsDisplay: core.FormatCompact(p.MonthlySavings),
		SavingsGoalDisplay:    core.FormatCompact(p.SavingsGoal),
		Breakdown:             Breakdown(s.agg, p),
		EligibleBenefits:      len(benefits.Benefits),
		BenefitsValueDisplay:  benefits.TotalPotentialDisplay,
		TaxSavingsPotential:   taxSum.TotalPotentialSavings,
		TaxSavingsDisplay:     core.FormatCompact(taxSum.TotalPotentialSavings),
		ProfileComplete:       p.IsComplete(),
	}, nil
}

// Invalidate drops the cached dashboard for userID.
func (s *DashboardService) Invalidate(userID string) {
	if s.cache != nil {
		s.cache.Delete(userID)
	}
}

// Refresh recomputes and stores the snapshot for userID, bypassing the cache.
func (s *DashboardService) Refresh(ctx context.Context, userID string) (core.DashboardSummary, error) {
	s.Invalidate(userID)
	s.benefits.Invalidate(userID)
	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return core.DashboardSummary{}, err
	}
	return stats.Summary, nil
}

// RefreshStale refreshes every user whose latest snapshot is missing or older
// than maxAge. It returns the refreshed summaries; a failing user is logged
// and skipped.
func (s *DashboardService) RefreshStale(ctx context.Context, maxAge time.Duration) ([]core.DashboardSummary, error) {
	profiles, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	cutoff := s.now().Add(-maxAge)
	var refreshed []core.DashboardSummary
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		latest, err := s.summaries.LatestSummary(ctx, p.UserID)
		switch {
		case errors.Is(err, ports.ErrNotFound):
		case err != nil:
			slog.WarnContext(ctx, "Failed to read latest summary", "user_id", p.UserID, "error", err)
			continue
		case latest.ComputedAt.After(cutoff):
			continue
		}

		sum, err := s.Refresh(ctx, p.UserID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to refresh dashboard", "user_id", p.UserID, "error", err)
			continue
		}
		refreshed = append(refreshed, sum)
	}
	return refreshed, nil
}
