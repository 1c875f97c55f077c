package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finwise/internal/core"
)

func titles(recs []core.TaxRecommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Title
	}
	return out
}

func TestRecommendationsHighIncome(t *testing.T) {
	svc := NewTaxSavingsService(seededStore(), nil)
	recs, summary := svc.Recommendations(richProfile())

	assert.Equal(t, []string{
		"Maximize ELSS Investment",
		"NPS Investment",
		"Long-term Investment Strategy",
		"Health Insurance for Family",
		"Build Emergency Fund",
		"Retirement Planning",
	}, titles(recs))

	want := []int64{9000, 15000, 30000, 7500, 0, 24000}
	for i, r := range recs {
		assert.Equal(t, want[i], core.Parse(r.PotentialSaving), r.Title)
	}
	assert.Equal(t, TaxSummary{
		TotalPotentialSavings: 85500,
		OptimizationScore:     95,
		CurrentTaxSaved:       15000,
	}, summary)
	assert.Equal(t, "Invest ₹30,000 more in ELSS funds to reach the maximum limit.", recs[0].Description)
}

func TestRecommendationsMiddleIncome(t *testing.T) {
	svc := NewTaxSavingsService(seededStore(), nil)
	p := core.Profile{
		UserID:            "u3",
		Name:              "Meera",
		Email:             "meera@example.com",
		Income:            600_000,
		Age:               40,
		Dependents:        1,
		TotalSavings:      120_000,
		EmergencyFund:     100_000,
		RetirementSavings: 100_000,
	}
	recs, summary := svc.Recommendations(p)
	assert.Equal(t, []string{"Start PPF Investment", "Individual Health Insurance"}, titles(recs))
	assert.Equal(t, int64(9000), core.Parse(recs[0].PotentialSaving))
	assert.Equal(t, int64(4500), core.Parse(recs[1].PotentialSaving))
	assert.Equal(t, int64(13500), summary.TotalPotentialSavings)
	assert.Equal(t, 80, summary.OptimizationScore)
}

func TestRecommendationsLowIncome(t *testing.T) {
	svc := NewTaxSavingsService(seededStore(), nil)
	p := core.Profile{
		UserID:            "u4",
		Name:              "Kiran",
		Email:             "kiran@example.com",
		Income:            300_000,
		Age:               55,
		EmergencyFund:     50_000,
		RetirementSavings: 50_000,
	}
	recs, summary := svc.Recommendations(p)
	assert.Equal(t, []string{"Start Basic Savings", "Conservative Investment Approach"}, titles(recs))
	assert.Equal(t, int64(3000), core.Parse(recs[0].PotentialSaving))
	assert.Equal(t, int64(28000), summary.TotalPotentialSavings)
}

func TestRecommendationsIncompleteProfile(t *testing.T) {
	svc := NewTaxSavingsService(seededStore(), nil)
	recs, summary := svc.Recommendations(core.Profile{UserID: "new"})
	assert.Equal(t, []string{"Complete Your Profile", "Basic Tax Planning"}, titles(recs))
	assert.Equal(t, TaxSummary{TotalPotentialSavings: 45000, OptimizationScore: 30}, summary)
}

func TestConsideredRecommendations(t *testing.T) {
	svc := NewTaxSavingsService(seededStore(), nil)
	recs, summary := svc.Recommendations(richProfile())

	cases := []struct {
		name    string
		indices []int
		want    ConsideredSummary
	}{
		{
			name:    "none",
			indices: nil,
			want:    ConsideredSummary{Indices: []int{}},
		},
		{
			name:    "duplicates and out of range ignored",
			indices: []int{3, 0, 3, 99, -1},
			want: ConsideredSummary{
				Indices:           []int{0, 3},
				PotentialSavings:  16500,
				OptimizationScore: 19,
				CurrentTaxSaved:   9000,
			},
		},
		{
			name:    "everything",
			indices: []int{0, 1, 2, 3, 4, 5},
			want: ConsideredSummary{
				Indices:           []int{0, 1, 2, 3, 4, 5},
				PotentialSavings:  85500,
				OptimizationScore: 100,
				CurrentTaxSaved:   9000,
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, svc.Considered(recs, summary, tc.indices))
		})
	}
}

func TestTaxOptions(t *testing.T) {
	p := richProfile()
	p.InvestmentAmount = 200_000
	opts := TaxOptions(p)

	require.Len(t, opts[Section80C], 3)
	elss, ppf, nsc := opts[Section80C][0], opts[Section80C][1], opts[Section80C][2]
	assert.Equal(t, int64(150_000), elss.Invested)
	assert.Equal(t, int64(0), elss.PotentialSaving, "over the limit leaves nothing to save")
	assert.Equal(t, int64(60_000), ppf.Invested)
	assert.Equal(t, int64(15_000), ppf.PotentialSaving)
	assert.Equal(t, int64(40_000), nsc.Invested)
	assert.Equal(t, int64(9_000), nsc.PotentialSaving)

	require.Len(t, opts[Section80D], 2)
	assert.Equal(t, int64(25_000), opts[Section80D][0].Invested)
	assert.Equal(t, int64(0), opts[Section80D][0].PotentialSaving)
	assert.Equal(t, int64(15_000), opts[Section80D][1].PotentialSaving)

	require.Len(t, opts[Section80CCD], 1)
	assert.Equal(t, "Till 60", opts[Section80CCD][0].LockIn)
}

func TestTaxSavingsSummary(t *testing.T) {
	store := seededStore(richProfile())
	svc := NewTaxSavingsService(store, core.NewParser())

	rep, err := svc.Summary(context.Background(), "u1", []int{2})
	require.NoError(t, err)
	assert.Len(t, rep.Recommendations, 6)
	assert.Equal(t, int64(30000), rep.Considered.PotentialSavings)
	assert.Equal(t, int64(0), rep.Considered.CurrentTaxSaved)
	assert.Equal(t, int64(1_200_000), rep.ProfileData.Income)
	assert.Contains(t, rep.Options, Section80CCD)
}
