package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"finwise/internal/core"
	"finwise/internal/ports"
)

// Deduction sections.
const (
	Section80C   = "80C"
	Section80D   = "80D"
	Section80CCD = "80CCD"
)

const (
	limit80C        int64 = 150_000
	limitNSC        int64 = 100_000
	limit80D        int64 = 25_000
	limitParents80D int64 = 50_000
	limitNPS        int64 = 50_000
	topUpCap        int64 = 50_000
	nscTopUpCap     int64 = 30_000
)

var (
	taxRate      = decimal.RequireFromString("0.3")
	lowTaxRate   = decimal.RequireFromString("0.1")
	emergencyPct = decimal.RequireFromString("0.06")
	retirePct    = decimal.RequireFromString("0.15")
)

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func minDec(a, b decimal.Decimal) decimal.Decimal { return decimal.Min(a, b) }

// wholeRupees truncates d and clamps negatives to zero.
func wholeRupees(d decimal.Decimal) int64 {
	if d.IsNegative() {
		return 0
	}
	return d.Truncate(0).IntPart()
}

// roundedRupees rounds d to the nearest rupee for display.
func roundedRupees(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// TaxOptions lists the deduction products per section with what the user has
// already invested and what is left to save at a 30% rate.
func TaxOptions(p core.Profile) map[string][]core.TaxOption {
	savings := dec(p.TotalSavings)
	ppfInvested := minDec(savings.Mul(taxRate), dec(limit80C))
	nscInvested := minDec(savings.Mul(decimal.RequireFromString("0.2")), dec(limitNSC))

	return map[string][]core.TaxOption{
		Section80C: {
			{
				Name:            "ELSS Mutual Funds",
				Section:         Section80C,
				Limit:           limit80C,
				Invested:        min(p.InvestmentAmount, limit80C),
				Returns:         "12-15%",
				Risk:            "High",
				LockIn:          "3 years",
				PotentialSaving: wholeRupees(dec(min(limit80C-p.InvestmentAmount, topUpCap)).Mul(taxRate)),
			},
			{
				Name:            "PPF",
				Section:         Section80C,
				Limit:           limit80C,
				Invested:        wholeRupees(ppfInvested),
				Returns:         "7-8%",
				Risk:            "Low",
				LockIn:          "15 years",
				PotentialSaving: wholeRupees(minDec(dec(limit80C).Sub(savings.Mul(taxRate)), dec(topUpCap)).Mul(taxRate)),
			},
			{
				Name:            "NSC",
				Section:         Section80C,
				Limit:           limitNSC,
				Invested:        wholeRupees(nscInvested),
				Returns:         "6-7%",
				Risk:            "Low",
				LockIn:          "5 years",
				PotentialSaving: wholeRupees(minDec(dec(limitNSC).Sub(nscInvested), dec(nscTopUpCap)).Mul(taxRate)),
			},
		},
		Section80D: {
			{
				Name:            "Health Insurance Premium",
				Section:         Section80D,
				Limit:           limit80D,
				Invested:        min(p.TaxDeductions, limit80D),
				Returns:         "Tax Benefit",
				Risk:            "Low",
				LockIn:          "1 year",
				PotentialSaving: wholeRupees(dec(max(limit80D-p.TaxDeductions, 0)).Mul(taxRate)),
			},
			{
				Name:            "Parents Health Insurance",
				Section:         Section80D,
				Limit:           limitParents80D,
				Returns:         "Tax Benefit",
				Risk:            "Low",
				LockIn:          "1 year",
				PotentialSaving: wholeRupees(dec(limitParents80D).Mul(taxRate)),
			},
		},
		Section80CCD: {
			{
				Name:            "NPS Investment",
				Section:         Section80CCD,
				Limit:           limitNPS,
				Returns:         "8-10%",
				Risk:            "Medium",
				LockIn:          "Till 60",
				PotentialSaving: wholeRupees(dec(limitNPS).Mul(taxRate)),
			},
		},
	}
}

type TaxSummary struct {
	TotalPotentialSavings int64 `json:"total_potential_savings"`
	OptimizationScore     int   `json:"optimization_score"`
	CurrentTaxSaved       int64 `json:"current_tax_saved"`
}

// ConsideredSummary recomputes the headline figures over the
// recommendations the user ticked.
type ConsideredSummary struct {
	Indices           []int `json:"indices"`
	PotentialSavings  int64 `json:"potential_savings"`
	OptimizationScore int   `json:"optimization_score"`
	CurrentTaxSaved   int64 `json:"current_tax_saved"`
}

type TaxSavingsReport struct {
	Recommendations []core.TaxRecommendation    `json:"recommendations"`
	Summary         TaxSummary                  `json:"summary"`
	Considered      ConsideredSummary           `json:"considered"`
	Options         map[string][]core.TaxOption `json:"tax_options"`
	ProfileData     TaxProfileData              `json:"profile_data"`
}

// TaxProfileData echoes the profile fields the advice was based on.
type TaxProfileData struct {
	Income            int64 `json:"income"`
	Age               int   `json:"age"`
	Dependents        int   `json:"dependents"`
	TaxDeductions     int64 `json:"tax_deductions"`
	InvestmentAmount  int64 `json:"investment_amount"`
	EmergencyFund     int64 `json:"emergency_fund"`
	RetirementSavings int64 `json:"retirement_savings"`
}

type TaxSavingsService struct {
	profiles ports.ProfileStore
	agg      *core.Aggregator
}

func NewTaxSavingsService(profiles ports.ProfileStore, parser *core.Parser) *TaxSavingsService {
	return &TaxSavingsService{profiles: profiles, agg: core.NewAggregator(parser)}
}

// Summary builds the tax-savings page for userID. considered holds indices
// into the returned recommendations; out-of-range and repeated indices are
// ignored.
func (s *TaxSavingsService) Summary(ctx context.Context, userID string, considered []int) (TaxSavingsReport, error) {
	p, err := loadProfile(ctx, s.profiles, userID)
	if err != nil {
		return TaxSavingsReport{}, err
	}
	recs, summary := s.Recommendations(p)
	return TaxSavingsReport{
		Recommendations: recs,
		Summary:         summary,
		Considered:      s.Considered(recs, summary, considered),
		Options:         s.Options(p),
		ProfileData: TaxProfileData{
			Income:            p.Income,
			Age:               p.Age,
			Dependents:        p.Dependents,
			TaxDeductions:     p.TaxDeductions,
			InvestmentAmount:  p.InvestmentAmount,
			EmergencyFund:     p.EmergencyFund,
			RetirementSavings: p.RetirementSavings,
		},
	}, nil
}

func (s *TaxSavingsService) Options(p core.Profile) map[string][]core.TaxOption {
	return TaxOptions(p)
}

// Recommendations derives personalised tax advice from the profile. An
// incomplete profile gets an onboarding pair instead.
func (s *TaxSavingsService) Recommendations(p core.Profile) ([]core.TaxRecommendation, TaxSummary) {
	if !p.IsComplete() {
		return onboardingRecommendations(), TaxSummary{
			TotalPotentialSavings: 45_000,
			OptimizationScore:     30,
		}
	}

	income := dec(p.Income)
	var recs []core.TaxRecommendation
	add := func(r core.TaxRecommendation) { recs = append(recs, r) }

	switch {
	case p.Income > 1_000_000:
		if elss := min(limit80C-p.InvestmentAmount, topUpCap); elss > 0 {
			add(core.TaxRecommendation{
				Title:           "Maximize ELSS Investment",
				Description:     fmt.Sprintf("Invest %s more in ELSS funds to reach the maximum limit.", core.FormatRupees(elss)),
				PotentialSaving: core.DecimalAmount(dec(elss).Mul(taxRate)),
				Priority:        core.PriorityHigh,
				Category:        Section80C,
				Action:          "Invest Now",
				Risk:            "High",
				Returns:         "12-15%",
				LockIn:          "3 years",
			})
		}
		add(core.TaxRecommendation{
			Title:           "NPS Investment",
			Description:     "Invest in NPS under Section 80CCD(1B) for additional ₹50,000 deduction.",
			PotentialSaving: core.DecimalAmount(dec(limitNPS).Mul(taxRate)),
			Priority:        core.PriorityMedium,
			Category:        "NPS",
			Action:          "Learn More",
			Risk:            "Medium",
			Returns:         "8-10%",
			LockIn:          "Till 60",
		})
	case p.Income > 500_000:
		if ppf := min(limit80C-p.TotalSavings, topUpCap); ppf > 0 {
			add(core.TaxRecommendation{
				Title:           "Start PPF Investment",
				Description:     fmt.Sprintf("Invest %s in PPF for tax-free returns and deductions.", core.FormatRupees(ppf)),
				PotentialSaving: core.DecimalAmount(dec(ppf).Mul(taxRate)),
				Priority:        core.PriorityHigh,
				Category:        Section80C,
				Action:          "Open PPF Account",
				Risk:            "Low",
				Returns:         "7-8%",
				LockIn:          "15 years",
			})
		}
	default:
		if basic := minDec(dec(topUpCap), income.Mul(lowTaxRate)); basic.IsPositive() {
			add(core.TaxRecommendation{
				Title:           "Start Basic Savings",
				Description:     fmt.Sprintf("Start with %s in basic savings instruments.", core.FormatRupees(roundedRupees(basic))),
				PotentialSaving: core.DecimalAmount(basic.Mul(lowTaxRate)),
				Priority:        core.PriorityMedium,
				Category:        "Basic Savings",
				Action:          "Start Saving",
				Risk:            "Low",
				Returns:         "4-6%",
				LockIn:          "Flexible",
			})
		}
	}

	switch {
	case p.Age < 30:
		add(core.TaxRecommendation{
			Title:           "Long-term Investment Strategy",
			Description:     "You're young! Focus on equity-based investments for long-term wealth creation.",
			PotentialSaving: core.IntAmount(30_000),
			Priority:        core.PriorityHigh,
			Category:        "Investment Strategy",
			Action:          "Plan Investments",
			Risk:            "High",
			Returns:         "12-18%",
			LockIn:          "5+ years",
		})
	case p.Age > 50:
		add(core.TaxRecommendation{
			Title:           "Conservative Investment Approach",
			Description:     "Focus on debt instruments and tax-saving bonds for stable returns.",
			PotentialSaving: core.IntAmount(25_000),
			Priority:        core.PriorityHigh,
			Category:        "Conservative",
			Action:          "Review Portfolio",
			Risk:            "Low",
			Returns:         "6-8%",
			LockIn:          "3-5 years",
		})
	}

	switch {
	case p.Dependents >= 2:
		add(core.TaxRecommendation{
			Title:           "Health Insurance for Family",
			Description:     "Take health insurance for your family to claim deduction up to ₹25,000.",
			PotentialSaving: core.DecimalAmount(dec(25_000).Mul(taxRate)),
			Priority:        core.PriorityHigh,
			Category:        Section80D,
			Action:          "Get Quote",
			Risk:            "Low",
			Returns:         "Tax Benefit",
			LockIn:          "1 year",
		})
	case p.Dependents == 1:
		add(core.TaxRecommendation{
			Title:           "Individual Health Insurance",
			Description:     "Consider health insurance for yourself to claim deduction up to ₹15,000.",
			PotentialSaving: core.DecimalAmount(dec(15_000).Mul(taxRate)),
			Priority:        core.PriorityMedium,
			Category:        Section80D,
			Action:          "Get Quote",
			Risk:            "Low",
			Returns:         "Tax Benefit",
			LockIn:          "1 year",
		})
	}

	if target := income.Mul(emergencyPct); dec(p.EmergencyFund).LessThan(target) {
		gap := target.Sub(dec(p.EmergencyFund))
		add(core.TaxRecommendation{
			Title:           "Build Emergency Fund",
			Description:     fmt.Sprintf("Build emergency fund of %s for financial security.", core.FormatRupees(roundedRupees(gap))),
			PotentialSaving: core.IntAmount(0),
			Priority:        core.PriorityHigh,
			Category:        "Emergency Fund",
			Action:          "Start Saving",
			Risk:            "Low",
			Returns:         "4-6%",
			LockIn:          "Flexible",
		})
	}

	if target := income.Mul(retirePct); dec(p.RetirementSavings).LessThan(target) {
		gap := target.Sub(dec(p.RetirementSavings))
		add(core.TaxRecommendation{
			Title:           "Retirement Planning",
			Description:     fmt.Sprintf("Allocate %s annually for retirement planning.", core.FormatRupees(roundedRupees(gap))),
			PotentialSaving: core.DecimalAmount(gap.Mul(taxRate)),
			Priority:        core.PriorityMedium,
			Category:        "Retirement",
			Action:          "Plan Retirement",
			Risk:            "Medium",
			Returns:         "8-12%",
			LockIn:          "Long-term",
		})
	}

	total := s.agg.Aggregate(recommendationRecords(recs), core.Constant("all")).Total
	return recs, TaxSummary{
		TotalPotentialSavings: total,
		OptimizationScore:     min(30+15*len(recs)+20, 95),
		CurrentTaxSaved:       wholeRupees(dec(p.TaxDeductions).Mul(taxRate)),
	}
}

func onboardingRecommendations() []core.TaxRecommendation {
	return []core.TaxRecommendation{
		{
			Title:           "Complete Your Profile",
			Description:     "Please update your profile with accurate financial information to receive personalized recommendations.",
			PotentialSaving: core.IntAmount(0),
			Priority:        core.PriorityHigh,
			Category:        "Profile Setup",
			Action:          "Update Profile",
			Risk:            "None",
			Returns:         "Personalized Advice",
			LockIn:          "None",
		},
		{
			Title:           "Basic Tax Planning",
			Description:     "Start with basic tax-saving investments like PPF and ELSS once you have income details.",
			PotentialSaving: core.IntAmount(45_000),
			Priority:        core.PriorityMedium,
			Category:        Section80C,
			Action:          "Learn More",
			Risk:            "Low to Medium",
			Returns:         "7-15%",
			LockIn:          "3-15 years",
		},
	}
}

const labelCategory = "category"

func recommendationRecords(recs []core.TaxRecommendation) []core.Record {
	out := make([]core.Record, len(recs))
	for i, r := range recs {
		out[i] = core.Record{Amount: r.PotentialSaving, Labels: map[string]string{labelCategory: r.Category}}
	}
	return out
}

// Considered sums the selected recommendations. The score compares them to
// the full potential and is 0 when nothing is selected.
func (s *TaxSavingsService) Considered(recs []core.TaxRecommendation, summary TaxSummary, indices []int) ConsideredSummary {
	seen := map[int]bool{}
	var picked []core.TaxRecommendation
	valid := []int{}
	for _, i := range indices {
		if i < 0 || i >= len(recs) || seen[i] {
			continue
		}
		seen[i] = true
		valid = append(valid, i)
		picked = append(picked, recs[i])
	}
	sort.Ints(valid)

	out := ConsideredSummary{Indices: valid}
	if len(picked) == 0 {
		return out
	}
	res := s.agg.Aggregate(recommendationRecords(picked), core.ByLabel(labelCategory, "other"))
	out.PotentialSavings = res.Total
	out.OptimizationScore = core.Percentage(res.Total, summary.TotalPotentialSavings)
	out.CurrentTaxSaved = res.Sum(Section80C)
	return out
}
