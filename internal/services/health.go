package services

import (
	"github.com/shopspring/decimal"

	"finwise/internal/core"
)

var (
	pct3  = decimal.RequireFromString("0.03")
	pct5  = decimal.RequireFromString("0.05")
	pct10 = decimal.RequireFromString("0.1")
	pct20 = decimal.RequireFromString("0.2")
)

// atLeast reports whether amount >= income * share.
func atLeast(amount, income int64, share decimal.Decimal) bool {
	return dec(amount).GreaterThanOrEqual(dec(income).Mul(share))
}

// TaxTips returns short, rule-based tips for the dashboard.
func TaxTips(p core.Profile) []string {
	tips := []string{}
	if p.Income > 1_000_000 {
		tips = append(tips,
			"Invest in ELSS for tax deduction under 80C.",
			"Consider NPS for additional tax benefits.")
	}
	if p.Income > 500_000 {
		tips = append(tips, "Maximize 80C deductions with PPF and ELSS.")
	}
	if p.Dependents >= 2 {
		tips = append(tips,
			"Claim deductions for dependent care under 80D.",
			"Consider health insurance for family tax benefits.")
	}
	if !atLeast(p.InvestmentAmount, p.Income, pct10) {
		tips = append(tips, "Increase investment allocation to 10% of income.")
	}
	if !atLeast(p.MonthlySavings, p.Income, pct20) {
		tips = append(tips, "Aim to save at least 20% of your monthly income.")
	}
	if !atLeast(p.EmergencyFund, p.Income, emergencyPct) {
		tips = append(tips, "Build emergency fund equivalent to 6 months of income.")
	}
	if !atLeast(p.RetirementSavings, p.Income, retirePct) {
		tips = append(tips, "Allocate 15% of income for retirement planning.")
	}
	return tips
}

// SavingsProgress is total/goal as a percentage capped at 100, or 0 without
// a goal.
func SavingsProgress(total, goal int64) int {
	if goal <= 0 {
		return 0
	}
	return min(core.Percentage(total, goal), 100)
}

// HealthScore rates the profile out of 100 across emergency fund, savings
// rate, investments and retirement, 25 points each.
func HealthScore(p core.Profile) int {
	tier := func(amount int64, high, mid decimal.Decimal) int {
		switch {
		case atLeast(amount, p.Income, high):
			return 25
		case atLeast(amount, p.Income, mid):
			return 15
		default:
			return 5
		}
	}

	score := tier(p.EmergencyFund, emergencyPct, pct3)
	if p.Income > 0 {
		score += tier(p.MonthlySavings, pct20, pct10)
	} else {
		score += 5
	}
	score += tier(p.InvestmentAmount, pct10, pct5)
	score += tier(p.RetirementSavings, retirePct, pct10)
	return score
}

// BreakdownEntry is one slice of the dashboard's allocation chart.
type BreakdownEntry struct {
	Label      string `json:"label"`
	Amount     int64  `json:"amount"`
	Display    string `json:"display"`
	Percentage int    `json:"percentage"`
}

const labelBucket = "bucket"

// Breakdown splits the user's assets into chart slices. Empty buckets are
// left out.
func Breakdown(agg *core.Aggregator, p core.Profile) []BreakdownEntry {
	buckets := []struct {
		label  string
		amount int64
	}{
		{"Savings", p.TotalSavings},
		{"Investments", p.InvestmentAmount},
		{"Emergency Fund", p.EmergencyFund},
		{"Retirement", p.RetirementSavings},
	}
	records := make([]core.Record, len(buckets))
	for i, b := range buckets {
		records[i] = core.Record{
			Amount: core.IntAmount(b.amount),
			Labels: map[string]string{labelBucket: b.label},
		}
	}
	res := agg.Aggregate(records, core.ByLabel(labelBucket, "other"))

	out := []BreakdownEntry{}
	for _, b := range buckets {
		v := res.Sum(b.label)
		if v == 0 {
			continue
		}
		out = append(out, BreakdownEntry{
			Label:      b.label,
			Amount:     v,
			Display:    core.FormatCompact(v),
			Percentage: res.Percentage(b.label),
		})
	}
	return out
}
