package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finwise/internal/core"
	"finwise/internal/ports"
	"finwise/internal/report"
)

// Report types that can be generated.
const (
	ReportTax        = "tax"
	ReportInvestment = "investment"
	ReportHealth     = "health"
	ReportBenefits   = "benefits"
)

var (
	ErrUnknownReport  = errors.New("unknown report type")
	ErrExportDisabled = errors.New("report export is not configured")
)

// ReportDescriptor is one entry of the reports page.
type ReportDescriptor struct {
	ID          int            `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Type        string         `json:"type"`
	Format      string         `json:"format"`
	Size        string         `json:"size"`
	Date        string         `json:"date"`
	Status      string         `json:"status"`
	Color       string         `json:"color"`
	Data        map[string]any `json:"data"`
}

type ReportStats struct {
	TotalReports       int    `json:"total_reports"`
	TaxSavings         string `json:"tax_savings"`
	BenefitsClaimed    int    `json:"benefits_claimed"`
	TotalBenefitsValue string `json:"total_benefits_value"`
}

type ReportList struct {
	Reports []ReportDescriptor `json:"reports"`
	Stats   ReportStats        `json:"stats"`
}

type ReportService struct {
	profiles ports.ProfileStore
	benefits *BenefitsService
	tax      *TaxSavingsService
	writer   ports.ReportWriter
	sheet    string
	now      func() time.Time
}

// NewReportService wires the service. writer may be nil when no external
// sheet is configured.
func NewReportService(profiles ports.ProfileStore, benefits *BenefitsService, tax *TaxSavingsService, writer ports.ReportWriter, sheet string) *ReportService {
	return &ReportService{
		profiles: profiles,
		benefits: benefits,
		tax:      tax,
		writer:   writer,
		sheet:    sheet,
		now:      time.Now,
	}
}

func taxSaved(deductions int64) int64 {
	return wholeRupees(dec(deductions).Mul(taxRate))
}

// List returns the report catalogue for userID with headline stats.
func (s *ReportService) List(ctx context.Context, userID string) (ReportList, error) {
	p, err := loadProfile(ctx, s.profiles, userID)
	if err != nil {
		return ReportList{}, err
	}
	benefits, err := s.benefits.Summary(ctx, userID, BenefitFilter{})
	if err != nil {
		return ReportList{}, err
	}

	progress := SavingsProgress(p.TotalSavings, p.SavingsGoal)
	reports := []ReportDescriptor{
		{
			ID:          1,
			Title:       "Annual Tax Summary Report",
			Description: "Comprehensive overview of your tax savings and deductions for the financial year",
			Type:        ReportTax,
			Format:      "PDF",
			Size:        "2.3 MB",
			Color:       "emerald",
			Data: map[string]any{
				"total_income":      p.Income,
				"tax_deductions":    p.TaxDeductions,
				"potential_savings": taxSaved(p.TaxDeductions),
				"investment_amount": p.InvestmentAmount,
			},
		},
		{
			ID:          2,
			Title:       "Investment Portfolio Analysis",
			Description: "Detailed analysis of your investment performance and asset allocation",
			Type:        ReportInvestment,
			Format:      "PDF",
			Size:        "1.8 MB",
			Color:       "blue",
			Data: map[string]any{
				"total_investment": p.InvestmentAmount,
				"investment_types": p.InvestmentTypes,
				"monthly_savings":  p.MonthlySavings,
				"savings_goal":     p.SavingsGoal,
			},
		},
		{
			ID:          3,
			Title:       "Government Benefits Report",
			Description: "Summary of all government benefits you're eligible for",
			Type:        ReportBenefits,
			Format:      "PDF",
			Size:        "945 KB",
			Color:       "purple",
			Data: map[string]any{
				"age":        p.Age,
				"income":     p.Income,
				"dependents": p.Dependents,
			},
		},
		{
			ID:          4,
			Title:       "Financial Health Assessment",
			Description: "Financial health assessment and recommendations",
			Type:        ReportHealth,
			Format:      "PDF",
			Size:        "1.2 MB",
			Color:       "indigo",
			Data: map[string]any{
				"emergency_fund":     p.EmergencyFund,
				"retirement_savings": p.RetirementSavings,
				"total_savings":      p.TotalSavings,
				"monthly_savings":    p.MonthlySavings,
			},
		},
		{
			ID:          5,
			Title:       "Savings Progress Report",
			Description: "Track your savings progress and goal achievement",
			Type:        ReportInvestment,
			Format:      "Excel",
			Size:        "678 KB",
			Color:       "green",
			Data: map[string]any{
				"current_savings":     p.TotalSavings,
				"monthly_savings":     p.MonthlySavings,
				"savings_goal":        p.SavingsGoal,
				"progress_percentage": progress,
			},
		},
		{
			ID:          6,
			Title:       "Tax Deduction Breakdown",
			Description: "Detailed breakdown of all tax deductions under various sections",
			Type:        ReportTax,
			Format:      "Excel",
			Size:        "456 KB",
			Color:       "amber",
			Data: map[string]any{
				"80c_deductions":   min(p.InvestmentAmount, limit80C),
				"80d_deductions":   p.TaxDeductions,
				"total_deductions": p.TaxDeductions,
				"tax_saved":        taxSaved(p.TaxDeductions),
			},
		},
	}
	date := s.now().UTC().Format(time.DateOnly)
	for i := range reports {
		reports[i].Status = "ready"
		reports[i].Date = date
	}

	return ReportList{
		Reports: reports,
		Stats: ReportStats{
			TotalReports:       len(reports),
			TaxSavings:         core.FormatRupees(taxSaved(p.TaxDeductions)),
			BenefitsClaimed:    benefits.ClaimedCount,
			TotalBenefitsValue: "₹" + benefits.TotalPotentialDisplay,
		},
	}, nil
}

var fallbackAdvice = []string{
	"Review your financial plan every quarter",
	"Keep your profile up to date for accurate advice",
	"Track monthly expenses to find more to save",
}

// threeOf returns exactly three recommendations, padding from fallbackAdvice.
func threeOf(recs []string) []string {
	out := make([]string, 0, 3)
	for _, r := range recs {
		if len(out) == 3 {
			break
		}
		out = append(out, r)
	}
	for _, r := range fallbackAdvice {
		if len(out) == 3 {
			break
		}
		out = append(out, r)
	}
	return out
}

// Generate builds the downloadable table for reportType.
func (s *ReportService) Generate(ctx context.Context, userID, reportType string) (report.Table, error) {
	p, err := loadProfile(ctx, s.profiles, userID)
	if err != nil {
		return report.Table{}, err
	}

	switch reportType {
	case ReportTax:
		recs, summary := s.tax.Recommendations(p)
		titles := make([]string, len(recs))
		for i, r := range recs {
			titles[i] = r.Title
		}
		used := min(p.InvestmentAmount, limit80C)
		return report.Table{
			Title: "Annual Tax Summary Report",
			Sheet: "Tax Summary",
			Rows: []report.Row{
				{Label: "Total Income", Value: core.FormatRupees(p.Income)},
				{Label: "Tax Deductions", Value: core.FormatRupees(p.TaxDeductions)},
				{Label: "Potential Tax Savings", Value: core.FormatRupees(summary.TotalPotentialSavings)},
				{Label: "Investment Amount", Value: core.FormatRupees(p.InvestmentAmount)},
				{Label: "80C Utilization", Value: fmt.Sprintf("%d%%", core.Percentage(used, limit80C))},
			},
			Recommendations: threeOf(titles),
		}, nil

	case ReportInvestment:
		monthly := roundedRupees(dec(p.Income).Mul(pct20))
		return report.Table{
			Title: "Investment Portfolio Analysis",
			Sheet: "Investment Analysis",
			Rows: []report.Row{
				{Label: "Total Investment", Value: core.FormatRupees(p.InvestmentAmount)},
				{Label: "Investment Types", Value: p.InvestmentTypes},
				{Label: "Monthly Savings", Value: core.FormatRupees(p.MonthlySavings)},
				{Label: "Savings Goal", Value: core.FormatRupees(p.SavingsGoal)},
				{Label: "Progress Percentage", Value: fmt.Sprintf("%d%%", SavingsProgress(p.TotalSavings, p.SavingsGoal))},
			},
			Recommendations: []string{
				fmt.Sprintf("Allocate %s/month for investments", core.FormatRupees(monthly)),
				"Diversify across equity, debt, and gold",
				"Consider SIP for systematic investing",
			},
		}, nil

	case ReportHealth:
		return report.Table{
			Title: "Financial Health Assessment",
			Sheet: "Financial Health",
			Rows: []report.Row{
				{Label: "Emergency Fund", Value: core.FormatRupees(p.EmergencyFund)},
				{Label: "Retirement Savings", Value: core.FormatRupees(p.RetirementSavings)},
				{Label: "Total Savings", Value: core.FormatRupees(p.TotalSavings)},
				{Label: "Monthly Savings", Value: core.FormatRupees(p.MonthlySavings)},
				{Label: "Financial Health Score", Value: fmt.Sprintf("%d/100", HealthScore(p))},
			},
			Recommendations: threeOf(TaxTips(p)),
		}, nil

	case ReportBenefits:
		sum, err := s.benefits.Summary(ctx, userID, BenefitFilter{})
		if err != nil {
			return report.Table{}, err
		}
		var pending []string
		for _, b := range sum.Benefits {
			if b.Status == StatusEligible {
				pending = append(pending, "Apply for "+b.DisplayName)
			}
		}
		return report.Table{
			Title: "Government Benefits Report",
			Sheet: "Benefits",
			Rows: []report.Row{
				{Label: "Eligible Benefits", Value: fmt.Sprint(sum.Count)},
				{Label: "Claimed Benefits", Value: fmt.Sprint(sum.ClaimedCount)},
				{Label: "In Process", Value: fmt.Sprint(sum.ProcessingCount)},
				{Label: "Total Potential Value", Value: core.FormatRupees(sum.TotalPotentialValue)},
				{Label: "Claimed Value", Value: core.FormatRupees(sum.ClaimedValue)},
			},
			Recommendations: threeOf(pending),
		}, nil
	}
	return report.Table{}, fmt.Errorf("%w: %q", ErrUnknownReport, reportType)
}

// Export appends the generated report to the configured sheet and returns
// the updated range.
func (s *ReportService) Export(ctx context.Context, userID, reportType string) (string, error) {
	if s.writer == nil {
		return "", ErrExportDisabled
	}
	t, err := s.Generate(ctx, userID, reportType)
	if err != nil {
		return "", err
	}

	stamp := s.now().UTC().Format(time.RFC3339)
	var rows [][]string
	for _, r := range t.Rows {
		rows = append(rows, []string{stamp, userID, t.Title, r.Label, r.Value})
	}
	for i, rec := range t.Recommendations {
		rows = append(rows, []string{stamp, userID, t.Title, fmt.Sprintf("Recommendation %d", i+1), rec})
	}

	ref, err := s.writer.AppendRows(ctx, s.sheet, rows)
	if err != nil {
		return "", fmt.Errorf("append report rows: %w", err)
	}
	slog.InfoContext(ctx, "Report exported",
		"user_id", userID,
		"report", reportType,
		"range", ref,
		"rows", len(rows))
	return ref, nil
}

// ExportSummary appends one dashboard snapshot row to the configured sheet.
// It is a no-op without a writer.
func (s *ReportService) ExportSummary(ctx context.Context, sum core.DashboardSummary) error {
	if s.writer == nil {
		return nil
	}
	row := []string{
		sum.ComputedAt.UTC().Format(time.RFC3339),
		sum.UserID,
		"Dashboard Summary",
		core.FormatRupees(sum.TotalSavings),
		core.FormatRupees(sum.MonthlySavings),
		core.FormatRupees(sum.SavingsGoal),
		fmt.Sprintf("%d%%", sum.ProgressPercentage),
		fmt.Sprintf("%d/100", sum.HealthScore),
	}
	if _, err := s.writer.AppendRows(ctx, s.sheet, [][]string{row}); err != nil {
		return fmt.Errorf("append summary row: %w", err)
	}
	return nil
}
