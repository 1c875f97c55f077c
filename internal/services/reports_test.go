package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finwise/internal/core"
)

func newReports(writer *fakeWriter) *ReportService {
	store := seededStore(richProfile())
	parser := core.NewParser()
	benefits := NewBenefitsService(store, store, parser, nil)
	tax := NewTaxSavingsService(store, parser)
	var svc *ReportService
	if writer != nil {
		svc = NewReportService(store, benefits, tax, writer, "Reports")
	} else {
		svc = NewReportService(store, benefits, tax, nil, "Reports")
	}
	svc.now = func() time.Time { return time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestReportList(t *testing.T) {
	svc := newReports(nil)
	list, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, list.Reports, 6)
	for i, r := range list.Reports {
		assert.Equal(t, i+1, r.ID)
		assert.Equal(t, "ready", r.Status)
		assert.Equal(t, "2026-04-01", r.Date)
	}
	assert.Equal(t, "Annual Tax Summary Report", list.Reports[0].Title)
	assert.Equal(t, int64(15000), list.Reports[0].Data["potential_savings"])
	assert.Equal(t, 25, list.Reports[4].Data["progress_percentage"])
	assert.Equal(t, int64(120_000), list.Reports[5].Data["80c_deductions"])

	assert.Equal(t, 6, list.Stats.TotalReports)
	assert.Equal(t, "₹15,000", list.Stats.TaxSavings)
	assert.Equal(t, 0, list.Stats.BenefitsClaimed)
	assert.Equal(t, "₹4.0L", list.Stats.TotalBenefitsValue)
}

func TestReportGenerate(t *testing.T) {
	svc := newReports(nil)
	ctx := context.Background()

	tax, err := svc.Generate(ctx, "u1", ReportTax)
	require.NoError(t, err)
	assert.Equal(t, "Tax Summary", tax.Sheet)
	assert.Equal(t, "₹12,00,000", tax.Rows[0].Value)
	assert.Equal(t, "₹85,500", tax.Rows[2].Value)
	assert.Equal(t, "80%", tax.Rows[4].Value)
	assert.Equal(t, []string{"Maximize ELSS Investment", "NPS Investment", "Long-term Investment Strategy"}, tax.Recommendations)
	assert.Equal(t, "Annual_Tax_Summary_Report.xlsx", tax.Filename("xlsx"))

	inv, err := svc.Generate(ctx, "u1", ReportInvestment)
	require.NoError(t, err)
	assert.Equal(t, "Allocate ₹2,40,000/month for investments", inv.Recommendations[0])
	assert.Equal(t, "25%", inv.Rows[4].Value)

	health, err := svc.Generate(ctx, "u1", ReportHealth)
	require.NoError(t, err)
	assert.Equal(t, "50/100", health.Rows[4].Value)
	assert.Len(t, health.Recommendations, 3)

	benefits, err := svc.Generate(ctx, "u1", ReportBenefits)
	require.NoError(t, err)
	assert.Equal(t, "5", benefits.Rows[0].Value)
	assert.Equal(t, "₹4,01,015", benefits.Rows[3].Value)
	assert.Equal(t, "Apply for Atal Pension Yojana (APY)", benefits.Recommendations[0])

	_, err = svc.Generate(ctx, "u1", "weather")
	assert.ErrorIs(t, err, ErrUnknownReport)
}

func TestReportThreeRecommendationsArePadded(t *testing.T) {
	assert.Equal(t, fallbackAdvice, threeOf(nil))
	assert.Equal(t, []string{"a", fallbackAdvice[0], fallbackAdvice[1]}, threeOf([]string{"a"}))
	assert.Equal(t, []string{"a", "b", "c"}, threeOf([]string{"a", "b", "c", "d"}))
}

func TestReportExport(t *testing.T) {
	_, err := newReports(nil).Export(context.Background(), "u1", ReportTax)
	assert.ErrorIs(t, err, ErrExportDisabled)

	w := &fakeWriter{}
	ref, err := newReports(w).Export(context.Background(), "u1", ReportHealth)
	require.NoError(t, err)
	assert.Equal(t, "Reports!A1:E1", ref)
	assert.Equal(t, "Reports", w.sheet)
	require.Len(t, w.rows, 8)
	assert.Equal(t, []string{"2026-04-01T10:00:00Z", "u1", "Financial Health Assessment", "Emergency Fund", "₹50,000"}, w.rows[0])

	failing := &fakeWriter{err: errors.New("quota")}
	_, err = newReports(failing).Export(context.Background(), "u1", ReportTax)
	assert.Error(t, err)
}

func TestReportExportSummary(t *testing.T) {
	assert.NoError(t, newReports(nil).ExportSummary(context.Background(), core.DashboardSummary{UserID: "u1"}))

	w := &fakeWriter{}
	err := newReports(w).ExportSummary(context.Background(), core.DashboardSummary{
		UserID:             "u1",
		TotalSavings:       200_000,
		ProgressPercentage: 25,
		HealthScore:        50,
	})
	require.NoError(t, err)
	require.Len(t, w.rows, 1)
	assert.Equal(t, "₹2,00,000", w.rows[0][3])
	assert.Equal(t, "50/100", w.rows[0][7])
}
