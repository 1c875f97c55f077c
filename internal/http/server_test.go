package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finwise/internal/core"
	"finwise/internal/log"
	"finwise/internal/metrics"
	"finwise/internal/middleware/ratelimit"
	"finwise/internal/ports/memory"
	"finwise/internal/services"
)

const testToken = "tok-1"

type testServer struct {
	srv     *Server
	store   *memory.Store
	metrics *metrics.Metrics
}

func testProfile() core.Profile {
	return core.Profile{
		UserID:            "u1",
		Name:              "Asha",
		Email:             "asha@example.com",
		Income:            1_200_000,
		Age:               28,
		Dependents:        2,
		MonthlySavings:    30_000,
		TotalSavings:      200_000,
		InvestmentAmount:  120_000,
		SavingsGoal:       800_000,
		EmergencyFund:     50_000,
		RetirementSavings: 100_000,
		TaxDeductions:     50_000,
		InvestmentTypes:   "ELSS, PPF",
	}
}

func newTestServer(t *testing.T, mutate func(*Options)) *testServer {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.SaveProfile(context.Background(), testProfile()))
	store.AddToken(testToken, "u1")

	parser := core.NewParser()
	benefits := services.NewBenefitsService(store, store, parser, nil)
	tax := services.NewTaxSavingsService(store, parser)
	dashboard := services.NewDashboardService(store, store, benefits, tax, parser, nil)
	library := services.NewLibraryService(store, store, store)
	_, err := library.SeedCatalogue(context.Background())
	require.NoError(t, err)
	svc := Services{
		Profiles:  services.NewProfileService(store, nil, dashboard, benefits),
		Dashboard: dashboard,
		Benefits:  benefits,
		Tax:       tax,
		Reports:   services.NewReportService(store, benefits, tax, nil, "Reports"),
		Library:   library,
		Parser:    parser,
	}

	m := metrics.New()
	opts := Options{
		Logger:  log.New(log.Config{Level: slog.LevelError, Writer: io.Discard, NoColor: true}),
		Tokens:  store,
		Metrics: m,
	}
	if mutate != nil {
		mutate(&opts)
	}
	srv, err := NewServer(":0", svc, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{srv: srv, store: store, metrics: m}
}

func (ts *testServer) do(method, path string, body any, auth bool) *httptest.ResponseRecorder {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Token "+testToken)
	}
	rec := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := ts.do(http.MethodGet, path, nil, false)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}

	failing := newTestServer(t, func(o *Options) {
		o.Ready = func(context.Context) error { return errors.New("db down") }
	})
	rec := failing.do(http.MethodGet, "/readyz", nil, false)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewServerRequiresTokens(t *testing.T) {
	_, err := NewServer(":0", Services{}, Options{})
	assert.Error(t, err)
}

func TestAPIRequiresSession(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/dashboard/", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", decode[errorBody](t, rec).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/", nil)
	req.Header.Set("Authorization", "Token wrong")
	rec = httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSecurityAndTraceHeaders(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = ts.do("TRACE", "/healthz", nil, false)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestProfileEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/profile/", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1_200_000), decode[core.Profile](t, rec).Income)

	update := map[string]any{
		"user_id": "someone-else",
		"name":    "Asha K",
		"email":   "asha@example.com",
		"income":  1_500_000,
		"age":     29,
	}
	rec = ts.do(http.MethodPut, "/api/profile/", update, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[core.Profile](t, rec)
	assert.Equal(t, "u1", saved.UserID, "user id comes from the session")
	assert.Equal(t, int64(1_500_000), saved.Income)

	rec = ts.do(http.MethodPut, "/api/profile/", map[string]any{"income": -1}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(http.MethodPut, "/api/profile/", map[string]any{"salary": 10}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPut, "/api/profile/", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodDelete, "/api/profile/", nil, true)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDashboardEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(http.MethodGet, "/api/dashboard/", nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stats := decode[services.DashboardStats](t, rec)
	assert.Equal(t, "u1", stats.Summary.UserID)
	assert.Equal(t, 25, stats.Summary.ProgressPercentage)
	assert.True(t, stats.ProfileComplete)

	_, err := ts.store.LatestSummary(context.Background(), "u1")
	assert.NoError(t, err, "dashboard reads persist a snapshot")
}

func TestBenefitEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/benefits/?status=eligible", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decode[services.BenefitsSummary](t, rec).Count)

	rec = ts.do(http.MethodGet, "/api/benefits/?status=maybe", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/benefits/state", benefitStateRequest{Benefit: "Unknown Scheme", Applied: true}, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, "/api/benefits/state", benefitStateRequest{Benefit: ""}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/benefits/state", benefitStateRequest{Benefit: "Public Provident Fund (PPF)", Claimed: true}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decode[core.BenefitState](t, rec)
	assert.True(t, st.Applied)
	assert.True(t, st.Claimed)

	rec = ts.do(http.MethodGet, "/api/benefits/?status=claimed", nil, true)
	sum := decode[services.BenefitsSummary](t, rec)
	require.Len(t, sum.Benefits, 1)
	assert.Equal(t, 1, sum.ClaimedCount)
}

func TestTaxSavingsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/tax-savings/?considered=0,3", nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rep := decode[services.TaxSavingsReport](t, rec)
	assert.Len(t, rep.Recommendations, 6)
	assert.Equal(t, int64(85_500), rep.Summary.TotalPotentialSavings)
	assert.Equal(t, []int{0, 3}, rep.Considered.Indices)
	assert.Equal(t, int64(16_500), rep.Considered.PotentialSavings)

	rec = ts.do(http.MethodGet, "/api/tax-savings/?considered=first", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/reports/", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[services.ReportList](t, rec)
	assert.Len(t, list.Reports, 6)
	assert.Equal(t, "₹15,000", list.Stats.TaxSavings)

	rec = ts.do(http.MethodGet, "/api/reports/tax", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Annual Tax Summary Report")

	rec = ts.do(http.MethodGet, "/api/reports/health?format=csv", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Financial_Health_Assessment.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Financial Health Assessment,"))

	rec = ts.do(http.MethodGet, "/api/reports/investment?format=xlsx", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	rec = ts.do(http.MethodGet, "/api/reports/tax?format=pdf", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/reports/weather", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, "/api/reports/tax/export", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, services.ErrExportDisabled.Error(), decode[errorBody](t, rec).Error)
}

func TestParseAmountsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/api/amounts/parse", `{"amounts":["₹5 lakh/year",1200,"abc",null]}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[parseAmountsResponse](t, rec)
	assert.Equal(t, "substring", resp.UnitMatch)
	require.Len(t, resp.Results, 4)
	assert.Equal(t, int64(500_000), resp.Results[0].Rupees)
	assert.Equal(t, "5.0L", resp.Results[0].Compact)
	assert.Equal(t, "₹5,00,000", resp.Results[0].Formatted)
	assert.Equal(t, int64(1200), resp.Results[1].Rupees)
	assert.Equal(t, int64(0), resp.Results[2].Rupees)
	assert.Equal(t, int64(501_200), resp.Total)

	rec = ts.do(http.MethodPost, "/api/amounts/parse", `{"amounts":["₹2 lakh","abc"],"strict":true}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[errorBody](t, rec).Error, "amount 1")
}

func TestLibraryEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/wisdom-library/", nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	overview := decode[services.LibraryOverview](t, rec)
	assert.Len(t, overview.Recommendations, 10)
	assert.Equal(t, core.LevelBeginner, overview.Preferences.PreferredDifficulty)
	assert.Empty(t, overview.RecentBooks)

	rec = ts.do(http.MethodGet, "/api/books/?genre=Psychology&search=habit", nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decode[services.BookList](t, rec)
	require.Len(t, list.Books, 2)
	assert.Len(t, list.Filters.Genres, 3)

	rec = ts.do(http.MethodGet, "/api/books/1", nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "The Psychology of Money", decode[services.BookDetail](t, rec).Book.Title)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/books/abc", nil, true).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/books/999", nil, true).Code)

	rec = ts.do(http.MethodPost, "/api/reading-history/", `{"book_id":1,"status":"completed","rating":4.5}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	entry := decode[services.ReadingView](t, rec)
	assert.Equal(t, core.ReadingCompleted, entry.Status)
	require.NotNil(t, entry.Rating)
	assert.Equal(t, 4.5, *entry.Rating)

	assert.Equal(t, http.StatusBadRequest,
		ts.do(http.MethodPost, "/api/reading-history/", `{"status":"completed"}`, true).Code)
	assert.Equal(t, http.StatusUnprocessableEntity,
		ts.do(http.MethodPost, "/api/reading-history/", `{"book_id":1,"status":"skimmed"}`, true).Code)
	assert.Equal(t, http.StatusNotFound,
		ts.do(http.MethodPost, "/api/reading-history/", `{"book_id":999}`, true).Code)

	rec = ts.do(http.MethodGet, "/api/reading-history/", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]services.ReadingView](t, rec), 1)

	rec = ts.do(http.MethodPut, "/api/reading-preferences/", `{"preferred_genres":["Investment"],"books_per_month":2}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	prefs := decode[core.ReadingPreference](t, rec)
	assert.Equal(t, []string{"Investment"}, prefs.PreferredGenres)
	assert.Equal(t, 2, prefs.BooksPerMonth)
	assert.Equal(t, 12, prefs.ReadingGoal)

	rec = ts.do(http.MethodGet, "/api/reading-preferences/", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[core.ReadingPreference](t, rec).BooksPerMonth)

	assert.Equal(t, http.StatusUnprocessableEntity,
		ts.do(http.MethodPut, "/api/reading-preferences/", `{"preferred_difficulty":"Expert"}`, true).Code)

	overview = decode[services.LibraryOverview](t, ts.do(http.MethodGet, "/api/wisdom-library/", nil, true))
	assert.Equal(t, 1, overview.ReadingStats.CompletedBooks)
	for _, r := range overview.Recommendations {
		assert.NotEqual(t, int64(1), r.Book.ID)
	}
}

func TestRateLimitOnMutatingRequests(t *testing.T) {
	ts := newTestServer(t, func(o *Options) {
		o.RateLimit = ratelimit.Config{RequestsPerMinute: 2, Methods: ratelimit.MutatingMethods}
	})
	body := `{"amounts":["1 lakh"]}`

	for i := 0; i < 2; i++ {
		rec := ts.do(http.MethodPost, "/api/amounts/parse", body, true)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := ts.do(http.MethodPost, "/api/amounts/parse", body, true)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Reads are not limited.
	rec = ts.do(http.MethodGet, "/api/profile/", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsRecordRoutes(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(http.MethodGet, "/api/dashboard/", nil, true)
	ts.do(http.MethodGet, "/api/dashboard/", nil, false)

	rec := ts.do(http.MethodGet, "/metrics", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `finwise_http_requests_total{code="200",route="GET /api/dashboard/{$}"} 1`)
	assert.Contains(t, body, `finwise_http_requests_total{code="401",route="/api/"} 1`)
}

func TestShutdownIsIdempotent(t *testing.T) {
	ts := newTestServer(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, ts.srv.Shutdown(ctx))
	assert.NoError(t, ts.srv.Shutdown(ctx))
}
