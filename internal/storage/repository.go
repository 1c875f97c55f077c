// Package storage is the SQLite implementation of the persistence ports.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finwise/internal/core"
	"finwise/internal/ports"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const profileColumns = `user_id, name, email, phone, income, age, dependents,
	monthly_savings, total_savings, investment_amount, savings_goal, investment_types,
	emergency_fund, retirement_savings, tax_deductions, occupation, city, state,
	marital_status, property_owned, vehicle_owned, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (core.Profile, error) {
	var (
		p         core.Profile
		updatedAt string
	)
	err := row.Scan(&p.UserID, &p.Name, &p.Email, &p.Phone, &p.Income, &p.Age, &p.Dependents,
		&p.MonthlySavings, &p.TotalSavings, &p.InvestmentAmount, &p.SavingsGoal, &p.InvestmentTypes,
		&p.EmergencyFund, &p.RetirementSavings, &p.TaxDeductions, &p.Occupation, &p.City, &p.State,
		&p.MaritalStatus, &p.PropertyOwned, &p.VehicleOwned, &updatedAt)
	if err != nil {
		return core.Profile{}, err
	}
	p.UpdatedAt, err = time.Parse(timeLayout, updatedAt)
	if err != nil {
		return core.Profile{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return p, nil
}

// GetProfile implements ports.ProfileStore
func (r *SQLiteRepository) GetProfile(ctx context.Context, userID string) (core.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, ports.ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return p, nil
}

// SaveProfile implements ports.ProfileStore
func (r *SQLiteRepository) SaveProfile(ctx context.Context, p core.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name = excluded.name, email = excluded.email, phone = excluded.phone,
			income = excluded.income, age = excluded.age, dependents = excluded.dependents,
			monthly_savings = excluded.monthly_savings, total_savings = excluded.total_savings,
			investment_amount = excluded.investment_amount, savings_goal = excluded.savings_goal,
			investment_types = excluded.investment_types, emergency_fund = excluded.emergency_fund,
			retirement_savings = excluded.retirement_savings, tax_deductions = excluded.tax_deductions,
			occupation = excluded.occupation, city = excluded.city, state = excluded.state,
			marital_status = excluded.marital_status, property_owned = excluded.property_owned,
			vehicle_owned = excluded.vehicle_owned, updated_at = excluded.updated_at`,
		p.UserID, p.Name, p.Email, p.Phone, p.Income, p.Age, p.Dependents,
		p.MonthlySavings, p.TotalSavings, p.InvestmentAmount, p.SavingsGoal, p.InvestmentTypes,
		p.EmergencyFund, p.RetirementSavings, p.TaxDeductions, p.Occupation, p.City, p.State,
		p.MaritalStatus, p.PropertyOwned, p.VehicleOwned, p.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.UserID, err)
	}

	slog.InfoContext(ctx, "Profile saved to SQLite", "user_id", p.UserID, "complete", p.IsComplete())
	return nil
}

// ListProfiles implements ports.ProfileStore
func (r *SQLiteRepository) ListProfiles(ctx context.Context) ([]core.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []core.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListBenefitStates implements ports.BenefitStateStore
func (r *SQLiteRepository) ListBenefitStates(ctx context.Context, userID string) (map[string]core.BenefitState, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT benefit, applied, claimed, updated_at FROM benefit_states WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list benefit states: %w", err)
	}
	defer rows.Close()

	out := map[string]core.BenefitState{}
	for rows.Next() {
		st := core.BenefitState{UserID: userID}
		var updatedAt string
		if err := rows.Scan(&st.Benefit, &st.Applied, &st.Claimed, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan benefit state: %w", err)
		}
		if st.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		out[st.Benefit] = st
	}
	return out, rows.Err()
}

// SaveBenefitState implements ports.BenefitStateStore
func (r *SQLiteRepository) SaveBenefitState(ctx context.Context, st core.BenefitState) error {
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO benefit_states (user_id, benefit, applied, claimed, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, benefit) DO UPDATE SET
			applied = excluded.applied, claimed = excluded.claimed, updated_at = excluded.updated_at`,
		st.UserID, st.Benefit, st.Applied, st.Claimed, st.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save benefit state: %w", err)
	}
	return nil
}

// SaveSummary implements ports.SummaryStore. Snapshots are appended; the
// latest one wins on read.
func (r *SQLiteRepository) SaveSummary(ctx context.Context, s core.DashboardSummary) error {
	recs, err := json.Marshal(s.Recommendations)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}
	if s.ComputedAt.IsZero() {
		s.ComputedAt = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO dashboard_summaries
		(user_id, total_savings, monthly_savings, savings_goal, progress_percentage, health_score, recommendations, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.UserID, s.TotalSavings, s.MonthlySavings, s.SavingsGoal, s.ProgressPercentage,
		s.HealthScore, string(recs), s.ComputedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

// LatestSummary implements ports.SummaryStore
func (r *SQLiteRepository) LatestSummary(ctx context.Context, userID string) (core.DashboardSummary, error) {
	var (
		s                core.DashboardSummary
		recs, computedAt string
	)
	err := r.db.QueryRowContext(ctx, `SELECT user_id, total_savings, monthly_savings, savings_goal,
			progress_percentage, health_score, recommendations, computed_at
		FROM dashboard_summaries WHERE user_id = ? ORDER BY id DESC LIMIT 1`, userID).
		Scan(&s.UserID, &s.TotalSavings, &s.MonthlySavings, &s.SavingsGoal,
			&s.ProgressPercentage, &s.HealthScore, &recs, &computedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DashboardSummary{}, ports.ErrNotFound
	}
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("latest summary: %w", err)
	}
	if err := json.Unmarshal([]byte(recs), &s.Recommendations); err != nil {
		return core.DashboardSummary{}, fmt.Errorf("decode recommendations: %w", err)
	}
	if s.ComputedAt, err = time.Parse(timeLayout, computedAt); err != nil {
		return core.DashboardSummary{}, fmt.Errorf("parse computed_at: %w", err)
	}
	return s, nil
}

// UserForToken implements ports.TokenStore
func (r *SQLiteRepository) UserForToken(ctx context.Context, token string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM api_tokens WHERE token = ?`, token).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ports.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup token: %w", err)
	}
	return userID, nil
}

// AddToken registers an API token for userID, replacing any previous owner.
func (r *SQLiteRepository) AddToken(ctx context.Context, token, userID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO api_tokens (token, user_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET user_id = excluded.user_id`,
		token, userID, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("add token: %w", err)
	}
	return nil
}

var _ ports.Store = (*SQLiteRepository)(nil)
