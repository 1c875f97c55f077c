package core

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

type (
	// Profile is a user's financial profile. Amounts are whole rupees.
	Profile struct {
		UserID            string    `json:"user_id"`
		Name              string    `json:"name"`
		Email             string    `json:"email"`
		Phone             string    `json:"phone"`
		Income            int64     `json:"income"`
		Age               int       `json:"age"`
		Dependents        int       `json:"dependents"`
		MonthlySavings    int64     `json:"monthly_savings"`
		TotalSavings      int64     `json:"total_savings"`
		InvestmentAmount  int64     `json:"investment_amount"`
		SavingsGoal       int64     `json:"savings_goal"`
		InvestmentTypes   string    `json:"investment_types"`
		EmergencyFund     int64     `json:"emergency_fund"`
		RetirementSavings int64     `json:"retirement_savings"`
		TaxDeductions     int64     `json:"tax_deductions"`
		Occupation        string    `json:"occupation"`
		City              string    `json:"city"`
		State             string    `json:"state"`
		MaritalStatus     string    `json:"marital_status"`
		PropertyOwned     bool      `json:"property_owned"`
		VehicleOwned      bool      `json:"vehicle_owned"`
		UpdatedAt         time.Time `json:"updated_at"`
	}

	// Benefit is a government scheme as served by the catalogue. Records from
	// different sources name it either Name or Title; DisplayName resolves it.
	Benefit struct {
		Name              string  `json:"name,omitempty"`
		Title             string  `json:"title,omitempty"`
		Description       string  `json:"description"`
		EligibilityReason string  `json:"eligibility_reason"`
		Link              string  `json:"link"`
		Amount            Literal `json:"amount"`
		Category          string  `json:"category"`
		EstimatedTime     string  `json:"estimated_time"`
	}

	// BenefitState is a user's progress on one benefit.
	BenefitState struct {
		UserID    string    `json:"user_id"`
		Benefit   string    `json:"benefit"`
		Applied   bool      `json:"applied"`
		Claimed   bool      `json:"claimed"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	TaxRecommendation struct {
		Title           string  `json:"title"`
		Description     string  `json:"description"`
		PotentialSaving Literal `json:"potential_saving"`
		Priority        string  `json:"priority"`
		Category        string  `json:"category"`
		Action          string  `json:"action"`
		Risk            string  `json:"risk,omitempty"`
		Returns         string  `json:"returns,omitempty"`
		LockIn          string  `json:"lock_in,omitempty"`
	}

	// TaxOption is one investment product under a deduction section.
	TaxOption struct {
		Name            string `json:"name"`
		Section         string `json:"section"`
		Limit           int64  `json:"limit"`
		Invested        int64  `json:"invested"`
		Returns         string `json:"returns"`
		Risk            string `json:"risk"`
		LockIn          string `json:"lock_in"`
		PotentialSaving int64  `json:"potential_saving"`
	}

	DashboardSummary struct {
		UserID             string    `json:"user_id"`
		TotalSavings       int64     `json:"total_savings"`
		MonthlySavings     int64     `json:"monthly_savings"`
		SavingsGoal        int64     `json:"savings_goal"`
		ProgressPercentage int       `json:"progress_percentage"`
		Recommendations    []string  `json:"recommendations"`
		HealthScore        int       `json:"health_score"`
		ComputedAt         time.Time `json:"computed_at"`
	}
)

// Priorities used by tax recommendations.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

var (
	ErrInvalidProfile = errors.New("invalid profile")
	ErrEmptyUserID    = errors.New("empty user id")
)

// Validate checks the profile for values no caller should persist.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return ErrEmptyUserID
	}
	amounts := []struct {
		field string
		v     int64
	}{
		{"income", p.Income},
		{"monthly_savings", p.MonthlySavings},
		{"total_savings", p.TotalSavings},
		{"investment_amount", p.InvestmentAmount},
		{"savings_goal", p.SavingsGoal},
		{"emergency_fund", p.EmergencyFund},
		{"retirement_savings", p.RetirementSavings},
		{"tax_deductions", p.TaxDeductions},
	}
	for _, a := range amounts {
		if a.v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidProfile, a.field)
		}
	}
	if p.Age < 0 || p.Age > 150 {
		return fmt.Errorf("%w: age out of range", ErrInvalidProfile)
	}
	if p.Dependents < 0 {
		return fmt.Errorf("%w: dependents must not be negative", ErrInvalidProfile)
	}
	if len(p.Name) > 100 {
		return fmt.Errorf("%w: name too long (max 100 characters)", ErrInvalidProfile)
	}
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return fmt.Errorf("%w: malformed email", ErrInvalidProfile)
		}
	}
	return nil
}

// IsComplete reports whether the profile carries enough data for personalised
// advice.
func (p Profile) IsComplete() bool {
	return p.Income > 0 && p.Age > 0 &&
		strings.TrimSpace(p.Name) != "" && strings.TrimSpace(p.Email) != ""
}

// DisplayName prefers Name, then Title.
func (b Benefit) DisplayName() string {
	if b.Name != "" {
		return b.Name
	}
	return b.Title
}

// Matches reports whether query occurs in the display name or category,
// ignoring case. An empty query matches everything.
func (b Benefit) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(b.DisplayName()), q) ||
		strings.Contains(strings.ToLower(b.Category), q)
}
