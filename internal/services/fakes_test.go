package services

import (
	"context"
	"sync"

	"finwise/internal/core"
	"finwise/internal/ports/memory"
)

type publishedMessage struct {
	userID string
	reason string
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []publishedMessage
	err  error
}

func (f *fakePublisher) PublishProfileUpdated(_ context.Context, userID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, publishedMessage{userID, reason})
	return f.err
}

type fakeInvalidator struct{ users []string }

func (f *fakeInvalidator) Invalidate(userID string) { f.users = append(f.users, userID) }

type fakeWriter struct {
	sheet string
	rows  [][]string
	err   error
}

func (f *fakeWriter) AppendRows(_ context.Context, sheet string, rows [][]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sheet = sheet
	f.rows = append(f.rows, rows...)
	return sheet + "!A1:E1", nil
}

// richProfile earns over 10 lakh, is under 30 and has two dependents.
func richProfile() core.Profile {
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

// middleProfile earns 9 lakh and qualifies for PM-KISAN, APY, PMJJBY, PMSBY
// and PPF.
func middleProfile() core.Profile {
	return core.Profile{
		UserID:           "u2",
		Name:             "Ravi",
		Email:            "ravi@example.com",
		Income:           900_000,
		Age:              34,
		InvestmentAmount: 100_000,
	}
}

func seededStore(profiles ...core.Profile) *memory.Store {
	s := memory.New()
	for _, p := range profiles {
		if err := s.SaveProfile(context.Background(), p); err != nil {
			panic(err)
		}
	}
	return s
}
