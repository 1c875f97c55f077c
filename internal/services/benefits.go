package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"finwise/internal/amqp"
	"finwise/internal/cache"
	"finwise/internal/core"
	"finwise/internal/ports"
)

// ErrBenefitNotFound is returned when a state change names a benefit the
// user's catalogue does not contain.
var ErrBenefitNotFound = errors.New("benefit not found")

// Benefit statuses as shown on the benefits page.
const (
	StatusEligible = "eligible"
	StatusPending  = "pending"
	StatusClaimed  = "claimed"
	StatusAll      = "all"
)

// Catalogue returns the government schemes profile qualifies for, in display
// order.
func Catalogue(p core.Profile) []core.Benefit {
	var out []core.Benefit

	if p.Income < 1_200_000 {
		out = append(out, core.Benefit{
			Name:              "PM-KISAN",
			Description:       "₹6,000/year income support for eligible farmers.",
			EligibilityReason: "Income below ₹12 lakh.",
			Link:              "https://pmkisan.gov.in",
			Amount:            core.TextAmount("₹6,000/year"),
			Category:          "Agriculture",
			EstimatedTime:     "15-30 days",
		})
	}
	if p.Income < 500_000 {
		out = append(out, core.Benefit{
			Name:              "Ayushman Bharat",
			Description:       "₹5 lakh health insurance for low-income families.",
			EligibilityReason: "Income below ₹5 lakh.",
			Link:              "https://pmjay.gov.in",
			Amount:            core.TextAmount("₹5 lakh/year"),
			Category:          "Health",
			EstimatedTime:     "Instant",
		})
	}
	if p.Age >= 60 {
		out = append(out, core.Benefit{
			Name:              "Senior Citizen Savings Scheme (SCSS)",
			Description:       "High interest savings for seniors with 8.2% interest rate.",
			EligibilityReason: "Age 60 or above.",
			Link:              "https://www.nsiindia.gov.in",
			Amount:            core.TextAmount("8.2% interest"),
			Category:          "Savings",
			EstimatedTime:     "7-15 days",
		})
	}
	if p.Age >= 18 && p.Age <= 40 {
		out = append(out, core.Benefit{
			Name:              "Atal Pension Yojana (APY)",
			Description:       "Guaranteed pension scheme for unorganized sector workers.",
			EligibilityReason: "Age between 18-40 years.",
			Link:              "https://npscra.nsdl.co.in",
			Amount:            core.TextAmount("₹1,000-5,000/month"),
			Category:          "Pension",
			EstimatedTime:     "15-30 days",
		})
	}

	out = append(out,
		core.Benefit{
			Name:              "Pradhan Mantri Jeevan Jyoti Bima Yojana (PMJJBY)",
			Description:       "₹2 lakh life insurance for ₹330/year.",
			EligibilityReason: "Available to all savings account holders age 18-50.",
			Link:              "https://www.jansuraksha.gov.in",
			Amount:            core.TextAmount("₹2 lakh coverage"),
			Category:          "Insurance",
			EstimatedTime:     "Instant",
		},
		core.Benefit{
			Name:              "Pradhan Mantri Suraksha Bima Yojana (PMSBY)",
			Description:       "Accidental death and disability insurance for ₹12/year.",
			EligibilityReason: "Available to all savings account holders age 18-70.",
			Link:              "https://www.jansuraksha.gov.in",
			Amount:            core.TextAmount("₹2 lakh coverage"),
			Category:          "Insurance",
			EstimatedTime:     "Instant",
		},
	)

	if p.InvestmentAmount < 150_000 {
		out = append(out, core.Benefit{
			Name:              "Public Provident Fund (PPF)",
			Description:       "Long-term savings with tax benefits under 80C.",
			EligibilityReason: "Available to all Indian residents.",
			Link:              "https://www.nsiindia.gov.in",
			Amount:            core.TextAmount("7.1% interest"),
			Category:          "Savings",
			EstimatedTime:     "7-15 days",
		})
	}
	if p.Dependents > 0 {
		out = append(out, core.Benefit{
			Name:              "Sukanya Samriddhi Yojana",
			Description:       "Small savings scheme for girl child with attractive interest rates.",
			EligibilityReason: "Available for girl child below 10 years.",
			Link:              "https://www.nsiindia.gov.in",
			Amount:            core.TextAmount("8.2% interest"),
			Category:          "Savings",
			EstimatedTime:     "7-15 days",
		})
	}
	if p.Income < 800_000 {
		out = append(out, core.Benefit{
			Name:              "Pradhan Mantri Mudra Yojana",
			Description:       "Collateral-free loans for micro enterprises.",
			EligibilityReason: "For non-corporate, non-farm enterprises.",
			Link:              "https://mudra.org.in",
			Amount:            core.TextAmount("Up to ₹10 lakh"),
			Category:          "Business",
			EstimatedTime:     "30-45 days",
		})
	}
	if p.Income < 600_000 {
		out = append(out, core.Benefit{
			Name:              "Pradhan Mantri Awas Yojana (PMAY)",
			Description:       "Housing assistance for economically weaker sections.",
			EligibilityReason: "EWS/LIG families without pucca house.",
			Link:              "https://pmaymis.gov.in",
			Amount:            core.TextAmount("Up to ₹2.67 lakh"),
			Category:          "Housing",
			EstimatedTime:     "60-90 days",
		})
	}
	return out
}

// BenefitView is a catalogue entry joined with the user's state and its
// parsed value.
type BenefitView struct {
	core.Benefit
	DisplayName  string `json:"display_name"`
	Value        int64  `json:"value"`
	ValueDisplay string `json:"value_display"`
	Status       string `json:"status"`
	Applied      bool   `json:"applied"`
	Claimed      bool   `json:"claimed"`
}

// BenefitFilter narrows the listed benefits. Stats are always computed over
// the full catalogue.
type BenefitFilter struct {
	Status string
	Query  string
}

// Key identifies the filter in cache keys.
func (f BenefitFilter) Key() string {
	status := f.Status
	if status == "" {
		status = StatusAll
	}
	return status + "|" + strings.ToLower(strings.TrimSpace(f.Query))
}

type BenefitsSummary struct {
	Benefits              []BenefitView `json:"benefits"`
	Count                 int           `json:"count"`
	ClaimedValue          int64         `json:"claimed_value"`
	UnclaimedValue        int64         `json:"unclaimed_value"`
	TotalPotentialValue   int64         `json:"total_potential_value"`
	TotalPotentialDisplay string        `json:"total_potential_display"`
	ClaimedCount          int           `json:"claimed_count"`
	ProcessingCount       int           `json:"processing_count"`
	ClaimedPercentage     int           `json:"claimed_percentage"`
}

// Partition keys used when aggregating benefit values.
const (
	partClaimed   = "claimed"
	partUnclaimed = "unclaimed"
)

type BenefitsService struct {
	profiles  ports.ProfileStore
	states    ports.BenefitStateStore
	parser    *core.Parser
	agg       *core.Aggregator
	cache     cache.Cache[BenefitsSummary]
	publisher Publisher
}

// NewBenefitsService wires the service. summaries may be nil to disable
// caching.
func NewBenefitsService(profiles ports.ProfileStore, states ports.BenefitStateStore, parser *core.Parser, summaries cache.Cache[BenefitsSummary]) *BenefitsService {
	return &BenefitsService{
		profiles: profiles,
		states:   states,
		parser:   parser,
		agg:      core.NewAggregator(parser),
		cache:    summaries,
	}
}

// SetPublisher makes state changes announce a dashboard refresh.
func (s *BenefitsService) SetPublisher(p Publisher) {
	s.publisher = p
}

func benefitStatus(st core.BenefitState) string {
	switch {
	case st.Claimed:
		return StatusClaimed
	case st.Applied:
		return StatusPending
	default:
		return StatusEligible
	}
}

// Summary lists the user's benefits with their states and aggregate values.
func (s *BenefitsService) Summary(ctx context.Context, userID string, filter BenefitFilter) (BenefitsSummary, error) {
	key := userID + ":" + filter.Key()
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
	}

	profile, err := loadProfile(ctx, s.profiles, userID)
	if err != nil {
		return BenefitsSummary{}, err
	}
	states, err := s.states.ListBenefitStates(ctx, userID)
	if err != nil {
		return BenefitsSummary{}, fmt.Errorf("list benefit states: %w", err)
	}

	sum := s.summarize(Catalogue(profile), states, filter)
	if s.cache != nil {
		s.cache.Set(key, sum)
	}
	return sum, nil
}

func (s *BenefitsService) summarize(catalogue []core.Benefit, states map[string]core.BenefitState, filter BenefitFilter) BenefitsSummary {
	records := make([]core.Record, 0, len(catalogue))
	out := BenefitsSummary{Benefits: []BenefitView{}}

	for _, b := range catalogue {
		st := states[b.DisplayName()]
		records = append(records, core.Record{
			Amount: b.Amount,
			Flags:  map[string]bool{partClaimed: st.Claimed},
		})
		if st.Claimed {
			out.ClaimedCount++
		} else if st.Applied {
			out.ProcessingCount++
		}

		view := BenefitView{
			Benefit:     b,
			DisplayName: b.DisplayName(),
			Value:       s.parser.Parse(b.Amount),
			Status:      benefitStatus(st),
			Applied:     st.Applied || st.Claimed,
			Claimed:     st.Claimed,
		}
		view.ValueDisplay = core.FormatCompact(view.Value)

		if filter.Status != "" && filter.Status != StatusAll && filter.Status != view.Status {
			continue
		}
		if !b.Matches(filter.Query) {
			continue
		}
		out.Benefits = append(out.Benefits, view)
	}

	res := s.agg.Aggregate(records, core.ByFlag(partClaimed, partClaimed, partUnclaimed))
	out.Count = len(out.Benefits)
	out.ClaimedValue = res.Sum(partClaimed)
	out.UnclaimedValue = res.Sum(partUnclaimed)
	out.TotalPotentialValue = res.Total
	out.TotalPotentialDisplay = core.FormatCompact(res.Total)
	out.ClaimedPercentage = res.Percentage(partClaimed)
	return out
}

// SetState records the user's progress on a benefit. Claiming implies
// having applied.
func (s *BenefitsService) SetState(ctx context.Context, userID, name string, applied, claimed bool) (core.BenefitState, error) {
	profile, err := loadProfile(ctx, s.profiles, userID)
	if err != nil {
		return core.BenefitState{}, err
	}

	found := false
	for _, b := range Catalogue(profile) {
		if b.DisplayName() == name {
			found = true
			break
		}
	}
	if !found {
		return core.BenefitState{}, fmt.Errorf("%w: %q", ErrBenefitNotFound, name)
	}

	st := core.BenefitState{
		UserID:  userID,
		Benefit: name,
		Applied: applied || claimed,
		Claimed: claimed,
	}
	if err := s.states.SaveBenefitState(ctx, st); err != nil {
		return core.BenefitState{}, fmt.Errorf("save benefit state: %w", err)
	}
	s.Invalidate(userID)

	slog.InfoContext(ctx, "Benefit state updated",
		"user_id", userID,
		"benefit", name,
		"status", benefitStatus(st))

	if s.publisher != nil {
		if err := s.publisher.PublishProfileUpdated(ctx, userID, amqp.ReasonBenefitChanged); err != nil {
			slog.ErrorContext(ctx, "Failed to publish benefit change",
				"user_id", userID, "error", err)
		}
	}
	return st, nil
}

// Invalidate drops cached summaries for userID.
func (s *BenefitsService) Invalidate(userID string) {
	if s.cache != nil {
		s.cache.DeletePrefix(userID + ":")
	}
}
