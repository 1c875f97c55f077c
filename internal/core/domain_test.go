package core

import (
	"errors"
	"testing"
)

func validProfile() Profile {
	return Profile{
		UserID: "u1",
		Name:   "Asha",
		Email:  "asha@example.com",
		Income: 900000,
		Age:    34,
	}
}

func TestProfileValidate(t *testing.T) {
	if err := validProfile().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []func(*Profile){
		func(p *Profile) { p.Income = -1 },
		func(p *Profile) { p.EmergencyFund = -10 },
		func(p *Profile) { p.Age = -2 },
		func(p *Profile) { p.Dependents = -1 },
		func(p *Profile) { p.Email = "not an email" },
	}
	for i, mutate := range bads {
		p := validProfile()
		mutate(&p)
		err := p.Validate()
		if !errors.Is(err, ErrInvalidProfile) {
			t.Fatalf("case %d expected ErrInvalidProfile, got %v", i, err)
		}
	}

	p := validProfile()
	p.UserID = " "
	if err := p.Validate(); !errors.Is(err, ErrEmptyUserID) {
		t.Fatalf("expected ErrEmptyUserID, got %v", err)
	}
}

func TestProfileIsComplete(t *testing.T) {
	if !validProfile().IsComplete() {
		t.Fatalf("expected complete profile")
	}
	p := validProfile()
	p.Income = 0
	if p.IsComplete() {
		t.Fatalf("zero income must be incomplete")
	}
	p = validProfile()
	p.Email = ""
	if p.IsComplete() {
		t.Fatalf("missing email must be incomplete")
	}
}

func TestBenefitDisplayName(t *testing.T) {
	cases := []struct {
		b    Benefit
		want string
	}{
		{Benefit{Name: "PM-KISAN", Title: "ignored"}, "PM-KISAN"},
		{Benefit{Title: "Atal Pension Yojana"}, "Atal Pension Yojana"},
		{Benefit{}, ""},
	}
	for _, tc := range cases {
		if got := tc.b.DisplayName(); got != tc.want {
			t.Fatalf("DisplayName(%+v) = %q, want %q", tc.b, got, tc.want)
		}
	}
}

func TestBenefitMatches(t *testing.T) {
	b := Benefit{Title: "Ayushman Bharat", Category: "Healthcare"}
	for _, q := range []string{"", "ayushman", "HEALTH", " bharat "} {
		if !b.Matches(q) {
			t.Fatalf("expected %q to match", q)
		}
	}
	if b.Matches("pension") {
		t.Fatalf("unexpected match")
	}
}
