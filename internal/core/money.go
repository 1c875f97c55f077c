// Package core provides amount parsing and aggregation utilities.
//
// This file contains the amount parser that turns the loosely typed amounts
// served by the backend ("₹5 lakh/year", "₹6,000/year", 1234, 8.2) into whole
// rupees. Parsing is permissive: anything that cannot be read yields 0.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Indian numbering units, in rupees.
const (
	Lakh  int64 = 100_000
	Crore int64 = 10_000_000
)

// ErrUnparsed is reported by ParseStrict when a non-empty amount holds no
// readable number, or the number does not fit in an int64.
var ErrUnparsed = errors.New("unparsed amount")

type literalKind uint8

const (
	literalNull literalKind = iota
	literalInt
	literalDecimal
	literalText
)

// Literal is an amount as it arrives from the backend: a whole number, a
// decimal number, free-form text, or nothing.
type Literal struct {
	kind literalKind
	i    int64
	d    decimal.Decimal
	s    string
}

// IntAmount wraps a whole number.
func IntAmount(n int64) Literal {
	return Literal{kind: literalInt, i: n}
}

// DecimalAmount wraps a decimal number.
func DecimalAmount(d decimal.Decimal) Literal {
	return Literal{kind: literalDecimal, d: d}
}

// FloatAmount wraps a float. NaN and infinities become a null literal.
func FloatAmount(f float64) Literal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Literal{}
	}
	return DecimalAmount(decimal.NewFromFloat(f))
}

// TextAmount wraps a free-form amount string.
func TextAmount(s string) Literal {
	return Literal{kind: literalText, s: s}
}

// AmountOf converts a loosely typed value (as produced by encoding/json into
// interface{}) into a Literal. Unsupported types become a null literal.
func AmountOf(v any) Literal {
	switch val := v.(type) {
	case nil:
		return Literal{}
	case Literal:
		return val
	case int:
		return IntAmount(int64(val))
	case int32:
		return IntAmount(int64(val))
	case int64:
		return IntAmount(val)
	case uint32:
		return IntAmount(int64(val))
	case float32:
		return FloatAmount(float64(val))
	case float64:
		return FloatAmount(val)
	case decimal.Decimal:
		return DecimalAmount(val)
	case json.Number:
		return numberLiteral(string(val))
	case string:
		return TextAmount(val)
	default:
		return Literal{}
	}
}

func numberLiteral(s string) Literal {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntAmount(n)
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return DecimalAmount(d)
	}
	return Literal{}
}

// IsNull reports whether the literal carries no value at all.
func (l Literal) IsNull() bool {
	return l.kind == literalNull
}

// String returns the literal as it would be shown to a user.
func (l Literal) String() string {
	switch l.kind {
	case literalInt:
		return strconv.FormatInt(l.i, 10)
	case literalDecimal:
		return l.d.String()
	case literalText:
		return l.s
	default:
		return ""
	}
}

// MarshalJSON keeps the original shape: numbers stay numbers, text stays text.
func (l Literal) MarshalJSON() ([]byte, error) {
	switch l.kind {
	case literalInt:
		return []byte(strconv.FormatInt(l.i, 10)), nil
	case literalDecimal:
		return []byte(l.d.String()), nil
	case literalText:
		return json.Marshal(l.s)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a JSON number, string or null. Any other JSON value
// decodes to a null literal instead of failing the whole payload.
func (l *Literal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*l = Literal{}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode amount text: %w", err)
		}
		*l = TextAmount(s)
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*l = numberLiteral(string(b))
	default:
		*l = Literal{}
	}
	return nil
}

// UnitMatch selects how unit words are detected in amount text.
type UnitMatch int

const (
	// UnitMatchSubstring looks for "lakh"/"L" then "crore"/"Cr" anywhere in
	// the text, ignoring case.
	UnitMatchSubstring UnitMatch = iota
	// UnitMatchCaseSensitive looks for the same substrings with exact case.
	UnitMatchCaseSensitive
	// UnitMatchWord requires the unit to stand on its own ("5L", "5 lakh"),
	// so words such as "Loan" do not count.
	UnitMatchWord
)

func (m UnitMatch) String() string {
	switch m {
	case UnitMatchCaseSensitive:
		return "case-sensitive"
	case UnitMatchWord:
		return "word"
	default:
		return "substring"
	}
}

// ParseUnitMatch maps a configuration value to a UnitMatch.
func ParseUnitMatch(s string) (UnitMatch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "substring":
		return UnitMatchSubstring, nil
	case "case-sensitive", "exact":
		return UnitMatchCaseSensitive, nil
	case "word":
		return UnitMatchWord, nil
	default:
		return UnitMatchSubstring, fmt.Errorf("unknown unit match %q", s)
	}
}

// ParseOutcome classifies a single parse for observers.
type ParseOutcome string

const (
	OutcomeParsed   ParseOutcome = "parsed"
	OutcomeEmpty    ParseOutcome = "empty"
	OutcomeUnparsed ParseOutcome = "unparsed"
)

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithUnitMatch sets the unit detection policy.
func WithUnitMatch(m UnitMatch) ParserOption {
	return func(p *Parser) {
		p.unitMatch = m
	}
}

// WithParseHook registers a callback invoked once per parse with its outcome.
func WithParseHook(fn func(ParseOutcome)) ParserOption {
	return func(p *Parser) {
		p.hook = fn
	}
}

// Parser converts amount literals to whole rupees. The zero value is not
// usable; build one with NewParser. A Parser is safe for concurrent use.
type Parser struct {
	unitMatch UnitMatch
	hook      func(ParseOutcome)
}

// NewParser builds a parser. Without options it uses UnitMatchSubstring.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{unitMatch: UnitMatchSubstring}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = NewParser()

// Parse converts l to whole rupees with the default parser.
//
// Examples:
//
//	Parse(TextAmount("₹6,000/year"))  -> 6000
//	Parse(TextAmount("₹5 lakh/year")) -> 500000
//	Parse(TextAmount("₹1 crore"))     -> 10000000
//	Parse(IntAmount(-5))              -> 0
func Parse(l Literal) int64 {
	return defaultParser.Parse(l)
}

// UnitMatch returns the parser's unit detection policy.
func (p *Parser) UnitMatch() UnitMatch {
	return p.unitMatch
}

// Parse converts l to whole rupees. It never fails: unreadable input is 0.
func (p *Parser) Parse(l Literal) int64 {
	n, _ := p.parse(l)
	return n
}

// ParseStrict behaves like Parse but reports ErrUnparsed for non-empty text
// without a readable number and for values that overflow. Null and empty
// input still yield 0 without error.
func (p *Parser) ParseStrict(l Literal) (int64, error) {
	n, outcome := p.parse(l)
	if outcome == OutcomeUnparsed {
		return 0, fmt.Errorf("%w: %q", ErrUnparsed, l.String())
	}
	return n, nil
}

func (p *Parser) parse(l Literal) (int64, ParseOutcome) {
	var (
		n       int64
		outcome ParseOutcome
	)
	switch l.kind {
	case literalInt:
		n, outcome = clampInt(l.i)
	case literalDecimal:
		n, outcome = truncateDecimal(l.d)
	case literalText:
		n, outcome = p.parseText(l.s)
	default:
		outcome = OutcomeEmpty
	}
	if p.hook != nil {
		p.hook(outcome)
	}
	return n, outcome
}

func clampInt(n int64) (int64, ParseOutcome) {
	switch {
	case n < 0:
		return 0, OutcomeParsed
	case n == 0:
		return 0, OutcomeEmpty
	default:
		return n, OutcomeParsed
	}
}

var maxInt64Decimal = decimal.NewFromInt(math.MaxInt64)

func truncateDecimal(d decimal.Decimal) (int64, ParseOutcome) {
	if d.IsZero() {
		return 0, OutcomeEmpty
	}
	if d.IsNegative() {
		return 0, OutcomeParsed
	}
	t := d.Truncate(0)
	if t.GreaterThan(maxInt64Decimal) {
		return 0, OutcomeUnparsed
	}
	return t.IntPart(), OutcomeParsed
}

// amountToken matches the first integer-like run, allowing a single comma group
// ("6,000"). Anything after a decimal point starts a new run and is ignored.
var amountToken = regexp.MustCompile(`\d+(?:,\d+)?`)

func (p *Parser) parseText(s string) (int64, ParseOutcome) {
	if strings.TrimSpace(s) == "" {
		return 0, OutcomeEmpty
	}
	token := amountToken.FindString(s)
	if token == "" {
		return 0, OutcomeUnparsed
	}
	value, err := strconv.ParseInt(strings.ReplaceAll(token, ",", ""), 10, 64)
	if err != nil {
		return 0, OutcomeUnparsed
	}
	multiplier := p.multiplier(s)
	if value > 0 && value > math.MaxInt64/multiplier {
		return 0, OutcomeUnparsed
	}
	return value * multiplier, OutcomeParsed
}

var (
	lakhWord  = regexp.MustCompile(`(?i)(?:^|[^a-z])(?:lakhs?|l)(?:[^a-z]|$)`)
	croreWord = regexp.MustCompile(`(?i)(?:^|[^a-z])(?:crores?|cr)(?:[^a-z]|$)`)
)

// multiplier scans the whole text for a unit. Lakh is checked before crore.
func (p *Parser) multiplier(s string) int64 {
	switch p.unitMatch {
	case UnitMatchCaseSensitive:
		if strings.Contains(s, "lakh") || strings.Contains(s, "L") {
			return Lakh
		}
		if strings.Contains(s, "crore") || strings.Contains(s, "Cr") {
			return Crore
		}
	case UnitMatchWord:
		if lakhWord.MatchString(s) {
			return Lakh
		}
		if croreWord.MatchString(s) {
			return Crore
		}
	default:
		lower := strings.ToLower(s)
		if strings.Contains(lower, "lakh") || strings.Contains(lower, "l") {
			return Lakh
		}
		if strings.Contains(lower, "crore") || strings.Contains(lower, "cr") {
			return Crore
		}
	}
	return 1
}
