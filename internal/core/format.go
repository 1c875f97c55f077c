package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const thousand int64 = 1_000

// FormatCompact renders a rupee amount in the short dashboard form:
// 250000 -> "2.5L", 1500 -> "1.5K", 999 -> "999".
// Scaled values keep one decimal and round half away from zero.
// FormatCompact does not invert Parse: Parse("1.5K") is 1.
func FormatCompact(amount int64) string {
	switch {
	case amount >= Lakh:
		return scaled(amount, Lakh) + "L"
	case amount >= thousand:
		return scaled(amount, thousand) + "K"
	default:
		return strconv.FormatInt(amount, 10)
	}
}

func scaled(amount, unit int64) string {
	return decimal.NewFromInt(amount).DivRound(decimal.NewFromInt(unit), 1).StringFixed(1)
}

// FormatRupees renders an amount with the rupee sign and Indian digit
// grouping (last three digits, then pairs): 500000 -> "₹5,00,000".
func FormatRupees(amount int64) string {
	sign := ""
	digits := strconv.FormatInt(amount, 10)
	if amount < 0 {
		sign = "-"
		digits = digits[1:]
	}
	return sign + "₹" + groupIndian(digits)
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(append(parts, tail), ",")
}

// Percentage returns round(100*part/reference) with halves rounded away from
// zero. A non-positive reference yields 0.
func Percentage(part, reference int64) int {
	if reference <= 0 {
		return 0
	}
	return int(decimal.NewFromInt(part).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(reference), 0).
		IntPart())
}
