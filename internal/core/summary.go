package core

import (
	"math"
	"strings"
)

// TotalKey is the reserved key under which Amounts reports the grand total.
// Partition rules must not produce it.
const TotalKey = "total"

// Record is one aggregation input: an amount plus the attributes a
// PartitionRule may look at.
type Record struct {
	Amount Literal
	Flags  map[string]bool
	Labels map[string]string
}

// PartitionRule maps a record to the key of its partition.
type PartitionRule func(Record) string

// ByFlag partitions on a boolean flag. A missing flag counts as unset.
func ByFlag(flag, set, unset string) PartitionRule {
	return func(r Record) string {
		if r.Flags[flag] {
			return set
		}
		return unset
	}
}

// ByLabel partitions on a label value; blank labels go to fallback.
func ByLabel(label, fallback string) PartitionRule {
	return func(r Record) string {
		if v := strings.TrimSpace(r.Labels[label]); v != "" {
			return v
		}
		return fallback
	}
}

// Constant puts every record in the same partition.
func Constant(key string) PartitionRule {
	return func(Record) string { return key }
}

// AggregationResult holds per-partition sums and counts plus the total over
// every record, whichever partition it fell into.
type AggregationResult struct {
	Partitions map[string]int64
	Counts     map[string]int
	Total      int64
	Records    int
}

// Sum returns the sum for key. TotalKey returns Total.
func (r AggregationResult) Sum(key string) int64 {
	if key == TotalKey {
		return r.Total
	}
	return r.Partitions[key]
}

// Percentage returns the share of Total held by the partition, 0 when Total
// is 0.
func (r AggregationResult) Percentage(key string) int {
	return Percentage(r.Sum(key), r.Total)
}

// Amounts returns a copy of the partition sums with TotalKey added.
func (r AggregationResult) Amounts() map[string]int64 {
	out := make(map[string]int64, len(r.Partitions)+1)
	for k, v := range r.Partitions {
		out[k] = v
	}
	out[TotalKey] = r.Total
	return out
}

// Aggregator sums record amounts through a Parser.
type Aggregator struct {
	parser *Parser
}

// NewAggregator returns an Aggregator using p, or the default parser when p
// is nil.
func NewAggregator(p *Parser) *Aggregator {
	if p == nil {
		p = defaultParser
	}
	return &Aggregator{parser: p}
}

// Aggregate sums records with the default parser.
func Aggregate(records []Record, rule PartitionRule) AggregationResult {
	return NewAggregator(nil).Aggregate(records, rule)
}

// Aggregate parses every record amount, applies rule and accumulates the
// sums. It is order-independent and keeps no state between calls; a panic in
// rule propagates to the caller. Sums saturate at math.MaxInt64.
func (a *Aggregator) Aggregate(records []Record, rule PartitionRule) AggregationResult {
	res := AggregationResult{
		Partitions: make(map[string]int64),
		Counts:     make(map[string]int),
	}
	for _, rec := range records {
		amount := a.parser.Parse(rec.Amount)
		key := rule(rec)
		res.Partitions[key] = addSaturating(res.Partitions[key], amount)
		res.Counts[key]++
		res.Total = addSaturating(res.Total, amount)
		res.Records++
	}
	return res
}

// addSaturating adds two non-negative amounts.
func addSaturating(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
