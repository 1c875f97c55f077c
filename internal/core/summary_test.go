package core

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
)

func claimedRecord(amount Literal, claimed bool) Record {
	return Record{Amount: amount, Flags: map[string]bool{"claimed": claimed}}
}

func TestAggregateBenefitsScenario(t *testing.T) {
	records := []Record{
		claimedRecord(TextAmount("₹6,000/year"), true),
		claimedRecord(TextAmount("₹5 lakh/year"), false),
		claimedRecord(TextAmount("8.2% interest"), false),
	}
	res := Aggregate(records, ByFlag("claimed", "claimed", "unclaimed"))

	want := map[string]int64{"claimed": 6000, "unclaimed": 500008, TotalKey: 506008}
	if got := res.Amounts(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Amounts() = %v, want %v", got, want)
	}
	if res.Counts["claimed"] != 1 || res.Counts["unclaimed"] != 2 || res.Records != 3 {
		t.Fatalf("unexpected counts %v (records %d)", res.Counts, res.Records)
	}
	if got := FormatCompact(res.Total); got != "5.1L" {
		t.Fatalf("FormatCompact(total) = %q", got)
	}
	if got := res.Percentage("claimed"); got != 1 {
		t.Fatalf("claimed percentage = %d", got)
	}
}

func TestAggregateEmpty(t *testing.T) {
	res := Aggregate(nil, Constant("all"))
	if res.Total != 0 || len(res.Partitions) != 0 || res.Records != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
	if res.Percentage("all") != 0 {
		t.Fatalf("percentage of empty total must be 0")
	}
	if got := res.Amounts(); !reflect.DeepEqual(got, map[string]int64{TotalKey: 0}) {
		t.Fatalf("Amounts() = %v", got)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	records := []Record{
		{Amount: IntAmount(100), Labels: map[string]string{"section": "80C"}},
		{Amount: TextAmount("₹2 lakh"), Labels: map[string]string{"section": "80D"}},
		{Amount: TextAmount("junk")},
		{Amount: FloatAmount(45.9), Labels: map[string]string{"section": "80C"}},
	}
	rule := ByLabel("section", "other")
	first := Aggregate(records, rule)

	reversed := make([]Record, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}
	second := Aggregate(reversed, rule)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("aggregation depends on order: %+v vs %+v", first, second)
	}

	rng := rand.New(rand.NewSource(42))
	shuffled := append([]Record(nil), records...)
	for i := 0; i < 50; i++ {
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := Aggregate(shuffled, rule); !reflect.DeepEqual(first, got) {
			t.Fatalf("shuffle %d: got %+v, want %+v", i, got, first)
		}
	}
	if first.Sum("80C") != 145 || first.Sum("80D") != 200000 || first.Sum("other") != 0 {
		t.Fatalf("unexpected partitions %v", first.Partitions)
	}
	if first.Counts["other"] != 1 {
		t.Fatalf("junk amount must still be counted, got %v", first.Counts)
	}

	var sum int64
	for _, v := range first.Partitions {
		sum += v
	}
	if sum != first.Total {
		t.Fatalf("partitions sum %d != total %d", sum, first.Total)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	records := []Record{
		claimedRecord(TextAmount("₹6,000/year"), true),
		claimedRecord(TextAmount("₹5 lakh"), false),
		claimedRecord(IntAmount(250), false),
		claimedRecord(Literal{}, true),
	}
	snapshot := append([]Record(nil), records...)
	rule := ByFlag("claimed", "claimed", "unclaimed")

	first := Aggregate(records, rule)
	second := Aggregate(records, rule)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated aggregation differs: %+v vs %+v", first, second)
	}
	if !reflect.DeepEqual(records, snapshot) {
		t.Fatal("aggregation must not modify its input")
	}
	if first.Total != 506250 {
		t.Fatalf("total = %d, want 506250", first.Total)
	}
}

func TestAggregateSaturates(t *testing.T) {
	records := []Record{
		{Amount: IntAmount(math.MaxInt64)},
		{Amount: IntAmount(10)},
	}
	res := Aggregate(records, Constant("x"))
	if res.Total != math.MaxInt64 || res.Sum("x") != math.MaxInt64 {
		t.Fatalf("expected saturation, got %+v", res)
	}
}

func TestAggregateWithParser(t *testing.T) {
	records := []Record{{Amount: TextAmount("Loan of ₹5")}}
	word := NewAggregator(NewParser(WithUnitMatch(UnitMatchWord)))
	if got := word.Aggregate(records, Constant("x")).Total; got != 5 {
		t.Fatalf("word mode total = %d, want 5", got)
	}
	if got := Aggregate(records, Constant("x")).Total; got != 500000 {
		t.Fatalf("substring mode total = %d, want 500000", got)
	}
}

func TestAggregateRulePanicPropagates(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic to propagate")
		}
	}()
	Aggregate([]Record{{Amount: IntAmount(1)}}, func(Record) string { panic("boom") })
}
