package entropy

import (
	"math"
	"testing"
)

func TestNormalizedEntropy_SingleFileAllChanges(t *testing.T) {
	result := normalizedEntropy(map[string]int{"a.go": 42})
	if result["a.go"] != 0.0 {
		t.Errorf("entropy for a file with all changes = %f, want 0.0", result["a.go"])
	}
}

func TestNormalizedEntropy_EvenSplit(t *testing.T) {
	result := normalizedEntropy(map[string]int{"a.go": 10, "b.go": 10})
	var sum float64
	for name, e := range result {
		if math.Abs(e-0.5) > 1e-12 {
			t.Errorf("entropy[%s] = %f, want 0.5 (-0.5*log2(0.5))", name, e)
		}
		sum += e
	}
	// Two even outcomes carry maximum distribution entropy.
	if math.Abs(sum-1.0) > 1e-12 {
		t.Errorf("total entropy = %f, want 1.0", sum)
	}
}

func TestNormalizedEntropy_ZeroTotal(t *testing.T) {
	result := normalizedEntropy(map[string]int{"a.go": 0, "b.go": 0})
	for name, e := range result {
		if e != 0.0 {
			t.Errorf("entropy[%s] = %f, want 0.0 for zero total", name, e)
		}
	}
}

func TestPeriodize_Empty(t *testing.T) {
	periods := periodize(nil, 3600)
	if len(periods) != 0 {
		t.Errorf("expected no periods for empty input, got %d", len(periods))
	}
}

func TestPeriodize_SinglePeriod(t *testing.T) {
	events := []CommitEvent{
		{Timestamp: 1000, Changes: map[string]int{"a.go": 2}},
		{Timestamp: 1600, Changes: map[string]int{"a.go": 1, "b.go": 3}},
	}
	periods := periodize(events, 3600)
	if len(periods) != 1 {
		t.Fatalf("expected 1 period, got %d", len(periods))
	}
	p := periods[0]
	if p.End != 1600 {
		t.Errorf("period end = %d, want 1600", p.End)
	}
	if p.Changes["a.go"] != 3 || p.Changes["b.go"] != 3 {
		t.Errorf("merged changes = %v, want a.go:3 b.go:3", p.Changes)
	}
}

func TestPeriodize_QuietGapSplits(t *testing.T) {
	events := []CommitEvent{
		{Timestamp: 1000, Changes: map[string]int{"a.go": 1}},
		{Timestamp: 1000 + 3601, Changes: map[string]int{"b.go": 1}},
	}
	periods := periodize(events, 3600)
	if len(periods) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(periods))
	}
	if periods[0].End != 1000 || periods[1].End != 4601 {
		t.Errorf("period ends = %d, %d; want 1000, 4601", periods[0].End, periods[1].End)
	}
}

func TestPeriodize_GapExactlyQuietTimeMerges(t *testing.T) {
	events := []CommitEvent{
		{Timestamp: 1000, Changes: map[string]int{"a.go": 1}},
		{Timestamp: 1000 + 3600, Changes: map[string]int{"b.go": 1}},
	}
	periods := periodize(events, 3600)
	if len(periods) != 1 {
		t.Fatalf("gap equal to quiet time should merge, got %d periods", len(periods))
	}
}

func TestPeriodize_UnsortedInput(t *testing.T) {
	events := []CommitEvent{
		{Timestamp: 9000, Changes: map[string]int{"b.go": 1}},
		{Timestamp: 1000, Changes: map[string]int{"a.go": 1}},
	}
	periods := periodize(events, 3600)
	if len(periods) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(periods))
	}
	if periods[0].End != 1000 {
		t.Errorf("first period end = %d, want 1000 (events must be sorted)", periods[0].End)
	}
}

func TestPeriodize_EmittedPeriodsDoNotAlias(t *testing.T) {
	events := []CommitEvent{
		{Timestamp: 1000, Changes: map[string]int{"a.go": 1}},
		{Timestamp: 10000, Changes: map[string]int{"a.go": 5}},
		{Timestamp: 10100, Changes: map[string]int{"a.go": 7}},
	}
	periods := periodize(events, 3600)
	if len(periods) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(periods))
	}
	if periods[0].Changes["a.go"] != 1 {
		t.Errorf("first period was mutated after emission: a.go = %d, want 1", periods[0].Changes["a.go"])
	}
	if periods[1].Changes["a.go"] != 12 {
		t.Errorf("second period a.go = %d, want 12", periods[1].Changes["a.go"])
	}
}

func TestPeriodize_DoesNotMutateInputEvents(t *testing.T) {
	events := []CommitEvent{
		{Timestamp: 1000, Changes: map[string]int{"a.go": 1}},
		{Timestamp: 1100, Changes: map[string]int{"a.go": 2}},
	}
	periodize(events, 3600)
	if events[0].Changes["a.go"] != 1 || events[1].Changes["a.go"] != 2 {
		t.Error("periodize mutated caller-owned event maps")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"zero decay", Config{DecayFactor: 0, QuietTime: 3600}, true},
		{"negative decay", Config{DecayFactor: -1, QuietTime: 3600}, true},
		{"zero quiet time", Config{DecayFactor: 10, QuietTime: 0}, true},
		{"custom valid", Config{DecayFactor: 0.5, QuietTime: 60}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBurstPeriod_TotalChanges(t *testing.T) {
	p := BurstPeriod{End: 100, Changes: map[string]int{"a.go": 3, "b.go": 4}}
	if got := p.TotalChanges(); got != 7 {
		t.Errorf("TotalChanges() = %d, want 7", got)
	}
}

func TestDecayMonotonicity(t *testing.T) {
	// Identical entropy, different ages: the older period contributes
	// strictly less for any positive age.
	decayFactor := 10.0
	recent := math.Exp(-(0.0 / decayFactor))
	old := math.Exp(-(5.0 / decayFactor))
	if old >= recent {
		t.Errorf("older period weight %f should be strictly below recent weight %f", old, recent)
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"one\n", 1},
		{"one\ntwo\n", 2},
		{"no trailing newline", 1},
		{"one\npartial", 2},
	}
	for _, tt := range tests {
		if got := countLines(tt.content); got != tt.want {
			t.Errorf("countLines(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}
