package types

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeTalkRatio(t *testing.T) {
	tests := []struct {
		name         string
		rep, cust    any
		wantR, wantC int
	}{
		{"already 100", float64(60), float64(40), 60, 40},
		{"over 100", float64(70), float64(50), 58, 42},
		{"under 100", float64(30), float64(20), 60, 40},
		{"both zero", float64(0), float64(0), 50, 50},
		{"negative clamps", float64(-10), float64(30), 0, 100},
		{"string values", "55%", "45", 55, 45},
		{"rep missing", nil, float64(30), 62, 38},
		{"both missing", nil, nil, 50, 50},
		{"garbage", "lots", float64(10), 50, 50},
		{"fractions truncate", float64(33.9), float64(66.9), 33, 67},
		{"half rounds to even", float64(1), float64(7), 12, 88},
		{"huge equal values", float64(9e18), float64(9e18), 50, 50},
		{"beyond int range", float64(1e30), float64(10), 100, 0},
		{"huge string", "1e30", "1e30", 50, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, c := NormalizeTalkRatio(tt.rep, tt.cust)
			if r != tt.wantR || c != tt.wantC {
				t.Fatalf("got %d/%d, want %d/%d", r, c, tt.wantR, tt.wantC)
			}
			if r+c != 100 {
				t.Fatalf("ratios sum to %d", r+c)
			}
		})
	}
}

func TestNormalizeTalkRatioAlwaysSumsTo100(t *testing.T) {
	for r := 0; r <= 200; r += 7 {
		for c := 0; c <= 200; c += 11 {
			gr, gc := NormalizeTalkRatio(float64(r), float64(c))
			if gr+gc != 100 || gr < 0 || gc < 0 {
				t.Fatalf("(%d,%d) -> (%d,%d)", r, c, gr, gc)
			}
		}
	}
}

func TestToInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{float64(3), 3, true},
		{float64(3.7), 3, true},
		{" 12 ", 12, true},
		{"4.5", 4, true},
		{"many", 0, false},
		{true, 0, false},
		{nil, 0, false},
		{float64(1e30), math.MaxInt, true},
		{float64(-1e30), math.MinInt, true},
		{"9e40", math.MaxInt, true},
		{math.Inf(1), 0, false},
	}
	for _, tt := range tests {
		got, ok := ToInt(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ToInt(%#v) = %d,%v want %d,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizeEnum(t *testing.T) {
	if got := NormalizeEnum("Positive", SentimentNeutral, SentimentPositive, SentimentNeutral, SentimentNegative); got != "positive" {
		t.Errorf("got %q", got)
	}
	if got := NormalizeEnum("ecstatic", SentimentNeutral, SentimentPositive, SentimentNeutral, SentimentNegative); got != "neutral" {
		t.Errorf("got %q", got)
	}
	if got := NormalizeEnum(nil, ObjectionOther, ObjectionPrice); got != "other" {
		t.Errorf("got %q", got)
	}
}

func TestCapRunes(t *testing.T) {
	if got := CapRunes("héllo", 2); got != "hé" {
		t.Fatalf("got %q", got)
	}
	if got := CapRunes("abc", 10); got != "abc" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("é", 4000)
	if got := CapRunes(long, 3500); utf8.RuneCountInString(got) != 3500 {
		t.Fatalf("expected 3500 runes, got %d", utf8.RuneCountInString(got))
	}
}
