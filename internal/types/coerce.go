package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToInt reads a loosely typed JSON value as an int. Fractions are truncated
// and values beyond the int range saturate.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return floatToInt(f)
		}
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(n), "%"))
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
	}
	return 0, false
}

func floatToInt(f float64) (int, bool) {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0, false
	case f >= float64(math.MaxInt):
		return math.MaxInt, true
	case f <= float64(math.MinInt):
		return math.MinInt, true
	}
	return int(f), true
}

// ToString reads a loosely typed JSON value as display text.
func ToString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case map[string]any, []any:
		b, err := json.Marshal(s)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(s)
	}
}

// NormalizeTalkRatio enforces rep + customer == 100. A missing value counts
// as 50, an unparseable one resets both to 50/50, negatives clamp to 0 and a
// zero total splits evenly. Otherwise both are rescaled proportionally
// (round half to even on the rep share).
func NormalizeTalkRatio(rep, customer any) (int, int) {
	r, ok := 50, true
	if rep != nil {
		r, ok = ToInt(rep)
	}
	c, ok2 := 50, true
	if customer != nil {
		c, ok2 = ToInt(customer)
	}
	if !ok || !ok2 {
		return 50, 50
	}
	r, c = max(r, 0), max(c, 0)
	total := float64(r) + float64(c)
	switch total {
	case 0:
		return 50, 50
	case 100:
		return r, c
	}
	r = int(math.RoundToEven(100 * float64(r) / total))
	return r, 100 - r
}

// CapRunes returns at most n characters of s, never splitting a rune.
func CapRunes(s string, n int) string {
	if n < 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// NormalizeEnum lowercases v and returns it when allowed, else def.
func NormalizeEnum(v any, def string, allowed ...string) string {
	s := strings.ToLower(ToString(v))
	for _, a := range allowed {
		if s == a {
			return s
		}
	}
	return def
}
