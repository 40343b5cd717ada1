package extractor

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"salessense-go/internal/types"
)

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// Repair turns a model fragment into a decoded JSON value. It never fails:
// unrecoverable input yields an empty map. A successfully decoded value is
// returned as-is, so callers must check its concrete type.
//
// Balancing counts braces and brackets over the whole text without tracking
// nesting or string literals, so a stray '}' inside a quoted value can still
// produce a wrong repair.
func Repair(text string, log logrus.FieldLogger) any {
	s := strings.TrimSpace(text)
	if s == "" {
		log.Warn("empty response received")
		return map[string]any{}
	}

	// strip markdown fences
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimSpace(s[len("```json"):])
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(s[len("```"):])
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(s[:len(s)-len("```")])
	}

	var out any
	if err := json.Unmarshal([]byte(s), &out); err == nil {
		return out
	}
	log.Debug("attempting to repair JSON fragment")

	if !(strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) {
		s = "{" + s + "}"
	}
	s = trailingComma.ReplaceAllString(s, "$1")
	s = balance(s, "{", "}")
	s = balance(s, "[", "]")

	if err := json.Unmarshal([]byte(s), &out); err != nil {
		log.WithField("error", err.Error()).WithField("fragment", head(s, 200)).Warn("JSON repair failed")
		return map[string]any{}
	}
	log.Debug("JSON successfully repaired")
	return out
}

// RepairObject is Repair restricted to JSON objects.
func RepairObject(text string, log logrus.FieldLogger) map[string]any {
	if m, ok := Repair(text, log).(map[string]any); ok {
		return m
	}
	log.Warn("repaired response is not a JSON object")
	return map[string]any{}
}

func balance(s, open, close string) string {
	opens, closes := strings.Count(s, open), strings.Count(s, close)
	switch {
	case opens > closes:
		return s + strings.Repeat(close, opens-closes)
	case closes > opens:
		return strings.Repeat(open, closes-opens) + s
	}
	return s
}

func head(s string, n int) string {
	if capped := types.CapRunes(s, n); len(capped) < len(s) {
		return capped + "..."
	}
	return s
}
