// Package validate converts untyped extracted data into typed, trusted payloads.
// Every validator returns nil when the input is rejected.
package validate

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/cashmind/internal/model"
)

// MaxAmount is the largest accepted monetary amount.
const MaxAmount = 999_999_999

// Field length limits after sanitization.
const (
	MaxDescriptionLen    = 255
	MaxNotesLen          = 500
	MaxBudgetNameLen     = 100
	MaxBudgetCategoryLen = 50
	MaxGoalNameLen       = 100
)

var (
	scriptPattern  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script\s*>`)
	stylePattern   = regexp.MustCompile(`(?is)<style[^>]*>.*?</style\s*>`)
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	bracketPattern = regexp.MustCompile(`[<>]`)
	datePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Sanitize strips tag-like substrings and stray angle brackets, trims
// whitespace and truncates to maxLen characters. Script and style elements
// are dropped together with their content. It is not an HTML sanitizer.
func Sanitize(s string, maxLen int) string {
	s = scriptPattern.ReplaceAllString(s, "")
	s = stylePattern.ReplaceAllString(s, "")
	s = tagPattern.ReplaceAllString(s, "")
	s = bracketPattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxLen {
		s = strings.TrimSpace(string([]rune(s)[:maxLen]))
	}
	return s
}

// fields normalises validator input into a map.
// Already validated payloads are accepted so validation stays idempotent.
func fields(input any) (map[string]any, bool) {
	switch v := input.(type) {
	case map[string]any:
		return v, v != nil
	case *model.TransactionData:
		if v == nil {
			return nil, false
		}
		return v.Fields(), true
	case *model.BudgetData:
		if v == nil {
			return nil, false
		}
		return v.Fields(), true
	case *model.GoalContributionData:
		if v == nil {
			return nil, false
		}
		return v.Fields(), true
	case model.ActionPayload:
		return v.Fields(), true
	default:
		return nil, false
	}
}

// Number reports the finite float value of a numeric field.
func Number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// amount accepts finite numbers in (0, MaxAmount].
func amount(v any) (float64, bool) {
	f, ok := Number(v)
	if !ok || f <= 0 || f > MaxAmount {
		return 0, false
	}
	return f, true
}

func str(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// stringOf returns v when it is a string, otherwise the empty string.
func stringOf(v any) string {
	s, _ := v.(string)
	return s
}
