package directive

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Null-state sentinels reported by the backend for items with no known value.
const (
	StateNull  = "NULL"
	StateUndef = "UNDEF"
)

// formatSpec matches the accepted subset of state-description patterns:
// an optional zero-pad or precision followed by d, f or s.
var formatSpec = regexp.MustCompile(`%(?:[.0]\d+)?[dfs]`)

// ItemState is the state of one backend item as seen during a directive.
type ItemState struct {
	// Name is the item the state was read from: the sensor item when the
	// capability declares one, otherwise the commanded item.
	Name string

	// Type is the backend item type, e.g. "Dimmer" or "Number:Temperature".
	Type string

	// Raw is the state exactly as returned by the backend.
	Raw string

	// Pattern is the item's state-description pattern, if any.
	Pattern string

	// Value is Raw after FormatItemState.
	Value string
}

// IsNull reports whether the raw state is a null-state sentinel.
func (s *ItemState) IsNull() bool {
	return isNullState(s.Raw)
}

// BaseType returns the item type without its dimension suffix.
func (s *ItemState) BaseType() string {
	return baseType(s.Type)
}

func isNullState(raw string) bool {
	return raw == StateNull || raw == StateUndef
}

func baseType(t string) string {
	if i := strings.IndexByte(t, ':'); i >= 0 {
		return t[:i]
	}
	return t
}

// FormatItemState applies the item's display pattern to its raw state.
//
// Only the first %d, %f or %s specifier found in the pattern is applied; any
// surrounding text such as a unit is dropped. Dimmer, Number and Rollershutter
// states are formatted as numbers, String states as text. Any other type, a
// missing or unsupported pattern, a sentinel state or an unparsable number
// returns the raw state unchanged.
func FormatItemState(s ItemState) string {
	if isNullState(s.Raw) {
		return s.Raw
	}
	spec := formatSpec.FindString(s.Pattern)
	if spec == "" {
		return s.Raw
	}
	verb := spec[len(spec)-1]

	switch baseType(s.Type) {
	case "Dimmer", "Number", "Rollershutter":
		return formatNumber(spec, verb, s.Raw)
	case "String":
		if verb == 's' {
			return fmt.Sprintf(spec, s.Raw)
		}
		return formatNumber(spec, verb, s.Raw)
	default:
		return s.Raw
	}
}

func formatNumber(spec string, verb byte, raw string) string {
	f, ok := parseNumber(raw)
	if !ok {
		return raw
	}
	switch verb {
	case 'd':
		return fmt.Sprintf(spec, int64(f))
	case 'f':
		return fmt.Sprintf(spec, f)
	default:
		return fmt.Sprintf(spec, strconv.FormatFloat(f, 'f', -1, 64))
	}
}

// parseNumber reads the leading number of a state such as "21.5" or "21.5 °C".
func parseNumber(raw string) (float64, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
