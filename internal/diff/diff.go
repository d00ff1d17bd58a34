// Package diff compares two flat field maps, records a left or right choice
// per field and merges them into one map.
//
// A field missing from one side compares as the empty string. Every field in
// the union of both maps gets a Row, so Merge always yields the full key set;
// Differing narrows the rows down to the ones that need a decision.
package diff

import (
	"fmt"
	"sort"
)

// Side selects which value of a row wins the merge.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// DefaultSide is the choice every row starts with.
const DefaultSide = Right

// ParseSide accepts "left" or "right".
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Left, Right:
		return Side(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSide, s)
}

// Row is one field of a comparison.
type Row struct {
	Field       string `json:"field"`
	Left        string `json:"left"`
	Right       string `json:"right"`
	IsDifferent bool   `json:"isDifferent"`
	Choice      Side   `json:"choice"`
}

// Value returns the value the row contributes to a merge.
func (r Row) Value() string {
	if r.Choice == Left {
		return r.Left
	}
	return r.Right
}

// BuildDiff returns one row per key in either map, sorted by field name.
// Values are compared exactly; each row's choice is DefaultSide.
func BuildDiff(left, right map[string]string) []Row {
	keys := make(map[string]struct{}, len(left)+len(right))
	for k := range left {
		keys[k] = struct{}{}
	}
	for k := range right {
		keys[k] = struct{}{}
	}

	fields := make([]string, 0, len(keys))
	for k := range keys {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	rows := make([]Row, len(fields))
	for i, f := range fields {
		l, r := left[f], right[f]
		rows[i] = Row{
			Field:       f,
			Left:        l,
			Right:       r,
			IsDifferent: l != r,
			Choice:      DefaultSide,
		}
	}
	return rows
}

// Differing returns the rows whose values differ.
func Differing(rows []Row) []Row {
	var out []Row
	for _, r := range rows {
		if r.IsDifferent {
			out = append(out, r)
		}
	}
	return out
}

// SetAllChoice sets every row's choice to side.
func SetAllChoice(rows []Row, side Side) {
	for i := range rows {
		rows[i].Choice = side
	}
}

// Merge returns each row's chosen value keyed by field.
func Merge(rows []Row) map[string]string {
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Field] = r.Value()
	}
	return out
}

// MergeWith merges rows using choices in place of the rows' own choice for
// every field present in choices. Neither argument is modified.
func MergeWith(rows []Row, choices map[string]Side) map[string]string {
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		if side, ok := choices[r.Field]; ok {
			r.Choice = side
		}
		out[r.Field] = r.Value()
	}
	return out
}
