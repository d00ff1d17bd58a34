package diff

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownField = errors.New("diff: field is not part of the comparison")
	ErrInvalidSide  = errors.New("diff: side must be left or right")
)

// Session is one comparison. Its rows are fixed when it is created; only the
// per-field choices change. A Session is not safe for concurrent use.
type Session struct {
	rows    []Row
	index   map[string]int
	choices map[string]Side
}

// NewSession builds the rows for left and right.
func NewSession(left, right map[string]string) *Session {
	rows := BuildDiff(left, right)
	index := make(map[string]int, len(rows))
	for i, r := range rows {
		index[r.Field] = i
	}
	return &Session{
		rows:    rows,
		index:   index,
		choices: make(map[string]Side),
	}
}

// Rows returns a copy of every row with the current choices applied.
func (s *Session) Rows() []Row {
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	for i := range out {
		if side, ok := s.choices[out[i].Field]; ok {
			out[i].Choice = side
		}
	}
	return out
}

// Differing returns the rows that need a decision, with choices applied.
func (s *Session) Differing() []Row {
	return Differing(s.Rows())
}

// Choose records side for field.
func (s *Session) Choose(field string, side Side) error {
	if _, ok := s.index[field]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if side != Left && side != Right {
		return fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
	s.choices[field] = side
	return nil
}

// ChooseAll records side for every field.
func (s *Session) ChooseAll(side Side) error {
	if side != Left && side != Right {
		return fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
	for _, r := range s.rows {
		s.choices[r.Field] = side
	}
	return nil
}

// Choices returns a copy of the explicit choices made so far.
func (s *Session) Choices() map[string]Side {
	out := make(map[string]Side, len(s.choices))
	for k, v := range s.choices {
		out[k] = v
	}
	return out
}

// Merge returns the merged map for the current choices.
func (s *Session) Merge() map[string]string {
	return MergeWith(s.rows, s.choices)
}
