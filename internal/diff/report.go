package diff

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"
)

// reportRow is the CSV shape of a Row. The choice column can be edited and
// read back with ReadChoices.
type reportRow struct {
	Field     string `csv:"field"`
	Left      string `csv:"left"`
	Right     string `csv:"right"`
	Different bool   `csv:"different"`
	Choice    Side   `csv:"choice"`
}

// WriteReport writes rows as CSV with a header line.
func WriteReport(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(reportRow{}); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	for _, r := range rows {
		if err := enc.Encode(reportRow{
			Field:     r.Field,
			Left:      r.Left,
			Right:     r.Right,
			Different: r.IsDifferent,
			Choice:    r.Choice,
		}); err != nil {
			return fmt.Errorf("write report row %q: %w", r.Field, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadChoices reads the field and choice columns of a report. Rows with an
// empty choice are skipped.
func ReadChoices(r io.Reader) (map[string]Side, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("read report header: %w", err)
	}

	choices := make(map[string]Side)
	for {
		var row reportRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read report row: %w", err)
		}
		if row.Choice == "" {
			continue
		}
		side, err := ParseSide(string(row.Choice))
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", row.Field, err)
		}
		choices[row.Field] = side
	}
	return choices, nil
}
