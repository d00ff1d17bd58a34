package catalog

import (
	"errors"
	"strings"
)

// Column names of the CSV form, in order.
const (
	ColItemID                      = "ItemId"
	ColDisplayName                 = "DisplayName"
	ColItemClass                   = "ItemClass"
	ColDescription                 = "Description"
	ColCustomData                  = "CustomData"
	ColTags                        = "Tags"
	ColIsLimitedEdition            = "IsLimitedEdition"
	ColIsTokenForCharacterCreation = "IsTokenForCharacterCreation"
	ColIsTradable                  = "IsTradable"
	ColIsStackable                 = "IsStackable"
	ColUsageCount                  = "UsageCount"
	ColUsagePeriod                 = "UsagePeriod"
	ColUsagePeriodGroup            = "UsagePeriodGroup"
	ColBundledItems                = "BundledItems"
	ColBundledResultTables         = "BundledResultTables"
	ColBundledVirtualCurrencies    = "BundledVirtualCurrencies"
	ColKeyItemID                   = "KeyItemId"
	ColItemContents                = "ItemContents"
	ColResultTableContents         = "ResultTableContents"
	ColVirtualCurrencyContents     = "VirtualCurrencyContents"
)

// Columns is the fixed header of the CSV form.
var Columns = []string{
	ColItemID, ColDisplayName, ColItemClass, ColDescription, ColCustomData, ColTags,
	ColIsLimitedEdition, ColIsTokenForCharacterCreation, ColIsTradable, ColIsStackable,
	ColUsageCount, ColUsagePeriod, ColUsagePeriodGroup,
	ColBundledItems, ColBundledResultTables, ColBundledVirtualCurrencies,
	ColKeyItemID, ColItemContents, ColResultTableContents, ColVirtualCurrencyContents,
}

// NumColumns is the number of fields a data row needs to be decoded.
const NumColumns = 20

// Header is the first line written by Encode.
var Header = strings.Join(Columns, ",")

const lineSep = "\r\n"

// ErrInsufficientData is returned by Decode when the text has no data row.
var ErrInsufficientData = errors.New("catalog: csv needs a header and at least one data row")

// Encode renders records as CSV text: the header, then one line per record,
// joined with CRLF. Every field is quoted.
func Encode(records []Record) string {
	var b strings.Builder
	b.WriteString(Header)
	for _, r := range records {
		b.WriteString(lineSep)
		for i, v := range rowValues(r) {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(escape(v))
		}
	}
	return b.String()
}

// escape doubles embedded quotes and wraps the value in quotes.
func escape(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// Report is the outcome of DecodeReport.
type Report struct {
	Records []Record
	// Lines holds the 1-based line number of each record in Records.
	Lines []int
	// SkippedLines holds the 1-based line numbers of rows with fewer than
	// NumColumns fields.
	SkippedLines []int
	// DataLines counts the non-blank lines after the header.
	DataLines int
}

// Decode parses CSV text produced by Encode (or a spreadsheet export of the
// same columns). The header line is not checked. Blank lines and rows with
// fewer than NumColumns fields are skipped.
func Decode(text string) ([]Record, error) {
	rep, err := DecodeReport(text)
	if err != nil {
		return nil, err
	}
	return rep.Records, nil
}

// DecodeReport is Decode plus the line numbers of the rows it skipped.
func DecodeReport(text string) (*Report, error) {
	lines := strings.Split(text, "\n")

	type numbered struct {
		n    int
		text string
	}
	var content []numbered
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		content = append(content, numbered{n: i + 1, text: line})
	}
	if len(content) < 2 {
		return nil, ErrInsufficientData
	}

	rep := &Report{
		Records:   make([]Record, 0, len(content)-1),
		Lines:     make([]int, 0, len(content)-1),
		DataLines: len(content) - 1,
	}
	for _, line := range content[1:] {
		fields := ParseLine(line.text)
		if len(fields) < NumColumns {
			rep.SkippedLines = append(rep.SkippedLines, line.n)
			continue
		}
		rep.Records = append(rep.Records, recordFromFields(fields[:NumColumns]))
		rep.Lines = append(rep.Lines, line.n)
	}
	return rep, nil
}
