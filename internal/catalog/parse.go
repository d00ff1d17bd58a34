package catalog

import "strings"

// ParseLine splits one CSV line into fields.
//
// Inside quotes a doubled quote yields one literal quote; any other quote
// toggles quoting and is dropped. A comma outside quotes ends the field.
// Each field is trimmed and, if still wrapped in a pair of quotes, unwrapped.
// Quoted newlines are not supported; callers split lines first.
func ParseLine(line string) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			fields = append(fields, finishField(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(fields, finishField(cur.String()))
}

func finishField(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return s
}
