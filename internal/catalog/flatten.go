package catalog

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	listSep = ";"
	pairSep = ":"
)

// Flatten returns the record as a column-name to value map holding exactly
// the unquoted values Encode writes.
func Flatten(r Record) map[string]string {
	values := rowValues(r)
	m := make(map[string]string, len(Columns))
	for i, col := range Columns {
		m[col] = values[i]
	}
	return m
}

// Unflatten is the inverse of Flatten. Missing columns read as empty and
// unknown keys are ignored. All role sub-records are allocated.
func Unflatten(m map[string]string) Record {
	fields := make([]string, len(Columns))
	for i, col := range Columns {
		fields[i] = m[col]
	}
	return recordFromFields(fields)
}

func rowValues(r Record) []string {
	v := make([]string, NumColumns)
	v[0] = r.ItemID
	v[1] = r.DisplayName
	v[2] = r.ItemClass
	v[3] = r.Description
	v[4] = r.CustomData
	v[5] = joinList(r.Tags)
	v[6] = formatBool(r.IsLimitedEdition)
	v[7] = formatBool(r.IsTokenForCharacterCreation)
	v[8] = formatBool(r.IsTradable)
	v[9] = formatBool(r.IsStackable)
	if c := r.Consumable; c != nil {
		v[10] = formatCount(c.UsageCount)
		v[11] = formatCount(c.UsagePeriod)
		v[12] = c.UsagePeriodGroup
	}
	if b := r.Bundle; b != nil {
		v[13] = joinList(b.BundledItems)
		v[14] = joinList(b.BundledResultTables)
		v[15] = joinAmounts(b.BundledVirtualCurrencies)
	}
	if c := r.Container; c != nil {
		v[16] = c.KeyItemID
		v[17] = joinList(c.ItemContents)
		v[18] = joinList(c.ResultTableContents)
		v[19] = joinAmounts(c.VirtualCurrencyContents)
	}
	return v
}

// recordFromFields maps NumColumns positional fields onto a Record.
func recordFromFields(f []string) Record {
	return Record{
		ItemID:                      f[0],
		DisplayName:                 f[1],
		ItemClass:                   f[2],
		Description:                 f[3],
		CustomData:                  f[4],
		Tags:                        splitList(f[5]),
		IsLimitedEdition:            parseBool(f[6]),
		IsTokenForCharacterCreation: parseBool(f[7]),
		IsTradable:                  parseBool(f[8]),
		IsStackable:                 parseBool(f[9]),
		Consumable: &ConsumableInfo{
			UsageCount:       parseCount(f[10]),
			UsagePeriod:      parseCount(f[11]),
			UsagePeriodGroup: f[12],
		},
		Bundle: &BundleInfo{
			BundledItems:             splitList(f[13]),
			BundledResultTables:      splitList(f[14]),
			BundledVirtualCurrencies: splitAmounts(f[15]),
		},
		Container: &ContainerInfo{
			KeyItemID:               f[16],
			ItemContents:            splitList(f[17]),
			ResultTableContents:     splitList(f[18]),
			VirtualCurrencyContents: splitAmounts(f[19]),
		},
	}
}

func formatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func parseBool(s string) bool {
	return strings.EqualFold(s, "TRUE")
}

// formatCount writes zero as the empty string.
func formatCount(n uint32) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(n), 10)
}

// parseCount saturates at the uint32 range; negative counts read as zero.
func parseCount(s string) uint32 {
	n := atoi(s, math.MaxUint32)
	if n < 0 {
		return 0
	}
	return uint32(n)
}

func joinList(items []string) string {
	return strings.Join(items, listSep)
}

// splitList drops empty segments; an empty input yields nil.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, listSep) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// joinAmounts writes key:value pairs sorted by key.
func joinAmounts(m map[string]int32) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + pairSep + strconv.FormatInt(int64(m[k]), 10)
	}
	return strings.Join(pairs, listSep)
}

// splitAmounts splits each pair on its first colon. Pairs without a colon are
// dropped. The result is never nil.
func splitAmounts(s string) map[string]int32 {
	m := make(map[string]int32)
	for _, pair := range splitList(s) {
		key, value, ok := strings.Cut(pair, pairSep)
		if !ok {
			continue
		}
		m[key] = int32(atoi(value, math.MaxInt32))
	}
	return m
}

// atoi reads an optional sign and leading digits after any leading
// whitespace, stopping at the first other byte. Input with no digits is 0.
// The result saturates at limit, or at -limit-1 for negative input.
func atoi(s string, limit int64) int64 {
	s = strings.TrimLeft(s, " \t")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	var n int64
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int64(s[i]-'0')
		if n > limit+1 {
			n = limit + 1
		}
	}
	if neg {
		return -n
	}
	if n > limit {
		n = limit
	}
	return n
}
