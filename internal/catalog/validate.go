package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// V returns the shared validator with the catalog rules registered.
func V() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonTagName)
		validate.RegisterValidation("itemid", itemIDValidator)
		validate.RegisterValidation("listtoken", listTokenValidator)
		validate.RegisterValidation("currency", currencyValidator)
	})
	return validate
}

func jsonTagName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

var currencyRe = regexp.MustCompile(`^[A-Z0-9]{2}$`)

// itemIDValidator rejects ids that would not survive the CSV form or a
// spreadsheet round trip: any list token rule, plus no column or pair
// separator.
func itemIDValidator(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return validToken(s) && !strings.ContainsAny(s, ","+pairSep)
}

// listTokenValidator rejects list entries that are blank, padded with
// whitespace, or contain the list separator.
func listTokenValidator(fl validator.FieldLevel) bool {
	return validToken(fl.Field().String())
}

func validToken(s string) bool {
	return s != "" && strings.TrimSpace(s) == s && !strings.Contains(s, listSep)
}

// currencyValidator accepts PlayFab virtual currency codes.
func currencyValidator(fl validator.FieldLevel) bool {
	return currencyRe.MatchString(fl.Field().String())
}

// FieldError is one rule a record broke.
type FieldError struct {
	Index  int // position in the validated slice
	ItemID string
	Field  string
	Rule   string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("record %d (%q): %s failed %s", e.Index, e.ItemID, e.Field, e.Rule)
}

// ValidationErrors collects every FieldError found by Validate.
type ValidationErrors []FieldError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Error()
	}
	return "invalid catalog records: " + strings.Join(msgs, "; ")
}

// Validate checks records before they are stored or pushed. Decode does not
// call it: decoding is tolerant, publishing is not. Duplicate item ids in one
// batch are reported against the later record.
func Validate(records []Record) error {
	var ves ValidationErrors
	seen := make(map[string]int, len(records))

	for i, r := range records {
		if err := V().Struct(r); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				return fmt.Errorf("validate record %d: %w", i, err)
			}
			for _, fe := range verrs {
				ves = append(ves, FieldError{
					Index:  i,
					ItemID: r.ItemID,
					Field:  strings.TrimPrefix(fe.Namespace(), "Record."),
					Rule:   fe.Tag(),
				})
			}
		}
		if r.ItemID == "" {
			continue
		}
		if _, dup := seen[r.ItemID]; dup {
			ves = append(ves, FieldError{Index: i, ItemID: r.ItemID, Field: "ItemId", Rule: "unique"})
			continue
		}
		seen[r.ItemID] = i
	}

	if len(ves) > 0 {
		return ves
	}
	return nil
}
