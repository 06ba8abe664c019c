package forms

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Rule is the client-side validation rule set of one field.
type Rule struct {
	Kind     schema.RuleKind
	Required bool

	// string
	MinLength *int
	MaxLength *int
	Pattern   string
	Format    string // "email", "url" or empty

	// number
	Min *float64
	Max *float64

	// enum and array
	Options  []string
	MinItems *int
	MaxItems *int
}

// RuleFor derives the rule of an attachment from its field type and
// overrides.
func RuleFor(of schema.ObjectField) Rule {
	var t schema.FieldType
	if of.Field != nil {
		t = of.Field.Type
	}
	r := Rule{Kind: t.Rule(), Required: of.IsRequired}
	v := of.FieldOverrides.Validation
	if v == nil {
		v = &schema.ValidationRules{}
	}
	switch r.Kind {
	case schema.RuleString:
		r.MinLength, r.MaxLength, r.Pattern = v.MinLength, v.MaxLength, v.Pattern
		switch t {
		case schema.FieldTypeEmail:
			r.Format = "email"
		case schema.FieldTypeURL:
			r.Format = "url"
		}
	case schema.RuleNumber:
		r.Min, r.Max = v.Min, v.Max
	case schema.RuleEnum:
		r.Options = slices.Clone(of.FieldOverrides.Options)
	case schema.RuleArray:
		r.Options = slices.Clone(of.FieldOverrides.Options)
		r.MinItems, r.MaxItems = v.MinItems, v.MaxItems
	}
	return r
}

// Validate checks values against every editable control and returns one
// error per failing field, in form order.
func (f Form) Validate(values map[string]any) []schema.FieldError {
	var errs []schema.FieldError
	for _, c := range f.Controls {
		if c.Readonly {
			continue
		}
		if msg := c.Rule.Check(values[c.FieldID]); msg != "" {
			errs = append(errs, schema.FieldError{Field: c.FieldID, Message: msg})
		}
	}
	return errs
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// Check returns the first violated constraint as a message, or "".
// Optional fields accept nil and "".
func (r Rule) Check(v any) string {
	if isEmpty(v) {
		if r.Required {
			return "This field is required"
		}
		return ""
	}
	switch r.Kind {
	case schema.RuleString:
		return r.checkString(v)
	case schema.RuleNumber:
		return r.checkNumber(v)
	case schema.RuleEnum:
		return r.checkEnum(v)
	case schema.RuleArray:
		return r.checkArray(v)
	}
	return ""
}

func (r Rule) checkString(v any) string {
	s, ok := v.(string)
	if !ok {
		return "Must be text"
	}
	if r.MinLength != nil && validate.Var(s, "min="+strconv.Itoa(*r.MinLength)) != nil {
		return fmt.Sprintf("Must be at least %d characters", *r.MinLength)
	}
	if r.MaxLength != nil && validate.Var(s, "max="+strconv.Itoa(*r.MaxLength)) != nil {
		return fmt.Sprintf("Must be at most %d characters", *r.MaxLength)
	}
	switch r.Format {
	case "email":
		if validate.Var(s, "email") != nil {
			return "Invalid email address"
		}
	case "url":
		if validate.Var(s, "url") != nil {
			return "Invalid URL"
		}
	}
	if r.Pattern != "" {
		// An unparsable pattern is a configuration problem, not the user's.
		if re, err := regexp.Compile(r.Pattern); err == nil && !re.MatchString(s) {
			return "Invalid format"
		}
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func (r Rule) checkNumber(v any) string {
	n, ok := toFloat(v)
	if !ok {
		return "Must be a number"
	}
	if r.Min != nil && n < *r.Min {
		return "Must be at least " + strconv.FormatFloat(*r.Min, 'f', -1, 64)
	}
	if r.Max != nil && n > *r.Max {
		return "Must be at most " + strconv.FormatFloat(*r.Max, 'f', -1, 64)
	}
	return ""
}

func (r Rule) checkEnum(v any) string {
	s, ok := v.(string)
	if !ok {
		return "Select a valid option"
	}
	if len(r.Options) > 0 && !slices.Contains(r.Options, s) {
		return "Select a valid option"
	}
	return ""
}

func toStrings(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			s, ok := it.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func (r Rule) checkArray(v any) string {
	items, ok := toStrings(v)
	if !ok {
		return "Select a valid option"
	}
	if len(items) == 0 && r.Required {
		return "This field is required"
	}
	if r.MinItems != nil && len(items) < *r.MinItems {
		return fmt.Sprintf("Select at least %d", *r.MinItems)
	}
	if r.MaxItems != nil && len(items) > *r.MaxItems {
		return fmt.Sprintf("Select at most %d", *r.MaxItems)
	}
	if len(r.Options) > 0 {
		for _, it := range items {
			if !slices.Contains(r.Options, it) {
				return "Select a valid option"
			}
		}
	}
	return ""
}
