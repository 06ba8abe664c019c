package forms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

var (
	ErrUnknownField = errors.New("field is not on this form")
	ErrUnsupported  = errors.New("field type is not supported")
)

var dateTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04"}

// Coerce turns terminal input into the value a record stores for the
// field. Blank input becomes nil, except for multi-choice fields which
// become an empty selection.
func (f Form) Coerce(fieldID, raw string) (any, error) {
	c, ok := f.Control(fieldID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, fieldID)
	}
	if !c.Supported() {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupported, c.Name, c.Type)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if c.Kind == schema.InputMultiChoice {
			return []string{}, nil
		}
		return nil, nil
	}

	switch c.Kind {
	case schema.InputNumeric:
		cleaned := strings.NewReplacer(",", "", "%", "", "$", "", "€", "", "£", "").Replace(raw)
		n, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", c.Name, raw)
		}
		return n, nil
	case schema.InputBoolean:
		switch strings.ToLower(raw) {
		case "y", "yes", "on":
			return true, nil
		case "n", "no", "off":
			return false, nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not yes or no", c.Name, raw)
		}
		return b, nil
	case schema.InputDate:
		if c.Type == schema.FieldTypeDate {
			if _, err := time.Parse(time.DateOnly, raw); err != nil {
				return nil, fmt.Errorf("%s: %q is not a date (YYYY-MM-DD)", c.Name, raw)
			}
			return raw, nil
		}
		for _, layout := range dateTimeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.Format(time.RFC3339), nil
			}
		}
		return nil, fmt.Errorf("%s: %q is not a date and time", c.Name, raw)
	case schema.InputMultiChoice:
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	}
	return raw, nil
}
