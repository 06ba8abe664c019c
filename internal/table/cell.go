// Package table derives record table columns from an object's attached
// fields and formats each cell by field type.
package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

// Placeholder is the text of every empty cell.
const Placeholder = "—"

// LongTextLimit is the number of runes shown before long text is cut.
const LongTextLimit = 50

// Format carries the locale settings used for numbers, money and dates.
type Format struct {
	Locale   language.Tag
	Currency currency.Unit
	Location *time.Location
}

// NewFormat parses a BCP 47 locale and an ISO 4217 code. Unknown values
// fall back to en-US and USD.
func NewFormat(locale, code string) Format {
	f := Format{Locale: language.AmericanEnglish, Currency: currency.USD, Location: time.Local}
	if tag, err := language.Parse(locale); err == nil {
		f.Locale = tag
	}
	if unit, err := currency.ParseISO(code); err == nil {
		f.Currency = unit
	}
	return f
}

func (f Format) printer() *message.Printer {
	return message.NewPrinter(f.Locale)
}

func (f Format) location() *time.Location {
	if f.Location == nil {
		return time.Local
	}
	return f.Location
}

// Cell is one formatted value.
type Cell struct {
	Kind   schema.CellKind
	Text   string
	Empty  bool
	Bold   bool
	Link   string   // mailto:, tel: or an external URL
	Title  string   // full text when Text is truncated
	Badges []string // select and multiselect values
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}
	return false
}

// FormatCell renders value for a field of type t. Empty values render as
// Placeholder whatever the type.
func FormatCell(t schema.FieldType, value any, primary bool, f Format) Cell {
	kind := t.Cell()
	if isEmpty(value) {
		return Cell{Kind: kind, Text: Placeholder, Empty: true}
	}

	c := Cell{Kind: kind, Text: fmt.Sprint(value)}
	switch kind {
	case schema.CellText:
		c.Bold = primary
	case schema.CellEmail:
		c.Link = "mailto:" + c.Text
	case schema.CellPhone:
		c.Link = "tel:" + c.Text
	case schema.CellURL:
		c.Link = c.Text
	case schema.CellCheckbox:
		if truthy(value) {
			c.Text = "✓"
		} else {
			c.Text = "✗"
		}
	case schema.CellDate:
		if ts, ok := parseTime(c.Text); ok {
			layout, _ := f.dateLayouts()
			c.Text = ts.Format(layout)
		}
	case schema.CellDateTime:
		if ts, ok := parseTime(c.Text); ok {
			_, layout := f.dateLayouts()
			c.Text = ts.In(f.location()).Format(layout)
		}
	case schema.CellBadge:
		c.Badges = []string{c.Text}
	case schema.CellBadges:
		c.Badges = badges(value)
		c.Text = strings.Join(c.Badges, ", ")
	case schema.CellNumber:
		if n, ok := toFloat(value); ok {
			c.Text = f.printer().Sprint(number.Decimal(n))
		}
	case schema.CellPercentage:
		if n, ok := toFloat(value); ok {
			c.Text = f.printer().Sprint(number.Decimal(n)) + "%"
		}
	case schema.CellCurrency:
		if n, ok := toFloat(value); ok {
			c.Text = f.money(n)
		}
	case schema.CellLongText:
		if utf8.RuneCountInString(c.Text) > LongTextLimit {
			c.Title = c.Text
			c.Text = string([]rune(c.Text)[:LongTextLimit]) + "…"
		}
	}
	return c
}

// money formats n with the locale's symbol for the currency, rounded half
// away from zero to the currency's minor units. A symbol ending in a letter
// (an ISO code such as CHF) keeps its space; other symbols are attached.
func (f Format) money(n float64) string {
	s := f.printer().Sprint(currency.Symbol(f.Currency.Amount(math.Abs(n))))
	sym, digits, ok := strings.Cut(s, " ")
	if !ok {
		return s
	}
	if r, _ := utf8.DecodeLastRuneInString(sym); !unicode.IsLetter(r) {
		s = sym + digits
	}
	if n < 0 && strings.ContainsAny(digits, "123456789") {
		s = "-" + s
	}
	return s
}

// dateLayouts returns the date and date-time layouts for the locale.
// Locales not listed use ISO dates with a 24-hour clock.
func (f Format) dateLayouts() (date, dateTime string) {
	base, _ := f.Locale.Base()
	switch base.String() {
	case "en":
		if region, _ := f.Locale.Region(); region.String() == "US" {
			return "Jan 2, 2006", "Jan 2, 2006, 3:04 PM"
		}
		return "2 Jan 2006", "2 Jan 2006, 15:04"
	case "de", "nl", "da", "nb", "fi", "pl", "ru":
		return "02.01.2006", "02.01.2006 15:04"
	case "fr", "es", "it", "pt":
		return "02/01/2006", "02/01/2006 15:04"
	case "ja", "zh", "ko":
		return "2006/01/02", "2006/01/02 15:04"
	}
	return time.DateOnly, "2006-01-02 15:04"
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	}
	n, ok := toFloat(v)
	return ok && n != 0
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
		x, err := n.Float64()
		return x, err == nil
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return x, err == nil
	}
	return 0, false
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", time.DateOnly} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func badges(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			out = append(out, fmt.Sprint(it))
		}
		return out
	}
	return []string{fmt.Sprint(v)}
}
