package table

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

func usFormat() Format {
	f := NewFormat("en-US", "USD")
	f.Location = time.UTC
	return f
}

func TestEmptyValuesRenderPlaceholder(t *testing.T) {
	types := append(schema.AllFieldTypes(), schema.FieldType("unknown"))
	record := schema.DataRecord{Data: map[string]any{"nil": nil, "blank": ""}}
	for _, ft := range types {
		for _, key := range []string{"nil", "blank", "missing"} {
			c := FormatCell(ft, record.Data[key], true, usFormat())
			if c.Text != Placeholder || !c.Empty {
				t.Errorf("%s/%s: got %q", ft, key, c.Text)
			}
		}
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name    string
		typ     schema.FieldType
		value   any
		primary bool
		want    Cell
	}{
		{"primary text", schema.FieldTypeText, "Acme", true, Cell{Kind: schema.CellText, Text: "Acme", Bold: true}},
		{"email", schema.FieldTypeEmail, "a@b.co", false, Cell{Kind: schema.CellEmail, Text: "a@b.co", Link: "mailto:a@b.co"}},
		{"phone", schema.FieldTypePhone, "+1 555", false, Cell{Kind: schema.CellPhone, Text: "+1 555", Link: "tel:+1 555"}},
		{"url", schema.FieldTypeURL, "https://x.io", false, Cell{Kind: schema.CellURL, Text: "https://x.io", Link: "https://x.io"}},
		{"checked", schema.FieldTypeCheckbox, true, false, Cell{Kind: schema.CellCheckbox, Text: "✓"}},
		{"unchecked", schema.FieldTypeCheckbox, false, false, Cell{Kind: schema.CellCheckbox, Text: "✗"}},
		{"date", schema.FieldTypeDate, "2024-03-05", false, Cell{Kind: schema.CellDate, Text: "Mar 5, 2024"}},
		{"datetime", schema.FieldTypeDateTime, "2024-03-05T14:30:00Z", false, Cell{Kind: schema.CellDateTime, Text: "Mar 5, 2024, 2:30 PM"}},
		{"unparsable date", schema.FieldTypeDate, "someday", false, Cell{Kind: schema.CellDate, Text: "someday"}},
		{"select", schema.FieldTypeSelect, "open", false, Cell{Kind: schema.CellBadge, Text: "open", Badges: []string{"open"}}},
		{"multiselect", schema.FieldTypeMultiselect, []any{"a", "b"}, false, Cell{Kind: schema.CellBadges, Text: "a, b", Badges: []string{"a", "b"}}},
		{"number", schema.FieldTypeNumber, 1234567.0, false, Cell{Kind: schema.CellNumber, Text: "1,234,567"}},
		{"percentage", schema.FieldTypePercentage, 12.5, false, Cell{Kind: schema.CellPercentage, Text: "12.5%"}},
		{"currency", schema.FieldTypeCurrency, 1234.5, false, Cell{Kind: schema.CellCurrency, Text: "$1,234.50"}},
		{"negative currency", schema.FieldTypeCurrency, "-5", false, Cell{Kind: schema.CellCurrency, Text: "-$5.00"}},
		{"non-numeric number", schema.FieldTypeNumber, "n/a", false, Cell{Kind: schema.CellNumber, Text: "n/a"}},
		{"unknown type", schema.FieldType("geo"), "1,2", true, Cell{Kind: schema.CellText, Text: "1,2", Bold: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCell(tt.typ, tt.value, tt.primary, usFormat()))
		})
	}
}

func TestLongTextIsTruncated(t *testing.T) {
	long := ""
	for i := 0; i < 60; i++ {
		long += "x"
	}
	c := FormatCell(schema.FieldTypeTextarea, long, false, usFormat())
	assert.Equal(t, long, c.Title)
	assert.Equal(t, LongTextLimit+1, len([]rune(c.Text)))

	short := FormatCell(schema.FieldTypeTextarea, "short", false, usFormat())
	assert.Empty(t, short.Title)
}

func TestCurrencyWithoutMinorUnits(t *testing.T) {
	c := FormatCell(schema.FieldTypeCurrency, 1234, false, NewFormat("en-US", "JPY"))
	assert.Equal(t, "¥1,234", c.Text)
}

func TestCurrencyFollowsLocale(t *testing.T) {
	c := FormatCell(schema.FieldTypeCurrency, 1234.5, false, NewFormat("ja-JP", "JPY"))
	assert.True(t, strings.HasSuffix(c.Text, "1,235"), c.Text)
	assert.NotContains(t, c.Text, " ")
	assert.False(t, strings.HasPrefix(c.Text, "JPY"), c.Text)

	// Half away from zero, not half to even.
	assert.Equal(t, "$0.13", FormatCell(schema.FieldTypeCurrency, 0.125, false, usFormat()).Text)
	assert.Equal(t, "-$2.50", FormatCell(schema.FieldTypeCurrency, -2.5, false, usFormat()).Text)
	assert.Equal(t, "$0.00", FormatCell(schema.FieldTypeCurrency, -0.001, false, usFormat()).Text)
}

func TestDatesFollowLocale(t *testing.T) {
	tests := []struct {
		locale   string
		date     string
		dateTime string
	}{
		{"en-US", "Mar 5, 2024", "Mar 5, 2024, 2:30 PM"},
		{"en-GB", "5 Mar 2024", "5 Mar 2024, 14:30"},
		{"de-DE", "05.03.2024", "05.03.2024 14:30"},
		{"fr-FR", "05/03/2024", "05/03/2024 14:30"},
		{"ja-JP", "2024/03/05", "2024/03/05 14:30"},
		{"sv-SE", "2024-03-05", "2024-03-05 14:30"},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			f := NewFormat(tt.locale, "EUR")
			f.Location = time.UTC
			assert.Equal(t, tt.date, FormatCell(schema.FieldTypeDate, "2024-03-05", false, f).Text)
			assert.Equal(t, tt.dateTime, FormatCell(schema.FieldTypeDateTime, "2024-03-05T14:30:00Z", false, f).Text)
		})
	}
}

func attachments() []schema.ObjectField {
	return []schema.ObjectField{
		{FieldID: "amount", IsVisible: true, DisplayOrder: 2, Field: &schema.Field{Label: "Amount", Type: schema.FieldTypeCurrency}},
		{FieldID: "name", IsVisible: true, IsPrimary: true, DisplayOrder: 0, Field: &schema.Field{Label: "Name", Type: schema.FieldTypeText}},
		{FieldID: "secret", IsVisible: false, DisplayOrder: 1, Field: &schema.Field{Label: "Secret", Type: schema.FieldTypeText}},
		{FieldID: "stale", IsVisible: true, DisplayOrder: 1},
	}
}

func TestColumns(t *testing.T) {
	cols := Columns(attachments(), Actions{View: true, Delete: true})
	require.Len(t, cols, 3)
	assert.Equal(t, "name", cols[0].ID)
	assert.True(t, cols[0].Primary)
	assert.Equal(t, "amount", cols[1].ID)
	assert.Equal(t, ActionsColumnID, cols[2].ID)
	assert.True(t, cols[2].Actions.Delete)
	assert.False(t, cols[2].Actions.Edit)

	assert.Len(t, Columns(attachments(), Actions{}), 2)
}

func TestRowsFilterSortPaginate(t *testing.T) {
	tbl := New(attachments(), Actions{Edit: true}, usFormat())
	records := []schema.DataRecord{
		{ID: "1", Data: map[string]any{"name": "Globex", "amount": 50.0}},
		{ID: "2", Data: map[string]any{"name": "acme", "amount": 1500.0}},
		{ID: "3", Data: map[string]any{"name": "Initech"}},
		{ID: "4", Data: map[string]any{"name": "Acme West", "amount": 10.0}},
	}

	page := tbl.Rows(records, Query{Search: "ACME"})
	require.Equal(t, 2, page.Total)
	assert.Equal(t, "2", page.Items[0].Record.ID)

	page = tbl.Rows(records, Query{Search: "1,500"})
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "$1,500.00", page.Items[0].Cells[1].Text)

	page = tbl.Rows(records, Query{SortBy: "amount", Desc: true})
	var ids []string
	for _, r := range page.Items {
		ids = append(ids, r.Record.ID)
	}
	assert.Equal(t, []string{"2", "1", "4", "3"}, ids)

	page = tbl.Rows(records, Query{SortBy: "name", Page: 2, PageSize: 3})
	require.Len(t, page.Items, 1)
	assert.Equal(t, "3", page.Items[0].Record.ID)
	assert.Equal(t, 2, page.TotalPages)
}
