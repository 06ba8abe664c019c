package table

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/celerix-dev/celerix-builder/internal/listing"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

// ActionsColumnID is the id of the trailing actions column.
const ActionsColumnID = "actions"

// Actions selects which row actions a table offers.
type Actions struct {
	View   bool
	Edit   bool
	Delete bool
}

func (a Actions) Any() bool { return a.View || a.Edit || a.Delete }

// Column is one table column. Field columns read record.Data[FieldID].
type Column struct {
	ID      string
	Header  string
	FieldID string
	Type    schema.FieldType
	Primary bool
	Actions *Actions
}

// Columns builds one column per visible resolved attachment, ordered by
// display_order, plus an actions column when any action is enabled.
func Columns(attachments []schema.ObjectField, actions Actions) []Column {
	visible := make([]schema.ObjectField, 0, len(attachments))
	for _, of := range attachments {
		if of.IsVisible && of.Field != nil {
			visible = append(visible, of)
		}
	}
	slices.SortStableFunc(visible, func(a, b schema.ObjectField) int {
		return a.DisplayOrder - b.DisplayOrder
	})

	cols := make([]Column, 0, len(visible)+1)
	for _, of := range visible {
		cols = append(cols, Column{
			ID:      of.FieldID,
			Header:  of.Field.Label,
			FieldID: of.FieldID,
			Type:    of.Field.Type,
			Primary: of.IsPrimary,
		})
	}
	if actions.Any() {
		a := actions
		cols = append(cols, Column{ID: ActionsColumnID, Header: "Actions", Actions: &a})
	}
	return cols
}

// Row is one record with its formatted cells, aligned with the field
// columns.
type Row struct {
	Record schema.DataRecord
	Cells  []Cell
}

// Query is the table state: global filter, sort column and page.
type Query struct {
	Search   string
	SortBy   string
	Desc     bool
	Page     int
	PageSize int
}

// Table formats records for a fixed set of columns.
type Table struct {
	Columns []Column
	Format  Format
}

func New(attachments []schema.ObjectField, actions Actions, f Format) Table {
	return Table{Columns: Columns(attachments, actions), Format: f}
}

// FieldColumns returns the columns without the actions column.
func (t Table) FieldColumns() []Column {
	out := make([]Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Actions == nil {
			out = append(out, c)
		}
	}
	return out
}

// Row formats one record.
func (t Table) Row(r schema.DataRecord) Row {
	cols := t.FieldColumns()
	cells := make([]Cell, 0, len(cols))
	for _, c := range cols {
		cells = append(cells, FormatCell(c.Type, r.Data[c.FieldID], c.Primary, t.Format))
	}
	return Row{Record: r, Cells: cells}
}

// Rows filters, sorts and paginates records. The filter matches rendered
// cell text, case-insensitively.
func (t Table) Rows(records []schema.DataRecord, q Query) listing.Page[Row] {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, t.Row(r))
	}

	rows = listing.Search(rows, q.Search, func(r Row) []string {
		texts := make([]string, 0, len(r.Cells))
		for _, c := range r.Cells {
			if !c.Empty {
				texts = append(texts, c.Text)
			}
		}
		return texts
	})

	if idx := t.columnIndex(q.SortBy); idx >= 0 {
		col := t.FieldColumns()[idx]
		switch col.Type.Cell() {
		case schema.CellNumber, schema.CellCurrency, schema.CellPercentage:
			rows = listing.SortBy(rows, func(r Row) float64 {
				if n, ok := toFloat(r.Record.Data[col.FieldID]); ok {
					return n
				}
				return math.Inf(-1)
			}, q.Desc)
		case schema.CellDate, schema.CellDateTime:
			rows = listing.SortBy(rows, func(r Row) string {
				if ts, ok := parseTime(fmt.Sprint(r.Record.Data[col.FieldID])); ok {
					return ts.UTC().Format(time.RFC3339)
				}
				return ""
			}, q.Desc)
		default:
			rows = listing.SortBy(rows, func(r Row) string {
				if r.Cells[idx].Empty {
					return ""
				}
				return strings.ToLower(r.Cells[idx].Text)
			}, q.Desc)
		}
	}

	return listing.Paginate(rows, q.Page, q.PageSize)
}

func (t Table) columnIndex(id string) int {
	if id == "" {
		return -1
	}
	for i, c := range t.FieldColumns() {
		if c.ID == id {
			return i
		}
	}
	return -1
}
