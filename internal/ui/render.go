package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/celerix-dev/celerix-builder/internal/forms"
	"github.com/celerix-dev/celerix-builder/internal/listing"
	builder "github.com/celerix-dev/celerix-builder/internal/table"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

// EmptyMessage is shown in place of a table with no rows.
const EmptyMessage = "No records found"

// Pills renders values as badges separated by a space.
func (s Styles) Pills(values []string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, s.Pill.Render(v))
	}
	return strings.Join(parts, " ")
}

// Cell renders one formatted value.
func (s Styles) Cell(c builder.Cell) string {
	switch {
	case c.Empty:
		return s.Muted.Render(c.Text)
	case len(c.Badges) > 0:
		return s.Pills(c.Badges)
	case c.Link != "":
		return s.Link.Render(c.Text)
	case c.Bold:
		return s.Bold.Render(c.Text)
	}
	return s.Body.Render(c.Text)
}

// Grid renders headers and string rows as a bordered table.
func (s Styles) Grid(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(s.Theme.Border)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Header
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	return t.String()
}

// RenderTable renders one page of record rows with a footer that shows
// the page position.
func (s Styles) RenderTable(t builder.Table, page listing.Page[builder.Row]) string {
	cols := t.FieldColumns()
	if len(page.Items) == 0 {
		return s.Muted.Render(EmptyMessage)
	}

	headers := make([]string, 0, len(cols))
	for _, c := range cols {
		headers = append(headers, c.Header)
	}
	rows := make([][]string, 0, len(page.Items))
	for _, r := range page.Items {
		line := make([]string, 0, len(r.Cells))
		for _, c := range r.Cells {
			line = append(line, s.Cell(c))
		}
		rows = append(rows, line)
	}

	footer := fmt.Sprintf("Page %d of %d · %d records", page.Page, page.TotalPages, page.Total)
	return s.Grid(headers, rows) + "\n" + s.Muted.Render(footer)
}

// FormControls renders a form's render list, one row per control.
// Controls of unknown types show the unsupported placeholder.
func (s Styles) FormControls(f forms.Form) string {
	if len(f.Controls) == 0 {
		return s.Muted.Render("No visible fields")
	}
	rows := make([][]string, 0, len(f.Controls))
	for _, c := range f.Controls {
		label := c.Label
		if c.Primary {
			label = s.Bold.Render(label)
		}
		if !c.Supported() {
			rows = append(rows, []string{label, c.Name, s.Warning.Render(forms.UnsupportedPlaceholder), "", ""})
			continue
		}
		var details []string
		if c.Readonly {
			details = append(details, "readonly")
		}
		if c.Placeholder != "" {
			details = append(details, s.Muted.Render(c.Placeholder))
		}
		if len(c.Options) > 0 {
			details = append(details, s.Pills(c.Options))
		}
		if c.HasDefault {
			details = append(details, fmt.Sprintf("default %v", c.Default))
		}
		req := ""
		if c.Rule.Required {
			req = "yes"
		}
		rows = append(rows, []string{label, c.Name, string(c.Kind), req, strings.Join(details, " ")})
	}
	return s.Grid([]string{"Field", "Name", "Input", "Required", "Details"}, rows)
}

// Banner renders err as a red box. Validation errors list each field.
func (s Styles) Banner(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *sdk.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Errors) == 0 {
		return s.Error.Render(err.Error())
	}
	lines := []string{apiErr.Message}
	for _, fe := range apiErr.Errors {
		lines = append(lines, "• "+fieldLine(fe))
	}
	return s.Error.Render(strings.Join(lines, "\n"))
}

func fieldLine(fe schema.FieldError) string {
	if fe.Field == "" {
		return fe.Message
	}
	return fe.Field + ": " + fe.Message
}

// Notice renders a muted informational line, such as the read-only notice
// for system entities.
func (s Styles) Notice(msg string) string {
	return s.Warning.Render(msg)
}
