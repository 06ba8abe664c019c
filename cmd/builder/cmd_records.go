package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/celerix-builder/internal/features"
	"github.com/celerix-dev/celerix-builder/internal/forms"
	"github.com/celerix-dev/celerix-builder/internal/nav"
	"github.com/celerix-dev/celerix-builder/internal/table"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

var (
	recordSort    string
	recordDesc    bool
	recordShowIDs bool
	recordSet     []string
)

// recordForm loads the object's attachments and builds the record form.
func (a *app) recordForm(ctx context.Context, ref string) (schema.Object, []schema.ObjectField, forms.Form, error) {
	o, err := a.findObject(ctx, ref)
	if err != nil {
		return schema.Object{}, nil, forms.Form{}, err
	}
	ofs, err := a.attachments(ctx, o.ID)
	if err != nil {
		return schema.Object{}, nil, forms.Form{}, err
	}
	return o, ofs, forms.Build(ofs), nil
}

// parseSets turns name=value pairs into record values. The name may be a
// field name or a field id.
func parseSets(form forms.Form, pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, raw, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("expected name=value, got %q", p)
		}
		id := ""
		for _, c := range form.Controls {
			if c.FieldID == name || strings.EqualFold(c.Name, name) {
				id = c.FieldID
				break
			}
		}
		if id == "" {
			return nil, fmt.Errorf("%w: %s", forms.ErrUnknownField, name)
		}
		v, err := form.Coerce(id, raw)
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

// sortColumn maps a field name to its column id.
func sortColumn(ofs []schema.ObjectField, name string) string {
	if name == "" {
		return ""
	}
	if of, ok := findAttachment(ofs, name); ok {
		return of.FieldID
	}
	return name
}

var recordsCmd = &cobra.Command{
	Use:     "records",
	Aliases: []string{"rec"},
	Short:   "Browse and edit the data records of an object",
}

var recordsListCmd = &cobra.Command{
	Use:         "list <object>",
	Short:       "List records as a table",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeKey: nav.ObjectDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		o, ofs, _, err := a.recordForm(ctx, args[0])
		if err != nil {
			return a.fail(err)
		}
		records, err := a.client.Records().List(ctx, sdk.RecordFilter{ObjectID: o.ID})
		if err != nil {
			return a.fail(err)
		}
		t := table.New(ofs, table.Actions{View: true, Edit: true, Delete: true}, a.format)
		page := t.Rows(records, table.Query{
			Search:   listSearch,
			SortBy:   sortColumn(ofs, recordSort),
			Desc:     recordDesc,
			Page:     listPage,
			PageSize: a.cfg.Display.PageSize,
		})
		if jsonOut {
			recs := make([]schema.DataRecord, 0, len(page.Items))
			for _, r := range page.Items {
				recs = append(recs, r.Record)
			}
			a.printJSON(recs)
			return nil
		}

		fmt.Fprintln(a.out, a.styles.Title.Render(o.PluralName))
		if len(t.FieldColumns()) == 0 {
			fmt.Fprintln(a.out, a.styles.Notice("No visible fields. Attach fields with 'builder object-fields attach'."))
			return nil
		}
		if !recordShowIDs {
			fmt.Fprintln(a.out, a.styles.RenderTable(t, page))
			return nil
		}
		headers := []string{"ID"}
		for _, c := range t.FieldColumns() {
			headers = append(headers, c.Header)
		}
		rows := make([][]string, 0, len(page.Items))
		for _, r := range page.Items {
			line := []string{r.Record.ID}
			for _, c := range r.Cells {
				line = append(line, a.styles.Cell(c))
			}
			rows = append(rows, line)
		}
		a.printGrid("", headers, rows)
		if len(rows) > 0 {
			a.printFooter(page.Page, page.TotalPages, page.Total)
		}
		return nil
	},
}

var recordsShowCmd = &cobra.Command{
	Use:         "show <object> <record-id>",
	Short:       "Show one record",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{routeKey: nav.ObjectDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		_, ofs, _, err := a.recordForm(ctx, args[0])
		if err != nil {
			return a.fail(err)
		}
		rec, err := a.client.Records().Get(ctx, args[1])
		if err != nil {
			return a.fail(err)
		}
		if jsonOut {
			a.printJSON(rec)
			return nil
		}
		t := table.New(ofs, table.Actions{}, a.format)
		row := t.Row(rec)
		rows := make([][]string, 0, len(row.Cells))
		for i, c := range t.FieldColumns() {
			rows = append(rows, []string{c.Header, a.styles.Cell(row.Cells[i])})
		}
		a.printGrid("Record "+rec.ID, []string{"Field", "Value"}, rows)
		fmt.Fprintln(a.out, a.styles.Muted.Render("Updated "+rec.UpdatedAt.Local().Format("2006-01-02 15:04")))
		return nil
	},
}

var recordsFormCmd = &cobra.Command{
	Use:         "form <object>",
	Short:       "Show the fields a record of the object takes",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeKey: nav.ObjectDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		o, _, form, err := a.recordForm(cmd.Context(), args[0])
		if err != nil {
			return a.fail(err)
		}
		if jsonOut {
			a.printJSON(form.Controls)
			return nil
		}
		fmt.Fprintln(a.out, a.styles.Title.Render("New "+o.Label))
		fmt.Fprintln(a.out, a.styles.FormControls(form))
		fmt.Fprintln(a.out, a.styles.Muted.Render("Set values with 'builder records create "+o.Name+" --set name=value'."))
		return nil
	},
}

var recordsCreateCmd = &cobra.Command{
	Use:         "create <object>",
	Short:       "Create a record from --set name=value pairs",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeKey: nav.ObjectDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		o, _, form, err := a.recordForm(ctx, args[0])
		if err != nil {
			return a.fail(err)
		}
		values := form.Initial(nil)
		set, err := parseSets(form, recordSet)
		if err != nil {
			return a.fail(err)
		}
		for k, v := range set {
			values[k] = v
		}
		rec, err := features.SaveRecord(ctx, a.client.Records(), form, o.ID, nil, values)
		if err != nil {
			return a.fail(err)
		}
		a.ok("Created %s %s.", o.Label, rec.ID)
		return nil
	},
}

var recordsUpdateCmd = &cobra.Command{
	Use:         "update <object> <record-id>",
	Short:       "Change fields of a record; unset fields keep their values",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{routeKey: nav.ObjectDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		o, _, form, err := a.recordForm(ctx, args[0])
		if err != nil {
			return a.fail(err)
		}
		rec, err := a.client.Records().Get(ctx, args[1])
		if err != nil {
			return a.fail(err)
		}
		values := form.Initial(&rec)
		set, err := parseSets(form, recordSet)
		if err != nil {
			return a.fail(err)
		}
		for k, v := range set {
			values[k] = v
		}
		if _, err := features.SaveRecord(ctx, a.client.Records(), form, o.ID, &rec, values); err != nil {
			return a.fail(err)
		}
		a.ok("Updated %s %s.", o.Label, rec.ID)
		return nil
	},
}

var recordsDeleteCmd = &cobra.Command{
	Use:         "delete <record-id>",
	Short:       "Delete a record and its links",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeKey: nav.Objects},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		if err := a.confirm(cmd.Context(), "delete record "+args[0], func(ctx context.Context) error {
			return a.client.Records().Delete(ctx, args[0])
		}); err != nil {
			return err
		}
		a.ok("Deleted record %s.", args[0])
		return nil
	},
}

func init() {
	recordsListCmd.Flags().StringVarP(&listSearch, "search", "s", "", "filter by any cell text")
	recordsListCmd.Flags().IntVar(&listPage, "page", 1, "page number")
	recordsListCmd.Flags().StringVar(&recordSort, "sort", "", "field name to sort by")
	recordsListCmd.Flags().BoolVar(&recordDesc, "desc", false, "sort descending")
	recordsListCmd.Flags().BoolVar(&recordShowIDs, "ids", false, "include record ids")

	recordsCreateCmd.Flags().StringArrayVar(&recordSet, "set", nil, "field value as name=value (repeatable)")
	recordsUpdateCmd.Flags().StringArrayVar(&recordSet, "set", nil, "field value as name=value (repeatable)")

	addYesFlag(recordsDeleteCmd)
	recordsCmd.AddCommand(recordsListCmd, recordsShowCmd, recordsFormCmd, recordsCreateCmd, recordsUpdateCmd, recordsDeleteCmd)
	rootCmd.AddCommand(recordsCmd)
}
