package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/celerix-builder/internal/features"
	"github.com/celerix-dev/celerix-builder/internal/nav"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

var (
	listSearch string
	listChip   string
	listPage   int

	fieldIn     schema.FieldCreate
	fieldType   string
	objectIn    schema.ObjectCreate
	objCategory string
	confirmName string
)

func addListFlags(cmd *cobra.Command, chip string) {
	cmd.Flags().StringVarP(&listSearch, "search", "s", "", "case-insensitive search")
	cmd.Flags().StringVar(&listChip, chip, "", "filter by "+chip)
	cmd.Flags().IntVar(&listPage, "page", 1, "page number")
}

// --- Fields ---

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Manage the reusable field catalogue",
}

var fieldsListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List fields",
	Annotations: map[string]string{routeKey: nav.Fields},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		all, err := a.fields(cmd.Context())
		if err != nil {
			return a.fail(err)
		}
		page := features.FieldList(all, features.ListQuery{Search: listSearch, Chip: listChip, Page: listPage, PageSize: a.cfg.Display.PageSize})
		if jsonOut {
			a.printJSON(page.Items)
			return nil
		}
		rows := make([][]string, 0, len(page.Items))
		for _, f := range page.Items {
			name := f.Name
			if f.IsSystemField {
				name += " " + a.styles.Pills([]string{"system"})
			}
			rows = append(rows, []string{name, f.Label, a.styles.Pills([]string{string(f.Type)}), f.Category, f.ID})
		}
		a.printGrid("Fields", []string{"Name", "Label", "Type", "Category", "ID"}, rows)
		a.printFooter(page.Page, page.TotalPages, page.Total)
		if chips := features.FieldChips(all); len(chips) > 0 {
			fmt.Fprintln(a.out, a.styles.Muted.Render("Types: ")+a.styles.Pills(chips))
		}
		return nil
	},
}

var fieldsCreateCmd = &cobra.Command{
	Use:         "create",
	Short:       "Create a field",
	Annotations: map[string]string{routeKey: nav.Fields},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		in := fieldIn
		in.Type = schema.FieldType(fieldType)
		f, err := features.CreateField(cmd.Context(), a.client.Fields(), in)
		if err != nil {
			return a.fail(err)
		}
		a.ok("Created field %s (%s).", f.Name, f.ID)
		return nil
	},
}

var fieldsUpdateCmd = &cobra.Command{
	Use:         "update <field>",
	Short:       "Change a field's label, category or description",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeKey: nav.Fields},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		f, err := a.findField(cmd.Context(), args[0])
		if err != nil {
			return a.fail(err)
		}
		var in schema.FieldUpdate
		if cmd.Flags().Changed("label") {
			in.Label = ptr(fieldIn.Label)
		}
		if cmd.Flags().Changed("category") {
			in.Category = ptr(fieldIn.Category)
		}
		if cmd.Flags().Changed("description") {
			in.Description = ptr(fieldIn.Description)
		}
		if cmd.Flags().Changed("global") {
			in.IsGlobal = ptr(fieldIn.IsGlobal)
		}
		if _, err := features.UpdateField(cmd.Context(), a.client.Fields(), f, in); err != nil {
			return a.fail(err)
		}
		a.ok("Updated field %s.", f.Name)
		return nil
	},
}

var fieldsDeleteCmd = &cobra.Command{
	Use:         "delete <field>",
	Short:       "Delete a field and its attachments",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeKey: nav.Fields},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		f, err := a.findField(cmd.Context(), args[0])
		if err != nil {
			return a.fail(err)
		}
		if err := a.confirm(cmd.Context(), "delete field "+f.Name, func(ctx context.Context) error {
			return features.DeleteField(ctx, a.client.Fields(), f)
		}); err != nil {
			return err
		}
		a.ok("Deleted field %s.", f.Name)
		return nil
	},
}

// --- Objects ---

var objectsCmd = &cobra.Command{
	Use:   "objects",
	Short: "Manage object definitions",
}

var objectsListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List objects",
	Annotations: map[string]string{routeKey: nav.Objects},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		all, err := a.objects(cmd.Context())
		if err != nil {
			return a.fail(err)
		}
		page := features.ObjectList(all, features.ListQuery{Search: listSearch, Chip: listChip, Page: listPage, PageSize: a.cfg.Display.PageSize})
		if jsonOut {
			a.printJSON(page.Items)
			return nil
		}
		rows := make([][]string, 0, len(page.Items))
		for _, o := range page.Items {
			rows = append(rows, []string{o.Name, o.Label, o.PluralName, a.styles.Pills([]string{string(o.Category)}), o.ID})
		}
		a.printGrid("Objects", []string{"Name", "Label", "Plural", "Category", "ID"}, rows)
		a.printFooter(page.Page, page.TotalPages, page.Total)
		return nil
	},
}

var objectsCreateCmd = &cobra.Command{
	Use:         "create",
	Short:       "Create an object",
	Long:        "Creates an object. A blank --plural is derived from --label.",
	Annotations: map[string]string{routeKey: nav.Objects},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		in := objectIn
		in.Category = schema.ObjectCategory(objCategory)
		o, err := features.CreateObject(cmd.Context(), a.client.Objects(), in)
		if err != nil {
			return a.fail(err)
		}
		a.ok("Created object %s (%s), plural %q.", o.Name, o.ID, o.PluralName)
		return nil
	},
}

var objectsUpdateCmd = &cobra.Command{
	Use:         "update <object>",
	Short:       "Change an object's labels or description",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeKey: nav.ObjectDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		o, err := a.findObject(cmd.Context(), args[0])
		if err != nil {
			return a.fail(err)
		}
		var in schema.ObjectUpdate
		if cmd.Flags().Changed("label") {
			in.Label = ptr(objectIn.Label)
		}
		if cmd.Flags().Changed("plural") {
			in.PluralName = ptr(objectIn.PluralName)
		}
		if cmd.Flags().Changed("description") {
			in.Description = ptr(objectIn.Description)
		}
		if cmd.Flags().Changed("category") {
			in.Category = ptr(schema.ObjectCategory(objCategory))
		}
		if _, err := features.UpdateObject(cmd.Context(), a.client.Objects(), o, in); err != nil {
			return a.fail(err)
		}
		a.ok("Updated object %s.", o.Name)
		return nil
	},
}

var objectsDeleteCmd = &cobra.Command{
	Use:   "delete <object>",
	Short: "Delete an object with its records, attachments and relationships",
	Long: `Deletes an object. The object's exact name must be typed with --confirm;
deleting also removes every record, attachment and relationship of it.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeKey: nav.ObjectDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		o, err := a.findObject(cmd.Context(), args[0])
		if err != nil {
			return a.fail(err)
		}
		confirm := features.NewDeleteConfirmation(o.Name)
		confirm.Type(confirmName)
		if !confirm.Enabled() {
			return a.fail(fmt.Errorf("%w: pass --confirm %s", features.ErrNotConfirmed, o.Name))
		}
		if err := features.DeleteObject(cmd.Context(), a.client.Objects(), o, confirm); err != nil {
			return a.fail(err)
		}
		a.ok("Deleted object %s.", o.Name)
		return nil
	},
}

var objectsShowCmd = &cobra.Command{
	Use:         "show <object>",
	Short:       "Show an object with its attached and available fields",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeKey: nav.ObjectDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		objs, err := a.objects(ctx)
		if err != nil {
			return a.fail(err)
		}
		o, err := a.findObject(ctx, args[0])
		if err != nil {
			return a.fail(err)
		}
		b, err := a.board(ctx, o.ID)
		if err != nil {
			return a.fail(err)
		}
		if jsonOut {
			a.printJSON(map[string]any{"object": o, "attached": b.Attached(), "available": b.Available()})
			return nil
		}

		a.printCrumbs(nav.Path(nav.ObjectDetail, o.ID), objectName(objs))
		if features.EditGate(o) != nil {
			fmt.Fprintln(a.out, a.styles.Notice("System object: read-only."))
		}

		rows := [][]string{}
		for _, of := range b.Attached() {
			label := of.FieldID
			if of.Field != nil {
				label = of.Field.Label
			}
			flags := []string{}
			for name, on := range map[string]bool{"required": of.IsRequired, "readonly": of.IsReadonly, "primary": of.IsPrimary} {
				if on {
					flags = append(flags, name)
				}
			}
			rows = append(rows, []string{fmt.Sprint(of.DisplayOrder), label, yesNo(of.IsVisible), a.styles.Pills(slices.Sorted(slices.Values(flags))), of.ID})
		}
		a.printGrid("Attached fields", []string{"#", "Field", "Visible", "Flags", "Attachment"}, rows)

		avail := [][]string{}
		for _, f := range b.Available() {
			avail = append(avail, []string{f.Name, f.Label, string(f.Type)})
		}
		a.printGrid("Available fields", []string{"Name", "Label", "Type"}, avail)
		return nil
	},
}

func init() {
	addListFlags(fieldsListCmd, "type")
	for _, c := range []*cobra.Command{fieldsCreateCmd, fieldsUpdateCmd} {
		c.Flags().StringVar(&fieldIn.Label, "label", "", "display label")
		c.Flags().StringVar(&fieldIn.Category, "category", "", "category")
		c.Flags().StringVar(&fieldIn.Description, "description", "", "description")
		c.Flags().BoolVar(&fieldIn.IsGlobal, "global", false, "available to every object")
	}
	fieldsCreateCmd.Flags().StringVar(&fieldIn.Name, "name", "", "API name (letters, digits, underscores)")
	fieldsCreateCmd.Flags().StringVar(&fieldType, "type", "", "field type, e.g. text, email, select")
	addYesFlag(fieldsDeleteCmd)
	fieldsCmd.AddCommand(fieldsListCmd, fieldsCreateCmd, fieldsUpdateCmd, fieldsDeleteCmd)

	addListFlags(objectsListCmd, "category")
	for _, c := range []*cobra.Command{objectsCreateCmd, objectsUpdateCmd} {
		c.Flags().StringVar(&objectIn.Label, "label", "", "display label")
		c.Flags().StringVar(&objectIn.PluralName, "plural", "", "plural label")
		c.Flags().StringVar(&objectIn.Description, "description", "", "description")
		c.Flags().StringVar(&objCategory, "category", "", "standard or custom")
	}
	objectsCreateCmd.Flags().StringVar(&objectIn.Name, "name", "", "API name (letters, digits, underscores)")
	objectsCreateCmd.Flags().StringVar(&objectIn.Icon, "icon", "", "icon name")
	objectsCreateCmd.Flags().StringVar(&objectIn.Color, "color", "", "color")
	objectsDeleteCmd.Flags().StringVar(&confirmName, "confirm", "", "type the object name to confirm")
	objectsCmd.AddCommand(objectsListCmd, objectsCreateCmd, objectsUpdateCmd, objectsDeleteCmd, objectsShowCmd)

	rootCmd.AddCommand(fieldsCmd, objectsCmd)
}
