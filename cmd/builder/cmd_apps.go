package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/celerix-builder/internal/features"
	"github.com/celerix-dev/celerix-builder/internal/nav"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

var (
	appLabel    string
	appTemplate string
	appDesc     string
)

var appsCmd = &cobra.Command{
	Use:     "apps",
	Aliases: []string{"applications"},
	Short:   "Build, configure and publish applications",
}

var appsListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List applications",
	Annotations: map[string]string{routeKey: nav.Applications},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		apps, err := a.applications(cmd.Context())
		if err != nil {
			return a.fail(err)
		}
		page := features.ApplicationList(apps, features.ListQuery{Search: listSearch, Chip: listChip, Page: listPage, PageSize: a.cfg.Display.PageSize})
		if jsonOut {
			a.printJSON(page.Items)
			return nil
		}
		rows := make([][]string, 0, len(page.Items))
		for _, app := range page.Items {
			rows = append(rows, []string{app.Name, app.Label, a.styles.Pills([]string{features.Status(app)}), app.Description})
		}
		a.printGrid("Applications", []string{"Name", "Label", "Status", "Description"}, rows)
		if len(rows) > 0 {
			a.printFooter(page.Page, page.TotalPages, page.Total)
		}
		return nil
	},
}

var appsTemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List application templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		tpls := features.Templates()
		if jsonOut {
			a.printJSON(tpls)
			return nil
		}
		rows := make([][]string, 0, len(tpls))
		for _, t := range tpls {
			rows = append(rows, []string{t.Name, t.Label, a.styles.Pills(t.Config.Features), t.Description})
		}
		a.printGrid("Templates", []string{"Name", "Label", "Features", "Description"}, rows)
		return nil
	},
}

var appsCreateCmd = &cobra.Command{
	Use:         "create <name>",
	Short:       "Create a draft application from a template",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeKey: nav.Applications},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		in, err := features.NewApplication(args[0], appLabel, appTemplate)
		if err != nil {
			return a.fail(err)
		}
		if cmd.Flags().Changed("description") {
			in.Description = appDesc
		}
		app, err := features.CreateApplication(cmd.Context(), a.client.Applications(), in)
		if err != nil {
			return a.fail(err)
		}
		a.ok("Created draft application %s.", app.Name)
		return nil
	},
}

var appsPublishCmd = &cobra.Command{
	Use:         "publish <app>",
	Short:       "Publish a draft application",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeKey: nav.Applications},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		app, err := a.findApplication(cmd.Context(), args[0])
		if err != nil {
			return a.fail(err)
		}
		app, err = features.Publish(cmd.Context(), a.client.Applications(), app)
		if err != nil {
			return a.fail(err)
		}
		a.ok("Published %s. Open it with 'builder apps runtime %s'.", app.Name, app.Name)
		return nil
	},
}

var appsConfigCmd = &cobra.Command{
	Use:   "set-config <app> <json|@file>",
	Short: "Replace an application's config",
	Long: `Replaces the config of an application. The value is a JSON object, or
@path to read it from a file. The config is validated before it is sent.`,
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{routeKey: nav.Applications},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		text := args[1]
		if path, ok := strings.CutPrefix(text, "@"); ok {
			b, err := os.ReadFile(path)
			if err != nil {
				return a.fail(fmt.Errorf("read config: %w", err))
			}
			text = string(b)
		}
		app, err := a.findApplication(cmd.Context(), args[0])
		if err != nil {
			return a.fail(err)
		}
		if _, err := features.SetConfig(cmd.Context(), a.client.Applications(), app.ID, text); err != nil {
			return a.fail(err)
		}
		a.ok("Saved config of %s.", app.Name)
		return nil
	},
}

var appsDeleteCmd = &cobra.Command{
	Use:         "delete <app>",
	Short:       "Delete an application; its objects stay",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeKey: nav.Applications},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		app, err := a.findApplication(cmd.Context(), args[0])
		if err != nil {
			return a.fail(err)
		}
		if err := a.confirm(cmd.Context(), "delete application "+app.Name, func(ctx context.Context) error {
			return a.client.Applications().Delete(ctx, app.ID)
		}); err != nil {
			return err
		}
		a.ok("Deleted application %s.", app.Name)
		return nil
	},
}

var appsRuntimeCmd = &cobra.Command{
	Use:         "runtime [app]",
	Short:       "Show published applications or the objects of one",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{routeKey: nav.AppRuntime},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		apps, err := a.applications(ctx)
		if err != nil {
			return a.fail(err)
		}

		current := nav.Applications
		var app schema.Application
		if len(args) == 1 {
			if app, err = a.findApplication(ctx, args[0]); err != nil {
				return a.fail(err)
			}
			current = nav.Path(nav.AppRuntime, app.ID)
		}

		items := nav.Sidebar(nav.Runtime, apps, current)
		if !jsonOut {
			entries := make([]string, 0, len(items))
			for _, it := range items {
				if it.Active {
					entries = append(entries, a.styles.Bold.Render("▸ "+it.Label))
				} else {
					entries = append(entries, a.styles.Muted.Render("  "+it.Label))
				}
			}
			fmt.Fprintln(a.out, strings.Join(entries, "\n"))
		}
		if len(args) == 0 {
			if jsonOut {
				a.printJSON(items)
			}
			return nil
		}

		objs, err := a.objects(ctx)
		if err != nil {
			return a.fail(err)
		}
		runtime, err := features.RuntimeObjects(app, objs)
		if err != nil {
			return a.fail(err)
		}
		if jsonOut {
			a.printJSON(map[string]any{"application": app, "objects": runtime})
			return nil
		}
		if !app.Published() {
			fmt.Fprintln(a.out, a.styles.Notice("Draft: publish it to make it available."))
		}
		rows := make([][]string, 0, len(runtime))
		for _, o := range runtime {
			rows = append(rows, []string{o.Name, o.PluralName, string(o.Category)})
		}
		a.printGrid(app.Label, []string{"Object", "Plural", "Category"}, rows)
		return nil
	},
}

func init() {
	addListFlags(appsListCmd, "status")

	appsCreateCmd.Flags().StringVar(&appLabel, "label", "", "display label")
	appsCreateCmd.Flags().StringVar(&appTemplate, "template", "blank", "template name (see 'builder apps templates')")
	appsCreateCmd.Flags().StringVar(&appDesc, "description", "", "description (default: the template's)")

	addYesFlag(appsDeleteCmd)
	appsCmd.AddCommand(appsListCmd, appsTemplatesCmd, appsCreateCmd, appsPublishCmd, appsConfigCmd, appsDeleteCmd, appsRuntimeCmd)
	rootCmd.AddCommand(appsCmd)
}
