package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/celerix-builder/internal/nav"
	"github.com/celerix-dev/celerix-builder/internal/seed"
	"github.com/celerix-dev/celerix-builder/internal/ui"
)

var seedCmd = &cobra.Command{
	Use:         "seed",
	Short:       "Create the demo contact object with sample records",
	Long:        `Creates the demo fields, the contact object and a few sample records. Running it again reuses what exists.`,
	Annotations: map[string]string{routeKey: nav.Dashboard},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		res, err := seed.New(a.client, logger.Named("seed")).Run(cmd.Context())
		if err != nil {
			return a.fail(err)
		}
		if jsonOut {
			a.printJSON(res)
			return nil
		}
		a.ok("Seeded %s: %d fields attached, %d sample records.", res.Object.Name, len(res.Attachments), len(res.Records))
		return nil
	},
}

var themeCmd = &cobra.Command{
	Use:       "theme [light|dark|system]",
	Short:     "Show or change the colour theme",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(ui.PreferLight), string(ui.PreferDark), string(ui.PreferSystem)},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			p, err := ui.LoadPreference(a.cfg.State.Dir, ui.Preference(a.cfg.Display.Theme))
			if err != nil {
				return a.fail(err)
			}
			shown := "light"
			if a.styles.Theme.IsDark {
				shown = "dark"
			}
			fmt.Fprintf(a.out, "%s (showing %s)\n", p, shown)
			return nil
		}
		p, err := ui.ParsePreference(args[0])
		if err != nil {
			return a.fail(err)
		}
		if err := ui.SavePreference(a.cfg.State.Dir, p); err != nil {
			return a.fail(err)
		}
		a.styles = ui.NewStyles(ui.Resolve(p))
		a.ok("Theme set to %s.", p)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd, themeCmd)
}
