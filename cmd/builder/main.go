package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/celerix-dev/celerix-builder/internal/cache"
	"github.com/celerix-dev/celerix-builder/internal/config"
	"github.com/celerix-dev/celerix-builder/internal/features"
	"github.com/celerix-dev/celerix-builder/internal/nav"
	"github.com/celerix-dev/celerix-builder/internal/session"
	"github.com/celerix-dev/celerix-builder/internal/table"
	"github.com/celerix-dev/celerix-builder/internal/ui"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

var (
	// Global flags
	cfgPath   string
	apiURL    string
	verbose   bool
	jsonOut   bool
	assumeYes bool

	logger   *zap.Logger
	logLevel = zap.NewAtomicLevelAt(zapcore.WarnLevel)
)

// routeKey annotates commands with the page they stand for, so the
// navigation guard can decide whether a session is needed.
const routeKey = "route"

var rootCmd = &cobra.Command{
	Use:   "builder",
	Short: "No-code application builder",
	Long: `builder manages fields, objects, records, relationships and
applications on a builder backend.

Sign in first with 'builder login'. Start a local backend with
'builder-devserver'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			logLevel.SetLevel(zapcore.DebugLevel)
		}
		zcfg.Level = logLevel
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "backend base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print raw JSON instead of tables")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app is everything a command needs, built from config per invocation.
type app struct {
	cfg    *config.Config
	tokens sdk.TokenStore
	client *sdk.Client
	cache  *cache.Store
	styles ui.Styles
	format table.Format
	out    io.Writer
	errOut io.Writer
}

func newApp(cmd *cobra.Command) (*app, error) {
	path := cfgPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if !verbose && cfg.Logging.Level != "" {
		if err := logLevel.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
			logger.Warn("ignoring logging.level", zap.String("level", cfg.Logging.Level), zap.Error(err))
		}
	}

	client, err := sdk.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	pref, err := ui.LoadPreference(cfg.State.Dir, ui.Preference(cfg.Display.Theme))
	if err != nil {
		logger.Warn("ignoring theme preference", zap.Error(err))
		pref = ui.PreferSystem
	}

	a := &app{
		cfg:    cfg,
		tokens: client.Tokens(),
		client: client,
		cache:  cache.New(cache.WithLogger(logger.Named("cache"))),
		styles: ui.NewStyles(ui.Resolve(pref)),
		format: table.NewFormat(cfg.Display.Locale, cfg.Display.Currency),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}
	return a, a.guard(cmd)
}

// guard applies the navigation guard to the command's page and warns
// about a session that is about to run out.
func (a *app) guard(cmd *cobra.Command) error {
	route, ok := cmd.Annotations[routeKey]
	if !ok {
		return nil
	}
	session.NewMonitor(a.tokens,
		session.WithLogger(logger.Named("session")),
		session.WithOnWarning(func(left time.Duration) {
			fmt.Fprintln(a.errOut, a.styles.Notice(fmt.Sprintf("Session expires in %s. Run 'builder login' to renew it.", left.Round(time.Second))))
		}),
	).Evaluate()

	if dest := nav.Guard(a.tokens, route); dest == nav.Login && route != nav.Login {
		return fmt.Errorf("not signed in: run 'builder login'")
	}
	return nil
}

// fail prints err as a banner and returns it so cobra exits non-zero.
func (a *app) fail(err error) error {
	if err == nil {
		return nil
	}
	fmt.Fprintln(a.errOut, a.styles.Banner(err))
	if sdk.IsUnauthorized(err) {
		fmt.Fprintln(a.errOut, a.styles.Notice("Your session ended. Run 'builder login' to sign in again."))
	}
	return err
}

func addYesFlag(cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.Flags().BoolVarP(&assumeYes, "yes", "y", false, "confirm the deletion")
	}
}

// confirm runs a destructive request only when --yes was given.
func (a *app) confirm(ctx context.Context, what string, fn func(context.Context) error) error {
	err := features.Confirm(ctx, assumeYes, fn)
	if errors.Is(err, features.ErrNotConfirmed) {
		err = fmt.Errorf("%w: pass --yes to %s", err, what)
	}
	return a.fail(err)
}

func (a *app) printJSON(v any) {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(a.out, v)
		return
	}
	fmt.Fprintln(a.out, string(bytes))
}

func (a *app) printGrid(title string, headers []string, rows [][]string) {
	if title != "" {
		fmt.Fprintln(a.out, a.styles.Title.Render(title))
	}
	if len(rows) == 0 {
		fmt.Fprintln(a.out, a.styles.Muted.Render(ui.EmptyMessage))
		return
	}
	fmt.Fprintln(a.out, a.styles.Grid(headers, rows))
}

func (a *app) printFooter(page, totalPages, total int) {
	fmt.Fprintln(a.out, a.styles.Muted.Render(fmt.Sprintf("Page %d of %d · %d total", page, totalPages, total)))
}

func (a *app) printCrumbs(path string, name func(string) string) {
	crumbs := nav.Breadcrumbs(path, name)
	parts := make([]string, 0, len(crumbs))
	for _, c := range crumbs {
		if c.Path == "" {
			parts = append(parts, a.styles.Bold.Render(c.Label))
		} else {
			parts = append(parts, a.styles.Muted.Render(c.Label))
		}
	}
	fmt.Fprintln(a.out, strings.Join(parts, a.styles.Muted.Render(" › ")))
}

func (a *app) ok(format string, args ...any) {
	fmt.Fprintln(a.out, a.styles.Success.Render(fmt.Sprintf(format, args...)))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func ptr[T any](v T) *T { return &v }
