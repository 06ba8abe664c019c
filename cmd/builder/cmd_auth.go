package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/celerix-builder/internal/features"
	"github.com/celerix-dev/celerix-builder/internal/nav"
	"github.com/celerix-dev/celerix-builder/internal/session"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

var (
	authEmail    string
	authPassword string
	authName     string
	watchSession bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Long: `Signs in with email and password. The password may also come from
BUILDER_PASSWORD. The session is saved in the state directory.`,
	Annotations: map[string]string{routeKey: nav.Login},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		password := authPassword
		if password == "" {
			password = os.Getenv("BUILDER_PASSWORD")
		}
		next, err := features.Login(cmd.Context(), a.client.Auth(), authEmail, password)
		if err != nil {
			return a.fail(err)
		}
		a.ok("Signed in as %s.", authEmail)
		if r, _, ok := nav.Match(next); ok {
			fmt.Fprintln(a.out, a.styles.Muted.Render("Next: "+r.Title))
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		if err := a.client.Auth().Logout(); err != nil {
			return a.fail(err)
		}
		a.ok("Signed out.")
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		u, err := a.client.Auth().Register(cmd.Context(), schema.Registration{Email: authEmail, Password: authPassword, FullName: authName})
		if err != nil {
			return a.fail(err)
		}
		a.ok("Registered %s. Sign in with 'builder login'.", u.Email)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:         "whoami",
	Short:       "Show the signed-in user and session status",
	Annotations: map[string]string{routeKey: nav.Dashboard},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		u, err := a.client.Auth().Me(cmd.Context())
		if err != nil {
			return a.fail(err)
		}
		status, left := session.Check(a.tokens, time.Now())
		if jsonOut {
			a.printJSON(map[string]any{"user": u, "session": status.String(), "expires_in": left.Round(time.Second).String()})
			return nil
		}
		a.printGrid("", []string{"Email", "Name", "Session", "Expires in"},
			[][]string{{u.Email, u.FullName, status.String(), left.Round(time.Second).String()}})

		if !watchSession {
			return nil
		}
		return watch(cmd, a)
	},
}

// watch blocks until the session ends or the command is interrupted.
func watch(cmd *cobra.Command, a *app) error {
	done := make(chan struct{})
	var once sync.Once
	m := session.NewMonitor(a.tokens,
		session.WithInterval(10*time.Second),
		session.WithWatchDir(a.cfg.State.Dir),
		session.WithLogger(logger.Named("session")),
		session.WithOnWarning(func(left time.Duration) {
			fmt.Fprintln(a.errOut, a.styles.Notice(fmt.Sprintf("Session expires in %s.", left.Round(time.Second))))
		}),
		session.WithOnExpired(func() {
			fmt.Fprintln(a.errOut, a.styles.Notice("Session expired. Run 'builder login' to sign in again."))
			once.Do(func() { close(done) })
		}),
	)
	if err := m.Start(cmd.Context()); err != nil {
		return err
	}
	defer m.Stop()

	fmt.Fprintln(a.out, a.styles.Muted.Render("Watching the session. Press Ctrl+C to stop."))
	select {
	case <-done:
	case <-cmd.Context().Done():
	}
	return nil
}

func init() {
	loginCmd.Flags().StringVar(&authEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&authPassword, "password", "", "account password")

	registerCmd.Flags().StringVar(&authEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&authPassword, "password", "", "account password (at least 8 characters)")
	registerCmd.Flags().StringVar(&authName, "name", "", "full name")

	whoamiCmd.Flags().BoolVar(&watchSession, "watch", false, "keep running and report session expiry")

	rootCmd.AddCommand(loginCmd, logoutCmd, registerCmd, whoamiCmd)
}
