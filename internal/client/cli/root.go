package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/promstudy/promstudy/internal/client/config"
)

// NewRootCommand builds the promstudy command tree. Without a subcommand it
// starts the interactive shell.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "promstudy",
		Short:         "promstudy prompt marketplace client",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          withApp(in, out, errOut, (*App).Shell),
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "login [email]",
			Short: "Log in and persist the session",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				email := ""
				if len(args) == 1 {
					email = args[0]
				}
				return withApp(in, out, errOut, func(a *App, ctx context.Context) error {
					return a.Login(ctx, email)
				})(cmd, args)
			},
		},
		&cobra.Command{
			Use:   "signup",
			Short: "Create an account with its profile and log in",
			Args:  cobra.NoArgs,
			RunE:  withApp(in, out, errOut, (*App).Signup),
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Forget the persisted session",
			Args:  cobra.NoArgs,
			RunE:  withApp(in, out, errOut, (*App).Logout),
		},
		&cobra.Command{
			Use:   "whoami",
			Short: "Show the logged-in profile",
			Args:  cobra.NoArgs,
			RunE:  withApp(in, out, errOut, (*App).WhoAmI),
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Show marketplace prompt and like counters",
			Args:  cobra.NoArgs,
			RunE:  withApp(in, out, errOut, (*App).Stats),
		},
		&cobra.Command{
			Use:   "shell",
			Short: "Start the interactive shell",
			Args:  cobra.NoArgs,
			RunE:  withApp(in, out, errOut, (*App).Shell),
		},
	)
	return root
}

// withApp loads configuration from cmd's flags, builds an App for the
// duration of fn and closes it afterwards.
func withApp(in io.Reader, out, errOut io.Writer, fn func(*App, context.Context) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.FromFlags(cmd.Flags())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		app, err := NewApp(ctx, cfg, in, out, errOut)
		if err != nil {
			return err
		}
		defer app.Close()

		return fn(app, ctx)
	}
}
