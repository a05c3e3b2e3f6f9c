package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"utkal-mart/internal/logger"
	"utkal-mart/internal/session"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "CARTCTL"

// app is built once per invocation and shared by every subcommand
type app struct {
	v       *viper.Viper
	log     *zap.Logger
	client  *session.Client
	session *session.Session
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "cartctl",
		Short:         "Manage a utkal mart cart from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.String("api-url", "http://localhost:5000", "cart store base URL")
	flags.String("token", "", "bearer token from `cartctl login`")
	flags.Duration("timeout", session.DefaultTimeout, "per-request timeout")
	flags.BoolP("verbose", "v", false, "log requests to stderr")

	for _, name := range []string{"api-url", "token", "timeout", "verbose"} {
		a.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(newLoginCommand(a), newCartCommand(a))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	godotenv.Load()

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	log := logger.NewCLI(a.v.GetBool("verbose"))
	a.log = log

	a.client = session.NewClient(a.v.GetString("api-url"), a.v.GetDuration("timeout"), log)
	a.session = session.New(a.client, session.NewWriterNotifier(cmd.ErrOrStderr()), log)
	return nil
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
	}
	if a.log != nil {
		a.log.Sync()
	}
}

// authenticated installs the configured token, which loads the cart
func (a *app) authenticated(ctx context.Context) (session.Snapshot, error) {
	token := a.v.GetString("token")
	if token == "" {
		return session.Snapshot{}, fmt.Errorf("no token: run `cartctl login` and export %s_TOKEN", envPrefix)
	}
	return a.session.SetToken(ctx, token)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), time.Minute)
}

// errReported marks failures the session already showed as an alert
var errReported = errors.New("reported")

func reported(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errReported, err)
}
