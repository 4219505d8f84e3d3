package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/VelixarAi/velixar-client/internal/app"
	"github.com/VelixarAi/velixar-client/internal/config"
)

var (
	apiURL string
	debug  bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Debug().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "velixar",
		Short:         "Store, search and browse your Velixar memories",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.InitLoggerTo(cmd.ErrOrStderr())
			if debug {
				config.SetLogLevel(zerolog.DebugLevel)
				log.Debug().Msg("debug logging enabled")
			} else {
				config.SetLogLevel(zerolog.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Velixar API base URL (overrides VELIXAR_API_URL)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newStoreCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newCopyCmd())
	rootCmd.AddCommand(newOpenCmd())
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newRefreshCmd())
	rootCmd.AddCommand(newPanelCmd())

	return rootCmd
}

// session is the per-invocation wiring a subcommand runs against.
type session struct {
	app  *app.App
	host *terminalHost
}

func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
		if err := cfg.ResolveDefaults(); err != nil {
			return err
		}
	}
	if !debug {
		config.SetLogLevel(cfg.Level())
	}

	host := newTerminalHost(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	a, err := app.New(cfg, app.Options{
		Reporter:  func(err error) { host.Error("Velixar: " + err.Error()) },
		LogOutput: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			log.Debug().Err(cerr).Msg("close failed")
		}
	}()

	log.Debug().Str("api_url", cfg.APIURL).Str("command", cmd.Name()).Msg("running command")
	return fn(cmd.Context(), &session{app: a, host: host})
}
