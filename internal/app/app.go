// Package app wires the Velixar client components from configuration.
package app

import (
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/VelixarAi/velixar-client/client"
	"github.com/VelixarAi/velixar-client/internal/commands"
	"github.com/VelixarAi/velixar-client/internal/config"
	"github.com/VelixarAi/velixar-client/internal/credential"
	"github.com/VelixarAi/velixar-client/internal/health"
	"github.com/VelixarAi/velixar-client/internal/index"
	"github.com/VelixarAi/velixar-client/internal/logger"
	"github.com/VelixarAi/velixar-client/internal/refresh"
	"github.com/VelixarAi/velixar-client/internal/search"
)

// App holds the long-lived components shared by the executables.
type App struct {
	Config  *config.Config
	Creds   credential.Store
	Client  *client.Client
	Index   *index.Index
	Monitor *health.Monitor
	Refresh *refresh.Orchestrator

	logOut  io.Writer
	closers []io.Closer
}

// Options overrides parts of the wiring.
type Options struct {
	// Creds replaces the SQLite credential store.
	Creds credential.Store
	// Reporter receives user-visible index refresh failures.
	Reporter      index.ErrorReporter
	ClientOptions []client.Option
	// LogOutput receives component logs; nil selects stderr.
	LogOutput io.Writer
}

// New constructs the components. Callers must Close the App.
func New(cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg, logOut: opts.LogOutput}

	creds := opts.Creds
	if creds == nil {
		store, err := credential.NewSQLiteStore(cfg.CredentialDB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		creds = store
	}
	a.Creds = creds

	clientOpts := append([]client.Option{client.WithHTTPTimeout(cfg.HTTPTimeout)}, opts.ClientOptions...)
	c, err := client.New(cfg.APIURL, creds, clientOpts...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Client = c
	a.closers = append(a.closers, c)

	a.Index = index.New(c,
		index.WithPageSize(cfg.ListLimit),
		index.WithDefaultTier(client.Tier(cfg.GroupingDefaultTier)),
		index.WithErrorReporter(opts.Reporter),
		index.WithLogger(a.logger("index")),
	)
	a.Monitor = health.NewMonitor(c, a.logger("health"))
	a.Refresh = refresh.New(a.Index, a.Monitor, cfg.RefreshInterval, a.logger("refresh"))
	return a, nil
}

func (a *App) logger(component string) zerolog.Logger {
	var l zerolog.Logger
	if a.logOut != nil {
		l = logger.NewTo(a.logOut, component)
	} else {
		l = logger.New(component)
	}
	return l.Level(a.Config.Level())
}

// Commands binds the user actions to host.
func (a *App) Commands(host commands.Host) *commands.Commands {
	return commands.New(a.Client, a.Creds, a.Refresh, host, commands.Options{
		DefaultTier:      client.Tier(a.Config.DefaultTier),
		QuickSearchLimit: a.Config.QuickSearchLimit,
		Logger:           a.logger("commands"),
	})
}

// SessionOptions configures search sessions from the config.
func (a *App) SessionOptions() []search.Option {
	return []search.Option{
		search.WithLimit(a.Config.SearchLimit),
		search.WithDebounce(a.Config.Debounce),
		search.WithLogger(a.logger("search")),
	}
}

// Close stops the refresh loop and releases resources.
func (a *App) Close() error {
	if a.Refresh != nil {
		a.Refresh.Stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}
