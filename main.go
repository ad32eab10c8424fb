package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/ghaggin/storefront/internal/backend"
	"github.com/ghaggin/storefront/internal/config"
	"github.com/ghaggin/storefront/internal/gateway"
	"github.com/ghaggin/storefront/internal/guard"
	"github.com/ghaggin/storefront/internal/middleware"
	"github.com/ghaggin/storefront/internal/nav"
	"github.com/ghaggin/storefront/internal/session"
	"github.com/ghaggin/storefront/internal/shell"
	"github.com/ghaggin/storefront/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront shell: session, gateway and guarded navigation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", string(config.DefaultPath), "path to a YAML config file")

	newPath := func() config.Path {
		return config.Path(configPath)
	}

	rootCmd.AddCommand(
		serveCmd(newPath),
		backendCmd(newPath),
		loginCmd(newPath),
		registerCmd(newPath),
		logoutCmd(newPath),
		profileCmd(newPath),
		statusCmd(newPath),
		openCmd(newPath),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func serveCmd(newPath func() config.Path) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the storefront pages",
		Run: func(_ *cobra.Command, _ []string) {
			fx.New(serveDeps(newPath)).Run()
		},
	}
}

func serveDeps(newPath func() config.Path) fx.Option {
	return fx.Options(
		fx.Provide(
			zap.NewDevelopment,
			newPath,
			config.New,
			newRegistry,
			middleware.NewSessionManager,
			gateway.New,
			guard.NewDefault,
			shell.New,
		),
		fx.Invoke(shell.RegisterHooks),
	)
}

func backendCmd(newPath func() config.Path) *cobra.Command {
	return &cobra.Command{
		Use:   "backend",
		Short: "Run the development backend",
		Run: func(_ *cobra.Command, _ []string) {
			fx.New(backendDeps(newPath)).Run()
		},
	}
}

func backendDeps(newPath func() config.Path) fx.Option {
	return fx.Options(
		fx.Provide(
			zap.NewDevelopment,
			newPath,
			config.New,
		),
		backend.Module,
		fx.Invoke(backend.RegisterHooks),
	)
}

func newRegistry() (prometheus.Registerer, prometheus.Gatherer) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, reg
}

// clientDeps wires a single-user client: the token lives in the storage file
// and navigations are printed.
func clientDeps(newPath func() config.Path) fx.Option {
	return fx.Options(
		fx.NopLogger,
		fx.Provide(
			newCLILogger,
			newPath,
			config.New,
			fx.Annotate(storage.NewFile, fx.As(new(storage.Storage))),
			session.NewState,
			gateway.New,
			guard.NewDefault,
			newPrinter,
			bindGateway,
			session.New,
		),
	)
}

func newCLILogger(c *config.Config) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	return cfg.Build()
}

func newPrinter() nav.Navigator {
	return nav.Func(func(_ context.Context, path string) {
		fmt.Printf("%s %s\n", color.YellowString("→"), path)
	})
}

func bindGateway(t *gateway.Transport, st *session.State, n nav.Navigator) session.Backend {
	return t.Client(st, n)
}
