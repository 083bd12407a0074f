// Package cmd defines the CLI commands for the exposure checker.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/blog-exposure-checker/internal/app"
	"github.com/JakeFAU/blog-exposure-checker/internal/config"
	"github.com/JakeFAU/blog-exposure-checker/internal/job"
	"github.com/JakeFAU/blog-exposure-checker/internal/logging"
	"github.com/JakeFAU/blog-exposure-checker/internal/search"
)

const (
	defaultEnvFile  = ".env"
	shutdownTimeout = 10 * time.Second
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App is the application surface commands use.
type App interface {
	Serve(ctx context.Context) error
	Engine() *search.Engine
	Controller() *job.Controller
	Logger() *zap.Logger
	Close(ctx context.Context)
}

// newApp is the application factory; tests replace it.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
	return app.Build(ctx, cfg, logger)
}

type rootOptions struct {
	configFile string
	envFile    string
	app        App
}

// closeApp releases the application built for the command, if any.
func (o *rootOptions) closeApp() {
	if o.app == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	o.app.Close(ctx)
	o.app = nil
}

// newRootCmd creates and configures the root command.
func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exposure-checker",
		Short: "Checks whether blog posts are exposed in search results.",
		Long: `exposure-checker finds the rank of a blog article in the integrated
search results for a keyword. It runs single checks, serves the HTTP API,
and runs batch checks over a spreadsheet of published posts.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadEnv(opts.envFile, cmd.Flags().Changed("env")); err != nil {
				return err
			}
			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("logger init failed: %w", err)
			}
			zap.ReplaceGlobals(logger)

			appInstance, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			opts.app = appInstance
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env", defaultEnvFile, "dotenv file loaded before the environment is read")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newSheetCmd())
	return cmd
}

// loadEnv loads a dotenv file without overriding variables already set. A
// missing file is an error only when required.
func loadEnv(path string, required bool) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !required && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application not initialized")
	}
	return appInstance, nil
}

// run executes the command tree for args. The application built for the
// command is closed even when the command fails.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts := &rootOptions{}
	root := newRootCmd(opts)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer opts.closeApp()
	return root.ExecuteContext(ctx)
}

// Execute is the main entry point.
func Execute() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
