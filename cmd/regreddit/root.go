package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"regreddit/internal/app"
	"regreddit/internal/client"
	"regreddit/internal/config"
	"regreddit/internal/logger"
	"regreddit/internal/metrics"
	"regreddit/internal/parser"
)

const version = "1.0.0"

var (
	cfgFile     string
	debug       bool
	metricsAddr string

	rootCmd = &cobra.Command{
		Use:           "regreddit",
		Short:         "Nuke your Reddit account",
		Long:          "regreddit bulk-deletes a Reddit account's posts and comments, and can submit new content.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.regreddit.yaml or ~/.regreddit.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address during the run")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("regreddit version %s\n", version)
		},
	})

	rootCmd.AddCommand(newPurgeCommand())
	rootCmd.AddCommand(newSubmitCommand())
}

// deps bundles everything a command needs after initialization.
type deps struct {
	cfg     *config.Settings
	app     *app.App
	log     *zap.Logger
	metrics *metrics.PurgeMetrics
}

func initDeps() (*deps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}

	level := "info"
	if debug {
		level = "debug"
	}
	log, err := logger.New(level, debug)
	if err != nil {
		return nil, err
	}

	api, err := client.NewRedditClient(cfg, parser.NewRedditParser())
	if err != nil {
		return nil, fmt.Errorf("create reddit client: %w", err)
	}

	m := metrics.NewPurgeMetrics()

	return &deps{
		cfg: cfg,
		app: app.New(app.Params{
			Config:  cfg,
			API:     api,
			Logger:  log,
			Metrics: m,
		}),
		log:     log,
		metrics: m,
	}, nil
}
