package main

import (
	"fmt"

	"github.com/Egham-7/embedding-advisor/internal/config"
	pkgconfig "github.com/Egham-7/embedding-advisor/pkg/config"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/spf13/cobra"
)

var version = "dev"

type rootOptions struct {
	configPath string
	debug      bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "advisor",
		Short: "Recommend embedding models for a project",
		Long: `advisor ranks embedding models for a project description and a primary task
using a public embedding benchmark and a generative model.

Run "advisor serve" for the HTTP API or "advisor recommend" for a one-off answer.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &inputError{msg: err.Error()}
	})

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "Path to the YAML configuration file")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newRecommendCommand(opts))
	cmd.AddCommand(newTasksCommand())
	cmd.AddCommand(newServeCommand(opts))

	return cmd
}

// loadConfig reads .env files and the YAML config, then applies the log level
func (o *rootOptions) loadConfig() (*config.Config, error) {
	config.LoadEnvFiles(config.DefaultEnvFiles)

	cfg, err := config.LoadFromFile(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if o.debug {
		cfg.Server.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	pkgconfig.SetupLogLevel(cfg)
	fiberlog.Debugf("Loaded configuration from %s", o.configPath)
	return cfg, nil
}

func execute() error {
	return newRootCommand().Execute()
}
