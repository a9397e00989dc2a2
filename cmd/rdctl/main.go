// Package main implements rdctl, a command-line client for repodigest.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/repodigest/internal/config"
	"github.com/fyrsmithlabs/repodigest/internal/logging"
)

// version information
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options holds flags shared by every command.
type options struct {
	configPath string
	serverURL  string
	verbose    bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "rdctl",
		Short: "CLI for repodigest repository analysis",
		Long: `rdctl summarizes GitHub repositories through a running repodigest server
and builds context digests locally, for GitHub repositories or local clones.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: opts.load,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/repodigest/config.yaml)")
	root.PersistentFlags().StringVar(&opts.serverURL, "server", "", "repodigest server URL (default server.url from config)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")

	root.AddCommand(newSummarizeCmd(opts))
	root.AddCommand(newDigestCmd(opts))
	root.AddCommand(newHealthCmd(opts))
	return root
}

// load reads .env and the config file before any command runs.
func (o *options) load(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	o.cfg = cfg

	if o.serverURL == "" {
		o.serverURL = cfg.Server.ServerURL
	}
	o.serverURL = strings.TrimRight(o.serverURL, "/")
	return nil
}

// logger writes warnings, or everything with --verbose, to stderr.
func (o *options) logger() (*zap.Logger, error) {
	cfg := logging.NewDefaultConfig()
	cfg.Format = "console"
	cfg.Output.Stream = logging.StreamStderr
	cfg.Sampling.Enabled = false
	cfg.Caller = false
	cfg.Fields = nil
	cfg.Level = zapcore.WarnLevel
	if o.verbose {
		cfg.Level = zapcore.DebugLevel
	}

	logger, err := logging.NewLogger(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Underlying(), nil
}
