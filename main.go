package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"patchconv/config"
	"patchconv/resolve"
)

// app carries what every command needs once the config is loaded.
type app struct {
	cfg *config.Config
	log *slog.Logger
}

func (a *app) converter() *resolve.Converter {
	return resolve.New(
		resolve.WithLogger(a.log),
		resolve.WithSourcePruning(a.cfg.Resolve.Prune),
		resolve.WithMaxTrials(a.cfg.Resolve.MaxTrials),
		resolve.WithMultiDestFallback(a.cfg.Resolve.MultiDestFallback),
	)
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var (
		configPath string
		logLevel   string
	)

	root := &cobra.Command{
		Use:   "patchconv",
		Short: "Convert generic synth patches onto a target synth",
		Long: "patchconv resolves a synth independent patch graph onto the fixed\n" +
			"module template of a target synth and writes the converted patch.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			a.cfg = cfg
			// stdout carries documents and, for mcp, the protocol
			a.log = newLogger(cfg.Log, cmd.ErrOrStderr())
			slog.SetDefault(a.log)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/patchconv/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newConvertCmd(a),
		newImportCmd(a),
		newTemplateCmd(a),
		newTargetsCmd(a),
		newSoundCmd(a),
		newMCPCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
