package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/cliprelay/internal/agent"
	"go.klb.dev/cliprelay/internal/clip"
)

func newAgentCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Keep the local clipboard in sync with a relay",
		Long: `Connects to a cliprelay server over the push channel and keeps the
local system clipboard in sync with all other connected devices. Reconnects
automatically on disconnect.

Config file search order:
  /etc/cliprelay/cliprelay.toml
  $HOME/.config/cliprelay/cliprelay.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPRELAY_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runAgent(v) },
	}

	f := cmd.Flags()
	f.String("server", "http://localhost:3000", "relay base URL")
	f.String("api-key", "", "pre-shared key (must match the server)")
	f.String("source", defaultSource(), "source tag for this device")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runAgent(v *viper.Viper) error {
	setupLogging(v)

	cfg := agent.Config{
		ServerURL: v.GetString("server"),
		APIKey:    v.GetString("api-key"),
		Source:    v.GetString("source"),
	}

	slog.Info("cliprelay agent starting",
		"version", Version,
		"server", cfg.ServerURL,
		"source", cfg.Source,
	)

	backend := clip.New()
	defer backend.Close()
	slog.Info("clipboard backend", "name", backend.Name())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := agent.New(cfg, backend).Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
