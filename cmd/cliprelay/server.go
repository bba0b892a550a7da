package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/cliprelay/internal/httpapi"
	"go.klb.dev/cliprelay/internal/relay"
	"go.klb.dev/cliprelay/internal/state"
)

func newServerCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the clipboard relay",
		Long: `Starts the cliprelay server. All connected clients share one clipboard.

Clients submit updates via POST /clipboard or over the /ws push channel, and
receive them via GET /clipboard polling or push. The x-api-key header must
match --api-key on the one-shot endpoints.

Config file search order:
  /etc/cliprelay/cliprelay.toml
  $HOME/.config/cliprelay/cliprelay.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPRELAY_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runServer(v) },
	}

	f := cmd.Flags()
	f.String("addr", "0.0.0.0:3000", "HTTP listen address")
	f.String("api-key", "", "pre-shared key for the one-shot endpoints (empty = no auth)")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runServer(v *viper.Viper) error {
	setupLogging(v)

	addr := v.GetString("addr")
	apiKey := v.GetString("api-key")

	slog.Info("cliprelay server starting",
		"version", Version,
		"addr", addr,
		"auth", apiKey != "",
	)

	gw := relay.NewGateway(state.New(), relay.NewRegistry())
	api := httpapi.New(gw, apiKey)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	slog.Info("listening", "addr", ln.Addr())

	srv := &http.Server{Handler: api.Handler()}
	return srv.Serve(ln)
}
