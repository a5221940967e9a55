package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/cashmind/internal/api"
	"github.com/Veraticus/cashmind/internal/chat"
	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/llm"
	"github.com/Veraticus/cashmind/internal/payslip"
)

const defaultSessionTTL = 30 * time.Minute

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON HTTP API",
		Long: `Serve chat sessions, health scores, payslips and the ledger over HTTP.

Routes live under /api; GET /healthz reports liveness.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default: 127.0.0.1:8080)")
	cmd.Flags().Duration("session-ttl", defaultSessionTTL, "Idle time before a chat session is dropped")
	_ = viper.BindPFlag("api.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("chat.session_ttl", cmd.Flags().Lookup("session-ttl"))

	return cmd
}

// loadAPIConfig overlays the api section on the server defaults.
func loadAPIConfig() (api.Config, error) {
	cfg := api.DefaultConfig()
	if err := viper.UnmarshalKey("api", &cfg); err != nil {
		return api.Config{}, fmt.Errorf("%w: api: %w", common.ErrInvalidConfig, err)
	}
	if cfg.Addr == "" {
		cfg.Addr = api.DefaultConfig().Addr
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadAPIConfig()
	if err != nil {
		return err
	}

	if viper.GetString("logging.level") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	deps, err := newChatDeps(store, slog.Default())
	if err != nil {
		return err
	}
	defer deps.Close()

	ttl := viper.GetDuration("chat.session_ttl")
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	registry := chat.NewRegistry(deps.newSession, ttl)
	defer registry.Close()

	payslips := payslip.NewService(llm.NewPayslipAnalyzer(deps.gateway, slog.Default()), store, slog.Default())
	server := api.NewServer(cfg, store, registry, deps.health, payslips, slog.Default())
	return server.Run(ctx)
}
