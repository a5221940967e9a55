package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/cashmind/internal/chat"
	"github.com/Veraticus/cashmind/internal/cli"
	"github.com/Veraticus/cashmind/internal/health"
	"github.com/Veraticus/cashmind/internal/llm"
	"github.com/Veraticus/cashmind/internal/receipt"
	"github.com/Veraticus/cashmind/internal/storage"
	"github.com/Veraticus/cashmind/internal/tui"
	"github.com/Veraticus/cashmind/internal/tui/themes"
)

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant to record transactions, budgets and goal contributions",
		Long: `Start a conversation with the CashMind assistant.

Describe an expense or income in your own words, ask for a budget, contribute
to a goal, or load a receipt with /recibo <path>. Every change is shown for
confirmation before it is saved.`,
		RunE: runChat,
	}

	cmd.Flags().Bool("plain", false, "Use the line-based chat instead of the full-screen interface")
	cmd.Flags().String("theme", "", "Interface theme (default, catppuccin)")
	_ = viper.BindPFlag("tui.theme", cmd.Flags().Lookup("theme"))

	return cmd
}

// chatDeps are the collaborators shared by every chat session.
type chatDeps struct {
	interpreter chat.Interpreter
	analyzer    chat.ReceiptAnalyzer
	store       chat.Store
	gateway     *llm.Gateway
	health      *health.Service
}

// newChatDeps wires the interpreter, receipt router and store, and starts
// recomputing the health score whenever storage changes.
func newChatDeps(store *storage.SQLiteStorage, logger *slog.Logger) (*chatDeps, error) {
	gateway, err := newGateway(logger)
	if err != nil {
		return nil, err
	}

	healthCfg, err := loadHealthConfig()
	if err != nil {
		gateway.Close()
		return nil, err
	}
	healthSvc := health.NewService(store, llm.NewAdvisor(gateway), healthCfg, logger)
	healthSvc.Watch(store)

	return &chatDeps{
		interpreter: llm.NewInterpreter(gateway, logger),
		analyzer:    receipt.NewRouter(llm.NewReceiptAnalyzer(gateway, logger), logger),
		store:       chat.NewStorageStore(store),
		gateway:     gateway,
		health:      healthSvc,
	}, nil
}

func (d *chatDeps) newSession(id string) *chat.Session {
	return chat.NewSession(chat.SessionConfig{
		ID:          id,
		Interpreter: d.interpreter,
		Analyzer:    d.analyzer,
		Store:       d.store,
		Logger:      slog.Default(),
		CallTimeout: viper.GetDuration("chat.call_timeout"),
	})
}

func (d *chatDeps) Close() {
	d.health.Close()
	d.gateway.Close()
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	plain, _ := cmd.Flags().GetBool("plain")

	theme, ok := themes.ByName(viper.GetString("tui.theme"))
	if !ok {
		return fmt.Errorf("unknown theme %q", viper.GetString("tui.theme"))
	}

	if !plain {
		restore, err := redirectLogs()
		if err != nil {
			return err
		}
		defer restore()
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

	session := deps.newSession("")
	defer session.Close()

	if plain {
		return cli.NewREPL(session, os.Stdin, cmd.OutOrStdout()).Run(ctx)
	}
	return tui.Run(ctx, session, tui.WithTheme(theme))
}
