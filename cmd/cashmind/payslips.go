package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cashmind/internal/chat"
	"github.com/Veraticus/cashmind/internal/cli"
	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/config"
	"github.com/Veraticus/cashmind/internal/llm"
	"github.com/Veraticus/cashmind/internal/payslip"
)

func payslipsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "payslips",
		Aliases: []string{"recibos"},
		Short:   "Import and list salary payslips",
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Read a payslip (PDF or image) and record the net salary as income",
		Long: `Read a payslip with the configured language model.

The payslip is stored with its deduction and bonus lines, and the net salary
is recorded as a "Sueldo <Mes> <Año>" income dated the 15th of the payment
month unless --no-income is given.`,
		Example: `  cashmind payslips import ~/Descargas/recibo-junio.pdf
  cashmind payslips import recibo.jpg --no-income`,
		Args: cobra.ExactArgs(1),
		RunE: runPayslipsImport,
	}
	importCmd.Flags().Bool("no-income", false, "Store the payslip without recording the salary income")
	importCmd.Flags().Bool("dry-run", false, "Show what was read without saving")

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored payslips",
		RunE:  runPayslipsList,
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a payslip with its deductions and bonuses",
		Args:  cobra.ExactArgs(1),
		RunE:  runPayslipsShow,
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a payslip and the salary income recorded from it",
		Args:  cobra.ExactArgs(1),
		RunE:  runPayslipsDelete,
	}

	cmd.AddCommand(importCmd, list, show, del)
	return cmd
}

func runPayslipsImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	noIncome, _ := cmd.Flags().GetBool("no-income")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	path := config.ExpandPath(args[0])
	data, err := os.ReadFile(path) //nolint:gosec // user-provided path is intended
	if err != nil {
		return fmt.Errorf("failed to read payslip: %w", err)
	}

	gateway, err := newGateway(slog.Default())
	if err != nil {
		return err
	}
	defer gateway.Close()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	svc := payslip.NewService(llm.NewPayslipAnalyzer(gateway, slog.Default()), store, slog.Default())
	doc := payslip.Document{Name: filepath.Base(path), Data: data}

	fmt.Fprintln(out, cli.FormatInfo("Leyendo "+doc.Name+"..."))
	p, err := svc.Analyze(ctx, doc)
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Fprintln(out, cli.RenderPayslip(*p))
		return nil
	}

	if err := svc.Save(ctx, p, !noIncome); err != nil {
		return err
	}

	fmt.Fprintln(out, cli.RenderPayslip(*p))
	msg := fmt.Sprintf("Recibo de %s guardado (#%d)", p.Period(), p.ID)
	if p.TransactionID != nil {
		msg += fmt.Sprintf(", ingreso de %s registrado", chat.FormatDecimal(p.NetSalary))
	}
	fmt.Fprintln(out, cli.FormatSuccess(msg))
	return nil
}

func runPayslipsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	payslips, err := store.GetPayslips(ctx)
	if err != nil {
		return fmt.Errorf("failed to list payslips: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderPayslips(payslips))
	return nil
}

func runPayslipsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := parsePayslipID(args[0])
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	p, err := store.GetPayslip(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderPayslip(*p))
	return nil
}

func runPayslipsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := parsePayslipID(args[0])
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	if err := store.DeletePayslip(ctx, id); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recibo #%d eliminado", id)))
	return nil
}

func parsePayslipID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: payslip id must be a positive number", common.ErrInvalidInput)
	}
	return id, nil
}
