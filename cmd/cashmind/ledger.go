package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/cashmind/internal/chat"
	"github.com/Veraticus/cashmind/internal/cli"
	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/service"
	"github.com/Veraticus/cashmind/internal/validate"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Record and list income and expenses",
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Example: `  cashmind transactions add --amount 5000 --description "Supermercado" --category food
  cashmind transactions add --income --amount 250000 --description "Sueldo" --category salary`,
		RunE: runTransactionsAdd,
	}
	add.Flags().Float64("amount", 0, "Amount (positive)")
	add.Flags().String("description", "", "What it was")
	add.Flags().String("date", "", "Date as YYYY-MM-DD (default: today)")
	add.Flags().String("category", "", "Category (see 'cashmind categories')")
	add.Flags().String("notes", "", "Free-form notes")
	add.Flags().Bool("income", false, "Record an income instead of an expense")
	_ = add.MarkFlagRequired("amount")
	_ = add.MarkFlagRequired("description")

	list := &cobra.Command{
		Use:   "list",
		Short: "List a month's transactions",
		RunE:  runTransactionsList,
	}
	list.Flags().String("month", "", "Month as YYYY-MM (default: current month)")
	list.Flags().String("type", "", "Only income or expense")
	list.Flags().String("category", "", "Only this category")
	list.Flags().Int("limit", 0, "Maximum number of rows")

	cmd.AddCommand(add, list)
	return cmd
}

func runTransactionsAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	amount, _ := flags.GetFloat64("amount")
	description, _ := flags.GetString("description")
	date, _ := flags.GetString("date")
	category, _ := flags.GetString("category")
	notes, _ := flags.GetString("notes")
	income, _ := flags.GetBool("income")

	typ := model.TypeExpense
	if income {
		typ = model.TypeIncome
	}

	data := validate.Transaction(map[string]any{
		"amount":      amount,
		"description": description,
		"date":        date,
		"type":        string(typ),
		"category":    category,
		"notes":       notes,
	}, time.Now())
	if data == nil {
		return fmt.Errorf("%w: amount must be positive and description non-empty", common.ErrInvalidInput)
	}

	txn, err := data.ToTransaction(model.SourceManual)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	if err := store.CreateTransaction(ctx, &txn); err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s guardado: %s por %s (%s)",
		typ.Label(), txn.Description, chat.FormatDecimal(txn.Amount), model.CategoryLabel(typ, txn.Category))))
	return nil
}

func runTransactionsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	rawMonth, _ := flags.GetString("month")
	rawType, _ := flags.GetString("type")
	category, _ := flags.GetString("category")
	limit, _ := flags.GetInt("limit")

	month, err := parseMonth(rawMonth, time.Now())
	if err != nil {
		return err
	}
	typ := model.TransactionType(rawType)
	if typ != "" && !typ.Valid() {
		return fmt.Errorf("%w: type must be income or expense", common.ErrInvalidInput)
	}

	r := service.MonthRange(month)
	filter := service.TransactionFilter{
		StartDate: &r.Start,
		EndDate:   &r.End,
		Type:      typ,
		Category:  category,
		Limit:     limit,
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	txns, err := store.GetTransactions(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTransactions(txns))
	return nil
}

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Create and list category budgets",
	}

	add := &cobra.Command{
		Use:     "add",
		Short:   "Create a budget",
		Example: `  cashmind budgets add --name "Comida" --category food --limit 80000`,
		RunE:    runBudgetsAdd,
	}
	add.Flags().String("name", "", "Budget name")
	add.Flags().String("category", "", "Expense category it limits")
	add.Flags().Float64("limit", 0, "Spending limit per period")
	add.Flags().String("period", string(model.PeriodMonthly), "weekly, monthly or yearly")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("category")
	_ = add.MarkFlagRequired("limit")

	list := &cobra.Command{
		Use:   "list",
		Short: "List budgets",
		RunE:  runBudgetsList,
	}

	cmd.AddCommand(add, list)
	return cmd
}

func runBudgetsAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	name, _ := flags.GetString("name")
	category, _ := flags.GetString("category")
	limit, _ := flags.GetFloat64("limit")
	period, _ := flags.GetString("period")

	data := validate.Budget(map[string]any{
		"name":     name,
		"category": category,
		"limit":    limit,
		"period":   period,
	})
	if data == nil {
		return fmt.Errorf("%w: name, category and a positive limit are required", common.ErrInvalidInput)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	budget := data.ToBudget()
	if err := store.CreateBudget(ctx, &budget); err != nil {
		return fmt.Errorf("failed to save budget: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Presupuesto %q creado: %s", budget.Name, chat.FormatDecimal(budget.Limit))))
	return nil
}

func runBudgetsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	budgets, err := store.GetBudgets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list budgets: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBudgets(budgets))
	return nil
}

func goalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Create, list and contribute to savings goals",
	}

	add := &cobra.Command{
		Use:     "add",
		Short:   "Create a goal",
		Example: `  cashmind goals add --name "Viaje a Bariloche" --target 500000 --deadline 2025-07-01`,
		RunE:    runGoalsAdd,
	}
	add.Flags().String("name", "", "Goal name")
	add.Flags().Float64("target", 0, "Target amount")
	add.Flags().String("deadline", "", "Deadline as YYYY-MM-DD")
	add.Flags().String("description", "", "Description")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("target")

	list := &cobra.Command{
		Use:   "list",
		Short: "List goals with their progress",
		RunE:  runGoalsList,
	}

	contribute := &cobra.Command{
		Use:     "contribute <goal-id> <amount>",
		Short:   "Add money to a goal",
		Example: `  cashmind goals contribute 3 20000`,
		Args:    cobra.ExactArgs(2),
		RunE:    runGoalsContribute,
	}

	cmd.AddCommand(add, list, contribute)
	return cmd
}

func runGoalsAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	name, _ := flags.GetString("name")
	target, _ := flags.GetFloat64("target")
	deadline, _ := flags.GetString("deadline")
	description, _ := flags.GetString("description")

	data := validate.Goal(map[string]any{
		"name":         name,
		"targetAmount": target,
		"deadline":     deadline,
		"description":  description,
	})
	if data == nil {
		return fmt.Errorf("%w: name and a positive target are required", common.ErrInvalidInput)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	goal := data.ToGoal()
	if err := store.CreateGoal(ctx, &goal); err != nil {
		return fmt.Errorf("failed to save goal: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Meta %q creada (#%d)", goal.Name, goal.ID)))
	return nil
}

func runGoalsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	goals, err := store.GetGoals(ctx)
	if err != nil {
		return fmt.Errorf("failed to list goals: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderGoals(goals))
	return nil
}

func runGoalsContribute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: goal id must be a number", common.ErrInvalidInput)
	}
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("%w: amount must be a number", common.ErrInvalidInput)
	}

	data := validate.GoalContribution(map[string]any{"goalId": float64(id), "amount": amount})
	if data == nil {
		return fmt.Errorf("%w: goal id and amount must be positive", common.ErrInvalidInput)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	goal, err := store.ContributeToGoal(ctx, data.GoalID, decimal.NewFromFloat(data.Amount).Round(2))
	if err != nil {
		return fmt.Errorf("failed to contribute to goal: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Aportaste %s a %q", chat.FormatCurrency(data.Amount), goal.Name)))
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderGoals([]model.Goal{*goal}))
	return nil
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the income and expense categories",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderCategories())
		},
	}
}
