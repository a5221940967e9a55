package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/service"
)

// HistoryMonths is the default and maximum length of the score history.
const HistoryMonths = 6

// OnboardingAdvice is returned instead of generated advice while there is too little data.
const OnboardingAdvice = "Todavía no hay suficientes datos para darte un consejo. Registrá tus ingresos, gastos y presupuestos del mes y volvé a consultar."

// Store is the persistence the service reads from and writes snapshots to.
type Store interface {
	GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error)
	GetBudgets(ctx context.Context) ([]model.Budget, error)
	UpsertHealthSnapshot(ctx context.Context, snapshot *model.HealthSnapshot) error
	GetHealthSnapshot(ctx context.Context, month time.Time) (*model.HealthSnapshot, error)
	GetHealthSnapshots(ctx context.Context, since time.Time) ([]model.HealthSnapshot, error)
	UpdateHealthAdvice(ctx context.Context, month time.Time, advice string, at time.Time) error
}

// Advisor writes short personalised advice for a scored month.
type Advisor interface {
	Advise(ctx context.Context, result Result) (string, error)
}

// Notifier is implemented by stores that report committed changes.
type Notifier interface {
	OnChange(listener service.ChangeListener)
}

// Service evaluates the current month on demand and after store changes.
type Service struct {
	store   Store
	advisor Advisor
	logger  *slog.Logger
	now     func() time.Time
	dirty   chan struct{}
	stopCh  chan struct{}
	done    chan struct{}
	cfg     Config
	once    sync.Once
	timeout time.Duration
}

// NewService creates a health service. advisor may be nil, in which case Advice fails.
func NewService(store Store, advisor Advisor, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		advisor: advisor,
		cfg:     cfg.normalized(),
		logger:  common.ComponentLogger(logger, "health"),
		now:     time.Now,
		timeout: 30 * time.Second,
	}
}

// Evaluate scores the current month and stores its snapshot.
func (s *Service) Evaluate(ctx context.Context) (Result, error) {
	return s.EvaluateMonth(ctx, s.now())
}

// EvaluateMonth scores the month containing month. The snapshot is only
// written once the onboarding requirements are met.
func (s *Service) EvaluateMonth(ctx context.Context, month time.Time) (Result, error) {
	r := service.MonthRange(month)

	txns, err := s.store.GetTransactions(ctx, service.TransactionFilter{EndDate: &r.End})
	if err != nil {
		return Result{}, fmt.Errorf("%w: loading transactions: %w", common.ErrDataSource, err)
	}
	budgets, err := s.store.GetBudgets(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: loading budgets: %w", common.ErrDataSource, err)
	}

	res := Evaluate(Input{Month: r.Start, Transactions: txns, Budgets: budgets}, s.cfg)
	if res.NeedsOnboarding {
		s.logger.Debug("Health score needs onboarding",
			"month", r.Start.Format("2006-01"),
			"income", res.Onboarding.IncomeCount,
			"expenses", res.Onboarding.ExpenseCount,
			"budgets", res.Onboarding.BudgetCount)
		return res, nil
	}

	snap := res.Snapshot()
	if err := s.store.UpsertHealthSnapshot(ctx, &snap); err != nil {
		return Result{}, fmt.Errorf("%w: saving snapshot: %w", common.ErrDataSource, err)
	}
	s.logger.Debug("Health score updated", "month", r.Start.Format("2006-01"), "score", res.OverallScore)
	return res, nil
}

// History returns up to months snapshots ending with the current month, oldest first.
func (s *Service) History(ctx context.Context, months int) ([]model.HealthSnapshot, error) {
	if months <= 0 || months > HistoryMonths {
		months = HistoryMonths
	}
	since := service.MonthRange(s.now()).Start.AddDate(0, -(months - 1), 0)

	snaps, err := s.store.GetHealthSnapshots(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("%w: loading history: %w", common.ErrDataSource, err)
	}
	return snaps, nil
}

// Advice returns the cached advice for the current month, generating it when
// missing or when refresh is set.
func (s *Service) Advice(ctx context.Context, refresh bool) (string, error) {
	res, err := s.Evaluate(ctx)
	if err != nil {
		return "", err
	}
	if res.NeedsOnboarding {
		return OnboardingAdvice, nil
	}

	if !refresh {
		snap, err := s.store.GetHealthSnapshot(ctx, res.Month)
		switch {
		case err == nil && snap.CachedAdvice != "":
			return snap.CachedAdvice, nil
		case err != nil && !errors.Is(err, common.ErrNotFound):
			return "", fmt.Errorf("%w: loading snapshot: %w", common.ErrDataSource, err)
		}
	}

	if s.advisor == nil {
		return "", fmt.Errorf("%w: advisor", common.ErrMissingConfig)
	}
	advice, err := s.advisor.Advise(ctx, res)
	if err != nil {
		return "", fmt.Errorf("failed to generate advice: %w", err)
	}

	if err := s.store.UpdateHealthAdvice(ctx, res.Month, advice, s.now()); err != nil {
		s.logger.Warn("Failed to cache advice", "error", err)
	}
	return advice, nil
}

// Watch recomputes the current month in the background whenever n reports a change.
// Bursts of changes are coalesced into one evaluation. Call Close to stop.
func (s *Service) Watch(n Notifier) {
	s.once.Do(func() {
		s.dirty = make(chan struct{}, 1)
		s.stopCh = make(chan struct{})
		s.done = make(chan struct{})
		go s.recompute()
	})

	n.OnChange(func(ev model.ChangeEvent) {
		// Scores read transactions and budgets only.
		if ev.Kind == model.ChangeGoals || ev.Kind == model.ChangePayslips {
			return
		}
		select {
		case s.dirty <- struct{}{}:
		default:
		}
	})
}

func (s *Service) recompute() {
	defer close(s.done)
	for {
		select {
		case <-s.stopCh:
			return
		case <-s.dirty:
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			if _, err := s.Evaluate(ctx); err != nil {
				s.logger.Error("Failed to recompute health score", "error", err)
			}
			cancel()
		}
	}
}

// Close stops the background recompute loop started by Watch.
func (s *Service) Close() {
	if s.stopCh == nil {
		return
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	<-s.done
}
