package chat

import (
	"context"
	"fmt"

	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/service"
	"github.com/shopspring/decimal"
)

// StorageStore adapts the persistence layer to the chat Store contract.
type StorageStore struct {
	storage service.Storage
}

// NewStorageStore wraps storage.
func NewStorageStore(storage service.Storage) *StorageStore {
	return &StorageStore{storage: storage}
}

// CreateTransaction stores a confirmed transaction tagged as chat-sourced.
func (s *StorageStore) CreateTransaction(ctx context.Context, data model.TransactionData) error {
	txn, err := data.ToTransaction(model.SourceChat)
	if err != nil {
		return err
	}
	if err := s.storage.CreateTransaction(ctx, &txn); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// CreateBudget stores a confirmed budget.
func (s *StorageStore) CreateBudget(ctx context.Context, data model.BudgetData) error {
	budget := data.ToBudget()
	if err := s.storage.CreateBudget(ctx, &budget); err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}
	return nil
}

// ContributeToGoal adds a confirmed contribution to a goal.
func (s *StorageStore) ContributeToGoal(ctx context.Context, goalID int64, amount float64) error {
	if _, err := s.storage.ContributeToGoal(ctx, goalID, decimal.NewFromFloat(amount).Round(2)); err != nil {
		return fmt.Errorf("failed to contribute to goal %d: %w", goalID, err)
	}
	return nil
}

// Goals lists the user's goals.
func (s *StorageStore) Goals(ctx context.Context) ([]model.Goal, error) {
	return s.storage.GetGoals(ctx)
}
