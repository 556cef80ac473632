package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/NgigiN/expenso/internal/category"
	"github.com/NgigiN/expenso/internal/storage"
)

// Filter selects which rows the transaction list observes.
type Filter string

const (
	Overall Filter = "Overall"
	Income  Filter = category.Income
	Expense Filter = category.Expense
)

func Filters() []Filter {
	return []Filter{Overall, Income, Expense}
}

// ParseFilter accepts a filter name in any case.
func ParseFilter(s string) (Filter, error) {
	for _, f := range Filters() {
		if strings.EqualFold(strings.TrimSpace(s), string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q, use overall, income or expense", s)
}

// Store is the storage surface the repository needs.
type Store interface {
	Insert(ctx context.Context, tx *storage.Transaction) error
	Update(ctx context.Context, tx *storage.Transaction) error
	Delete(ctx context.Context, tx storage.Transaction) (int64, error)
	DeleteByID(ctx context.Context, id int) error
	QueryAll(ctx context.Context) <-chan storage.Snapshot[[]storage.Transaction]
	QueryByType(ctx context.Context, transactionType string) <-chan storage.Snapshot[[]storage.Transaction]
	QueryByID(ctx context.Context, id int) <-chan storage.Snapshot[*storage.Transaction]
}

type TransactionRepo struct {
	store Store
}

func NewTransactionRepo(store Store) *TransactionRepo {
	return &TransactionRepo{store: store}
}

func (r *TransactionRepo) Insert(ctx context.Context, tx *storage.Transaction) error {
	return r.store.Insert(ctx, tx)
}

func (r *TransactionRepo) Update(ctx context.Context, tx *storage.Transaction) error {
	return r.store.Update(ctx, tx)
}

func (r *TransactionRepo) Delete(ctx context.Context, tx storage.Transaction) (int64, error) {
	return r.store.Delete(ctx, tx)
}

func (r *TransactionRepo) DeleteByID(ctx context.Context, id int) error {
	return r.store.DeleteByID(ctx, id)
}

func (r *TransactionRepo) GetAllTransactions(ctx context.Context) <-chan storage.Snapshot[[]storage.Transaction] {
	return r.store.QueryAll(ctx)
}

// GetAllSingleTransaction streams every row for Overall, otherwise only rows
// of the filter's type.
func (r *TransactionRepo) GetAllSingleTransaction(ctx context.Context, filter Filter) <-chan storage.Snapshot[[]storage.Transaction] {
	if filter == Overall {
		return r.GetAllTransactions(ctx)
	}
	return r.store.QueryByType(ctx, string(filter))
}

func (r *TransactionRepo) GetByID(ctx context.Context, id int) <-chan storage.Snapshot[*storage.Transaction] {
	return r.store.QueryByID(ctx, id)
}
