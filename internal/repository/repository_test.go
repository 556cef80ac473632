package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/NgigiN/expenso/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*TransactionRepo, *storage.Database) {
	t.Helper()
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	base := time.UnixMilli(1_700_000_000_000)
	tick := 0
	db, err := storage.NewDatabase(path, storage.WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Millisecond)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTransactionRepo(db), db
}

func first[T any](t *testing.T, ch <-chan storage.Snapshot[T]) T {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "stream closed")
		require.NoError(t, snap.Err)
		return snap.Value
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	var zero T
	return zero
}

func seed(t *testing.T, repo *TransactionRepo) {
	t.Helper()
	ctx := context.Background()
	rows := []storage.Transaction{
		{Title: "Salary", Amount: 3000, TransactionType: "Income", Tag: "Savings & Debts", Date: "01/03/2024", Note: "march"},
		{Title: "Rent", Amount: 1200, TransactionType: "Expense", Tag: "Housing", Date: "02/03/2024", Note: "flat"},
		{Title: "Refund", Amount: 40, TransactionType: "Income", Tag: "Miscellaneous", Date: "05/03/2024", Note: "store"},
		{Title: "Dinner", Amount: 60, TransactionType: "Expense", Tag: "Food", Date: "06/03/2024", Note: "friends"},
	}
	for i := range rows {
		require.NoError(t, repo.Insert(ctx, &rows[i]))
	}
}

func TestGetAllSingleTransaction_OverallMatchesAll(t *testing.T) {
	repo, _ := newTestRepo(t)
	seed(t, repo)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	overall := first(t, repo.GetAllSingleTransaction(ctx, Overall))
	all := first(t, repo.GetAllTransactions(ctx))

	assert.Equal(t, all, overall)
	assert.Len(t, overall, 4)
}

func TestGetAllSingleTransaction_ByType(t *testing.T) {
	repo, _ := newTestRepo(t)
	seed(t, repo)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, filter := range []Filter{Income, Expense} {
		t.Run(string(filter), func(t *testing.T) {
			list := first(t, repo.GetAllSingleTransaction(ctx, filter))
			require.Len(t, list, 2)
			for i, tx := range list {
				assert.Equal(t, string(filter), tx.TransactionType)
				if i > 0 {
					assert.Greater(t, list[i-1].CreatedAt, tx.CreatedAt)
				}
			}
		})
	}
}

func TestGetByID_PassThrough(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tx := storage.Transaction{Title: "Gift", Amount: 25, TransactionType: "Expense", Tag: "Personal Spending", Date: "10/03/2024", Note: "birthday"}
	require.NoError(t, repo.Insert(ctx, &tx))

	got := first(t, repo.GetByID(ctx, tx.ID))
	require.NotNil(t, got)
	assert.Equal(t, tx, *got)

	require.NoError(t, repo.DeleteByID(ctx, tx.ID))
	assert.Nil(t, first(t, repo.GetByID(ctx, tx.ID)))
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{"Overall", Overall, false},
		{"income", Income, false},
		{" EXPENSE ", Expense, false},
		{"all", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilter(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
