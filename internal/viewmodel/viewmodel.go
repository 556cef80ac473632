package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/NgigiN/expenso/internal/export"
	"github.com/NgigiN/expenso/internal/jobs"
	"github.com/NgigiN/expenso/internal/repository"
	"github.com/NgigiN/expenso/internal/storage"
	"github.com/NgigiN/expenso/internal/summary"
	"github.com/NgigiN/expenso/internal/validation"
	"github.com/NgigiN/expenso/internal/viewstate"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

var ErrNothingToUndo = errors.New("no deleted transaction to restore")

type Repository interface {
	Insert(ctx context.Context, tx *storage.Transaction) error
	Update(ctx context.Context, tx *storage.Transaction) error
	Delete(ctx context.Context, tx storage.Transaction) (int64, error)
	DeleteByID(ctx context.Context, id int) error
	GetAllTransactions(ctx context.Context) <-chan storage.Snapshot[[]storage.Transaction]
	GetAllSingleTransaction(ctx context.Context, filter repository.Filter) <-chan storage.Snapshot[[]storage.Transaction]
	GetByID(ctx context.Context, id int) <-chan storage.Snapshot[*storage.Transaction]
}

type Exporter interface {
	Write(ctx context.Context, format export.Format, handle string, rows []export.Row) (string, error)
}

type Preferences interface {
	SaveUIMode(ctx context.Context, dark bool) error
	UIMode(ctx context.Context) (bool, error)
}

type (
	ListState   = viewstate.State[[]storage.Transaction]
	DetailState = viewstate.State[storage.Transaction]
	ExportState = viewstate.State[string]
)

// TransactionViewModel turns repository streams into observable state. All
// of its goroutines live in one scope that Close tears down.
type TransactionViewModel struct {
	repo     Repository
	exporter Exporter
	prefs    Preferences
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup
	writes *jobs.Queue

	mu           sync.Mutex
	closed       bool
	listGen      uint64
	listCancel   context.CancelFunc
	detailGen    uint64
	detailCancel context.CancelFunc
	lastDeleted  *storage.Transaction

	failMu sync.Mutex
	failed []error

	list        *viewstate.Flow[ListState]
	detail      *viewstate.Flow[DetailState]
	exportState *viewstate.Flow[ExportState]
	filter      *viewstate.Flow[repository.Filter]
}

func New(repo Repository, exporter Exporter, prefs Preferences, log zerolog.Logger) (*TransactionViewModel, error) {
	ctx, cancel := context.WithCancel(context.Background())
	vm := &TransactionViewModel{
		repo:        repo,
		exporter:    exporter,
		prefs:       prefs,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
		list:        viewstate.NewFlow(viewstate.NewLoading[[]storage.Transaction]()),
		detail:      viewstate.NewFlow(viewstate.NewLoading[storage.Transaction]()),
		exportState: viewstate.NewFlow(viewstate.NewEmpty[string]()),
		filter:      viewstate.NewFlow(repository.Overall),
	}
	vm.writes = jobs.NewQueue(64, log, vm.writeDone)
	if err := vm.writes.Start(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start write queue: %w", err)
	}

	vm.LoadTransactions()
	return vm, nil
}

func (vm *TransactionViewModel) List() *viewstate.Flow[ListState]           { return vm.list }
func (vm *TransactionViewModel) Detail() *viewstate.Flow[DetailState]       { return vm.detail }
func (vm *TransactionViewModel) Export() *viewstate.Flow[ExportState]       { return vm.exportState }
func (vm *TransactionViewModel) Filter() *viewstate.Flow[repository.Filter] { return vm.filter }

func (vm *TransactionViewModel) Overall()    { vm.SetFilter(repository.Overall) }
func (vm *TransactionViewModel) AllIncome()  { vm.SetFilter(repository.Income) }
func (vm *TransactionViewModel) AllExpense() { vm.SetFilter(repository.Expense) }

// SetFilter switches the list to f. Results still in flight for the previous
// filter are dropped.
func (vm *TransactionViewModel) SetFilter(f repository.Filter) {
	vm.filter.Set(f)
	vm.subscribeList(f)
}

// LoadTransactions resubscribes the list with the current filter.
func (vm *TransactionViewModel) LoadTransactions() {
	vm.subscribeList(vm.filter.Value())
}

func (vm *TransactionViewModel) subscribeList(f repository.Filter) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.closed {
		return
	}

	if vm.listCancel != nil {
		vm.listCancel()
	}
	vm.listGen++
	gen := vm.listGen
	ctx, cancel := context.WithCancel(vm.ctx)
	vm.listCancel = cancel
	vm.list.Set(viewstate.NewLoading[[]storage.Transaction]())

	stream := vm.repo.GetAllSingleTransaction(ctx, f)
	vm.wg.Go(func() {
		for snap := range stream {
			vm.mu.Lock()
			if gen != vm.listGen {
				vm.mu.Unlock()
				return
			}
			switch {
			case snap.Err != nil:
				vm.log.Error().Err(snap.Err).Str("filter", string(f)).Msg("transaction list query failed")
				vm.list.Set(viewstate.NewError[[]storage.Transaction](snap.Err))
			case len(snap.Value) == 0:
				vm.list.Set(viewstate.NewEmpty[[]storage.Transaction]())
			default:
				vm.list.Set(viewstate.NewSuccess(snap.Value))
			}
			vm.mu.Unlock()
		}
	})
}

// GetByID points the detail slot at the row with id. A missing row shows up
// as Empty.
func (vm *TransactionViewModel) GetByID(id int) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.closed {
		return
	}

	if vm.detailCancel != nil {
		vm.detailCancel()
	}
	vm.detailGen++
	gen := vm.detailGen
	ctx, cancel := context.WithCancel(vm.ctx)
	vm.detailCancel = cancel
	vm.detail.Set(viewstate.NewLoading[storage.Transaction]())

	stream := vm.repo.GetByID(ctx, id)
	vm.wg.Go(func() {
		for snap := range stream {
			vm.mu.Lock()
			if gen != vm.detailGen {
				vm.mu.Unlock()
				return
			}
			switch {
			case snap.Err != nil:
				vm.detail.Set(viewstate.NewError[storage.Transaction](snap.Err))
			case snap.Value == nil:
				vm.detail.Set(viewstate.NewEmpty[storage.Transaction]())
			default:
				vm.detail.Set(viewstate.NewSuccess(*snap.Value))
			}
			vm.mu.Unlock()
		}
	})
}

// InsertTransaction validates tx and queues it. A *validation.Error is
// returned synchronously and nothing is written.
func (vm *TransactionViewModel) InsertTransaction(tx storage.Transaction) error {
	if err := validation.ValidateTransaction(tx); err != nil {
		return err
	}
	return vm.enqueue("insert", func(ctx context.Context) error {
		return vm.repo.Insert(ctx, &tx)
	})
}

func (vm *TransactionViewModel) UpdateTransaction(tx storage.Transaction) error {
	if err := validation.ValidateTransaction(tx); err != nil {
		return err
	}
	return vm.enqueue("update", func(ctx context.Context) error {
		return vm.repo.Update(ctx, &tx)
	})
}

// DeleteTransaction queues removal of tx and remembers it for UndoDelete.
func (vm *TransactionViewModel) DeleteTransaction(tx storage.Transaction) error {
	vm.mu.Lock()
	deleted := tx
	vm.lastDeleted = &deleted
	vm.mu.Unlock()

	return vm.enqueue("delete", func(ctx context.Context) error {
		_, err := vm.repo.Delete(ctx, tx)
		return err
	})
}

func (vm *TransactionViewModel) DeleteByID(id int) error {
	return vm.enqueue("delete_by_id", func(ctx context.Context) error {
		return vm.repo.DeleteByID(ctx, id)
	})
}

// UndoDelete re-inserts the last deleted transaction. It gets a new id.
func (vm *TransactionViewModel) UndoDelete() error {
	vm.mu.Lock()
	last := vm.lastDeleted
	vm.lastDeleted = nil
	vm.mu.Unlock()
	if last == nil {
		return ErrNothingToUndo
	}

	restored := *last
	restored.ID = 0
	return vm.enqueue("undo_delete", func(ctx context.Context) error {
		return vm.repo.Insert(ctx, &restored)
	})
}

func (vm *TransactionViewModel) enqueue(name string, run func(ctx context.Context) error) error {
	return vm.writes.Publish(vm.ctx, jobs.NewJob(name, run))
}

func (vm *TransactionViewModel) writeDone(job *jobs.Job) {
	if job.Err == nil || errors.Is(job.Err, context.Canceled) {
		return
	}
	err := fmt.Errorf("%s failed: %w", job.Name, job.Err)

	vm.failMu.Lock()
	vm.failed = append(vm.failed, err)
	vm.failMu.Unlock()

	vm.list.Set(viewstate.NewError[[]storage.Transaction](err))
}

// Sync waits for every write queued so far.
func (vm *TransactionViewModel) Sync(ctx context.Context) error {
	return vm.writes.Sync(ctx)
}

// Flush waits like Sync and returns the writes that failed since the
// previous Flush, joined.
func (vm *TransactionViewModel) Flush(ctx context.Context) error {
	if err := vm.writes.Sync(ctx); err != nil {
		return err
	}

	vm.failMu.Lock()
	failed := vm.failed
	vm.failed = nil
	vm.failMu.Unlock()

	return errors.Join(failed...)
}

func (vm *TransactionViewModel) ExportTransactionsToCSV(handle string) {
	vm.ExportTransactions(handle, export.FormatCSV)
}

// ExportTransactions writes the current unfiltered list to handle. Progress
// is reported on ExportState.
func (vm *TransactionViewModel) ExportTransactions(handle string, format export.Format) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.closed {
		return
	}

	vm.exportState.Set(viewstate.NewLoading[string]())
	vm.wg.Go(func() {
		ctx, cancel := context.WithCancel(vm.ctx)
		defer cancel()

		snap, ok := <-vm.repo.GetAllTransactions(ctx)
		if !ok {
			vm.exportState.Set(viewstate.NewError[string](context.Canceled))
			return
		}
		if snap.Err != nil {
			vm.exportState.Set(viewstate.NewError[string](snap.Err))
			return
		}

		written, err := vm.exporter.Write(ctx, format, handle, export.RowsFromTransactions(snap.Value))
		if err != nil {
			vm.log.Error().Err(err).Str("handle", handle).Msg("export failed")
			vm.exportState.Set(viewstate.NewError[string](err))
			return
		}
		vm.exportState.Set(viewstate.NewSuccess(written))
	})
}

// Totals sums the list as currently shown.
func (vm *TransactionViewModel) Totals() summary.Totals {
	state := vm.list.Value()
	if state.Status != viewstate.Success {
		return summary.Compute(nil)
	}
	return summary.Compute(state.Data)
}

// SetDarkMode saves the preference in the background.
func (vm *TransactionViewModel) SetDarkMode(dark bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.closed {
		return
	}
	vm.wg.Go(func() {
		if err := vm.prefs.SaveUIMode(vm.ctx, dark); err != nil {
			vm.log.Error().Err(err).Bool("dark", dark).Msg("failed to save ui mode")
		}
	})
}

func (vm *TransactionViewModel) UIMode(ctx context.Context) (bool, error) {
	return vm.prefs.UIMode(ctx)
}

// Close stops every subscription and queued write and returns once they
// have exited.
func (vm *TransactionViewModel) Close() {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return
	}
	vm.closed = true
	vm.cancel()
	vm.mu.Unlock()

	if err := vm.writes.Stop(context.Background()); err != nil {
		vm.log.Warn().Err(err).Msg("write queue did not stop cleanly")
	}
	vm.wg.Wait()
}
