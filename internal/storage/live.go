package storage

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// Snapshot is one emission of a live query: the full current result or the
// error that ended the stream.
type Snapshot[T any] struct {
	Value T
	Err   error
}

// notifier fans table-level change signals out to live queries.
type notifier struct {
	mu        sync.Mutex
	nextID    int
	listeners map[string]map[int]chan struct{}
}

func newNotifier() *notifier {
	return &notifier{listeners: make(map[string]map[int]chan struct{})}
}

func (n *notifier) subscribe(table string) (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	// One pending signal is enough: the listener re-reads the whole table.
	ch := make(chan struct{}, 1)
	if n.listeners[table] == nil {
		n.listeners[table] = make(map[int]chan struct{})
	}
	n.listeners[table][id] = ch

	return ch, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners[table], id)
	}
}

func (n *notifier) publish(table string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.listeners[table] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (d *Database) registerHooks() error {
	notify := func(db *gorm.DB) {
		if db.Error != nil || db.RowsAffected == 0 || db.Statement.Table == "" {
			return
		}
		d.changes.publish(db.Statement.Table)
	}

	cb := d.db.Callback()
	if err := cb.Create().After("gorm:create").Register("expenso:notify_create", notify); err != nil {
		return fmt.Errorf("failed to register create hook: %w", err)
	}
	if err := cb.Update().After("gorm:update").Register("expenso:notify_update", notify); err != nil {
		return fmt.Errorf("failed to register update hook: %w", err)
	}
	if err := cb.Delete().After("gorm:delete").Register("expenso:notify_delete", notify); err != nil {
		return fmt.Errorf("failed to register delete hook: %w", err)
	}
	return nil
}

// watch runs query now and again after every change to table until ctx ends.
// The returned channel is closed when the query fails or ctx is cancelled.
func watch[T any](ctx context.Context, n *notifier, table string, query func(context.Context) (T, error)) <-chan Snapshot[T] {
	// Subscribe before the first read so no change slips between the two.
	changes, unsubscribe := n.subscribe(table)
	out := make(chan Snapshot[T])

	go func() {
		defer close(out)
		defer unsubscribe()

		for {
			value, err := query(ctx)
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- Snapshot[T]{Value: value, Err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}

			select {
			case <-changes:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
