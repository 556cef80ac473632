package storage

import (
	"errors"
	"sync"
)

var (
	ErrAlreadyInitialized = errors.New("storage already initialized")
	ErrNotInitialized     = errors.New("storage not initialized")
)

var (
	instanceMu sync.Mutex
	instance   *Database
)

// Init opens the process-wide database. Call it once at startup and pair it
// with Shutdown.
func Init(dbPath string, opts ...Option) (*Database, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		return nil, ErrAlreadyInitialized
	}
	db, err := NewDatabase(dbPath, opts...)
	if err != nil {
		return nil, err
	}
	instance = db
	return db, nil
}

func Default() (*Database, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance == nil {
		return nil, ErrNotInitialized
	}
	return instance, nil
}

// Shutdown closes the process-wide database. It is a no-op when nothing is open.
func Shutdown() error {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance == nil {
		return nil
	}
	err := instance.Close()
	instance = nil
	return err
}
