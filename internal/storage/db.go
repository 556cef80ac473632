package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var ErrMissingID = errors.New("transaction has no id")

const uiModeKey = "ui_mode"

type Database struct {
	db      *gorm.DB
	changes *notifier
	now     func() time.Time
	log     zerolog.Logger
	sqlLog  bool
}

type Option func(*Database)

// WithClock replaces the source of CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(d *Database) { d.now = now }
}

func WithLogger(log zerolog.Logger) Option {
	return func(d *Database) { d.log = log }
}

// WithSQLLog enables gorm's statement logger.
func WithSQLLog(enabled bool) Option {
	return func(d *Database) { d.sqlLog = enabled }
}

func NewDatabase(dbPath string, opts ...Option) (*Database, error) {
	d := &Database{
		changes: newNotifier(),
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}

	gormLogger := logger.Default.LogMode(logger.Silent)
	if d.sqlLog {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	// Single-row writes are atomic in SQLite; skipping the wrapping
	// transaction lets the change hooks run after the write is visible.
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Transaction{}, &Preference{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	d.db = db
	if err := d.registerHooks(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	d.log.Debug().Str("path", dbPath).Msg("database opened")
	return d, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}
	return sqlDB.Close()
}

// Insert stores tx, assigning an id when tx.ID is zero. A row with the same
// id is replaced wholesale.
func (d *Database) Insert(ctx context.Context, tx *Transaction) error {
	tx.CreatedAt = d.now().UnixMilli()
	err := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(tx).Error
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// Update replaces the row with tx.ID, inserting it if it no longer exists.
func (d *Database) Update(ctx context.Context, tx *Transaction) error {
	if tx.ID == 0 {
		return ErrMissingID
	}
	tx.CreatedAt = d.now().UnixMilli()
	if err := d.db.WithContext(ctx).Save(tx).Error; err != nil {
		return fmt.Errorf("failed to update transaction %d: %w", tx.ID, err)
	}
	return nil
}

// Delete removes the rows equal to tx in every column and reports how many
// went. A row edited since tx was read is left alone.
func (d *Database) Delete(ctx context.Context, tx Transaction) (int64, error) {
	res := d.db.WithContext(ctx).
		Where("id = ? AND title = ? AND amount = ? AND transaction_type = ? AND tag = ? AND date = ? AND note = ? AND created_at = ?",
			tx.ID, tx.Title, tx.Amount, tx.TransactionType, tx.Tag, tx.Date, tx.Note, tx.CreatedAt).
		Delete(&Transaction{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete transaction %d: %w", tx.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		d.log.Warn().Int("id", tx.ID).Msg("delete matched no row")
	}
	return res.RowsAffected, nil
}

func (d *Database) DeleteByID(ctx context.Context, id int) error {
	if err := d.db.WithContext(ctx).Delete(&Transaction{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete transaction %d: %w", id, err)
	}
	return nil
}

func (d *Database) ListAll(ctx context.Context) ([]Transaction, error) {
	var list []Transaction
	err := d.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return list, nil
}

func (d *Database) ListByType(ctx context.Context, transactionType string) ([]Transaction, error) {
	var list []Transaction
	err := d.db.WithContext(ctx).
		Where("transaction_type = ?", transactionType).
		Order("created_at DESC").
		Order("id DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s transactions: %w", transactionType, err)
	}
	return list, nil
}

// FindByID returns nil without error when no row has the id.
func (d *Database) FindByID(ctx context.Context, id int) (*Transaction, error) {
	var tx Transaction
	err := d.db.WithContext(ctx).Where("id = ?", id).Take(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}
	return &tx, nil
}

func (d *Database) QueryAll(ctx context.Context) <-chan Snapshot[[]Transaction] {
	return watch(ctx, d.changes, Transaction{}.TableName(), d.ListAll)
}

func (d *Database) QueryByType(ctx context.Context, transactionType string) <-chan Snapshot[[]Transaction] {
	return watch(ctx, d.changes, Transaction{}.TableName(), func(ctx context.Context) ([]Transaction, error) {
		return d.ListByType(ctx, transactionType)
	})
}

func (d *Database) QueryByID(ctx context.Context, id int) <-chan Snapshot[*Transaction] {
	return watch(ctx, d.changes, Transaction{}.TableName(), func(ctx context.Context) (*Transaction, error) {
		return d.FindByID(ctx, id)
	})
}

func (d *Database) SaveUIMode(ctx context.Context, dark bool) error {
	pref := Preference{Name: uiModeKey, Value: strconv.FormatBool(dark)}
	if err := d.db.WithContext(ctx).Save(&pref).Error; err != nil {
		return fmt.Errorf("failed to save ui mode: %w", err)
	}
	return nil
}

// UIMode reports whether dark mode is on; false until first saved.
func (d *Database) UIMode(ctx context.Context) (bool, error) {
	var pref Preference
	err := d.db.WithContext(ctx).Where("name = ?", uiModeKey).Take(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read ui mode: %w", err)
	}
	dark, err := strconv.ParseBool(pref.Value)
	if err != nil {
		return false, fmt.Errorf("failed to parse ui mode %q: %w", pref.Value, err)
	}
	return dark, nil
}
