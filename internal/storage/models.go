package storage

// Transaction represents a stored income or expense record.
type Transaction struct {
	ID              int     `gorm:"primaryKey;autoIncrement"`
	Title           string  `gorm:"not null"`
	Amount          float64 `gorm:"not null"`
	TransactionType string  `gorm:"index;not null"` // Income / Expense
	Tag             string  `gorm:"not null"`
	Date            string  `gorm:"not null"` // dd/MM/yyyy as entered
	Note            string  `gorm:"not null"`
	CreatedAt       int64   `gorm:"index;autoCreateTime:false"` // ms since epoch, set by the store
}

func (Transaction) TableName() string {
	return "all_transactions"
}

// Preference is a key/value row for UI settings.
type Preference struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value string `gorm:"not null"`
}

func (Preference) TableName() string {
	return "preferences"
}
