package discord

import (
	"testing"
	"time"

	"github.com/NgigiN/expenso/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2024, time.February, 14, 9, 0, 0, 0, time.UTC)

func TestParseEntry(t *testing.T) {
	tx, err := parseEntry([]string{
		"Title: Lunch with team",
		"Amount: 12.50",
		"Type: expense",
		"Tag: food",
		"Date: 13/02/2024",
		"Note: paid: cash",
	}, today)
	require.NoError(t, err)

	assert.Equal(t, "Lunch with team", tx.Title)
	assert.Equal(t, 12.5, tx.Amount)
	assert.Equal(t, "Expense", tx.TransactionType)
	assert.Equal(t, "Food", tx.Tag)
	assert.Equal(t, "13/02/2024", tx.Date)
	assert.Equal(t, "paid: cash", tx.Note)
	assert.Zero(t, tx.ID)
}

func TestParseEntry_ShortFormsAndDefaultDate(t *testing.T) {
	tx, err := parseEntry([]string{"ti: Salary", "a: 2500", "ty: Income", "c: savings & debts", "r: march"}, today)
	require.NoError(t, err)

	assert.Equal(t, "Salary", tx.Title)
	assert.Equal(t, "Income", tx.TransactionType)
	assert.Equal(t, "Savings & Debts", tx.Tag)
	assert.Equal(t, "14/02/2024", tx.Date)
	assert.Equal(t, "march", tx.Note)
}

func TestParseEntry_Errors(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		field string
	}{
		{name: "missing title", lines: []string{"a: 1", "ty: Expense", "t: Food", "n: x"}, field: "title"},
		{name: "bad amount", lines: []string{"ti: x", "a: lots", "ty: Expense", "t: Food", "n: x"}, field: "amount"},
		{name: "missing type", lines: []string{"ti: x", "a: 1", "t: Food", "n: x"}, field: "transactionType"},
		{name: "unknown type", lines: []string{"ti: x", "a: 1", "ty: Transfer", "t: Food", "n: x"}, field: "transactionType"},
		{name: "missing tag", lines: []string{"ti: x", "a: 1", "ty: Expense", "n: x"}, field: "tag"},
		{name: "bad date", lines: []string{"ti: x", "a: 1", "ty: Expense", "t: Food", "d: 2024-02-14", "n: x"}, field: "date"},
		{name: "missing note", lines: []string{"ti: x", "a: 1", "ty: Expense", "t: Food"}, field: "note"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseEntry(tt.lines, today)
			var verr *validation.Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestParseEntry_UnknownTag(t *testing.T) {
	_, err := parseEntry([]string{"ti: x", "a: 1", "ty: Expense", "t: church", "n: x"}, today)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid tag "church"`)
}

func TestParseMetadata(t *testing.T) {
	tag, note, err := parseMetadata([]string{"Category: transportation", "Reason: matatu"})
	require.NoError(t, err)
	assert.Equal(t, "Transportation", tag)
	assert.Equal(t, "matatu", note)

	tag, note, err = parseMetadata(nil)
	require.NoError(t, err)
	assert.Empty(t, tag)
	assert.Empty(t, note)

	_, _, err = parseMetadata([]string{"t: travel"})
	assert.Error(t, err)
}
