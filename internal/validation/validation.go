package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/NgigiN/expenso/internal/category"
	"github.com/NgigiN/expenso/internal/storage"
)

// DateLayout is the dd/MM/yyyy format dates are entered in.
const DateLayout = "02/01/2006"

// Error reports the first field of a submission that failed validation.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ParseAmount parses user input, returning NaN for anything unparseable or
// not finite.
func ParseAmount(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// ValidateTransaction checks the required fields in form order and stops at
// the first failure.
func ValidateTransaction(tx storage.Transaction) error {
	switch {
	case tx.Title == "":
		return &Error{Field: "title", Message: "Title must not be empty"}
	case math.IsNaN(tx.Amount):
		return &Error{Field: "amount", Message: "Amount must not be empty"}
	case math.IsInf(tx.Amount, 0):
		return &Error{Field: "amount", Message: "Amount must be a finite number"}
	case tx.TransactionType == "":
		return &Error{Field: "transactionType", Message: "Transaction type must not be empty"}
	case !category.IsType(tx.TransactionType):
		return &Error{Field: "transactionType", Message: "Transaction type must be Income or Expense"}
	case tx.Tag == "":
		return &Error{Field: "tag", Message: "Tag must not be empty"}
	case tx.Date == "":
		return &Error{Field: "date", Message: "Date must not be empty"}
	case tx.Note == "":
		return &Error{Field: "note", Message: "Note must not be empty"}
	}
	return nil
}

// ValidateDate checks a dd/MM/yyyy date typed outside the date picker.
func ValidateDate(date string) error {
	if date == "" {
		return &Error{Field: "date", Message: "Date must not be empty"}
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return &Error{Field: "date", Message: fmt.Sprintf("Date %q is not dd/MM/yyyy", date)}
	}
	return nil
}
