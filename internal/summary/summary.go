// Package summary computes the dashboard totals for a list of transactions.
package summary

import (
	"github.com/NgigiN/expenso/internal/category"
	"github.com/NgigiN/expenso/internal/storage"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
	Count   int
}

// Compute partitions list into income and everything else. Amounts are summed
// as decimals so the balance does not drift with float rounding.
func Compute(list []storage.Transaction) Totals {
	income := decimal.Zero
	expense := decimal.Zero
	for _, tx := range list {
		amount := decimal.NewFromFloat(tx.Amount)
		if tx.TransactionType == category.Income {
			income = income.Add(amount)
		} else {
			expense = expense.Add(amount)
		}
	}
	return Totals{
		Income:  income,
		Expense: expense,
		Balance: income.Sub(expense),
		Count:   len(list),
	}
}

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatUSD renders d as dollars with grouping and two decimals, e.g. "-$1,250.00".
func FormatUSD(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	f, _ := d.Round(2).Float64()
	return sign + "$" + printer.Sprint(number.Decimal(f, number.Scale(2)))
}
