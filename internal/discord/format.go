package discord

import (
	"fmt"
	"strings"

	"github.com/NgigiN/expenso/internal/category"
	"github.com/NgigiN/expenso/internal/repository"
	"github.com/NgigiN/expenso/internal/storage"
	"github.com/NgigiN/expenso/internal/summary"
	"github.com/shopspring/decimal"
)

const listLimit = 10

func money(amount float64) string {
	return summary.FormatUSD(decimal.NewFromFloat(amount))
}

func formatTransaction(tx storage.Transaction) string {
	sign := "-"
	if tx.TransactionType == category.Income {
		sign = "+"
	}
	return fmt.Sprintf("• `#%d` **%s%s** %s (%s) %s\n  %s", tx.ID, sign, money(tx.Amount), tx.Title, tx.Tag, tx.Date, tx.Note)
}

func formatList(filter repository.Filter, list []storage.Transaction) string {
	if len(list) == 0 {
		return fmt.Sprintf("No %s transactions found.", strings.ToLower(string(filter)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **%s Transactions**\n\n", filter)

	limit := min(listLimit, len(list))
	for _, tx := range list[:limit] {
		b.WriteString(formatTransaction(tx))
		b.WriteString("\n")
	}
	if len(list) > limit {
		fmt.Fprintf(&b, "... and %d more transactions\n", len(list)-limit)
	}
	return b.String()
}

func formatSummary(t summary.Totals) string {
	if t.Count == 0 {
		return "No transactions found."
	}
	return fmt.Sprintf("📊 **Transaction Summary**\n\n**Income**: %s\n**Expense**: %s\n**Balance**: %s\n(%d transactions)",
		summary.FormatUSD(t.Income), summary.FormatUSD(t.Expense), summary.FormatUSD(t.Balance), t.Count)
}

func formatSaved(tx storage.Transaction) string {
	return fmt.Sprintf("Tracked %s: %s %s in %s on %s", strings.ToLower(tx.TransactionType), money(tx.Amount), tx.Title, tx.Tag, tx.Date)
}
