package smsimport

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/NgigiN/expenso/internal/category"
	"github.com/NgigiN/expenso/internal/storage"
	"github.com/NgigiN/expenso/internal/validation"
)

// Message is one M-PESA confirmation SMS.
type Message struct {
	Code         string
	Type         string
	Amount       float64
	Counterparty string
	DateTime     time.Time
	Balance      float64
	Cost         float64
}

// Accepted variants: optional periods and spaces around "Confirmed", an
// optional "for account ..." in the counterparty, "New M-PESA balance" or
// "New business balance", and no space before AM/PM or "New".
const (
	money    = `Ksh[\d,]+(?:\.\d+)?`
	when     = `on\s+(\d{1,2}/\d{1,2}/\d{2})\s+at\s+(\d{1,2}:\d{2}\s?(?:AM|PM))\.?\s*`
	newBal   = `New\s+(?:M-PESA|business)\s+balance\s+is\s+(` + money + `)`
	txCost   = `\.\s*Transaction\s+cost,?\s*(` + money + `)(?:\.|\b)`
	trailing = `\s+\d{9,12}$`
)

var (
	outgoingRe = regexp.MustCompile(`(?i)(\w+)\s+Confirmed\.?\s+(` + money + `)\s+(?:sent|paid)\s+to\s+(.*?)\s*\.?\s+` + when + newBal + txCost)
	incomingRe = regexp.MustCompile(`(?i)(\w+)\s+Confirmed\.?\s*You\s+have\s+received\s+(` + money + `)\s+from\s+(.*?)\s*\.?\s+` + when + newBal)
	phoneRe    = regexp.MustCompile(trailing)
)

// Parse reads an outgoing (sent/paid) or incoming (received) confirmation.
func Parse(msg string) (*Message, error) {
	if m := outgoingRe.FindStringSubmatch(msg); m != nil {
		parsed, err := build(m[1:7], category.Expense)
		if err != nil {
			return nil, err
		}
		if parsed.Cost, err = parseMoney(m[7]); err != nil {
			return nil, fmt.Errorf("failed to parse cost: %w", err)
		}
		return parsed, nil
	}
	if m := incomingRe.FindStringSubmatch(msg); m != nil {
		return build(m[1:7], category.Income)
	}
	return nil, fmt.Errorf("not a valid M-PESA confirmation")
}

// build takes code, amount, counterparty, date, time and balance captures.
func build(fields []string, txType string) (*Message, error) {
	amount, err := parseMoney(fields[1])
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}

	counterparty := strings.Join(strings.Fields(strings.TrimSuffix(fields[2], ".")), " ")
	if txType == category.Income {
		counterparty = phoneRe.ReplaceAllString(counterparty, "")
	}

	clock := strings.ToUpper(strings.ReplaceAll(fields[4], " ", ""))
	dateTime, err := time.Parse("2/1/06 3:04PM", fields[3]+" "+clock)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date/time: %w", err)
	}

	balance, err := parseMoney(fields[5])
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}

	return &Message{
		Code:         strings.ToUpper(fields[0]),
		Type:         txType,
		Amount:       amount,
		Counterparty: counterparty,
		DateTime:     dateTime,
		Balance:      balance,
	}, nil
}

func parseMoney(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimPrefix(strings.TrimPrefix(s, "Ksh"), "KSH"), ",", "")
	return strconv.ParseFloat(s, 64)
}

// Draft turns the message into an unsaved transaction. An empty tag falls
// back to Miscellaneous and an empty note to the confirmation code.
func (m *Message) Draft(tag, note string) storage.Transaction {
	if tag == "" {
		tag = string(category.Miscellaneous)
	}
	if note == "" {
		note = m.Code
	}
	return storage.Transaction{
		Title:           m.Counterparty,
		Amount:          m.Amount,
		TransactionType: m.Type,
		Tag:             tag,
		Date:            m.DateTime.Format(validation.DateLayout),
		Note:            note,
	}
}
