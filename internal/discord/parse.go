package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/NgigiN/expenso/internal/category"
	"github.com/NgigiN/expenso/internal/storage"
	"github.com/NgigiN/expenso/internal/validation"
)

// Field prefixes accepted on metadata lines, long and short forms.
var prefixes = map[string]string{
	"title:":    "title",
	"ti:":       "title",
	"amount:":   "amount",
	"a:":        "amount",
	"type:":     "type",
	"ty:":       "type",
	"tag:":      "tag",
	"t:":        "tag",
	"category:": "tag",
	"c:":        "tag",
	"date:":     "date",
	"d:":        "date",
	"note:":     "note",
	"n:":        "note",
	"reason:":   "note",
	"r:":        "note",
}

func parseFields(lines []string) map[string]string {
	fields := make(map[string]string)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		field, ok := prefixes[strings.ToLower(line[:idx+1])]
		if !ok {
			continue
		}
		fields[field] = strings.TrimSpace(line[idx+1:])
	}
	return fields
}

// normalizeTag maps tag to its canonical spelling, ignoring case.
func normalizeTag(tag string) (string, error) {
	for _, t := range category.Tags() {
		if strings.EqualFold(tag, string(t)) {
			return string(t), nil
		}
	}
	return "", fmt.Errorf("invalid tag %q, use one of: %s", tag, tagList())
}

func normalizeType(t string) string {
	for _, known := range category.Types() {
		if strings.EqualFold(t, known) {
			return known
		}
	}
	return t
}

func tagList() string {
	names := make([]string, 0, len(category.Tags()))
	for _, t := range category.Tags() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

// parseEntry builds a transaction from the lines after !add. The date
// defaults to today.
func parseEntry(lines []string, now time.Time) (storage.Transaction, error) {
	fields := parseFields(lines)

	tx := storage.Transaction{
		Title:           fields["title"],
		Amount:          validation.ParseAmount(fields["amount"]),
		TransactionType: normalizeType(fields["type"]),
		Date:            fields["date"],
		Note:            fields["note"],
	}
	if tx.Date == "" {
		tx.Date = now.Format(validation.DateLayout)
	}
	if fields["tag"] != "" {
		tag, err := normalizeTag(fields["tag"])
		if err != nil {
			return storage.Transaction{}, err
		}
		tx.Tag = tag
	}

	if err := validation.ValidateTransaction(tx); err != nil {
		return storage.Transaction{}, err
	}
	if err := validation.ValidateDate(tx.Date); err != nil {
		return storage.Transaction{}, err
	}
	return tx, nil
}

// parseMetadata reads the optional tag and note under a pasted M-PESA message.
func parseMetadata(lines []string) (tag, note string, err error) {
	fields := parseFields(lines)
	if fields["tag"] != "" {
		if tag, err = normalizeTag(fields["tag"]); err != nil {
			return "", "", err
		}
	}
	return tag, fields["note"], nil
}

// applyEdits overwrites the fields named in lines and keeps the rest of tx.
func applyEdits(tx storage.Transaction, lines []string) (storage.Transaction, error) {
	fields := parseFields(lines)
	if len(fields) == 0 {
		return storage.Transaction{}, fmt.Errorf("no fields to change")
	}

	for field, value := range fields {
		switch field {
		case "title":
			tx.Title = value
		case "amount":
			tx.Amount = validation.ParseAmount(value)
		case "type":
			tx.TransactionType = normalizeType(value)
		case "tag":
			tag, err := normalizeTag(value)
			if err != nil {
				return storage.Transaction{}, err
			}
			tx.Tag = tag
		case "date":
			tx.Date = value
		case "note":
			tx.Note = value
		}
	}

	if err := validation.ValidateTransaction(tx); err != nil {
		return storage.Transaction{}, err
	}
	if err := validation.ValidateDate(tx.Date); err != nil {
		return storage.Transaction{}, err
	}
	return tx, nil
}
