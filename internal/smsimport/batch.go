package smsimport

import "strings"

// Entry is one pasted confirmation with the metadata lines that follow it.
type Entry struct {
	Message  string
	Metadata []string
}

// IsConfirmation reports whether line starts a new M-PESA message.
func IsConfirmation(line string) bool {
	if !strings.Contains(line, "Confirmed") {
		return false
	}
	return strings.Contains(line, "sent to") ||
		strings.Contains(line, "paid to") ||
		strings.Contains(line, "received")
}

// Split groups pasted lines into confirmations. Lines before the first
// confirmation are dropped.
func Split(content string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if IsConfirmation(line) {
			entries = append(entries, Entry{Message: line})
			continue
		}
		if len(entries) > 0 {
			last := &entries[len(entries)-1]
			last.Metadata = append(last.Metadata, line)
		}
	}
	return entries
}

// Count returns how many confirmations content holds.
func Count(content string) int {
	n := 0
	for _, line := range strings.Split(content, "\n") {
		if IsConfirmation(line) {
			n++
		}
	}
	return n
}
