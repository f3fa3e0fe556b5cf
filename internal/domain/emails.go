package domain

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and case-folds an email for comparison and storage.
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

// IsValidEmail reports whether email has a local@domain.tld shape.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// EmailBatch partitions a bulk email input.
type EmailBatch struct {
	Valid      []string `json:"valid"`
	Invalid    []string `json:"invalid"`
	Duplicates []string `json:"duplicates"`
}

// ParseEmailList splits a comma-delimited input into valid-new, invalid and
// duplicate entries. Entries are trimmed and case-folded; empty entries are
// dropped. An entry is a duplicate when it is in known or was already
// accepted earlier in the same input. Order of first appearance is kept.
func ParseEmailList(input string, known []string) EmailBatch {
	seen := make(map[string]struct{}, len(known))
	for _, k := range known {
		seen[NormalizeEmail(k)] = struct{}{}
	}

	batch := EmailBatch{Valid: []string{}, Invalid: []string{}, Duplicates: []string{}}
	for _, raw := range strings.Split(input, ",") {
		email := NormalizeEmail(raw)
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			batch.Duplicates = append(batch.Duplicates, email)
			continue
		}
		if !IsValidEmail(email) {
			batch.Invalid = append(batch.Invalid, email)
			continue
		}
		seen[email] = struct{}{}
		batch.Valid = append(batch.Valid, email)
	}
	return batch
}
