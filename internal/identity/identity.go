// Package identity defines how two scraped publications, or two tracked
// cases, are compared for "same real-world record". Matching is a heuristic:
// court pages sometimes omit the agreement identifier on re-render, so a
// composite (date, document type, party prefix) key is used as fallback.
// Near-duplicate real events sharing all three would incorrectly merge; this
// is an accepted approximation.
package identity

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// DefaultPartyPrefixLen bounds how much of the parties text participates in
// composite matching, tolerating trailing-detail differences between
// re-renders of the same row.
const DefaultPartyPrefixLen = 40

// Attrs carries the fields of a publication that participate in identity.
type Attrs struct {
	AgreementID string
	Document    string
	Parties     string
	Date        time.Time
}

// Normalize trims leading/trailing whitespace and collapses internal
// whitespace runs to single spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeKey normalizes and case-folds a value used as a matching key.
func NormalizeKey(s string) string {
	return strings.ToLower(Normalize(s))
}

// PartyPrefix returns the normalized parties text truncated to n runes.
func PartyPrefix(parties string, n int) string {
	if n <= 0 {
		n = DefaultPartyPrefixLen
	}
	norm := NormalizeKey(parties)
	runes := []rune(norm)
	if len(runes) > n {
		return string(runes[:n])
	}
	return norm
}

// Match reports whether two publication candidates denote the same
// real-world publication. Symmetric: Match(a,b) == Match(b,a).
func Match(a, b Attrs, partyPrefixLen int) bool {
	idA := NormalizeKey(a.AgreementID)
	idB := NormalizeKey(b.AgreementID)
	if idA != "" && idB != "" {
		return idA == idB
	}

	return sameDay(a.Date, b.Date) &&
		NormalizeKey(a.Document) == NormalizeKey(b.Document) &&
		PartyPrefix(a.Parties, partyPrefixLen) == PartyPrefix(b.Parties, partyPrefixLen)
}

// CaseKey builds the natural key of a tracked case: normalized case number
// plus court identifier. Case numbers are court-assigned and may repeat
// across courts, so the number alone is never unique.
func CaseKey(caseNumber string, courtID int) string {
	return NormalizeKey(caseNumber) + "|" + strconv.Itoa(courtID)
}

// SameCase reports whether two (number, court) pairs identify the same case.
func SameCase(numberA string, courtA int, numberB string, courtB int) bool {
	return courtA == courtB && NormalizeKey(numberA) == NormalizeKey(numberB)
}

// HasLetterOrDigit reports whether s carries any meaningful content after
// normalization. Used to reject rows that are all punctuation or whitespace.
func HasLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
