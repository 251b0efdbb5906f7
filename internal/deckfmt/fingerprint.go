package deckfmt

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"studykeet/internal/domain"
)

// normalize cleans one content field: lowercase, trimmed, unix line endings.
func normalize(part string) string {
	p := strings.ToLower(part)
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, "\r\n", "\n")
	return p
}

// Fingerprint returns a stable identity for an imported card: the SHA-256 of
// its normalized subject, question and answer joined by newlines. Formatting
// and case changes in the deck file do not change the fingerprint; wording
// changes do, which makes an edited card a new card for scheduling purposes.
func Fingerprint(card domain.Flashcard) string {
	joined := strings.Join([]string{
		normalize(card.Subject),
		normalize(card.Question),
		normalize(card.Answer),
	}, "\n")
	return fmt.Sprintf("%x", sha256.Sum256([]byte(joined)))
}
