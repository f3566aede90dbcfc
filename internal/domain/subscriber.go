package domain

import (
	"regexp"
	"strings"
	"time"
)

type Subscriber struct {
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribed_at,omitzero"`
}

// emailPattern is deliberately loose: a local part, an @, and a domain
// containing at least one dot. Deliverability is the SMTP relay's
// problem, not ours.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// NormalizeEmail strips surrounding whitespace from a submitted address.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// ValidEmail reports whether the address matches the subscription
// email pattern. Callers normalize first.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
