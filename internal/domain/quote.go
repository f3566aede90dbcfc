package domain

import (
	"math/rand"
	"time"
)

// DefaultAuthor is used when a quote is submitted without an author.
const DefaultAuthor = "Unknown"

type Quote struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// RandomQuote picks one quote uniformly at random. The choice is made
// over the slice as an unordered set; store scan order never biases it.
// Returns false when the slice is empty.
func RandomQuote(quotes []Quote) (Quote, bool) {
	if len(quotes) == 0 {
		return Quote{}, false
	}
	return quotes[rand.Intn(len(quotes))], true
}
