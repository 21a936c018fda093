// Package passage defines the domain types shared across the ingestion,
// dictionary, and search resolvers.
package passage

import (
	"strings"
	"time"
)

// Passage is a stored text passage. Created by ingestion and immutable
// thereafter; the durable store owns it.
type Passage struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// WordCount is one (word, count) pair from the frequency table or the
// ranking cache.
type WordCount struct {
	Word  string `json:"word"`
	Count int64  `json:"count"`
}

// WordDefinition is one entry of the dictionary response: a ranked word,
// its frequency, and a definition (possibly a placeholder).
type WordDefinition struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
	Frequency  int64  `json:"frequency"`
}

// Operator is the boolean operator of a multi-term search query.
type Operator string

const (
	OperatorAnd Operator = "and"
	OperatorOr  Operator = "or"
)

// ParseOperator maps a raw request value onto an Operator,
// case-insensitively. The second return is false for anything else.
func ParseOperator(raw string) (Operator, bool) {
	switch {
	case strings.EqualFold(raw, string(OperatorAnd)):
		return OperatorAnd, true
	case strings.EqualFold(raw, string(OperatorOr)):
		return OperatorOr, true
	default:
		return "", false
	}
}

// Hit is one ranked entry returned by the search index.
type Hit struct {
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
}
