package order

import (
	"errors"
	"fmt"
	"time"
)

// Order numbers look like WT-20260829-0001: date-scoped, with a 4-digit
// sequence that restarts every calendar day.
const (
	numberPrefix     = "WT"
	maxDailySequence = 9999
)

// ErrSequenceExhausted means more than 9999 orders were placed in one
// calendar day. The field is deliberately not widened or wrapped.
var ErrSequenceExhausted = errors.New("daily order number sequence exhausted")

func dayKey(t time.Time) string {
	return t.Format("20060102")
}

// FormatNumber renders the order number for the given day and sequence.
func FormatNumber(t time.Time, seq int) (string, error) {
	if seq < 1 || seq > maxDailySequence {
		return "", ErrSequenceExhausted
	}
	return fmt.Sprintf("%s-%s-%04d", numberPrefix, dayKey(t), seq), nil
}
