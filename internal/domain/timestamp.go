package domain

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Timestamp is an instant in UTC.
type Timestamp struct {
	value time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{value: t.UTC()}
}

// Now returns the current instant.
func Now() Timestamp {
	return NewTimestamp(time.Now())
}

// ParseTimestamp accepts RFC 3339 with optional fractional seconds.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return Timestamp{}, fmt.Errorf("%w: invalid timestamp %q", ErrValidation, s)
	}
	return NewTimestamp(t), nil
}

func (t Timestamp) Time() time.Time {
	return t.value
}

func (t Timestamp) String() string {
	return t.value.Format(time.RFC3339Nano)
}

func (t Timestamp) Equals(other Timestamp) bool {
	return t.value.Equal(other.value)
}

func (t Timestamp) Before(other Timestamp) bool {
	return t.value.Before(other.value)
}

func (t Timestamp) IsZero() bool {
	return t.value.IsZero()
}

// DateValue is a calendar date without time of day.
type DateValue struct {
	value time.Time
}

// NewDateValue truncates t to its UTC calendar day.
func NewDateValue(t time.Time) DateValue {
	y, m, d := t.UTC().Date()
	return DateValue{value: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts "2006-01-02" or a full RFC 3339 timestamp.
func ParseDate(s string) (DateValue, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return NewDateValue(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return NewDateValue(t), nil
	}
	return DateValue{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
}

func (d DateValue) Time() time.Time {
	return d.value
}

func (d DateValue) String() string {
	return d.value.Format(dateLayout)
}

func (d DateValue) Equals(other DateValue) bool {
	return d.value.Equal(other.value)
}

func (d DateValue) IsZero() bool {
	return d.value.IsZero()
}
