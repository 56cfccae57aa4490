package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is a validated UUID identifier. The zero value means "not assigned".
type ID struct {
	value uuid.UUID
}

// NewID generates a random (v4) identifier.
func NewID() ID {
	return ID{value: uuid.New()}
}

// ParseID validates s as a UUID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("%w: invalid id %q", ErrValidation, s)
	}
	return ID{value: u}, nil
}

// MustParseID panics on invalid input. Intended for tests and constants.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseIDs parses every element of ss.
func ParseIDs(ss []string) ([]ID, error) {
	ids := make([]ID, 0, len(ss))
	for _, s := range ss {
		id, err := ParseID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (id ID) String() string {
	return id.value.String()
}

func (id ID) Equals(other ID) bool {
	return id.value == other.value
}

func (id ID) IsZero() bool {
	return id.value == uuid.Nil
}

// UUID exposes the underlying value for persistence adapters.
func (id ID) UUID() uuid.UUID {
	return id.value
}

// IDFromUUID wraps a UUID read from storage.
func IDFromUUID(u uuid.UUID) ID {
	return ID{value: u}
}

// IDStrings converts ids to their string form, preserving order.
func IDStrings(ids []ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
