package gen

import (
	"github.com/google/uuid"
)

type UUIDGenerator func() uuid.UUID

// UUID returns random (v4) ids. They double as capability handles, so they
// must not be guessable.
func UUID() UUIDGenerator {
	return func() uuid.UUID {
		return uuid.New()
	}
}

// Sequence returns a generator yielding ids in the given order and uuid.Nil
// afterwards.
func Sequence(ids ...uuid.UUID) UUIDGenerator {
	next := 0
	return func() uuid.UUID {
		if next >= len(ids) {
			return uuid.Nil
		}
		id := ids[next]
		next++
		return id
	}
}

func (g UUIDGenerator) Next() uuid.UUID {
	if g == nil {
		return uuid.Nil
	}

	return g()
}

func (g UUIDGenerator) NextString() string {
	return g.Next().String()
}
