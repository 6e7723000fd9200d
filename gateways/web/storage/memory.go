package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xilidan/lingua/pkg/gen"
)

type memory struct {
	mu      sync.RWMutex
	ids     gen.UUIDGenerator
	records map[uuid.UUID]*Record
	keys    map[string]uuid.UUID
	now     func() time.Time
}

func NewMemory(ids gen.UUIDGenerator) Storage {
	return &memory{
		ids:     ids,
		records: make(map[uuid.UUID]*Record),
		keys:    make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

func (s *memory) Save(ctx context.Context, rec *Record) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := rec.SessionID + "/" + rec.Fingerprint + "/" + rec.Language

	stored := *rec
	stored.Source = rec.Source.Clone()
	stored.Translation = rec.Translation.Clone()
	stored.UpdatedAt = now

	if id, exists := s.keys[key]; exists {
		prev := s.records[id]
		stored.ID = prev.ID
		stored.CreatedAt = prev.CreatedAt
	} else {
		stored.ID = s.ids.Next()
		stored.CreatedAt = now
		s.keys[key] = stored.ID
	}

	s.records[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (s *memory) Get(ctx context.Context, sessionID string, id uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[id]
	if !exists || rec.SessionID != sessionID {
		return nil, ErrNotFound
	}
	out := *rec
	return &out, nil
}

// List returns the session's most recently updated records first.
func (s *memory) List(ctx context.Context, sessionID string, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0)
	for _, rec := range s.records {
		if rec.SessionID != sessionID {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memory) Close() error {
	return nil
}
