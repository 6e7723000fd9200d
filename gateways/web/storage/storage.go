// Package storage archives finished generations so they can be listed later.
package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/xilidan/lingua/services/transcriber/entity"
	"golang.org/x/crypto/blake2b"
)

var ErrNotFound = errors.New("history record not found")

// Record is one archived source/translation pair. Records belong to the
// session that produced them and are keyed within it by the fingerprint of
// the input and the target language; saving the same pair again replaces the
// stored transcripts. Reads never cross sessions.
type Record struct {
	ID          uuid.UUID         `json:"id"`
	SessionID   string            `json:"session_id"`
	Fingerprint string            `json:"fingerprint"`
	Mode        entity.InputMode  `json:"mode"`
	AudioName   string            `json:"audio_name,omitempty"`
	Language    string            `json:"language"`
	Source      entity.Transcript `json:"source"`
	Translation entity.Transcript `json:"translation"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type Storage interface {
	Save(ctx context.Context, rec *Record) (*Record, error)
	Get(ctx context.Context, sessionID string, id uuid.UUID) (*Record, error)
	List(ctx context.Context, sessionID string, limit int) ([]*Record, error)
	Close() error
}

// Fingerprint identifies an input by content, never by file name.
func Fingerprint(input entity.Input) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(input.Mode()))
	h.Write([]byte{0})
	if input.Audio != nil {
		h.Write(input.Audio.Data)
	} else {
		h.Write([]byte(input.Text))
	}
	return hex.EncodeToString(h.Sum(nil))
}
