package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/xilidan/lingua/services/transcriber/entity"
)

// ErrBusy rejects a generation request while another one runs in the same session.
var ErrBusy = errors.New("a generation is already in progress")

// Gateway is the remote model capability the pipeline depends on.
type Gateway interface {
	Transcribe(ctx context.Context, input entity.Input) (entity.Transcript, error)
	Translate(ctx context.Context, items entity.Transcript, lang entity.Language) (entity.Transcript, error)
}

type State string

const (
	StateIdle         State = "idle"
	StateTranscribing State = "transcribing"
	StateTranslating  State = "translating"
	StateDone         State = "done"
	StateErrored      State = "errored"
)

func (s State) Busy() bool {
	return s == StateTranscribing || s == StateTranslating
}

// Request is one press of the generate control.
type Request struct {
	Mode     entity.InputMode
	Input    entity.Input
	Language entity.Language
}

const (
	msgSelectAudio    = "Please select an audio file"
	msgEnterText      = "Please enter some text"
	msgSelectLanguage = "Please select a target language"
)

// normalize validates the request and keeps only the input matching its mode.
func (r Request) normalize() (Request, error) {
	if r.Mode == "" {
		r.Mode = r.Input.Mode()
	}

	switch r.Mode {
	case entity.ModeText:
		r.Input.Audio = nil
		if r.Input.Empty() {
			return r, &entity.ValidationError{Message: msgEnterText}
		}
	default:
		r.Mode = entity.ModeAudio
		r.Input.Text = ""
		if r.Input.Audio == nil || r.Input.Empty() {
			return r, &entity.ValidationError{Message: msgSelectAudio}
		}
	}

	if r.Language.IsZero() {
		return r, &entity.ValidationError{Message: msgSelectLanguage}
	}
	return r, nil
}

// Snapshot is a consistent copy of a session's visible state.
type Snapshot struct {
	ID          string
	State       State
	Mode        entity.InputMode
	AudioName   string
	Language    entity.Language
	Source      entity.Transcript
	Translation entity.Transcript
	Err         error
	UpdatedAt   time.Time
}

// Message is the text shown next to the form, empty when there is no error.
func (s Snapshot) Message() string {
	return entity.UserMessage(s.Err)
}

// Exportable reports whether both transcripts are available.
func (s Snapshot) Exportable() bool {
	return s.Source != nil && s.Translation != nil
}
