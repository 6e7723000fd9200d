package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/xilidan/lingua/pkg/metrics"
	"github.com/xilidan/lingua/services/transcriber/entity"
)

// DoneFunc observes every finished pipeline. It runs on the pipeline goroutine.
type DoneFunc func(ctx context.Context, snap Snapshot, input entity.Input)

// Session owns one source/translation pair and runs at most one pipeline at a time.
type Session struct {
	id      string
	gateway Gateway
	metrics *metrics.Metrics
	log     *slog.Logger
	onDone  DoneFunc

	mu          sync.Mutex
	state       State
	mode        entity.InputMode
	audioName   string
	lang        entity.Language
	source      entity.Transcript
	translation entity.Transcript
	err         error
	updatedAt   time.Time
	done        chan struct{}
	cancel      context.CancelFunc
}

func NewSession(id string, gateway Gateway, m *metrics.Metrics, log *slog.Logger) *Session {
	done := make(chan struct{})
	close(done)

	return &Session{
		id:        id,
		gateway:   gateway,
		metrics:   m,
		log:       log.With(slog.String("session_id", id)),
		state:     StateIdle,
		updatedAt: time.Now(),
		done:      done,
	}
}

func (s *Session) ID() string {
	return s.id
}

// OnDone installs the completion hook. It must be set before the first run.
func (s *Session) OnDone(fn DoneFunc) {
	s.mu.Lock()
	s.onDone = fn
	s.mu.Unlock()
}

// Start validates the request, clears the previous results and runs the
// pipeline in the background. Validation and busy errors are returned
// synchronously and leave the session untouched.
func (s *Session) Start(ctx context.Context, req Request) error {
	req, runCtx, err := s.begin(ctx, req)
	if err != nil {
		return err
	}

	go s.run(runCtx, req)
	return nil
}

// Run is Start without the goroutine. It returns the stage error, if any.
func (s *Session) Run(ctx context.Context, req Request) error {
	req, runCtx, err := s.begin(ctx, req)
	if err != nil {
		return err
	}

	return s.run(runCtx, req)
}

func (s *Session) begin(ctx context.Context, req Request) (Request, context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Busy() {
		return req, nil, ErrBusy
	}

	req, err := req.normalize()
	if err != nil {
		s.log.Debug("generation request rejected", slog.String("reason", err.Error()))
		return req, nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.state = StateTranscribing
	s.mode = req.Mode
	s.audioName = ""
	if req.Input.Audio != nil {
		s.audioName = req.Input.Audio.Name
	}
	s.lang = req.Language
	s.source = nil
	s.translation = nil
	s.err = nil
	s.updatedAt = time.Now()

	s.log.Info("generation started",
		slog.String("mode", string(req.Mode)),
		slog.String("language", req.Language.ID))
	return req, runCtx, nil
}

func (s *Session) run(ctx context.Context, req Request) error {
	source, err := s.gateway.Transcribe(ctx, req.Input)
	if err != nil {
		var transcriptionErr *entity.TranscriptionError
		if !errors.As(err, &transcriptionErr) {
			err = &entity.TranscriptionError{Cause: err}
		}
		return s.finish(ctx, req, StateErrored, err)
	}

	s.mu.Lock()
	s.source = source.Clone()
	s.state = StateTranslating
	s.updatedAt = time.Now()
	s.mu.Unlock()

	translation, err := s.gateway.Translate(ctx, source, req.Language)
	if err != nil {
		var translationErr *entity.TranslationError
		if !errors.As(err, &translationErr) {
			err = &entity.TranslationError{Cause: err}
		}
		return s.finish(ctx, req, StateErrored, err)
	}

	s.mu.Lock()
	s.translation = translation.Clone()
	s.mu.Unlock()

	return s.finish(ctx, req, StateDone, nil)
}

func (s *Session) finish(ctx context.Context, req Request, state State, err error) error {
	s.mu.Lock()
	s.state = state
	s.err = err
	s.updatedAt = time.Now()
	s.cancel()
	done := s.done
	onDone := s.onDone
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		s.log.Error("generation failed", slog.String("error", err.Error()))
	} else {
		s.log.Info("generation finished",
			slog.Int("source_items", len(snap.Source)),
			slog.Int("translated_items", len(snap.Translation)))
	}
	s.metrics.ObservePipeline(string(state))

	if onDone != nil {
		onDone(context.WithoutCancel(ctx), snap, req.Input)
	}
	close(done)
	return err
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:          s.id,
		State:       s.state,
		Mode:        s.mode,
		AudioName:   s.audioName,
		Language:    s.lang,
		Source:      s.source.Clone(),
		Translation: s.translation.Clone(),
		Err:         s.err,
		UpdatedAt:   s.updatedAt,
	}
}

// Wait blocks until the current pipeline finishes or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels a running pipeline.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}
