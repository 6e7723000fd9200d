package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/xilidan/lingua/pkg/metrics"
	"github.com/xilidan/lingua/services/transcriber/entity"
	"github.com/xilidan/lingua/services/transcriber/model"
	"github.com/xilidan/lingua/services/transcriber/prompt"
)

const (
	opTranscribe = "transcribe"
	opTranslate  = "translate"
)

// Usecase is the only code that talks to the remote model. Each operation
// makes exactly one call and never retries.
type Usecase interface {
	Transcribe(ctx context.Context, input entity.Input) (entity.Transcript, error)
	Translate(ctx context.Context, items entity.Transcript, lang entity.Language) (entity.Transcript, error)
}

type usecase struct {
	provider model.Provider
	timeout  time.Duration
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func New(provider model.Provider, timeout time.Duration, m *metrics.Metrics, log *slog.Logger) Usecase {
	return &usecase{
		provider: provider,
		timeout:  timeout,
		metrics:  m,
		log:      log,
	}
}

func (u *usecase) Transcribe(ctx context.Context, input entity.Input) (entity.Transcript, error) {
	spec, err := prompt.BuildTranscriptionPrompt(input)
	if err != nil {
		return nil, &entity.TranscriptionError{Cause: err}
	}

	items, err := u.call(ctx, opTranscribe, spec)
	if err != nil {
		u.log.Error("transcription failed",
			slog.String("mode", string(input.Mode())),
			slog.String("error", err.Error()))
		return nil, &entity.TranscriptionError{Cause: err}
	}
	if len(items) == 0 {
		u.log.Error("transcription returned no segments",
			slog.String("mode", string(input.Mode())))
		return nil, &entity.TranscriptionError{Cause: entity.FormatError("transcript has no segments")}
	}

	if !items.Ascending() {
		u.log.Warn("transcript timestamps are not strictly ascending",
			slog.String("mode", string(input.Mode())),
			slog.Int("items", len(items)))
	}

	u.log.Info("transcription finished",
		slog.String("mode", string(input.Mode())),
		slog.Int("items", len(items)))
	return items, nil
}

func (u *usecase) Translate(ctx context.Context, items entity.Transcript, lang entity.Language) (entity.Transcript, error) {
	spec, err := prompt.BuildTranslationPrompt(items, lang)
	if err != nil {
		return nil, &entity.TranslationError{Cause: err}
	}

	out, err := u.call(ctx, opTranslate, spec)
	if err != nil {
		u.log.Error("translation failed",
			slog.String("language", lang.ID),
			slog.String("error", err.Error()))
		return nil, &entity.TranslationError{Cause: err}
	}

	// The model is trusted on segment count. When it kept the count, the
	// source timestamps are restored so translation can only change text.
	if len(out) == len(items) {
		for i := range out {
			out[i].Timestamp = items[i].Timestamp
		}
	} else {
		u.log.Warn("translation changed the number of segments",
			slog.String("language", lang.ID),
			slog.Int("source_items", len(items)),
			slog.Int("translated_items", len(out)))
	}

	u.log.Info("translation finished",
		slog.String("language", lang.ID),
		slog.Int("items", len(out)))
	return out, nil
}

func (u *usecase) call(ctx context.Context, op string, spec prompt.Spec) (entity.Transcript, error) {
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	u.log.Debug("calling model",
		slog.String("operation", op),
		slog.String("provider", u.provider.Name()))

	start := time.Now()
	var items entity.Transcript
	raw, err := u.provider.Generate(ctx, spec)
	if err == nil {
		items, err = ParseTranscript(raw)
	}
	u.metrics.ObserveModelCall(op, err, time.Since(start))

	return items, err
}
