package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat marks a model response that does not match the transcript schema.
	ErrFormat = errors.New("response does not match transcript schema")

	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError is raised before any remote call when the request form is incomplete.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type TranscriptionError struct {
	Cause error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Cause)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Cause
}

type TranslationError struct {
	Cause error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation failed: %v", e.Cause)
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// ConfigurationError is fatal: no pipeline can run without the missing setting.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Field)
}

// FormatError builds an ErrFormat carrying the offending detail.
func FormatError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

// UserMessage converts a pipeline error into the text shown next to the form.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}

	var transcriptionErr *TranscriptionError
	if errors.As(err, &transcriptionErr) {
		return fmt.Sprintf("Transcription failed: %v. Please try again.", transcriptionErr.Cause)
	}

	var translationErr *TranslationError
	if errors.As(err, &translationErr) {
		return fmt.Sprintf("Translation failed: %v. Please try again.", translationErr.Cause)
	}

	return err.Error()
}
