package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xilidan/lingua/services/transcriber/entity"
)

func mustLanguage(t *testing.T, id string) entity.Language {
	t.Helper()
	lang, ok := entity.LookupLanguage(id)
	require.True(t, ok, "language %q not in catalog", id)
	return lang
}

func TestBuildTranscriptionPrompt(t *testing.T) {
	t.Run("audio asks for ranges and attaches audio", func(t *testing.T) {
		audio := &entity.Audio{Name: "clip.wav", MediaType: "audio/wav", Data: []byte{1, 2, 3}}
		spec, err := BuildTranscriptionPrompt(entity.Input{Audio: audio})
		require.NoError(t, err)
		require.Same(t, audio, spec.Audio)
		require.Contains(t, spec.Instruction, "MM:SS-MM:SS")
		require.Contains(t, spec.Instruction, "sentence-level")
		require.Equal(t, TranscriptSchema(), spec.Schema)
	})

	t.Run("text asks for synthesized monotonic points", func(t *testing.T) {
		spec, err := BuildTranscriptionPrompt(entity.Input{Text: "One. Two. Three."})
		require.NoError(t, err)
		require.Nil(t, spec.Audio)
		require.Contains(t, spec.Instruction, "MM:SS.mmm")
		require.Contains(t, spec.Instruction, "strictly later than the previous one")
		require.Contains(t, spec.Instruction, "One. Two. Three.")
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := BuildTranscriptionPrompt(entity.Input{Text: "   "})
		require.True(t, errors.Is(err, entity.ErrInvalidInput))

		_, err = BuildTranscriptionPrompt(entity.Input{Audio: &entity.Audio{Name: "empty.wav"}})
		require.True(t, errors.Is(err, entity.ErrInvalidInput))
	})

	t.Run("deterministic", func(t *testing.T) {
		a, err := BuildTranscriptionPrompt(entity.Input{Text: "Hello there."})
		require.NoError(t, err)
		b, err := BuildTranscriptionPrompt(entity.Input{Text: "Hello there."})
		require.NoError(t, err)
		require.Equal(t, a, b)
	})
}

func TestBuildTranslationPrompt(t *testing.T) {
	items := entity.Transcript{
		{Timestamp: "00:00-00:05", Text: "Hello"},
		{Timestamp: "00:05-00:10", Text: "World"},
	}

	for _, tc := range []struct {
		name     string
		language string
		contains []string
		excludes []string
	}{
		{
			name:     "standard",
			language: "Spanish",
			contains: []string{"into Spanish"},
			excludes: []string{"Latin alphabet", "native"},
		},
		{
			name:     "hinglish",
			language: "hinglish",
			contains: []string{"Latin alphabet", "loanwords", "informal", "Hindi", "Example of the expected style"},
		},
		{
			name:     "manglish",
			language: "manglish",
			contains: []string{"Latin alphabet", "loanwords", "informal", "Malayalam"},
		},
		{
			name:     "tanglish",
			language: "tanglish",
			contains: []string{"Latin alphabet", "loanwords", "informal", "Tamil"},
		},
		{
			name:     "native script",
			language: "tamil",
			contains: []string{"fluent, natural Tamil", "Tamil script"},
			excludes: []string{"Latin alphabet"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := BuildTranslationPrompt(items, mustLanguage(t, tc.language))
			require.NoError(t, err)
			require.Nil(t, spec.Audio)
			require.Equal(t, TranscriptSchema(), spec.Schema)
			require.Contains(t, spec.Instruction, PreserveTimestampsRule)
			require.Contains(t, spec.Instruction, "[00:00-00:05] Hello\n[00:05-00:10] World")
			for _, s := range tc.contains {
				require.Contains(t, spec.Instruction, s)
			}
			for _, s := range tc.excludes {
				require.NotContains(t, spec.Instruction, s)
			}
		})
	}

	t.Run("empty transcript", func(t *testing.T) {
		_, err := BuildTranslationPrompt(nil, mustLanguage(t, "spanish"))
		require.True(t, errors.Is(err, entity.ErrInvalidInput))
	})

	t.Run("missing language", func(t *testing.T) {
		_, err := BuildTranslationPrompt(items, entity.Language{})
		require.True(t, errors.Is(err, entity.ErrInvalidInput))
	})

	t.Run("every catalog language carries the timestamp rule", func(t *testing.T) {
		for _, lang := range entity.Languages() {
			spec, err := BuildTranslationPrompt(items, lang)
			require.NoError(t, err, lang.ID)
			require.Equal(t, 1, strings.Count(spec.Instruction, PreserveTimestampsRule), lang.ID)
		}
	})
}

func TestTranscriptSchema(t *testing.T) {
	s := TranscriptSchema()
	require.Equal(t, TypeArray, s.Type)
	require.NotNil(t, s.Items)
	require.Equal(t, TypeObject, s.Items.Type)
	require.ElementsMatch(t, []string{"timestamp", "text"}, s.Items.Required)
	require.Equal(t, TypeString, s.Items.Properties["timestamp"].Type)
	require.Equal(t, TypeString, s.Items.Properties["text"].Type)
}
