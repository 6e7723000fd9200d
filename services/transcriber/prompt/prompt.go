// Package prompt builds the instruction text and output schema sent to the
// remote model. Every function here is pure and deterministic.
package prompt

import (
	"fmt"
	"strings"

	"github.com/xilidan/lingua/services/transcriber/consts"
	"github.com/xilidan/lingua/services/transcriber/entity"
)

// PreserveTimestampsRule is repeated verbatim in every translation variant.
const PreserveTimestampsRule = "Preserve timestamps exactly. Translate text only."

type Spec struct {
	Instruction string
	// Audio is attached for audio transcription only.
	Audio  *entity.Audio
	Schema Schema
}

// BuildTranscriptionPrompt returns the request for the transcription call.
//
// Audio input asks for measured MM:SS-MM:SS ranges. Text input has no real
// timing, so the model is asked to synthesize MM:SS.mmm points at a plausible
// speaking pace; those timestamps are a heuristic and callers must not treat
// them as measurements.
func BuildTranscriptionPrompt(input entity.Input) (Spec, error) {
	if input.Empty() {
		return Spec{}, fmt.Errorf("%w: nothing to transcribe", entity.ErrInvalidInput)
	}

	if input.Mode() == entity.ModeAudio {
		return Spec{
			Instruction: audioInstruction(),
			Audio:       input.Audio,
			Schema:      TranscriptSchema(),
		}, nil
	}

	return Spec{
		Instruction: textInstruction(input.Text),
		Schema:      TranscriptSchema(),
	}, nil
}

func audioInstruction() string {
	var b strings.Builder
	b.WriteString("Transcribe the attached audio.\n")
	b.WriteString("1. Split the speech into sentence-level segments.\n")
	fmt.Fprintf(&b, "2. Give every segment a \"%s\" with its start and end time in %s format, for example 00:05-00:12.\n",
		consts.FieldTimestamp, consts.AudioTimestampFormat)
	fmt.Fprintf(&b, "3. Put the exact words spoken in \"%s\". Do not summarize or translate.\n", consts.FieldText)
	b.WriteString("Return the segments in chronological order as a JSON array matching the provided schema, with no extra commentary.")
	return b.String()
}

func textInstruction(text string) string {
	var b strings.Builder
	b.WriteString("The text below has no audio attached, so there is no real timing information.\n")
	b.WriteString("1. Split the text into sentence-level segments, keeping the original wording.\n")
	fmt.Fprintf(&b, "2. Give every segment a synthetic \"%s\" point in %s format, estimating when it would be spoken aloud at about %d words per minute, starting at 00:00.000.\n",
		consts.FieldTimestamp, consts.TextTimestampFormat, consts.SpeakingPaceWPM)
	b.WriteString("3. Every timestamp must be strictly later than the previous one.\n")
	fmt.Fprintf(&b, "4. Put the segment wording in \"%s\".\n", consts.FieldText)
	b.WriteString("Return the segments in order as a JSON array matching the provided schema, with no extra commentary.\n\n")
	b.WriteString("Text:\n<<<\n")
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n>>>")
	return b.String()
}

// BuildTranslationPrompt returns the request for the translation call. The
// source transcript is embedded line by line so the model can align its output 1:1.
func BuildTranslationPrompt(items entity.Transcript, lang entity.Language) (Spec, error) {
	if len(items) == 0 {
		return Spec{}, fmt.Errorf("%w: empty transcript", entity.ErrInvalidInput)
	}
	if lang.IsZero() {
		return Spec{}, fmt.Errorf("%w: no target language", entity.ErrInvalidInput)
	}

	var b strings.Builder
	switch lang.Variant {
	case entity.VariantPhonetic:
		writePhonetic(&b, lang)
	case entity.VariantNativeScript:
		writeNativeScript(&b, lang)
	default:
		fmt.Fprintf(&b, "Translate the \"%s\" of every transcript segment below into %s.\n", consts.FieldText, lang.Name)
	}

	b.WriteString("\n")
	b.WriteString(PreserveTimestampsRule)
	fmt.Fprintf(&b, " Keep the \"%s\" of every segment byte for byte, keep the same number of segments in the same order, and do not merge or split segments.\n", consts.FieldTimestamp)
	b.WriteString("Return a JSON array matching the provided schema, with no extra commentary.\n\n")
	b.WriteString("Transcript:\n")
	for _, line := range items.Lines() {
		b.WriteString(line)
		b.WriteString("\n")
	}

	return Spec{
		Instruction: strings.TrimRight(b.String(), "\n"),
		Schema:      TranscriptSchema(),
	}, nil
}

var phoneticExamples = map[string]string{
	"hinglish": "Main abhi office ja raha hoon, meeting ke baad call karta hoon.",
	"manglish": "Njan ippo office-il pokuva, meeting kazhinju call cheyyam.",
	"tanglish": "Naan ippo office ku poren, meeting mudinjathum call panren.",
}

func writePhonetic(b *strings.Builder, lang entity.Language) {
	fmt.Fprintf(b, "Translate the \"%s\" of every transcript segment below into conversational %s as it is typed in everyday chat.\n", consts.FieldText, lang.Name)
	fmt.Fprintf(b, "- Write %s phonetically using the Latin alphabet. Never use the native %s script.\n", lang.Base, lang.Base)
	b.WriteString("- Keep common English loanwords and technical terms in English, untranslated.\n")
	b.WriteString("- Keep the tone informal and conversational.\n")
	if example, ok := phoneticExamples[lang.ID]; ok {
		fmt.Fprintf(b, "Example of the expected style: \"%s\"\n", example)
	}
}

func writeNativeScript(b *strings.Builder, lang entity.Language) {
	fmt.Fprintf(b, "Translate the \"%s\" of every transcript segment below into fluent, natural %s.\n", consts.FieldText, lang.Base)
	fmt.Fprintf(b, "- Write the translation in the %s script.\n", lang.Base)
	b.WriteString("- Prefer natural phrasing over word-for-word translation.\n")
}
