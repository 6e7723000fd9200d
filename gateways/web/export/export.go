// Package export renders a finished source/translation pair as a
// downloadable PDF or plain text file. Transcripts are only read.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xilidan/lingua/services/transcriber/entity"
)

var (
	ErrNotReady      = errors.New("export requires both the source transcript and its translation")
	ErrUnknownFormat = errors.New("unknown export format")
	ErrFontNotLoaded = errors.New("no font able to render the target script is configured")
)

var divider = strings.Repeat("-", 40)

type Format string

const (
	FormatPDF Format = "pdf"
	FormatTXT Format = "txt"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatTXT, "text":
		return FormatTXT, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}

// Pair is everything an artifact is derived from.
type Pair struct {
	Source      entity.Transcript
	Translation entity.Transcript
	Language    entity.Language
	Mode        entity.InputMode
	AudioName   string
}

func (p Pair) Ready() bool {
	return p.Source != nil && p.Translation != nil
}

func (p Pair) sections() []section {
	return []section{
		{title: "Original Transcript", items: p.Source},
		{title: p.Language.Name + " Translation", items: p.Translation},
	}
}

type section struct {
	title string
	items entity.Transcript
}

// Filename derives the download name: the audio base name for audio input,
// the sanitized language id for text input.
func Filename(p Pair, f Format) string {
	var base string
	if p.Mode == entity.ModeAudio && p.AudioName != "" {
		base = filepath.Base(p.AudioName)
		base = strings.TrimSuffix(base, filepath.Ext(base))
	} else {
		base = sanitize(p.Language.ID)
	}
	if base == "" {
		base = "transcript"
	}
	return base + "_translation." + string(f)
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Text renders both transcripts as "[timestamp] text" lines under a title,
// separated by a divider line.
func Text(p Pair) ([]byte, error) {
	if !p.Ready() {
		return nil, ErrNotReady
	}

	var buf bytes.Buffer
	for i, sec := range p.sections() {
		if i > 0 {
			buf.WriteString("\n" + divider + "\n\n")
		}
		buf.WriteString(sec.title)
		buf.WriteString("\n\n")
		for _, line := range sec.items.Lines() {
			buf.WriteString(line)
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}
