package export

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/xilidan/lingua/services/transcriber/entity"
	"golang.org/x/image/font/sfnt"
)

//go:generate curl -fsSL -o fonts/NotoSansTamil-Regular.ttf https://github.com/notofonts/notofonts.github.io/raw/main/fonts/NotoSansTamil/hinted/ttf/NotoSansTamil-Regular.ttf
//go:generate curl -fsSL -o fonts/NotoSansTamil-Bold.ttf https://github.com/notofonts/notofonts.github.io/raw/main/fonts/NotoSansTamil/hinted/ttf/NotoSansTamil-Bold.ttf

//go:embed fonts
var bundled embed.FS

const (
	unicodeFamily = "DejaVuSansCondensed"
	tamilFamily   = "NotoSansTamil"
)

// systemFontDirs are where Linux distributions install Noto fonts.
var systemFontDirs = []string{
	"/usr/share/fonts/truetype/noto",
	"/usr/share/fonts/noto",
	"/usr/share/fonts/google-noto",
	"/usr/share/fonts/opentype/noto",
}

// Face is a TrueType family documents switch to for runes the core PDF font
// cannot encode. Languages whose script matches Script prefer it over the
// core font.
type Face struct {
	Family  string
	Script  entity.Script
	Regular []byte
	Bold    []byte
	covers  func(rune) bool
}

// NewFace parses the font data to learn which runes the family has glyphs
// for. An empty bold falls back to regular.
func NewFace(family string, script entity.Script, regular, bold []byte) (Face, error) {
	font, err := sfnt.Parse(regular)
	if err != nil {
		return Face{}, fmt.Errorf("failed to parse %s font: %w", family, err)
	}
	if len(bold) == 0 {
		bold = regular
	} else if _, err := sfnt.Parse(bold); err != nil {
		return Face{}, fmt.Errorf("failed to parse %s bold font: %w", family, err)
	}

	return Face{
		Family:  family,
		Script:  script,
		Regular: regular,
		Bold:    bold,
		covers: func(r rune) bool {
			var buf sfnt.Buffer
			idx, err := font.GlyphIndex(&buf, r)
			return err == nil && idx != 0
		},
	}, nil
}

// Covers reports whether the family has a glyph for r.
func (f Face) Covers(r rune) bool {
	return f.covers != nil && f.covers(r)
}

// LoadFaces returns the faces PDF export can fall back to: Noto Sans Tamil
// when it can be found, then the bundled DejaVu Sans Condensed. Explicit
// Tamil paths win over the bundled and system copies and must exist.
func LoadFaces(tamilRegular, tamilBold string) ([]Face, error) {
	var faces []Face

	regular, bold, err := findTamil(tamilRegular, tamilBold)
	if err != nil {
		return nil, err
	}
	if regular != nil {
		tamil, err := NewFace(tamilFamily, entity.ScriptTamil, regular, bold)
		if err != nil {
			return nil, err
		}
		faces = append(faces, tamil)
	}

	regular, bold, err = readPair(bundled, "fonts/"+unicodeFamily+".ttf", "fonts/"+unicodeFamily+"-Bold.ttf")
	if err != nil {
		return nil, fmt.Errorf("failed to read bundled font: %w", err)
	}
	fallback, err := NewFace(unicodeFamily, entity.ScriptDefault, regular, bold)
	if err != nil {
		return nil, err
	}
	return append(faces, fallback), nil
}

// Supports reports whether some face prefers script.
func Supports(faces []Face, script entity.Script) bool {
	for _, f := range faces {
		if f.Script == script {
			return true
		}
	}
	return false
}

func findTamil(regularPath, boldPath string) ([]byte, []byte, error) {
	if regularPath != "" {
		regular, err := os.ReadFile(regularPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read tamil font: %w", err)
		}
		var bold []byte
		if boldPath != "" {
			if bold, err = os.ReadFile(boldPath); err != nil {
				return nil, nil, fmt.Errorf("failed to read tamil bold font: %w", err)
			}
		}
		return regular, bold, nil
	}

	regular, bold, err := readPair(bundled, "fonts/NotoSansTamil-Regular.ttf", "fonts/NotoSansTamil-Bold.ttf")
	if err == nil {
		return regular, bold, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, err
	}

	for _, dir := range systemFontDirs {
		regular, bold, err := readPair(os.DirFS(dir), "NotoSansTamil-Regular.ttf", "NotoSansTamil-Bold.ttf")
		if err == nil {
			return regular, bold, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("failed to read tamil font from %s: %w", dir, err)
		}
	}
	return nil, nil, nil
}

// readPair reads a regular font and its optional bold sibling.
func readPair(fsys fs.FS, regularName, boldName string) ([]byte, []byte, error) {
	regular, err := fs.ReadFile(fsys, regularName)
	if err != nil {
		return nil, nil, err
	}
	bold, err := fs.ReadFile(fsys, boldName)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path.Base(boldName), err)
	}
	return regular, bold, nil
}
