package export

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"github.com/xilidan/lingua/services/transcriber/entity"
)

const (
	coreFamily = "Helvetica"

	marginMM    = 20.0
	titleSize   = 16.0
	bodySize    = 11.0
	titleHeight = 10.0
	lineHeight  = 6.0
	sectionGap  = 8.0
)

// pdfWriter is the subset of *fpdf.Fpdf the exporter drives.
type pdfWriter interface {
	SetTitle(titleStr string, isUTF8 bool)
	SetMargins(left, top, right float64)
	SetAutoPageBreak(auto bool, margin float64)
	SetCellMargin(margin float64)
	AddUTF8FontFromBytes(familyStr, styleStr string, utf8Bytes []byte)
	SetFont(familyStr, styleStr string, size float64)
	AddPage()
	GetPageSize() (width, height float64)
	GetY() float64
	Ln(h float64)
	GetStringWidth(s string) float64
	CellFormat(w, h float64, txtStr, borderStr string, ln int, alignStr string, fill bool, link int, linkStr string)
	UnicodeTranslatorFromDescriptor(cpStr string) func(string) string
	Output(w io.Writer) error
}

type Exporter struct {
	faces  []Face
	newPDF func() pdfWriter
	log    *slog.Logger
}

func New(faces []Face, log *slog.Logger) *Exporter {
	return &Exporter{
		faces: faces,
		newPDF: func() pdfWriter {
			return fpdf.New("P", "mm", "A4", "")
		},
		log: log,
	}
}

// Write renders p in format f.
func (e *Exporter) Write(p Pair, f Format, w io.Writer) error {
	switch f {
	case FormatPDF:
		return e.PDF(p, w)
	case FormatTXT:
		data, err := Text(p)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

type paragraph struct {
	runs  []run
	title bool
	gap   bool
}

// PDF renders an A4 document with a title and wrapped "[timestamp] text"
// lines per transcript. Every rune is drawn with the first font that has a
// glyph for it; a rune no font can draw fails the export with
// ErrFontNotLoaded before anything is written. Pages break explicitly when
// the next line does not fit.
func (e *Exporter) PDF(p Pair, w io.Writer) error {
	if !p.Ready() {
		return ErrNotReady
	}

	pdf := e.newPDF()
	r := e.renderer(pdf, p.Language)

	var paragraphs []paragraph
	for i, sec := range p.sections() {
		runs, err := r.segment(sec.title)
		if err != nil {
			return err
		}
		paragraphs = append(paragraphs, paragraph{runs: runs, title: true, gap: i > 0})

		for _, line := range sec.items.Lines() {
			runs, err := r.segment(line)
			if err != nil {
				return err
			}
			paragraphs = append(paragraphs, paragraph{runs: runs})
		}
	}

	pdf.SetTitle(p.Language.Name+" Translation", true)
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(false, marginMM)
	pdf.SetCellMargin(0)
	pdf.AddPage()

	for _, para := range paragraphs {
		if para.gap {
			pdf.Ln(sectionGap)
		}
		if para.title {
			r.title(para.runs)
		} else {
			r.body(para.runs)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}

	e.log.Debug("pdf exported",
		slog.String("language", p.Language.ID),
		slog.Any("fonts", r.used),
		slog.Int("source_items", len(p.Source)),
		slog.Int("translated_items", len(p.Translation)))
	return nil
}

// renderer orders the fonts for lang: faces made for its script, then the
// core font, then every other face.
func (e *Exporter) renderer(pdf pdfWriter, lang entity.Language) *renderer {
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	core := &font{
		family: coreFamily,
		covers: func(c rune) bool {
			return c < utf8.RuneSelf || translate(string(c)) != "."
		},
	}

	var preferred, rest []*font
	for i := range e.faces {
		face := &e.faces[i]
		f := &font{family: face.Family, face: face, covers: face.Covers}
		if face.Script == lang.Script {
			preferred = append(preferred, f)
		} else {
			rest = append(rest, f)
		}
	}

	fonts := append(preferred, core)
	return &renderer{
		pdf:       pdf,
		fonts:     append(fonts, rest...),
		translate: translate,
	}
}

// font is one family a document can switch to. Faces are registered with
// the document on first use.
type font struct {
	family string
	face   *Face
	covers func(rune) bool
	added  bool
}

// run is text drawn with a single font.
type run struct {
	font *font
	text string
}

type renderer struct {
	pdf       pdfWriter
	fonts     []*font
	translate func(string) string
	used      []string
}

// segment splits text into runs. A rune stays with the current font while it
// has a glyph; spaces and format characters never switch fonts.
func (r *renderer) segment(text string) ([]run, error) {
	text = normalize(text)

	type span struct {
		font       *font
		start, end int
	}
	var spans []span
	for i, c := range text {
		end := i + utf8.RuneLen(c)
		if n := len(spans); n > 0 && (neutral(c) || spans[n-1].font.covers(c)) {
			spans[n-1].end = end
			continue
		}
		if neutral(c) {
			continue
		}

		f := r.pick(c)
		if f == nil {
			return nil, fmt.Errorf("%w: %q (%U)", ErrFontNotLoaded, c, c)
		}
		start := i
		if len(spans) == 0 {
			start = 0
		}
		spans = append(spans, span{font: f, start: start, end: end})
	}

	if len(spans) == 0 {
		return []run{{font: r.fonts[0], text: text}}, nil
	}
	runs := make([]run, len(spans))
	for i, s := range spans {
		runs[i] = run{font: s.font, text: text[s.start:s.end]}
	}
	return runs, nil
}

func (r *renderer) pick(c rune) *font {
	for _, f := range r.fonts {
		if f.covers(c) {
			return f
		}
	}
	return nil
}

func (r *renderer) title(runs []run) {
	r.ensureRoom(titleHeight + lineHeight)
	for _, line := range r.wrap(runs, "B", titleSize) {
		r.draw(line, "B", titleSize, titleHeight)
	}
	r.pdf.Ln(2)
}

func (r *renderer) body(runs []run) {
	for _, line := range r.wrap(runs, "", bodySize) {
		r.ensureRoom(lineHeight)
		r.draw(line, "", bodySize, lineHeight)
	}
}

func (r *renderer) draw(line []run, style string, size, h float64) {
	for _, rn := range line {
		r.setFont(rn.font, style, size)
		text := r.encode(rn)
		r.pdf.CellFormat(r.pdf.GetStringWidth(text), h, text, "", 0, "L", false, 0, "")
	}
	r.pdf.Ln(h)
}

func (r *renderer) ensureRoom(h float64) {
	_, pageHeight := r.pdf.GetPageSize()
	if r.pdf.GetY()+h > pageHeight-marginMM {
		r.pdf.AddPage()
	}
}

// wrap fills lines up to the content width, breaking at spaces. A word wider
// than a whole line is broken between runes.
func (r *renderer) wrap(runs []run, style string, size float64) [][]run {
	width := r.contentWidth()

	var (
		lines [][]run
		line  []run
		lineW float64
	)
	for _, word := range words(runs) {
		wordW := r.width(word, style, size)
		if len(line) > 0 {
			space := run{font: line[len(line)-1].font, text: " "}
			spaceW := r.width([]run{space}, style, size)
			if lineW+spaceW+wordW <= width {
				line = join(line, append([]run{space}, word...)...)
				lineW += spaceW + wordW
				continue
			}
			lines = append(lines, line)
			line, lineW = nil, 0
		}

		for wordW > width {
			head, tail := r.split(word, width, style, size)
			lines = append(lines, head)
			word = tail
			wordW = r.width(word, style, size)
		}
		line, lineW = word, wordW
	}

	if len(line) > 0 || len(lines) == 0 {
		lines = append(lines, line)
	}
	return lines
}

// split cuts word after the last rune that fits in width. The head always
// keeps at least one rune.
func (r *renderer) split(word []run, width float64, style string, size float64) ([]run, []run) {
	var used float64
	for i, rn := range word {
		r.setFont(rn.font, style, size)
		for j, c := range rn.text {
			w := r.pdf.GetStringWidth(r.encode(run{font: rn.font, text: string(c)}))
			if used+w > width && (i > 0 || j > 0) {
				head := slices.Clone(word[:i])
				if j > 0 {
					head = append(head, run{font: rn.font, text: rn.text[:j]})
				}
				tail := join([]run{{font: rn.font, text: rn.text[j:]}}, word[i+1:]...)
				return head, tail
			}
			used += w
		}
	}
	return word, nil
}

func (r *renderer) width(runs []run, style string, size float64) float64 {
	var w float64
	for _, rn := range runs {
		r.setFont(rn.font, style, size)
		w += r.pdf.GetStringWidth(r.encode(rn))
	}
	return w
}

func (r *renderer) setFont(f *font, style string, size float64) {
	if !f.added {
		if f.face != nil {
			bold := f.face.Bold
			if len(bold) == 0 {
				bold = f.face.Regular
			}
			r.pdf.AddUTF8FontFromBytes(f.family, "", f.face.Regular)
			r.pdf.AddUTF8FontFromBytes(f.family, "B", bold)
		}
		f.added = true
		r.used = append(r.used, f.family)
	}
	r.pdf.SetFont(f.family, style, size)
}

// encode converts run text to what the font expects: cp1252 bytes for the
// core font, UTF-8 for embedded faces.
func (r *renderer) encode(rn run) string {
	if rn.font.face != nil {
		return rn.text
	}
	return r.translate(strings.Map(func(c rune) rune {
		if unicode.Is(unicode.Cf, c) {
			return -1
		}
		return c
	}, rn.text))
}

func (r *renderer) contentWidth() float64 {
	pageWidth, _ := r.pdf.GetPageSize()
	return pageWidth - 2*marginMM
}

// words splits runs at spaces. Words keep their runs so a word may mix fonts.
func words(runs []run) [][]run {
	var (
		out  [][]run
		word []run
	)
	for _, rn := range runs {
		for i, part := range strings.Split(rn.text, " ") {
			if i > 0 && len(word) > 0 {
				out = append(out, word)
				word = nil
			}
			if part != "" {
				word = append(word, run{font: rn.font, text: part})
			}
		}
	}
	if len(word) > 0 {
		out = append(out, word)
	}
	return out
}

// join appends runs to line, merging neighbours that share a font.
func join(line []run, more ...run) []run {
	for _, rn := range more {
		if n := len(line); n > 0 && line[n-1].font == rn.font {
			line[n-1].text += rn.text
			continue
		}
		line = append(line, rn)
	}
	return line
}

// normalize turns every kind of space into a plain space, drops control
// characters, and replaces runes outside the Basic Multilingual Plane, which
// embedded fonts are indexed by.
func normalize(s string) string {
	return strings.Map(func(c rune) rune {
		switch {
		case unicode.IsSpace(c):
			return ' '
		case unicode.IsControl(c):
			return -1
		case c > 0xFFFF:
			return '?'
		}
		return c
	}, s)
}

func neutral(c rune) bool {
	return c == ' ' || unicode.Is(unicode.Cf, c)
}
