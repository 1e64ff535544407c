// Package export renders the note sequence as JSON, CSV, YAML or PDF.
package export

import (
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/font/sfnt"
	"gopkg.in/yaml.v3"

	"notekeeper/internal/notes/domain/entities"
)

// Форматы экспорта.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatYAML = "yaml"
	FormatPDF  = "pdf"
)

var (
	// ErrUnknownFormat возвращается для формата, который Write не поддерживает.
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrUnsupportedText возвращается, если в заметке есть символы без глифа в шрифте PDF.
	ErrUnsupportedText = errors.New("text has characters the pdf font cannot render")
)

// Сообщения об ошибках.
const (
	ErrWriteExport = "failed to write export"
	ErrParseFont   = "failed to parse pdf font"
	PDFTitle       = "Notes"
)

const pdfFontFamily = "notes"

// DejaVu Sans покрывает латиницу, греческий и кириллицу. Для остального нужен WithFont.
//
//go:embed fonts/DejaVuSansCondensed.ttf
var defaultFont []byte

// Option настраивает Write.
type Option func(*options)

type options struct {
	font []byte
}

// WithFont задает TrueType-шрифт для PDF вместо встроенного DejaVu Sans.
func WithFont(ttf []byte) Option {
	return func(o *options) {
		o.font = ttf
	}
}

// ContentType возвращает MIME-тип для format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatYAML:
		return "application/yaml"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Write выводит заметки в порядке отображения. Если заметку нельзя
// отрисовать выбранным шрифтом PDF, в w ничего не пишется.
func Write(w io.Writer, notes []entities.Note, format string, opts ...Option) error {
	o := options{font: defaultFont}
	for _, opt := range opts {
		opt(&o)
	}

	var err error
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(notes)
	case FormatCSV:
		err = writeCSV(w, notes)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(notes); err == nil {
			err = enc.Close()
		}
	case FormatPDF:
		err = writePDF(w, notes, o.font)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", ErrWriteExport, err)
	}
	return nil
}

func writeCSV(w io.Writer, notes []entities.Note) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "id", "text", "created_at", "updated_at"}); err != nil {
		return err
	}
	for i, n := range notes {
		record := []string{
			strconv.Itoa(i),
			n.ID,
			n.Text,
			n.CreatedAt.UTC().Format(time.RFC3339),
			n.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writePDF(w io.Writer, notes []entities.Note, ttf []byte) error {
	font, err := sfnt.Parse(ttf)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrParseFont, err)
	}

	var glyphs sfnt.Buffer
	lines := make([]string, len(notes))
	for i, n := range notes {
		lines[i] = fmt.Sprintf("%d. %s", i+1, n.Text)
		if missing := missingGlyphs(font, &glyphs, n.Text); missing != "" {
			return fmt.Errorf("%w: note %d: %q", ErrUnsupportedText, i, missing)
		}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8FontFromBytes(pdfFontFamily, "", ttf)

	pdf.AddPage()
	pdf.SetFont(pdfFontFamily, "", 14)
	pdf.Cell(40, 10, PDFTitle)
	pdf.Ln(12)

	pdf.SetFont(pdfFontFamily, "", 11)
	for _, line := range lines {
		pdf.MultiCell(0, 6, line, "0", "L", false)
	}

	return pdf.Output(w)
}

// missingGlyphs возвращает различные руны s, для которых в font нет глифа.
func missingGlyphs(font *sfnt.Font, buf *sfnt.Buffer, s string) string {
	var missing []rune
	for _, r := range s {
		if unicode.IsControl(r) || slices.Contains(missing, r) {
			continue
		}
		if idx, err := font.GlyphIndex(buf, r); err != nil || idx == 0 {
			missing = append(missing, r)
		}
	}
	return string(missing)
}
