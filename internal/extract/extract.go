// Package extract converts uploaded resume documents into plain text.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"coverdraft/internal/errors"

	"github.com/ledongthuc/pdf"
)

// Format identifies a supported document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatText Format = "txt"
)

// Result is the outcome of a document extraction.
type Result struct {
	Text   string
	Format Format

	// LowConfidence is set when extraction succeeded but produced
	// almost no text, typically a scanned or image-only document.
	LowConfidence bool
}

// minConfidentChars is the non-whitespace character count below which
// extracted text is flagged as low confidence.
const minConfidentChars = 25

// DetectFormat resolves the document format from a filename extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".txt", ".text", ".md":
		return FormatText, nil
	default:
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("unsupported document type: %s", filepath.Ext(filename)), nil).
			WithContext("filename", filename)
	}
}

// Extractor converts documents into plain text subject to a size limit.
type Extractor struct {
	maxSize int64
	logger  *errors.Logger
}

// New creates an Extractor with the given size limit in bytes.
func New(maxSize int64, logger *errors.Logger) *Extractor {
	return &Extractor{maxSize: maxSize, logger: logger}
}

// Extract converts the document to plain text. The format is resolved
// from the filename. Documents over the size limit are rejected before
// any parsing work.
func (e *Extractor) Extract(data []byte, filename string) (*Result, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	return e.ExtractAs(data, format)
}

// ExtractAs converts the document to plain text using a known format.
func (e *Extractor) ExtractAs(data []byte, format Format) (*Result, error) {
	if e.maxSize > 0 && int64(len(data)) > e.maxSize {
		return nil, errors.NewValidationError(errors.ErrCodeSizeExceeded,
			fmt.Sprintf("document size %d exceeds limit of %d bytes", len(data), e.maxSize), nil).
			WithContext("size", len(data)).
			WithContext("limit", e.maxSize)
	}

	var text string
	var err error
	switch format {
	case FormatPDF:
		text, err = e.extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	case FormatText:
		text = string(data)
	default:
		return nil, errors.NewValidationError(errors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("unsupported document format: %s", format), nil)
	}
	if err != nil {
		return nil, err
	}

	text = normalizeText(text)
	return &Result{
		Text:          text,
		Format:        format,
		LowConfidence: countNonSpace(text) < minConfidentChars,
	}, nil
}

// extractPDF reads the document page by page. A page that fails text
// extraction is skipped rather than failing the whole document.
func (e *Extractor) extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeUnsupportedFormat,
			"failed to open PDF document", err)
	}

	var sb strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			if e.logger != nil {
				e.logger.Warn("skipping unreadable PDF page", "page", i, "error", err.Error())
			}
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(content)
	}
	return sb.String(), nil
}

// docx stores paragraphs inside word/document.xml; text lives in w:t
// elements and paragraphs end at w:p. Reading tokens in stream order
// preserves the document order.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeUnsupportedFormat,
			"failed to open DOCX archive", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.NewIOError(errors.ErrCodeUnsupportedFormat,
			"DOCX archive has no word/document.xml", nil)
	}

	rc, err := doc.Open()
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			"failed to read DOCX document body", err)
	}
	defer rc.Close()

	return readDocumentXML(rc)
}

func readDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.NewIOError(errors.ErrCodeUnsupportedFormat,
				"malformed DOCX document body", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			case "br", "cr":
				sb.WriteString("\n")
			case "tab":
				sb.WriteString(" ")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

// normalizeText collapses Windows line endings and trims trailing
// whitespace per line without disturbing line structure, which the
// resume parser depends on.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !strings.ContainsRune(" \t\n\v\f\r", r) {
			n++
		}
	}
	return n
}
