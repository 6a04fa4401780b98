package pdf

import (
	"bytes"
	"fmt"
	"iter"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/ledongthuc/pdf"

	"pdf-translator/internal/logger"
)

// Extractor 负责打开 PDF 并逐页提取文本层
// Only the embedded text layer is read; image-only pages come back empty.
type Extractor struct{}

// NewExtractor creates a new Extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Document is an opened source PDF. Its pages can be iterated exactly once.
type Document struct {
	name      string
	reader    *pdf.Reader
	pageCount int
	consumed  atomic.Bool
}

// Name returns the display name of the source document.
func (d *Document) Name() string {
	return d.name
}

// PageCount returns the number of pages in the source document.
func (d *Document) PageCount() int {
	return d.pageCount
}

// Open parses the source document. Failure here is an input error and no
// page work should be attempted.
func (e *Extractor) Open(src Source) (doc *Document, err error) {
	data, err := src.load()
	if err != nil {
		return nil, err
	}

	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = NewPDFErrorWithDetails(ErrPDFInvalid, "cannot open PDF document", fmt.Sprint(r), nil)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, NewPDFErrorWithDetails(ErrPDFInvalid, "cannot open PDF document", src.DisplayName(), err)
	}

	doc = &Document{
		name:      src.DisplayName(),
		reader:    reader,
		pageCount: reader.NumPage(),
	}

	logger.Debug("PDF opened",
		logger.String("name", doc.name),
		logger.Int("pageCount", doc.pageCount),
		logger.Int64("size", int64(len(data))))

	return doc, nil
}

// Pages returns a lazy sequence of pages in source order, one entry per page.
// A page whose content cannot be decoded yields empty text with ExtractErr set.
// The sequence is single-use: a second iteration yields nothing.
func (d *Document) Pages() iter.Seq[Page] {
	return func(yield func(Page) bool) {
		if !d.consumed.CompareAndSwap(false, true) {
			return
		}
		for num := 1; num <= d.pageCount; num++ {
			text, err := extractPageText(d.reader, num)
			if err != nil {
				logger.Warn("page text extraction failed",
					logger.String("document", d.name),
					logger.Int("page", num),
					logger.Err(err))
				text = ""
			}
			if !yield(Page{Index: num - 1, Text: text, ExtractErr: err}) {
				return
			}
		}
	}
}

// extractPageText reads the text layer of page num (1-based).
func extractPageText(r *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = NewPDFErrorWithPage(ErrExtractFailed, fmt.Sprintf("content stream could not be decoded: %v", rec), num, nil)
		}
	}()

	page := r.Page(num)
	if page.V.IsNull() {
		return "", NewPDFErrorWithPage(ErrExtractFailed, "page object missing", num, nil)
	}

	// A page without a content stream is blank, not broken.
	if page.V.Key("Contents").Kind() == pdf.Null {
		return "", nil
	}

	raw, err := page.GetPlainText(nil)
	if err != nil {
		return "", NewPDFErrorWithPage(ErrExtractFailed, "text extraction failed", num, err)
	}

	return normalizeText(raw), nil
}

// normalizeText unifies line endings, drops control characters other than
// newline and tab, and trims trailing whitespace.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return -1
		}
		return r
	}, s)

	return strings.TrimRightFunc(s, unicode.IsSpace)
}
