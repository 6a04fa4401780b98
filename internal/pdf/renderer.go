package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	gopdf "github.com/VantageDataChat/GoPDF2"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"pdf-translator/internal/lang"
	"pdf-translator/internal/logger"
)

// Layout 输出页面的固定版式
type Layout struct {
	PageSize   gopdf.Rect
	Margin     float64 // 左、上、下边距 (pt)
	FontSize   float64
	LineHeight float64 // 行高，字号的倍数
}

// DefaultLayout returns US Letter pages with 10pt text starting 50pt from
// the top-left corner.
func DefaultLayout() Layout {
	return Layout{
		PageSize:   *gopdf.PageSizeLetter,
		Margin:     50,
		FontSize:   10,
		LineHeight: 1.2,
	}
}

// RenderReport 渲染诊断信息
type RenderReport struct {
	Pages        int    `json:"pages"`
	FontSource   string `json:"fontSource"`
	FallbackFont bool   `json:"fallbackFont"`
	ClippedLines int    `json:"clippedLines"` // 超出页面底部而未绘制的行
	SkippedLines int    `json:"skippedLines"` // 写入失败而跳过的行
	// RightToLeft marks a right-to-left target script. Such text is drawn in
	// logical order, left-aligned and unshaped.
	RightToLeft bool `json:"rightToLeft,omitempty"`
}

// Renderer lays translated page texts out into a new PDF, one output page per
// input text. Lines are drawn as-is from the top-left origin: no wrapping, and
// lines that fall below the bottom margin are dropped.
type Renderer struct {
	fonts  *FontRegistry
	layout Layout
}

// NewRenderer creates a renderer that takes faces from fonts.
func NewRenderer(fonts *FontRegistry, layout Layout) *Renderer {
	if layout.FontSize <= 0 {
		layout.FontSize = DefaultLayout().FontSize
	}
	if layout.LineHeight <= 0 {
		layout.LineHeight = DefaultLayout().LineHeight
	}
	if layout.PageSize.W <= 0 || layout.PageSize.H <= 0 {
		layout.PageSize = DefaultLayout().PageSize
	}
	return &Renderer{fonts: fonts, layout: layout}
}

// Render produces the output document. The result always has len(pages)
// pages; font problems only downgrade the face. Errors are GENERATE_FAILED.
func (r *Renderer) Render(pages []string, targetLanguage string) ([]byte, *RenderReport, error) {
	return r.RenderWithProgress(pages, targetLanguage, nil)
}

// RenderWithProgress is Render, calling progress with each 0-based page
// index before that page is drawn.
func (r *Renderer) RenderWithProgress(pages []string, targetLanguage string, progress func(page int)) ([]byte, *RenderReport, error) {
	report := &RenderReport{
		Pages:       len(pages),
		RightToLeft: lang.IsRightToLeft(targetLanguage),
	}

	doc := &gopdf.GoPdf{}
	doc.Start(gopdf.Config{PageSize: r.layout.PageSize})

	face, err := r.registerFace(doc, r.fonts.FaceFor(targetLanguage))
	if err != nil {
		return nil, report, err
	}
	report.FontSource = face.Source
	report.FallbackFont = face.Fallback

	for i, text := range pages {
		if progress != nil {
			progress(i)
		}
		if err := r.renderPage(doc, face, i, text, report); err != nil {
			return nil, report, err
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, report, NewPDFError(ErrGenerateFailed, "failed to serialise output document", err)
	}
	data := buf.Bytes()

	if err := VerifyPageCount(data, len(pages)); err != nil {
		return nil, report, err
	}

	logger.Debug("document rendered",
		logger.Int("pages", report.Pages),
		logger.String("font", report.FontSource),
		logger.Int("clippedLines", report.ClippedLines),
		logger.Int("skippedLines", report.SkippedLines),
		logger.Int("bytes", len(data)))

	return data, report, nil
}

// registerFace embeds face into doc, falling back to the built-in face when
// the configured one is rejected by the writer.
func (r *Renderer) registerFace(doc *gopdf.GoPdf, face *FontFace) (*FontFace, error) {
	err := doc.AddTTFFontData(face.Family, face.Data)
	if err == nil {
		return face, nil
	}
	if face.Fallback {
		return nil, NewPDFErrorWithDetails(ErrGenerateFailed, "cannot embed built-in font", face.Source, err)
	}

	logger.Warn("font rejected by writer, using built-in face",
		logger.String("font", face.Source), logger.Err(err))

	fallback := r.fonts.Fallback()
	if err := doc.AddTTFFontData(fallback.Family, fallback.Data); err != nil {
		return nil, NewPDFErrorWithDetails(ErrGenerateFailed, "cannot embed built-in font", fallback.Source, err)
	}
	return fallback, nil
}

// renderPage adds and fills one page. The page is complete when it returns.
func (r *Renderer) renderPage(doc *gopdf.GoPdf, face *FontFace, index int, text string, report *RenderReport) error {
	doc.AddPage()
	if err := doc.SetFont(face.Family, "", r.layout.FontSize); err != nil {
		return NewPDFErrorWithPage(ErrGenerateFailed, "cannot select font", index+1, err)
	}
	if text == "" {
		return nil
	}

	lineHeight := r.layout.FontSize * r.layout.LineHeight
	bottom := r.layout.PageSize.H - r.layout.Margin
	lines := strings.Split(text, "\n")

	y := r.layout.Margin
	for n, line := range lines {
		if y+lineHeight > bottom {
			report.ClippedLines += len(lines) - n
			logger.Debug("page text clipped",
				logger.Int("page", index+1),
				logger.Int("clippedLines", len(lines)-n))
			break
		}

		// tabs have no glyph in most faces
		line = strings.ReplaceAll(line, "\t", "    ")
		if strings.TrimSpace(line) != "" {
			doc.SetXY(r.layout.Margin, y)
			if err := doc.Cell(nil, line); err != nil {
				report.SkippedLines++
				logger.Warn("line could not be drawn",
					logger.Int("page", index+1),
					logger.Int("line", n+1),
					logger.Err(err))
			}
		}
		y += lineHeight
	}
	return nil
}

var pdfcpuConfigOnce sync.Once

// VerifyPageCount checks that data holds exactly want pages. A mismatch or an
// unreadable document is GENERATE_FAILED.
func VerifyPageCount(data []byte, want int) error {
	if want == 0 {
		return nil
	}
	got, err := CountPages(data)
	if err != nil {
		return NewPDFError(ErrGenerateFailed, "rendered document is unreadable", err)
	}
	if got != want {
		return NewPDFErrorWithDetails(ErrGenerateFailed, "rendered page count mismatch",
			fmt.Sprintf("want %d, got %d", want, got), nil)
	}
	return nil
}

// CountPages counts pages with pdfcpu under relaxed validation, and with the
// extraction reader when pdfcpu rejects the document.
func CountPages(data []byte) (int, error) {
	pdfcpuConfigOnce.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err == nil {
		return n, nil
	}

	logger.Debug("pdfcpu rejected document, counting with text reader", logger.Err(err))
	if n, readErr := countWithReader(data); readErr == nil {
		return n, nil
	}
	return 0, err
}

func countWithReader(data []byte) (n int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			n, err = 0, fmt.Errorf("reader panic: %v", rec)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return reader.NumPage(), nil
}
