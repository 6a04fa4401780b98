// Package pipeline translates whole documents: it opens the source, translates
// every page, renders the translated pages into a new PDF and hands the result
// to the caller or writes it to an output path.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/pdf"
	"pdf-translator/internal/translator"
)

// Phase 流水线状态
type Phase string

const (
	PhaseOpened      Phase = "opened"
	PhaseExtracting  Phase = "extracting"
	PhaseTranslating Phase = "translating"
	PhaseRendering   Phase = "rendering"
	PhaseFinalized   Phase = "finalized"
	PhaseFailed      Phase = "failed"
)

// Event 状态迁移事件；Page 为 0-based 页码，与具体页无关时为 -1
type Event struct {
	Phase Phase
	Page  int
	Total int
	Err   error
}

// Observer receives phase transitions. It may be called from several
// goroutines, but never concurrently.
type Observer func(Event)

// Options 单次文档翻译参数
type Options struct {
	TargetLanguage string
	Model          string // 为空时使用后端默认模型
	// OutputPath is where the document is written. An existing directory
	// receives the default file name. Empty means the result is only returned.
	OutputPath string
}

// Output 翻译产物
type Output struct {
	Name           string            `json:"name"`
	Path           string            `json:"path,omitempty"`
	Data           []byte            `json:"-"`
	TargetLanguage string            `json:"targetLanguage"`
	Model          string            `json:"model,omitempty"`
	Pages          []PageResult      `json:"pages"`
	Degraded       int               `json:"degraded"`
	Skipped        int               `json:"skipped"`
	Truncated      int               `json:"truncated"`
	Render         *pdf.RenderReport `json:"render,omitempty"`
	Duration       time.Duration     `json:"duration"`
}

// PageCount returns the number of pages in the output document.
func (o *Output) PageCount() int {
	return len(o.Pages)
}

// SourceText returns the extracted text of all pages, separated by blank lines.
func (o *Output) SourceText() string {
	texts := make([]string, len(o.Pages))
	for i, page := range o.Pages {
		texts[i] = page.Source
	}
	return strings.Join(texts, "\n\n")
}

// TranslatedText returns the translated text of all pages, separated by blank lines.
func (o *Output) TranslatedText() string {
	texts := make([]string, len(o.Pages))
	for i, page := range o.Pages {
		texts[i] = page.Translated
	}
	return strings.Join(texts, "\n\n")
}

// Config 流水线配置
type Config struct {
	// Concurrency bounds in-flight translation calls. 1 translates pages
	// strictly one after another.
	Concurrency int
	Observer    Observer
}

// Pipeline 文档翻译流水线
type Pipeline struct {
	extractor   *pdf.Extractor
	translator  *translator.Service
	renderer    *pdf.Renderer
	concurrency int

	observerMu sync.Mutex
	observer   Observer
}

// New creates a pipeline.
func New(extractor *pdf.Extractor, service *translator.Service, renderer *pdf.Renderer, cfg Config) *Pipeline {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pipeline{
		extractor:   extractor,
		translator:  service,
		renderer:    renderer,
		concurrency: concurrency,
		observer:    cfg.Observer,
	}
}

func (p *Pipeline) emit(ev Event) {
	if p.observer == nil {
		return
	}
	p.observerMu.Lock()
	defer p.observerMu.Unlock()
	p.observer(ev)
}

// TranslateDocument translates src into opts.TargetLanguage.
//
// Only an unusable source (IsInputError), an output that cannot be produced
// or written (IsOutputError) and cancellation (ErrCancelled) fail the call.
// Pages whose translation fails keep their source text and are counted in
// Output.Degraded. On cancellation nothing is returned and nothing is written.
func (p *Pipeline) TranslateDocument(ctx context.Context, src pdf.Source, opts Options) (*Output, error) {
	start := time.Now()

	opts.TargetLanguage = strings.TrimSpace(opts.TargetLanguage)
	if opts.TargetLanguage == "" {
		return nil, p.fail(pdf.NewPDFError(pdf.ErrInvalidInput, "target language is required", nil))
	}

	doc, err := p.extractor.Open(src)
	if err != nil {
		return nil, p.fail(err)
	}
	total := doc.PageCount()
	p.emit(Event{Phase: PhaseOpened, Page: -1, Total: total})

	logger.Info("translating document",
		logger.String("document", doc.Name()),
		logger.Int("pages", total),
		logger.String("targetLanguage", opts.TargetLanguage),
		logger.String("model", opts.Model),
		logger.Int("concurrency", p.concurrency))

	pages := p.translatePages(ctx, doc.Pages(), total, opts)
	if err := cancelled(ctx); err != nil {
		return nil, p.fail(err)
	}
	if len(pages) != total {
		return nil, p.fail(pdf.NewPDFErrorWithDetails(pdf.ErrGenerateFailed, "page sequence ended early",
			fmt.Sprintf("got %d of %d pages", len(pages), total), nil))
	}

	texts := make([]string, len(pages))
	for i, page := range pages {
		texts[i] = page.Translated
	}
	data, report, err := p.renderer.RenderWithProgress(texts, opts.TargetLanguage, func(page int) {
		p.emit(Event{Phase: PhaseRendering, Page: page, Total: total})
	})
	if err != nil {
		return nil, p.fail(err)
	}
	if err := cancelled(ctx); err != nil {
		return nil, p.fail(err)
	}

	out := &Output{
		Name:           DefaultOutputName(doc.Name(), opts.TargetLanguage),
		Data:           data,
		TargetLanguage: opts.TargetLanguage,
		Model:          opts.Model,
		Pages:          pages,
		Render:         report,
	}
	for _, page := range pages {
		switch {
		case page.Status == translator.StatusDegraded:
			out.Degraded++
		case page.Status == translator.StatusSkipped:
			out.Skipped++
		}
		if page.Truncated {
			out.Truncated++
		}
	}

	if opts.OutputPath != "" {
		path, err := resolveOutputPath(opts.OutputPath, out.Name)
		if err != nil {
			return nil, p.fail(err)
		}
		if err := writeFileAtomic(path, data); err != nil {
			return nil, p.fail(err)
		}
		out.Path = path
		out.Name = filepath.Base(path)
	}

	out.Duration = time.Since(start)
	p.emit(Event{Phase: PhaseFinalized, Page: -1, Total: total})

	logger.Info("document translated",
		logger.String("document", doc.Name()),
		logger.String("output", out.Name),
		logger.Int("pages", total),
		logger.Int("degraded", out.Degraded),
		logger.Int("skipped", out.Skipped),
		logger.Int("truncated", out.Truncated),
		logger.Duration("duration", out.Duration))

	return out, nil
}

func (p *Pipeline) fail(err error) error {
	logger.Error("document translation failed", err)
	p.emit(Event{Phase: PhaseFailed, Page: -1, Err: err})
	return err
}

func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return pdf.NewPDFError(pdf.ErrCancelled, "translation cancelled", err)
	}
	return nil
}

// DefaultOutputName derives "<base>_translated_<lang>.pdf" from the source
// name, or "translated_<lang>.pdf" when the source has no name.
func DefaultOutputName(sourceName, targetLanguage string) string {
	lang := sanitizeNamePart(targetLanguage)
	base := strings.TrimSuffix(filepath.Base(sourceName), filepath.Ext(sourceName))
	base = sanitizeNamePart(base)
	if base == "" {
		return fmt.Sprintf("translated_%s.pdf", lang)
	}
	return fmt.Sprintf("%s_translated_%s.pdf", base, lang)
}

// sanitizeNamePart keeps a value usable as part of a file name.
func sanitizeNamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "." || s == ".." || s == string(filepath.Separator) {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		case ' ', '\t':
			return '_'
		}
		return r
	}, s)
}

func resolveOutputPath(outputPath, defaultName string) (string, error) {
	info, err := os.Stat(outputPath)
	if err == nil && info.IsDir() {
		return filepath.Join(outputPath, defaultName), nil
	}
	if err != nil && !os.IsNotExist(err) {
		return "", pdf.NewPDFErrorWithDetails(pdf.ErrOutputFailed, "cannot access output path", outputPath, err)
	}
	return outputPath, nil
}

// writeFileAtomic writes data to a temporary file next to path and renames it
// into place, so path never holds a partial document.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return pdf.NewPDFErrorWithDetails(pdf.ErrOutputFailed, "cannot create output directory", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return pdf.NewPDFErrorWithDetails(pdf.ErrOutputFailed, "cannot create output file", path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return pdf.NewPDFErrorWithDetails(pdf.ErrOutputFailed, "cannot write output file", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return pdf.NewPDFErrorWithDetails(pdf.ErrOutputFailed, "cannot flush output file", path, err)
	}
	if err = tmp.Close(); err != nil {
		return pdf.NewPDFErrorWithDetails(pdf.ErrOutputFailed, "cannot close output file", path, err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return pdf.NewPDFErrorWithDetails(pdf.ErrOutputFailed, "cannot set output file mode", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return pdf.NewPDFErrorWithDetails(pdf.ErrOutputFailed, "cannot move output file into place", path, err)
	}

	logger.Debug("output written", logger.String("path", path), logger.Int("bytes", len(data)))
	return nil
}
