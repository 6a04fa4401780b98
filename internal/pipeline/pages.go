package pipeline

import (
	"context"
	"iter"
	"strings"

	"golang.org/x/sync/errgroup"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/pdf"
	"pdf-translator/internal/translator"
)

// PageResult 单页的提取与翻译结果
type PageResult struct {
	Index      int               `json:"index"`
	Source     string            `json:"source"`
	Translated string            `json:"translated"`
	Status     translator.Status `json:"status"`
	Truncated  bool              `json:"truncated,omitempty"`
	ExtractErr error             `json:"-"`
	Err        error             `json:"-"` // 翻译降级原因
}

// Degraded reports whether Translated is the untranslated source text.
func (r PageResult) Degraded() bool {
	return r.Status == translator.StatusDegraded
}

// translatePages consumes pages in order and translates each one at most
// once. Up to concurrency calls run at the same time; results are stored by
// page index, so the returned slice is in source order whatever the
// completion order. Pages with no text are not sent.
func (p *Pipeline) translatePages(ctx context.Context, pages iter.Seq[pdf.Page], total int, opts Options) []PageResult {
	results := make([]PageResult, total)
	seen := 0

	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for page := range pages {
		if ctx.Err() != nil {
			break
		}
		if page.Index < 0 || page.Index >= total {
			logger.Warn("page index out of range, ignored", logger.Int("index", page.Index), logger.Int("total", total))
			continue
		}
		seen++
		p.emit(Event{Phase: PhaseExtracting, Page: page.Index, Total: total, Err: page.ExtractErr})

		slot := &results[page.Index]
		slot.Index = page.Index
		slot.Source = page.Text
		slot.ExtractErr = page.ExtractErr

		if strings.TrimSpace(page.Text) == "" {
			slot.Translated = page.Text
			slot.Status = translator.StatusSkipped
			continue
		}

		req := translator.Request{
			Text:           page.Text,
			TargetLanguage: opts.TargetLanguage,
			Model:          opts.Model,
		}
		index := page.Index

		g.Go(func() error {
			p.emit(Event{Phase: PhaseTranslating, Page: index, Total: total})
			result := p.translator.Translate(ctx, req)
			if result.Degraded() {
				logger.Warn("page translation degraded to source text",
					logger.Int("page", index+1),
					logger.Err(result.Err))
			}
			slot.Translated = result.Text
			slot.Status = result.Status
			slot.Truncated = result.Truncated
			slot.Err = result.Err
			return nil
		})
	}

	_ = g.Wait()
	return results[:seen]
}
