package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pdf-translator/internal/logger"
)

// Service adds the call policy shared by every caller on top of a Backend:
// empty input is never sent, each call gets its own timeout, and a
// misbehaving backend cannot fail the caller.
type Service struct {
	backend     Backend
	callTimeout time.Duration
}

// NewService creates a Service. callTimeout <= 0 means no per-call timeout
// beyond the caller's context.
func NewService(backend Backend, callTimeout time.Duration) *Service {
	return &Service{
		backend:     backend,
		callTimeout: callTimeout,
	}
}

// Translate runs one request through the backend. A call still running when
// ctx is done or its timeout expires is abandoned and the request degrades;
// a late answer is dropped.
func (s *Service) Translate(ctx context.Context, req Request) Result {
	if strings.TrimSpace(req.Text) == "" {
		return Skip(req)
	}
	if err := ctx.Err(); err != nil {
		return Degrade(req, err)
	}

	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	// buffered so an abandoned call can still deliver and exit
	done := make(chan Result, 1)
	go func() {
		done <- s.call(ctx, req)
	}()

	select {
	case result := <-done:
		if err := ctx.Err(); err != nil && !result.Degraded() {
			// 截止时间之后才返回的结果按超时处理
			return Degrade(req, err)
		}
		return result
	case <-ctx.Done():
		logger.Warn("translation call abandoned",
			logger.Int("chars", len(req.Text)),
			logger.Err(ctx.Err()))
		return Degrade(req, ctx.Err())
	}
}

// call invokes the backend, turning a panic into a degraded result.
func (s *Service) call(ctx context.Context, req Request) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("translation backend panic: %v", r)
			logger.Error("translation backend panicked", err)
			result = Degrade(req, err)
		}
	}()

	result = s.backend.Translate(ctx, req)
	if result.Status == "" {
		result.Status = StatusTranslated
	}
	return result
}

// TranslateText translates text and returns only the text. It never fails:
// on any backend problem the original text is returned.
func (s *Service) TranslateText(ctx context.Context, text, targetLanguage, model string) string {
	return s.Translate(ctx, Request{
		Text:           text,
		TargetLanguage: targetLanguage,
		Model:          model,
	}).Text
}
