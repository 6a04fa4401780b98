// Package translator turns text into a target language through a remote chat
// model. A translation never fails the caller: when the model cannot produce
// a usable answer the original text comes back tagged as degraded.
package translator

import (
	"context"
	"time"
)

// Request 单次翻译请求，按值传递
type Request struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
	Model          string `json:"model,omitempty"` // 为空时使用后端默认模型
}

// Status 翻译结果状态
type Status string

const (
	// StatusTranslated means Text is the model's translation.
	StatusTranslated Status = "translated"
	// StatusDegraded means the call failed and Text is the original input.
	StatusDegraded Status = "degraded"
	// StatusSkipped means the input was empty and no call was made.
	StatusSkipped Status = "skipped"
)

// Result 翻译结果
type Result struct {
	Text      string        `json:"text"`
	Status    Status        `json:"status"`
	Err       error         `json:"-"`         // 降级原因
	Truncated bool          `json:"truncated"` // 模型因长度上限截断了输出
	Model     string        `json:"model,omitempty"`
	Latency   time.Duration `json:"latency"`
}

// Degraded reports whether Text is the untranslated input.
func (r Result) Degraded() bool {
	return r.Status == StatusDegraded
}

// Backend translates one request. Implementations must not return the
// failure to the caller; they return the original text with StatusDegraded.
type Backend interface {
	Translate(ctx context.Context, req Request) Result
}

// Degrade builds the fallback result for req.
func Degrade(req Request, err error) Result {
	return Result{
		Text:   req.Text,
		Status: StatusDegraded,
		Err:    err,
		Model:  req.Model,
	}
}

// Skip builds the result for an input that needs no translation.
func Skip(req Request) Result {
	return Result{
		Text:   req.Text,
		Status: StatusSkipped,
		Model:  req.Model,
	}
}
