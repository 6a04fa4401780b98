// Package pdf provides the document side of the translator: per-page text
// extraction from a source PDF and rendering of translated pages into a new PDF.
package pdf

import (
	"errors"
	"os"
	"path/filepath"
)

// Source 待翻译的源文档，Data 与 Path 至少提供一个；两者都有时优先使用 Data
type Source struct {
	Name string // 显示名称，用于推导输出文件名；为空时取 Path 的文件名
	Path string
	Data []byte
}

// DisplayName returns Name, or the base name of Path when Name is empty.
func (s Source) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Path != "" {
		return filepath.Base(s.Path)
	}
	return ""
}

// load returns the source bytes, reading Path when Data is empty.
func (s Source) load() ([]byte, error) {
	if len(s.Data) > 0 {
		return s.Data, nil
	}
	if s.Path == "" {
		return nil, NewPDFError(ErrInvalidInput, "no source document given", nil)
	}

	info, err := os.Stat(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewPDFErrorWithDetails(ErrPDFNotFound, "source document not found", s.Path, err)
		}
		return nil, NewPDFErrorWithDetails(ErrPDFInvalid, "cannot access source document", s.Path, err)
	}
	if info.IsDir() {
		return nil, NewPDFErrorWithDetails(ErrPDFInvalid, "source path is a directory", s.Path, nil)
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, NewPDFErrorWithDetails(ErrPDFInvalid, "cannot read source document", s.Path, err)
	}
	if len(data) == 0 {
		return nil, NewPDFErrorWithDetails(ErrPDFInvalid, "source document is empty", s.Path, nil)
	}
	return data, nil
}

// Page 源文档中的一页
type Page struct {
	Index      int    `json:"index"` // 0-based
	Text       string `json:"text"`
	ExtractErr error  `json:"-"` // 非空表示该页提取失败，Text 为空串
}

// HasExtractError reports whether text extraction failed for this page.
func (p Page) HasExtractError() bool {
	return p.ExtractErr != nil
}

// PDFErrorCode 错误代码枚举
type PDFErrorCode string

const (
	ErrPDFNotFound    PDFErrorCode = "PDF_NOT_FOUND"
	ErrPDFInvalid     PDFErrorCode = "PDF_INVALID"
	ErrInvalidInput   PDFErrorCode = "INVALID_INPUT"
	ErrExtractFailed  PDFErrorCode = "EXTRACT_FAILED"
	ErrGenerateFailed PDFErrorCode = "GENERATE_FAILED"
	ErrOutputFailed   PDFErrorCode = "OUTPUT_FAILED"
	ErrCancelled      PDFErrorCode = "CANCELLED"
)

// PDFError PDF 处理错误
type PDFError struct {
	Code    PDFErrorCode `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details,omitempty"`
	Page    int          `json:"page,omitempty"`
	Cause   error        `json:"-"`
}

// Error implements the error interface for PDFError
func (e *PDFError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error
func (e *PDFError) Unwrap() error {
	return e.Cause
}

// NewPDFError creates a new PDFError with the given code, message, and optional cause
func NewPDFError(code PDFErrorCode, message string, cause error) *PDFError {
	return &PDFError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewPDFErrorWithDetails creates a new PDFError with details
func NewPDFErrorWithDetails(code PDFErrorCode, message, details string, cause error) *PDFError {
	return &PDFError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// NewPDFErrorWithPage creates a new PDFError with page information
func NewPDFErrorWithPage(code PDFErrorCode, message string, page int, cause error) *PDFError {
	return &PDFError{
		Code:    code,
		Message: message,
		Page:    page,
		Cause:   cause,
	}
}

// CodeOf returns the PDFErrorCode carried by err, or "" if none.
func CodeOf(err error) PDFErrorCode {
	var pdfErr *PDFError
	if errors.As(err, &pdfErr) {
		return pdfErr.Code
	}
	return ""
}

// IsInputError reports whether err means the source could not be used at all.
func IsInputError(err error) bool {
	switch CodeOf(err) {
	case ErrPDFNotFound, ErrPDFInvalid, ErrInvalidInput:
		return true
	}
	return false
}

// IsOutputError reports whether err means the output artifact could not be produced.
func IsOutputError(err error) bool {
	switch CodeOf(err) {
	case ErrGenerateFailed, ErrOutputFailed:
		return true
	}
	return false
}
