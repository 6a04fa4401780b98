// Package types defines the application configuration and application-level errors.
package types

import "time"

// Config 应用配置
type Config struct {
	APIKey         string            `json:"api_key"`
	BaseURL        string            `json:"base_url"` // OpenAI 兼容 API 的 Base URL
	Model          string            `json:"model"`
	MaxTokens      int               `json:"max_tokens"`           // 单次翻译响应的 token 上限
	Temperature    float32           `json:"temperature"`          // 0 使用模型默认值
	CallTimeoutSec int               `json:"call_timeout_seconds"` // 单页翻译调用超时（秒）
	Concurrency    int               `json:"concurrency"`          // 同时进行的翻译调用数，1 表示逐页顺序执行
	FontPath       string            `json:"font_path"`            // 默认 TTF 字体路径
	ScriptFonts    map[string]string `json:"script_fonts"`         // ISO 15924 脚本 -> TTF 路径，例如 "Arab"
	UploadDir      string            `json:"upload_dir"`
	ListenAddr     string            `json:"listen_addr"`
	DefaultTarget  string            `json:"default_target_language"`
	LogFile        string            `json:"log_file"`
	LogLevel       string            `json:"log_level"`
}

// CallTimeout returns the per-call translation timeout.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSec) * time.Second
}

// ErrorCode 错误代码枚举
type ErrorCode string

const (
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrConfig       ErrorCode = "CONFIG_ERROR"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}
