package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"pdf-translator/internal/logger"
)

// ErrEmptyResponse is the degradation cause when the model answers with
// nothing usable.
var ErrEmptyResponse = errors.New("model returned an empty translation")

// finishReasonLength is reported by OpenAI-compatible servers when the
// answer hit the max_tokens ceiling.
const finishReasonLength = "length"

// ChatBackend 基于 eino ChatModel 的翻译后端
type ChatBackend struct {
	model        model.BaseChatModel
	defaultModel string
	maxTokens    int
}

// NewChatBackend wraps an eino chat model. maxTokens caps every answer; a
// value <= 0 leaves the model's own default in place.
func NewChatBackend(chatModel model.BaseChatModel, defaultModel string, maxTokens int) *ChatBackend {
	return &ChatBackend{
		model:        chatModel,
		defaultModel: defaultModel,
		maxTokens:    maxTokens,
	}
}

// OpenAIConfig OpenAI 兼容接口配置（默认指向 Hugging Face router）
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// NewOpenAIBackend creates a ChatBackend talking to an OpenAI-compatible
// chat completions endpoint.
func NewOpenAIBackend(ctx context.Context, cfg OpenAIConfig) (*ChatBackend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	chatModelConfig := &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}
	if cfg.BaseURL != "" {
		chatModelConfig.BaseURL = cfg.BaseURL
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		chatModelConfig.MaxTokens = &maxTokens
	}
	if cfg.Temperature > 0 {
		temperature := cfg.Temperature
		chatModelConfig.Temperature = &temperature
	}

	chatModel, err := openai.NewChatModel(ctx, chatModelConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	logger.Info("chat model backend created",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("model", cfg.Model),
		logger.Int("maxTokens", cfg.MaxTokens))

	return NewChatBackend(chatModel, cfg.Model, cfg.MaxTokens), nil
}

// Translate sends one system + user exchange to the model. Any failure,
// including an answer that is empty after cleanup, degrades to req.Text.
func (b *ChatBackend) Translate(ctx context.Context, req Request) Result {
	start := time.Now()
	if req.Model == "" {
		req.Model = b.defaultModel
	}
	if strings.TrimSpace(req.Text) == "" {
		return Skip(req)
	}

	messages := []*schema.Message{
		schema.SystemMessage(buildSystemPrompt(req.TargetLanguage)),
		schema.UserMessage(req.Text),
	}

	var opts []model.Option
	if req.Model != "" {
		opts = append(opts, model.WithModel(req.Model))
	}
	if b.maxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(b.maxTokens))
	}

	resp, err := b.model.Generate(ctx, messages, opts...)
	if err == nil && resp == nil {
		err = ErrEmptyResponse
	}
	if err != nil {
		logger.Warn("translation call failed, keeping original text",
			logger.String("model", req.Model),
			logger.String("targetLanguage", req.TargetLanguage),
			logger.Int("textLength", len(req.Text)),
			logger.Err(err))
		result := Degrade(req, err)
		result.Latency = time.Since(start)
		return result
	}

	text := cleanResponse(resp.Content, req.Text)
	if text == "" {
		logger.Warn("model returned no usable text, keeping original",
			logger.String("model", req.Model),
			logger.Int("rawLength", len(resp.Content)))
		result := Degrade(req, ErrEmptyResponse)
		result.Latency = time.Since(start)
		return result
	}

	result := Result{
		Text:    text,
		Status:  StatusTranslated,
		Model:   req.Model,
		Latency: time.Since(start),
	}
	if resp.ResponseMeta != nil && resp.ResponseMeta.FinishReason == finishReasonLength {
		result.Truncated = true
		logger.Warn("translation truncated at token limit",
			logger.String("model", req.Model),
			logger.Int("maxTokens", b.maxTokens),
			logger.Int("textLength", len(req.Text)))
	}

	logger.Debug("translation call finished",
		logger.String("model", req.Model),
		logger.Duration("latency", result.Latency),
		logger.Bool("truncated", result.Truncated))

	return result
}
