package main

import (
	"context"
	"fmt"
	"strings"

	"pdf-translator/internal/config"
	"pdf-translator/internal/logger"
	"pdf-translator/internal/pdf"
	"pdf-translator/internal/pipeline"
	"pdf-translator/internal/server"
	"pdf-translator/internal/translator"
	"pdf-translator/internal/types"
)

// App wires configuration, the translation backend, the document pipeline
// and the HTTP server together. The CLI commands drive it.
type App struct {
	config   *config.ConfigManager
	fonts    *pdf.FontRegistry
	service  *translator.Service
	pipeline *pipeline.Pipeline

	// observer receives pipeline phase events; the CLI prints progress with it.
	observer pipeline.Observer
}

// NewApp creates an App and loads configuration from configPath (empty
// means the default location).
func NewApp(configPath string) (*App, error) {
	configMgr, err := config.NewConfigManager(configPath)
	if err != nil {
		return nil, err
	}
	if err := configMgr.Load(); err != nil {
		// Continue with defaults if config load fails
		logger.Warn("failed to load config, using defaults", logger.Err(err))
	}
	return &App{config: configMgr}, nil
}

// Config returns the effective configuration. Changes made before startup
// are honoured by startup.
func (a *App) Config() *types.Config {
	return a.config.GetConfig()
}

// SetObserver sets the pipeline observer. It must be called before startup.
func (a *App) SetObserver(observer pipeline.Observer) {
	a.observer = observer
}

// startup builds the production backend and everything that depends on it.
func (a *App) startup(ctx context.Context) error {
	if err := a.config.Validate(); err != nil {
		return err
	}
	cfg := a.Config()

	backend, err := translator.NewOpenAIBackend(ctx, translator.OpenAIConfig{
		APIKey:      a.config.GetAPIKey(),
		BaseURL:     cfg.BaseURL,
		Model:       a.config.GetModel(),
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.CallTimeout(),
	})
	if err != nil {
		return types.NewAppError(types.ErrConfig, "failed to create translation backend", err)
	}

	a.startupWithBackend(backend)
	return nil
}

// startupWithBackend builds the pipeline around backend.
func (a *App) startupWithBackend(backend translator.Backend) {
	cfg := a.Config()

	logger.Info("initializing translator",
		logger.String("model", a.config.GetModel()),
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("maxTokens", cfg.MaxTokens),
		logger.Float64("temperature", float64(cfg.Temperature)),
		logger.Int("concurrency", a.config.GetConcurrency()),
		logger.Duration("callTimeout", cfg.CallTimeout()))

	// Fonts are loaded once here, before any page is rendered.
	a.fonts = pdf.NewFontRegistry(pdf.FontConfig{
		DefaultPath: cfg.FontPath,
		ScriptPaths: cfg.ScriptFonts,
	})
	a.fonts.Init()

	a.service = translator.NewService(backend, cfg.CallTimeout())
	a.pipeline = pipeline.New(
		pdf.NewExtractor(),
		a.service,
		pdf.NewRenderer(a.fonts, pdf.DefaultLayout()),
		pipeline.Config{
			Concurrency: a.config.GetConcurrency(),
			Observer:    a.observer,
		},
	)
}

// TranslatePDF translates the PDF at inputPath.
func (a *App) TranslatePDF(ctx context.Context, inputPath string, opts pipeline.Options) (*pipeline.Output, error) {
	if a.pipeline == nil {
		return nil, types.NewAppError(types.ErrInternal, "application not started", nil)
	}
	return a.pipeline.TranslateDocument(ctx, pdf.Source{Path: inputPath}, opts)
}

// TranslateText translates a piece of text; it returns the original text
// when translation fails.
func (a *App) TranslateText(ctx context.Context, text, targetLanguage, model string) (string, error) {
	if a.service == nil {
		return "", types.NewAppError(types.ErrInternal, "application not started", nil)
	}
	if strings.TrimSpace(targetLanguage) == "" {
		return "", types.NewAppError(types.ErrInvalidInput, "target language is required", nil)
	}
	return a.service.TranslateText(ctx, text, targetLanguage, model), nil
}

// SaveConfig writes the effective configuration, command line overrides
// included, and returns the file it was written to.
func (a *App) SaveConfig() (string, error) {
	if err := a.config.Save(); err != nil {
		return "", err
	}
	return a.config.GetConfigPath(), nil
}

// Serve runs the HTTP API on addr until ctx is done.
func (a *App) Serve(ctx context.Context, addr string) error {
	if a.pipeline == nil {
		return types.NewAppError(types.ErrInternal, "application not started", nil)
	}
	cfg := a.Config()

	srv, err := server.New(a.pipeline, a.service, server.Config{
		UploadDir:     cfg.UploadDir,
		DefaultTarget: cfg.DefaultTarget,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start(ctx, addr)
}
