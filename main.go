package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/pdf"
	"pdf-translator/internal/pipeline"
)

var version = "0.1.0"

// Command line flags
var (
	configPath string
	logFile    string
	verbose    bool

	serveAddr string

	targetLang  string
	modelFlag   string
	outputPath  string
	concurrency int
	fontPath    string
)

var rootCmd = &cobra.Command{
	Use:   "pdf-translator",
	Short: "Translate PDF documents and text with a chat model",
	Long: `pdf-translator extracts the text of each page of a PDF, translates it through an
OpenAI-compatible chat model (the Hugging Face router by default) and writes a new
PDF with one translated page per source page.

The API key is read from the config file or HUGGINGFACE_API_KEY.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: initLogging,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP translation API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := newStartedApp(ctx, cmd)
		if err != nil {
			return err
		}
		addr := app.Config().ListenAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", addr)
		return app.Serve(ctx, addr)
	},
}

var pdfCmd = &cobra.Command{
	Use:   "pdf <input.pdf>",
	Short: "Translate a PDF document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		app.SetObserver(func(ev pipeline.Event) {
			switch ev.Phase {
			case pipeline.PhaseOpened:
				fmt.Fprintf(out, "opened %s: %d pages\n", args[0], ev.Total)
			case pipeline.PhaseTranslating:
				fmt.Fprintf(out, "  translating page %d/%d\n", ev.Page+1, ev.Total)
			case pipeline.PhaseFinalized:
				fmt.Fprintln(out, "done")
			}
		})
		if err := app.startup(ctx); err != nil {
			return err
		}

		dest := outputPath
		if dest == "" {
			dest = defaultOutputPath(args[0], targetLang)
		}
		result, err := app.TranslatePDF(ctx, args[0], pipeline.Options{
			TargetLanguage: targetLang,
			Model:          modelFlag,
			OutputPath:     dest,
		})
		if err != nil {
			return describeError(err)
		}

		fmt.Fprintf(out, "translated PDF: %s\n", result.Path)
		fmt.Fprintf(out, "pages: %d, degraded: %d, skipped: %d, truncated: %d\n",
			result.PageCount(), result.Degraded, result.Skipped, result.Truncated)
		if result.Render != nil && result.Render.FallbackFont {
			fmt.Fprintln(out, "warning: configured font unavailable, built-in font used")
		}
		if result.Render != nil && result.Render.RightToLeft {
			fmt.Fprintln(out, "note: right-to-left text is written in logical order without shaping")
		}
		return nil
	},
}

var textCmd = &cobra.Command{
	Use:   "text <text>",
	Short: "Translate a piece of text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newStartedApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		translated, err := app.TranslateText(cmd.Context(), args[0], targetLang, modelFlag)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), translated)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write the effective configuration to the config file",
	Long: `config merges the config file, environment overrides and the --model,
--concurrency and --font flags, and writes the result back to the config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		path, err := app.SaveConfig()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/pdf-translator/config.json)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "model id (default from config)")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0, "concurrent translation calls (default from config)")
	rootCmd.PersistentFlags().StringVar(&fontPath, "font", "", "TTF font for the output document")

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":5000", "listen address")

	pdfCmd.Flags().StringVarP(&targetLang, "lang", "l", "arabic", "target language (name or code)")
	pdfCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file or directory (default <name>_translated_<lang>.pdf next to the input)")

	textCmd.Flags().StringVarP(&targetLang, "lang", "l", "arabic", "target language (name or code)")

	rootCmd.AddCommand(serveCmd, pdfCmd, textCmd, configCmd)
}

// initLogging configures the global logger from the persistent flags.
func initLogging(cmd *cobra.Command, args []string) error {
	level := logger.LevelWarn
	if verbose {
		level = logger.LevelDebug
	}
	if cmd == serveCmd && !verbose {
		level = logger.LevelInfo
	}

	cfg := logger.ConsoleConfig(os.Stderr, level)
	if logFile != "" {
		cfg.LogFilePath = logFile
		cfg.MaxFileSize = logger.DefaultConfig().MaxFileSize
		cfg.MaxBackups = logger.DefaultConfig().MaxBackups
		cfg.EnableConsole = verbose || cmd == serveCmd
	}
	return logger.Init(cfg)
}

// newApp loads configuration and applies command line overrides.
func newApp(cmd *cobra.Command) (*App, error) {
	app, err := NewApp(configPath)
	if err != nil {
		return nil, err
	}

	cfg := app.Config()
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}
	if fontPath != "" {
		cfg.FontPath = fontPath
	}
	// A log file named in the config applies when the command line names none.
	if logFile == "" && cfg.LogFile != "" {
		fileCfg := logger.DefaultConfig()
		fileCfg.LogFilePath = cfg.LogFile
		fileCfg.EnableConsole = verbose
		fileCfg.Console = os.Stderr
		if level, ok := logger.ParseLevel(cfg.LogLevel); ok && !verbose {
			fileCfg.Level = level
		} else if verbose {
			fileCfg.Level = logger.LevelDebug
		}
		if err := logger.Init(fileCfg); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: cannot open log file %s: %v\n", cfg.LogFile, err)
		}
	}
	return app, nil
}

func newStartedApp(ctx context.Context, cmd *cobra.Command) (*App, error) {
	app, err := newApp(cmd)
	if err != nil {
		return nil, err
	}
	if err := app.startup(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

// defaultOutputPath places the default output name next to the input.
func defaultOutputPath(input, lang string) string {
	return filepath.Join(filepath.Dir(input), pipeline.DefaultOutputName(input, lang))
}

// describeError adds the failure kind to pipeline errors for the CLI.
func describeError(err error) error {
	switch {
	case pdf.IsInputError(err):
		return fmt.Errorf("cannot read input: %w", err)
	case pdf.IsOutputError(err):
		return fmt.Errorf("cannot produce output: %w", err)
	case pdf.CodeOf(err) == pdf.ErrCancelled:
		return fmt.Errorf("cancelled: %w", err)
	}
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
