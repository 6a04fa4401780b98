package pdf

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"

	"pdf-translator/internal/lang"
	"pdf-translator/internal/logger"
)

// BuiltinFontSource identifies the embedded fallback face.
const BuiltinFontSource = "builtin:goregular"

// FontFace 已加载、可直接嵌入输出文档的 TrueType 字体
type FontFace struct {
	Family   string // 在 GoPdf 实例中注册使用的族名
	Source   string // 文件路径，或 BuiltinFontSource
	Data     []byte
	Fallback bool
}

// FontConfig 字体配置
type FontConfig struct {
	// DefaultPath is tried for every script without an override.
	DefaultPath string
	// ScriptPaths maps an ISO 15924 script code ("Arab", "Hans", ...) to a TTF path.
	ScriptPaths map[string]string
}

// FontRegistry is the process-wide font table. It is populated once, on the
// first call to Init or FaceFor, and is read-only afterwards, so one registry
// can be shared by concurrent renders.
type FontRegistry struct {
	cfg FontConfig

	once     sync.Once
	faces    map[string]*FontFace // script code -> face, "" is the default
	fallback *FontFace
	warnings []string
}

// NewFontRegistry creates a registry. Nothing is loaded until Init.
func NewFontRegistry(cfg FontConfig) *FontRegistry {
	return &FontRegistry{cfg: cfg}
}

// Init loads every configured face. A face that cannot be read or parsed is
// recorded as a warning and replaced by the built-in face; Init never fails.
func (r *FontRegistry) Init() {
	r.once.Do(r.load)
}

func (r *FontRegistry) load() {
	r.faces = make(map[string]*FontFace)
	r.fallback = &FontFace{
		Family:   "fallback",
		Source:   BuiltinFontSource,
		Data:     goregular.TTF,
		Fallback: true,
	}

	if face, err := loadFontFile("body", r.cfg.DefaultPath); err != nil {
		r.warn(err)
	} else {
		r.faces[""] = face
	}

	scripts := make([]string, 0, len(r.cfg.ScriptPaths))
	for script := range r.cfg.ScriptPaths {
		scripts = append(scripts, script)
	}
	sort.Strings(scripts)

	for _, script := range scripts {
		face, err := loadFontFile("body-"+script, r.cfg.ScriptPaths[script])
		if err != nil {
			r.warn(err)
			continue
		}
		r.faces[script] = face
	}

	logger.Info("fonts registered",
		logger.Int("faces", len(r.faces)),
		logger.Int("warnings", len(r.warnings)))
}

func (r *FontRegistry) warn(err error) {
	r.warnings = append(r.warnings, err.Error())
	logger.Warn("font unavailable, using built-in face", logger.Err(err))
}

// loadFontFile reads path and checks that it parses as an SFNT font.
func loadFontFile(family, path string) (*FontFace, error) {
	if path == "" {
		return nil, fmt.Errorf("no font path configured for %s", family)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	if _, err := sfnt.Parse(data); err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return &FontFace{Family: family, Source: path, Data: data}, nil
}

// FaceFor returns the face for the target language: the override for its
// script when one loaded, else the default face, else the built-in face.
func (r *FontRegistry) FaceFor(targetLanguage string) *FontFace {
	r.Init()
	if script := lang.Script(targetLanguage); script != "" {
		if face, ok := r.faces[script]; ok {
			return face
		}
	}
	if face, ok := r.faces[""]; ok {
		return face
	}
	return r.fallback
}

// Fallback returns the built-in face.
func (r *FontRegistry) Fallback() *FontFace {
	r.Init()
	return r.fallback
}

// Warnings returns the load failures recorded by Init.
func (r *FontRegistry) Warnings() []string {
	r.Init()
	out := make([]string, len(r.warnings))
	copy(out, r.warnings)
	return out
}
