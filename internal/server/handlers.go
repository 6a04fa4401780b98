package server

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/pdf"
	"pdf-translator/internal/pipeline"
)

type errorResponse struct {
	Error string `json:"error"`
}

// translateTextRequest uses pointers so a missing key can be told apart
// from an empty value.
type translateTextRequest struct {
	Text           *string `json:"text"`
	TargetLanguage *string `json:"target_language"`
	Model          string  `json:"model,omitempty"`
}

type translateTextResponse struct {
	OriginalText   string `json:"original_text"`
	TranslatedText string `json:"translated_text"`
	TargetLanguage string `json:"target_language"`
}

// unifiedResponse is the JSON form of a document translation.
type unifiedResponse struct {
	Original   unifiedPart `json:"original"`
	Translated unifiedPart `json:"translated"`
}

type unifiedPart struct {
	Text *string `json:"text"`
	File *string `json:"file"`
}

type translatedText struct {
	Original       string `json:"original"`
	Translated     string `json:"translated"`
	TargetLanguage string `json:"target_language"`
}

type translatedPDF struct {
	OriginalFilename   string `json:"original_filename"`
	TargetLanguage     string `json:"target_language"`
	TranslatedFilename string `json:"translated_filename"`
	PDFBase64          string `json:"pdf_base64"`
	Pages              int    `json:"pages"`
	DegradedPages      int    `json:"degraded_pages"`
}

type multipleResponse struct {
	TranslatedTexts []translatedText `json:"translated_texts"`
	TranslatedPDFs  []translatedPDF  `json:"translated_pdfs"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTranslateText(c echo.Context) error {
	var req translateTextRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	if req.Text == nil || req.TargetLanguage == nil {
		return echo.NewHTTPError(http.StatusBadRequest,
			"Missing required parameters. Please provide 'text' and 'target_language'")
	}

	translated := s.texts.TranslateText(c.Request().Context(), *req.Text, *req.TargetLanguage, req.Model)

	return c.JSON(http.StatusOK, translateTextResponse{
		OriginalText:   *req.Text,
		TranslatedText: translated,
		TargetLanguage: *req.TargetLanguage,
	})
}

func (s *Server) handleTranslatePDF(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}
	if file.Filename == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "No selected file")
	}

	targetLanguage := s.targetLanguage(c)
	out, filename, cleanup, err := s.translateUpload(c, file, targetLanguage)
	if err != nil {
		return err
	}
	defer cleanup()

	if wantsJSON(c) {
		text := out.SourceText()
		translated := out.TranslatedText()
		encoded := base64.StdEncoding.EncodeToString(out.Data)
		return c.JSON(http.StatusOK, unifiedResponse{
			Original:   unifiedPart{Text: &text, File: &filename},
			Translated: unifiedPart{Text: &translated, File: &encoded},
		})
	}

	return c.Attachment(out.Path, "translated_"+filename)
}

func (s *Server) handleTranslateMultiple(c echo.Context) error {
	targetLanguage := s.targetLanguage(c)
	resp := multipleResponse{
		TranslatedTexts: []translatedText{},
		TranslatedPDFs:  []translatedPDF{},
	}

	params, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form body")
	}
	if values, ok := params["text"]; ok && len(values) > 0 {
		text := values[0]
		resp.TranslatedTexts = append(resp.TranslatedTexts, translatedText{
			Original:       text,
			Translated:     s.texts.TranslateText(c.Request().Context(), text, targetLanguage, params.Get("model")),
			TargetLanguage: targetLanguage,
		})
	}

	file, err := c.FormFile("pdf")
	if err != nil {
		file, err = c.FormFile("file")
	}
	if err == nil && file.Filename != "" {
		out, filename, cleanup, err := s.translateUpload(c, file, targetLanguage)
		if err != nil {
			return err
		}
		defer cleanup()

		resp.TranslatedPDFs = append(resp.TranslatedPDFs, translatedPDF{
			OriginalFilename:   filename,
			TargetLanguage:     targetLanguage,
			TranslatedFilename: filepath.Base(out.Path),
			PDFBase64:          base64.StdEncoding.EncodeToString(out.Data),
			Pages:              out.PageCount(),
			DegradedPages:      out.Degraded,
		})
	}

	return c.JSON(http.StatusOK, resp)
}

// targetLanguage reads target_language from the form or query, falling back
// to the configured default.
func (s *Server) targetLanguage(c echo.Context) string {
	if v := strings.TrimSpace(c.FormValue("target_language")); v != "" {
		return v
	}
	return s.cfg.DefaultTarget
}

func wantsJSON(c echo.Context) bool {
	if strings.EqualFold(c.FormValue("response"), "json") {
		return true
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// translateUpload stores the upload in a per-request directory and runs
// the document through the pipeline, writing translated_<name> next to it.
// cleanup removes the directory and must be called once the response is
// written.
func (s *Server) translateUpload(c echo.Context, file *multipart.FileHeader, targetLanguage string) (*pipeline.Output, string, func(), error) {
	filename := secureFilename(file.Filename)

	dir, err := os.MkdirTemp(s.cfg.UploadDir, "req-")
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to create request directory: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("failed to remove request directory", logger.String("dir", dir), logger.Err(err))
		}
	}

	inputPath := filepath.Join(dir, filename)
	if err := saveUpload(file, inputPath); err != nil {
		cleanup()
		return nil, "", nil, err
	}

	logger.Info("document uploaded",
		logger.String("filename", filename),
		logger.Int64("size", file.Size),
		logger.String("targetLanguage", targetLanguage))

	out, err := s.documents.TranslateDocument(c.Request().Context(),
		pdf.Source{Name: filename, Path: inputPath},
		pipeline.Options{
			TargetLanguage: targetLanguage,
			Model:          c.FormValue("model"),
			OutputPath:     filepath.Join(dir, "translated_"+filename),
		})
	if err != nil {
		cleanup()
		return nil, "", nil, err
	}
	return out, filename, cleanup, nil
}

func saveUpload(file *multipart.FileHeader, path string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to store upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to store upload: %w", err)
	}
	return dst.Close()
}

// secureFilename reduces a client-supplied name to a safe base name of
// ASCII letters, digits, dots, dashes and underscores.
func secureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	cleaned := strings.TrimLeft(b.String(), "._")
	if cleaned == "" {
		return "upload.pdf"
	}
	return cleaned
}
