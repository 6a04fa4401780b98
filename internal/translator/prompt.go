package translator

import (
	"fmt"

	"pdf-translator/internal/lang"
)

// buildSystemPrompt 构建只允许翻译的系统提示词
func buildSystemPrompt(targetLanguage string) string {
	return fmt.Sprintf(`You are a professional translator with ONE AND ONLY ONE task:
- Translate the given text EXACTLY as it appears into %s
- Do NOT add any commentary, explanation, or additional information
- Do NOT modify the text beyond translation
- Keep the line breaks of the original text
- Translate ONLY the text provided, nothing more or less
- Respond ONLY with the translated text`, lang.DisplayName(targetLanguage))
}
