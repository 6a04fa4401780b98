// Package lang resolves target-language strings, given either as BCP 47 codes
// ("fr", "zh-Hans") or as English names ("french"), to language tags, prompt
// display names and writing scripts.
package lang

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// knownBases seeds the English-name lookup table.
var knownBases = []string{
	"af", "am", "ar", "az", "be", "bg", "bn", "bs", "ca", "cs", "cy", "da", "de",
	"el", "en", "es", "et", "eu", "fa", "fi", "fil", "fr", "ga", "gl", "gu", "he",
	"hi", "hr", "hu", "hy", "id", "is", "it", "ja", "ka", "kk", "km", "kn", "ko",
	"ky", "lo", "lt", "lv", "mk", "ml", "mn", "mr", "ms", "my", "ne", "nl", "no",
	"pa", "pl", "ps", "pt", "ro", "ru", "si", "sk", "sl", "sq", "sr", "sv", "sw",
	"ta", "te", "th", "tr", "uk", "ur", "uz", "vi", "zh", "zu",
}

var (
	namesOnce sync.Once
	byName    map[string]language.Tag
)

func nameTable() map[string]language.Tag {
	namesOnce.Do(func() {
		namer := display.English.Languages()
		byName = make(map[string]language.Tag, len(knownBases))
		for _, code := range knownBases {
			tag := language.MustParse(code)
			if name := namer.Name(tag); name != "" {
				byName[strings.ToLower(name)] = tag
			}
		}
		// Common aliases the display tables spell differently.
		byName["farsi"] = language.Persian
		byName["chinese"] = language.Chinese
		byName["simplified chinese"] = language.SimplifiedChinese
		byName["traditional chinese"] = language.TraditionalChinese
	})
	return byName
}

// Resolve returns the language tag for s. ok is false when s is neither a
// known English language name nor a well-formed, known BCP 47 tag.
func Resolve(s string) (tag language.Tag, ok bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return language.Und, false
	}
	if tag, ok := nameTable()[key]; ok {
		return tag, true
	}
	tag, err := language.Parse(key)
	if err != nil || tag == language.Und {
		return language.Und, false
	}
	return tag, true
}

// DisplayName returns the English name used in prompts. Codes are expanded
// ("fr" -> "French"); anything unresolvable is returned trimmed, as given.
func DisplayName(s string) string {
	trimmed := strings.TrimSpace(s)
	tag, ok := Resolve(trimmed)
	if !ok {
		return trimmed
	}
	// Keep the caller's wording when it is already a name.
	if _, isName := nameTable()[strings.ToLower(trimmed)]; isName {
		return trimmed
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return trimmed
}

// Script returns the ISO 15924 code of the script the language is most
// likely written in ("Latn", "Arab", "Hans", ...), or "" when unknown.
func Script(s string) string {
	tag, ok := Resolve(s)
	if !ok {
		return ""
	}
	script, conf := tag.Script()
	if conf == language.No {
		return ""
	}
	return script.String()
}

// IsRightToLeft reports whether the language's script is written right to left.
func IsRightToLeft(s string) bool {
	switch Script(s) {
	case "Arab", "Hebr", "Syrc", "Thaa", "Nkoo", "Adlm":
		return true
	}
	return false
}
