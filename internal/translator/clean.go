package translator

import (
	"regexp"
	"strings"
)

// cleanResponse removes the usual chat-model artifacts from a translation:
// reasoning blocks, an introductory "Here is the translation:" line, and
// quotes wrapping the whole answer when the source was not quoted itself.
func cleanResponse(response, source string) string {
	text := thinkingBlockRe.ReplaceAllString(response, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	trimmedSource := strings.TrimSpace(source)
	for _, re := range echoPatterns {
		if re.MatchString(trimmedSource) {
			continue
		}
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}

	if !quoteWrapped(trimmedSource) && quoteWrapped(text) {
		runes := []rune(text)
		text = strings.TrimSpace(string(runes[1 : len(runes)-1]))
	}
	return text
}

// RE2 has no backreferences, so each tag pair is listed.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// An opening tag with no closing tag: the model was cut off mid-thought.
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

var echoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:(?:certainly|sure|of course)[,.!]?\s+)?here(?:'s| is)(?: the| your)? (?:translated |translation of the )?(?:translation|text)(?: in(?:to)? [\p{L} ]+)?\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:translation|translated text)(?: in(?:to)? [\p{L} ]+)?\s*:`),
}

func quoteWrapped(s string) bool {
	runes := []rune(s)
	n := len(runes)
	if n < 2 {
		return false
	}
	first, last := runes[0], runes[n-1]
	return (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '“' && last == '”') ||
		(first == '‘' && last == '’')
}
