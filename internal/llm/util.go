// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

const codeFence = "```"

// CleanJSONBlock removes one markdown code-fence pair from a model reply.
// A leading fence (with or without a language tag such as "json") and a
// trailing fence are each stripped at most once, independently; the payload
// between them is returned trimmed.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, codeFence) {
		text = text[len(codeFence):]
		text = stripLanguageTag(text)
	}
	if strings.HasSuffix(text, codeFence) {
		text = text[:len(text)-len(codeFence)]
	}

	return strings.TrimSpace(text)
}

// stripLanguageTag drops an info string like "json" or "JSON5" that directly
// follows an opening fence.
func stripLanguageTag(text string) string {
	end := 0
	for end < len(text) && isTagByte(text[end]) {
		end++
	}
	if end == 0 {
		return text
	}
	rest := text[end:]
	if rest == "" || strings.ContainsAny(rest[:1], " \t\r\n{[") {
		return rest
	}
	return text
}

func isTagByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '-' || b == '_' || b == '+'
}
