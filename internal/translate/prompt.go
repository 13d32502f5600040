package translate

import (
	"fmt"
	"strconv"
	"strings"
)

// languageNames maps the short codes used in configuration to the names the
// LLM backends are prompted with. Unknown codes pass through unchanged.
var languageNames = map[string]string{
	"en": "English",
	"ja": "Japanese",
	"zh": "Chinese",
	"ko": "Korean",
	"fr": "French",
	"de": "German",
	"es": "Spanish",
	"it": "Italian",
	"pt": "Portuguese",
	"ru": "Russian",
	"pl": "Polish",
	"nl": "Dutch",
	"tr": "Turkish",
	"vi": "Vietnamese",
	"th": "Thai",
	"id": "Indonesian",
	"ar": "Arabic",
}

func languageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// numberedBlock renders texts as "1. ...\n2. ...". The numbering survives the
// round trip through the model and keys the answer back to its input.
func numberedBlock(texts []string) string {
	var b strings.Builder
	for i, t := range texts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}
	return b.String()
}

// translationInstruction is the task description shared by the prompt-based
// backends. Keeping the numbering is the load-bearing part.
func translationInstruction(source, target string) string {
	return fmt.Sprintf("Translate each numbered line from %s to %s, keeping the same numbering. Output only the translations, one per line.",
		languageName(source), languageName(target))
}

// parseNumberedLines recovers per-input translations from a model answer of
// the form "N. text". Lines that do not parse, or numbers outside [1, n],
// are dropped; inputs the model skipped stay nil.
func parseNumberedLines(raw string, n int) []*string {
	results := make([]*string, n)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		numStr, text, ok := strings.Cut(line, ". ")
		if !ok {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSpace(numStr))
		if err != nil || num < 1 || num > n {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		results[num-1] = &text
	}
	return results
}
