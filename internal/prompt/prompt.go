// Package prompt assembles the grounding system prompt: a base instruction
// block plus the FAQ text the assistant is allowed to answer from.
package prompt

import (
	"os"
	"strings"
)

// DefaultBase is the built-in instruction block used when no override file is
// present. It restricts the assistant to the supplied FAQ text.
const DefaultBase = `You are the helpful community manager for the building.

Rules:
- Answer ONLY using the provided FAQ/policy text.
- If the answer is not in the FAQ/policy text, say you don't know and ask the user to check with management.
- Do not guess or add rules that are not stated.`

// noFAQMarker is appended when no grounding text is available, so the model
// is told explicitly rather than being handed an empty block.
const noFAQMarker = "\n\nFAQ: (not provided)"

// LoadBase returns the base instruction block: the trimmed contents of the
// override file at path when it exists and is non-empty, else DefaultBase.
func LoadBase(path string) string {
	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			if s := strings.TrimSpace(string(b)); s != "" {
				return s
			}
		}
	}
	return DefaultBase
}

// Build combines the base instructions with the FAQ text into the system
// prompt. It is pure: fixed inputs always produce the same output.
func Build(base, faqText string) string {
	block := strings.TrimSpace(faqText)
	if block == "" {
		return base + noFAQMarker
	}
	return base + "\n\nFAQ:\n" + block
}
