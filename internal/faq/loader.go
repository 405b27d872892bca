// Package faq loads the grounding material for the assistant: a local PDF
// whose extracted text is injected into the system prompt.
//
// Loading is memoized per content hash, so the extraction cost is paid once
// per process while a swapped file on disk still invalidates the stale text.
// Absence of the file is not an error; grounding degrades to "no FAQ
// provided". Extraction failures likewise degrade to empty text, with the
// underlying error surfaced once so the caller can log it.
package faq

import (
	"crypto/sha256"
	"os"
	"sync"

	"github.com/averko/go-room-assistant/internal/pdfx"
)

// extractFn is the PDF extraction hook; a package-level seam so tests can
// exercise the loader without crafting real documents.
var extractFn = defaultExtract

// FAQ is the loaded grounding text. Truncated reports whether the extracted
// text exceeded the configured character budget and was cut to fit; callers
// surface this as a user-visible warning.
type FAQ struct {
	Text      string
	Truncated bool
}

// Available reports whether any grounding text was loaded.
func (f FAQ) Available() bool { return f.Text != "" }

// Chars returns the length of the loaded text in characters (runes).
func (f FAQ) Chars() int { return len([]rune(f.Text)) }

// Loader memoizes FAQ extraction for a single source file.
// It is safe for concurrent use.
type Loader struct {
	// Path is the PDF location. A missing file yields an empty FAQ.
	Path string
	// MaxChars caps the text injected into the prompt, in runes.
	MaxChars int

	mu     sync.Mutex
	sum    [sha256.Size]byte
	cached *FAQ
}

// Load returns the FAQ text, extracting and caching on first use. The cache
// key is the file's content hash, so replacing the file re-extracts while
// repeated calls against the same bytes are free.
//
// The returned error is informational: the FAQ value is always usable, and a
// parse failure simply means "no FAQ available".
func (l *Loader) Load() (FAQ, error) {
	raw, err := os.ReadFile(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return FAQ{}, nil
		}
		return FAQ{}, err
	}

	sum := sha256.Sum256(raw)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cached != nil && l.sum == sum {
		return *l.cached, nil
	}

	text, err := extractFn(raw)
	if err != nil {
		empty := FAQ{}
		l.cached, l.sum = &empty, sum
		return empty, err
	}

	out := FAQ{Text: text}
	if l.MaxChars > 0 {
		if runes := []rune(out.Text); len(runes) > l.MaxChars {
			out.Text = string(runes[:l.MaxChars])
			out.Truncated = true
		}
	}
	l.cached, l.sum = &out, sum
	return out, nil
}

// Source returns the configured PDF path.
func (l *Loader) Source() string { return l.Path }

func defaultExtract(b []byte) (string, error) {
	return pdfx.ExtractBytes(b)
}
