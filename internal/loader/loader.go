package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// Kind tags the source format of a document and selects its loader.
type Kind string

const (
	KindFile     Kind = "file"    // PDF
	KindWebPage  Kind = "webpage" // HTML
	KindEBook    Kind = "ebook"   // DOCX e-book
	KindMarkdown Kind = "markdown"
	KindText     Kind = "text"
)

// Action is the motion vocabulary understood by every loader.
type Action int

const (
	ActionRewind Action = iota
	ActionNextWord
	ActionPreviousStep
	ActionNextStep
)

// Motion is the two-part result of a motion request: whether the cursor
// moved, and whether the destination lands on data that still has to be
// fetched. Motions never fail; boundary and invalid-state requests are
// no-ops reported through this pair.
type Motion struct {
	Changed      bool
	NeedsLoading bool
}

// Source resolves the document's locator into a readable byte stream. The
// core never touches the filesystem or network itself; the capability is
// handed to the loader at construction time.
type Source func(ctx context.Context) (io.ReadCloser, error)

// Failure categories normalized at the Load boundary. Format-library errors
// never propagate past a loader as raw values.
var (
	ErrSourceUnreadable = errors.New("source unreadable")
	ErrMalformedSource  = errors.New("malformed source")
	ErrEmptySource      = errors.New("empty source")
)

// Loader owns the extraction, token storage and cursor for one document.
//
// Load runs on a background goroutine and may be invoked again after a
// motion reports NeedsLoading; the loader then resumes toward its pending
// cursor instead of starting over. All other methods are safe to call
// concurrently with a running Load: each one holds the loader's mutex for
// its whole critical section, and Load takes the same mutex only around
// mutations of the shared token/page/cursor state, never across extraction
// work.
type Loader interface {
	Load(ctx context.Context, desired float64, progress func(float64)) error

	IsInvalid() bool
	IsAtStart() bool
	IsAtEnd() bool
	Completion() float64

	CurrentWord() string
	PreviousWord() string
	NextWord() string

	Perform(action Action, step int) Motion

	Close() error
}

// Options carries loader tunables that are not per-motion parameters.
type Options struct {
	// PageWindow is the number of PDF pages eagerly materialized around the
	// target position on the first load. Zero means the default of 4.
	PageWindow int
}

// ForKind returns the loader for a document kind. The kind set is closed;
// anything else is an error.
func ForKind(kind Kind, src Source, log *slog.Logger, opts Options) (Loader, error) {
	switch kind {
	case KindFile:
		return NewPDFLoader(src, log, opts.PageWindow), nil
	case KindWebPage:
		return NewHTMLLoader(src, log), nil
	case KindEBook:
		return NewEBookLoader(src, log), nil
	case KindMarkdown:
		return NewMarkdownLoader(src, log), nil
	case KindText:
		return NewTextLoader(src, log), nil
	default:
		return nil, fmt.Errorf("unsupported document kind: %s", kind)
	}
}

// KindForFile infers the document kind from a filename extension.
func KindForFile(filename string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindFile, nil
	case ".html", ".htm":
		return KindWebPage, nil
	case ".docx":
		return KindEBook, nil
	case ".md", ".markdown":
		return KindMarkdown, nil
	case ".txt":
		return KindText, nil
	default:
		return "", fmt.Errorf("unsupported file extension: %s", filepath.Ext(filename))
	}
}

// IsSupportedFile checks whether a filename maps to a known kind.
func IsSupportedFile(filename string) bool {
	_, err := KindForFile(filename)
	return err == nil
}
