package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	docx "github.com/fumiama/go-docx"

	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/token"
)

// EBookLoader handles DOCX e-books through the go-docx library. The whole
// document is fetched at once and flattened into a plain token stream; the
// format contributes no section checkpoints, so step motions jump by word
// count like PDF.
type EBookLoader struct {
	tokenStream
	src Source
	log *slog.Logger
}

func NewEBookLoader(src Source, log *slog.Logger) *EBookLoader {
	return &EBookLoader{src: src, log: log}
}

func (l *EBookLoader) Load(ctx context.Context, desired float64, progress func(float64)) error {
	rc, err := l.src(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	defer rc.Close()

	// go-docx needs a ReadSeeker+size, so spool to a temp file.
	tmp, err := os.CreateTemp("", "readdesc-ebook-*.docx")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrSourceUnreadable, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	defer tmp.Close()

	size, err := io.Copy(tmp, rc)
	if err != nil {
		return fmt.Errorf("%w: write temp file: %v", ErrSourceUnreadable, err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek temp file: %v", ErrSourceUnreadable, err)
	}

	doc, err := docx.Parse(tmp, size)
	if err != nil {
		return fmt.Errorf("%w: parse docx: %v", ErrMalformedSource, err)
	}

	var app token.Appender
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		app.AppendText(paragraphText(para))
	}
	tokens := app.Tokens()
	if len(tokens) == 0 {
		return ErrEmptySource
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	l.install(tokens, nil, desired)
	l.log.Debug("ebook loaded", "tokens", len(tokens))
	if progress != nil {
		progress(1)
	}
	return nil
}

func (l *EBookLoader) Close() error {
	return nil
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return buf.String()
}
