package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/extract"
)

// MarkdownLoader handles Markdown documents. Like HTML it loads in one pass
// and is section-aware: headings become step-motion checkpoints.
type MarkdownLoader struct {
	tokenStream
	src Source
	log *slog.Logger
}

func NewMarkdownLoader(src Source, log *slog.Logger) *MarkdownLoader {
	l := &MarkdownLoader{src: src, log: log}
	l.sectional = true
	return l
}

func (l *MarkdownLoader) Load(ctx context.Context, desired float64, progress func(float64)) error {
	rc, err := l.src(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	defer rc.Close()

	src, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("%w: read source: %v", ErrSourceUnreadable, err)
	}

	tokens, checkpoints := extract.WalkMarkdown(src)
	if len(tokens) == 0 {
		return ErrEmptySource
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	l.install(tokens, checkpoints, desired)
	l.log.Debug("markdown loaded", "tokens", len(tokens), "sections", len(checkpoints))
	if progress != nil {
		progress(1)
	}
	return nil
}

func (l *MarkdownLoader) Close() error {
	return nil
}
