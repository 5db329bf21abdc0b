package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/token"
)

// TextLoader handles plain text. Flat stream, word-count steps.
type TextLoader struct {
	tokenStream
	src Source
	log *slog.Logger
}

func NewTextLoader(src Source, log *slog.Logger) *TextLoader {
	return &TextLoader{src: src, log: log}
}

func (l *TextLoader) Load(ctx context.Context, desired float64, progress func(float64)) error {
	rc, err := l.src(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("%w: read source: %v", ErrSourceUnreadable, err)
	}

	tokens := token.Sanitize(string(raw))
	if len(tokens) == 0 {
		return ErrEmptySource
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	l.install(tokens, nil, desired)
	l.log.Debug("text loaded", "tokens", len(tokens))
	if progress != nil {
		progress(1)
	}
	return nil
}

func (l *TextLoader) Close() error {
	return nil
}
