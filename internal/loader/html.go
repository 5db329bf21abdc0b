package loader

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/net/html"

	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/extract"
)

// HTMLLoader materializes a web page in one pass: the whole element tree is
// parsed up front and the body is walked depth-first into tokens plus
// heading checkpoints. No motion ever needs further loading.
type HTMLLoader struct {
	tokenStream
	src Source
	log *slog.Logger
}

func NewHTMLLoader(src Source, log *slog.Logger) *HTMLLoader {
	l := &HTMLLoader{src: src, log: log}
	l.sectional = true
	return l
}

func (l *HTMLLoader) Load(ctx context.Context, desired float64, progress func(float64)) error {
	rc, err := l.src(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	defer rc.Close()

	doc, err := html.Parse(rc)
	if err != nil {
		return fmt.Errorf("%w: parse html: %v", ErrMalformedSource, err)
	}

	root := extract.FindBody(doc)
	if root == nil {
		root = doc
	}
	tokens, checkpoints := extract.WalkTree(root)
	if len(tokens) == 0 {
		return ErrEmptySource
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	l.install(tokens, checkpoints, desired)
	l.log.Debug("html loaded", "tokens", len(tokens), "sections", len(checkpoints))
	if progress != nil {
		progress(1)
	}
	return nil
}

func (l *HTMLLoader) Close() error {
	return nil
}
