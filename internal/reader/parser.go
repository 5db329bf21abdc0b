// Package reader holds the parser facade that drives one loader per reading
// session, plus the session registry the HTTP layer polls.
package reader

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/catalogue"
	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/loader"
)

// Listener receives the loading lifecycle of a parser. Callbacks fire from
// the background fetch goroutine.
type Listener interface {
	OnLoadingStarted()
	OnLoadingProgress(float64)
	OnLoadingSuccess()
	OnLoadingFailure()
}

// Parser is the per-document facade: it owns exactly one loader, runs its
// fetches on a background goroutine, forwards lifecycle callbacks, resolves
// needs-more-loading motion results by re-triggering the fetch, and writes
// the completion back to the catalogue on save.
type Parser struct {
	mu        sync.Mutex
	desc      catalogue.Desc
	loader    loader.Loader
	log       *slog.Logger
	listeners []Listener

	ctx      context.Context
	cancel   context.CancelFunc
	fetching bool
	wg       sync.WaitGroup
}

func NewParser(desc catalogue.Desc, src loader.Source, log *slog.Logger, opts loader.Options) (*Parser, error) {
	ld, err := loader.ForKind(desc.Kind, src, log, opts)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Parser{
		desc:   desc,
		loader: ld,
		log:    log.With("document", desc.Name, "kind", desc.Kind),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// AddListener registers a lifecycle listener. Register before StartReading
// to observe the first fetch.
func (p *Parser) AddListener(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

// StartReading begins loading the document at its saved completion.
func (p *Parser) StartReading() {
	p.fetch(p.desc.Completion)
}

// fetch runs one background load. At most one fetch is in flight at a time;
// a request that arrives while one is running is dropped, since the running
// fetch is already working toward the same cursor.
func (p *Parser) fetch(desired float64) {
	p.mu.Lock()
	if p.fetching {
		p.mu.Unlock()
		return
	}
	p.fetching = true
	p.mu.Unlock()

	p.notifyStarted()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		err := p.loader.Load(p.ctx, desired, p.notifyProgress)

		p.mu.Lock()
		p.fetching = false
		p.mu.Unlock()

		// A cancelled fetch stops silently: no further callbacks.
		if errors.Is(err, context.Canceled) || p.ctx.Err() != nil {
			return
		}
		if err != nil {
			p.log.Error("loading failed", "error", err)
			p.notifyFailure()
			return
		}
		p.notifySuccess()
	}()
}

// Rewind moves the cursor back to the very start of the document.
func (p *Parser) Rewind() loader.Motion {
	return p.perform(loader.ActionRewind, 0)
}

// Advance moves forward by exactly one word.
func (p *Parser) Advance() loader.Motion {
	return p.perform(loader.ActionNextWord, 0)
}

// MoveToPrevious steps back by step words, or to the previous section
// boundary on section-aware documents.
func (p *Parser) MoveToPrevious(step int) loader.Motion {
	return p.perform(loader.ActionPreviousStep, step)
}

// MoveToNext steps forward by step words, or to the next section boundary on
// section-aware documents.
func (p *Parser) MoveToNext(step int) loader.Motion {
	return p.perform(loader.ActionNextStep, step)
}

func (p *Parser) perform(action loader.Action, step int) loader.Motion {
	res := p.loader.Perform(action, step)
	if res.NeedsLoading {
		// The loader already knows where it is trying to go; no new desired
		// progress is passed.
		p.fetch(p.desc.Completion)
	}
	return res
}

func (p *Parser) IsInvalid() bool     { return p.loader.IsInvalid() }
func (p *Parser) IsAtStart() bool     { return p.loader.IsAtStart() }
func (p *Parser) IsAtEnd() bool       { return p.loader.IsAtEnd() }
func (p *Parser) Completion() float64 { return p.loader.Completion() }
func (p *Parser) CurrentWord() string { return p.loader.CurrentWord() }

// Name returns the catalogue name of the document being read.
func (p *Parser) Name() string { return p.desc.Name }

// SaveProgression writes the current completion and access time back to the
// catalogue. Persistence failures are reported as a boolean, never an error
// crossing this boundary.
func (p *Parser) SaveProgression(store *catalogue.Store) bool {
	if err := store.UpdateProgress(p.desc.Name, p.loader.Completion()); err != nil {
		p.log.Error("save progression failed", "error", err)
		return false
	}
	return true
}

// Close cancels any in-flight fetch and releases the loader's resources.
func (p *Parser) Close() error {
	p.cancel()
	p.wg.Wait()
	return p.loader.Close()
}

func (p *Parser) snapshotListeners() []Listener {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Listener, len(p.listeners))
	copy(out, p.listeners)
	return out
}

func (p *Parser) notifyStarted() {
	for _, l := range p.snapshotListeners() {
		l.OnLoadingStarted()
	}
}

func (p *Parser) notifyProgress(v float64) {
	for _, l := range p.snapshotListeners() {
		l.OnLoadingProgress(v)
	}
}

func (p *Parser) notifySuccess() {
	for _, l := range p.snapshotListeners() {
		l.OnLoadingSuccess()
	}
}

func (p *Parser) notifyFailure() {
	for _, l := range p.snapshotListeners() {
		l.OnLoadingFailure()
	}
}
