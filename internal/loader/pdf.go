package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sync"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/extract"
)

// DefaultPageWindow is the number of pages materialized around the target
// position on a PDF's first load.
const DefaultPageWindow = 4

// pageSource abstracts the open PDF document: total page count plus
// per-page token extraction. Page identifiers are zero-based.
type pageSource interface {
	pageCount() int
	pageTokens(pageID int) ([]string, error)
	close() error
}

// PDFLoader loads PDFs lazily. The first fetch materializes a window of
// pages biased toward forward reading around the desired completion; later
// fetches are triggered by motions that ran off the loaded region and fill
// pages toward the pending cursor, renormalizing its signed overflow as each
// page's word count becomes known.
//
// The cursor is a (page, word-in-page) pair. Between a boundary-crossing
// motion and the fetch that resolves it, word may sit outside the current
// page's range; that pending state is reported as invalid to readers.
type PDFLoader struct {
	mu sync.Mutex

	src    Source
	log    *slog.Logger
	window int

	doc   pageSource
	count int
	pages map[int][]string

	page    int
	word    int
	desired float64
	loaded  bool
}

func NewPDFLoader(src Source, log *slog.Logger, window int) *PDFLoader {
	if window <= 0 {
		window = DefaultPageWindow
	}
	return &PDFLoader{
		src:    src,
		log:    log,
		window: window,
		pages:  make(map[int][]string),
		page:   -1,
	}
}

func (l *PDFLoader) Load(ctx context.Context, desired float64, progress func(float64)) error {
	if err := l.ensureOpen(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	fresh := len(l.pages) == 0
	if fresh {
		l.desired = desired
	}
	l.mu.Unlock()

	if fresh {
		return l.loadWindow(ctx, desired, progress)
	}
	return l.fillTowardCursor(ctx, progress)
}

// ensureOpen resolves the source and opens the PDF once; the document stays
// open for the lifetime of the loader so later fetches can pull more pages.
func (l *PDFLoader) ensureOpen(ctx context.Context) error {
	l.mu.Lock()
	opened := l.doc != nil
	l.mu.Unlock()
	if opened {
		return nil
	}

	doc, err := openPDF(ctx, l.src)
	if err != nil {
		return err
	}
	if doc.pageCount() == 0 {
		doc.close()
		return ErrEmptySource
	}

	l.mu.Lock()
	l.doc = doc
	l.count = doc.pageCount()
	l.mu.Unlock()
	return nil
}

// loadWindow performs the first, windowed load: pages
// [target-0.25*W, target+0.75*W] clamped to the document, in ascending
// order, then positions the cursor inside the target page by splitting the
// desired completion into a page fraction and an intra-page fraction.
//
// Extracted pages are staged locally and only published on success, so a
// failed pass leaves no partial contribution behind.
func (l *PDFLoader) loadWindow(ctx context.Context, desired float64, progress func(float64)) error {
	d := math.Min(math.Max(desired, 0), 1)
	target := int(d * float64(l.count))
	if target >= l.count {
		target = l.count - 1
	}

	minPage := int(math.Floor(float64(target) - 0.25*float64(l.window)))
	maxPage := int(math.Floor(float64(target) + 0.75*float64(l.window)))
	if minPage < 0 {
		minPage = 0
	}
	if maxPage > l.count-1 {
		maxPage = l.count - 1
	}

	staged := make(map[int][]string)
	total := 0
	for p := minPage; p <= maxPage; p++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		toks, err := l.doc.pageTokens(p)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedSource, err)
		}
		staged[p] = toks
		total += len(toks)
		if progress != nil {
			progress(float64(p-minPage+1) / float64(maxPage-minPage+1))
		}
	}
	// A window of image-only pages is not an empty document: publish the
	// empty pages, park the cursor on the target page and resolve it like a
	// pending motion, forward first, then backward. Only a fill that
	// exhausts the document in both directions means there is no text.
	if total == 0 {
		l.mu.Lock()
		for p, toks := range staged {
			l.pages[p] = toks
		}
		l.page, l.word = target, 0
		l.loaded = true
		l.mu.Unlock()

		if err := l.fillTowardCursor(ctx, progress); err != nil {
			return err
		}
		if !l.IsInvalid() {
			return nil
		}

		l.mu.Lock()
		l.page, l.word = target, -1
		l.mu.Unlock()
		if err := l.fillTowardCursor(ctx, progress); err != nil {
			return err
		}
		if l.IsInvalid() {
			return ErrEmptySource
		}
		return nil
	}

	words := staged[target]
	frac := d*float64(l.count) - float64(target)
	word := int(math.Round(frac * float64(len(words))))
	if word >= len(words) {
		word = len(words) - 1
	}
	if word < 0 {
		word = 0
	}

	l.mu.Lock()
	for p, toks := range staged {
		l.pages[p] = toks
	}
	l.page = target
	l.word = word
	l.loaded = true
	valid := !l.invalidLocked()
	l.mu.Unlock()

	l.log.Debug("pdf window loaded", "pages", fmt.Sprintf("[%d,%d]", minPage, maxPage), "target", target, "word", word)

	// An empty target page leaves the cursor dangling; resolve it like a
	// pending motion.
	if !valid {
		return l.fillTowardCursor(ctx, progress)
	}
	return nil
}

// fillTowardCursor loads pages in the direction of the cursor's signed
// overflow until the cursor lands on an existing token or the document
// boundary clamps it.
func (l *PDFLoader) fillTowardCursor(ctx context.Context, progress func(float64)) error {
	l.mu.Lock()
	page, word := l.page, l.word
	l.mu.Unlock()

	staged := make(map[int][]string)

	length := func(p int) (int, bool) {
		if toks, ok := staged[p]; ok {
			return len(toks), true
		}
		l.mu.Lock()
		toks, ok := l.pages[p]
		l.mu.Unlock()
		return len(toks), ok
	}
	load := func(p int) error {
		toks, err := l.doc.pageTokens(p)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedSource, err)
		}
		staged[p] = toks
		if progress != nil {
			l.mu.Lock()
			known := len(l.pages) + len(staged)
			l.mu.Unlock()
			progress(math.Min(float64(known)/float64(l.count), 1))
		}
		return nil
	}

	// The loop visits each page at most once in a single direction, costing
	// up to two iterations per page (one load, one advance); more than that
	// means the bookkeeping is off, so clamp instead of spinning.
	for iter := 0; ; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if iter > 2*l.count+2 {
			l.log.Warn("pdf cursor fill did not settle, clamping", "page", page, "word", word)
			word = 0
			break
		}

		n, ok := length(page)
		if !ok {
			if err := load(page); err != nil {
				return err
			}
			continue
		}

		if word < 0 {
			if page == 0 {
				word = 0
				break
			}
			m, ok := length(page - 1)
			if !ok {
				if err := load(page - 1); err != nil {
					return err
				}
				m, _ = length(page - 1)
			}
			page--
			word += m
			continue
		}

		if word >= n {
			if page == l.count-1 {
				word = n - 1
				if word < 0 {
					word = 0
				}
				break
			}
			word -= n
			page++
			continue
		}

		break
	}

	l.mu.Lock()
	for p, toks := range staged {
		l.pages[p] = toks
	}
	l.page = page
	l.word = word
	l.loaded = true
	l.mu.Unlock()

	l.log.Debug("pdf cursor filled", "page", page, "word", word)
	return nil
}

func (l *PDFLoader) invalidLocked() bool {
	if !l.loaded || l.count == 0 {
		return true
	}
	toks, ok := l.pages[l.page]
	return !ok || l.word < 0 || l.word >= len(toks)
}

func (l *PDFLoader) IsInvalid() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.invalidLocked()
}

func (l *PDFLoader) IsAtStart() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.invalidLocked() && l.page == 0 && l.word == 0
}

func (l *PDFLoader) IsAtEnd() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.invalidLocked() || l.page != l.count-1 {
		return false
	}
	return l.word == len(l.pages[l.page])-1
}

func (l *PDFLoader) Completion() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.invalidLocked() {
		return l.desired
	}
	words := len(l.pages[l.page])
	if words == 0 {
		words = 1
	}
	p := float64(l.count)
	return float64(l.page)/p + (float64(l.word)/float64(words))/p
}

func (l *PDFLoader) CurrentWord() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.invalidLocked() {
		return ""
	}
	return l.pages[l.page][l.word]
}

func (l *PDFLoader) PreviousWord() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.invalidLocked() {
		return ""
	}
	if l.word > 0 {
		return l.pages[l.page][l.word-1]
	}
	if prev, ok := l.pages[l.page-1]; ok && len(prev) > 0 {
		return prev[len(prev)-1]
	}
	return ""
}

func (l *PDFLoader) NextWord() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.invalidLocked() {
		return ""
	}
	if l.word < len(l.pages[l.page])-1 {
		return l.pages[l.page][l.word+1]
	}
	if next, ok := l.pages[l.page+1]; ok && len(next) > 0 {
		return next[0]
	}
	return ""
}

func (l *PDFLoader) Perform(action Action, step int) Motion {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.invalidLocked() {
		return Motion{}
	}

	switch action {
	case ActionRewind:
		changed := l.page != 0 || l.word != 0
		l.page, l.word = 0, 0
		_, ok := l.pages[0]
		return Motion{Changed: changed, NeedsLoading: !ok}
	case ActionNextWord:
		return l.moveLocked(1)
	case ActionPreviousStep:
		return l.moveLocked(-step)
	case ActionNextStep:
		return l.moveLocked(step)
	}
	return Motion{}
}

// moveLocked shifts the cursor by delta words, walking across loaded pages.
// Hitting an unloaded page leaves the signed overflow in place and asks the
// caller to fetch; hitting a document boundary clamps.
func (l *PDFLoader) moveLocked(delta int) Motion {
	page, word := l.page, l.word+delta

	for {
		n := len(l.pages[page])

		if word < 0 {
			if page == 0 {
				word = 0
				break
			}
			prev, ok := l.pages[page-1]
			if !ok {
				l.page, l.word = page, word
				return Motion{Changed: true, NeedsLoading: true}
			}
			page--
			word += len(prev)
			continue
		}

		if word >= n {
			if page == l.count-1 {
				word = n - 1
				break
			}
			if _, ok := l.pages[page+1]; !ok {
				l.page, l.word = page, word
				return Motion{Changed: true, NeedsLoading: true}
			}
			word -= n
			page++
			continue
		}

		break
	}

	changed := page != l.page || word != l.word
	l.page, l.word = page, word
	return Motion{Changed: changed}
}

func (l *PDFLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.doc == nil {
		return nil
	}
	err := l.doc.close()
	l.doc = nil
	return err
}

// pdfDocument is the real pageSource backed by ledongthuc/pdf. The library
// needs a ReadSeeker with a known size, so the stream is spooled to a temp
// file that lives as long as the loader.
type pdfDocument struct {
	file   *os.File
	path   string
	reader *pdflib.Reader
}

func openPDF(ctx context.Context, src Source) (*pdfDocument, error) {
	rc, err := src(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "readdesc-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %v", ErrSourceUnreadable, err)
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: write temp file: %v", ErrSourceUnreadable, err)
	}
	tmp.Close()

	f, reader, err := pdflib.Open(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: open pdf: %v", ErrMalformedSource, err)
	}

	return &pdfDocument{file: f, path: tmpPath, reader: reader}, nil
}

func (d *pdfDocument) pageCount() int {
	return d.reader.NumPage()
}

// pageTokens extracts one page's positioned text runs and reassembles them
// into tokens. The pdf library panics on some malformed content streams;
// that is normalized into an error here.
func (d *pdfDocument) pageTokens(pageID int) (toks []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract page %d: %v", pageID+1, r)
		}
	}()

	page := d.reader.Page(pageID + 1)
	if page.V.IsNull() {
		return nil, nil
	}

	var ex extract.StreamExtractor
	for _, t := range page.Content().Text {
		ex.Add(extract.Fragment{
			Text:       t.S,
			StartX:     t.X,
			StartY:     t.Y,
			EndX:       t.X + t.W,
			EndY:       t.Y,
			SpaceWidth: singleSpaceWidth(t.FontSize),
		})
	}
	return ex.Finish(), nil
}

// singleSpaceWidth estimates the width of a space glyph; the content stream
// does not carry it explicitly.
func singleSpaceWidth(fontSize float64) float64 {
	if fontSize > 0 {
		return fontSize / 4
	}
	return 1
}

func (d *pdfDocument) close() error {
	err := d.file.Close()
	os.Remove(d.path)
	return err
}
