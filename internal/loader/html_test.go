package loader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stringSource(s string) Source {
	return func(ctx context.Context) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(s)), nil
	}
}

func failingSource(err error) Source {
	return func(ctx context.Context) (io.ReadCloser, error) {
		return nil, err
	}
}

const diaryHTML = `<html><body>
	<h1>My Diary</h1>
	<p>today was a fine day for reading words quickly</p>
	<h2>Chapter One</h2>
	<p>it started with a small experiment in focus and pace
	that grew into a habit</p>
	<h2>Chapter Two</h2>
	<p>the habit stayed and the pages went by faster and faster still</p>
</body></html>`

func TestHTMLLoader_Load(t *testing.T) {
	l := NewHTMLLoader(stringSource(diaryHTML), discardLogger())

	var progressed float64
	if err := l.Load(context.Background(), 0, func(p float64) { progressed = p }); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if l.IsInvalid() {
		t.Fatal("expected loader to be valid after load")
	}
	if !l.IsAtStart() {
		t.Error("expected cursor at start for desired 0")
	}
	if got := l.CurrentWord(); got != "My" {
		t.Errorf("CurrentWord() = %q, want My", got)
	}
	if progressed != 1 {
		t.Errorf("progress = %v, want 1", progressed)
	}
}

func TestHTMLLoader_ResumeMidDocument(t *testing.T) {
	l := NewHTMLLoader(stringSource(diaryHTML), discardLogger())
	if err := l.Load(context.Background(), 0.5, nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if l.IsAtStart() || l.IsAtEnd() {
		t.Fatal("expected cursor mid-document")
	}
	if got := l.CurrentWord(); got == "" {
		t.Error("expected a current word after resume")
	}

	// A markup document steps by section: going back lands on a heading.
	res := l.Perform(ActionPreviousStep, 10)
	if !res.Changed || res.NeedsLoading {
		t.Fatalf("PreviousStep = %+v, want changed without loading", res)
	}
	if got := l.CurrentWord(); got != "Chapter" {
		t.Errorf("CurrentWord() after section step = %q, want Chapter", got)
	}
}

func TestHTMLLoader_SectionJumpsReachBothEnds(t *testing.T) {
	l := NewHTMLLoader(stringSource(diaryHTML), discardLogger())
	if err := l.Load(context.Background(), 0, nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Forward jumps visit every section then stop at the last token.
	for i := 0; i < 10 && !l.IsAtEnd(); i++ {
		l.Perform(ActionNextStep, 1)
	}
	if !l.IsAtEnd() {
		t.Fatal("expected forward section jumps to reach the end")
	}

	for i := 0; i < 10 && !l.IsAtStart(); i++ {
		l.Perform(ActionPreviousStep, 1)
	}
	if !l.IsAtStart() {
		t.Fatal("expected backward section jumps to reach the start")
	}
}

func TestHTMLLoader_EmptyBody(t *testing.T) {
	l := NewHTMLLoader(stringSource("<html><body></body></html>"), discardLogger())

	err := l.Load(context.Background(), 0, nil)
	if !errors.Is(err, ErrEmptySource) {
		t.Errorf("Load = %v, want ErrEmptySource", err)
	}
	if !l.IsInvalid() {
		t.Error("expected loader to stay invalid after failed load")
	}
}

func TestHTMLLoader_UnreadableSource(t *testing.T) {
	cause := errors.New("connection refused")
	l := NewHTMLLoader(failingSource(cause), discardLogger())

	err := l.Load(context.Background(), 0, nil)
	if !errors.Is(err, ErrSourceUnreadable) {
		t.Errorf("Load = %v, want ErrSourceUnreadable", err)
	}
}

func TestHTMLLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewHTMLLoader(stringSource(diaryHTML), discardLogger())
	err := l.Load(ctx, 0, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Load = %v, want context.Canceled", err)
	}
	if !l.IsInvalid() {
		t.Error("cancelled load must not publish tokens")
	}
}

func TestTextLoader_Load(t *testing.T) {
	l := NewTextLoader(stringSource("one two three , four"), discardLogger())
	if err := l.Load(context.Background(), 0, nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := l.CurrentWord(); got != "one" {
		t.Errorf("CurrentWord() = %q, want one", got)
	}
	if got := l.NextWord(); got != "two" {
		t.Errorf("NextWord() = %q, want two", got)
	}

	// Flat documents step by word count, not by section.
	l.Perform(ActionNextStep, 2)
	if got := l.CurrentWord(); got != "three," {
		t.Errorf("CurrentWord() after step = %q, want three,", got)
	}
}

func TestTextLoader_EmptySource(t *testing.T) {
	l := NewTextLoader(stringSource("   \n\t "), discardLogger())
	if err := l.Load(context.Background(), 0, nil); !errors.Is(err, ErrEmptySource) {
		t.Errorf("Load = %v, want ErrEmptySource", err)
	}
}

func TestMarkdownLoader_Load(t *testing.T) {
	src := "# Title\n\nalpha beta\n\n## Next\n\ngamma delta\n"
	l := NewMarkdownLoader(stringSource(src), discardLogger())
	if err := l.Load(context.Background(), 0, nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := l.CurrentWord(); got != "Title" {
		t.Errorf("CurrentWord() = %q, want Title", got)
	}

	res := l.Perform(ActionNextStep, 1)
	if !res.Changed {
		t.Fatal("expected section jump to move")
	}
	if got := l.CurrentWord(); got != "Next" {
		t.Errorf("CurrentWord() after section jump = %q, want Next", got)
	}
}

func TestKindForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     Kind
		wantErr  bool
	}{
		{filename: "book.pdf", want: KindFile},
		{filename: "page.HTML", want: KindWebPage},
		{filename: "novel.docx", want: KindEBook},
		{filename: "notes.md", want: KindMarkdown},
		{filename: "readme.markdown", want: KindMarkdown},
		{filename: "plain.txt", want: KindText},
		{filename: "image.png", wantErr: true},
		{filename: "noext", wantErr: true},
	}

	for _, tt := range tests {
		got, err := KindForFile(tt.filename)
		if tt.wantErr {
			if err == nil {
				t.Errorf("KindForFile(%q) expected error, got %v", tt.filename, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("KindForFile(%q): %v", tt.filename, err)
			continue
		}
		if got != tt.want {
			t.Errorf("KindForFile(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestForKind_Unsupported(t *testing.T) {
	if _, err := ForKind(Kind("spreadsheet"), stringSource(""), discardLogger(), Options{}); err == nil {
		t.Error("expected error for unknown kind")
	}
}
