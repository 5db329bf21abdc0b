package token

import "strings"

// Appender accumulates clean tokens. Both the one-shot Sanitize path and the
// streaming extractor funnel candidate tokens through the same Append, so a
// document produces identical output whether its text arrives pre-joined or
// as a live stream of fragments.
type Appender struct {
	out []string
}

// Append filters and stores a single candidate token. Empty tokens and lone
// separator characters are dropped. A lone punctuation or currency glyph is
// concatenated onto the previous token when one exists; a document whose very
// first token is punctuation keeps it as-is.
func (a *Appender) Append(tok string) {
	tok = strings.TrimSpace(tok)
	if tok == "" || IsSeparator(tok) {
		return
	}
	if IsCollapsible(tok) && len(a.out) > 0 {
		a.out[len(a.out)-1] += tok
		return
	}
	a.out = append(a.out, tok)
}

// AppendText splits raw text on whitespace and appends each piece.
func (a *Appender) AppendText(raw string) {
	for _, f := range strings.Fields(raw) {
		a.Append(f)
	}
}

// Len returns the number of tokens accumulated so far.
func (a *Appender) Len() int {
	return len(a.out)
}

// Tokens returns the accumulated token slice.
func (a *Appender) Tokens() []string {
	return a.out
}

// Sanitize turns a raw text block into clean word tokens: whitespace split,
// separator filtering, punctuation/currency collapse.
func Sanitize(raw string) []string {
	var a Appender
	a.AppendText(raw)
	return a.Tokens()
}
