package extract

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/token"
)

// WalkMarkdown parses a Markdown document and flattens it into tokens plus
// section checkpoints, one per heading, recorded before the heading's own
// text contributes to the count — the same ordering WalkTree uses for HTML.
// The walk descends through container blocks (blockquotes, lists), so a
// heading nested inside one still becomes a checkpoint at its token offset.
func WalkMarkdown(src []byte) ([]string, []int) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var app token.Appender
	var checkpoints []int

	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		if h, ok := n.(*ast.Heading); ok {
			at := app.Len()
			if len(checkpoints) == 0 || at > checkpoints[len(checkpoints)-1] {
				checkpoints = append(checkpoints, at)
			}
			app.AppendText(string(h.Text(src)))
			return
		}
		if n.Type() == ast.TypeBlock && !hasBlockChildren(n) {
			app.AppendText(markdownText(n, src))
			return
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		walk(n)
	}

	return app.Tokens(), checkpoints
}

func hasBlockChildren(n ast.Node) bool {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() == ast.TypeBlock {
			return true
		}
	}
	return false
}

// markdownText collects the text content of a goldmark AST node. Inline
// children are preferred over raw block lines so markup punctuation does not
// leak into the tokens.
func markdownText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.HasChildren() {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					buf.WriteByte('\n')
				}
				continue
			}
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(markdownText(c, src))
		}
		return buf.String()
	}
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}
