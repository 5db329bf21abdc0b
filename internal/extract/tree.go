package extract

import (
	"golang.org/x/net/html"

	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/token"
)

// WalkTree runs a depth-first traversal of an HTML subtree (normally the
// body) and returns the clean token list plus the section checkpoints: for
// each heading element, the token offset at which that section starts.
//
// The checkpoint is recorded when the heading is entered, before its children
// contribute their text, so offsets always line up with the token positions
// produced by the same traversal. Checkpoints are strictly increasing; a
// heading encountered at an offset already covered by the previous checkpoint
// (e.g. nested or back-to-back empty headings) is not recorded twice.
func WalkTree(root *html.Node) ([]string, []int) {
	var app token.Appender
	var checkpoints []int

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			app.AppendText(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			}
			if headingLevel(n.Data) > 0 {
				at := app.Len()
				if len(checkpoints) == 0 || at > checkpoints[len(checkpoints)-1] {
					checkpoints = append(checkpoints, at)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return app.Tokens(), checkpoints
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

// FindBody locates the body element of a parsed document, or nil.
func FindBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := FindBody(c); b != nil {
			return b
		}
	}
	return nil
}
