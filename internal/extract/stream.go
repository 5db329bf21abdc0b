package extract

import (
	"math"
	"strings"
	"unicode"

	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/token"
)

// Fragment is one low-level render event: a run of text with the start and
// end points of its baseline plus the width of a single space in its font.
// Page-based sources emit these in drawing order, often splitting a word
// across several fragments when the font or kerning changes mid-word.
type Fragment struct {
	Text       string
	StartX     float64
	StartY     float64
	EndX       float64
	EndY       float64
	SpaceWidth float64
}

const (
	// Perpendicular distance from a fragment's start to the previous
	// baseline beyond which the fragment is treated as a new line.
	lineBreakThreshold = 2.0

	// A gap between consecutive fragments wider than spaceWidth/spaceGapDivisor
	// is treated as an inter-word space the source did not encode.
	spaceGapDivisor = 5.2
)

// StreamExtractor reassembles words from positioned fragments. Fragments that
// continue the previous baseline with no significant gap are glued onto the
// token being accumulated; line breaks and inferred spaces close it. Closed
// tokens go through the same filtering and punctuation collapse as the
// one-shot sanitizer.
type StreamExtractor struct {
	app  token.Appender
	acc  strings.Builder
	prev Fragment
	seen bool
}

// Add consumes the next fragment in drawing order.
func (e *StreamExtractor) Add(f Fragment) {
	if e.seen {
		if perpendicularDistance(e.prev, f) > lineBreakThreshold {
			e.closeToken()
		} else if f.SpaceWidth > 0 && gap(e.prev, f) > f.SpaceWidth/spaceGapDivisor {
			e.closeToken()
		}
	}

	for _, r := range f.Text {
		if unicode.IsSpace(r) {
			e.closeToken()
			continue
		}
		e.acc.WriteRune(r)
	}

	e.prev = f
	e.seen = true
}

// Len returns the number of tokens closed so far, not counting any partial
// accumulation still open.
func (e *StreamExtractor) Len() int {
	return e.app.Len()
}

// Finish closes any pending accumulation and returns the token list.
func (e *StreamExtractor) Finish() []string {
	e.closeToken()
	return e.app.Tokens()
}

func (e *StreamExtractor) closeToken() {
	if e.acc.Len() == 0 {
		return
	}
	e.app.Append(e.acc.String())
	e.acc.Reset()
}

// perpendicularDistance measures how far f's start point sits from the line
// carrying prev's baseline. Degenerate (zero length) baselines fall back to
// the vertical offset.
func perpendicularDistance(prev, f Fragment) float64 {
	dx := prev.EndX - prev.StartX
	dy := prev.EndY - prev.StartY
	length := math.Hypot(dx, dy)
	if length == 0 {
		return math.Abs(f.StartY - prev.StartY)
	}
	num := math.Abs(dy*f.StartX - dx*f.StartY + prev.EndX*prev.StartY - prev.EndY*prev.StartX)
	return num / length
}

// gap is the distance between prev's end point and f's start point.
func gap(prev, f Fragment) float64 {
	return math.Hypot(f.StartX-prev.EndX, f.StartY-prev.EndY)
}
