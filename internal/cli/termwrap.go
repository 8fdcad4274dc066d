package cli

import (
	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/term"
)

// TermWrap wraps help text to the width of the controlling terminal.
type TermWrap struct {
	width  int
	height int
}

// NewTermWrap measures stdin's terminal, falling back to the defaults when it
// is not one.
func NewTermWrap(defaultWidth, defaultHeight int) *TermWrap {
	var err error
	tw := &TermWrap{}

	tw.width, tw.height, err = term.GetSize(0)
	if err != nil || tw.width <= 0 {
		tw.width = defaultWidth
		tw.height = defaultHeight
	}

	return tw
}

func (tw *TermWrap) Paragraph(content string) string {
	return wordwrap.WrapString(content, uint(tw.width))
}
