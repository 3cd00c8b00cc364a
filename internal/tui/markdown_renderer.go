package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// minDescriptionWidth keeps glamour word-wrap sane on very narrow terminals.
const minDescriptionWidth = 24

// descriptionRenderer turns task description markdown into styled terminal
// text. The underlying glamour renderer is cached per wrap width and rebuilt
// only when the detail overlay is resized.
type descriptionRenderer struct {
	wrapWidth int
	term      *glamour.TermRenderer
}

// render styles the description for the given width. Any renderer failure
// falls back to the raw markdown so the detail view never goes blank.
func (r *descriptionRenderer) render(description string, width int) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return ""
	}

	if width < minDescriptionWidth {
		width = minDescriptionWidth
	}
	if r.term == nil || r.wrapWidth != width {
		term, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return description
		}
		r.term = term
		r.wrapWidth = width
	}

	styled, err := r.term.Render(description)
	if err != nil {
		return description
	}
	return strings.TrimRight(styled, "\n")
}
