package ui

import (
	"fmt"
	"strings"

	"github.com/idilsaglam/todosync/internal/model"
)

// Theme bundles palette + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Title, Muted, Accent, Success, Error, Pending string
	High, Medium, Low                             string
	BoxUnchecked, BoxChecked                      string
	CornerTL, CornerTR, CornerBL, CornerBR        string
	H, V                                          string
	SymDone, SymUnchecked                         string
}

// Themes lists the accepted theme names.
var Themes = []string{"classic", "neon", "mono"}

var current = classic()

func classic() Theme {
	return Theme{
		Title: bold, Muted: fgGray, Accent: fgBlue,
		Success: fgGreen, Error: fgRed, Pending: fgYellow,
		High: fgRed, Medium: fgYellow, Low: fgGreen,
		BoxUnchecked: "☐", BoxChecked: "☑",
		CornerTL: "┌", CornerTR: "┐", CornerBL: "└", CornerBR: "┘",
		H: "─", V: "│",
		SymDone: "✔", SymUnchecked: "•",
	}
}

// SetTheme switches the palette. Unknown names are an error and leave the
// current theme in place.
func SetTheme(name string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "neon":
		disableColor = false
		current = Theme{
			Title: "\033[95m", // bright magenta
			Muted: fgGray, Accent: "\033[96m",
			Success: fgGreen, Error: fgRed, Pending: "\033[93m",
			High: "\033[91m", Medium: "\033[93m", Low: "\033[92m",
			BoxUnchecked: "◻", BoxChecked: "◼",
			CornerTL: "╭", CornerTR: "╮", CornerBL: "╰", CornerBR: "╯",
			H: "─", V: "│",
			SymDone: "✔", SymUnchecked: "•",
		}
	case "mono":
		disableColor = true
		current = Theme{
			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			CornerTL: "+", CornerTR: "+", CornerBL: "+", CornerBR: "+",
			H: "-", V: "|",
			SymDone: "x", SymUnchecked: "-",
		}
	case "", "classic":
		disableColor = false
		current = classic()
	default:
		return fmt.Errorf("unknown theme %q (want %s)", name, strings.Join(Themes, ", "))
	}
	return nil
}

// Expose what renderers need
func Current() Theme { return current }

// PriorityColor picks the theme color for p.
func (t Theme) PriorityColor(p model.Priority) string {
	switch p.OrDefault() {
	case model.PriorityHigh:
		return t.High
	case model.PriorityLow:
		return t.Low
	}
	return t.Medium
}
