package screen

import (
	"strings"
	"unicode/utf8"

	"github.com/jypelle/frontpanel/internal/frame"
)

// DisplayMenuPainter draws menus as text on the panel.
type DisplayMenuPainter struct {
	Display Display
}

func (p *DisplayMenuPainter) DrawMenuOverview(menu Menu, current MenuOption) error {
	if err := p.Display.Clear(); err != nil {
		return err
	}
	if err := p.Display.SetStaticText(0, "< "+FitText(menu.Label(), frame.RowCells-4)+" >"); err != nil {
		return err
	}
	return p.Display.SetStaticText(frame.RowCells, FitText("  Current: "+current.Text, frame.RowCells))
}

func (p *DisplayMenuPainter) DrawExitMenu() error {
	if err := p.Display.Clear(); err != nil {
		return err
	}
	return p.Display.SetStaticText(0, "< "+FitText(ExitMenuLabel, frame.RowCells-4)+" >")
}

func (p *DisplayMenuPainter) DrawMenuSettingOption(menu Menu, selected MenuOption, redrawAll bool) error {
	if redrawAll {
		if err := p.Display.Clear(); err != nil {
			return err
		}
		if err := p.Display.SetStaticText(0, FitText("Set "+menu.Label()+":", frame.RowCells)); err != nil {
			return err
		}
	}
	return p.Display.SetStaticText(frame.RowCells, "< "+FitText(selected.Text, frame.RowCells-4)+" >")
}

// FitText pads text with spaces, or cuts it, to exactly width runes.
func FitText(text string, width int) string {
	n := utf8.RuneCountInString(text)
	if n > width {
		return string([]rune(text)[:width])
	}
	return text + strings.Repeat(" ", width-n)
}
