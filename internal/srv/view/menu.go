package view

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jypelle/frontpanel/internal/frame"
	"github.com/jypelle/frontpanel/internal/srv/screen"
)

// BrightnessStore keeps the brightness chosen from the panel. In automatic mode the stored level
// is ignored.
type BrightnessStore interface {
	Brightness() int
	SetBrightness(level int)
	BrightnessAuto() bool
	SetBrightnessAuto(auto bool)
}

const AutoBrightnessOption = "AUTO"

// BrightnessMenu sets the panel brightness from 1 to the maximum level, or hands it over to the
// time of day with AUTO.
type BrightnessMenu struct {
	store BrightnessStore
}

func NewBrightnessMenu(store BrightnessStore) *BrightnessMenu {
	return &BrightnessMenu{store: store}
}

func (m *BrightnessMenu) Label() string {
	return "Brightness"
}

func (m *BrightnessMenu) Options() []screen.MenuOption {
	options := make([]screen.MenuOption, 0, frame.MaxBrightness+1)
	for level := 1; level <= frame.MaxBrightness; level++ {
		options = append(options, screen.MenuOption{Text: strconv.Itoa(level)})
	}
	return append(options, screen.MenuOption{Text: AutoBrightnessOption})
}

func (m *BrightnessMenu) LoadCurrentOption(ctx context.Context) (screen.MenuOption, error) {
	if m.store.BrightnessAuto() {
		return screen.MenuOption{Text: AutoBrightnessOption}, nil
	}
	return screen.MenuOption{Text: strconv.Itoa(m.store.Brightness())}, nil
}

func (m *BrightnessMenu) SaveCurrentOption(ctx context.Context, option screen.MenuOption) error {
	if option.Text == AutoBrightnessOption {
		m.store.SetBrightnessAuto(true)
		return nil
	}
	level, err := strconv.Atoi(option.Text)
	if err != nil || level < 1 || level > frame.MaxBrightness {
		return fmt.Errorf("invalid brightness option %q", option.Text)
	}
	m.store.SetBrightness(level)
	m.store.SetBrightnessAuto(false)
	return nil
}

// ChoiceMenu picks one of a fixed list of values kept outside the menu.
type ChoiceMenu struct {
	label   string
	choices []string
	load    func() string
	save    func(string)
}

func NewChoiceMenu(label string, choices []string, load func() string, save func(string)) *ChoiceMenu {
	return &ChoiceMenu{
		label:   label,
		choices: choices,
		load:    load,
		save:    save,
	}
}

func (m *ChoiceMenu) Label() string {
	return m.label
}

func (m *ChoiceMenu) Options() []screen.MenuOption {
	options := make([]screen.MenuOption, 0, len(m.choices))
	for _, c := range m.choices {
		options = append(options, screen.MenuOption{Text: c})
	}
	return options
}

func (m *ChoiceMenu) LoadCurrentOption(ctx context.Context) (screen.MenuOption, error) {
	current := m.load()
	for _, c := range m.choices {
		if c == current {
			return screen.MenuOption{Text: c}, nil
		}
	}
	return screen.MenuOption{}, fmt.Errorf("stored value %q is not a choice of menu %s", current, m.label)
}

func (m *ChoiceMenu) SaveCurrentOption(ctx context.Context, option screen.MenuOption) error {
	for _, c := range m.choices {
		if c == option.Text {
			m.save(c)
			return nil
		}
	}
	return fmt.Errorf("invalid option %q for menu %s", option.Text, m.label)
}
