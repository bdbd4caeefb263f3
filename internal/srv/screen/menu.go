package screen

import (
	"context"
	"errors"
	"time"
)

type MenuOption struct {
	Text string
}

// Menu is a settable value navigated with the dial. Loading and saving go to an external store.
type Menu interface {
	Label() string
	Options() []MenuOption
	LoadCurrentOption(ctx context.Context) (MenuOption, error)
	SaveCurrentOption(ctx context.Context, option MenuOption) error
}

var ErrExitMenu = errors.New("exit menu has no stored option")

const ExitMenuLabel = "EXIT MENU"

type exitMenu struct{}

func (exitMenu) Label() string {
	return ExitMenuLabel
}

func (exitMenu) Options() []MenuOption {
	return []MenuOption{{Text: "dummy"}}
}

func (exitMenu) LoadCurrentOption(ctx context.Context) (MenuOption, error) {
	return MenuOption{}, ErrExitMenu
}

func (exitMenu) SaveCurrentOption(ctx context.Context, option MenuOption) error {
	return ErrExitMenu
}

// ExitMenu leaves the menu mode when its button is pressed. It is always the last menu.
var ExitMenu Menu = exitMenu{}

func IsExitMenu(menu Menu) bool {
	_, ok := menu.(exitMenu)
	return ok
}

const largeMultiple = 100000

// CyclicIndex moves current by delta inside [0,size), wrapping around in both directions.
func CyclicIndex(current int, delta int, size int) int {
	if size <= 0 {
		return 0
	}
	return (largeMultiple*size + current + delta%size) % size
}

func NeighbourView(views []*ViewInfo, current *ViewInfo, delta int) *ViewInfo {
	idx := 0
	for i, v := range views {
		if v == current {
			idx = i
			break
		}
	}
	return views[CyclicIndex(idx, delta, len(views))]
}

func NeighbourMenu(menus []Menu, current Menu, delta int) Menu {
	idx := 0
	for i, m := range menus {
		if m == current {
			idx = i
			break
		}
	}
	return menus[CyclicIndex(idx, delta, len(menus))]
}

// NeighbourOption starts from the first option when current is not one of the menu options.
func NeighbourOption(menu Menu, current MenuOption, delta int) MenuOption {
	options := menu.Options()
	idx := 0
	for i, o := range options {
		if o == current {
			idx = i
			break
		}
	}
	return options[CyclicIndex(idx, delta, len(options))]
}

const (
	statusWeight = 30
	viewedWeight = 50
)

// MostSuitableView picks the view that deserves the panel in automatic mode: fresh unseen status
// data and time since last viewed both raise the score. A view without status is ranked on the
// time since last viewed alone. Ties go to the earlier view.
func MostSuitableView(now time.Time, views []*ViewInfo) *ViewInfo {
	var best *ViewInfo
	var bestScore float64
	for _, v := range views {
		snap := v.Snapshot()
		score := viewedWeight * micros(now, snap.LastViewed)
		if !snap.CurrentStatus.Timestamp.IsZero() {
			score += statusWeight * micros(snap.CurrentStatus.Timestamp, snap.LastViewed)
		}
		if best == nil || score > bestScore {
			best = v
			bestScore = score
		}
	}
	return best
}

// micros returns to-from in microseconds; a zero time stands for the distant past.
func micros(to time.Time, from time.Time) float64 {
	return float64(unixMicros(to) - unixMicros(from))
}

// distantPast replaces zero timestamps.
var distantPast = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

func unixMicros(t time.Time) int64 {
	if t.IsZero() {
		t = distantPast
	}
	return t.UnixMicro()
}
