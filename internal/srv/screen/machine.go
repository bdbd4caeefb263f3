package screen

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// MenuPainter draws menus right away, before the transition showing them is committed.
type MenuPainter interface {
	DrawMenuOverview(menu Menu, current MenuOption) error
	DrawExitMenu() error
	DrawMenuSettingOption(menu Menu, selected MenuOption, redrawAll bool) error
}

// Machine holds the interaction state. Transitions are processed one at a time.
type Machine struct {
	views   []*ViewInfo
	menus   []Menu
	painter MenuPainter

	transitionLock sync.Mutex

	stateLock sync.RWMutex
	state     State
}

// NewMachine starts in automatic mode on the first view. The exit menu is appended to menus.
func NewMachine(views []*ViewInfo, menus []Menu, painter MenuPainter) (*Machine, error) {
	if len(views) == 0 {
		return nil, errors.New("at least one view is required")
	}
	allMenus := make([]Menu, 0, len(menus)+1)
	for _, m := range menus {
		if !IsExitMenu(m) {
			allMenus = append(allMenus, m)
		}
	}
	allMenus = append(allMenus, ExitMenu)

	return &Machine{
		views:   views,
		menus:   allMenus,
		painter: painter,
		state:   AutoState(views[0]),
	}, nil
}

func (m *Machine) Views() []*ViewInfo {
	return m.views
}

func (m *Machine) Menus() []Menu {
	return m.menus
}

func (m *Machine) State() State {
	m.stateLock.RLock()
	defer m.stateLock.RUnlock()
	return m.state
}

// Transition applies event to the current state and commits the result. On error the state is
// left unchanged.
func (m *Machine) Transition(ctx context.Context, e Event) (*SideEffect, error) {
	m.transitionLock.Lock()
	defer m.transitionLock.Unlock()

	current := m.State()
	next, sideEffect, err := m.Next(ctx, current, e)
	if err != nil {
		return nil, err
	}

	m.stateLock.Lock()
	m.state = next
	m.stateLock.Unlock()

	if next.Kind != current.Kind || next.View != current.View || next.Menu != current.Menu {
		logrus.Debugf("Transition %s -> %s on %s", current, next, e.Kind)
	}
	return sideEffect, nil
}

// Next computes the state following s on event e. Menus entered are painted before it returns.
func (m *Machine) Next(ctx context.Context, s State, e Event) (State, *SideEffect, error) {
	if e.Kind == EncoderDelta && e.Delta == 0 {
		return s, nil, errors.New("encoder delta event without delta")
	}
	if s.IsViewCycle() {
		return m.nextInViewCycle(ctx, s, e)
	}
	return m.nextInMenu(ctx, s, e)
}

func (m *Machine) nextInViewCycle(ctx context.Context, s State, e Event) (State, *SideEffect, error) {
	switch e.Kind {
	case ButtonPressed:
		menu := m.menus[0]
		if IsExitMenu(menu) {
			if err := m.painter.DrawExitMenu(); err != nil {
				return s, nil, err
			}
			return OverviewState(menu, menu.Options()[0], s.View), nil, nil
		}
		option, err := menu.LoadCurrentOption(ctx)
		if err != nil {
			return s, nil, fmt.Errorf("unable to load current option of menu %s: %w", menu.Label(), err)
		}
		if err := m.painter.DrawMenuOverview(menu, option); err != nil {
			return s, nil, err
		}
		return OverviewState(menu, option, s.View), nil, nil

	case EncoderDelta:
		view := NeighbourView(m.views, s.View, e.Delta)
		return ManualState(view), &SideEffect{Kind: RedrawAll, View: view}, nil

	case StatusUpdate:
		if e.View == s.View {
			return s, &SideEffect{Kind: RedrawStatus, View: e.View}, nil
		}
		return s, nil, nil

	case InstantUpdate:
		if e.View == s.View {
			return s, &SideEffect{Kind: RedrawInstant, View: e.View}, nil
		}
		logrus.Debugf("Spurious instant update of inactive view %s", e.View)
		return s, nil, nil

	case Timeout:
		if s.Kind == ViewCycleManual {
			return AutoState(s.View), &SideEffect{Kind: RedrawAll, View: s.View, ByTimeout: true}, nil
		}
		snap := s.View.Snapshot()
		if e.Now.Sub(snap.LastViewed) >= s.View.View().PreferredDisplayTime(snap.CurrentStatus.Value) {
			view := MostSuitableView(e.Now, m.views)
			return AutoState(view), &SideEffect{Kind: RedrawAll, View: view, ByTimeout: true}, nil
		}
		return s, nil, nil
	}
	return s, nil, fmt.Errorf("unexpected event %s in state %s", e.Kind, s.Kind)
}

func (m *Machine) nextInMenu(ctx context.Context, s State, e Event) (State, *SideEffect, error) {
	switch e.Kind {
	case Timeout:
		return AutoState(s.ReturnView), &SideEffect{Kind: RedrawStatus, View: s.ReturnView}, nil

	case StatusUpdate, InstantUpdate:
		return s, nil, nil
	}

	if s.Kind == MenuOverview {
		switch e.Kind {
		case EncoderDelta:
			menu := NeighbourMenu(m.menus, s.Menu, e.Delta)
			if IsExitMenu(menu) {
				if err := m.painter.DrawExitMenu(); err != nil {
					return s, nil, err
				}
				return OverviewState(menu, menu.Options()[0], s.ReturnView), nil, nil
			}
			option, err := menu.LoadCurrentOption(ctx)
			if err != nil {
				return s, nil, fmt.Errorf("unable to load current option of menu %s: %w", menu.Label(), err)
			}
			if err := m.painter.DrawMenuOverview(menu, option); err != nil {
				return s, nil, err
			}
			return OverviewState(menu, option, s.ReturnView), nil, nil

		case ButtonPressed:
			if IsExitMenu(s.Menu) {
				return ManualState(s.ReturnView), &SideEffect{Kind: RedrawAll, View: s.ReturnView}, nil
			}
			option, err := s.Menu.LoadCurrentOption(ctx)
			if err != nil {
				return s, nil, fmt.Errorf("unable to load current option of menu %s: %w", s.Menu.Label(), err)
			}
			if err := m.painter.DrawMenuSettingOption(s.Menu, option, true); err != nil {
				return s, nil, err
			}
			return SettingOptionState(s.Menu, option, s.ReturnView), nil, nil
		}
	}

	if s.Kind == MenuSettingOption {
		switch e.Kind {
		case ButtonPressed:
			// The overview shows the new option while it is being saved.
			if err := m.painter.DrawMenuOverview(s.Menu, s.Option); err != nil {
				return s, nil, err
			}
			return OverviewState(s.Menu, s.Option, s.ReturnView),
				&SideEffect{Kind: SaveOption, Menu: s.Menu, Option: s.Option}, nil

		case EncoderDelta:
			option := NeighbourOption(s.Menu, s.Option, e.Delta)
			if err := m.painter.DrawMenuSettingOption(s.Menu, option, false); err != nil {
				return s, nil, err
			}
			return SettingOptionState(s.Menu, option, s.ReturnView), nil, nil
		}
	}
	return s, nil, fmt.Errorf("unexpected event %s in state %s", e.Kind, s.Kind)
}
