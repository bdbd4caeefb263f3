package screen

import (
	"fmt"
	"time"
)

type StateKind int

const (
	ViewCycleAuto StateKind = iota
	ViewCycleManual
	MenuOverview
	MenuSettingOption
)

func (k StateKind) String() string {
	switch k {
	case ViewCycleAuto:
		return "ViewCycle.Auto"
	case ViewCycleManual:
		return "ViewCycle.Manual"
	case MenuOverview:
		return "Menu.Overview"
	case MenuSettingOption:
		return "Menu.SettingOption"
	default:
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
}

// State is the interaction state. View is set in view cycle states; Menu, Option and ReturnView
// are set in menu states.
type State struct {
	Kind       StateKind
	View       *ViewInfo
	Menu       Menu
	Option     MenuOption
	ReturnView *ViewInfo
}

func AutoState(view *ViewInfo) State {
	return State{Kind: ViewCycleAuto, View: view}
}

func ManualState(view *ViewInfo) State {
	return State{Kind: ViewCycleManual, View: view}
}

func OverviewState(menu Menu, option MenuOption, returnView *ViewInfo) State {
	return State{Kind: MenuOverview, Menu: menu, Option: option, ReturnView: returnView}
}

func SettingOptionState(menu Menu, option MenuOption, returnView *ViewInfo) State {
	return State{Kind: MenuSettingOption, Menu: menu, Option: option, ReturnView: returnView}
}

func (s State) IsViewCycle() bool {
	return s.Kind == ViewCycleAuto || s.Kind == ViewCycleManual
}

// ActiveView is the view shown on the panel, or the view the menu returns to.
func (s State) ActiveView() *ViewInfo {
	if s.IsViewCycle() {
		return s.View
	}
	return s.ReturnView
}

func (s State) String() string {
	if s.IsViewCycle() {
		return fmt.Sprintf("%s(%s)", s.Kind, s.View)
	}
	return fmt.Sprintf("%s(%s, %s, %s)", s.Kind, s.Menu.Label(), s.Option.Text, s.ReturnView)
}

type EventKind int

const (
	ButtonPressed EventKind = iota
	Timeout
	EncoderDelta
	StatusUpdate
	InstantUpdate
)

func (k EventKind) String() string {
	switch k {
	case ButtonPressed:
		return "ButtonPressed"
	case Timeout:
		return "Timeout"
	case EncoderDelta:
		return "EncoderDelta"
	case StatusUpdate:
		return "StatusUpdate"
	case InstantUpdate:
		return "InstantUpdate"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

type Event struct {
	Kind  EventKind
	Now   time.Time
	Delta int
	View  *ViewInfo
}

func ButtonPressedEvent() Event {
	return Event{Kind: ButtonPressed}
}

func TimeoutEvent(now time.Time) Event {
	return Event{Kind: Timeout, Now: now}
}

func EncoderDeltaEvent(delta int) Event {
	return Event{Kind: EncoderDelta, Delta: delta}
}

func StatusUpdateEvent(view *ViewInfo) Event {
	return Event{Kind: StatusUpdate, View: view}
}

func InstantUpdateEvent(view *ViewInfo) Event {
	return Event{Kind: InstantUpdate, View: view}
}

type SideEffectKind int

const (
	RedrawAll SideEffectKind = iota
	RedrawStatus
	RedrawInstant
	SaveOption
)

func (k SideEffectKind) String() string {
	switch k {
	case RedrawAll:
		return "RedrawAll"
	case RedrawStatus:
		return "RedrawStatus"
	case RedrawInstant:
		return "RedrawInstant"
	case SaveOption:
		return "SaveOption"
	default:
		return fmt.Sprintf("SideEffectKind(%d)", int(k))
	}
}

// SideEffect is the work left to the caller once a transition is committed.
type SideEffect struct {
	Kind      SideEffectKind
	View      *ViewInfo
	ByTimeout bool
	Menu      Menu
	Option    MenuOption
}

// Apply performs redraw side effects. SaveOption is left to the caller which owns persistence.
func (se *SideEffect) Apply() error {
	switch se.Kind {
	case RedrawAll:
		return se.View.RedrawAll(se.ByTimeout)
	case RedrawStatus:
		return se.View.RedrawStatus()
	case RedrawInstant:
		return se.View.RedrawInstant()
	default:
		return nil
	}
}
