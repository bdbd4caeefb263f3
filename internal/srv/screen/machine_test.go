package screen

import (
	"context"
	"errors"
	"testing"
	"time"
)

type machineFixture struct {
	clock   *fixedClock
	display *recordingDisplay
	views   []*ViewInfo
	unit    *stubMenu
	level   *stubMenu
	painter *recordingPainter
	machine *Machine
}

func newMachineFixture(t *testing.T) *machineFixture {
	t.Helper()
	f := &machineFixture{
		clock:   &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		display: &recordingDisplay{},
		painter: &recordingPainter{},
		unit:    &stubMenu{label: "Unit", options: []MenuOption{{"C"}, {"F"}}, current: MenuOption{"C"}},
		level:   &stubMenu{label: "Level", options: []MenuOption{{"1"}, {"2"}, {"3"}}, current: MenuOption{"2"}},
	}
	f.views = NewViewInfos([]View{
		&stubView{name: "v1", preferred: 5 * time.Second},
		&stubView{name: "v2", preferred: 5 * time.Second},
	}, f.display, f.clock.Now)

	var err error
	f.machine, err = NewMachine(f.views, []Menu{f.unit, f.level}, f.painter)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *machineFixture) transition(t *testing.T, e Event) *SideEffect {
	t.Helper()
	se, err := f.machine.Transition(context.Background(), e)
	if err != nil {
		t.Fatalf("transition %s failed: %v", e.Kind, err)
	}
	return se
}

func expectState(t *testing.T, got State, want State) {
	t.Helper()
	if got.Kind != want.Kind || got.View != want.View || got.Menu != want.Menu || got.Option != want.Option || got.ReturnView != want.ReturnView {
		t.Fatalf("expected state %s, got %s", want, got)
	}
}

func expectSideEffect(t *testing.T, got *SideEffect, want *SideEffect) {
	t.Helper()
	if want == nil {
		if got != nil {
			t.Fatalf("expected no side effect, got %s", got.Kind)
		}
		return
	}
	if got == nil {
		t.Fatalf("expected side effect %s, got none", want.Kind)
	}
	if got.Kind != want.Kind || got.View != want.View || got.ByTimeout != want.ByTimeout || got.Menu != want.Menu || got.Option != want.Option {
		t.Fatalf("expected side effect %+v, got %+v", *want, *got)
	}
}

func TestNewMachine(t *testing.T) {
	if _, err := NewMachine(nil, nil, &recordingPainter{}); err == nil {
		t.Fatal("expected error without views")
	}
	f := newMachineFixture(t)
	expectState(t, f.machine.State(), AutoState(f.views[0]))

	menus := f.machine.Menus()
	if len(menus) != 3 || !IsExitMenu(menus[2]) {
		t.Fatalf("expected exit menu appended last, got %v", menus)
	}
}

func TestMachineButtonThenTimeout(t *testing.T) {
	f := newMachineFixture(t)
	v1 := f.views[0]

	se := f.transition(t, ButtonPressedEvent())
	expectSideEffect(t, se, nil)
	expectState(t, f.machine.State(), OverviewState(f.unit, MenuOption{"C"}, v1))
	if len(f.painter.calls) != 1 || f.painter.calls[0] != "overview Unit C" {
		t.Fatalf("expected overview drawn, got %v", f.painter.calls)
	}

	se = f.transition(t, TimeoutEvent(f.clock.now))
	expectState(t, f.machine.State(), AutoState(v1))
	expectSideEffect(t, se, &SideEffect{Kind: RedrawStatus, View: v1})
}

func TestMachineEncoderInViewCycle(t *testing.T) {
	f := newMachineFixture(t)
	v1, v2 := f.views[0], f.views[1]

	se := f.transition(t, EncoderDeltaEvent(1))
	expectState(t, f.machine.State(), ManualState(v2))
	expectSideEffect(t, se, &SideEffect{Kind: RedrawAll, View: v2})

	se = f.transition(t, EncoderDeltaEvent(-3))
	expectState(t, f.machine.State(), ManualState(v1))
	expectSideEffect(t, se, &SideEffect{Kind: RedrawAll, View: v1})

	se = f.transition(t, TimeoutEvent(f.clock.now))
	expectState(t, f.machine.State(), AutoState(v1))
	expectSideEffect(t, se, &SideEffect{Kind: RedrawAll, View: v1, ByTimeout: true})

	if _, err := f.machine.Transition(context.Background(), EncoderDeltaEvent(0)); err == nil {
		t.Fatal("expected error for an empty delta")
	}
}

func TestMachineUpdatesInViewCycle(t *testing.T) {
	f := newMachineFixture(t)
	v1, v2 := f.views[0], f.views[1]

	expectSideEffect(t, f.transition(t, StatusUpdateEvent(v1)), &SideEffect{Kind: RedrawStatus, View: v1})
	expectSideEffect(t, f.transition(t, StatusUpdateEvent(v2)), nil)
	expectSideEffect(t, f.transition(t, InstantUpdateEvent(v1)), &SideEffect{Kind: RedrawInstant, View: v1})
	expectSideEffect(t, f.transition(t, InstantUpdateEvent(v2)), nil)
	expectState(t, f.machine.State(), AutoState(v1))
}

func TestMachineAutoRotation(t *testing.T) {
	f := newMachineFixture(t)
	v1, v2 := f.views[0], f.views[1]

	if err := v1.RedrawAll(false); err != nil {
		t.Fatal(err)
	}

	f.clock.Advance(4 * time.Second)
	expectSideEffect(t, f.transition(t, TimeoutEvent(f.clock.now)), nil)
	expectState(t, f.machine.State(), AutoState(v1))

	f.clock.Advance(time.Second)
	se := f.transition(t, TimeoutEvent(f.clock.now))
	expectState(t, f.machine.State(), AutoState(v2))
	expectSideEffect(t, se, &SideEffect{Kind: RedrawAll, View: v2, ByTimeout: true})

	// The redraw concerns the newly selected view.
	if err := se.Apply(); err != nil {
		t.Fatal(err)
	}
	if !v2.Snapshot().LastViewed.Equal(f.clock.now) {
		t.Fatal("new view should be marked as viewed")
	}
}

func TestMachineMenuNavigation(t *testing.T) {
	f := newMachineFixture(t)
	v1 := f.views[0]

	f.transition(t, ButtonPressedEvent())

	f.transition(t, EncoderDeltaEvent(1))
	expectState(t, f.machine.State(), OverviewState(f.level, MenuOption{"2"}, v1))

	f.transition(t, EncoderDeltaEvent(1))
	expectState(t, f.machine.State(), OverviewState(ExitMenu, ExitMenu.Options()[0], v1))

	f.transition(t, EncoderDeltaEvent(1))
	expectState(t, f.machine.State(), OverviewState(f.unit, MenuOption{"C"}, v1))

	f.transition(t, EncoderDeltaEvent(-1))
	se := f.transition(t, ButtonPressedEvent())
	expectState(t, f.machine.State(), ManualState(v1))
	expectSideEffect(t, se, &SideEffect{Kind: RedrawAll, View: v1})

	want := []string{"overview Unit C", "overview Level 2", "exit", "overview Unit C", "exit"}
	if len(f.painter.calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, f.painter.calls)
	}
	for i := range want {
		if f.painter.calls[i] != want[i] {
			t.Errorf("paint %d: expected %q, got %q", i, want[i], f.painter.calls[i])
		}
	}
}

func TestMachineSettingOption(t *testing.T) {
	f := newMachineFixture(t)
	v1 := f.views[0]

	f.transition(t, ButtonPressedEvent())
	f.transition(t, ButtonPressedEvent())
	expectState(t, f.machine.State(), SettingOptionState(f.unit, MenuOption{"C"}, v1))

	f.transition(t, EncoderDeltaEvent(1))
	expectState(t, f.machine.State(), SettingOptionState(f.unit, MenuOption{"F"}, v1))

	// Status updates are ignored while in a menu.
	expectSideEffect(t, f.transition(t, StatusUpdateEvent(v1)), nil)

	se := f.transition(t, ButtonPressedEvent())
	expectState(t, f.machine.State(), OverviewState(f.unit, MenuOption{"F"}, v1))
	expectSideEffect(t, se, &SideEffect{Kind: SaveOption, Menu: f.unit, Option: MenuOption{"F"}})

	want := []string{"overview Unit C", "setting Unit C true", "setting Unit F false", "overview Unit F"}
	if len(f.painter.calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, f.painter.calls)
	}
	for i := range want {
		if f.painter.calls[i] != want[i] {
			t.Errorf("paint %d: expected %q, got %q", i, want[i], f.painter.calls[i])
		}
	}

	f.transition(t, ButtonPressedEvent())
	se = f.transition(t, TimeoutEvent(f.clock.now))
	expectState(t, f.machine.State(), AutoState(v1))
	expectSideEffect(t, se, &SideEffect{Kind: RedrawStatus, View: v1})
}

func TestMachineLoadFailureKeepsState(t *testing.T) {
	f := newMachineFixture(t)
	f.unit.loadErr = errLoad

	_, err := f.machine.Transition(context.Background(), ButtonPressedEvent())
	if !errors.Is(err, errLoad) {
		t.Fatalf("expected load error, got %v", err)
	}
	expectState(t, f.machine.State(), AutoState(f.views[0]))
	if len(f.painter.calls) != 0 {
		t.Fatalf("nothing should be painted, got %v", f.painter.calls)
	}
}

func TestMachineOnlyExitMenu(t *testing.T) {
	f := newMachineFixture(t)
	machine, err := NewMachine(f.views, nil, f.painter)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := machine.Transition(context.Background(), ButtonPressedEvent()); err != nil {
		t.Fatal(err)
	}
	if !IsExitMenu(machine.State().Menu) {
		t.Fatalf("expected exit menu, got %s", machine.State())
	}
}

func TestMachineNextIsPure(t *testing.T) {
	f := newMachineFixture(t)
	s := ManualState(f.views[1])
	next, se, err := f.machine.Next(context.Background(), s, EncoderDeltaEvent(1))
	if err != nil {
		t.Fatal(err)
	}
	expectState(t, next, ManualState(f.views[0]))
	expectSideEffect(t, se, &SideEffect{Kind: RedrawAll, View: f.views[0]})
	expectState(t, f.machine.State(), AutoState(f.views[0]))
}

func TestDisplayMenuPainter(t *testing.T) {
	display := &recordingDisplay{}
	painter := &DisplayMenuPainter{Display: display}
	menu := &stubMenu{label: "Brightness"}

	if err := painter.DrawMenuOverview(menu, MenuOption{"3"}); err != nil {
		t.Fatal(err)
	}
	if err := painter.DrawMenuSettingOption(menu, MenuOption{"4"}, false); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"clear",
		`text 0 "< Brightness       >"`,
		`text 20 "  Current: 3        "`,
		`text 20 "< 4                >"`,
	}
	calls := display.Calls()
	if len(calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], calls[i])
		}
	}
}

func TestFitText(t *testing.T) {
	if got := FitText("héllo", 7); got != "héllo  " {
		t.Errorf("got %q", got)
	}
	if got := FitText("a long menu label", 6); got != "a long" {
		t.Errorf("got %q", got)
	}
}
