package screen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jypelle/frontpanel/internal/frame"
	"github.com/jypelle/frontpanel/internal/srv/event"
)

type recordingDisplay struct {
	lock  sync.Mutex
	calls []string
}

func (d *recordingDisplay) record(format string, args ...interface{}) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
	return nil
}

func (d *recordingDisplay) Calls() []string {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *recordingDisplay) Clear() error {
	return d.record("clear")
}

func (d *recordingDisplay) SetBrightness(level int) error {
	return d.record("brightness %d", level)
}

func (d *recordingDisplay) SetStaticText(position int, text string) error {
	return d.record("text %d %q", position, text)
}

func (d *recordingDisplay) SetScrollingText(slot frame.Slot, position int, windowLength int, text string) error {
	return d.record("scroll %d %d %d %q", slot, position, windowLength, text)
}

func (d *recordingDisplay) SetUpperBar(content [frame.BarSegments]bool) error {
	return d.record("bar %v", content)
}

func (d *recordingDisplay) SetUpperBarPositions(activePositions []int, invert bool) error {
	return d.record("bar positions %v %v", activePositions, invert)
}

func (d *recordingDisplay) SetOneLineDiffChart(position int, values []float64, unit float64) error {
	return d.record("chart1 %d %v %v", position, values, unit)
}

func (d *recordingDisplay) SetTwoLinesDiffChart(position int, values []float64, unit float64) error {
	return d.record("chart2 %d %v %v", position, values, unit)
}

func (d *recordingDisplay) ButtonReport() (frame.ButtonReport, error) {
	return frame.ButtonReport{}, nil
}

// stubView renders "name status instant" on redraw.
type stubView struct {
	name        string
	every       time.Duration
	preferred   time.Duration
	foldErr     error
	foldPanic   bool
	instant     interface{}
	instantErr  error
	redrawCalls []string
}

func (v *stubView) Name() string {
	return v.name
}

func (v *stubView) PollInstantEvery() time.Duration {
	return v.every
}

func (v *stubView) PreferredDisplayTime(status interface{}) time.Duration {
	return v.preferred
}

func (v *stubView) OnMeasurementReport(report event.MeasurementReport, oldStatus interface{}) (UpdateStatus, error) {
	if v.foldPanic {
		panic("boom")
	}
	if v.foldErr != nil {
		return NoNewData, v.foldErr
	}
	sample, ok := report.Find(v.name)
	if !ok {
		return NoNewData, nil
	}
	return NewData(sample.Value), nil
}

func (v *stubView) PollInstant(ctx context.Context, now time.Time, oldInstant interface{}) (UpdateStatus, error) {
	if v.instantErr != nil {
		return NoNewData, v.instantErr
	}
	if v.instant == oldInstant {
		return NoNewData, nil
	}
	return NewData(v.instant), nil
}

func (v *stubView) Redraw(display Display, redrawStatic bool, redrawStatus bool, now time.Time, status interface{}, instant interface{}) error {
	v.redrawCalls = append(v.redrawCalls, fmt.Sprintf("%v %v %v %v", redrawStatic, redrawStatus, status, instant))
	return nil
}

func (v *stubView) Menus() []Menu {
	return nil
}

type stubMenu struct {
	label   string
	options []MenuOption
	current MenuOption
	loadErr error
	saved   []MenuOption
}

func (m *stubMenu) Label() string {
	return m.label
}

func (m *stubMenu) Options() []MenuOption {
	return m.options
}

func (m *stubMenu) LoadCurrentOption(ctx context.Context) (MenuOption, error) {
	if m.loadErr != nil {
		return MenuOption{}, m.loadErr
	}
	return m.current, nil
}

func (m *stubMenu) SaveCurrentOption(ctx context.Context, option MenuOption) error {
	m.saved = append(m.saved, option)
	m.current = option
	return nil
}

type recordingPainter struct {
	calls   []string
	drawErr error
}

func (p *recordingPainter) DrawMenuOverview(menu Menu, current MenuOption) error {
	p.calls = append(p.calls, fmt.Sprintf("overview %s %s", menu.Label(), current.Text))
	return p.drawErr
}

func (p *recordingPainter) DrawExitMenu() error {
	p.calls = append(p.calls, "exit")
	return p.drawErr
}

func (p *recordingPainter) DrawMenuSettingOption(menu Menu, selected MenuOption, redrawAll bool) error {
	p.calls = append(p.calls, fmt.Sprintf("setting %s %s %v", menu.Label(), selected.Text, redrawAll))
	return p.drawErr
}

var errLoad = errors.New("store unavailable")

// fixedClock returns a clock that can be moved forward by tests.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
