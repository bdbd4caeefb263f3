// Package view holds the views and menus shown on the front panel.
package view

import (
	"context"
	"time"

	"github.com/jypelle/frontpanel/internal/frame"
	"github.com/jypelle/frontpanel/internal/srv/event"
	"github.com/jypelle/frontpanel/internal/srv/screen"
)

type clockInstant struct {
	date   string
	time   string
	second int
}

// ClockView shows the local date and time with the progress of the current minute.
type ClockView struct {
	location *time.Location
}

func NewClockView(location *time.Location) *ClockView {
	if location == nil {
		location = time.Local
	}
	return &ClockView{location: location}
}

func (v *ClockView) Name() string {
	return "Clock"
}

func (v *ClockView) PollInstantEvery() time.Duration {
	return time.Second
}

func (v *ClockView) PreferredDisplayTime(status interface{}) time.Duration {
	return 5 * time.Second
}

func (v *ClockView) OnMeasurementReport(report event.MeasurementReport, oldStatus interface{}) (screen.UpdateStatus, error) {
	return screen.NoNewData, nil
}

func (v *ClockView) PollInstant(ctx context.Context, now time.Time, oldInstant interface{}) (screen.UpdateStatus, error) {
	local := now.In(v.location)
	instant := clockInstant{
		date:   local.Format("Mon 2006-01-02"),
		time:   local.Format("15:04:05"),
		second: local.Second(),
	}
	if old, ok := oldInstant.(clockInstant); ok && old == instant {
		return screen.NoNewData, nil
	}
	return screen.NewData(instant), nil
}

func (v *ClockView) Redraw(display screen.Display, redrawStatic bool, redrawStatus bool, now time.Time, status interface{}, instant interface{}) error {
	ci, ok := instant.(clockInstant)
	if !ok {
		return display.SetStaticText(frame.RowCells+6, "--:--:--")
	}
	if err := display.SetStaticText(3, ci.date); err != nil {
		return err
	}
	if err := display.SetStaticText(frame.RowCells+6, ci.time); err != nil {
		return err
	}
	segment := frame.GetSegmentNumber(time.Duration(ci.second)*time.Second, time.Minute)
	return display.SetUpperBarPositions([]int{segment}, false)
}

func (v *ClockView) Menus() []screen.Menu {
	return nil
}
