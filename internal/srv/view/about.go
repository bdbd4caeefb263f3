package view

import (
	"context"
	"fmt"
	"time"

	"github.com/jypelle/frontpanel/internal/frame"
	"github.com/jypelle/frontpanel/internal/srv/event"
	"github.com/jypelle/frontpanel/internal/srv/screen"
	"github.com/jypelle/frontpanel/internal/version"
)

// AboutView shows the daemon version and its uptime.
type AboutView struct {
	startTime time.Time
}

func NewAboutView(startTime time.Time) *AboutView {
	return &AboutView{startTime: startTime}
}

func (v *AboutView) Name() string {
	return "About"
}

// PollInstantEvery returns 0: the uptime is refreshed by the default instant redraw.
func (v *AboutView) PollInstantEvery() time.Duration {
	return 0
}

func (v *AboutView) PreferredDisplayTime(status interface{}) time.Duration {
	return 3 * time.Second
}

func (v *AboutView) OnMeasurementReport(report event.MeasurementReport, oldStatus interface{}) (screen.UpdateStatus, error) {
	return screen.NoNewData, nil
}

func (v *AboutView) PollInstant(ctx context.Context, now time.Time, oldInstant interface{}) (screen.UpdateStatus, error) {
	return screen.NoNewData, nil
}

func (v *AboutView) Redraw(display screen.Display, redrawStatic bool, redrawStatus bool, now time.Time, status interface{}, instant interface{}) error {
	if redrawStatic {
		title := screen.FitText(fmt.Sprintf("%s v%s", version.AppName, version.AppVersion.String()), frame.RowCells)
		if err := display.SetStaticText(0, title); err != nil {
			return err
		}
	}
	return display.SetStaticText(frame.RowCells, screen.FitText("up "+formatUptime(now.Sub(v.startTime)), frame.RowCells))
}

func (v *AboutView) Menus() []screen.Menu {
	return nil
}

func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	minutes := int(d/time.Minute) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %02dh %02dm", days, hours, minutes)
	}
	return fmt.Sprintf("%02dh %02dm", hours, minutes)
}
