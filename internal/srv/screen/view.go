// Package screen multiplexes views and menus onto the front panel.
//
// Views produce status data (folded from measurement reports) and instant data (polled). The
// Machine decides which view or menu owns the panel and returns the redraws the caller has to
// perform; ViewInfo caches the data of each view and performs those redraws.
package screen

import (
	"context"
	"time"

	"github.com/jypelle/frontpanel/internal/frame"
	"github.com/jypelle/frontpanel/internal/srv/event"
)

// Display is the drawing surface of the front panel.
type Display interface {
	Clear() error
	SetBrightness(level int) error
	SetStaticText(position int, text string) error
	SetScrollingText(slot frame.Slot, position int, windowLength int, text string) error
	SetUpperBar(content [frame.BarSegments]bool) error
	SetUpperBarPositions(activePositions []int, invert bool) error
	SetOneLineDiffChart(position int, values []float64, unit float64) error
	SetTwoLinesDiffChart(position int, values []float64, unit float64) error
	ButtonReport() (frame.ButtonReport, error)
}

// UpdateStatus tells whether a handler produced new data.
type UpdateStatus struct {
	Changed bool
	Value   interface{}
}

// NoNewData keeps the cached value.
var NoNewData = UpdateStatus{}

// NewData replaces the cached value, nil meaning "no data".
func NewData(value interface{}) UpdateStatus {
	return UpdateStatus{Changed: true, Value: value}
}

type View interface {
	Name() string

	// PollInstantEvery returns the instant data polling period, 0 if the view is never polled.
	PollInstantEvery() time.Duration

	// PreferredDisplayTime is how long the view stays on screen in automatic mode.
	PreferredDisplayTime(status interface{}) time.Duration

	// OnMeasurementReport folds a report into a new status.
	OnMeasurementReport(report event.MeasurementReport, oldStatus interface{}) (UpdateStatus, error)

	PollInstant(ctx context.Context, now time.Time, oldInstant interface{}) (UpdateStatus, error)

	Redraw(display Display, redrawStatic bool, redrawStatus bool, now time.Time, status interface{}, instant interface{}) error

	// Menus lists the menus the view adds to the global menu set.
	Menus() []Menu
}
