package screen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jypelle/frontpanel/internal/srv/event"
	"github.com/sirupsen/logrus"
)

// Timestamped is a cached value and the time it was stored. A nil Value means "no data".
type Timestamped struct {
	Timestamp time.Time
	Value     interface{}
}

// ViewSnapshot is a consistent copy of the runtime data of a view.
type ViewSnapshot struct {
	Ordinal           int
	LastViewed        time.Time
	LastStatusRedraw  time.Time
	LastInstantRedraw time.Time
	LastInstantPoll   time.Time
	CurrentStatus     Timestamped
	CurrentInstant    Timestamped
}

// ViewInfo wraps a View with its cached status and instant data. Every timestamp only moves forward.
type ViewInfo struct {
	view    View
	display Display
	clock   func() time.Time

	lock     sync.RWMutex
	snapshot ViewSnapshot
}

func NewViewInfo(ordinal int, view View, display Display, clock func() time.Time) *ViewInfo {
	if clock == nil {
		clock = time.Now
	}
	return &ViewInfo{
		view:     view,
		display:  display,
		clock:    clock,
		snapshot: ViewSnapshot{Ordinal: ordinal},
	}
}

// NewViewInfos wraps views in display order, numbering them from 1.
func NewViewInfos(views []View, display Display, clock func() time.Time) []*ViewInfo {
	infos := make([]*ViewInfo, 0, len(views))
	for idx, v := range views {
		infos = append(infos, NewViewInfo(idx+1, v, display, clock))
	}
	return infos
}

func (vi *ViewInfo) View() View {
	return vi.view
}

func (vi *ViewInfo) Ordinal() int {
	return vi.snapshot.Ordinal
}

func (vi *ViewInfo) String() string {
	return fmt.Sprintf("'%s' (%d)", vi.view.Name(), vi.snapshot.Ordinal)
}

func (vi *ViewInfo) Snapshot() ViewSnapshot {
	vi.lock.RLock()
	defer vi.lock.RUnlock()
	return vi.snapshot
}

func later(current time.Time, candidate time.Time) time.Time {
	if candidate.After(current) {
		return candidate
	}
	return current
}

// RedrawAll clears the panel and draws the whole view.
func (vi *ViewInfo) RedrawAll(byTimeout bool) error {
	now := vi.clock()
	logrus.Debugf("Redrawing %s (by timeout: %v)", vi, byTimeout)

	vi.lock.Lock()
	vi.snapshot.LastViewed = later(vi.snapshot.LastViewed, now)
	vi.snapshot.LastStatusRedraw = later(vi.snapshot.LastStatusRedraw, now)
	vi.snapshot.LastInstantRedraw = later(vi.snapshot.LastInstantRedraw, now)
	snap := vi.snapshot
	vi.lock.Unlock()

	if err := vi.display.Clear(); err != nil {
		return err
	}
	return vi.view.Redraw(vi.display, true, true, now, snap.CurrentStatus.Value, snap.CurrentInstant.Value)
}

// RedrawStatus redraws the status and instant parts of the view.
func (vi *ViewInfo) RedrawStatus() error {
	now := vi.clock()
	logrus.Debugf("Updating status of active %s", vi)

	vi.lock.Lock()
	vi.snapshot.LastViewed = later(vi.snapshot.LastViewed, now)
	vi.snapshot.LastStatusRedraw = later(vi.snapshot.LastStatusRedraw, now)
	vi.snapshot.LastInstantRedraw = later(vi.snapshot.LastInstantRedraw, now)
	snap := vi.snapshot
	vi.lock.Unlock()

	return vi.view.Redraw(vi.display, false, true, now, snap.CurrentStatus.Value, snap.CurrentInstant.Value)
}

// RedrawInstant redraws only the instant part of the view.
func (vi *ViewInfo) RedrawInstant() error {
	now := vi.clock()
	logrus.Debugf("Updating instant of %s", vi)

	vi.lock.Lock()
	vi.snapshot.LastInstantRedraw = later(vi.snapshot.LastInstantRedraw, now)
	snap := vi.snapshot
	vi.lock.Unlock()

	return vi.view.Redraw(vi.display, false, false, now, snap.CurrentStatus.Value, snap.CurrentInstant.Value)
}

// Fold passes a measurement report to the view and stores the resulting status. It returns true
// when the status changed. A failing view keeps its previous status.
func (vi *ViewInfo) Fold(report event.MeasurementReport) (changed bool) {
	old := vi.Snapshot().CurrentStatus.Value

	defer func() {
		if rec := recover(); rec != nil {
			logrus.Errorf("Panic while processing report %v in %s: %v", report.Timestamp, vi, rec)
			changed = false
		}
	}()

	update, err := vi.view.OnMeasurementReport(report, old)
	if err != nil {
		logrus.Errorf("Error while processing report %v in %s: %v", report.Timestamp, vi, err)
		return false
	}
	if !update.Changed {
		return false
	}

	now := vi.clock()
	vi.lock.Lock()
	vi.snapshot.CurrentStatus = Timestamped{Timestamp: later(vi.snapshot.CurrentStatus.Timestamp, now), Value: update.Value}
	vi.lock.Unlock()

	logrus.Debugf("Status updated of %s", vi)
	return true
}

// PollInstant asks the view for fresh instant data and stores it. It returns true when the
// instant data changed.
func (vi *ViewInfo) PollInstant(ctx context.Context) (bool, error) {
	now := vi.clock()

	vi.lock.Lock()
	vi.snapshot.LastInstantPoll = later(vi.snapshot.LastInstantPoll, now)
	old := vi.snapshot.CurrentInstant.Value
	vi.lock.Unlock()

	update, err := vi.view.PollInstant(ctx, now, old)
	if err != nil {
		return false, err
	}
	if !update.Changed {
		return false, nil
	}

	stored := vi.clock()
	vi.lock.Lock()
	vi.snapshot.CurrentInstant = Timestamped{Timestamp: later(vi.snapshot.CurrentInstant.Timestamp, stored), Value: update.Value}
	vi.lock.Unlock()
	return true, nil
}

// InstantDue tells whether the instant data has to be polled, or, for views without polling,
// whether the instant part should be redrawn to keep time-driven elements moving.
func (vi *ViewInfo) InstantDue(now time.Time, defaultRedraw time.Duration) (poll bool, redraw bool) {
	snap := vi.Snapshot()
	every := vi.view.PollInstantEvery()
	if every <= 0 {
		return false, snap.LastInstantRedraw.Add(defaultRedraw).Before(now)
	}
	return snap.LastInstantPoll.Add(every).Before(now), false
}
