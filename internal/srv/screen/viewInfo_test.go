package screen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jypelle/frontpanel/internal/srv/event"
)

func TestViewInfoFold(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	view := &stubView{name: "temp"}
	vi := NewViewInfo(1, view, &recordingDisplay{}, clock.Now)

	if vi.Fold(event.MeasurementReport{Values: []event.Sample{{Type: "other", Value: 1}}}) {
		t.Fatal("unrelated report should not change status")
	}

	if !vi.Fold(event.MeasurementReport{Values: []event.Sample{{Type: "temp", Value: 21.5}}}) {
		t.Fatal("expected status change")
	}
	snap := vi.Snapshot()
	if snap.CurrentStatus.Value != 21.5 || !snap.CurrentStatus.Timestamp.Equal(clock.now) {
		t.Fatalf("unexpected status %+v", snap.CurrentStatus)
	}

	view.foldErr = errors.New("bad sample")
	if vi.Fold(event.MeasurementReport{Values: []event.Sample{{Type: "temp", Value: 30}}}) {
		t.Fatal("failing fold should be treated as no change")
	}
	if vi.Snapshot().CurrentStatus.Value != 21.5 {
		t.Fatal("failing fold should keep status")
	}

	view.foldErr = nil
	view.foldPanic = true
	if vi.Fold(event.MeasurementReport{}) {
		t.Fatal("panicking fold should be treated as no change")
	}
}

func TestViewInfoRedraws(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	view := &stubView{name: "temp"}
	display := &recordingDisplay{}
	vi := NewViewInfo(1, view, display, clock.Now)

	if err := vi.RedrawAll(false); err != nil {
		t.Fatal(err)
	}
	snap := vi.Snapshot()
	if !snap.LastViewed.Equal(clock.now) || !snap.LastStatusRedraw.Equal(clock.now) || !snap.LastInstantRedraw.Equal(clock.now) {
		t.Fatalf("timestamps not bumped: %+v", snap)
	}
	if calls := display.Calls(); len(calls) != 1 || calls[0] != "clear" {
		t.Fatalf("expected a clear, got %v", calls)
	}

	// The redraw reads the cache when it runs.
	clock.Advance(time.Second)
	vi.Fold(event.MeasurementReport{Values: []event.Sample{{Type: "temp", Value: 3}}})
	if err := vi.RedrawStatus(); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	if err := vi.RedrawInstant(); err != nil {
		t.Fatal(err)
	}

	want := []string{"true true <nil> <nil>", "false true 3 <nil>", "false false 3 <nil>"}
	if len(view.redrawCalls) != len(want) {
		t.Fatalf("expected %v, got %v", want, view.redrawCalls)
	}
	for i := range want {
		if view.redrawCalls[i] != want[i] {
			t.Errorf("redraw %d: expected %q, got %q", i, want[i], view.redrawCalls[i])
		}
	}

	snap = vi.Snapshot()
	if !snap.LastInstantRedraw.Equal(clock.now) || snap.LastViewed.Equal(clock.now) {
		t.Fatalf("instant redraw should only bump LastInstantRedraw: %+v", snap)
	}
}

func TestViewInfoTimestampsNeverGoBack(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	vi := NewViewInfo(1, &stubView{name: "v"}, &recordingDisplay{}, clock.Now)

	_ = vi.RedrawAll(false)
	first := vi.Snapshot().LastViewed

	clock.Advance(-time.Minute)
	_ = vi.RedrawAll(true)
	if got := vi.Snapshot().LastViewed; !got.Equal(first) {
		t.Fatalf("LastViewed went back from %v to %v", first, got)
	}
}

func TestViewInfoPollInstant(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	view := &stubView{name: "clock", every: time.Second, instant: "12:00"}
	vi := NewViewInfo(1, view, &recordingDisplay{}, clock.Now)

	if poll, _ := vi.InstantDue(clock.now, 10*time.Second); !poll {
		t.Fatal("never polled view should be due")
	}

	changed, err := vi.PollInstant(context.Background())
	if err != nil || !changed {
		t.Fatalf("expected change, got %v %v", changed, err)
	}
	if poll, _ := vi.InstantDue(clock.now, 10*time.Second); poll {
		t.Fatal("view polled right now should not be due")
	}

	changed, err = vi.PollInstant(context.Background())
	if err != nil || changed {
		t.Fatalf("expected no change, got %v %v", changed, err)
	}

	view.instantErr = errors.New("offline")
	if _, err := vi.PollInstant(context.Background()); err == nil {
		t.Fatal("expected poll error")
	}
	if vi.Snapshot().CurrentInstant.Value != "12:00" {
		t.Fatal("failed poll should keep instant data")
	}

	clock.Advance(1500 * time.Millisecond)
	if poll, _ := vi.InstantDue(clock.now, 10*time.Second); !poll {
		t.Fatal("view should be due after its interval")
	}
}

func TestViewInfoInstantDueWithoutInterval(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	vi := NewViewInfo(1, &stubView{name: "about"}, &recordingDisplay{}, clock.Now)
	_ = vi.RedrawAll(false)

	if poll, redraw := vi.InstantDue(clock.now.Add(5*time.Second), 10*time.Second); poll || redraw {
		t.Fatal("nothing due inside the refresh window")
	}
	if poll, redraw := vi.InstantDue(clock.now.Add(11*time.Second), 10*time.Second); poll || !redraw {
		t.Fatal("expected a redraw once the refresh window elapsed")
	}
}
