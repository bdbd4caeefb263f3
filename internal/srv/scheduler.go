package srv

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jypelle/frontpanel/internal/frame"
	"github.com/jypelle/frontpanel/internal/srv/event"
	"github.com/jypelle/frontpanel/internal/srv/screen"
	"github.com/jypelle/frontpanel/internal/srv/task"
	"github.com/sirupsen/logrus"
)

const eventQueueSize = 64

var ErrEventQueueFull = errors.New("event queue full")

type SchedulerParam struct {
	TickInterval         time.Duration
	IdleTimeout          time.Duration
	DefaultInstantRedraw time.Duration
}

// Scheduler drives the panel: every tick it reads the dial, feeds the state machine and starts
// instant data polls. It is the only writer of the panel; other goroutines hand it events.
type Scheduler struct {
	param      SchedulerParam
	display    screen.Display
	machine    *screen.Machine
	brightness func() int
	clock      func() time.Time

	events chan screen.Event

	tasks sync.WaitGroup

	pollLock sync.Mutex
	polling  map[*screen.ViewInfo]bool

	lastDialActivity time.Time
	lastBrightness   int
}

// NewScheduler takes brightness, the function returning the level the panel has to show.
func NewScheduler(param SchedulerParam, display screen.Display, machine *screen.Machine, brightness func() int) *Scheduler {
	return &Scheduler{
		param:          param,
		display:        display,
		machine:        machine,
		brightness:     brightness,
		clock:          time.Now,
		events:         make(chan screen.Event, eventQueueSize),
		polling:        make(map[*screen.ViewInfo]bool),
		lastBrightness: -1,
	}
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	task.Run(ctx, "poll scheduler", s.param.TickInterval, s.Tick)
}

// Tick performs one scheduling round.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := s.clock()

	if err := s.applyBrightness(); err != nil {
		logrus.Warnf("Unable to set brightness: %v", err)
	}

	report, err := s.display.ButtonReport()
	if err != nil {
		return err
	}
	// A release wins over a turn reported in the same transaction.
	if report.Button == frame.JustReleased {
		s.lastDialActivity = now
		s.dispatch(ctx, screen.ButtonPressedEvent())
	} else if report.EncoderDelta != 0 {
		s.lastDialActivity = now
		s.dispatch(ctx, screen.EncoderDeltaEvent(report.EncoderDelta))
	} else if now.Sub(s.lastDialActivity) > s.param.IdleTimeout {
		s.dispatch(ctx, screen.TimeoutEvent(now))
	}

	s.drainEvents(ctx)
	s.scheduleInstantPolls(ctx, now)
	return nil
}

func (s *Scheduler) applyBrightness() error {
	level := s.brightness()
	if level == s.lastBrightness {
		return nil
	}
	if err := s.display.SetBrightness(level); err != nil {
		return err
	}
	s.lastBrightness = level
	return nil
}

func (s *Scheduler) drainEvents(ctx context.Context) {
	for {
		select {
		case e := <-s.events:
			if e.Kind == screen.ButtonPressed || e.Kind == screen.EncoderDelta {
				s.lastDialActivity = s.clock()
			}
			s.dispatch(ctx, e)
		default:
			return
		}
	}
}

func (s *Scheduler) scheduleInstantPolls(ctx context.Context, now time.Time) {
	active := s.machine.State()
	for _, vi := range s.machine.Views() {
		poll, redraw := vi.InstantDue(now, s.param.DefaultInstantRedraw)
		if redraw && active.IsViewCycle() && active.View == vi {
			s.dispatch(ctx, screen.InstantUpdateEvent(vi))
		}
		if poll {
			s.startPoll(ctx, vi)
		}
	}
}

func (s *Scheduler) startPoll(ctx context.Context, vi *screen.ViewInfo) {
	s.pollLock.Lock()
	if s.polling[vi] {
		s.pollLock.Unlock()
		return
	}
	s.polling[vi] = true
	s.pollLock.Unlock()

	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		defer func() {
			s.pollLock.Lock()
			delete(s.polling, vi)
			s.pollLock.Unlock()
		}()

		changed, err := vi.PollInstant(ctx)
		if err != nil {
			logrus.Warnf("Unable to poll instant data of %s: %v", vi, err)
			return
		}
		if changed {
			if err := s.submit(screen.InstantUpdateEvent(vi)); err != nil {
				logrus.Warnf("Instant update of %s dropped: %v", vi, err)
			}
		}
	}()
}

func (s *Scheduler) dispatch(ctx context.Context, e screen.Event) {
	sideEffect, err := s.machine.Transition(ctx, e)
	if err != nil {
		logrus.Errorf("Event %s dropped: %v", e.Kind, err)
		return
	}
	if sideEffect == nil {
		return
	}

	if sideEffect.Kind == screen.SaveOption {
		s.tasks.Add(1)
		go func(menu screen.Menu, option screen.MenuOption) {
			defer s.tasks.Done()
			if err := menu.SaveCurrentOption(ctx, option); err != nil {
				logrus.Errorf("Unable to save option %s of menu %s: %v", option.Text, menu.Label(), err)
				return
			}
			logrus.Infof("Menu %s set to %s", menu.Label(), option.Text)
		}(sideEffect.Menu, sideEffect.Option)
		return
	}

	if err := sideEffect.Apply(); err != nil {
		logrus.Errorf("Unable to %s %s: %v", sideEffect.Kind, sideEffect.View, err)
	}
}

func (s *Scheduler) submit(e screen.Event) error {
	select {
	case s.events <- e:
		return nil
	default:
		return ErrEventQueueFull
	}
}

// SubmitDial queues a dial command coming from a remote source.
func (s *Scheduler) SubmitDial(command event.DialCommand) error {
	switch command.Type {
	case event.DIAL_PRESSED:
		return s.submit(screen.ButtonPressedEvent())
	case event.DIAL_TURNED:
		if command.Delta == 0 {
			return errors.New("dial turned without delta")
		}
		return s.submit(screen.EncoderDeltaEvent(command.Delta))
	}
	return errors.New("unknown dial command")
}

// FoldReports folds every report into every view and queues status updates, until reports is
// closed or ctx is cancelled.
func (s *Scheduler) FoldReports(ctx context.Context, reports <-chan event.MeasurementReport) {
	for {
		select {
		case <-ctx.Done():
			return
		case report, ok := <-reports:
			if !ok {
				return
			}
			for _, vi := range s.machine.Views() {
				if vi.Fold(report) {
					if err := s.submit(screen.StatusUpdateEvent(vi)); err != nil {
						logrus.Warnf("Status update of %s dropped: %v", vi, err)
					}
				}
			}
		}
	}
}

// Wait blocks until the polls and option saves started so far are done.
func (s *Scheduler) Wait() {
	s.tasks.Wait()
}
