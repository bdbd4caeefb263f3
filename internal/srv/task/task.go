// Package task runs periodic jobs for the lifetime of the server.
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// CoolDown is the pause after a failed run.
const CoolDown = 5 * time.Second

// Run calls fn every interval until ctx is cancelled. A failing or panicking run is logged and
// retried after the cool-down; Run itself only returns on cancellation.
func Run(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context) error) {
	RunWithCoolDown(ctx, name, interval, CoolDown, fn)
}

func RunWithCoolDown(ctx context.Context, name string, interval time.Duration, coolDown time.Duration, fn func(ctx context.Context) error) {
	logrus.Infof("Start periodic task %s", name)
	defer logrus.Infof("Periodic task %s stopped", name)

	for {
		pause := interval
		if err := runOnce(ctx, fn); err != nil {
			if ctx.Err() != nil {
				return
			}
			logrus.Errorf("Periodic task %s failed: %v", name, err)
			pause = coolDown
		}

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func runOnce(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Value: rec}
		}
	}()
	return fn(ctx)
}

type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return "panic: " + fmt.Sprint(e.Value)
}
