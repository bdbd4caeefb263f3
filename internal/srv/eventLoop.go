package srv

import (
	"context"
	"fmt"

	"github.com/jypelle/frontpanel/internal/srv/event"
	"github.com/sirupsen/logrus"
)

// eventLoop answers the requests of the api device.
func (s *ServerApp) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.apiDevice.EventChannel():
			switch data := ev.Data.(type) {
			case event.ApiEventDialData:
				logrus.Debugf("Receive api dial command: %+v", data.Command)
				ev.Result <- s.scheduler.SubmitDial(data.Command)
			default:
				ev.Result <- fmt.Errorf("unsupported api event %T", ev.Data)
			}
		}
	}
}
