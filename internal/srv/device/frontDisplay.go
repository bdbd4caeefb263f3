package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/jypelle/frontpanel/internal/frame"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
)

const (
	txAttempts   = 3
	txRetryPause = 70 * time.Millisecond
)

// Conn is a framed bus connection. periph's i2c.Dev and frame.Emulator both satisfy it.
type Conn interface {
	Tx(w, r []byte) error
}

// FrontDisplay writes command frames to the front panel. Only one transaction is in flight at
// a time and failed transactions are retried.
type FrontDisplay struct {
	lock       sync.Mutex
	conn       Conn
	retryPause time.Duration
}

func NewFrontDisplay(conn Conn) *FrontDisplay {
	return &FrontDisplay{
		conn:       conn,
		retryPause: txRetryPause,
	}
}

// NewI2CFrontDisplay talks to the panel at address addr of bus.
func NewI2CFrontDisplay(bus i2c.Bus, addr uint16) *FrontDisplay {
	return NewFrontDisplay(&i2c.Dev{Bus: bus, Addr: addr})
}

func (d *FrontDisplay) tx(w []byte, r []byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	var err error
	for attempt := 1; attempt <= txAttempts; attempt++ {
		if err = d.conn.Tx(w, r); err == nil {
			return nil
		}
		logrus.Debugf("Front display transaction %d failed (attempt %d/%d): %v", w[0], attempt, txAttempts, err)
		if attempt < txAttempts {
			time.Sleep(d.retryPause)
		}
	}
	return fmt.Errorf("front display transaction %d failed after %d attempts: %w", w[0], txAttempts, err)
}

func (d *FrontDisplay) write(w []byte, err error) error {
	if err != nil {
		return err
	}
	return d.tx(w, nil)
}

func (d *FrontDisplay) Clear() error {
	return d.tx(frame.EncodeClear(), nil)
}

func (d *FrontDisplay) SetBrightness(level int) error {
	return d.write(frame.EncodeSetBrightness(level))
}

func (d *FrontDisplay) SetStaticText(position int, text string) error {
	return d.write(frame.EncodeStaticText(position, text))
}

func (d *FrontDisplay) SetScrollingText(slot frame.Slot, position int, windowLength int, text string) error {
	return d.write(frame.EncodeScrollingText(slot, position, windowLength, text))
}

func (d *FrontDisplay) SetUpperBar(content [frame.BarSegments]bool) error {
	return d.tx(frame.EncodeUpperBar(content), nil)
}

func (d *FrontDisplay) SetUpperBarPositions(activePositions []int, invert bool) error {
	return d.write(frame.EncodeUpperBarPositions(activePositions, invert))
}

func (d *FrontDisplay) SetOneLineDiffChart(position int, values []float64, unit float64) error {
	return d.write(frame.EncodeOneLineChart(position, values, unit))
}

func (d *FrontDisplay) SetTwoLinesDiffChart(position int, values []float64, unit float64) error {
	upper, lower, err := frame.EncodeTwoLinesChart(position, values, unit)
	if err != nil {
		return err
	}
	if err := d.tx(upper, nil); err != nil {
		return err
	}
	return d.tx(lower, nil)
}

func (d *FrontDisplay) ButtonReport() (frame.ButtonReport, error) {
	r := make([]byte, frame.ButtonReportSize)
	if err := d.tx(frame.EncodeButtonReportRequest(), r); err != nil {
		return frame.ButtonReport{}, err
	}
	return frame.DecodeButtonReport(r)
}
