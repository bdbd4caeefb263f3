package event

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// ReportBus fans measurement reports out to its subscribers. Each subscriber owns a bounded
// channel; when it is full the oldest pending report is dropped so that producers never block.
type ReportBus struct {
	lock        sync.RWMutex
	subscribers []chan MeasurementReport
	closed      bool
}

func NewReportBus() *ReportBus {
	return &ReportBus{}
}

// Subscribe registers a new consumer with room for capacity pending reports.
func (b *ReportBus) Subscribe(capacity int) <-chan MeasurementReport {
	if capacity < 1 {
		capacity = 1
	}
	ch := make(chan MeasurementReport, capacity)

	b.lock.Lock()
	defer b.lock.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

func (b *ReportBus) Publish(report MeasurementReport) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	if b.closed {
		return
	}

	for _, ch := range b.subscribers {
		for delivered := false; !delivered; {
			select {
			case ch <- report:
				delivered = true
			default:
				select {
				case dropped := <-ch:
					logrus.Warnf("Report bus full, dropping report from %v", dropped.Timestamp)
				default:
				}
			}
		}
	}
}

// Close closes all subscriber channels; later publications are ignored.
func (b *ReportBus) Close() {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subscribers {
		close(ch)
	}
}
