package client

import (
	"log"
	"sync"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
)

var monitor *Monitor

// Monitor keeps replication stats of the Channel and the Session.
type Monitor struct {
	sync.Mutex
	emitted    int
	dropped    int
	received   int
	ignored    int
	connErrors int
	applyDur   *movingaverage.MovingAverage
	saveDur    *movingaverage.MovingAverage
	stopCh     chan struct{}
}

// MessageEmitted increments the queued outbound messages metric.
func (m *Monitor) MessageEmitted() {
	m.Lock()
	defer m.Unlock()

	m.emitted++
}

// MessageDropped increments the outbound messages dropped (disconnected or queue full) metric.
func (m *Monitor) MessageDropped() {
	m.Lock()
	defer m.Unlock()

	m.dropped++
}

// MessageReceived updates the applied inbound message metrics.
func (m *Monitor) MessageReceived(dur time.Duration) {
	m.Lock()
	defer m.Unlock()

	m.received++
	m.applyDur.Add(float64(dur/time.Microsecond) / 1000.0)
}

// MessageIgnored increments the self-echo / foreign session inbound messages metric.
func (m *Monitor) MessageIgnored() {
	m.Lock()
	defer m.Unlock()

	m.ignored++
}

// ConnectFailed increments the failed connection attempts metric.
func (m *Monitor) ConnectFailed() {
	m.Lock()
	defer m.Unlock()

	m.connErrors++
}

// DesignSaved updates the save request duration metric.
func (m *Monitor) DesignSaved(dur time.Duration) {
	m.Lock()
	defer m.Unlock()

	m.saveDur.Add(float64(dur/time.Microsecond) / 1000.0)
}

// Start starts the Monitor worker.
func (m *Monitor) Start() {
	if m.stopCh != nil {
		return
	}

	m.stopCh = make(chan struct{})
	go m.worker()
}

// Stop stops the Monitor worker.
func (m *Monitor) Stop() {
	if m.stopCh == nil {
		return
	}

	close(m.stopCh)
	m.stopCh = nil
}

// worker does the actual job.
func (m *Monitor) worker() {
	const period = 5 * time.Second

	stopCh := m.stopCh
	tickCh := time.Tick(period)
	for {
		select {
		case <-stopCh:
			// Stop the monitor
			return
		case <-tickCh:
			// Print the report
			m.Lock()

			perSec := func(v int) float64 {
				return float64(v) / (float64(period) / float64(time.Second))
			}
			log.Printf("Monitor:")
			log.Printf("  - Emitted msgs / s:      %.2f", perSec(m.emitted))
			log.Printf("  - Dropped msgs / s:      %.2f", perSec(m.dropped))
			log.Printf("  - Received msgs / s:     %.2f", perSec(m.received))
			log.Printf("  - Ignored msgs / s:      %.2f", perSec(m.ignored))
			log.Printf("  - Connect errors:        %d", m.connErrors)
			log.Printf("  - Remote apply dur [ms]: %.3f", m.applyDur.Avg())
			log.Printf("  - Save request dur [ms]: %.2f", m.saveDur.Avg())
			m.emitted, m.dropped, m.received, m.ignored, m.connErrors = 0, 0, 0, 0, 0

			m.Unlock()
		}
	}
}

func init() {
	monitor = &Monitor{
		applyDur: movingaverage.New(5),
		saveDur:  movingaverage.New(3),
	}
}
