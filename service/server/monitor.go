package server

import (
	"log"
	"sync"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
)

var monitor *Monitor

// Monitor keeps Relay and DesignsAPI stats.
type Monitor struct {
	sync.Mutex
	relayed    int
	requests   int
	peers      int
	persistDur *movingaverage.MovingAverage
	stopCh     chan struct{}
}

// MessageRelayed increments the relayed session messages metric.
func (m *Monitor) MessageRelayed() {
	m.Lock()
	defer m.Unlock()

	m.relayed++
}

// RequestServed increments the API requests metric.
func (m *Monitor) RequestServed() {
	m.Lock()
	defer m.Unlock()

	m.requests++
}

// PeersChanged updates the connected peers gauge.
func (m *Monitor) PeersChanged(count int) {
	m.Lock()
	defer m.Unlock()

	m.peers = count
}

// DesignPersisted updates the relay persisting duration metric.
func (m *Monitor) DesignPersisted(dur time.Duration) {
	m.Lock()
	defer m.Unlock()

	m.persistDur.Add(float64(dur/time.Microsecond) / 1000.0)
}

// Start starts the Monitor worker.
func (m *Monitor) Start() {
	if m.stopCh != nil {
		return
	}

	m.stopCh = make(chan struct{})
	go m.worker(m.stopCh)
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
func (m *Monitor) worker(stopCh chan struct{}) {
	const period = 5 * time.Second

	tickCh := time.Tick(period)
	for {
		select {
		case <-stopCh:
			// Stop the monitor
			return
		case <-tickCh:
			// Print the report
			m.Lock()

			relayedPerSec := float64(m.relayed) / (float64(period) / float64(time.Second))
			requestsPerSec := float64(m.requests) / (float64(period) / float64(time.Second))
			log.Printf("Monitor:")
			log.Printf("  - Connected peers:  %d", m.peers)
			log.Printf("  - Relayed msgs / s: %.2f", relayedPerSec)
			log.Printf("  - API requests / s: %.2f", requestsPerSec)
			log.Printf("  - Persist dur [ms]: %.2f", m.persistDur.Avg())
			m.relayed = 0
			m.requests = 0

			m.Unlock()
		}
	}
}

func init() {
	monitor = &Monitor{
		persistDur: movingaverage.New(5),
	}
}
