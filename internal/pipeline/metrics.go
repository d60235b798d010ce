package pipeline

import (
	"sync/atomic"
	"time"
)

// Metrics counts what a pipeline has seen and done.
type Metrics struct {
	events        atomic.Int64
	filtered      atomic.Int64
	backups       atomic.Int64
	bytes         atomic.Int64
	warnings      atomic.Int64
	errors        atomic.Int64
	lastEventTime atomic.Int64
}

// Stats is a point-in-time copy of Metrics.
type Stats struct {
	Events    int64
	Filtered  int64
	Backups   int64
	Bytes     int64
	Warnings  int64
	Errors    int64
	LastEvent time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordEvent(at time.Time) {
	m.events.Add(1)
	m.lastEventTime.Store(at.UnixNano())
}

func (m *Metrics) RecordFiltered() {
	m.filtered.Add(1)
}

func (m *Metrics) RecordBackup(size int64) {
	m.backups.Add(1)
	m.bytes.Add(size)
}

func (m *Metrics) RecordWarning() {
	m.warnings.Add(1)
}

func (m *Metrics) RecordError() {
	m.errors.Add(1)
}

func (m *Metrics) Snapshot() Stats {
	s := Stats{
		Events:   m.events.Load(),
		Filtered: m.filtered.Load(),
		Backups:  m.backups.Load(),
		Bytes:    m.bytes.Load(),
		Warnings: m.warnings.Load(),
		Errors:   m.errors.Load(),
	}
	if ns := m.lastEventTime.Load(); ns != 0 {
		s.LastEvent = time.Unix(0, ns).UTC()
	}
	return s
}
