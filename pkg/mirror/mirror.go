// Package mirror holds the client's copy of the device's last snapshot.
package mirror

import (
	"sync"

	"github.com/modbee/modbee-dash/pkg/render"
	"github.com/modbee/modbee-dash/pkg/snapshot"
)

// Mirror holds at most one snapshot. Each Update replaces it wholesale and
// renders it to the display.
type Mirror struct {
	mu      sync.Mutex
	current snapshot.Snapshot
	has     bool
	updates uint64

	display render.Display
}

// New creates an empty mirror that renders to d. A nil d only records.
func New(d render.Display) *Mirror {
	return &Mirror{display: d}
}

// Update replaces the held snapshot with s and renders it.
func (m *Mirror) Update(s snapshot.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = s
	m.has = true
	m.updates++

	if m.display != nil {
		render.Apply(m.display, render.Project(s))
		render.Apply(m.display, render.ProjectNetwork(s))
	}
}

// Current returns a copy of the held snapshot and whether one has arrived.
func (m *Mirror) Current() (snapshot.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.has
}

// Updates returns the number of snapshots received.
func (m *Mirror) Updates() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}
