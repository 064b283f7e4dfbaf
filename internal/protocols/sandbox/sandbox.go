// Package sandbox defines the capabilities of the toy "Mult" protocol.
// A client asks a server to multiply two integers. The protocol exists to
// exercise the engine without any network dependency.
package sandbox

import (
	"sync"
	"time"

	"feditest/internal/nodedriver"
)

// LogEvent records one Mult call observed by a server.
type LogEvent struct {
	When time.Time
	A    int
	B    int
	C    int
}

// MultServer is a node that multiplies.
type MultServer interface {
	nodedriver.Node
	Mult(a, b int) (int, error)
	// StartLogging activates recording of Mult calls.
	StartLogging() error
	// GetAndClearLog stops recording and returns what was recorded.
	GetAndClearLog() ([]LogEvent, error)
}

// MultClient is a node that can be made to call Mult on a server.
type MultClient interface {
	nodedriver.Node
	CauseMult(server MultServer, a, b int) (int, error)
}

// Log is a Mult call recorder servers can embed.
type Log struct {
	mu      sync.Mutex
	active  bool
	entries []LogEvent
}

// Start activates recording and discards earlier entries.
func (l *Log) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = true
	l.entries = nil
}

// Record appends an event if recording is active.
func (l *Log) Record(a, b, c int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active {
		return
	}
	l.entries = append(l.entries, LogEvent{When: time.Now().UTC(), A: a, B: b, C: c})
}

// GetAndClear stops recording and returns the recorded events. It returns
// nil if recording was never started.
func (l *Log) GetAndClear() []LogEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := l.entries
	if l.active && entries == nil {
		entries = []LogEvent{}
	}
	l.active = false
	l.entries = nil
	return entries
}
