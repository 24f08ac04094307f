package ops

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Event is a single captured log call, used by tests that assert on what
// was logged instead of parsing formatted output.
type Event struct {
	Level   log.Level
	Fields  log.Fields
	Message string
}

// Recorder is a Logger that appends every call to an in-memory slice
// instead of writing anywhere, for use in client/server tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	level  log.Level
}

// NewRecorder returns a Recorder whose Level reports level. It records
// every call regardless of its level.
func NewRecorder(level log.Level) *Recorder {
	return &Recorder{level: level}
}

func (r *Recorder) Log(level log.Level, fields log.Fields, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Level: level, Fields: fields, Message: message})
}

func (r *Recorder) Level() log.Level { return r.level }

// Events returns a snapshot of everything logged so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
