// Package progress streams run status from the pipeline to an observer.
package progress

import (
	"log"
	"sync"
)

// Step numbers the pipeline stages an observer can show
type Step int

const (
	StepFetching Step = iota
	StepScanning
	StepDetecting
	StepAnalyzing
	StepClassifying
	StepBuilding
)

// Event is one status update. Exactly one event per run has Final set; it
// is always the last event and carries the run error, if any.
type Event struct {
	Step    Step
	Message string
	Data    map[string]interface{}
	Final   bool
	Err     error
}

// Reporter is a bounded event channel. Intermediate events never block the
// producer and are dropped when the observer falls behind; one slot is held
// back so the final event is always delivered. A nil Reporter only logs.
type Reporter struct {
	mu       sync.Mutex
	ch       chan Event
	finished bool
}

// NewReporter creates a reporter buffering up to size intermediate events
func NewReporter(size int) *Reporter {
	if size < 1 {
		size = 1
	}
	return &Reporter{ch: make(chan Event, size+1)}
}

// Events is closed after the final event
func (r *Reporter) Events() <-chan Event {
	return r.ch
}

// Emit publishes an intermediate event without blocking
func (r *Reporter) Emit(step Step, message string, data map[string]interface{}) {
	log.Printf("  [%d] %s", step, message)
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished || len(r.ch) >= cap(r.ch)-1 {
		return
	}
	r.ch <- Event{Step: step, Message: message, Data: data}
}

// Finish publishes the final event and closes the channel. Later calls are ignored.
func (r *Reporter) Finish(message string, data map[string]interface{}, err error) {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	r.finished = true
	r.ch <- Event{Step: StepBuilding, Message: message, Data: data, Final: true, Err: err}
	close(r.ch)
}
