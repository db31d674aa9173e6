// Package pipeline sequences the remote stages of a deployment run:
// ordered, fail-fast execution with an append-only audit trail of step
// records. A second concurrent run against the same host and application
// name is undefined behavior; serializing runs is the caller's job.
package pipeline

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// StepStatus is the terminal outcome of one attempted stage.
type StepStatus string

const (
	StepSuccess StepStatus = "success"
	StepFailure StepStatus = "failure"
)

// StepRecord is one attempted pipeline stage. Records are created
// immediately before a stage executes, finalized immediately after, and
// never mutated again.
type StepRecord struct {
	SessionID  string     `json:"session_id"`
	Seq        int        `json:"seq"`
	Stage      string     `json:"stage"`
	Status     StepStatus `json:"status"`
	Detail     string     `json:"detail,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

// Sink receives finalized step records. Sink errors are reported to the
// runner's logger but never fail the pipeline: losing an audit line must
// not abort a deployment.
type Sink interface {
	Record(rec StepRecord) error
}

// JSONSink writes one timestamped JSON line per finalized record,
// forming the append-only audit log.
type JSONSink struct {
	mu  sync.Mutex
	w   io.Writer
	enc *json.Encoder
}

// NewJSONSink creates a sink writing JSON lines to w. The caller owns w
// and is responsible for opening it in append mode.
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{w: w, enc: json.NewEncoder(w)}
}

func (s *JSONSink) Record(rec StepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(rec)
}
