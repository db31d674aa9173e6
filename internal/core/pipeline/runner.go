package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Stage is one unit of the deployment pipeline. Run either fully
// succeeds or returns the error that halts the pipeline. BestEffort
// stages (cleanup) log their error and let execution continue.
type Stage struct {
	Name       string
	Run        func(ctx context.Context) error
	BestEffort bool
}

// Runner executes stages strictly in order. Each stage blocks until its
// remote work returns or times out; a non-best-effort failure halts
// everything and surfaces a single terminal StageError.
type Runner struct {
	sessionID string
	sinks     []Sink
	logger    *slog.Logger
	seq       int
}

// NewRunner creates a runner for one session. Every finalized step
// record is fanned out to all sinks.
func NewRunner(sessionID string, logger *slog.Logger, sinks ...Sink) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		sessionID: sessionID,
		sinks:     sinks,
		logger:    logger.With("component", "pipeline", "session_id", sessionID),
	}
}

// Execute runs the stages in order, fail-fast. It returns the first
// fatal stage error, or nil when every stage succeeded (best-effort
// failures count as succeeded-with-warnings).
func (r *Runner) Execute(ctx context.Context, stages []Stage) error {
	for _, stage := range stages {
		if err := r.runStage(ctx, stage); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runStage(ctx context.Context, stage Stage) error {
	r.seq++
	rec := StepRecord{
		SessionID: r.sessionID,
		Seq:       r.seq,
		Stage:     stage.Name,
		StartedAt: time.Now().UTC(),
	}

	r.logger.Info("stage started", "stage", stage.Name, "seq", r.seq)
	err := stage.Run(ctx)
	rec.FinishedAt = time.Now().UTC()

	if err == nil {
		rec.Status = StepSuccess
		r.logger.Info("stage succeeded", "stage", stage.Name, "duration", rec.FinishedAt.Sub(rec.StartedAt))
		r.record(rec)
		return nil
	}

	rec.Status = StepFailure
	rec.Detail = err.Error()
	r.record(rec)

	if stage.BestEffort {
		r.logger.Warn("stage failed (best effort, continuing)", "stage", stage.Name, "error", err)
		return nil
	}

	r.logger.Error("stage failed", "stage", stage.Name, "error", err)
	if _, ok := err.(*StageError); ok {
		return err
	}
	return NewStageError(stage.Name, "", err)
}

func (r *Runner) record(rec StepRecord) {
	for _, sink := range r.sinks {
		if err := sink.Record(rec); err != nil {
			r.logger.Warn("audit sink write failed", "stage", rec.Stage, "error", err)
		}
	}
}
