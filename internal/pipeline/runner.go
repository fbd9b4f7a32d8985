package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/suara/domain"
)

// Runner executes steps in order and stops at the first failure
type Runner struct {
	logger    *zap.Logger
	observers []Observer
}

// NewRunner creates a new runner
func NewRunner(logger *zap.Logger, observers ...Observer) *Runner {
	return &Runner{
		logger:    logger,
		observers: observers,
	}
}

// Execute drives run through steps. It never returns an error: failures are
// recorded on the run, which ends in StateCompleted or StateFailed.
func (r *Runner) Execute(ctx context.Context, run *Run, steps []Step) {
	r.emit(run, Event{Type: EventRunStarted, State: run.State})

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			r.fail(run, step.State(), err)
			return
		}
		if err := r.executeStep(ctx, run, step); err != nil {
			r.fail(run, step.State(), err)
			return
		}
	}

	r.transition(run, StateCompleted)
	run.CompletedAt = time.Now()
	r.emit(run, Event{Type: EventRunCompleted, State: run.State, Duration: run.CompletedAt.Sub(run.StartedAt)})

	r.logger.Info("Pipeline completed",
		zap.String("runID", run.ID),
		zap.String("kind", string(run.Request.Kind)),
		zap.Duration("duration", run.CompletedAt.Sub(run.StartedAt)))
}

func (r *Runner) executeStep(ctx context.Context, run *Run, step Step) (err error) {
	if !r.transition(run, step.State()) {
		return fmt.Errorf("invalid transition from %s to %s", run.State, step.State())
	}

	exec := StepExecution{State: step.State(), StartedAt: time.Now()}
	r.emit(run, Event{Type: EventStepStarted, State: step.State()})

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("step %s panicked: %v", step.State(), p)
		}
		exec.Duration = time.Since(exec.StartedAt)
		event := Event{Type: EventStepCompleted, State: step.State(), Duration: exec.Duration}
		if err != nil {
			exec.Error = err.Error()
			event.Type = EventStepFailed
			event.ErrorKind = domain.KindOf(err)
		}
		run.Steps = append(run.Steps, exec)
		r.emit(run, event)
	}()

	return step.Execute(ctx, run)
}

func (r *Runner) fail(run *Run, stage State, err error) {
	run.Err = domain.NewPipelineError(string(stage), err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		run.Err.Message = "Request cancelled"
	}
	r.transition(run, StateFailed)
	run.CompletedAt = time.Now()
	r.emit(run, Event{Type: EventRunFailed, State: stage, ErrorKind: run.Err.Kind, Duration: run.CompletedAt.Sub(run.StartedAt)})

	fields := []zap.Field{
		zap.String("runID", run.ID),
		zap.String("kind", string(run.Request.Kind)),
		zap.String("stage", string(stage)),
		zap.String("errorKind", string(run.Err.Kind)),
		zap.Error(err),
	}
	switch run.Err.Kind {
	case domain.KindBackendUnavailable, domain.KindUnknownVoice, domain.KindInvalidSettings:
		r.logger.Error("Pipeline failed", fields...)
	default:
		r.logger.Info("Pipeline failed", fields...)
	}
}

func (r *Runner) transition(run *Run, to State) bool {
	if !CanTransition(run.State, to) {
		return false
	}
	run.State = to
	return true
}

func (r *Runner) emit(run *Run, event Event) {
	event.RunID = run.ID
	event.Kind = run.Request.Kind
	event.Timestamp = time.Now()
	for _, o := range r.observers {
		o.OnEvent(event)
	}
}
