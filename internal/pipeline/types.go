package pipeline

import (
	"context"
	"time"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
)

// State is the position of a run in the pipeline
type State string

const (
	StateReceived     State = "received"
	StateNormalizing  State = State(domain.StageNormalize)
	StateTranscribing State = State(domain.StageTranscribe)
	StateCompleting   State = State(domain.StageComplete)
	StateSynthesizing State = State(domain.StageSynthesize)
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// order ranks the working states; a run only moves forward.
var order = map[State]int{
	StateReceived:     0,
	StateNormalizing:  1,
	StateTranscribing: 2,
	StateCompleting:   3,
	StateSynthesizing: 4,
	StateCompleted:    5,
}

// CanTransition reports whether a run may move from one state to another.
// Any non-terminal state may fail; otherwise states only advance.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return order[to] > order[from]
}

// Step is one stage of a run
type Step interface {
	// State is the state the run is in while the step executes
	State() State
	Execute(ctx context.Context, run *Run) error
}

// StepExecution records how a step went
type StepExecution struct {
	State     State         `json:"state"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Run carries one request through the pipeline. Steps read their inputs
// from it and write their outputs back.
type Run struct {
	ID       string
	Request  entities.PipelineRequest
	Settings entities.Settings

	Normalized *entities.NormalizedAudio
	Transcript *entities.Transcript
	Reply      *entities.CompletionReply
	Audio      *entities.SynthesizedAudio

	State       State
	Steps       []StepExecution
	StartedAt   time.Time
	CompletedAt time.Time
	Err         *domain.PipelineError
}

// NewRun creates a run in the received state. settings is the snapshot
// used for the whole run.
func NewRun(id string, req entities.PipelineRequest, settings entities.Settings) *Run {
	return &Run{
		ID:        id,
		Request:   req,
		Settings:  settings,
		State:     StateReceived,
		StartedAt: time.Now(),
	}
}

// Result converts the run into the caller-facing outcome
func (r *Run) Result() entities.PipelineResult {
	result := entities.PipelineResult{
		RequestID: r.ID,
		Kind:      r.Request.Kind,
		Settings:  r.Settings,
		Err:       r.Err,
	}
	if r.Err != nil {
		return result
	}
	result.Transcript = r.Transcript
	result.Reply = r.Reply
	result.Audio = r.Audio
	return result
}

// TextInput returns the text the completion or synthesis stage works on
func (r *Run) TextInput() string {
	if r.Transcript != nil {
		return r.Transcript.Text
	}
	return r.Request.Text
}

// Event is emitted on every state change
type Event struct {
	RunID     string               `json:"run_id"`
	Kind      entities.RequestKind `json:"kind"`
	Type      string               `json:"type"`
	State     State                `json:"state"`
	Duration  time.Duration        `json:"duration,omitempty"`
	ErrorKind domain.ErrorKind     `json:"error_kind,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// Event types
const (
	EventRunStarted    = "run_started"
	EventRunCompleted  = "run_completed"
	EventRunFailed     = "run_failed"
	EventStepStarted   = "step_started"
	EventStepCompleted = "step_completed"
	EventStepFailed    = "step_failed"
)

// Observer receives pipeline events. Implementations must not block.
type Observer interface {
	OnEvent(Event)
}
