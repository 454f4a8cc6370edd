// Package orchestrator implements the Classification Orchestrator: a
// per-indicator state machine that drives the six classification stages
// in strict sequence, persisting each stage's result before advancing so
// a crash mid-run resumes from the last completed stage instead of
// restarting, and a fan-out pool that drives many such machines
// concurrently up to a configured concurrency bound.
package orchestrator

import "github.com/econindex/classifier/internal/stage"

// State is one of the per-indicator classification states.
type State string

const (
	StateNew         State = "new"
	StateNormalizing State = "normalizing"
	StateTiming      State = "timing"
	StateFamily      State = "family"
	StateType        State = "type"
	StateReview      State = "review"
	StateFinal       State = "final"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
)

// Terminal reports whether s ends the state machine; transitions out of
// a terminal state never occur.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// stateForStage is the state entered while running the named stage.
var stateForStage = map[stage.Name]State{
	stage.Normalization: StateNormalizing,
	stage.TimeInference: StateTiming,
	stage.FamilyAssign:  StateFamily,
	stage.TypeClassify:  StateType,
	stage.BooleanReview: StateReview,
	stage.FinalReview:   StateFinal,
}
