package domain

import "time"

// SessionPhase is one step of the remote build session lifecycle.
type SessionPhase string

const (
	PhaseInit           SessionPhase = "init"
	PhaseKeyProvisioned SessionPhase = "key-provisioned"
	PhaseStaged         SessionPhase = "staged"
	PhaseBootstrapped   SessionPhase = "bootstrapped"
	PhaseExecuting      SessionPhase = "executing"
	PhaseCollected      SessionPhase = "collected"
	PhaseCleaned        SessionPhase = "cleaned"
	PhaseFailed         SessionPhase = "failed"
)

// PhaseResult records the outcome of a single session phase. Phase results
// are the only source of truth for the session's terminal outcome; nothing
// is inferred from side-channel process state.
type PhaseResult struct {
	Phase    SessionPhase
	ExitCode int
	Err      error
	Duration time.Duration
}

// Failed reports whether the phase ended with an error or a nonzero exit.
func (r PhaseResult) Failed() bool {
	return r.Err != nil || r.ExitCode != 0
}

// HostDescriptor identifies one reachable build host as reported by the
// discovery collaborator.
type HostDescriptor struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// BuildSession is the ephemeral per-invocation state of one remote build
// run. It is created at session start and torn down, credentials included,
// on every exit path.
type BuildSession struct {
	Host             HostDescriptor
	CredentialHandle string
	Phase            SessionPhase
	StartTime        time.Time
	PhaseResults     []PhaseResult
}

// Reached reports whether the session completed phase p successfully.
func (s *BuildSession) Reached(p SessionPhase) bool {
	for _, r := range s.PhaseResults {
		if r.Phase == p && !r.Failed() {
			return true
		}
	}
	return false
}

// Outcome returns the first failed phase result, if any.
func (s *BuildSession) Outcome() (PhaseResult, bool) {
	for _, r := range s.PhaseResults {
		if r.Failed() {
			return r, true
		}
	}
	return PhaseResult{}, false
}
