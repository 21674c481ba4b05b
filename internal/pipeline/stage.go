package pipeline

import "fmt"

// Stage is the position of a run in the pipeline state machine.
type Stage string

const (
	StageStart          Stage = "START"
	StageCompiled       Stage = "COMPILED"
	StageOptimized      Stage = "OPTIMIZED"
	StageFallbackCopied Stage = "FALLBACK_COPIED"
	StageEncoded        Stage = "ENCODED"
	StageCleanedUp      Stage = "CLEANED_UP"
	StageFailed         Stage = "FAILED"
)

// IsTerminal reports whether no further transition is possible.
func (s Stage) IsTerminal() bool {
	return s == StageCleanedUp || s == StageFailed
}

// CanAdvanceTo reports whether the state machine allows s → next.
// Every non-terminal stage may fail; nothing moves backwards.
func (s Stage) CanAdvanceTo(next Stage) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StageFailed {
		return true
	}
	switch s {
	case StageStart:
		return next == StageCompiled
	case StageCompiled:
		return next == StageOptimized || next == StageFallbackCopied
	case StageOptimized, StageFallbackCopied:
		return next == StageEncoded
	case StageEncoded:
		return next == StageCleanedUp
	default:
		return false
	}
}

// machine tracks a single run's stage.
type machine struct {
	stage Stage
}

func newMachine() *machine {
	return &machine{stage: StageStart}
}

// advance performs a validated transition.
func (m *machine) advance(next Stage) error {
	if !m.stage.CanAdvanceTo(next) {
		return fmt.Errorf("disallowed stage transition: %s -> %s", m.stage, next)
	}
	m.stage = next
	return nil
}
