package skill

import (
	"github.com/qmuntal/stateless"

	"github.com/comigor/atlas-go/internal/logger"
)

// Phase is the position of a session in its lifecycle.
type Phase string

const (
	PhaseStarted Phase = "Started"
	PhaseIdle    Phase = "Idle"
	PhaseEnded   Phase = "Ended"
)

// Trigger moves a session between phases. The zero value fires nothing.
type Trigger string

const (
	TriggerLaunch   Trigger = "Launch"
	TriggerConverse Trigger = "Converse"
	TriggerStop     Trigger = "Stop"
	TriggerEnd      Trigger = "End"
)

func parsePhase(s string) (Phase, bool) {
	switch p := Phase(s); p {
	case PhaseStarted, PhaseIdle, PhaseEnded:
		return p, true
	}
	return "", false
}

// Lifecycle tracks Started -> Idle <-> Idle -> Ended. It never rejects a
// request: a trigger the current phase does not permit is logged and dropped.
type Lifecycle struct {
	fsm *stateless.StateMachine
}

func NewLifecycle(initial Phase) *Lifecycle {
	fsm := stateless.NewStateMachine(initial)

	fsm.Configure(PhaseStarted).
		Permit(TriggerLaunch, PhaseIdle).
		Permit(TriggerConverse, PhaseIdle).
		Permit(TriggerStop, PhaseEnded).
		Permit(TriggerEnd, PhaseEnded)

	fsm.Configure(PhaseIdle).
		PermitReentry(TriggerLaunch).
		PermitReentry(TriggerConverse).
		Permit(TriggerStop, PhaseEnded).
		Permit(TriggerEnd, PhaseEnded)

	fsm.Configure(PhaseEnded).
		Ignore(TriggerLaunch).
		Ignore(TriggerConverse).
		Ignore(TriggerStop).
		Ignore(TriggerEnd)

	return &Lifecycle{fsm: fsm}
}

func (l *Lifecycle) Phase() Phase {
	return l.fsm.MustState().(Phase)
}

// Advance fires t and returns the resulting phase.
func (l *Lifecycle) Advance(t Trigger) Phase {
	if t == "" {
		return l.Phase()
	}
	if err := l.fsm.Fire(t); err != nil {
		logger.L.Warn("lifecycle transition dropped", "phase", l.Phase(), "trigger", t, "error", err)
	}
	return l.Phase()
}
