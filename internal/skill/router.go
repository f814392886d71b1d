package skill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"

	"github.com/comigor/atlas-go/internal/alexa"
	"github.com/comigor/atlas-go/internal/history"
	"github.com/comigor/atlas-go/internal/logger"
)

// ChatIntent is the custom intent carrying free-form speech.
const ChatIntent = "ChatIntent"

var (
	// ErrUnhandledRequest is reported when no handler matches a request.
	ErrUnhandledRequest = errors.New("no handler for request")
	// ErrHandlerPanic wraps a panic recovered from a handler.
	ErrHandlerPanic = errors.New("handler panicked")
)

// Completer produces the assistant reply for an utterance given the prior turns.
type Completer interface {
	Complete(ctx context.Context, utterance string, prior []history.Turn) (string, error)
}

type input struct {
	env   *alexa.RequestEnvelope
	state *SessionState
	log   *slog.Logger
}

type route struct {
	name    string
	trigger Trigger
	match   func(*alexa.RequestEnvelope) bool
	handle  func(ctx context.Context, in *input) *alexa.Builder
}

// Skill dispatches voice-platform requests to handlers. Routes are checked in
// registration order and the first match wins.
type Skill struct {
	completer Completer
	archive   *history.Archive
	routes    []route
}

// New builds the skill. archive may be nil.
func New(completer Completer, archive *history.Archive) *Skill {
	s := &Skill{completer: completer, archive: archive}
	s.routes = []route{
		{name: "Launch", trigger: TriggerLaunch, match: isRequest(alexa.LaunchRequest), handle: s.launch},
		{name: "Chat", trigger: TriggerConverse, match: isIntent(ChatIntent), handle: s.chat},
		{name: "Help", trigger: TriggerConverse, match: isIntent(alexa.HelpIntent), handle: s.help},
		{name: "CancelAndStop", trigger: TriggerStop, match: isIntent(alexa.CancelIntent, alexa.StopIntent), handle: s.cancelAndStop},
		{name: "Fallback", trigger: TriggerConverse, match: isIntent(alexa.FallbackIntent), handle: s.fallback},
		{name: "SessionEnded", trigger: TriggerEnd, match: isRequest(alexa.SessionEndedRequest), handle: s.sessionEnded},
	}
	return s
}

func isRequest(typ string) func(*alexa.RequestEnvelope) bool {
	return func(env *alexa.RequestEnvelope) bool { return env.Request.Type == typ }
}

func isIntent(names ...string) func(*alexa.RequestEnvelope) bool {
	return func(env *alexa.RequestEnvelope) bool {
		return env.Request.Type == alexa.IntentRequest && slices.Contains(names, env.IntentName())
	}
}

func (s *Skill) match(env *alexa.RequestEnvelope) (route, bool) {
	for _, r := range s.routes {
		if r.match(env) {
			return r, true
		}
	}
	return route{}, false
}

// Handle runs exactly one handler for env and always returns a response:
// failures are spoken as a fixed apology.
func (s *Skill) Handle(ctx context.Context, env *alexa.RequestEnvelope) (out alexa.ResponseEnvelope) {
	log := logger.L.With("request_id", env.Request.RequestID, "type", env.Request.Type, "intent", env.IntentName())

	state, err := LoadState(env)
	if err != nil {
		return s.fail(log, env, err)
	}
	log = log.With("session", state.ID)

	r, ok := s.match(env)
	if !ok {
		return s.fail(log, env, fmt.Errorf("%w: type=%q intent=%q", ErrUnhandledRequest, env.Request.Type, env.IntentName()))
	}

	defer func() {
		if rec := recover(); rec != nil {
			out = s.fail(log, env, fmt.Errorf("%w: %s: %v", ErrHandlerPanic, r.name, rec))
		}
	}()

	b := r.handle(ctx, &input{env: env, state: state, log: log})
	state.Phase = NewLifecycle(state.Phase).Advance(r.trigger)
	log.Info("request handled", "handler", r.name, "phase", state.Phase, "turns", len(state.History))

	if env.Request.Type == alexa.SessionEndedRequest {
		return b.Build()
	}
	return b.WithSessionAttributes(state.Attributes()).Build()
}

// fail is the generic error handler. The incoming attributes are echoed so
// the session stays usable.
func (s *Skill) fail(log *slog.Logger, env *alexa.RequestEnvelope, err error) alexa.ResponseEnvelope {
	log.Error("error handled", "error", err, "stack", string(debug.Stack()))

	b := alexa.NewBuilder().Speak(speechError).Reprompt(speechRetryAsk)
	if env.Session != nil {
		b.WithSessionAttributes(env.Session.Attributes)
	}
	return b.Build()
}
