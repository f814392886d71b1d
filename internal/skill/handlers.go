package skill

import (
	"context"
	"slices"

	"github.com/comigor/atlas-go/internal/alexa"
	"github.com/comigor/atlas-go/internal/history"
)

// utteranceSlots are queried in order; the first non-empty value wins.
var utteranceSlots = []string{"utterance", "any", "phrase"}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func slotUtterance(intent *alexa.Intent) string {
	values := make([]string, len(utteranceSlots))
	for i, name := range utteranceSlots {
		values[i] = intent.SlotValue(name)
	}
	return firstNonEmpty(values...)
}

func (s *Skill) launch(_ context.Context, _ *input) *alexa.Builder {
	return alexa.NewBuilder().
		Speak(speechGreeting).
		Reprompt(speechWhatCanIDo).
		SimpleCard(cardTitle, speechGreeting)
}

func (s *Skill) chat(ctx context.Context, in *input) *alexa.Builder {
	return s.converse(ctx, in, slotUtterance(in.env.Request.Intent), speechConnectionTrouble)
}

func (s *Skill) fallback(ctx context.Context, in *input) *alexa.Builder {
	utterance := firstNonEmpty(slotUtterance(in.env.Request.Intent), in.env.Request.Transcript, promptRephrase)
	return s.converse(ctx, in, utterance, speechNotUnderstood)
}

// converse records the user turn, asks the completer and records the assistant
// turn only when the completer succeeds. On failure the apology is spoken and
// the session continues.
func (s *Skill) converse(ctx context.Context, in *input, utterance, apology string) *alexa.Builder {
	prior := slices.Clone(in.state.History)

	user := history.User(utterance)
	in.state.Append(user)
	archived := []history.Turn{user}

	reply, err := s.completer.Complete(ctx, utterance, prior)
	if err != nil {
		in.log.Error("completion failed", "error", err)
		reply = apology
	} else {
		assistant := history.Assistant(reply)
		in.state.Append(assistant)
		archived = append(archived, assistant)
	}
	s.archive.Save(ctx, in.state.ID, archived...)

	return alexa.NewBuilder().
		Speak(reply).
		Reprompt(speechAnythingElse).
		SimpleCard(cardTitle, reply)
}

func (s *Skill) help(_ context.Context, _ *input) *alexa.Builder {
	return alexa.NewBuilder().
		Speak(speechHelp).
		Reprompt(speechWhatCanIDo)
}

func (s *Skill) cancelAndStop(_ context.Context, _ *input) *alexa.Builder {
	return alexa.NewBuilder().Speak(speechGoodbye)
}

func (s *Skill) sessionEnded(_ context.Context, in *input) *alexa.Builder {
	in.log.Info("session ended", "reason", in.env.Request.Reason)
	return alexa.NewBuilder()
}
