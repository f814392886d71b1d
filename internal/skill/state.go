package skill

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/comigor/atlas-go/internal/alexa"
	"github.com/comigor/atlas-go/internal/history"
)

const (
	attrHistory = "history"
	attrPhase   = "phase"
)

// SessionState is the typed view of the session attributes the platform
// round-trips between turns of one interaction.
type SessionState struct {
	ID      string
	History []history.Turn
	Phase   Phase

	// attributes we do not own, passed through untouched
	extra map[string]any
}

// LoadState decodes the session attributes of env. Absent attributes yield an
// empty history in PhaseStarted.
func LoadState(env *alexa.RequestEnvelope) (*SessionState, error) {
	st := &SessionState{
		ID:      env.SessionID(),
		History: []history.Turn{},
		Phase:   PhaseStarted,
		extra:   map[string]any{},
	}
	if st.ID == "" {
		st.ID = "anonymous." + uuid.NewString()
	}
	if env.Session == nil || env.Session.Attributes == nil {
		return st, nil
	}

	attrs := env.Session.Attributes
	maps.Copy(st.extra, attrs)
	delete(st.extra, attrHistory)
	delete(st.extra, attrPhase)

	if raw, ok := attrs[attrHistory]; ok && raw != nil {
		b, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("encode session history: %w", err)
		}
		var turns []history.Turn
		if err := json.Unmarshal(b, &turns); err != nil {
			return nil, fmt.Errorf("decode session history: %w", err)
		}
		if turns != nil {
			st.History = turns
		}
	}
	if p, ok := attrs[attrPhase].(string); ok {
		if phase, known := parsePhase(p); known {
			st.Phase = phase
		}
	}
	return st, nil
}

func (s *SessionState) Append(t history.Turn) {
	s.History = append(s.History, t)
}

// Attributes encodes the state for the response envelope.
func (s *SessionState) Attributes() map[string]any {
	out := make(map[string]any, len(s.extra)+2)
	maps.Copy(out, s.extra)
	out[attrHistory] = s.History
	out[attrPhase] = string(s.Phase)
	return out
}
