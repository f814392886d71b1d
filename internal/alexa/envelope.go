// Package alexa models the subset of the voice-platform webhook envelope the
// skill reads and writes. Request verification and the rest of the wire
// protocol are left to the platform.
package alexa

// Request types.
const (
	LaunchRequest       = "LaunchRequest"
	IntentRequest       = "IntentRequest"
	SessionEndedRequest = "SessionEndedRequest"
)

// Built-in intent names.
const (
	HelpIntent     = "AMAZON.HelpIntent"
	CancelIntent   = "AMAZON.CancelIntent"
	StopIntent     = "AMAZON.StopIntent"
	FallbackIntent = "AMAZON.FallbackIntent"
)

type RequestEnvelope struct {
	Version string   `json:"version"`
	Session *Session `json:"session,omitempty"`
	Request Request  `json:"request"`
}

type Session struct {
	New        bool           `json:"new"`
	SessionID  string         `json:"sessionId"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type Request struct {
	Type      string  `json:"type"`
	RequestID string  `json:"requestId"`
	Timestamp string  `json:"timestamp,omitempty"`
	Locale    string  `json:"locale,omitempty"`
	Intent    *Intent `json:"intent,omitempty"`
	// Reason is set on SessionEndedRequest.
	Reason string `json:"reason,omitempty"`
	// Transcript carries the raw recognised text when the adapter supplies it.
	Transcript string `json:"transcript,omitempty"`
}

type Intent struct {
	Name  string          `json:"name"`
	Slots map[string]Slot `json:"slots,omitempty"`
}

type Slot struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// IntentName returns the intent name of an IntentRequest, or "".
func (e *RequestEnvelope) IntentName() string {
	if e.Request.Type != IntentRequest || e.Request.Intent == nil {
		return ""
	}
	return e.Request.Intent.Name
}

// SessionID returns the platform session id, or "" when the envelope has no session.
func (e *RequestEnvelope) SessionID() string {
	if e.Session == nil {
		return ""
	}
	return e.Session.SessionID
}

// SlotValue returns the value of the named slot, or "" when absent.
func (i *Intent) SlotValue(name string) string {
	if i == nil {
		return ""
	}
	return i.Slots[name].Value
}

type ResponseEnvelope struct {
	Version           string         `json:"version"`
	SessionAttributes map[string]any `json:"sessionAttributes,omitempty"`
	Response          Response       `json:"response"`
}

type Response struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Reprompt         *Reprompt     `json:"reprompt,omitempty"`
	Card             *Card         `json:"card,omitempty"`
	ShouldEndSession *bool         `json:"shouldEndSession,omitempty"`
}

type OutputSpeech struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Reprompt struct {
	OutputSpeech OutputSpeech `json:"outputSpeech"`
}

type Card struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Speech returns the spoken text, or "".
func (r Response) Speech() string {
	if r.OutputSpeech == nil {
		return ""
	}
	return r.OutputSpeech.Text
}

// RepromptText returns the reprompt text, or "".
func (r Response) RepromptText() string {
	if r.Reprompt == nil {
		return ""
	}
	return r.Reprompt.OutputSpeech.Text
}
