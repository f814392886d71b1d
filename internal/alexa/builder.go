package alexa

const (
	speechPlainText = "PlainText"
	cardSimple      = "Simple"
	envelopeVersion = "1.0"
)

// Builder composes a ResponseEnvelope.
type Builder struct {
	resp  Response
	attrs map[string]any
}

func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) Speak(text string) *Builder {
	b.resp.OutputSpeech = &OutputSpeech{Type: speechPlainText, Text: text}
	return b
}

// Reprompt keeps the session open and sets the text spoken if the user stays silent.
func (b *Builder) Reprompt(text string) *Builder {
	b.resp.Reprompt = &Reprompt{OutputSpeech: OutputSpeech{Type: speechPlainText, Text: text}}
	b.EndSession(false)
	return b
}

func (b *Builder) SimpleCard(title, content string) *Builder {
	b.resp.Card = &Card{Type: cardSimple, Title: title, Content: content}
	return b
}

func (b *Builder) EndSession(end bool) *Builder {
	b.resp.ShouldEndSession = &end
	return b
}

func (b *Builder) WithSessionAttributes(attrs map[string]any) *Builder {
	b.attrs = attrs
	return b
}

func (b *Builder) Build() ResponseEnvelope {
	return ResponseEnvelope{
		Version:           envelopeVersion,
		SessionAttributes: b.attrs,
		Response:          b.resp,
	}
}
