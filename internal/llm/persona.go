package llm

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts/atlas.yaml
var defaultPersonaYAML []byte

// Persona is the system instruction sent ahead of every conversation.
type Persona struct {
	Name   string `yaml:"name"`
	System string `yaml:"system"`
}

// DefaultPersona returns the built-in Atlas persona.
func DefaultPersona() Persona {
	p, err := parsePersona(defaultPersonaYAML)
	if err != nil {
		panic("llm: embedded persona is invalid: " + err.Error())
	}
	return p
}

// LoadPersona reads a persona from a YAML file. An empty path yields the default.
func LoadPersona(path string) (Persona, error) {
	if path == "" {
		return DefaultPersona(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, fmt.Errorf("read persona: %w", err)
	}
	p, err := parsePersona(b)
	if err != nil {
		return Persona{}, fmt.Errorf("persona %s: %w", path, err)
	}
	return p, nil
}

func parsePersona(b []byte) (Persona, error) {
	var p Persona
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Persona{}, err
	}
	p.System = strings.TrimSpace(p.System)
	if p.System == "" {
		return Persona{}, errors.New("system prompt is empty")
	}
	if p.Name == "" {
		p.Name = "Atlas"
	}
	return p, nil
}
