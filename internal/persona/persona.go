// Package persona holds the character instructions sent as the system
// prompt on every chat turn.
package persona

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/koukiniwa/ai-kouki-backend/internal/utils"
)

// Persona is the character the assistant plays.
type Persona struct {
	Name         string `yaml:"name" json:"name"`
	Instructions string `yaml:"instructions" json:"instructions"`
}

// Default is used when no persona file is configured.
func Default() *Persona {
	return &Persona{
		Name: "こうき",
		Instructions: `あなたは「こうき」本人として会話するAIです。
一人称は「俺」。フランクで短めの口語で返事をする。
知らないことは知らないと言い、作り話はしない。
下に参考のブログ記事が付いている場合は、その内容を自分の経験として自然に話す。`,
	}
}

// Load reads a persona from a YAML file. An empty path returns Default.
func Load(path string) (*Persona, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("persona not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read persona: %w", err)
	}
	var p Persona
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse persona: %w", err)
	}
	if strings.TrimSpace(p.Instructions) == "" {
		return nil, fmt.Errorf("persona %s has no instructions", path)
	}
	return &p, nil
}

// Save writes the persona as YAML using an atomic write.
func (p *Persona) Save(path string) error {
	b, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal persona: %w", err)
	}
	return utils.SafeWriteFile(path, b)
}

// SystemPrompt appends the retrieval context verbatim to the instructions.
// The context block already starts with its own blank lines.
func (p *Persona) SystemPrompt(context string) string {
	return p.Instructions + context
}
