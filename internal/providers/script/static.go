package script

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const staticProviderName = "static"

// StaticGenerator is the deterministic fallback used when the model
// provider is unreachable. The output is serviceable, not brilliant.
type StaticGenerator struct {
	titler cases.Caser
}

func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{titler: cases.Title(language.English)}
}

func (s *StaticGenerator) Generate(ctx context.Context, req Request) (*Script, error) {
	topic := strings.TrimSpace(req.Query)
	if topic == "" {
		topic = "this topic"
	}
	name := strings.TrimSpace(req.PersonaName)
	if name == "" {
		name = "your narrator"
	}
	title := s.titler.String(topic)
	text := fmt.Sprintf(
		"%s. Let's talk about it. I'm %s, and today I'll walk you through the essentials: what it is, why it matters, and what most people get wrong about it. "+
			"At its heart, %s comes down to a few simple ideas. Once you see them, the rest falls into place. "+
			"So next time %s comes up, you'll know exactly what's going on.",
		title, name, topic, topic,
	)
	return &Script{Text: text, Provider: staticProviderName}, nil
}

var _ Generator = (*StaticGenerator)(nil)
