package script

import "context"

// Request carries everything the generator needs to write a monologue.
type Request struct {
	Query       string
	PersonaName string
	StylePrompt string
}

// Script is the generated monologue, ready for speech synthesis.
type Script struct {
	Text     string
	Provider string
}

// Generator produces a persona-voiced explanation script for a query.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Script, error)
}
