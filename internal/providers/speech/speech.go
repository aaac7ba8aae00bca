package speech

import "context"

// WordTiming marks where a single word lands in the synthesized audio.
type WordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Result is synthesized audio plus per-word timings for downstream alignment.
type Result struct {
	Audio   []byte
	Format  string
	Timings []WordTiming
}

// Synthesizer turns a script into spoken audio in a persona's voice.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) (*Result, error)
}
