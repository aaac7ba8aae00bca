package visuals

import (
	"context"

	"github.com/JetJadeja/celebxplain/internal/providers/speech"
)

// Segment is one stretch of the video with its supporting visual.
type Segment struct {
	Text     string   `json:"text"`
	StartsAt float64  `json:"starts_at"`
	EndsAt   float64  `json:"ends_at"`
	Caption  string   `json:"caption"`
	Keywords []string `json:"keywords"`
}

// Plan maps the narration onto timed visual segments.
type Plan struct {
	Segments []Segment `json:"segments"`
}

// Planner decides which visuals accompany each part of the narration.
type Planner interface {
	Plan(ctx context.Context, script string, timings []speech.WordTiming) (*Plan, error)
}
