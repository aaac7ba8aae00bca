package storage

import (
	"context"
	"io"
)

// Store persists rendered artifacts and resolves how clients reach them.
type Store interface {
	// PutFile uploads the local file at path under the given key.
	PutFile(ctx context.Context, key, path, contentType string) error
	// URL returns a directly fetchable URL for the key, or "" when the
	// artifact must be streamed through the API instead.
	URL(ctx context.Context, key string) (string, error)
	// Open streams the artifact stored under key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ResultKey is the canonical artifact key for a job's final video.
func ResultKey(jobID string) string {
	return "results/" + jobID + "/final_video.mp4"
}

// SpeechKey is the artifact key for a job's synthesized narration.
func SpeechKey(jobID, format string) string {
	if format == "" {
		format = "mp3"
	}
	return "results/" + jobID + "/speech." + format
}
