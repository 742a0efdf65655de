// Package ai wraps the external text-generation provider behind a small
// interface. Callers treat any returned error as a failure and fall back
// locally; no retry policy lives here.
package ai

import (
	"context"

	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

// Message is one turn of conversation history passed to the generator.
type Message struct {
	Role    types.MessageRole
	Content string
}

// StreamEvent is one fragment of a streaming generation. Done marks the
// terminal event; Err is set when generation aborted mid-stream.
type StreamEvent struct {
	Text string
	Done bool
	Err  error
}

// Generator produces text from a prompt, optionally grounded in prior
// conversation history.
type Generator interface {
	// Generate returns the full response for prompt.
	Generate(ctx context.Context, prompt string, history []Message) (string, error)

	// GenerateStream delivers the response incrementally. The channel is
	// closed after a terminal event (Done or Err set). Cancelling ctx stops
	// the stream.
	GenerateStream(ctx context.Context, prompt string, history []Message) (<-chan StreamEvent, error)
}
