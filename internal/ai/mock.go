package ai

import "context"

// MockGenerator is a configurable in-memory Generator for tests and for
// running without a configured provider.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string, history []Message) (string, error)
	Calls        []string
}

// Generate records the prompt and delegates to GenerateFunc.
func (m *MockGenerator) Generate(ctx context.Context, prompt string, history []Message) (string, error) {
	m.Calls = append(m.Calls, prompt)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, history)
	}
	return "", context.Canceled
}

// GenerateStream emits the Generate result as a single fragment.
func (m *MockGenerator) GenerateStream(ctx context.Context, prompt string, history []Message) (<-chan StreamEvent, error) {
	text, err := m.Generate(ctx, prompt, history)
	if err != nil {
		return nil, err
	}
	events := make(chan StreamEvent, 2)
	events <- StreamEvent{Text: text}
	events <- StreamEvent{Done: true}
	close(events)
	return events, nil
}
