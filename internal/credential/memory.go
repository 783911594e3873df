// Package credential holds the Gemini API key between requests.
package credential

import (
	"context"
	"strings"
	"sync"
)

// Memory keeps the credential in process memory. It is lost on restart.
type Memory struct {
	mu    sync.RWMutex
	value string
}

func NewMemory(initial string) *Memory {
	return &Memory{value: strings.TrimSpace(initial)}
}

func (m *Memory) Get(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value, nil
}

func (m *Memory) Set(_ context.Context, v string) error {
	m.mu.Lock()
	m.value = strings.TrimSpace(v)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.value = ""
	m.mu.Unlock()
	return nil
}
