// Package jsonexport appends reports to a newline-delimited JSON file.
package jsonexport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/FranksOps/agentrank/internal/export"
	"github.com/FranksOps/agentrank/internal/pipeline"
)

var _ export.Sink = (*jsonSink)(nil)

type jsonSink struct {
	mu   sync.Mutex
	file *os.File
}

// New opens filePath for appending, creating it if needed.
func New(filePath string) (export.Sink, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open json export: %w", err)
	}
	return &jsonSink{file: f}, nil
}

// Save writes the whole report as a single JSON line.
func (s *jsonSink) Save(ctx context.Context, r *pipeline.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode json export: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write json export: %w", err)
	}
	return nil
}

func (s *jsonSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
