package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// LoadScalar decodes a single-value collection such as the salary setting.
// ok is false when the value is missing, unreadable or malformed.
func LoadScalar[T any](ctx context.Context, s *Store, name string) (v T, ok bool) {
	raw, err := s.backend.Read(ctx, name)
	if err != nil {
		slog.Warn("setting unavailable", "collection", name, "error", err)
		return v, false
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Warn("malformed setting ignored", "collection", name, "error", err)
		var zero T
		return zero, false
	}
	return v, true
}

// SaveScalar stores a single value.
func SaveScalar(ctx context.Context, s *Store, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := s.backend.Write(ctx, name, data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
