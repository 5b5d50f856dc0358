package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Record is a stored entity identified by a string id.
type Record[T any] interface {
	RecordID() string
	WithID(id string) T
}

// repairable is implemented by records that coerce malformed fields while decoding.
type repairable interface {
	Repairs() []string
}

// Store binds collections to a backend.
type Store struct {
	backend Backend
}

// New creates a Store over backend.
func New(backend Backend) *Store {
	if backend == nil {
		panic("store.New: backend must not be nil")
	}
	return &Store{backend: backend}
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend { return s.backend }

// Collection is a named array of records of type T.
type Collection[T Record[T]] struct {
	store *Store
	name  string
}

// NewCollection returns a typed view of the named collection.
func NewCollection[T Record[T]](s *Store, name string) *Collection[T] {
	return &Collection[T]{store: s, name: name}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// loadStats describes what decoding a collection found.
type loadStats struct {
	Loaded  int
	Skipped int
	Coerced int
}

// Load reads every record of the collection in stored order, duplicates included.
// It never fails: unreadable storage and malformed documents yield an empty slice.
func (c *Collection[T]) Load(ctx context.Context) []T {
	raw, err := c.store.backend.Read(ctx, c.name)
	if err != nil {
		slog.Warn("collection unavailable, treating as empty", "collection", c.name, "error", err)
		return nil
	}
	records, _ := decode[T](c.name, raw)
	return records
}

// Records returns the deduplicated contents of the collection. It does not write back.
func (c *Collection[T]) Records(ctx context.Context) []T {
	return Dedupe(c.Load(ctx))
}

// Save replaces the stored contents of the collection.
func (c *Collection[T]) Save(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding collection %s: %w", c.name, err)
	}
	if err := c.store.backend.Write(ctx, c.name, data); err != nil {
		return fmt.Errorf("writing collection %s: %w", c.name, err)
	}
	return nil
}

// loadForWrite reads the collection for a read-modify-write cycle. Unlike Load it reports
// backend failures, so a write never replaces data that could not be read.
func (c *Collection[T]) loadForWrite(ctx context.Context) ([]T, loadStats, error) {
	raw, err := c.store.backend.Read(ctx, c.name)
	if err != nil {
		return nil, loadStats{}, fmt.Errorf("loading collection %s: %w", c.name, err)
	}
	records, stats := decode[T](c.name, raw)
	return records, stats, nil
}

// Upsert replaces every stored copy of the record's id, or appends the record when the id is
// new. A record without an id is given one. It returns the stored record and whether it was
// newly created.
func (c *Collection[T]) Upsert(ctx context.Context, rec T) (T, bool, error) {
	if strings.TrimSpace(rec.RecordID()) == "" {
		rec = rec.WithID(uuid.NewString())
	}
	records, _, err := c.loadForWrite(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}

	found := false
	for i, r := range records {
		if r.RecordID() == rec.RecordID() {
			records[i] = rec
			found = true
		}
	}
	if !found {
		records = append(records, rec)
	}
	if err := c.Save(ctx, records); err != nil {
		var zero T
		return zero, false, err
	}
	return rec, !found, nil
}

// UpdateExisting replaces the stored copies of rec's id and reports whether any existed.
// Nothing is written when the id is absent.
func (c *Collection[T]) UpdateExisting(ctx context.Context, rec T) (bool, error) {
	records, _, err := c.loadForWrite(ctx)
	if err != nil {
		return false, err
	}
	found := false
	for i, r := range records {
		if r.RecordID() == rec.RecordID() {
			records[i] = rec
			found = true
		}
	}
	if !found {
		return false, nil
	}
	return true, c.Save(ctx, records)
}

// Delete removes every record with id and reports whether any was removed.
func (c *Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	records, _, err := c.loadForWrite(ctx)
	if err != nil {
		return false, err
	}
	kept := lo.Reject(records, func(r T, _ int) bool {
		return r.RecordID() == id
	})
	if len(kept) == len(records) {
		return false, nil
	}
	if err := c.Save(ctx, kept); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteFromAll removes id from every given collection. Mirrors must all be listed, or the
// next merged read resurrects the record from the copy that was left behind.
// It returns ErrNotFound when no collection held the id.
func DeleteFromAll[T Record[T]](ctx context.Context, id string, collections ...*Collection[T]) error {
	removed := false
	var errs []error
	for _, c := range collections {
		ok, err := c.Delete(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		removed = removed || ok
	}
	if len(errs) > 0 {
		return fmt.Errorf("deleting %s: %w", id, errs[0])
	}
	if !removed {
		return fmt.Errorf("deleting %s: %w", id, ErrNotFound)
	}
	return nil
}

func decode[T Record[T]](name string, raw []byte) ([]T, loadStats) {
	var stats loadStats
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, stats
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		slog.Warn("malformed collection, treating as empty", "collection", name, "error", err)
		return nil, stats
	}

	records := make([]T, 0, len(elems))
	for i, elem := range elems {
		stats.Loaded++
		trimmed := bytes.TrimSpace(elem)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			slog.Warn("skipping non-object record", "collection", name, "index", i)
			stats.Skipped++
			continue
		}
		var rec T
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			slog.Warn("skipping undecodable record", "collection", name, "index", i, "error", err)
			stats.Skipped++
			continue
		}
		if r, ok := any(rec).(repairable); ok && len(r.Repairs()) > 0 {
			slog.Info("coerced malformed record fields", "collection", name, "id", rec.RecordID(), "fields", r.Repairs())
			stats.Coerced++
		}
		records = append(records, rec)
	}
	return records, stats
}
