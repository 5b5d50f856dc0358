package store

import (
	"strings"

	"github.com/google/uuid"
)

// Dedupe returns one record per distinct id, first occurrence wins and order is kept.
// Records without an id get a fresh one instead of being dropped. Dedupe(Dedupe(x)) equals
// Dedupe(x) for records that already carry ids.
func Dedupe[T Record[T]](records []T) []T {
	out, _ := dedupe(records)
	return out
}

// Merge concatenates collections that mirror one logical set and dedupes the result.
// Earlier arguments win for ids present in several of them.
func Merge[T Record[T]](sets ...[]T) []T {
	var all []T
	for _, s := range sets {
		all = append(all, s...)
	}
	return Dedupe(all)
}

func dedupe[T Record[T]](records []T) (out []T, assigned int) {
	seen := make(map[string]bool, len(records))
	out = make([]T, 0, len(records))
	for _, r := range records {
		id := strings.TrimSpace(r.RecordID())
		if id == "" {
			id = uuid.NewString()
			r = r.WithID(id)
			assigned++
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, r)
	}
	return out, assigned
}
