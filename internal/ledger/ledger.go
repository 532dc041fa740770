// Package ledger tracks which commands have already run against which
// source content, so unchanged work can be skipped across runs.
package ledger

import "sync"

// Entries is the persisted ledger shape: item slug → command signature →
// fingerprint recorded when the command was last admitted.
type Entries map[string]map[string]string

// Ledger decides whether a command needs to run and records admissions.
// The registry depends on this interface so tests can substitute a fake.
type Ledger interface {
	// NeedsRun reports whether the (item, signature) pair must execute this
	// run, given the item's current fingerprint and whether the expected
	// output artifact already exists.
	NeedsRun(itemID, signature, currentFingerprint string, outputExists bool) bool

	// Record stores the fingerprint for the pair. Called at registration
	// time for admitted work, before the command actually runs.
	Record(itemID, signature, fingerprint string)
}

// Store is the standard Ledger backed by an in-memory map that callers
// load from and flush to the private manifest.
type Store struct {
	mu      sync.Mutex
	entries Entries
	force   bool
}

// NewStore builds a Store seeded with previously persisted entries. A nil
// map means no prior run. When force is set every lookup reports needed.
func NewStore(entries Entries, force bool) *Store {
	if entries == nil {
		entries = Entries{}
	}
	return &Store{entries: entries, force: force}
}

// NeedsRun applies the decision rule in order: missing entry, fingerprint
// mismatch, missing output artifact, then the force flag.
func (s *Store) NeedsRun(itemID, signature, currentFingerprint string, outputExists bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	recorded, ok := s.entries[itemID][signature]
	if !ok {
		return true
	}
	if recorded != currentFingerprint {
		return true
	}
	if !outputExists {
		return true
	}
	if s.force {
		return true
	}
	return false
}

// Record stores the fingerprint for the pair, creating the item bucket on
// first use.
func (s *Store) Record(itemID, signature, fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.entries[itemID]
	if !ok {
		bucket = map[string]string{}
		s.entries[itemID] = bucket
	}
	bucket[signature] = fingerprint
}

// Entries returns a deep copy of the current ledger state for persistence.
func (s *Store) Entries() Entries {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(Entries, len(s.entries))
	for item, bucket := range s.entries {
		copied := make(map[string]string, len(bucket))
		for sig, fp := range bucket {
			copied[sig] = fp
		}
		out[item] = copied
	}
	return out
}
