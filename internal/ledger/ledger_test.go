package ledger

import "testing"

func TestNeedsRunMissingEntry(t *testing.T) {
	store := NewStore(nil, false)
	if !store.NeedsRun("a", "magick a.jpg out.jpg", "h1", true) {
		t.Fatal("missing entry must be needed")
	}
}

func TestNeedsRunFingerprintMismatch(t *testing.T) {
	store := NewStore(Entries{"a": {"cmd": "h1"}}, false)
	if !store.NeedsRun("a", "cmd", "h2", true) {
		t.Fatal("changed fingerprint must be needed regardless of output")
	}
	if !store.NeedsRun("a", "cmd", "h2", false) {
		t.Fatal("changed fingerprint must be needed when output missing too")
	}
}

func TestNeedsRunMissingOutput(t *testing.T) {
	store := NewStore(Entries{"a": {"cmd": "h1"}}, false)
	if !store.NeedsRun("a", "cmd", "h1", false) {
		t.Fatal("matching fingerprint with absent output must be needed")
	}
}

func TestNeedsRunSatisfied(t *testing.T) {
	store := NewStore(Entries{"a": {"cmd": "h1"}}, false)
	if store.NeedsRun("a", "cmd", "h1", true) {
		t.Fatal("matching fingerprint with existing output must not be needed")
	}
}

func TestForceAlwaysNeeded(t *testing.T) {
	store := NewStore(Entries{"a": {"cmd": "h1"}}, true)
	if !store.NeedsRun("a", "cmd", "h1", true) {
		t.Fatal("force flag must make every lookup needed")
	}
}

func TestRecordCreatesBucket(t *testing.T) {
	store := NewStore(nil, false)
	store.Record("a", "cmd", "h1")
	if store.NeedsRun("a", "cmd", "h1", true) {
		t.Fatal("recorded pair with existing output should be satisfied")
	}

	entries := store.Entries()
	if entries["a"]["cmd"] != "h1" {
		t.Fatalf("unexpected entries: %#v", entries)
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	store := NewStore(nil, false)
	store.Record("a", "cmd", "h1")

	snapshot := store.Entries()
	snapshot["a"]["cmd"] = "mutated"

	if store.Entries()["a"]["cmd"] != "h1" {
		t.Fatal("mutating a snapshot must not affect the store")
	}
}
