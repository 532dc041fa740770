package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"imagemill/internal/ledger"
	"imagemill/internal/services"
)

func TestLoadPrivateMissingFile(t *testing.T) {
	private, err := LoadPrivate(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadPrivate: %v", err)
	}
	if len(private.Ledger) != 0 || len(private.Paths) != 0 {
		t.Fatalf("expected empty manifest, got %#v", private)
	}
}

func TestPrivateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "private.json")
	original := &Private{
		Ledger: ledger.Entries{"hero": {"magick hero 640": "h1"}},
		Paths:  map[string]string{"hero": "/src/hero.jpg"},
	}
	if err := SavePrivate(path, original); err != nil {
		t.Fatalf("SavePrivate: %v", err)
	}

	loaded, err := LoadPrivate(path)
	if err != nil {
		t.Fatalf("LoadPrivate: %v", err)
	}
	if loaded.Ledger["hero"]["magick hero 640"] != "h1" {
		t.Fatalf("ledger lost in round trip: %#v", loaded.Ledger)
	}
	if loaded.Paths["hero"] != "/src/hero.jpg" {
		t.Fatalf("paths lost in round trip: %#v", loaded.Paths)
	}
}

func TestLoadPrivateCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "private.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadPrivate(path)
	if err == nil {
		t.Fatal("expected error for corrupt manifest")
	}
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}

func TestSavePublicPrettyPrintsAndSorts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.json")
	public := &Public{Images: []Entry{
		{ID: "zebra", Ext: "jpg", Variants: []Variant{{Width: 640, File: "zebra-640.jpg"}}},
		{ID: "apple", Ext: "png", Retina: true},
	}}
	if err := SavePublic(path, public); err != nil {
		t.Fatalf("SavePublic: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	text := string(raw)
	if !strings.Contains(text, "\n  ") {
		t.Fatal("public manifest should be pretty-printed")
	}
	if strings.Index(text, `"apple"`) > strings.Index(text, `"zebra"`) {
		t.Fatal("entries should be sorted by id")
	}

	loaded, err := LoadPublic(path)
	if err != nil {
		t.Fatalf("LoadPublic: %v", err)
	}
	if len(loaded.Images) != 2 || loaded.Images[0].ID != "apple" {
		t.Fatalf("unexpected round trip: %#v", loaded.Images)
	}
}

func TestEntryMeta(t *testing.T) {
	entry := Entry{ID: "hero", Ext: "jpg", Retina: true}
	meta := entry.Meta()
	if meta["id"] != "hero" || meta["ext"] != "jpg" || meta["retina"] != true {
		t.Fatalf("unexpected meta: %#v", meta)
	}
}
