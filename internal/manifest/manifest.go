// Package manifest reads and writes the two JSON documents a run produces:
// the public manifest consumed by site templates and the private manifest
// holding the command ledger and local paths.
package manifest

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sort"

	"imagemill/internal/ledger"
	"imagemill/internal/services"
)

// Variant is one published rendition of an item.
type Variant struct {
	Width  int    `json:"width"`
	Retina bool   `json:"retina,omitempty"`
	File   string `json:"file"`
}

// Entry is the public, web-safe record for one item. No local filesystem
// paths appear here.
type Entry struct {
	ID       string    `json:"id"`
	Ext      string    `json:"ext"`
	Retina   bool      `json:"retina"`
	Crop     string    `json:"crop,omitempty"`
	Variants []Variant `json:"variants"`
}

// Public is the manifest consumed by site templates.
type Public struct {
	Images []Entry `json:"images"`
}

// Private holds state that never leaves the machine: the command ledger
// and the slug → source path mapping.
type Private struct {
	Ledger ledger.Entries    `json:"ledger"`
	Paths  map[string]string `json:"paths"`
}

// Meta returns the event-payload form of an entry.
func (e Entry) Meta() map[string]any {
	return map[string]any{
		"id":       e.ID,
		"ext":      e.Ext,
		"retina":   e.Retina,
		"crop":     e.Crop,
		"variants": e.Variants,
	}
}

// SortEntries orders entries by ID so output is deterministic.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
}

// LoadPrivate reads the private manifest. A missing file yields an empty
// manifest; any other failure is an IO error.
func LoadPrivate(path string) (*Private, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Private{Ledger: ledger.Entries{}, Paths: map[string]string{}}, nil
		}
		return nil, services.Wrap(services.ErrIO, "manifest", "read private", path, err)
	}

	var private Private
	if err := json.Unmarshal(data, &private); err != nil {
		return nil, services.Wrap(services.ErrIO, "manifest", "parse private", path, err)
	}
	if private.Ledger == nil {
		private.Ledger = ledger.Entries{}
	}
	if private.Paths == nil {
		private.Paths = map[string]string{}
	}
	return &private, nil
}

// SavePrivate writes the private manifest.
func SavePrivate(path string, private *Private) error {
	data, err := json.Marshal(private)
	if err != nil {
		return services.Wrap(services.ErrIO, "manifest", "encode private", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrIO, "manifest", "write private", path, err)
	}
	return nil
}

// LoadPublic reads the public manifest. Missing file yields an empty one.
func LoadPublic(path string) (*Public, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Public{}, nil
		}
		return nil, services.Wrap(services.ErrIO, "manifest", "read public", path, err)
	}

	var public Public
	if err := json.Unmarshal(data, &public); err != nil {
		return nil, services.Wrap(services.ErrIO, "manifest", "parse public", path, err)
	}
	return &public, nil
}

// SavePublic writes the public manifest pretty-printed.
func SavePublic(path string, public *Public) error {
	SortEntries(public.Images)
	data, err := json.MarshalIndent(public, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrIO, "manifest", "encode public", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrIO, "manifest", "write public", path, err)
	}
	return nil
}
