// Package scan discovers source images and derives the web-safe slugs that
// identify them for the rest of the pipeline.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"imagemill/internal/fingerprint"
	"imagemill/internal/services"
)

// Item is one discovered source file. The slug is its identity for ledger
// lookups and manifests; the fingerprint reflects current file content.
type Item struct {
	Slug        string
	Ext         string
	SourcePath  string
	Fingerprint string
}

// Directory walks dir non-recursively, keeps files whose extension is in
// extensions (lowercase, no dot), fingerprints each, and returns items
// sorted by slug. Slug collisions get a numeric suffix so identity stays
// unique within a run.
func Directory(dir string, extensions []string) ([]Item, error) {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "scan", "read dir", dir, err)
	}

	items := make([]Item, 0, len(dirEntries))
	seen := map[string]int{}
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		if _, ok := allowed[ext]; !ok {
			continue
		}

		slug := Slugify(strings.TrimSuffix(name, filepath.Ext(name)))
		seen[slug]++
		if n := seen[slug]; n > 1 {
			slug = fmt.Sprintf("%s-%d", slug, n)
		}

		path := filepath.Join(dir, name)
		digest, err := fingerprint.Compute(path)
		if err != nil {
			return nil, err
		}

		items = append(items, Item{
			Slug:        slug,
			Ext:         ext,
			SourcePath:  path,
			Fingerprint: digest,
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Slug < items[j].Slug })
	return items, nil
}

// Index maps items by slug for registry lookups.
func Index(items []Item) map[string]Item {
	index := make(map[string]Item, len(items))
	for _, item := range items {
		index[item.Slug] = item
	}
	return index
}
