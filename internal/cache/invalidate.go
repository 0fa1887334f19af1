package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ClearDir removes the directory and all contents. It recreates the directory
// afterwards to leave a valid empty cache location.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// PurgeHTTPCacheByAge removes HTTP cache entries whose SavedAt is older than
// maxAge, deleting both the metadata and the body.
func PurgeHTTPCacheByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	removed := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".meta.json") {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var e HTTPEntry
		if err := json.Unmarshal(b, &e); err != nil {
			return nil
		}
		if now.Sub(e.SavedAt) <= maxAge {
			return nil
		}
		removed++
		_ = os.Remove(path)
		_ = os.Remove(strings.TrimSuffix(path, ".meta.json") + ".body")
		return nil
	})
	return removed, err
}

// PurgeLLMCacheByAge removes LLM cache entries older than maxAge based on file
// modification time.
func PurgeLLMCacheByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := time.Now()
	removed := 0
	for _, e := range llmEntries(dir) {
		if now.Sub(e.mtime) <= maxAge {
			continue
		}
		if os.Remove(e.paths[0]) == nil {
			removed++
		}
	}
	return removed, nil
}

// EnforceLLMCacheLimits evicts least recently used LLM entries until the
// total size is at most maxBytes and the count at most maxCount. A zero limit
// is ignored.
func EnforceLLMCacheLimits(dir string, maxBytes int64, maxCount int) (int, error) {
	return enforce(llmEntries(dir), maxBytes, maxCount), nil
}

// EnforceHTTPCacheLimits is EnforceLLMCacheLimits for the page cache; an
// entry is the meta and body pair and its age is the body's mtime.
func EnforceHTTPCacheLimits(dir string, maxBytes int64, maxCount int) (int, error) {
	return enforce(httpEntries(dir), maxBytes, maxCount), nil
}

type entry struct {
	paths []string
	size  int64
	mtime time.Time
}

func llmEntries(dir string) []entry {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []entry
	for _, d := range des {
		name := d.Name()
		if d.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".meta.json") {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		out = append(out, entry{paths: []string{filepath.Join(dir, name)}, size: info.Size(), mtime: info.ModTime()})
	}
	return out
}

func httpEntries(dir string) []entry {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []entry
	for _, d := range des {
		name := d.Name()
		if d.IsDir() || !strings.HasSuffix(name, ".body") {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		base := filepath.Join(dir, strings.TrimSuffix(name, ".body"))
		e := entry{paths: []string{base + ".body", base + ".meta.json"}, size: info.Size(), mtime: info.ModTime()}
		if mi, err := os.Stat(base + ".meta.json"); err == nil {
			e.size += mi.Size()
		}
		out = append(out, e)
	}
	return out
}

func enforce(entries []entry, maxBytes int64, maxCount int) int {
	// oldest first
	sort.Slice(entries, func(i, j int) bool { return entries[i].mtime.Before(entries[j].mtime) })
	var total int64
	for _, e := range entries {
		total += e.size
	}
	count := len(entries)
	removed := 0
	for _, e := range entries {
		overCount := maxCount > 0 && count > maxCount
		overBytes := maxBytes > 0 && total > maxBytes
		if !overCount && !overBytes {
			break
		}
		for _, p := range e.paths {
			_ = os.Remove(p)
		}
		total -= e.size
		count--
		removed++
	}
	return removed
}
