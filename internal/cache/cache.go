// Package cache implements the content-addressed compilation cache:
// a JSON manifest mapping a hash of each source file's canonical path
// to its last-built LLVM bitcode, so unchanged sources skip codegen
// and optimization on subsequent builds.
package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sort"

	"github.com/quark-lang/quarkc/internal/diagnostics"
)

// Version is the manifest schema version. Bumping it invalidates
// every entry written by an older compiler.
const Version = 1

// Entry records what was built for one source file the last time it
// was compiled.
type Entry struct {
	SourceHash        string   `json:"source_hash"`
	LLVMBitcodePath   string   `json:"llvm_bitcode_path"`
	OptimizationLevel int      `json:"optimization_level"`
	Freestanding      bool     `json:"freestanding"`
	Dependencies      []string `json:"dependencies,omitempty"`
	SizeBytes         int64    `json:"size_bytes"`
	AccessedAt        int64    `json:"accessed_at"` // unix seconds
}

// Manifest is the on-disk cache index, keyed by Key(path).
type Manifest struct {
	Version         int              `json:"version"`
	CompilerVersion string           `json:"compiler_version"`
	Entries         map[string]Entry `json:"entries"`

	dir   string
	dirty bool
}

// Key derives the cache key for a canonical source path: the hex
// FNV-1a-64 hash of the path string.
func Key(canonicalPath string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(canonicalPath))
	return fmt.Sprintf("%016x", h.Sum64())
}

// manifestPath is the fixed filename inside the cache directory.
const manifestPath = "manifest.json"

// Open loads the manifest from dir/manifest.json, creating dir if
// needed. A missing manifest yields a fresh empty one. A manifest that
// fails to parse, or whose version/compilerVersion does not match, is
// treated as fully invalidated: bus (if non-nil) receives a Warning
// and Open proceeds with an empty manifest rather than failing the
// build.
func Open(dir, compilerVersion string, bus *diagnostics.Bus) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	m := &Manifest{Version: Version, CompilerVersion: compilerVersion, Entries: map[string]Entry{}, dir: dir}

	path := filepath.Join(dir, manifestPath)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache manifest: %w", err)
	}

	var loaded Manifest
	if err := json.Unmarshal(data, &loaded); err != nil {
		warn(bus, "corrupt cache manifest %s, starting fresh: %v", path, err)
		return m, nil
	}
	if loaded.Version != Version || loaded.CompilerVersion != compilerVersion {
		warn(bus, "cache manifest %s built by a different compiler version, invalidating", path)
		return m, nil
	}
	loaded.dir = dir
	return &loaded, nil
}

func warn(bus *diagnostics.Bus, format string, args ...any) {
	if bus == nil {
		return
	}
	bus.Warn(diagnostics.New(diagnostics.CACHE001, fmt.Sprintf(format, args...), "", nil))
}

// Lookup returns the cached entry for path if present and its
// recorded source hash matches the file's current content hash.
func (m *Manifest) Lookup(canonicalPath string, currentHash string) (Entry, bool) {
	e, ok := m.Entries[Key(canonicalPath)]
	if !ok || e.SourceHash != currentHash {
		return Entry{}, false
	}
	return e, true
}

// Put records (or replaces) the entry for path and marks the manifest
// dirty so Save knows to rewrite it.
func (m *Manifest) Put(canonicalPath string, e Entry) {
	m.Entries[Key(canonicalPath)] = e
	m.dirty = true
}

// Dirty reports whether any entry has changed since Open/Save.
func (m *Manifest) Dirty() bool { return m.dirty }

// Save writes the manifest back to disk with deterministic
// (field-ordered, stable-key) JSON, but only if it has been marked
// dirty by Put or Prune.
func (m *Manifest) Save() error {
	if !m.dirty {
		return nil
	}
	data, err := marshalDeterministic(m)
	if err != nil {
		return fmt.Errorf("marshalling cache manifest: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	path := filepath.Join(m.dir, manifestPath)
	if err := os.WriteFile(path, append(buf.Bytes(), '\n'), 0o644); err != nil {
		return fmt.Errorf("writing cache manifest: %w", err)
	}
	m.dirty = false
	return nil
}

// marshalDeterministic marshals v with map keys sorted, so repeated
// Saves of an unchanged manifest produce byte-identical files.
func marshalDeterministic(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return marshalSortedMap(generic)
}

func marshalSortedMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalValue(m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v any) ([]byte, error) {
	switch t := v.(type) {
	case map[string]any:
		return marshalSortedMap(t)
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			eb, err := marshalValue(elem)
			if err != nil {
				return nil, err
			}
			buf.Write(eb)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return json.Marshal(v)
	}
}

// Prune deletes the bitcode files of cache entries beyond maxBytes
// total or maxAgeSeconds old, oldest (by AccessedAt) first, and
// removes them from the manifest. It marks the manifest dirty if
// anything was removed; callers still must call Save.
func (m *Manifest) Prune(maxBytes int64, maxAgeSeconds int64, now int64) []string {
	type keyed struct {
		key string
		e   Entry
	}
	all := make([]keyed, 0, len(m.Entries))
	for k, e := range m.Entries {
		all = append(all, keyed{k, e})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].e.AccessedAt < all[j].e.AccessedAt })

	var removed []string
	var total int64
	for _, e := range all {
		total += e.e.SizeBytes
	}

	for _, kv := range all {
		tooOld := maxAgeSeconds > 0 && now-kv.e.AccessedAt > maxAgeSeconds
		tooBig := maxBytes > 0 && total > maxBytes
		if !tooOld && !tooBig {
			continue
		}
		if kv.e.LLVMBitcodePath != "" {
			_ = os.Remove(kv.e.LLVMBitcodePath)
		}
		delete(m.Entries, kv.key)
		total -= kv.e.SizeBytes
		removed = append(removed, kv.key)
		m.dirty = true
	}
	return removed
}

// Clear removes every entry and its bitcode file, and the manifest
// file itself (used by --clear-cache).
func (m *Manifest) Clear() error {
	for _, e := range m.Entries {
		if e.LLVMBitcodePath != "" {
			_ = os.Remove(e.LLVMBitcodePath)
		}
	}
	m.Entries = map[string]Entry{}
	m.dirty = false
	return os.Remove(filepath.Join(m.dir, manifestPath))
}

// BitcodePath returns the path a new bitcode artifact for key should
// be written to inside the cache directory.
func (m *Manifest) BitcodePath(key string) string {
	return filepath.Join(m.dir, key+".bc")
}
