package records

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starford/herald/internal/apperr"
	"github.com/starford/herald/internal/checksum"
	"github.com/starford/herald/internal/models"
	"github.com/starford/herald/internal/parser"
	"github.com/starford/herald/internal/storage"
)

// nameIndex maps references to note paths. byPath is keyed by the lowercase
// path without extension, byName by the normalized basename.
type nameIndex struct {
	byPath map[string]string
	byName map[string]string
}

// Vault is a Source backed by a storage.Provider. Parsed notes are cached by
// path and reused while their checksum is unchanged.
type Vault struct {
	store  storage.Provider
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*models.Record

	names atomic.Pointer[nameIndex] // nil when stale
}

var _ Source = (*Vault)(nil)

// NewVault creates a record source over store.
func NewVault(store storage.Provider, logger *slog.Logger) *Vault {
	if logger == nil {
		logger = slog.Default()
	}
	return &Vault{
		store:  store,
		logger: logger,
		cache:  make(map[string]*models.Record),
	}
}

// List returns handles under filter.Folder whose tags include filter.Tag.
// A folder that does not exist yields an empty listing.
func (v *Vault) List(filter Filter) ([]models.RecordHandle, error) {
	handles, err := v.store.List(strings.Trim(filter.Folder, "/"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("records: list: %w", err)
	}
	if filter.Tag == "" {
		return handles, nil
	}

	out := handles[:0]
	for _, h := range handles {
		rec, err := v.Read(h.Path)
		if err != nil {
			v.logger.Debug("records: skip unreadable", slog.String("path", h.Path), slog.String("error", err.Error()))
			continue
		}
		if filter.matchTag(rec.Tags) {
			out = append(out, h)
		}
	}
	return out, nil
}

// Read parses the note at notePath, serving the cached record when the
// content has not changed.
func (v *Vault) Read(notePath string) (*models.Record, error) {
	data, err := v.store.Read(notePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("records: read %s: %w", notePath, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("records: read %s: %w", notePath, err)
	}

	v.mu.RLock()
	cached, ok := v.cache[notePath]
	v.mu.RUnlock()
	if ok && checksum.Matches(data, cached.Checksum) {
		return cached, nil
	}

	res := parser.Parse(notePath, data)
	rec := &models.Record{
		Path:     notePath,
		Title:    res.Title,
		Tags:     res.Tags,
		Metadata: models.Metadata(res.Frontmatter),
		Checksum: checksum.Sum(data),
		ReadAt:   time.Now(),
	}

	v.mu.Lock()
	v.cache[notePath] = rec
	v.mu.Unlock()
	return rec, nil
}

// Locate resolves ref to a note path: first as a vault-relative path, then by
// basename. When several notes share a basename the lexically first path wins.
func (v *Vault) Locate(ref string) (string, bool) {
	target := parser.LinkTarget(ref)
	if target == "" {
		return "", false
	}
	idx := v.index()
	if p, ok := idx.byPath[pathKey(target)]; ok {
		return p, true
	}
	p, ok := idx.byName[parser.Normalize(target)]
	return p, ok
}

// Invalidate drops the cached record for notePath and marks the name index
// stale. Called when the watcher reports a change.
func (v *Vault) Invalidate(notePath string) {
	v.mu.Lock()
	delete(v.cache, notePath)
	v.mu.Unlock()
	v.names.Store(nil)
}

// Reset drops every cached record and the name index.
func (v *Vault) Reset() {
	v.mu.Lock()
	v.cache = make(map[string]*models.Record)
	v.mu.Unlock()
	v.names.Store(nil)
}

func (v *Vault) index() *nameIndex {
	if idx := v.names.Load(); idx != nil {
		return idx
	}

	idx := &nameIndex{byPath: map[string]string{}, byName: map[string]string{}}
	handles, err := v.store.List("")
	if err != nil {
		v.logger.Warn("records: build name index failed", slog.String("error", err.Error()))
		return idx
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i].Path < handles[j].Path })
	for _, h := range handles {
		idx.byPath[pathKey(h.Path)] = h.Path
		key := parser.Normalize(h.Path)
		if _, dup := idx.byName[key]; !dup {
			idx.byName[key] = h.Path
		}
	}
	v.names.Store(idx)
	return idx
}

func pathKey(p string) string {
	p = strings.Trim(strings.ReplaceAll(p, "\\", "/"), "/")
	if strings.HasSuffix(strings.ToLower(p), ".md") {
		p = p[:len(p)-3]
	}
	return strings.ToLower(p)
}
