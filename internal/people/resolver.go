package people

import (
	"log/slog"
	"sync"

	"github.com/starford/herald/internal/models"
	"github.com/starford/herald/internal/parser"
	"github.com/starford/herald/internal/records"
)

// Resolver reads and caches person preferences. One Resolver is owned by a
// host session; tests create their own.
type Resolver struct {
	src    records.Source
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]models.PersonPreferences
}

// NewResolver creates a resolver over src.
func NewResolver(src records.Source, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		src:    src,
		logger: logger,
		cache:  make(map[string]models.PersonPreferences),
	}
}

// Preferences returns the resolved preferences for the person ref points at.
// A person without a record gets the defaults.
func (r *Resolver) Preferences(personRef string) models.PersonPreferences {
	key := parser.Normalize(personRef)

	r.mu.RLock()
	p, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return clone(p)
	}

	p = r.load(personRef)

	r.mu.Lock()
	r.cache[key] = p
	r.mu.Unlock()
	return clone(p)
}

// Invalidate forgets the cached preferences of one person; the next read
// goes back to the record.
func (r *Resolver) Invalidate(personRef string) {
	key := parser.Normalize(personRef)
	r.mu.Lock()
	delete(r.cache, key)
	r.mu.Unlock()
}

// ClearCache forgets every cached person.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	r.cache = make(map[string]models.PersonPreferences)
	r.mu.Unlock()
}

func (r *Resolver) load(personRef string) models.PersonPreferences {
	path, ok := r.src.Locate(personRef)
	if !ok {
		r.logger.Debug("people: no record, using defaults", slog.String("person", personRef))
		return models.DefaultPersonPreferences()
	}
	rec, err := r.src.Read(path)
	if err != nil {
		r.logger.Debug("people: read failed, using defaults",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return models.DefaultPersonPreferences()
	}
	return ParsePreferences(rec.Metadata)
}

func clone(p models.PersonPreferences) models.PersonPreferences {
	p.ReminderLeadTimes = append(p.ReminderLeadTimes[:0:0], p.ReminderLeadTimes...)
	return p
}
