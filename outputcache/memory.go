package outputcache

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saiset-co/sai-storecache/types"
)

type entry struct {
	key      string
	path     string
	tags     []string
	storedAt time.Time
}

// Memory is the in-process rendering-cache hook used by tests and
// single-node deployments. Rendered entries register under tags and a
// path; invalidating a label drops every entry registered under it,
// independent of the key-value store.
type Memory struct {
	logger  types.Logger
	mu      sync.RWMutex
	entries map[string]*entry
	byTag   map[string]map[string]struct{}
	byPath  map[string]map[string]struct{}
}

func NewMemory(logger types.Logger) *Memory {
	return &Memory{
		logger:  logger,
		entries: make(map[string]*entry),
		byTag:   make(map[string]map[string]struct{}),
		byPath:  make(map[string]map[string]struct{}),
	}
}

// Register records a rendered entry under its path and tags. Re-registering
// an existing key replaces its previous label set.
func (m *Memory) Register(key, path string, tags ...string) {
	if key == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, exists := m.entries[key]; exists {
		m.dropLocked(old)
	}

	e := &entry{
		key:      key,
		path:     path,
		tags:     tags,
		storedAt: time.Now(),
	}
	m.entries[key] = e

	for _, tag := range tags {
		if m.byTag[tag] == nil {
			m.byTag[tag] = make(map[string]struct{})
		}
		m.byTag[tag][key] = struct{}{}
	}

	if path != "" {
		if m.byPath[path] == nil {
			m.byPath[path] = make(map[string]struct{})
		}
		m.byPath[path][key] = struct{}{}
	}
}

func (m *Memory) InvalidateByTag(tag string) {
	if tag == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	keys := m.byTag[tag]
	if len(keys) == 0 {
		return
	}

	for key := range keys {
		if e, exists := m.entries[key]; exists {
			m.dropLocked(e)
		}
	}

	if m.logger != nil {
		m.logger.Debug("output cache tag invalidated",
			zap.String("tag", tag),
			zap.Int("entries", len(keys)))
	}
}

// InvalidateByPath drops the exact path in page mode; layout mode also
// drops every nested route under it.
func (m *Memory) InvalidateByPath(path string, mode types.RevalidateMode) {
	if path == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0

	if keys := m.byPath[path]; len(keys) > 0 {
		for key := range keys {
			if e, exists := m.entries[key]; exists {
				m.dropLocked(e)
				dropped++
			}
		}
	}

	if mode == types.RevalidateLayout {
		prefix := strings.TrimSuffix(path, "/") + "/"
		for p, keys := range m.byPath {
			if !strings.HasPrefix(p, prefix) {
				continue
			}
			for key := range keys {
				if e, exists := m.entries[key]; exists {
					m.dropLocked(e)
					dropped++
				}
			}
		}
	}

	if m.logger != nil && dropped > 0 {
		m.logger.Debug("output cache path invalidated",
			zap.String("path", path),
			zap.String("mode", string(mode)),
			zap.Int("entries", dropped))
	}
}

func (m *Memory) Contains(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.entries[key]
	return exists
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

func (m *Memory) dropLocked(e *entry) {
	delete(m.entries, e.key)

	for _, tag := range e.tags {
		if keys := m.byTag[tag]; keys != nil {
			delete(keys, e.key)
			if len(keys) == 0 {
				delete(m.byTag, tag)
			}
		}
	}

	if e.path != "" {
		if keys := m.byPath[e.path]; keys != nil {
			delete(keys, e.key)
			if len(keys) == 0 {
				delete(m.byPath, e.path)
			}
		}
	}
}
