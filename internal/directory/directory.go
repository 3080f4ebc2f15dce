// Package directory keeps ordered, optimistically updated copies of remote
// collections such as users and projects.
package directory

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned for keys the directory does not hold.
var ErrNotFound = errors.New("not found")

// TempPrefix marks the key of an entry that has not been confirmed by the remote yet.
const TempPrefix = "tmp-"

// IsTemporary reports whether key belongs to an unconfirmed entry.
func IsTemporary(key string) bool {
	return strings.HasPrefix(key, TempPrefix)
}

// Entry is a directory item with its key.
type Entry[V any] struct {
	Key     string `json:"key"`
	Value   V      `json:"value"`
	Pending bool   `json:"pending"`
}

// Directory is an ordered keyed collection with staged changes.
type Directory[V any] struct {
	keyOf func(V) string

	mu      sync.RWMutex
	loaded  bool
	order   []string
	items   map[string]V
	pending map[string]bool
	latest  map[string]uint64
	issued  uint64
}

// New returns an empty, unloaded directory. keyOf derives the key of a confirmed value.
func New[V any](keyOf func(V) string) *Directory[V] {
	return &Directory[V]{
		keyOf:   keyOf,
		items:   make(map[string]V),
		pending: make(map[string]bool),
		latest:  make(map[string]uint64),
	}
}

// Load replaces the content with values, in order.
func (d *Directory[V]) Load(values []V) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.order = make([]string, 0, len(values))
	d.items = make(map[string]V, len(values))
	d.pending = make(map[string]bool)
	d.latest = make(map[string]uint64)
	for _, v := range values {
		k := d.keyOf(v)
		if _, dup := d.items[k]; !dup {
			d.order = append(d.order, k)
		}
		d.items[k] = v
	}
	d.loaded = true
}

// Loaded reports whether Load has been called since the last Reset.
func (d *Directory[V]) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

// Reset empties the directory so the next read loads it again.
func (d *Directory[V]) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = false
	d.order = nil
	d.items = make(map[string]V)
	d.pending = make(map[string]bool)
	d.latest = make(map[string]uint64)
}

// List returns the values in order, unconfirmed ones included.
func (d *Directory[V]) List() []V {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]V, 0, len(d.order))
	for _, k := range d.order {
		out = append(out, d.items[k])
	}
	return out
}

// Entries returns the entries in order.
func (d *Directory[V]) Entries() []Entry[V] {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Entry[V], 0, len(d.order))
	for _, k := range d.order {
		out = append(out, Entry[V]{Key: k, Value: d.items[k], Pending: d.pending[k]})
	}
	return out
}

// Get returns the value stored under key.
func (d *Directory[V]) Get(key string) (V, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.items[key]
	return v, ok
}

// Len returns the number of entries.
func (d *Directory[V]) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.order)
}

type stageKind int

const (
	stageInsert stageKind = iota
	stageReplace
	stageRemove
)

// Staged is a change applied to the directory and awaiting the remote's answer.
type Staged[V any] struct {
	d      *Directory[V]
	kind   stageKind
	key    string
	seq    uint64
	revert func()
}

// Key is the key the change was applied under. Inserts get a temporary key.
func (s Staged[V]) Key() string { return s.key }

// Commit settles the change with the remote's copy of the value. An insert is
// re-keyed from its temporary key to the confirmed one. A replace stores v
// unless the entry has been changed again in the meantime.
func (s Staged[V]) Commit(v V) {
	d := s.d
	d.mu.Lock()
	defer d.mu.Unlock()
	current := d.settle(s)

	switch s.kind {
	case stageInsert:
		i := indexOf(d.order, s.key)
		if i < 0 {
			return
		}
		k := d.keyOf(v)
		delete(d.items, s.key)
		delete(d.pending, s.key)
		if _, exists := d.items[k]; exists {
			d.order = append(d.order[:i:i], d.order[i+1:]...)
		} else {
			d.order[i] = k
		}
		d.items[k] = v
	case stageReplace:
		if _, ok := d.items[s.key]; ok && current {
			d.items[s.key] = v
		}
	}
}

// Rollback undoes the change unless the entry has been changed again since.
// It reports whether anything was undone.
func (s Staged[V]) Rollback() bool {
	d := s.d
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.settle(s) {
		return false
	}
	s.revert()
	return true
}

// settle clears the issuance record of s and reports whether s was the latest
// change for its key. Callers hold the lock.
func (d *Directory[V]) settle(s Staged[V]) bool {
	if d.latest[s.key] != s.seq {
		return false
	}
	delete(d.latest, s.key)
	return true
}

func (d *Directory[V]) issue(key string) uint64 {
	d.issued++
	d.latest[key] = d.issued
	return d.issued
}

// StageInsert appends v under a temporary key.
func (d *Directory[V]) StageInsert(v V) Staged[V] {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := TempPrefix + uuid.NewString()
	d.order = append(d.order, key)
	d.items[key] = v
	d.pending[key] = true
	return Staged[V]{
		d:    d,
		kind: stageInsert,
		key:  key,
		seq:  d.issue(key),
		revert: func() {
			if i := indexOf(d.order, key); i >= 0 {
				d.order = append(d.order[:i:i], d.order[i+1:]...)
			}
			delete(d.items, key)
			delete(d.pending, key)
		},
	}
}

// StageReplace stores v under an existing key.
func (d *Directory[V]) StageReplace(key string, v V) (Staged[V], error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev, ok := d.items[key]
	if !ok {
		return Staged[V]{}, ErrNotFound
	}
	d.items[key] = v
	return Staged[V]{
		d:    d,
		kind: stageReplace,
		key:  key,
		seq:  d.issue(key),
		revert: func() {
			if _, ok := d.items[key]; ok {
				d.items[key] = prev
			}
		},
	}, nil
}

// StageRemove deletes key, remembering its place for a rollback.
func (d *Directory[V]) StageRemove(key string) (Staged[V], error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev, ok := d.items[key]
	if !ok {
		return Staged[V]{}, ErrNotFound
	}
	index := indexOf(d.order, key)
	d.order = append(d.order[:index:index], d.order[index+1:]...)
	delete(d.items, key)
	wasPending := d.pending[key]
	delete(d.pending, key)
	return Staged[V]{
		d:    d,
		kind: stageRemove,
		key:  key,
		seq:  d.issue(key),
		revert: func() {
			if _, taken := d.items[key]; taken {
				return
			}
			if index > len(d.order) {
				index = len(d.order)
			}
			d.order = append(d.order[:index:index], append([]string{key}, d.order[index:]...)...)
			d.items[key] = prev
			if wasPending {
				d.pending[key] = true
			}
		},
	}, nil
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}
