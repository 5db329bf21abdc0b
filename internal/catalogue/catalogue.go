// Package catalogue persists the bank of read descriptions: one record per
// document the user added, carrying its source locator and saved completion.
package catalogue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/loader"
)

// Desc describes one document. Completion is the only field the reading
// core writes back; everything else is set when the document is added.
type Desc struct {
	Name         string      `json:"name"`
	Kind         loader.Kind `json:"kind"`
	Source       string      `json:"source"`
	Thumbnail    string      `json:"thumbnail,omitempty"`
	Completion   float64     `json:"completion"`
	CreatedAt    time.Time   `json:"created_at"`
	LastAccessed time.Time   `json:"last_accessed"`
}

// Store is a thread-safe catalogue backed by a single JSON file. Writes go
// through a temp-file rename so a crash never leaves a torn catalogue.
type Store struct {
	mu    sync.Mutex
	path  string
	descs map[string]Desc
}

// Open loads the catalogue at path, creating an empty one if the file does
// not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path:  path,
		descs: make(map[string]Desc),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalogue: %w", err)
	}

	var descs []Desc
	if err := json.Unmarshal(data, &descs); err != nil {
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}
	for _, d := range descs {
		s.descs[d.Name] = d
	}
	return s, nil
}

// Get returns the description for a document name.
func (s *Store) Get(name string) (Desc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.descs[name]
	return d, ok
}

// Put stores or replaces a description and persists the catalogue.
func (s *Store) Put(d Desc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descs[d.Name] = d
	return s.persistLocked()
}

// Delete removes a description. Deleting an unknown name is an error.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.descs[name]; !ok {
		return fmt.Errorf("unknown document: %s", name)
	}
	delete(s.descs, name)
	return s.persistLocked()
}

// List returns all descriptions, most recently accessed first.
func (s *Store) List() []Desc {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Desc, 0, len(s.descs))
	for _, d := range s.descs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastAccessed.Equal(out[j].LastAccessed) {
			return out[i].LastAccessed.After(out[j].LastAccessed)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// UpdateProgress is the read-modify-write performed at the end of a reading
// session: it overwrites the stored completion and bumps the last-accessed
// timestamp.
func (s *Store) UpdateProgress(name string, completion float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.descs[name]
	if !ok {
		return fmt.Errorf("unknown document: %s", name)
	}
	d.Completion = completion
	d.LastAccessed = time.Now()
	s.descs[name] = d
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	descs := make([]Desc, 0, len(s.descs))
	for _, d := range s.descs {
		descs = append(descs, d)
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })

	data, err := json.MarshalIndent(descs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalogue: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create catalogue dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write catalogue: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace catalogue: %w", err)
	}
	return nil
}
