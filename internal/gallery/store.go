package gallery

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// imageExtensions lists the reference image formats the scanner accepts.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// Store is the on-disk gallery: one directory per person containing their
// reference images, plus a profiles.json with announcement metadata.
type Store struct {
	path         string
	profilesPath string

	mu       sync.RWMutex
	profiles map[string]Profile
	images   map[string][]string // person id -> image paths
}

// NewStore creates a store over a gallery directory. Call Refresh to load.
func NewStore(path, profilesPath string) *Store {
	if profilesPath == "" {
		profilesPath = filepath.Join(path, "profiles.json")
	}
	return &Store{
		path:         path,
		profilesPath: profilesPath,
		profiles:     make(map[string]Profile),
		images:       make(map[string][]string),
	}
}

// Refresh rescans the gallery directory and reloads profiles from disk.
func (s *Store) Refresh() error {
	entries, err := os.ReadDir(s.path)
	if err != nil {
		return fmt.Errorf("could not read gallery directory %s: %w", s.path, err)
	}

	images := make(map[string][]string)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		personID := entry.Name()

		personDir := filepath.Join(s.path, personID)
		files, err := os.ReadDir(personDir)
		if err != nil {
			log.Printf("gallery: skipping %s: %v", personDir, err)
			continue
		}

		var paths []string
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			if imageExtensions[strings.ToLower(filepath.Ext(f.Name()))] {
				paths = append(paths, filepath.Join(personDir, f.Name()))
			}
		}
		sort.Strings(paths)
		images[personID] = paths
	}

	profiles, err := s.loadProfiles()
	if err != nil {
		return err
	}

	// Persons present on disk but missing from profiles.json still get a
	// minimal profile so they can be announced.
	for personID := range images {
		if _, ok := profiles[personID]; !ok {
			profiles[personID] = Profile{ID: personID, Name: personID}
		}
	}

	s.mu.Lock()
	s.profiles = profiles
	s.images = images
	s.mu.Unlock()

	log.Printf("gallery: loaded %d persons from %s", len(images), s.path)
	return nil
}

// loadProfiles reads profiles.json. A missing file is not an error.
func (s *Store) loadProfiles() (map[string]Profile, error) {
	profiles := make(map[string]Profile)

	data, err := os.ReadFile(s.profilesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return profiles, nil
		}
		return nil, fmt.Errorf("could not read profiles %s: %w", s.profilesPath, err)
	}

	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("could not parse profiles %s: %w", s.profilesPath, err)
	}

	for id, p := range profiles {
		if p.ID == "" {
			p.ID = id
			profiles[id] = p
		}
	}
	return profiles, nil
}

// Profile returns the profile for a person id.
func (s *Store) Profile(personID string) (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[personID]
	return p, ok
}

// Profiles returns all profiles sorted by person id.
func (s *Store) Profiles() []Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make([]Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles
}

// Images returns the reference image paths for a person.
func (s *Store) Images(personID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.images[personID]...)
}

// PersonIDs returns the ids of all persons found on disk, sorted.
func (s *Store) PersonIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.images))
	for id := range s.images {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SaveProfile adds or updates a profile and persists profiles.json.
func (s *Store) SaveProfile(p Profile) error {
	if p.ID == "" {
		return fmt.Errorf("profile id must not be empty")
	}

	now := time.Now()
	s.mu.Lock()
	if existing, ok := s.profiles[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.profiles[p.ID] = p

	data, err := json.MarshalIndent(s.profiles, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("could not serialize profiles: %w", err)
	}

	if err := os.WriteFile(s.profilesPath, data, 0o644); err != nil {
		return fmt.Errorf("could not write profiles %s: %w", s.profilesPath, err)
	}
	return nil
}

// Stats summarizes the gallery contents.
type Stats struct {
	Persons     int            `json:"persons"`
	TotalImages int            `json:"total_images"`
	PerPerson   map[string]int `json:"images_per_person"`
}

// Stats returns a snapshot of gallery counts.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Persons:   len(s.images),
		PerPerson: make(map[string]int, len(s.images)),
	}
	for id, paths := range s.images {
		stats.PerPerson[id] = len(paths)
		stats.TotalImages += len(paths)
	}
	return stats
}
