// Package store persists brand profiles and the analysis history in a single
// YAML file.
//
// Every mutation rewrites the whole file through a temporary file and a rename,
// so a crash never leaves a half-written store behind. A Store can watch its
// file and reload when another process (for example the CLI while the MCP
// server is running) changes it.
package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the store lives when no path is configured.
const DefaultPath = "~/.color-validator-mcp/store.yml"

var (
	// ErrNotFound is returned when a profile or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidProfile is returned when a profile fails validation.
	ErrInvalidProfile = errors.New("invalid profile")
)

type document struct {
	Profiles []BrandProfile   `yaml:"profiles"`
	History  []AnalysisRecord `yaml:"history"`
}

// Store is a file-backed collection of brand profiles and analysis records.
// It is safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	path string
	doc  document

	defaultTolerance float64

	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithDefaultTolerance sets the tolerance given to profiles saved without one.
// Values that are not positive keep DefaultTolerance.
func WithDefaultTolerance(tolerance float64) Option {
	return func(s *Store) {
		if tolerance > 0 {
			s.defaultTolerance = tolerance
		}
	}
}

// Open loads the store at path, expanding a leading "~". A missing file is not
// an error: the store starts empty and the file is created on the first write.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to expand %s", path)
	}

	s := &Store{
		path:             expanded,
		defaultTolerance: DefaultTolerance,
		now:              func() time.Time { return time.Now().UTC() },
		newID:            func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the expanded path of the backing file.
func (s *Store) Path() string {
	return s.path
}

// DefaultTolerance returns the tolerance given to profiles saved without one.
func (s *Store) DefaultTolerance() float64 {
	return s.defaultTolerance
}

// Reload re-reads the backing file, replacing the in-memory state.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.doc = document{}
			s.mu.Unlock()
			return nil
		}
		return errors.Wrapf(err, "unable to read %s", s.path)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.Wrapf(err, "unable to parse %s", s.path)
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

// save writes the document atomically. Callers must hold s.mu.
func (s *Store) save() error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&s.doc); err != nil {
		return errors.Wrap(err, "unable to encode store")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "unable to encode store")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "unable to create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return errors.Wrap(err, "unable to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "unable to write %s", tmp.Name())
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "unable to sync %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "unable to close %s", tmp.Name())
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrapf(err, "unable to replace %s", s.path)
	}
	return nil
}

// Watch reloads the store whenever its file is written by someone else, until
// ctx is done. onReload, if not nil, is called after each successful reload.
//
// The parent directory is watched rather than the file so that atomic
// replacements (rename over the old file) are seen.
func (s *Store) Watch(ctx context.Context, onReload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "unable to create watcher")
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "unable to create %s", dir)
	}
	if err := watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "unable to watch %s", dir)
	}

	log.Debug().Str("path", s.path).Msg("watching store")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			reloaded, err := s.handleEvent(event)
			if err != nil {
				log.Warn().Err(err).Str("path", s.path).Msg("unable to reload store")
				continue
			}
			if reloaded && onReload != nil {
				onReload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("store watcher error")
		}
	}
}

// handleEvent reloads the store if event changed its file. When the file is
// gone the in-memory state is kept, and the next write recreates the file
// from it.
func (s *Store) handleEvent(event fsnotify.Event) (bool, error) {
	if filepath.Clean(event.Name) != filepath.Clean(s.path) {
		return false, nil
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false, nil
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		log.Warn().Str("op", event.Op.String()).Str("path", s.path).Msg("store file is gone: keeping loaded state")
		return false, nil
	}
	if err := s.Reload(); err != nil {
		return false, err
	}
	log.Debug().Str("op", event.Op.String()).Msg("store reloaded")
	return true, nil
}

// sortByName orders profiles by name, ignoring case and accents.
func sortByName(profiles []BrandProfile) {
	c := collate.New(language.Und, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(profiles, func(i, j int) bool {
		if cmp := c.CompareString(profiles[i].Name, profiles[j].Name); cmp != 0 {
			return cmp < 0
		}
		return strings.Compare(profiles[i].ID, profiles[j].ID) < 0
	})
}
