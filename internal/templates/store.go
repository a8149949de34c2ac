package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store loads templates from user-editable files on disk, falling back
// to embedded defaults.
//
// The store uses lazy initialisation - files are only created when
// first accessed, not in the constructor.
type Store struct {
	mu          sync.RWMutex
	templateDir string
	cache       map[string]string
	initOnce    sync.Once
	initErr     error
}

// defaultTemplates contains the embedded defaults, used when user
// files don't exist and as the initial content for new files.
var defaultTemplates = map[string]string{
	TemplateDocPage: `# {{service_name}}

{{summary}}

Last generated from {{source_identifier}} on {{date}}.
Files changed: {{files_changed}} (+{{additions}} / -{{deletions}})`,

	TemplateChangelog: `## {{date}} - {{source_identifier}}

{{summary}}

{{files_changed}} files changed, +{{additions}} -{{deletions}}`,
}

// NewStore creates a file-based template store.
// If templateDir is empty, defaults to ~/.docfold/templates/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewStore(templateDir string) (*Store, error) {
	if templateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		templateDir = filepath.Join(home, ".docfold", "templates")
	}

	return &Store{
		templateDir: templateDir,
		cache:       make(map[string]string),
	}, nil
}

// Load returns the template body for the given name. User files win
// over embedded defaults; an invalid user template is rejected rather
// than silently substituted.
func (s *Store) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if body, ok := defaultTemplates[name]; ok {
			return body, nil
		}
		return "", fmt.Errorf("template store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if body, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return body, nil
	}
	s.mu.RUnlock()

	body, err := s.loadFromFile(name)
	if err != nil {
		if fallback, ok := defaultTemplates[name]; ok {
			return fallback, nil
		}
		return "", fmt.Errorf("load template %q: %w", name, err)
	}

	if err := Validate(body); err != nil {
		return "", fmt.Errorf("template %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		body = cached
	} else {
		s.cache[name] = body
	}
	s.mu.Unlock()

	return body, nil
}

// Render loads the named template and substitutes vars into it.
func (s *Store) Render(name string, vars Vars) (string, error) {
	body, err := s.Load(name)
	if err != nil {
		return "", err
	}
	return Render(body, vars)
}

// Reload clears the cache, forcing fresh loads from disk.
func (s *Store) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the template directory path.
func (s *Store) Dir() string {
	return s.templateDir
}

// initialise creates the template directory and default files.
// Called once via sync.Once on first Load().
func (s *Store) initialise() {
	if err := os.MkdirAll(s.templateDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create template directory: %w", err)
		return
	}

	for name, content := range defaultTemplates {
		path := filepath.Join(s.templateDir, name+".md")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default template %q: %w", name, err)
				return
			}
		}
	}
}

// loadFromFile reads a template from disk.
func (s *Store) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.templateDir, name+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
