// Package storage provides file-backed persistence for novel projects
// and chat transcripts.
//
// Each project is a directory under the store root:
//
//	<root>/<projectID>/project.json      project metadata
//	<root>/<projectID>/world.json        worldbuilding document
//	<root>/<projectID>/characters.json   character roster
//	<root>/<projectID>/outline.json      outline tree
//	<root>/<projectID>/progress.json     writing progress cursor
//	<root>/<projectID>/chapters/<id>.md  chapter drafts
//
// Documents are written atomically (temp file + rename) so a crash
// mid-write never leaves a half-written JSON document behind.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates the requested project, document, or chapter
// does not exist.
var ErrNotFound = errors.New("storage: not found")

// Well-known document names within a project directory.
const (
	DocWorld      = "world"
	DocCharacters = "characters"
	DocOutline    = "outline"
	DocProgress   = "progress"
)

// Project is the metadata record for a novel project.
type Project struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists project documents under a root directory.
//
// Store is safe for concurrent use by multiple goroutines as long as
// different goroutines touch different documents; concurrent writers of
// the same document last-write-wins, which matches the single-writer
// workflow that owns each thread.
type Store struct {
	root string
}

// NewStore creates a project store rooted at dir, creating the
// directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("storage: root directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// CreateProject allocates a new project directory and writes its
// metadata record. The project ID is a fresh UUID.
func (s *Store) CreateProject(title string) (Project, error) {
	now := time.Now().UTC()
	p := Project{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	dir := filepath.Join(s.root, p.ID)
	if err := os.MkdirAll(filepath.Join(dir, "chapters"), 0o755); err != nil {
		return Project{}, fmt.Errorf("storage: create project dir: %w", err)
	}
	if err := s.writeJSON(filepath.Join(dir, "project.json"), p); err != nil {
		return Project{}, err
	}
	return p, nil
}

// LoadProject reads a project's metadata record.
// Returns ErrNotFound if the project does not exist.
func (s *Store) LoadProject(projectID string) (Project, error) {
	var p Project
	if err := s.readJSON(filepath.Join(s.root, projectID, "project.json"), &p); err != nil {
		return Project{}, err
	}
	return p, nil
}

// SaveDoc writes a named JSON document into the project directory.
// The write is atomic: a temp file is written and renamed over the target.
func (s *Store) SaveDoc(projectID, name string, v interface{}) error {
	dir := filepath.Join(s.root, projectID)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: project %s", ErrNotFound, projectID)
		}
		return fmt.Errorf("storage: stat project: %w", err)
	}

	if err := s.writeJSON(filepath.Join(dir, name+".json"), v); err != nil {
		return err
	}
	return s.touch(projectID)
}

// LoadDoc reads a named JSON document from the project directory into v.
// Returns ErrNotFound if the document has never been written.
func (s *Store) LoadDoc(projectID, name string, v interface{}) error {
	return s.readJSON(filepath.Join(s.root, projectID, name+".json"), v)
}

// SaveChapter writes a chapter draft as markdown.
func (s *Store) SaveChapter(projectID, chapterID, text string) error {
	dir := filepath.Join(s.root, projectID, "chapters")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: create chapters dir: %w", err)
	}

	path := filepath.Join(dir, chapterID+".md")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), 0o644); err != nil {
		return fmt.Errorf("storage: write chapter: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("storage: rename chapter: %w", err)
	}
	return s.touch(projectID)
}

// LoadChapter reads a chapter draft.
// Returns ErrNotFound if the chapter has never been saved.
func (s *Store) LoadChapter(projectID, chapterID string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, projectID, "chapters", chapterID+".md"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: chapter %s", ErrNotFound, chapterID)
		}
		return "", fmt.Errorf("storage: read chapter: %w", err)
	}
	return string(data), nil
}

// touch bumps the project's UpdatedAt timestamp. Best effort: a missing
// metadata record is not an error here.
func (s *Store) touch(projectID string) error {
	path := filepath.Join(s.root, projectID, "project.json")
	var p Project
	if err := s.readJSON(path, &p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	return s.writeJSON(path, p)
}

func (s *Store) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: marshal %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("storage: write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("storage: rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Store) readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
		}
		return fmt.Errorf("storage: read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage: decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
