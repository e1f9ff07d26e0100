// Package knowledge serves the biography, contact links and project list
// that ground every chat answer.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"portfolio-backend/internal/models"
)

// Source loads the raw knowledge content. It is called only on cache fills.
type Source interface {
	LoadAbout(ctx context.Context) (about string, links map[string]string, err error)
	LoadProjects(ctx context.Context) ([]models.Project, error)
}

// FileSource reads about.md, links.json and projects.json from Dir.
type FileSource struct {
	Dir string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{Dir: dir}
}

func (s *FileSource) LoadAbout(ctx context.Context) (string, map[string]string, error) {
	about, err := os.ReadFile(filepath.Join(s.Dir, "about.md"))
	if err != nil {
		return "", nil, fmt.Errorf("failed to read about.md: %w", err)
	}

	raw, err := os.ReadFile(filepath.Join(s.Dir, "links.json"))
	if err != nil {
		return "", nil, fmt.Errorf("failed to read links.json: %w", err)
	}
	var links map[string]string
	if err := json.Unmarshal(raw, &links); err != nil {
		return "", nil, fmt.Errorf("failed to parse links.json: %w", err)
	}

	return string(about), links, nil
}

func (s *FileSource) LoadProjects(ctx context.Context) ([]models.Project, error) {
	raw, err := os.ReadFile(filepath.Join(s.Dir, "projects.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read projects.json: %w", err)
	}
	var projects []models.Project
	if err := json.Unmarshal(raw, &projects); err != nil {
		return nil, fmt.Errorf("failed to parse projects.json: %w", err)
	}
	return projects, nil
}
