package core

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// projectMarkers identify the root of a JavaScript project.
var projectMarkers = []string{"package.json", ".git"}

// Project is a directory tree linted with one config.
type Project struct {
	root   string
	config *Config
}

func getAbsolutePath(path string) string {
	if p, err := filepath.Abs(path); err == nil {
		path = p
	}
	return path
}

// locateProject walks up from path to the nearest directory holding a
// config file or a project marker. It returns nil when there is none.
func locateProject(path string) (*Project, error) {
	dir := getAbsolutePath(path)
	if s, err := os.Stat(dir); err == nil && !s.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		for _, name := range append(append([]string{}, ConfigFileNames...), projectMarkers...) {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return NewProject(dir)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// NewProject creates a project rooted at root and loads its config.
func NewProject(root string) (*Project, error) {
	c, err := loadRepoConfig(root)
	if err != nil {
		return nil, err
	}
	return &Project{root: root, config: c}, nil
}

// RootDirectory returns the project root.
func (project *Project) RootDirectory() string {
	return project.root
}

// IsKnown reports whether path lies inside the project.
func (project *Project) IsKnown(path string) bool {
	p := getAbsolutePath(path)
	return p == project.root || strings.HasPrefix(p, project.root+string(filepath.Separator))
}

// ProjectConfig returns the project config, or nil.
func (project *Project) ProjectConfig() *Config {
	return project.config
}

// RelativePath returns path relative to the project root, slash separated.
func (project *Project) RelativePath(path string) string {
	if rel, err := filepath.Rel(project.root, getAbsolutePath(path)); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

// Projects caches the projects found so far.
type Projects struct {
	mu    sync.Mutex
	known []*Project
}

// NewProjects creates an empty cache.
func NewProjects() *Projects {
	return &Projects{}
}

// GetProjectForPath returns the project path belongs to, or nil.
func (projects *Projects) GetProjectForPath(path string) (*Project, error) {
	projects.mu.Lock()
	defer projects.mu.Unlock()
	for _, p := range projects.known {
		if p.IsKnown(path) {
			return p, nil
		}
	}
	pro, err := locateProject(path)
	if err != nil || pro == nil {
		return nil, err
	}
	projects.known = append(projects.known, pro)
	return pro, nil
}
