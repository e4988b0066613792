// Package template manages workflow templates and their node editor.
package template

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/garyjia/signage-ops/internal/domain/entity"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Templates []entity.WorkflowTemplate `yaml:"templates"`
}

// ParseSeed decodes a YAML template seed set
func ParseSeed(data []byte) ([]entity.WorkflowTemplate, error) {
	var seed seedFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("failed to parse template seed: %w", err)
	}
	for _, t := range seed.Templates {
		if err := validateTemplate(t); err != nil {
			return nil, err
		}
	}
	return seed.Templates, nil
}

// LoadSeed reads the seed set from path, or the built-in set when path is empty
func LoadSeed(path string) ([]entity.WorkflowTemplate, error) {
	if path == "" {
		return ParseSeed(defaultSeed)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template seed %s: %w", path, err)
	}
	return ParseSeed(data)
}

// Store holds workflow templates in memory. Templates are never deleted.
type Store struct {
	mu        sync.RWMutex
	templates map[string]entity.WorkflowTemplate
	logger    *zap.Logger
}

// NewStore creates an empty template store
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		templates: make(map[string]entity.WorkflowTemplate),
		logger:    logger,
	}
}

// Seed loads the initial template set, replacing templates with the same id
func (s *Store) Seed(templates []entity.WorkflowTemplate) error {
	for _, t := range templates {
		if err := validateTemplate(t); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range templates {
		s.templates[t.ID] = t.Clone()
	}
	s.logger.Info("Workflow templates seeded", zap.Int("count", len(templates)))
	return nil
}

// Get returns a copy of the template
func (s *Store) Get(id string) (entity.WorkflowTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.templates[id]
	if !ok {
		return entity.WorkflowTemplate{}, fmt.Errorf("%w: %s", entity.ErrTemplateNotFound, id)
	}
	return t.Clone(), nil
}

// Exists reports whether a template with the given id is stored
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.templates[id]
	return ok
}

// List returns all templates ordered by id
func (s *Store) List() []entity.WorkflowTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]entity.WorkflowTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		result = append(result, t.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Save creates or replaces a template
func (s *Store) Save(t entity.WorkflowTemplate) error {
	if err := validateTemplate(t); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = t.Clone()
	return nil
}

// Update applies fn to a copy of the template and stores the result.
// Nothing is stored when fn fails.
func (s *Store) Update(id string, fn func(*entity.WorkflowTemplate) error) (entity.WorkflowTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.templates[id]
	if !ok {
		return entity.WorkflowTemplate{}, fmt.Errorf("%w: %s", entity.ErrTemplateNotFound, id)
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return entity.WorkflowTemplate{}, err
	}
	next.ID = id
	s.templates[id] = next
	return next.Clone(), nil
}

func validateTemplate(t entity.WorkflowTemplate) error {
	if t.ID == "" || t.Name == "" {
		return entity.Validationf("template requires id and name")
	}
	seen := make(map[string]bool, len(t.Nodes))
	for _, n := range t.Nodes {
		if err := validateNode(n); err != nil {
			return fmt.Errorf("template %s: %w", t.ID, err)
		}
		if seen[n.ID] {
			return entity.Validationf("template %s has duplicate node id %s", t.ID, n.ID)
		}
		seen[n.ID] = true
	}
	return nil
}

func validateNode(n entity.WorkflowNode) error {
	if n.ID == "" {
		return entity.Validationf("node id is required")
	}
	if !n.Role.IsValid() {
		return entity.Validationf("node %s has unknown role %q", n.ID, n.Role)
	}
	if n.Mode != "" && !n.Mode.IsValid() {
		return entity.Validationf("node %s has unknown mode %q", n.ID, n.Mode)
	}
	if n.Role == entity.NodeRoleApprover && len(n.Assignees) == 0 {
		return entity.Validationf("approver node %s needs at least one assignee", n.ID)
	}
	return nil
}
