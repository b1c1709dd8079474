package project

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ptm/backend/internal/model"
	"ptm/backend/internal/storage"
)

type Options struct {
	SaveDelay time.Duration
	Now       func() time.Time
	Logger    *log.Logger
}

// Resolvers return the live tasks belonging to a project.
type Resolvers struct {
	TasksForProject func(projectID string) []model.Task
}

// Integrations are notified after the store's own state has been committed.
type Integrations struct {
	OnProjectDeleted func(projectID string)
}

type CreateInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

type UpdateInput struct {
	Name        model.Patch[string]  `json:"name"`
	Description model.Patch[*string] `json:"description"`
	Color       model.Patch[*string] `json:"color"`
}

type Stats struct {
	TotalTasks     int `json:"totalTasks"`
	CompletedTasks int `json:"completedTasks"`
}

type Store struct {
	mu       sync.RWMutex
	projects []model.Project

	hooksMu      sync.RWMutex
	resolvers    Resolvers
	integrations Integrations

	gateway  *storage.Gateway
	debounce *storage.Debouncer
	now      func() time.Time
	logger   *log.Logger
}

func NewStore(gateway *storage.Gateway, opts Options) *Store {
	s := &Store{
		projects: []model.Project{},
		resolvers: Resolvers{
			TasksForProject: func(string) []model.Task { return nil },
		},
		gateway:  gateway,
		debounce: storage.NewDebouncer(opts.SaveDelay),
		now:      opts.Now,
		logger:   opts.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

func (s *Store) SetResolvers(r Resolvers) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	if r.TasksForProject != nil {
		s.resolvers.TasksForProject = r.TasksForProject
	}
}

func (s *Store) SetIntegrations(i Integrations) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	if i.OnProjectDeleted != nil {
		s.integrations.OnProjectDeleted = i.OnProjectDeleted
	}
}

func (s *Store) Load() {
	s.mu.Lock()
	s.loadLocked()
	s.mu.Unlock()
}

// loadLocked discards any pending save before swapping in the stored
// collection, so an older snapshot cannot overwrite it later.
func (s *Store) loadLocked() {
	s.debounce.Stop()
	projects, skipped, err := storage.LoadRecords[model.Project](s.gateway, storage.KeyProjects)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Printf("project store: load failed: %v", err)
	}
	if skipped > 0 {
		s.logger.Printf("project store: skipped %d unreadable records", skipped)
	}
	s.projects = projects
}

// Replace runs write with mutations blocked, then reloads from storage. Pending
// changes are flushed before write runs. On error nothing is reloaded.
func (s *Store) Replace(write func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debounce.Flush()
	if err := write(); err != nil {
		return err
	}
	s.loadLocked()
	return nil
}

func (s *Store) Flush() {
	s.debounce.Flush()
}

func (s *Store) Close() {
	s.debounce.Flush()
}

func (s *Store) commitLocked(projects []model.Project) {
	s.projects = projects
	s.debounce.Schedule(func() {
		if err := s.gateway.Save(storage.KeyProjects, projects); err != nil {
			s.logger.Printf("project store: save failed: %v", err)
		}
	})
}

func (s *Store) List() []model.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Project, len(s.projects))
	for i := range s.projects {
		out[i] = cloneProject(s.projects[i])
	}
	return out
}

func (s *Store) Get(id string) (model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return model.Project{}, fmt.Errorf("project %s: %w", id, model.ErrNotFound)
	}
	return cloneProject(s.projects[i]), nil
}

// NameByID backs the task search resolver.
func (s *Store) NameByID(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return "", false
	}
	return s.projects[i].Name, true
}

func (s *Store) indexLocked(id string) int {
	for i := range s.projects {
		if s.projects[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) Create(input CreateInput) (model.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return model.Project{}, model.ErrNameRequired
	}
	if !model.IsValidHexColor(input.Color) {
		return model.Project{}, model.ErrInvalidColor
	}

	now := model.NewTimestamp(s.now())
	created := cloneProject(model.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: input.Description,
		Color:       input.Color,
		CreatedAt:   now,
		UpdatedAt:   now,
	})

	s.mu.Lock()
	next := make([]model.Project, 0, len(s.projects)+1)
	next = append(next, created)
	next = append(next, s.projects...)
	s.commitLocked(next)
	s.mu.Unlock()

	return cloneProject(created), nil
}

func (s *Store) Update(id string, input UpdateInput) (model.Project, error) {
	if input.Name.Present && strings.TrimSpace(input.Name.Value) == "" {
		return model.Project{}, model.ErrNameRequired
	}
	if input.Color.Present && !model.IsValidHexColor(input.Color.Value) {
		return model.Project{}, model.ErrInvalidColor
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Project{}, fmt.Errorf("project %s: %w", id, model.ErrNotFound)
	}

	updated := cloneProject(s.projects[i])
	if input.Name.Present {
		updated.Name = strings.TrimSpace(input.Name.Value)
	}
	if input.Description.Present {
		updated.Description = clonePtr(input.Description.Value)
	}
	if input.Color.Present {
		updated.Color = clonePtr(input.Color.Value)
	}
	updated.UpdatedAt = model.NewTimestamp(s.now())

	next := make([]model.Project, len(s.projects))
	copy(next, s.projects)
	next[i] = updated
	s.commitLocked(next)
	return cloneProject(updated), nil
}

// Delete removes the project and then notifies OnProjectDeleted.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("project %s: %w", id, model.ErrNotFound)
	}
	next := make([]model.Project, 0, len(s.projects)-1)
	next = append(next, s.projects[:i]...)
	next = append(next, s.projects[i+1:]...)
	s.commitLocked(next)
	s.mu.Unlock()

	s.hooksMu.RLock()
	onDeleted := s.integrations.OnProjectDeleted
	s.hooksMu.RUnlock()
	if onDeleted != nil {
		onDeleted(id)
	}
	return nil
}

// Stats counts the project's tasks through the configured resolver.
func (s *Store) Stats(id string) Stats {
	s.hooksMu.RLock()
	resolve := s.resolvers.TasksForProject
	s.hooksMu.RUnlock()

	tasks := resolve(id)
	stats := Stats{TotalTasks: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			stats.CompletedTasks++
		}
	}
	return stats
}

func cloneProject(p model.Project) model.Project {
	p.Description = clonePtr(p.Description)
	p.Color = clonePtr(p.Color)
	return p
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
