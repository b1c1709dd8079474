package tag

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

type Resolvers struct {
	TasksWithTag func(tagID string) []model.Task
}

type Integrations struct {
	OnTagDeleted func(tagID string)
}

type CreateInput struct {
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

type UpdateInput struct {
	Name  model.Patch[string]  `json:"name"`
	Color model.Patch[*string] `json:"color"`
}

// Store owns the tag collection. Tag names are unique ignoring case and
// surrounding whitespace.
type Store struct {
	mu   sync.RWMutex
	tags []model.Tag

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
		tags: []model.Tag{},
		resolvers: Resolvers{
			TasksWithTag: func(string) []model.Task { return nil },
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
	if r.TasksWithTag != nil {
		s.resolvers.TasksWithTag = r.TasksWithTag
	}
}

func (s *Store) SetIntegrations(i Integrations) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	if i.OnTagDeleted != nil {
		s.integrations.OnTagDeleted = i.OnTagDeleted
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
	tags, skipped, err := storage.LoadRecords[model.Tag](s.gateway, storage.KeyTags)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Printf("tag store: load failed: %v", err)
	}
	if skipped > 0 {
		s.logger.Printf("tag store: skipped %d unreadable records", skipped)
	}
	s.tags = tags
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

func (s *Store) commitLocked(tags []model.Tag) {
	s.tags = tags
	s.debounce.Schedule(func() {
		if err := s.gateway.Save(storage.KeyTags, tags); err != nil {
			s.logger.Printf("tag store: save failed: %v", err)
		}
	})
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *Store) List() []model.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Tag, len(s.tags))
	for i := range s.tags {
		out[i] = cloneTag(s.tags[i])
	}
	return out
}

func (s *Store) Get(id string) (model.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return model.Tag{}, fmt.Errorf("tag %s: %w", id, model.ErrNotFound)
	}
	return cloneTag(s.tags[i]), nil
}

func (s *Store) NameByID(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return "", false
	}
	return s.tags[i].Name, true
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tags {
		if s.tags[i].ID == id {
			return i
		}
	}
	return -1
}

// findByNameLocked skips the tag with id exceptID.
func (s *Store) findByNameLocked(name, exceptID string) int {
	want := normalize(name)
	for i := range s.tags {
		if s.tags[i].ID != exceptID && normalize(s.tags[i].Name) == want {
			return i
		}
	}
	return -1
}

func (s *Store) Create(input CreateInput) (model.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(input)
}

func (s *Store) createLocked(input CreateInput) (model.Tag, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return model.Tag{}, model.ErrNameRequired
	}
	if !model.IsValidHexColor(input.Color) {
		return model.Tag{}, model.ErrInvalidColor
	}
	if s.findByNameLocked(name, "") >= 0 {
		return model.Tag{}, fmt.Errorf("tag %q: %w", name, model.ErrDuplicateName)
	}

	now := model.NewTimestamp(s.now())
	created := cloneTag(model.Tag{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     input.Color,
		CreatedAt: now,
		UpdatedAt: now,
	})

	next := make([]model.Tag, 0, len(s.tags)+1)
	next = append(next, created)
	next = append(next, s.tags...)
	s.commitLocked(next)
	return cloneTag(created), nil
}

// GetOrCreate returns the tag matching name ignoring case, creating it on miss.
func (s *Store) GetOrCreate(name string, color *string) (model.Tag, error) {
	if strings.TrimSpace(name) == "" {
		return model.Tag{}, model.ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.findByNameLocked(name, ""); i >= 0 {
		return cloneTag(s.tags[i]), nil
	}
	return s.createLocked(CreateInput{Name: name, Color: color})
}

func (s *Store) Update(id string, input UpdateInput) (model.Tag, error) {
	if input.Name.Present && strings.TrimSpace(input.Name.Value) == "" {
		return model.Tag{}, model.ErrNameRequired
	}
	if input.Color.Present && !model.IsValidHexColor(input.Color.Value) {
		return model.Tag{}, model.ErrInvalidColor
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Tag{}, fmt.Errorf("tag %s: %w", id, model.ErrNotFound)
	}

	updated := cloneTag(s.tags[i])
	if input.Name.Present {
		name := strings.TrimSpace(input.Name.Value)
		if s.findByNameLocked(name, id) >= 0 {
			return model.Tag{}, fmt.Errorf("tag %q: %w", name, model.ErrDuplicateName)
		}
		updated.Name = name
	}
	if input.Color.Present {
		updated.Color = clonePtr(input.Color.Value)
	}
	updated.UpdatedAt = model.NewTimestamp(s.now())

	next := make([]model.Tag, len(s.tags))
	copy(next, s.tags)
	next[i] = updated
	s.commitLocked(next)
	return cloneTag(updated), nil
}

// Delete removes the tag and then notifies OnTagDeleted.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("tag %s: %w", id, model.ErrNotFound)
	}
	next := make([]model.Tag, 0, len(s.tags)-1)
	next = append(next, s.tags[:i]...)
	next = append(next, s.tags[i+1:]...)
	s.commitLocked(next)
	s.mu.Unlock()

	s.hooksMu.RLock()
	onDeleted := s.integrations.OnTagDeleted
	s.hooksMu.RUnlock()
	if onDeleted != nil {
		onDeleted(id)
	}
	return nil
}

func (s *Store) TaskCount(id string) int {
	s.hooksMu.RLock()
	resolve := s.resolvers.TasksWithTag
	s.hooksMu.RUnlock()
	return len(resolve(id))
}

func cloneTag(t model.Tag) model.Tag {
	t.Color = clonePtr(t.Color)
	return t
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
