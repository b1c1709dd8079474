package task

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

const DefaultSaveDelay = 300 * time.Millisecond

type Options struct {
	// SaveDelay is the debounce delay for persistence. Zero writes synchronously.
	SaveDelay time.Duration
	Now       func() time.Time
	// Location decides where day boundaries fall for date filters.
	Location *time.Location
	Logger   *log.Logger
}

// Resolvers look up names owned by other stores for search.
type Resolvers struct {
	ProjectName func(id string) (string, bool)
	TagName     func(id string) (string, bool)
}

func defaultResolvers() Resolvers {
	return Resolvers{
		ProjectName: func(string) (string, bool) { return "", false },
		TagName:     func(string) (string, bool) { return "", false },
	}
}

type CreateInput struct {
	Name                     string          `json:"name"`
	ProjectID                *string         `json:"projectId"`
	TagIDs                   []string        `json:"tagIds"`
	DueDate                  *string         `json:"dueDate"`
	Priority                 *model.Priority `json:"priority"`
	Description              *string         `json:"description"`
	EstimatedPomodoros       *int            `json:"estimatedPomodoros"`
	EstimatedDurationMinutes *int            `json:"estimatedDurationMinutes"`
}

// UpdateInput applies only the fields marked present.
type UpdateInput struct {
	Name                     model.Patch[string]          `json:"name"`
	ProjectID                model.Patch[*string]         `json:"projectId"`
	TagIDs                   model.Patch[[]string]        `json:"tagIds"`
	DueDate                  model.Patch[*string]         `json:"dueDate"`
	Priority                 model.Patch[*model.Priority] `json:"priority"`
	Completed                model.Patch[bool]            `json:"completed"`
	EstimatedPomodoros       model.Patch[*int]            `json:"estimatedPomodoros"`
	CompletedPomodoros       model.Patch[int]             `json:"completedPomodoros"`
	Description              model.Patch[*string]         `json:"description"`
	EstimatedDurationMinutes model.Patch[int]             `json:"estimatedDurationMinutes"`
}

// Store owns the task collection. Every mutation replaces the slice, so
// snapshots handed to the debounced writer are never modified afterwards.
type Store struct {
	mu          sync.RWMutex
	tasks       []model.Task
	searchQuery string

	resolversMu sync.RWMutex
	resolvers   Resolvers

	gateway  *storage.Gateway
	debounce *storage.Debouncer
	now      func() time.Time
	loc      *time.Location
	logger   *log.Logger
}

func NewStore(gateway *storage.Gateway, opts Options) *Store {
	s := &Store{
		tasks:     []model.Task{},
		resolvers: defaultResolvers(),
		gateway:   gateway,
		debounce:  storage.NewDebouncer(opts.SaveDelay),
		now:       opts.Now,
		loc:       opts.Location,
		logger:    opts.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// SetResolvers replaces the configured resolvers; nil functions keep the
// current ones.
func (s *Store) SetResolvers(r Resolvers) {
	s.resolversMu.Lock()
	defer s.resolversMu.Unlock()
	if r.ProjectName != nil {
		s.resolvers.ProjectName = r.ProjectName
	}
	if r.TagName != nil {
		s.resolvers.TagName = r.TagName
	}
}

func (s *Store) currentResolvers() Resolvers {
	s.resolversMu.RLock()
	defer s.resolversMu.RUnlock()
	return s.resolvers
}

// Load replaces the collection with the persisted one. Any failure leaves an
// empty collection.
func (s *Store) Load() {
	s.mu.Lock()
	s.loadLocked()
	s.mu.Unlock()
}

// loadLocked discards any pending save before swapping in the stored
// collection, so an older snapshot cannot overwrite it later.
func (s *Store) loadLocked() {
	s.debounce.Stop()
	tasks, skipped, err := storage.LoadRecords[model.Task](s.gateway, storage.KeyTasks)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Printf("task store: load failed: %v", err)
	}
	if skipped > 0 {
		s.logger.Printf("task store: skipped %d unreadable records", skipped)
	}
	s.tasks = tasks
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

// Flush writes any pending change immediately.
func (s *Store) Flush() {
	s.debounce.Flush()
}

func (s *Store) Close() {
	s.debounce.Flush()
}

// commitLocked swaps in the new collection and schedules its persistence.
func (s *Store) commitLocked(tasks []model.Task) {
	s.tasks = tasks
	s.debounce.Schedule(func() {
		if err := s.gateway.Save(storage.KeyTasks, tasks); err != nil {
			s.logger.Printf("task store: save failed: %v", err)
		}
	})
}

func (s *Store) timestamp() model.Timestamp {
	return model.NewTimestamp(s.now())
}

func (s *Store) List() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneTasks(s.tasks)
}

func (s *Store) Get(id string) (model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	return s.tasks[i].Clone(), nil
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) Create(input CreateInput) (model.Task, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return model.Task{}, model.ErrNameRequired
	}
	if input.Priority != nil && !model.IsValidPriority(*input.Priority) {
		return model.Task{}, model.ErrInvalidPriority
	}
	if input.EstimatedPomodoros != nil && *input.EstimatedPomodoros < 0 {
		return model.Task{}, model.ErrInvalidEstimate
	}

	duration := model.DefaultEstimatedDurationMinutes
	if input.EstimatedDurationMinutes != nil && *input.EstimatedDurationMinutes > 0 {
		duration = *input.EstimatedDurationMinutes
	}
	tagIDs := []string{}
	if input.TagIDs != nil {
		tagIDs = append(tagIDs, input.TagIDs...)
	}

	now := s.timestamp()
	created := model.Task{
		ID:                       uuid.NewString(),
		Name:                     name,
		ProjectID:                input.ProjectID,
		TagIDs:                   tagIDs,
		DueDate:                  input.DueDate,
		Priority:                 input.Priority,
		Description:              input.Description,
		EstimatedPomodoros:       input.EstimatedPomodoros,
		EstimatedDurationMinutes: duration,
		SubTasks:                 []model.SubTask{},
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	created = created.Clone()

	s.mu.Lock()
	next := make([]model.Task, 0, len(s.tasks)+1)
	next = append(next, created)
	next = append(next, s.tasks...)
	s.commitLocked(next)
	s.mu.Unlock()

	return created.Clone(), nil
}

func (s *Store) Update(id string, input UpdateInput) (model.Task, error) {
	if input.Name.Present && strings.TrimSpace(input.Name.Value) == "" {
		return model.Task{}, model.ErrNameRequired
	}
	if input.Priority.Present && input.Priority.Value != nil && !model.IsValidPriority(*input.Priority.Value) {
		return model.Task{}, model.ErrInvalidPriority
	}
	if input.EstimatedPomodoros.Present && input.EstimatedPomodoros.Value != nil && *input.EstimatedPomodoros.Value < 0 {
		return model.Task{}, model.ErrInvalidEstimate
	}
	if input.CompletedPomodoros.Present && input.CompletedPomodoros.Value < 0 {
		return model.Task{}, model.ErrInvalidEstimate
	}

	return s.mutate(id, func(t *model.Task, now model.Timestamp) error {
		if input.Name.Present {
			t.Name = strings.TrimSpace(input.Name.Value)
		}
		if input.ProjectID.Present {
			t.ProjectID = input.ProjectID.Value
		}
		if input.TagIDs.Present {
			t.TagIDs = append([]string{}, input.TagIDs.Value...)
		}
		if input.DueDate.Present {
			t.DueDate = input.DueDate.Value
		}
		if input.Priority.Present {
			t.Priority = input.Priority.Value
		}
		if input.Completed.Present {
			setCompleted(t, input.Completed.Value, now)
		}
		if input.EstimatedPomodoros.Present {
			t.EstimatedPomodoros = input.EstimatedPomodoros.Value
		}
		if input.CompletedPomodoros.Present {
			t.CompletedPomodoros = input.CompletedPomodoros.Value
		}
		if input.Description.Present {
			t.Description = input.Description.Value
		}
		if input.EstimatedDurationMinutes.Present {
			if input.EstimatedDurationMinutes.Value > 0 {
				t.EstimatedDurationMinutes = input.EstimatedDurationMinutes.Value
			} else {
				t.EstimatedDurationMinutes = model.DefaultEstimatedDurationMinutes
			}
		}
		return nil
	})
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	next := make([]model.Task, 0, len(s.tasks)-1)
	next = append(next, s.tasks[:i]...)
	next = append(next, s.tasks[i+1:]...)
	s.commitLocked(next)
	return nil
}

func (s *Store) ToggleCompletion(id string) (model.Task, error) {
	return s.mutate(id, func(t *model.Task, now model.Timestamp) error {
		setCompleted(t, !t.Completed, now)
		return nil
	})
}

// IncrementCompletedPomodoros adds one finished focus session to the task.
func (s *Store) IncrementCompletedPomodoros(id string) (model.Task, error) {
	return s.mutate(id, func(t *model.Task, _ model.Timestamp) error {
		t.CompletedPomodoros++
		return nil
	})
}

// Reorder moves the named tasks to the front in the given order. Tasks not
// named keep their relative order after them; unknown ids are ignored.
func (s *Store) Reorder(ids []string) {
	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, seen := pos[id]; !seen {
			pos[id] = i
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	known := make([]model.Task, len(ids))
	present := make([]bool, len(ids))
	rest := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if i, ok := pos[t.ID]; ok && !present[i] {
			known[i] = t
			present[i] = true
			continue
		}
		rest = append(rest, t)
	}

	next := make([]model.Task, 0, len(s.tasks))
	for i := range known {
		if present[i] {
			next = append(next, known[i])
		}
	}
	next = append(next, rest...)
	s.commitLocked(next)
}

// ClearProject drops the project reference from every task that carries it.
func (s *Store) ClearProject(projectID string) {
	s.mutateAll(func(t *model.Task) bool {
		return t.ProjectID != nil && *t.ProjectID == projectID
	}, func(t *model.Task) {
		t.ProjectID = nil
	})
}

// RemoveTag drops the tag from every task that carries it.
func (s *Store) RemoveTag(tagID string) {
	s.mutateAll(func(t *model.Task) bool {
		return t.HasTag(tagID)
	}, func(t *model.Task) {
		kept := make([]string, 0, len(t.TagIDs))
		for _, id := range t.TagIDs {
			if id != tagID {
				kept = append(kept, id)
			}
		}
		t.TagIDs = kept
	})
}

func (s *Store) TasksForProject(projectID string) []model.Task {
	return s.matching(func(t model.Task) bool {
		return t.ProjectID != nil && *t.ProjectID == projectID
	})
}

func (s *Store) TasksWithTag(tagID string) []model.Task {
	return s.matching(func(t model.Task) bool {
		return t.HasTag(tagID)
	})
}

func (s *Store) matching(keep func(model.Task) bool) []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Task, 0)
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// mutate applies change to a copy of the task and commits it with a fresh
// updatedAt. Nothing is committed when change fails.
func (s *Store) mutate(id string, change func(t *model.Task, now model.Timestamp) error) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}

	now := s.timestamp()
	updated := s.tasks[i].Clone()
	if err := change(&updated, now); err != nil {
		return model.Task{}, err
	}
	updated.UpdatedAt = now

	next := make([]model.Task, len(s.tasks))
	copy(next, s.tasks)
	next[i] = updated
	s.commitLocked(next)
	return updated.Clone(), nil
}

func (s *Store) mutateAll(match func(t *model.Task) bool, change func(t *model.Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.timestamp()
	changed := false
	next := make([]model.Task, len(s.tasks))
	for i := range s.tasks {
		next[i] = s.tasks[i]
		if !match(&next[i]) {
			continue
		}
		updated := s.tasks[i].Clone()
		change(&updated)
		updated.UpdatedAt = now
		next[i] = updated
		changed = true
	}
	if changed {
		s.commitLocked(next)
	}
}

func setCompleted(t *model.Task, completed bool, now model.Timestamp) {
	if completed && !t.Completed {
		ts := now
		t.CompletedAt = &ts
	}
	if !completed {
		t.CompletedAt = nil
	}
	t.Completed = completed
}
