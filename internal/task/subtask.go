package task

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ptm/backend/internal/model"
)

type SubTaskUpdate struct {
	Title     model.Patch[string] `json:"title"`
	Completed model.Patch[bool]   `json:"completed"`
}

// AddSubTask prepends a new subtask to the task.
func (s *Store) AddSubTask(taskID, title string) (model.SubTask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.SubTask{}, model.ErrTitleRequired
	}

	var created model.SubTask
	_, err := s.mutate(taskID, func(t *model.Task, now model.Timestamp) error {
		created = model.SubTask{
			ID:        uuid.NewString(),
			Title:     title,
			CreatedAt: now,
			UpdatedAt: now,
		}
		next := make([]model.SubTask, 0, len(t.SubTasks)+1)
		next = append(next, created)
		t.SubTasks = append(next, t.SubTasks...)
		return nil
	})
	if err != nil {
		return model.SubTask{}, err
	}
	return created, nil
}

func (s *Store) UpdateSubTask(taskID, subTaskID string, input SubTaskUpdate) (model.SubTask, error) {
	if input.Title.Present && strings.TrimSpace(input.Title.Value) == "" {
		return model.SubTask{}, model.ErrTitleRequired
	}
	return s.mutateSubTask(taskID, subTaskID, func(st *model.SubTask) {
		if input.Title.Present {
			st.Title = strings.TrimSpace(input.Title.Value)
		}
		if input.Completed.Present {
			st.Completed = input.Completed.Value
		}
	})
}

func (s *Store) ToggleSubTaskCompletion(taskID, subTaskID string) (model.SubTask, error) {
	return s.mutateSubTask(taskID, subTaskID, func(st *model.SubTask) {
		st.Completed = !st.Completed
	})
}

func (s *Store) DeleteSubTask(taskID, subTaskID string) error {
	_, err := s.mutate(taskID, func(t *model.Task, _ model.Timestamp) error {
		i := subTaskIndex(t.SubTasks, subTaskID)
		if i < 0 {
			return fmt.Errorf("subtask %s: %w", subTaskID, model.ErrNotFound)
		}
		kept := make([]model.SubTask, 0, len(t.SubTasks)-1)
		kept = append(kept, t.SubTasks[:i]...)
		t.SubTasks = append(kept, t.SubTasks[i+1:]...)
		return nil
	})
	return err
}

func (s *Store) mutateSubTask(taskID, subTaskID string, change func(st *model.SubTask)) (model.SubTask, error) {
	var updated model.SubTask
	_, err := s.mutate(taskID, func(t *model.Task, now model.Timestamp) error {
		i := subTaskIndex(t.SubTasks, subTaskID)
		if i < 0 {
			return fmt.Errorf("subtask %s: %w", subTaskID, model.ErrNotFound)
		}
		change(&t.SubTasks[i])
		t.SubTasks[i].UpdatedAt = now
		updated = t.SubTasks[i]
		return nil
	})
	if err != nil {
		return model.SubTask{}, err
	}
	return updated, nil
}

func subTaskIndex(subTasks []model.SubTask, id string) int {
	for i := range subTasks {
		if subTasks[i].ID == id {
			return i
		}
	}
	return -1
}
