package model

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const DefaultEstimatedDurationMinutes = 25

func IsValidPriority(p Priority) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type SubTask struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// Task is owned by the task store. DueDate keeps whatever the caller supplied,
// either a plain YYYY-MM-DD date or a full RFC3339 timestamp.
type Task struct {
	ID                       string     `json:"id"`
	Name                     string     `json:"name"`
	Completed                bool       `json:"completed"`
	CompletedAt              *Timestamp `json:"completedAt,omitempty"`
	ProjectID                *string    `json:"projectId"`
	TagIDs                   []string   `json:"tagIds"`
	DueDate                  *string    `json:"dueDate"`
	Priority                 *Priority  `json:"priority,omitempty"`
	Description              *string    `json:"description"`
	EstimatedPomodoros       *int       `json:"estimatedPomodoros,omitempty"`
	CompletedPomodoros       int        `json:"completedPomodoros"`
	EstimatedDurationMinutes int        `json:"estimatedDurationMinutes"`
	SubTasks                 []SubTask  `json:"subTasks"`
	CreatedAt                Timestamp  `json:"createdAt"`
	UpdatedAt                Timestamp  `json:"updatedAt"`
}

// Clone returns a copy that shares no slices or pointers with t.
func (t Task) Clone() Task {
	out := t
	out.CompletedAt = clonePtr(t.CompletedAt)
	out.ProjectID = clonePtr(t.ProjectID)
	out.DueDate = clonePtr(t.DueDate)
	out.Priority = clonePtr(t.Priority)
	out.Description = clonePtr(t.Description)
	out.EstimatedPomodoros = clonePtr(t.EstimatedPomodoros)
	if t.TagIDs != nil {
		out.TagIDs = append(make([]string, 0, len(t.TagIDs)), t.TagIDs...)
	}
	if t.SubTasks != nil {
		out.SubTasks = append(make([]SubTask, 0, len(t.SubTasks)), t.SubTasks...)
	}
	return out
}

func (t Task) HasTag(tagID string) bool {
	for _, id := range t.TagIDs {
		if id == tagID {
			return true
		}
	}
	return false
}

func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].Clone()
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
