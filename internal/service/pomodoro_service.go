package service

import (
	"time"

	apperrors "ptm/backend/internal/errors"
	"ptm/backend/internal/model"
	"ptm/backend/internal/pomodoro"
)

// TaskLookup confirms that a task exists before the timer binds to it.
type TaskLookup interface {
	Get(id string) (model.Task, error)
}

type PomodoroService struct {
	engine *pomodoro.Engine
	tasks  TaskLookup
	now    func() time.Time
}

type StateView struct {
	pomodoro.State
	DurationSeconds int       `json:"durationSeconds"`
	ServerTime      time.Time `json:"serverTime"`
}

func NewPomodoroService(engine *pomodoro.Engine, tasks TaskLookup) *PomodoroService {
	return &PomodoroService{engine: engine, tasks: tasks, now: time.Now}
}

func (s *PomodoroService) GetState() StateView {
	return s.toStateView(s.engine.Snapshot())
}

// Start binds the timer to taskID when given. An unknown task is rejected
// before the timer changes.
func (s *PomodoroService) Start(taskID *string) (*StateView, *apperrors.APIError) {
	if taskID != nil && *taskID == "" {
		taskID = nil
	}
	if taskID != nil {
		if _, err := s.tasks.Get(*taskID); err != nil {
			return nil, apperrors.FromDomain(err)
		}
	}
	view := s.toStateView(s.engine.Start(taskID))
	return &view, nil
}

func (s *PomodoroService) Pause() StateView {
	return s.toStateView(s.engine.Pause())
}

func (s *PomodoroService) Resume() StateView {
	return s.toStateView(s.engine.Resume())
}

func (s *PomodoroService) Reset() StateView {
	return s.toStateView(s.engine.Reset())
}

func (s *PomodoroService) Skip() StateView {
	return s.toStateView(s.engine.Skip())
}

func (s *PomodoroService) UpdateSettings(patch pomodoro.SettingsPatch) (*StateView, *apperrors.APIError) {
	if patch.FocusMinutes == nil && patch.ShortBreakMinutes == nil &&
		patch.LongBreakMinutes == nil && patch.LongBreakInterval == nil {
		return nil, apperrors.BadRequest("invalid_settings", "at least one setting is required")
	}

	state, err := s.engine.UpdateSettings(patch)
	if err != nil {
		return nil, apperrors.FromDomain(err)
	}
	view := s.toStateView(state)
	return &view, nil
}

func (s *PomodoroService) toStateView(state pomodoro.State) StateView {
	return StateView{
		State:           state,
		DurationSeconds: pomodoro.DurationFor(state.Phase, state.Settings),
		ServerTime:      s.now().UTC(),
	}
}
