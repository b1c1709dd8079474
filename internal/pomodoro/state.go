package pomodoro

import "ptm/backend/internal/model"

// State is the timer as seen by clients. RemainingSeconds counts down only
// while IsRunning.
type State struct {
	Phase            model.Phase            `json:"phase"`
	IsRunning        bool                   `json:"isRunning"`
	RemainingSeconds int                    `json:"remainingSeconds"`
	SessionCount     int                    `json:"sessionCount"`
	CurrentTaskID    *string                `json:"currentTaskId"`
	Settings         model.PomodoroSettings `json:"settings"`
}

func InitialState(settings model.PomodoroSettings) State {
	return State{
		Phase:            model.PhaseFocus,
		RemainingSeconds: DurationFor(model.PhaseFocus, settings),
		Settings:         settings,
	}
}

// Action is implemented only by the types in this file.
type Action interface {
	action()
}

type (
	Start struct {
		TaskID *string
	}
	Pause         struct{}
	Resume        struct{}
	Reset         struct{}
	Tick          struct{}
	Skip          struct{}
	ApplySettings struct {
		Settings model.PomodoroSettings
	}
)

func (Start) action()         {}
func (Pause) action()         {}
func (Resume) action()        {}
func (Reset) action()         {}
func (Tick) action()          {}
func (Skip) action()          {}
func (ApplySettings) action() {}

// DurationFor returns the full length of phase in seconds.
func DurationFor(phase model.Phase, settings model.PomodoroSettings) int {
	switch phase {
	case model.PhaseShortBreak:
		return settings.ShortBreakMinutes * 60
	case model.PhaseLongBreak:
		return settings.LongBreakMinutes * 60
	default:
		return settings.FocusMinutes * 60
	}
}

func breakAfter(sessionCount int, settings model.PomodoroSettings) model.Phase {
	if settings.LongBreakInterval > 0 && sessionCount%settings.LongBreakInterval == 0 {
		return model.PhaseLongBreak
	}
	return model.PhaseShortBreak
}

// Reduce returns the state after applying a. It has no side effects; a Tick
// that reaches zero leaves the state at zero for the caller to complete.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Start:
		s.IsRunning = true
		s.CurrentTaskID = clonePtr(a.TaskID)
		if s.RemainingSeconds <= 0 {
			s.RemainingSeconds = DurationFor(s.Phase, s.Settings)
		}
	case Pause:
		s.IsRunning = false
	case Resume:
		s.IsRunning = true
	case Reset:
		s.IsRunning = false
		s.Phase = model.PhaseFocus
		s.RemainingSeconds = DurationFor(model.PhaseFocus, s.Settings)
		s.SessionCount = 0
		s.CurrentTaskID = nil
	case Tick:
		if s.IsRunning && s.RemainingSeconds > 0 {
			s.RemainingSeconds--
		}
	case Skip:
		if s.Phase == model.PhaseFocus {
			s.SessionCount++
			s.Phase = breakAfter(s.SessionCount, s.Settings)
		} else {
			s.Phase = model.PhaseFocus
		}
		s.RemainingSeconds = DurationFor(s.Phase, s.Settings)
		s.IsRunning = true
	case ApplySettings:
		s.Settings = a.Settings
		if !s.IsRunning {
			s.RemainingSeconds = DurationFor(s.Phase, s.Settings)
		}
	}
	return s
}

// Completed reports whether a running phase has counted down to zero.
func (s State) Completed() bool {
	return s.IsRunning && s.RemainingSeconds <= 0
}

func (s State) clone() State {
	s.CurrentTaskID = clonePtr(s.CurrentTaskID)
	return s
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
