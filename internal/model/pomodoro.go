package model

type Phase string

const (
	PhaseFocus      Phase = "focus"
	PhaseShortBreak Phase = "short_break"
	PhaseLongBreak  Phase = "long_break"
)

const (
	DefaultFocusMinutes      = 25
	DefaultShortBreakMinutes = 5
	DefaultLongBreakMinutes  = 15
	DefaultLongBreakInterval = 4
)

// PomodoroSettings is persisted as a single record under the pomodoro_settings key.
type PomodoroSettings struct {
	FocusMinutes      int `json:"focusMinutes"`
	ShortBreakMinutes int `json:"shortBreakMinutes"`
	LongBreakMinutes  int `json:"longBreakMinutes"`
	LongBreakInterval int `json:"longBreakInterval"`
}

func DefaultPomodoroSettings() PomodoroSettings {
	return PomodoroSettings{
		FocusMinutes:      DefaultFocusMinutes,
		ShortBreakMinutes: DefaultShortBreakMinutes,
		LongBreakMinutes:  DefaultLongBreakMinutes,
		LongBreakInterval: DefaultLongBreakInterval,
	}
}

func IsValidPhase(phase Phase) bool {
	return phase == PhaseFocus || phase == PhaseShortBreak || phase == PhaseLongBreak
}
