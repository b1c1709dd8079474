package pomodoro

import (
	"errors"
	"math"

	"ptm/backend/internal/model"
	"ptm/backend/internal/storage"
)

// SettingsPatch carries raw numeric input. Nil fields keep the prior value.
type SettingsPatch struct {
	FocusMinutes      *float64 `json:"focusMinutes"`
	ShortBreakMinutes *float64 `json:"shortBreakMinutes"`
	LongBreakMinutes  *float64 `json:"longBreakMinutes"`
	LongBreakInterval *float64 `json:"longBreakInterval"`
}

// SanitizeSettings merges input over fallback. Each field must floor to a
// positive integer, otherwise the fallback value is kept.
func SanitizeSettings(input SettingsPatch, fallback model.PomodoroSettings) model.PomodoroSettings {
	return model.PomodoroSettings{
		FocusMinutes:      positiveInt(input.FocusMinutes, fallback.FocusMinutes),
		ShortBreakMinutes: positiveInt(input.ShortBreakMinutes, fallback.ShortBreakMinutes),
		LongBreakMinutes:  positiveInt(input.LongBreakMinutes, fallback.LongBreakMinutes),
		LongBreakInterval: positiveInt(input.LongBreakInterval, fallback.LongBreakInterval),
	}
}

func positiveInt(n *float64, fallback int) int {
	if n == nil || math.IsNaN(*n) || math.IsInf(*n, 0) {
		return fallback
	}
	floored := math.Floor(*n)
	if floored < 1 || floored > math.MaxInt32 {
		return fallback
	}
	return int(floored)
}

// LoadSettings reads stored settings merged over the defaults. Missing or
// unreadable records yield the defaults.
func LoadSettings(gateway *storage.Gateway) (model.PomodoroSettings, error) {
	defaults := model.DefaultPomodoroSettings()
	patch, err := storage.LoadAs[SettingsPatch](gateway, storage.KeyPomodoroSettings)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return defaults, nil
		}
		return defaults, err
	}
	return SanitizeSettings(patch, defaults), nil
}
