package model

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type ExportSettings struct {
	Pomodoro PomodoroSettings `json:"pomodoro"`
	Theme    Theme            `json:"theme"`
}

// ExportData is the versioned backup bundle.
type ExportData struct {
	Version    string         `json:"version"`
	ExportedAt Timestamp      `json:"exportedAt"`
	Tasks      []Task         `json:"tasks"`
	Projects   []Project      `json:"projects"`
	Tags       []Tag          `json:"tags"`
	Settings   ExportSettings `json:"settings"`
}
