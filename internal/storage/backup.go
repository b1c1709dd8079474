package storage

import (
	"bytes"
	"encoding/json"
	"strings"

	"ptm/backend/internal/model"
)

type Strategy string

const (
	// StrategyOverwrite replaces existing keys.
	StrategyOverwrite Strategy = "overwrite"
	// StrategyMerge keeps any key that already exists and writes only the
	// missing ones. Granularity is the whole key, not individual records.
	StrategyMerge Strategy = "merge"
)

type ImportOptions struct {
	Strategy Strategy
	// Strict turns validation warnings into errors.
	Strict bool
}

// ExportData snapshots the domain keys of this namespace. Missing or corrupt
// entries fall back to empty collections and default settings.
func (g *Gateway) ExportData() (*model.ExportData, error) {
	if g.medium == nil {
		return nil, g.unavailable("exportData")
	}

	data := &model.ExportData{
		Version:    g.version,
		ExportedAt: model.NewTimestamp(g.now()),
		Tasks:      []model.Task{},
		Projects:   []model.Project{},
		Tags:       []model.Tag{},
		Settings: model.ExportSettings{
			Pomodoro: model.DefaultPomodoroSettings(),
			Theme:    model.ThemeLight,
		},
	}

	var err error
	if data.Tasks, err = readRecordsOr(g, KeyTasks, data.Tasks); err != nil {
		return nil, err
	}
	if data.Projects, err = readRecordsOr(g, KeyProjects, data.Projects); err != nil {
		return nil, err
	}
	if data.Tags, err = readRecordsOr(g, KeyTags, data.Tags); err != nil {
		return nil, err
	}
	if data.Settings.Pomodoro, err = readOr(g, KeyPomodoroSettings, data.Settings.Pomodoro); err != nil {
		return nil, err
	}
	theme, err := readOr(g, KeyTheme, model.ThemeLight)
	if err != nil {
		return nil, err
	}
	if theme == model.ThemeLight || theme == model.ThemeDark {
		data.Settings.Theme = theme
	}

	if data.Tasks == nil {
		data.Tasks = []model.Task{}
	}
	if data.Projects == nil {
		data.Projects = []model.Project{}
	}
	if data.Tags == nil {
		data.Tags = []model.Tag{}
	}
	return data, nil
}

// readOr decodes key over fallback. Only medium failures are reported; absent
// or unparsable values yield fallback.
func readOr[T any](g *Gateway, key string, fallback T) (T, error) {
	fullKey := g.key(key)
	raw, ok, err := g.medium.GetItem(fullKey)
	if err != nil {
		return fallback, newError(KindUnknown, err, "failed to export data: %v", err)
	}
	if !ok || raw == "" {
		return fallback, nil
	}
	out := fallback
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return fallback, nil
	}
	return out, nil
}

// readRecordsOr is readOr for collections: undecodable elements are dropped
// instead of replacing the whole collection with fallback.
func readRecordsOr[T any](g *Gateway, key string, fallback []T) ([]T, error) {
	raws, err := readOr[[]json.RawMessage](g, key, nil)
	if err != nil || raws == nil {
		return fallback, err
	}
	records, _ := decodeRecords[T](raws)
	return records, nil
}

// ImportExport validates and imports an in-memory bundle.
func (g *Gateway) ImportExport(data *model.ExportData, opts ImportOptions) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return newError(KindUnknown, err, "failed to serialize export data: %v", err)
	}
	return g.ImportData(raw, opts)
}

type importPayload struct {
	Tasks    json.RawMessage `json:"tasks"`
	Projects json.RawMessage `json:"projects"`
	Tags     json.RawMessage `json:"tags"`
	Settings struct {
		Pomodoro json.RawMessage `json:"pomodoro"`
	} `json:"settings"`
}

// ImportData validates a serialized bundle and writes its collections. Values
// are written as found in the payload so fields unknown to this version are
// kept.
func (g *Gateway) ImportData(raw []byte, opts ImportOptions) error {
	if g.medium == nil {
		return g.unavailable("importData")
	}

	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyOverwrite
	}
	if strategy != StrategyOverwrite && strategy != StrategyMerge {
		return newError(KindParseError, nil, "unsupported import strategy %q", strategy)
	}

	report := ValidateExport(raw)
	problems := append([]string(nil), report.Errors...)
	if opts.Strict {
		problems = append(problems, report.Warnings...)
	}
	if len(report.Errors) > 0 || (opts.Strict && len(report.Warnings) > 0) {
		return newError(KindParseError, nil, "invalid export data: %s", strings.Join(problems, "; "))
	}

	var payload importPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return newError(KindParseError, err, "invalid export data: %v", err)
	}

	entries := []struct {
		key   string
		value json.RawMessage
	}{
		{KeyTasks, payload.Tasks},
		{KeyProjects, payload.Projects},
		{KeyTags, payload.Tags},
		{KeyPomodoroSettings, payload.Settings.Pomodoro},
	}

	for _, entry := range entries {
		if len(entry.value) == 0 || string(entry.value) == "null" {
			continue
		}
		fullKey := g.key(entry.key)
		if strategy == StrategyMerge {
			_, exists, err := g.medium.GetItem(fullKey)
			if err != nil {
				return newError(KindUnknown, err, "failed during import: %v", err)
			}
			if exists {
				continue
			}
		}

		var compact bytes.Buffer
		if err := json.Compact(&compact, entry.value); err != nil {
			return newError(KindParseError, err, "invalid export data: %v", err)
		}
		if err := g.medium.SetItem(fullKey, compact.String()); err != nil {
			if IsQuotaExceeded(err) {
				return newError(KindQuotaExceeded, err, "storage quota exceeded during import")
			}
			return newError(KindUnknown, err, "failed during import: %v", err)
		}
	}
	return nil
}
