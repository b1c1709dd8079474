package storage

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptm/backend/internal/model"
)

func seedDomain(t *testing.T, g *Gateway) {
	t.Helper()
	medium := g.medium
	require.NoError(t, medium.SetItem(g.key(KeyTasks), `[{"id":"t1","name":"A","completed":false,"projectId":"p1","tagIds":["g1"],"extra":"kept"}]`))
	require.NoError(t, medium.SetItem(g.key(KeyProjects), `[{"id":"p1","name":"P"}]`))
	require.NoError(t, medium.SetItem(g.key(KeyTags), `[{"id":"g1","name":"G"}]`))
	require.NoError(t, g.Save(KeyPomodoroSettings, model.PomodoroSettings{
		FocusMinutes: 30, ShortBreakMinutes: 5, LongBreakMinutes: 20, LongBreakInterval: 3,
	}))
}

func TestExportDataDefaultsMissingEntries(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	medium := NewMemoryMedium(0)
	g := New(medium, "test", WithVersion("1.2.3"), WithClock(func() time.Time { return now }))
	require.NoError(t, medium.SetItem("test:projects", "{ corrupt"))

	data, err := g.ExportData()
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", data.Version)
	assert.True(t, data.ExportedAt.Equal(now))
	assert.Empty(t, data.Tasks)
	assert.NotNil(t, data.Projects)
	assert.Empty(t, data.Projects)
	assert.Equal(t, model.DefaultPomodoroSettings(), data.Settings.Pomodoro)
	assert.Equal(t, model.ThemeLight, data.Settings.Theme)
}

func TestExportDataDropsOnlyUndecodableRecords(t *testing.T) {
	medium := NewMemoryMedium(0)
	g := New(medium, "test")
	require.NoError(t, medium.SetItem("test:tasks", `[{"id":"t1","name":"ok","completed":false},{"id":"t2","completed":"no"}]`))

	data, err := g.ExportData()
	require.NoError(t, err)
	require.Len(t, data.Tasks, 1)
	assert.Equal(t, "t1", data.Tasks[0].ID)
}

func TestExportImportOverwriteRoundTrip(t *testing.T) {
	medium := NewMemoryMedium(0)
	source := New(medium, "test")
	seedDomain(t, source)
	require.NoError(t, source.Save(KeyTheme, model.ThemeDark))

	data, err := source.ExportData()
	require.NoError(t, err)
	assert.Equal(t, model.ThemeDark, data.Settings.Theme)
	require.Len(t, data.Tasks, 1)
	assert.Equal(t, "A", data.Tasks[0].Name)

	target := New(medium, "test2")
	require.NoError(t, target.ImportExport(data, ImportOptions{Strategy: StrategyOverwrite}))

	for _, key := range []string{KeyTasks, KeyProjects, KeyTags, KeyPomodoroSettings} {
		has, err := target.Has(key)
		require.NoError(t, err)
		assert.True(t, has, key)
	}

	settings, err := LoadAs[model.PomodoroSettings](target, KeyPomodoroSettings)
	require.NoError(t, err)
	assert.Equal(t, 30, settings.FocusMinutes)

	tasks, err := LoadAs[[]model.Task](target, KeyTasks)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].ID)
}

func TestImportDataKeepsUnknownFields(t *testing.T) {
	medium := NewMemoryMedium(0)
	source := New(medium, "test")
	seedDomain(t, source)

	raw := `{"version":"1","exportedAt":"2025-01-15T12:00:00Z",` +
		`"tasks":[{"id":"t1","name":"A","completed":false,"extra":"kept"}],` +
		`"projects":[],"tags":[],` +
		`"settings":{"pomodoro":{"focusMinutes":25,"shortBreakMinutes":5,"longBreakMinutes":15,"longBreakInterval":4},"theme":"light"}}`

	target := New(medium, "fresh")
	require.NoError(t, target.ImportData([]byte(raw), ImportOptions{}))

	stored, ok, err := medium.GetItem("fresh:tasks")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, stored, `"extra":"kept"`)
}

func TestImportMergeSkipsExistingKeys(t *testing.T) {
	medium := NewMemoryMedium(0)
	source := New(medium, "source")
	seedDomain(t, source)
	data, err := source.ExportData()
	require.NoError(t, err)

	target := New(medium, "target")
	original := `[{"id":"exists","name":"E","completed":false}]`
	require.NoError(t, medium.SetItem("target:tasks", original))

	require.NoError(t, target.ImportExport(data, ImportOptions{Strategy: StrategyMerge}))

	stored, _, err := medium.GetItem("target:tasks")
	require.NoError(t, err)
	assert.Equal(t, original, stored)

	for _, key := range []string{KeyProjects, KeyTags, KeyPomodoroSettings} {
		has, err := target.Has(key)
		require.NoError(t, err)
		assert.True(t, has, key)
	}
}

func TestImportRejectsStructuralErrors(t *testing.T) {
	g := New(NewMemoryMedium(0), "test")

	err := g.ImportData([]byte(`{"version":"","tasks":{},"projects":[],"tags":[]}`), ImportOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	msg := err.Error()
	assert.Contains(t, msg, "version must be a non-empty string")
	assert.Contains(t, msg, "tasks must be an array")
	assert.Contains(t, msg, "settings must be an object")

	has, hasErr := g.Has(KeyProjects)
	require.NoError(t, hasErr)
	assert.False(t, has)
}

func TestValidateExportReferentialIntegrity(t *testing.T) {
	raw := `{"version":"1","exportedAt":"2025-01-15T12:00:00Z",
		"tasks":[{"id":"t1","name":"A","completed":false,"projectId":"nope","tagIds":["g1","ghost"]}],
		"projects":[{"id":"p1"},{"id":"p1"}],
		"tags":[{"id":"g1"},{"id":""}],
		"settings":{"pomodoro":{"focusMinutes":25,"shortBreakMinutes":5,"longBreakMinutes":15,"longBreakInterval":4},"theme":"light"}}`

	report := ValidateExport([]byte(raw))
	assert.Equal(t, []string{
		"duplicate project id p1",
		"tag with invalid id",
		"task t1 references missing project nope",
		"task t1 references missing tag ghost",
	}, report.Errors)
	assert.Empty(t, report.Warnings)
}

func TestValidateExportShortCircuitsOnShapeErrors(t *testing.T) {
	raw := `{"version":"1","tasks":[{"id":"t1","projectId":"missing"}],"projects":"nope","tags":[],"settings":{}}`
	report := ValidateExport([]byte(raw))
	assert.Equal(t, []string{"projects must be an array"}, report.Errors)
}

func TestImportWarningsOnlyAbortInStrictMode(t *testing.T) {
	raw := `{"version":"1","exportedAt":"2025-01-15T12:00:00Z",
		"tasks":[{"id":"t1"}],"projects":[],"tags":[],
		"settings":{"pomodoro":{"focusMinutes":0,"shortBreakMinutes":5,"longBreakMinutes":15,"longBreakInterval":4},"theme":"sepia"}}`

	report := ValidateExport([]byte(raw))
	assert.Empty(t, report.Errors)
	assert.Len(t, report.Warnings, 4)

	lenient := New(NewMemoryMedium(0), "lenient")
	require.NoError(t, lenient.ImportData([]byte(raw), ImportOptions{}))

	strict := New(NewMemoryMedium(0), "strict")
	err := strict.ImportData([]byte(raw), ImportOptions{Strict: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.Equal(t, 4, strings.Count(err.Error(), ";")+1)
	assert.Contains(t, err.Error(), "settings.theme must be light|dark")
}

func TestImportReportsQuota(t *testing.T) {
	source := New(NewMemoryMedium(0), "src")
	seedDomain(t, source)
	data, err := source.ExportData()
	require.NoError(t, err)

	tiny := New(NewMemoryMedium(16), "dst")
	err = tiny.ImportExport(data, ImportOptions{})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestImportRejectsUnknownStrategy(t *testing.T) {
	g := New(NewMemoryMedium(0), "test")
	data, err := g.ExportData()
	require.NoError(t, err)
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	assert.ErrorIs(t, g.ImportData(raw, ImportOptions{Strategy: "replace-items"}), ErrParse)
}
