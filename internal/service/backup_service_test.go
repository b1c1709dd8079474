package service

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptm/backend/internal/project"
	"ptm/backend/internal/task"
)

func TestBackupRoundTrip(t *testing.T) {
	source := newTestApp(t, 0)
	p, err := source.Projects.Create(project.CreateInput{Name: "Home"})
	require.NoError(t, err)
	_, err = source.Tasks.Create(task.CreateInput{Name: "Fix sink", ProjectID: &p.ID})
	require.NoError(t, err)

	exported, apiErr := NewBackupService(source, 0).Export()
	require.Nil(t, apiErr)
	assert.Equal(t, "1.0.0", exported.Version)
	raw, err := json.Marshal(exported)
	require.NoError(t, err)

	target := newTestApp(t, 0)
	result, apiErr := NewBackupService(target, 0).Import(raw, "", false)
	require.Nil(t, apiErr)
	assert.Equal(t, &ImportResult{Tasks: 1, Projects: 1, Tags: 0}, result)
}

func TestBackupImportErrors(t *testing.T) {
	a := newTestApp(t, 0)
	s := NewBackupService(a, 0)

	_, apiErr := s.Import([]byte(`not json`), "", false)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "parse_error", apiErr.Code)

	exported, apiErr := s.Export()
	require.Nil(t, apiErr)
	raw, err := json.Marshal(exported)
	require.NoError(t, err)

	_, apiErr = s.Import(raw, "replace", false)
	require.NotNil(t, apiErr)
	assert.Equal(t, "parse_error", apiErr.Code)
}

func TestBackupImportQuotaExceeded(t *testing.T) {
	a := newTestApp(t, 400)
	s := NewBackupService(a, 0)

	doc := `{"version":"1.0.0","exportedAt":"2025-01-15T12:00:00.000Z",` +
		`"tasks":[{"id":"t1","name":"` + strings.Repeat("x", 1000) + `","completed":false}],` +
		`"projects":[],"tags":[],` +
		`"settings":{"pomodoro":{"focusMinutes":25,"shortBreakMinutes":5,"longBreakMinutes":15,"longBreakInterval":4},"theme":"light"}}`

	_, apiErr := s.Import([]byte(doc), "overwrite", true)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusInsufficientStorage, apiErr.Status)
}

func TestBackupUsage(t *testing.T) {
	a := newTestApp(t, 0)
	s := NewBackupService(a, 4096)

	before := s.Usage()
	_, err := a.Tasks.Create(task.CreateInput{Name: "measure me"})
	require.NoError(t, err)
	after := s.Usage()

	assert.Equal(t, "test", after.Namespace)
	assert.Greater(t, after.UsedBytes, before.UsedBytes)
	assert.Equal(t, 4096, after.AvailableBytes)
}
