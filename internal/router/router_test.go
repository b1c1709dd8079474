package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"ptm/backend/internal/app"
	"ptm/backend/internal/db"
	"ptm/backend/internal/handler"
	"ptm/backend/internal/router"
	"ptm/backend/internal/service"
	"ptm/backend/internal/storage"
)

type taskView struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Completed          bool     `json:"completed"`
	ProjectID          *string  `json:"projectId"`
	TagIDs             []string `json:"tagIds"`
	CompletedPomodoros int      `json:"completedPomodoros"`
	SubTasks           []struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Completed bool   `json:"completed"`
	} `json:"subTasks"`
}

type taskEnvelope struct {
	Task taskView `json:"task"`
}

type tasksEnvelope struct {
	Tasks []taskView `json:"tasks"`
}

type stateEnvelope struct {
	State struct {
		Phase            string  `json:"phase"`
		IsRunning        bool    `json:"isRunning"`
		RemainingSeconds int     `json:"remainingSeconds"`
		CurrentTaskID    *string `json:"currentTaskId"`
		DurationSeconds  int     `json:"durationSeconds"`
		Settings         struct {
			FocusMinutes int `json:"focusMinutes"`
		} `json:"settings"`
	} `json:"state"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type projectEnvelope struct {
	Project struct {
		ID string `json:"id"`
	} `json:"project"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func TestTaskLifecycle(t *testing.T) {
	engine := setupTestEngine(t, false)

	status, body := requestJSON(t, engine, http.MethodPost, "/api/tasks", "", map[string]any{
		"name": "Write report",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on create, got %d: %s", status, string(body))
	}
	created := decode[taskEnvelope](t, body).Task
	if created.ID == "" || created.Name != "Write report" {
		t.Fatalf("unexpected created task: %+v", created)
	}
	if created.TagIDs == nil || created.SubTasks == nil {
		t.Fatal("expected empty arrays, got null")
	}

	status, body = requestJSON(t, engine, http.MethodPatch, "/api/tasks/"+created.ID, "", map[string]any{
		"name":      "Write final report",
		"projectId": nil,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d: %s", status, string(body))
	}
	if got := decode[taskEnvelope](t, body).Task.Name; got != "Write final report" {
		t.Fatalf("expected renamed task, got %s", got)
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/tasks/"+created.ID+"/toggle", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on toggle, got %d", status)
	}
	if !decode[taskEnvelope](t, body).Task.Completed {
		t.Fatal("expected task completed after toggle")
	}

	status, body = requestJSON(t, engine, http.MethodGet, "/api/tasks?filter=completed", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on list, got %d", status)
	}
	if n := len(decode[tasksEnvelope](t, body).Tasks); n != 1 {
		t.Fatalf("expected 1 completed task, got %d", n)
	}

	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/tasks/"+created.ID, "", nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", status)
	}

	status, body = requestJSON(t, engine, http.MethodGet, "/api/tasks/"+created.ID, "", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
	if code := decode[apiErrorEnvelope](t, body).Error.Code; code != "not_found" {
		t.Fatalf("expected not_found, got %s", code)
	}
}

func TestTaskValidationErrors(t *testing.T) {
	engine := setupTestEngine(t, false)

	status, body := requestJSON(t, engine, http.MethodPost, "/api/tasks", "", map[string]any{"name": "  "})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty name, got %d", status)
	}
	if code := decode[apiErrorEnvelope](t, body).Error.Code; code != "name_required" {
		t.Fatalf("expected name_required, got %s", code)
	}

	status, body = requestJSON(t, engine, http.MethodGet, "/api/tasks?filter=someday", "", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown filter, got %d", status)
	}
	if code := decode[apiErrorEnvelope](t, body).Error.Code; code != "invalid_filter" {
		t.Fatalf("expected invalid_filter, got %s", code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", recorder.Code)
	}
}

func TestSearchQueryFiltersByProjectName(t *testing.T) {
	engine := setupTestEngine(t, false)

	status, body := requestJSON(t, engine, http.MethodPost, "/api/projects", "", map[string]any{"name": "Garden"})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on project create, got %d: %s", status, string(body))
	}
	projectResp := decode[projectEnvelope](t, body)

	requestJSON(t, engine, http.MethodPost, "/api/tasks", "", map[string]any{
		"name":      "Plant tulips",
		"projectId": projectResp.Project.ID,
	})
	requestJSON(t, engine, http.MethodPost, "/api/tasks", "", map[string]any{"name": "Pay rent"})

	status, body = requestJSON(t, engine, http.MethodGet, "/api/tasks?q=garden", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on search, got %d", status)
	}
	tasks := decode[tasksEnvelope](t, body).Tasks
	if len(tasks) != 1 || tasks[0].Name != "Plant tulips" {
		t.Fatalf("expected only the garden task, got %+v", tasks)
	}

	status, _ = requestJSON(t, engine, http.MethodPut, "/api/tasks/search", "", map[string]string{"query": "RENT"})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on set search, got %d", status)
	}
	_, body = requestJSON(t, engine, http.MethodGet, "/api/tasks", "", nil)
	tasks = decode[tasksEnvelope](t, body).Tasks
	if len(tasks) != 1 || tasks[0].Name != "Pay rent" {
		t.Fatalf("expected stored query to apply, got %+v", tasks)
	}

	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/projects/"+projectResp.Project.ID, "", nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 on project delete, got %d", status)
	}
	_, body = requestJSON(t, engine, http.MethodGet, "/api/tasks?q=tulips", "", nil)
	tasks = decode[tasksEnvelope](t, body).Tasks
	if len(tasks) != 1 || tasks[0].ProjectID != nil {
		t.Fatalf("expected project reference cleared, got %+v", tasks)
	}
}

func TestSubTaskRoutes(t *testing.T) {
	engine := setupTestEngine(t, false)

	_, body := requestJSON(t, engine, http.MethodPost, "/api/tasks", "", map[string]any{"name": "Move"})
	taskID := decode[taskEnvelope](t, body).Task.ID

	status, body := requestJSON(t, engine, http.MethodPost, "/api/tasks/"+taskID+"/subtasks", "", map[string]string{
		"title": "Pack boxes",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on subtask create, got %d: %s", status, string(body))
	}
	var subResp struct {
		SubTask struct {
			ID        string `json:"id"`
			Completed bool   `json:"completed"`
		} `json:"subTask"`
	}
	if err := json.Unmarshal(body, &subResp); err != nil {
		t.Fatalf("unmarshal subtask: %v", err)
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/tasks/"+taskID+"/subtasks/"+subResp.SubTask.ID+"/toggle", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on subtask toggle, got %d", status)
	}
	if err := json.Unmarshal(body, &subResp); err != nil {
		t.Fatalf("unmarshal toggled subtask: %v", err)
	}
	if !subResp.SubTask.Completed {
		t.Fatal("expected subtask completed")
	}

	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/tasks/"+taskID+"/subtasks/missing", "", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for missing subtask, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/tasks/"+taskID+"/subtasks/"+subResp.SubTask.ID, "", nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 on subtask delete, got %d", status)
	}
}

func TestDuplicateTagNameConflict(t *testing.T) {
	engine := setupTestEngine(t, false)

	status, _ := requestJSON(t, engine, http.MethodPost, "/api/tags", "", map[string]string{"name": "Errand"})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on tag create, got %d", status)
	}

	status, body := requestJSON(t, engine, http.MethodPost, "/api/tags", "", map[string]string{"name": " errand "})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate tag, got %d", status)
	}
	if code := decode[apiErrorEnvelope](t, body).Error.Code; code != "duplicate_name" {
		t.Fatalf("expected duplicate_name, got %s", code)
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/tags/resolve", "", map[string]string{"name": "ERRAND"})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on resolve, got %d", status)
	}
}

func TestPomodoroRoutes(t *testing.T) {
	engine := setupTestEngine(t, false)

	state := getState(t, engine)
	if state.State.Phase != "focus" || state.State.RemainingSeconds != 25*60 {
		t.Fatalf("unexpected initial state: %+v", state.State)
	}

	status, body := requestJSON(t, engine, http.MethodPost, "/api/pomodoro/start", "", map[string]string{"taskId": "missing"})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown task, got %d: %s", status, string(body))
	}

	_, body = requestJSON(t, engine, http.MethodPost, "/api/tasks", "", map[string]any{"name": "Focus target"})
	taskID := decode[taskEnvelope](t, body).Task.ID

	status, body = requestJSON(t, engine, http.MethodPost, "/api/pomodoro/start", "", map[string]string{"taskId": taskID})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on start, got %d: %s", status, string(body))
	}
	started := decode[stateEnvelope](t, body)
	if !started.State.IsRunning || started.State.CurrentTaskID == nil || *started.State.CurrentTaskID != taskID {
		t.Fatalf("expected running timer bound to task, got %+v", started.State)
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/pomodoro/skip", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on skip, got %d", status)
	}
	if phase := decode[stateEnvelope](t, body).State.Phase; phase != "short_break" {
		t.Fatalf("expected short_break after skip, got %s", phase)
	}

	status, body = requestJSON(t, engine, http.MethodPut, "/api/pomodoro/settings", "", map[string]any{"focusMinutes": 50})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on settings, got %d: %s", status, string(body))
	}
	if focus := decode[stateEnvelope](t, body).State.Settings.FocusMinutes; focus != 50 {
		t.Fatalf("expected focusMinutes 50, got %d", focus)
	}

	status, body = requestJSON(t, engine, http.MethodPut, "/api/pomodoro/settings", "", map[string]any{})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty settings, got %d", status)
	}
	if code := decode[apiErrorEnvelope](t, body).Error.Code; code != "invalid_settings" {
		t.Fatalf("expected invalid_settings, got %s", code)
	}
}

func TestBackupExportImport(t *testing.T) {
	engine := setupTestEngine(t, false)

	requestJSON(t, engine, http.MethodPost, "/api/tasks", "", map[string]any{"name": "Kept in backup"})

	status, exported := requestJSON(t, engine, http.MethodGet, "/api/backup/export", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on export, got %d", status)
	}
	var exportDoc struct {
		Version string            `json:"version"`
		Tasks   []json.RawMessage `json:"tasks"`
	}
	if err := json.Unmarshal(exported, &exportDoc); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	if exportDoc.Version != "test" || len(exportDoc.Tasks) != 1 {
		t.Fatalf("unexpected export: version=%s tasks=%d", exportDoc.Version, len(exportDoc.Tasks))
	}

	requestJSON(t, engine, http.MethodPost, "/api/tasks", "", map[string]any{"name": "Added after export"})

	req := httptest.NewRequest(http.MethodPost, "/api/backup/import?strategy=overwrite", bytes.NewReader(exported))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 on import, got %d: %s", recorder.Code, recorder.Body.String())
	}

	_, body := requestJSON(t, engine, http.MethodGet, "/api/tasks", "", nil)
	tasks := decode[tasksEnvelope](t, body).Tasks
	if len(tasks) != 1 || tasks[0].Name != "Kept in backup" {
		t.Fatalf("expected imported tasks only, got %+v", tasks)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/backup/import", bytes.NewBufferString("not json"))
	recorder = httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid import, got %d", recorder.Code)
	}
	if code := decode[apiErrorEnvelope](t, recorder.Body.Bytes()).Error.Code; code != "parse_error" {
		t.Fatalf("expected parse_error, got %s", code)
	}

	status, body = requestJSON(t, engine, http.MethodGet, "/api/backup/usage", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on usage, got %d", status)
	}
	var usage struct {
		Usage struct {
			Namespace string `json:"namespace"`
			UsedBytes int    `json:"usedBytes"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &usage); err != nil {
		t.Fatalf("unmarshal usage: %v", err)
	}
	if usage.Usage.Namespace != "test" || usage.Usage.UsedBytes == 0 {
		t.Fatalf("unexpected usage: %+v", usage.Usage)
	}
}

func TestDashboardRoute(t *testing.T) {
	engine := setupTestEngine(t, false)
	requestJSON(t, engine, http.MethodPost, "/api/tasks", "", map[string]any{"name": "a", "estimatedDurationMinutes": 40})

	status, body := requestJSON(t, engine, http.MethodGet, "/api/dashboard", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on dashboard, got %d", status)
	}
	var resp struct {
		Stats struct {
			TotalPlannedMinutes int               `json:"totalPlannedMinutes"`
			WeeklyCompleted     []json.RawMessage `json:"weeklyCompleted"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal dashboard: %v", err)
	}
	if resp.Stats.TotalPlannedMinutes != 40 || len(resp.Stats.WeeklyCompleted) != 7 {
		t.Fatalf("unexpected dashboard: %+v", resp.Stats)
	}
}

func TestAuthEnabledRequiresSession(t *testing.T) {
	engine := setupTestEngine(t, true)

	status, _ := requestJSON(t, engine, http.MethodGet, "/api/tasks", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/session/login", "", map[string]string{"passphrase": "whatever"})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 before setup, got %d", status)
	}

	status, body := requestJSON(t, engine, http.MethodPost, "/api/session/setup", "", map[string]string{"passphrase": "correct horse"})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on setup, got %d: %s", status, string(body))
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/session/login", "", map[string]string{"passphrase": "wrong horse"})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong passphrase, got %d", status)
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/session/login", "", map[string]string{"passphrase": "correct horse"})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on login, got %d", status)
	}
	token := decode[tokenResponse](t, body).Token
	if token == "" {
		t.Fatal("expected token")
	}

	status, _ = requestJSON(t, engine, http.MethodGet, "/api/tasks", token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", status)
	}

	status, body = requestJSON(t, engine, http.MethodGet, "/api/session/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on me, got %d", status)
	}
	var me struct {
		Subject string `json:"subject"`
	}
	if err := json.Unmarshal(body, &me); err != nil {
		t.Fatalf("unmarshal me: %v", err)
	}
	if me.Subject == "" {
		t.Fatal("expected subject in session")
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := setupTestEngine(t, false)
	req := httptest.NewRequest(http.MethodOptions, "/api/tasks/abc", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
	if !bytes.Contains([]byte(recorder.Header().Get("Access-Control-Allow-Methods")), []byte("PATCH")) {
		t.Fatalf("expected PATCH in allowed methods, got %s", recorder.Header().Get("Access-Control-Allow-Methods"))
	}
}

func setupTestEngine(t *testing.T, authEnabled bool) http.Handler {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	if err := db.RunMigrations(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	gateway := storage.New(storage.NewSQLiteMedium(database, 0), "test", storage.WithVersion("test"))
	application := app.New(gateway, app.Options{
		SaveDelay:    10 * time.Millisecond,
		TickInterval: time.Hour,
		Location:     time.UTC,
	})
	t.Cleanup(application.Close)

	authService := service.NewAuthService(gateway, "test-secret", time.Hour)
	pomodoroService := service.NewPomodoroService(application.Pomodoro, application.Tasks)
	backupService := service.NewBackupService(application, 64*1024)

	return router.New(authService, authEnabled, router.Handlers{
		Auth:      handler.NewAuthHandler(authService, authEnabled),
		Tasks:     handler.NewTaskHandler(application.Tasks),
		Projects:  handler.NewProjectHandler(application.Projects),
		Tags:      handler.NewTagHandler(application.Tags),
		Pomodoro:  handler.NewPomodoroHandler(pomodoroService),
		Backup:    handler.NewBackupHandler(backupService),
		Dashboard: handler.NewDashboardHandler(application),
	}, []string{"http://localhost:5173"})
}

func getState(t *testing.T, server http.Handler) stateEnvelope {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodGet, "/api/pomodoro/state", "", nil)
	if status != http.StatusOK {
		t.Fatalf("get state failed with status %d: %s", status, string(body))
	}
	return decode[stateEnvelope](t, body)
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", string(body), err)
	}
	return out
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
