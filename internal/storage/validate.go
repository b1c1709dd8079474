package storage

import (
	"encoding/json"
	"fmt"
	"math"

	"ptm/backend/internal/model"
)

// Report lists what is wrong with an export bundle. Errors always abort an
// import; warnings abort only in strict mode.
type Report struct {
	Errors   []string
	Warnings []string
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ValidateExport checks the shape of a bundle and the references between its
// collections. Referential checks are skipped once the shape is wrong.
func ValidateExport(raw []byte) Report {
	report := Report{}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		report.errorf("payload is not valid JSON: %v", err)
		return report
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		report.errorf("payload not an object")
		return report
	}

	if version, ok := obj["version"].(string); !ok || version == "" {
		report.errorf("version must be a non-empty string")
	}
	if exportedAt, ok := obj["exportedAt"].(string); !ok || exportedAt == "" {
		report.warnf("exportedAt is not a valid ISO timestamp")
	} else if _, err := model.ParseTime(exportedAt); err != nil {
		report.warnf("exportedAt is not a valid ISO timestamp")
	}

	tasks, tasksOK := obj["tasks"].([]any)
	if !tasksOK {
		report.errorf("tasks must be an array")
	}
	projects, projectsOK := obj["projects"].([]any)
	if !projectsOK {
		report.errorf("projects must be an array")
	}
	tags, tagsOK := obj["tags"].([]any)
	if !tagsOK {
		report.errorf("tags must be an array")
	}
	settings, settingsOK := obj["settings"].(map[string]any)
	if !settingsOK {
		report.errorf("settings must be an object")
	}
	if len(report.Errors) > 0 {
		return report
	}

	projectIDs := collectIDs(&report, "project", projects)
	tagIDs := collectIDs(&report, "tag", tags)

	for _, item := range tasks {
		task, ok := item.(map[string]any)
		if !ok {
			report.errorf("task with invalid id")
			continue
		}
		id, ok := task["id"].(string)
		if !ok || id == "" {
			report.errorf("task with invalid id")
			id = "?"
		}
		_, hasName := task["name"].(string)
		_, hasTitle := task["title"].(string)
		if !hasName && !hasTitle {
			report.warnf("task %s missing/invalid name", id)
		}
		if _, ok := task["completed"].(bool); !ok {
			report.warnf("task %s missing/invalid completed flag", id)
		}
		if projectID, ok := task["projectId"].(string); ok && projectID != "" {
			if _, known := projectIDs[projectID]; !known {
				report.errorf("task %s references missing project %s", id, projectID)
			}
		}
		if refs, ok := task["tagIds"].([]any); ok {
			for _, ref := range refs {
				tagID, _ := ref.(string)
				if _, known := tagIDs[tagID]; !known {
					report.errorf("task %s references missing tag %v", id, ref)
				}
			}
		}
	}

	pomodoro, _ := settings["pomodoro"].(map[string]any)
	for _, field := range []string{"focusMinutes", "shortBreakMinutes", "longBreakMinutes", "longBreakInterval"} {
		value, ok := pomodoro[field].(float64)
		if !ok || math.IsInf(value, 0) || math.IsNaN(value) || value <= 0 {
			report.warnf("pomodoro setting %s is non-positive or invalid", field)
		}
	}

	if theme, _ := settings["theme"].(string); theme != string(model.ThemeLight) && theme != string(model.ThemeDark) {
		report.warnf("settings.theme must be light|dark")
	}

	return report
}

func collectIDs(report *Report, label string, items []any) map[string]struct{} {
	ids := make(map[string]struct{}, len(items))
	for _, item := range items {
		entity, _ := item.(map[string]any)
		id, ok := entity["id"].(string)
		if !ok || id == "" {
			report.errorf("%s with invalid id", label)
			continue
		}
		if _, dup := ids[id]; dup {
			report.errorf("duplicate %s id %s", label, id)
			continue
		}
		ids[id] = struct{}{}
	}
	return ids
}
