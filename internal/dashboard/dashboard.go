package dashboard

import (
	"fmt"
	"time"

	"ptm/backend/internal/model"
	"ptm/backend/internal/task"
)

const seriesDays = 7

type WeeklyPoint struct {
	Date  model.Timestamp `json:"date"`
	Label string          `json:"label"`
	Count int             `json:"count"`
}

type ProjectSummary struct {
	ProjectID      string  `json:"projectId"`
	ProjectName    string  `json:"projectName"`
	ProjectColor   *string `json:"projectColor,omitempty"`
	TotalTasks     int     `json:"totalTasks"`
	CompletedTasks int     `json:"completedTasks"`
}

type Stats struct {
	TotalPlannedMinutes int              `json:"totalPlannedMinutes"`
	IncompleteCount     int              `json:"incompleteCount"`
	CompletedCount      int              `json:"completedCount"`
	TodayTotalTasks     int              `json:"todayTotalTasks"`
	TodayCompletedTasks int              `json:"todayCompletedTasks"`
	TodayCompletionRate float64          `json:"todayCompletionRate"`
	WeeklyCompleted     []WeeklyPoint    `json:"weeklyCompleted"`
	ProjectSummaries    []ProjectSummary `json:"projectSummaries"`
}

// Calculate derives the dashboard figures. Day boundaries are midnight in loc.
func Calculate(tasks []model.Task, projects []model.Project, now time.Time, loc *time.Location) Stats {
	if loc == nil {
		loc = time.Local
	}
	today := task.StartOfDay(now, loc)

	stats := Stats{
		WeeklyCompleted:  weeklySeries(tasks, today),
		ProjectSummaries: projectSummaries(tasks, projects),
	}
	for _, t := range tasks {
		stats.TotalPlannedMinutes += plannedMinutes(t)
		if t.Completed {
			stats.CompletedCount++
		} else {
			stats.IncompleteCount++
		}

		if t.DueDate == nil {
			continue
		}
		due, ok := task.DueDay(*t.DueDate, loc)
		if !ok || !due.Equal(today) {
			continue
		}
		stats.TodayTotalTasks++
		if t.Completed {
			stats.TodayCompletedTasks++
		}
	}
	if stats.TodayTotalTasks > 0 {
		stats.TodayCompletionRate = float64(stats.TodayCompletedTasks) / float64(stats.TodayTotalTasks) * 100
	}
	return stats
}

func plannedMinutes(t model.Task) int {
	if t.EstimatedDurationMinutes > 0 {
		return t.EstimatedDurationMinutes
	}
	return model.DefaultEstimatedDurationMinutes
}

// weeklySeries counts completions per day for the seven days ending today.
func weeklySeries(tasks []model.Task, today time.Time) []WeeklyPoint {
	start := today.AddDate(0, 0, -(seriesDays - 1))
	series := make([]WeeklyPoint, seriesDays)
	for i := range series {
		day := start.AddDate(0, 0, i)
		series[i] = WeeklyPoint{
			Date:  model.NewTimestamp(day),
			Label: fmt.Sprintf("%d/%d", int(day.Month()), day.Day()),
		}
	}

	end := today.AddDate(0, 0, 1)
	for _, t := range tasks {
		if t.CompletedAt == nil || t.CompletedAt.IsZero() {
			continue
		}
		at := t.CompletedAt.Time
		if at.Before(start) || !at.Before(end) {
			continue
		}
		for i := seriesDays - 1; i >= 0; i-- {
			if !at.Before(start.AddDate(0, 0, i)) {
				series[i].Count++
				break
			}
		}
	}
	return series
}

func projectSummaries(tasks []model.Task, projects []model.Project) []ProjectSummary {
	summaries := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summary := ProjectSummary{
			ProjectID:    p.ID,
			ProjectName:  p.Name,
			ProjectColor: p.Color,
		}
		for _, t := range tasks {
			if t.ProjectID == nil || *t.ProjectID != p.ID {
				continue
			}
			summary.TotalTasks++
			if t.Completed {
				summary.CompletedTasks++
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
