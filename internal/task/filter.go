package task

import (
	"strings"
	"time"

	"ptm/backend/internal/model"
)

type Filter string

const (
	FilterAll          Filter = "all"
	FilterToday        Filter = "today"
	FilterTomorrow     Filter = "tomorrow"
	FilterOverdue      Filter = "overdue"
	FilterThisWeek     Filter = "thisWeek"
	FilterNext7Days    Filter = "next7Days"
	FilterHighPriority Filter = "highPriority"
	FilterCompleted    Filter = "completed"
	FilterUpcoming     Filter = "upcoming"
)

func IsValidFilter(f Filter) bool {
	switch f {
	case FilterAll, FilterToday, FilterTomorrow, FilterOverdue, FilterThisWeek,
		FilterNext7Days, FilterHighPriority, FilterCompleted, FilterUpcoming:
		return true
	}
	return false
}

// SetSearchQuery stores the raw query; matching uses its trimmed lowercase form.
func (s *Store) SetSearchQuery(query string) {
	s.mu.Lock()
	s.searchQuery = query
	s.mu.Unlock()
}

func (s *Store) SearchQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchQuery
}

// Filtered applies the bucket filter and then the current search query.
// Unknown filters behave like FilterAll.
func (s *Store) Filtered(filter Filter) []model.Task {
	return s.FilteredBy(filter, s.SearchQuery())
}

// FilteredBy is Filtered with an explicit query in place of the stored one.
func (s *Store) FilteredBy(filter Filter, query string) []model.Task {
	query = strings.ToLower(strings.TrimSpace(query))
	s.mu.RLock()
	tasks := s.tasks
	s.mu.RUnlock()

	if (filter == FilterAll || !IsValidFilter(filter)) && query == "" {
		return model.CloneTasks(tasks)
	}

	today := StartOfDay(s.now(), s.loc)
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if !matchesFilter(t, filter, today, s.loc) {
			continue
		}
		out = append(out, t)
	}

	if query != "" {
		// Resolvers are called outside the store lock.
		r := s.currentResolvers()
		searched := out[:0:0]
		for _, t := range out {
			if matchesQuery(t, query, r) {
				searched = append(searched, t)
			}
		}
		out = searched
	}
	return model.CloneTasks(out)
}

// StartOfDay truncates t to local midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DueDay returns the calendar day of a due date in loc. Plain dates are taken
// as that day in loc; timestamps are converted first.
func DueDay(raw string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if d, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return d, true
	}
	t, err := model.ParseTime(raw)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return StartOfDay(t, loc), true
}

func matchesFilter(t model.Task, filter Filter, today time.Time, loc *time.Location) bool {
	switch filter {
	case FilterHighPriority:
		return t.Priority != nil && *t.Priority == model.PriorityHigh
	case FilterCompleted:
		return t.Completed
	case FilterToday, FilterTomorrow, FilterOverdue, FilterThisWeek, FilterNext7Days, FilterUpcoming:
	default:
		return true
	}

	if t.DueDate == nil {
		return false
	}
	due, ok := DueDay(*t.DueDate, loc)
	if !ok {
		return false
	}

	switch filter {
	case FilterToday:
		return due.Equal(today)
	case FilterTomorrow:
		return due.Equal(today.AddDate(0, 0, 1))
	case FilterOverdue:
		return due.Before(today) && !t.Completed
	case FilterThisWeek:
		saturday := today.AddDate(0, 0, int(time.Saturday-today.Weekday()))
		return !due.Before(today) && !due.After(saturday)
	case FilterNext7Days:
		return due.After(today) && !due.After(today.AddDate(0, 0, 7))
	case FilterUpcoming:
		return due.After(today)
	}
	return false
}

func matchesQuery(t model.Task, query string, r Resolvers) bool {
	if strings.Contains(strings.ToLower(t.Name), query) {
		return true
	}
	if t.Description != nil && strings.Contains(strings.ToLower(*t.Description), query) {
		return true
	}
	if t.ProjectID != nil {
		if name, ok := r.ProjectName(*t.ProjectID); ok && strings.Contains(strings.ToLower(name), query) {
			return true
		}
	}
	if len(t.TagIDs) > 0 {
		names := make([]string, 0, len(t.TagIDs))
		for _, id := range t.TagIDs {
			if name, ok := r.TagName(id); ok {
				names = append(names, name)
			}
		}
		if strings.Contains(strings.ToLower(strings.Join(names, " ")), query) {
			return true
		}
	}
	return false
}
