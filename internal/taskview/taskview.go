// Package taskview derives filtered, searched and sorted views over an
// in-memory task list. Every function is pure: inputs are never mutated
// and nothing is persisted.
package taskview

import (
	"sort"
	"strings"

	"taskboard/internal/models"
)

// SortKey selects the comparator used by Sort.
type SortKey string

const (
	SortCreatedAsc  SortKey = "created-asc"
	SortCreatedDesc SortKey = "created-desc"
	SortDueAsc      SortKey = "due-asc"
	SortDueDesc     SortKey = "due-desc"
	SortTitle       SortKey = "title"
	SortStatus      SortKey = "status"
)

// ValidSortKey reports whether key names a known comparator.
func ValidSortKey(key SortKey) bool {
	switch key {
	case SortCreatedAsc, SortCreatedDesc, SortDueAsc, SortDueDesc, SortTitle, SortStatus:
		return true
	}
	return false
}

// Filter keeps tasks whose status equals status. An empty status keeps
// everything.
func Filter(tasks []models.Task, status string) []models.Task {
	if status == "" {
		return tasks
	}
	var out []models.Task
	for _, t := range tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// Search keeps tasks whose title, description or owner name contains
// query, case-insensitively. An empty query keeps everything.
func Search(tasks []models.Task, query string) []models.Task {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return tasks
	}
	var out []models.Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), query) ||
			strings.Contains(strings.ToLower(t.Description), query) ||
			(t.User != nil && strings.Contains(strings.ToLower(t.User.Name), query)) {
			out = append(out, t)
		}
	}
	return out
}

// Sort returns a copy of tasks ordered by the chosen comparator. Tasks
// without a due date sort after all dated tasks in both due-date modes.
func Sort(tasks []models.Task, key SortKey) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)

	less := func(a, b models.Task) bool { return a.CreatedAt.After(b.CreatedAt) }
	switch key {
	case SortCreatedAsc:
		less = func(a, b models.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortCreatedDesc:
		// default above
	case SortDueAsc:
		less = func(a, b models.Task) bool { return dueLess(a, b, true) }
	case SortDueDesc:
		less = func(a, b models.Task) bool { return dueLess(a, b, false) }
	case SortTitle:
		less = func(a, b models.Task) bool { return a.Title < b.Title }
	case SortStatus:
		less = func(a, b models.Task) bool { return models.StatusRank[a.Status] < models.StatusRank[b.Status] }
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func dueLess(a, b models.Task, asc bool) bool {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return false
	case a.DueDate == nil:
		return false
	case b.DueDate == nil:
		return true
	case asc:
		return a.DueDate.Before(*b.DueDate)
	default:
		return a.DueDate.After(*b.DueDate)
	}
}

// Apply runs filter, search and sort in that order. An unknown or empty
// sort key keeps the input ordering.
func Apply(tasks []models.Task, status, query string, key SortKey) []models.Task {
	out := Search(Filter(tasks, status), query)
	if ValidSortKey(key) {
		out = Sort(out, key)
	}
	return out
}
