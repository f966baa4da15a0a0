package tasklist

import (
	"sort"
	"strings"
)

type SortKey string

const (
	SortByCreateTime SortKey = "create_time"
	SortByDueTime    SortKey = "due_time"
	SortByPriority   SortKey = "priority"
	SortByTitle      SortKey = "title"
	SortByStatus     SortKey = "status"
	SortByCategory   SortKey = "category"
)

type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// SetSort re-sorts the visible projection in place.
func (l *List) SetSort(key SortKey, order Order) {
	l.sortKey = key
	l.order = order
	l.sortTasks()
	if len(l.tasks) > 0 {
		l.notifyRowsChanged(0, len(l.tasks)-1)
	}
}

func (l *List) Sort() (SortKey, Order) {
	return l.sortKey, l.order
}

// sortTasks orders by the active key. Descending is the strict negation
// of the ascending comparator, so ties reverse along with the key; callers
// that need stable ties should sort ascending.
func (l *List) sortTasks() {
	less := l.lessFunc()
	if l.order == Descending {
		asc := less
		less = func(i, j int) bool { return asc(j, i) }
	}
	sort.SliceStable(l.tasks, less)
}

func (l *List) lessFunc() func(i, j int) bool {
	ts := l.tasks
	switch l.sortKey {
	case SortByDueTime:
		// Tasks without a due time sort after every task that has one.
		return func(i, j int) bool {
			a, b := ts[i].DueTime, ts[j].DueTime
			switch {
			case a == nil && b == nil:
				return false
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		}
	case SortByPriority:
		// Most urgent first on ascending.
		return func(i, j int) bool { return ts[i].Priority > ts[j].Priority }
	case SortByTitle:
		return func(i, j int) bool {
			return strings.ToLower(ts[i].Title) < strings.ToLower(ts[j].Title)
		}
	case SortByStatus:
		return func(i, j int) bool { return ts[i].Status < ts[j].Status }
	case SortByCategory:
		return func(i, j int) bool {
			return strings.ToLower(ts[i].Category) < strings.ToLower(ts[j].Category)
		}
	default:
		return func(i, j int) bool { return ts[i].CreateTime.Before(ts[j].CreateTime) }
	}
}

// ParseSortKey maps user input to a sort key.
func ParseSortKey(s string) (SortKey, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "created", "create", "create_time":
		return SortByCreateTime, true
	case "due", "due_time":
		return SortByDueTime, true
	case "priority", "prio":
		return SortByPriority, true
	case "title", "name":
		return SortByTitle, true
	case "status":
		return SortByStatus, true
	case "category", "cat":
		return SortByCategory, true
	default:
		return "", false
	}
}
