package ballots

import "time"

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
)

// StatusAt derives the lifecycle state. Both window bounds are inclusive.
func StatusAt(start, end, now time.Time) Status {
	switch {
	case now.Before(start):
		return StatusScheduled
	case now.After(end):
		return StatusClosed
	default:
		return StatusOpen
	}
}

type StatusFilter string

const (
	StatusFilterAll    StatusFilter = "all"
	StatusFilterOpen   StatusFilter = "open"
	StatusFilterClosed StatusFilter = "closed"
)

// Matches reports whether a ballot in state s is selected by f. Scheduled
// ballots are only visible under StatusFilterAll.
func (f StatusFilter) Matches(s Status) bool {
	switch f {
	case StatusFilterOpen:
		return s == StatusOpen
	case StatusFilterClosed:
		return s == StatusClosed
	default:
		return true
	}
}
