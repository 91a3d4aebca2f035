package orderstatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	parts := strings.Split(s.Name, "-")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

type Enum struct {
	Pending   Status
	Preparing Status
	Ready     Status
	Completed Status
	Archived  Status
}

var Statuses = Enum{
	Pending:   Status{Name: "pending"},
	Preparing: Status{Name: "preparing"},
	Ready:     Status{Name: "ready"},
	Completed: Status{Name: "completed"},
	Archived:  Status{Name: "archived"},
}

// All lists statuses in lifecycle order. Transitions only move forward.
var All = []Status{
	Statuses.Pending,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Completed,
	Statuses.Archived,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}

// rank returns the position of a status in the lifecycle, or -1.
func rank(name string) int {
	for i, s := range All {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// CanAdvance reports whether an order may move from one status to another.
// Statuses are one-directional; archived is terminal.
func CanAdvance(from, to string) bool {
	f, t := rank(from), rank(to)
	if f < 0 || t < 0 {
		return false
	}
	if from == Statuses.Archived.Name {
		return false
	}
	return t > f
}
