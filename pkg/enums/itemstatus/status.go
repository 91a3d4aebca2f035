package itemstatus

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
	New       Status
	Sent      Status
	Cancelled Status
	Edited    Status
}

var Statuses = Enum{
	New:       Status{Name: "new"},
	Sent:      Status{Name: "sent"},
	Cancelled: Status{Name: "cancelled"},
	Edited:    Status{Name: "edited"},
}

var All = []Status{
	Statuses.New,
	Statuses.Sent,
	Statuses.Cancelled,
	Statuses.Edited,
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

// CanTransition reports whether a line item may move between statuses.
// A line moves new -> sent once dispatched; sent lines may only be
// cancelled or edited (edited always co-occurs with a replacement line).
func CanTransition(from, to string) bool {
	switch from {
	case Statuses.New.Name:
		return to == Statuses.Sent.Name
	case Statuses.Sent.Name:
		return to == Statuses.Cancelled.Name || to == Statuses.Edited.Name
	default:
		return false
	}
}
