package alert

import "time"

var activeStatuses = []Status{StatusResponding, StatusEnRoute, StatusOnScene}

// transitions lists the allowed targets per source state. Active states can
// move among each other in any order and re-apply themselves to add a note.
var transitions = map[Status][]Status{
	StatusNew:        {StatusResponding, StatusEnRoute, StatusOnScene, StatusCancelled},
	StatusResponding: append(append([]Status{}, activeStatuses...), StatusCompleted, StatusCancelled),
	StatusEnRoute:    append(append([]Status{}, activeStatuses...), StatusCompleted, StatusCancelled),
	StatusOnScene:    append(append([]Status{}, activeStatuses...), StatusCompleted, StatusCancelled),
	StatusCompleted:  nil,
	StatusCancelled:  nil,
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transitions leave s.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}

// ArchivalPolicy decides which terminal states move a record to the archive.
type ArchivalPolicy struct {
	ArchiveCancelled bool
}

// Archives reports whether reaching s moves the alert to the archive.
func (p ArchivalPolicy) Archives(s Status) bool {
	switch s {
	case StatusCompleted:
		return true
	case StatusCancelled:
		return p.ArchiveCancelled
	}
	return false
}

// ApplyTransition appends a history entry and updates status, timestamps and,
// on the first staff transition, the assigned responder. It does not check
// CanTransition.
func (a *Alert) ApplyTransition(to Status, note, actorID string, at time.Time) {
	a.StatusHistory = append(a.StatusHistory, StatusEntry{
		Status:    to,
		Timestamp: at,
		Note:      note,
		ActorID:   actorID,
	})
	a.Status = to
	a.UpdatedAt = at
	if a.AssignedResponderID == "" && actorID != "" {
		a.AssignedResponderID = actorID
	}
}

// Archive builds the archived copy of a.
func (a *Alert) Archive(at time.Time) *ArchivedAlert {
	cp := *a
	cp.StatusHistory = append([]StatusEntry(nil), a.StatusHistory...)
	return &ArchivedAlert{Alert: cp, ArchivedAt: at}
}
