package alert

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusNew, StatusResponding, true},
		{StatusNew, StatusOnScene, true},
		{StatusNew, StatusCancelled, true},
		{StatusNew, StatusCompleted, false},
		{StatusNew, StatusNew, false},
		{StatusResponding, StatusEnRoute, true},
		{StatusEnRoute, StatusResponding, true},
		{StatusOnScene, StatusOnScene, true},
		{StatusOnScene, StatusCompleted, true},
		{StatusEnRoute, StatusNew, false},
		{StatusCompleted, StatusResponding, false},
		{StatusCancelled, StatusNew, false},
		{Status("bogus"), StatusResponding, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		if !IsTerminal(s) {
			t.Errorf("Expected %s to be terminal", s)
		}
	}
	for _, s := range []Status{StatusNew, StatusResponding, StatusEnRoute, StatusOnScene} {
		if IsTerminal(s) {
			t.Errorf("Expected %s to be active", s)
		}
	}
}

func TestArchivalPolicy(t *testing.T) {
	tests := []struct {
		name   string
		policy ArchivalPolicy
		status Status
		want   bool
	}{
		{"completed always archives", ArchivalPolicy{}, StatusCompleted, true},
		{"cancelled stays live by default", ArchivalPolicy{}, StatusCancelled, false},
		{"cancelled archives when enabled", ArchivalPolicy{ArchiveCancelled: true}, StatusCancelled, true},
		{"active never archives", ArchivalPolicy{ArchiveCancelled: true}, StatusOnScene, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Archives(tt.status); got != tt.want {
				t.Errorf("Archives(%s) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestApplyTransition(t *testing.T) {
	created := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	a := &Alert{
		ID:            "a1",
		Status:        StatusNew,
		StatusHistory: []StatusEntry{{Status: StatusNew, Timestamp: created}},
		CreatedAt:     created,
		UpdatedAt:     created,
	}

	t1 := created.Add(time.Minute)
	a.ApplyTransition(StatusResponding, "", "medic-1", t1)
	if a.AssignedResponderID != "medic-1" {
		t.Errorf("Expected first responder to be assigned, got %q", a.AssignedResponderID)
	}

	t2 := t1.Add(time.Minute)
	a.ApplyTransition(StatusEnRoute, "leaving station", "medic-2", t2)
	if a.AssignedResponderID != "medic-1" {
		t.Errorf("Expected assignment to stick, got %q", a.AssignedResponderID)
	}
	if a.Status != StatusEnRoute || !a.UpdatedAt.Equal(t2) {
		t.Errorf("Unexpected status/timestamp: %s %v", a.Status, a.UpdatedAt)
	}
	if len(a.StatusHistory) != 3 || a.StatusHistory[2].Note != "leaving station" || a.StatusHistory[2].ActorID != "medic-2" {
		t.Errorf("Unexpected history: %+v", a.StatusHistory)
	}

	archived := a.Archive(t2)
	archived.StatusHistory[0].Note = "mutated"
	if a.StatusHistory[0].Note == "mutated" {
		t.Error("Archive copy shares history with the live alert")
	}
	if !archived.ArchivedAt.Equal(t2) {
		t.Errorf("Expected ArchivedAt %v, got %v", t2, archived.ArchivedAt)
	}
}

func TestReporterValid(t *testing.T) {
	tests := []struct {
		name string
		r    Reporter
		want bool
	}{
		{"account", Reporter{UserID: "u1"}, true},
		{"anonymous", Reporter{Name: "Maria", Phone: "+63917"}, true},
		{"anonymous missing phone", Reporter{Name: "Maria"}, false},
		{"both forms", Reporter{UserID: "u1", Name: "Maria", Phone: "+63917"}, false},
		{"empty", Reporter{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseArchiveSort(t *testing.T) {
	tests := map[string]ArchiveSort{
		"":             SortArchivedDesc,
		"archived_asc": SortArchivedAsc,
		"created_desc": SortCreatedDesc,
		"created_asc":  SortCreatedAsc,
		"drop table":   SortArchivedDesc,
	}

	for in, want := range tests {
		if got := ParseArchiveSort(in); got != want {
			t.Errorf("ParseArchiveSort(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestIncidentLabel(t *testing.T) {
	if IncidentVehicularAccident.Label() != "Vehicular Accident" {
		t.Errorf("Unexpected label %q", IncidentVehicularAccident.Label())
	}
	if IncidentType("volcano").Valid() {
		t.Error("Expected unknown incident type to be invalid")
	}
	if IncidentType("volcano").Label() != "volcano" {
		t.Error("Expected unknown incident type to label as itself")
	}
}
