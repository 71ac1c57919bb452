package ui

import (
	"strings"
	"testing"

	"hirindex/internal/driver"
)

func TestProgressModelCountsSettledOwners(t *testing.T) {
	events := make(chan driver.ProgressEvent)
	m := NewProgressModel("index demo", []string{"crate", "crate::f", "crate::g"}, events).(*progressModel)

	for _, ev := range []driver.ProgressEvent{
		{Path: "crate", Status: driver.OwnerIndexing},
		{Path: "crate", Status: driver.OwnerDone},
		{Path: "crate::f", Status: driver.OwnerIndexing},
		{Path: "crate::g", Status: driver.OwnerFailed},
		{Path: "crate::unknown", Status: driver.OwnerDone},
	} {
		m.Update(eventMsg(ev))
	}

	view := m.View()
	if !strings.Contains(view, "2/3 owners, 1 failed") {
		t.Fatalf("view:\n%s", view)
	}
	if !strings.Contains(view, "crate::f") || !strings.Contains(view, "indexing") {
		t.Fatalf("active owner missing:\n%s", view)
	}

	m.Update(doneMsg{})
	if !strings.Contains(m.View(), "done: index demo") {
		t.Fatalf("view after done:\n%s", m.View())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"crate::geo", 20, "crate::geo"},
		{"crate::geometry::Point", 10, "crate::..."},
		{"crate", 2, "cr"},
		{"crate", 0, "crate"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
