package nav

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

type fixedSession struct {
	sess schema.Session
	err  error
}

func (f fixedSession) Load() (schema.Session, error) { return f.sess, f.err }

func TestGuard(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	none := fixedSession{err: schema.ErrNoSession}
	live := fixedSession{sess: schema.Session{AccessToken: "eyJ.x.y", ExpiresAt: now.Add(time.Hour)}}
	stale := fixedSession{sess: schema.Session{AccessToken: "eyJ.x.y", ExpiresAt: now.Add(-time.Second)}}

	tests := []struct {
		name string
		src  SessionSource
		path string
		want string
	}{
		{"protected without session", none, "/objects", Login},
		{"protected with expired session", stale, "/objects/abc", Login},
		{"protected with session", live, "/objects/abc", "/objects/abc"},
		{"login while signed out", none, Login, Login},
		{"login while signed in", live, Login, Dashboard},
		{"unknown path signed in", live, "/nowhere", Dashboard},
		{"unknown path signed out", none, "/nowhere", Login},
		{"runtime view", live, "/apps/a1", "/apps/a1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GuardAt(tt.src, tt.path, now); got != tt.want {
				t.Errorf("GuardAt(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestMatchAndMode(t *testing.T) {
	r, params, ok := Match("/objects/o-1")
	if !ok || r.Pattern != ObjectDetail || params["id"] != "o-1" {
		t.Errorf("Unexpected match %v %v %v", r, params, ok)
	}
	if ModeFor("/apps/x") != Runtime || ModeFor("/fields") != Development {
		t.Error("Unexpected mode")
	}
}

func TestSidebar(t *testing.T) {
	dev := Sidebar(Development, nil, "/objects/o-1")
	var labels []string
	for _, it := range dev {
		labels = append(labels, it.Label)
		if it.Path == Objects && !it.Active {
			t.Error("Expected Objects to be active on an object detail page")
		}
	}
	if diff := cmp.Diff([]string{"Dashboard", "Fields", "Objects", "Relationships", "Applications"}, labels); diff != "" {
		t.Errorf("dev sidebar mismatch (-want +got):\n%s", diff)
	}

	published := time.Now()
	apps := []schema.Application{
		{ID: "a1", Label: "CRM", PublishedAt: &published},
		{ID: "a2", Label: "Draft"},
	}
	got := Sidebar(Runtime, apps, "/apps/a1")
	want := []Item{{Label: "CRM", Path: "/apps/a1", Active: true}, {Label: "Back to builder", Path: Dashboard}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("runtime sidebar mismatch (-want +got):\n%s", diff)
	}
}

func TestBreadcrumbs(t *testing.T) {
	names := map[string]string{"o-1": "Contact"}
	got := Breadcrumbs("/objects/o-1", func(id string) string { return names[id] })
	want := []Crumb{{"Home", Dashboard}, {"Objects", Objects}, {"Contact", ""}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("breadcrumbs mismatch (-want +got):\n%s", diff)
	}

	got = Breadcrumbs("/dashboard", nil)
	if diff := cmp.Diff([]Crumb{{"Home", ""}}, got); diff != "" {
		t.Errorf("dashboard breadcrumbs mismatch (-want +got):\n%s", diff)
	}

	got = Breadcrumbs("/apps/a9", nil)
	want = []Crumb{{"Home", Dashboard}, {"Applications", "/apps"}, {"a9", ""}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("app breadcrumbs mismatch (-want +got):\n%s", diff)
	}
}
