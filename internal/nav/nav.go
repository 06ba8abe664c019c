// Package nav is the navigation shell: the route table, the auth guard,
// the development/applications mode switch, sidebar and breadcrumbs.
package nav

import (
	"strings"
	"time"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

const (
	Login         = "/login"
	Dashboard     = "/dashboard"
	Fields        = "/fields"
	Objects       = "/objects"
	ObjectDetail  = "/objects/:id"
	Relationships = "/relationships"
	Applications  = "/applications"
	AppRuntime    = "/apps/:id"
)

type Mode int

const (
	Development Mode = iota
	Runtime
)

func (m Mode) String() string {
	if m == Runtime {
		return "applications"
	}
	return "development"
}

type Route struct {
	Pattern string
	Title   string
	Public  bool
	Mode    Mode
}

var routes = []Route{
	{Pattern: Login, Title: "Sign in", Public: true},
	{Pattern: Dashboard, Title: "Dashboard"},
	{Pattern: Fields, Title: "Fields"},
	{Pattern: Objects, Title: "Objects"},
	{Pattern: ObjectDetail, Title: "Object"},
	{Pattern: Relationships, Title: "Relationships"},
	{Pattern: Applications, Title: "Applications"},
	{Pattern: AppRuntime, Title: "Application", Mode: Runtime},
}

func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

func split(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
}

// Match finds the route for path and its parameters.
func Match(path string) (Route, map[string]string, bool) {
	segs := split(path)
	for _, r := range routes {
		pat := split(r.Pattern)
		if len(pat) != len(segs) {
			continue
		}
		params := map[string]string{}
		ok := true
		for i, p := range pat {
			if strings.HasPrefix(p, ":") {
				params[p[1:]] = segs[i]
			} else if p != segs[i] {
				ok = false
				break
			}
		}
		if ok {
			return r, params, true
		}
	}
	return Route{}, nil, false
}

// Path fills a pattern's parameters.
func Path(pattern string, id string) string {
	return strings.Replace(pattern, ":id", id, 1)
}

// SessionSource is satisfied by sdk.TokenStore.
type SessionSource interface {
	Load() (schema.Session, error)
}

func authenticated(src SessionSource, now time.Time) bool {
	sess, err := src.Load()
	return err == nil && sess.AccessToken != "" && !sess.Expired(now)
}

// Guard returns where a navigation to path should land: path itself, the
// login page for protected routes without a live session, or the
// dashboard for unknown paths and for the login page when already signed
// in.
func Guard(src SessionSource, path string) string {
	return GuardAt(src, path, time.Now())
}

func GuardAt(src SessionSource, path string, now time.Time) string {
	route, _, ok := Match(path)
	authed := authenticated(src, now)
	switch {
	case !ok:
		if !authed {
			return Login
		}
		return Dashboard
	case route.Public:
		if authed {
			return Dashboard
		}
		return path
	case !authed:
		return Login
	}
	return path
}

// ModeFor tells which shell a path belongs to.
func ModeFor(path string) Mode {
	if r, _, ok := Match(path); ok {
		return r.Mode
	}
	return Development
}

type Item struct {
	Label  string
	Path   string
	Active bool
}

// Sidebar lists the builder pages in development mode and the published
// applications in runtime mode.
func Sidebar(mode Mode, apps []schema.Application, current string) []Item {
	var items []Item
	if mode == Development {
		for _, r := range []Route{routes[1], routes[2], routes[3], routes[5], routes[6]} {
			items = append(items, Item{Label: r.Title, Path: r.Pattern})
		}
	} else {
		for _, a := range apps {
			if a.Published() {
				items = append(items, Item{Label: a.Label, Path: Path(AppRuntime, a.ID)})
			}
		}
		items = append(items, Item{Label: "Back to builder", Path: Dashboard})
	}
	for i := range items {
		items[i].Active = items[i].Path == current ||
			(items[i].Path != Dashboard && strings.HasPrefix(current, items[i].Path+"/"))
	}
	return items
}

type Crumb struct {
	Label string
	Path  string // empty for the current page
}

// Breadcrumbs derives the trail for path. name resolves an id segment to
// a label and may be nil.
func Breadcrumbs(path string, name func(id string) string) []Crumb {
	segs := split(path)
	if len(segs) == 0 {
		return nil
	}
	crumbs := []Crumb{{Label: "Home", Path: Dashboard}}
	if segs[0] == "dashboard" {
		crumbs[0].Path = ""
		return crumbs
	}
	prefix := ""
	for i, s := range segs {
		prefix += "/" + s
		label := s
		if r, _, ok := Match(prefix); ok && !strings.Contains(r.Pattern, ":") {
			label = r.Title
		} else if i > 0 && name != nil {
			if n := name(s); n != "" {
				label = n
			}
		} else if i == 0 && s == "apps" {
			label = "Applications"
		}
		c := Crumb{Label: label, Path: prefix}
		if i == len(segs)-1 {
			c.Path = ""
		}
		crumbs = append(crumbs, c)
	}
	return crumbs
}
