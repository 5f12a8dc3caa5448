package kiosk

import (
	"net/http"
	"net/url"
	"strings"
)

// Route names one kiosk page.
type Route string

const (
	RouteHome             Route = "home"
	RouteSelectLocker     Route = "select_locker"
	RoutePrivateAuth      Route = "private_auth"
	RouteRFIDLogin        Route = "rfid_login"
	RouteOpenLocker       Route = "open_locker"
	RoutePinEntry         Route = "pin_entry"
	RouteFingerprintLogin Route = "fingerprint_login"
)

type routeSpec struct {
	path    string
	methods []string
	// replayable routes may be loaded again without consuming session flags.
	replayable bool
}

var routeTable = map[Route]routeSpec{
	RouteHome:             {"/", []string{http.MethodGet, http.MethodPost}, false},
	RouteSelectLocker:     {"/select/", []string{http.MethodGet, http.MethodPost}, true},
	RoutePrivateAuth:      {"/private/", []string{http.MethodGet, http.MethodPost}, true},
	RouteRFIDLogin:        {"/rfid/", []string{http.MethodGet, http.MethodPost}, true},
	RouteOpenLocker:       {"/open/", []string{http.MethodGet}, false},
	RoutePinEntry:         {"/pin/", []string{http.MethodGet, http.MethodPost}, true},
	RouteFingerprintLogin: {"/fingerprint/", []string{http.MethodGet}, false},
}

var routesByPath = func() map[string]Route {
	m := make(map[string]Route, len(routeTable))
	for r, rs := range routeTable {
		m[rs.path] = r
	}
	return m
}()

// Routes returns every named route.
func Routes() []Route {
	return []Route{
		RouteHome, RouteSelectLocker, RoutePrivateAuth, RouteRFIDLogin,
		RouteOpenLocker, RoutePinEntry, RouteFingerprintLogin,
	}
}

// RouteForPath finds the route served at p.
func RouteForPath(p string) (Route, bool) {
	r, ok := routesByPath[p]
	return r, ok
}

// Path returns the URL path of r, or "" for an unknown route.
func (r Route) Path() string {
	return routeTable[r].path
}

// URL returns the path of r with query encoded.
func (r Route) URL(query url.Values) string {
	p := r.Path()
	if len(query) == 0 {
		return p
	}
	return p + "?" + query.Encode()
}

// Allows reports whether method may be used on r.
func (r Route) Allows(method string) bool {
	for _, m := range routeTable[r].methods {
		if m == method {
			return true
		}
	}
	return false
}

// Replayable reports whether a GET of r leaves the session flags as they are,
// so other pages of the same session may safely follow a move to it.
func (r Route) Replayable() bool {
	return routeTable[r].replayable
}

// Allow returns the Allow header value for r.
func (r Route) Allow() string {
	return strings.Join(routeTable[r].methods, ", ")
}
