// Package nav holds client-side navigation: the current location and its
// history, route resolution, and the navigation shell with its login and
// logout affordances.
package nav

import (
	"net/url"
	"sync"
)

// Location is a path plus optional query, e.g. "/login?redirect=%2F".
type Location struct {
	Path     string
	RawQuery string
}

// ParseLocation splits s into path and query. The path stays escaped so an
// escaped "/" inside a symbol survives. Unparseable input maps to "/".
func ParseLocation(s string) Location {
	u, err := url.Parse(s)
	if err != nil || u.Path == "" {
		return Location{Path: "/"}
	}
	return Location{Path: u.EscapedPath(), RawQuery: u.RawQuery}
}

func (l Location) String() string {
	if l.RawQuery == "" {
		return l.Path
	}
	return l.Path + "?" + l.RawQuery
}

// Navigator is an in-memory browser-style history stack.
type Navigator struct {
	mu      sync.Mutex
	history []Location
}

// NewNavigator starts at start.
func NewNavigator(start string) *Navigator {
	return &Navigator{history: []Location{ParseLocation(start)}}
}

// Current returns the active location.
func (n *Navigator) Current() Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.history[len(n.history)-1]
}

// Push navigates to loc, keeping the current location in history.
func (n *Navigator) Push(loc string) {
	n.mu.Lock()
	n.history = append(n.history, ParseLocation(loc))
	n.mu.Unlock()
}

// Replace navigates to loc in place of the current location.
func (n *Navigator) Replace(loc string) {
	n.mu.Lock()
	n.history[len(n.history)-1] = ParseLocation(loc)
	n.mu.Unlock()
}

// Back returns to the previous location. It reports false at the start of
// history.
func (n *Navigator) Back() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.history) < 2 {
		return false
	}
	n.history = n.history[:len(n.history)-1]
	return true
}
