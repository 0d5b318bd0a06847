package nav

import (
	"log/slog"
	"net/url"
	"sync/atomic"

	"cloudstocks/internal/session"
)

// RefetchSignal asks the mounted detail view to fetch its data again after
// the session changed underneath it.
type RefetchSignal struct {
	raised atomic.Bool
}

// Raise sets the signal.
func (r *RefetchSignal) Raise() { r.raised.Store(true) }

// Clear resets the signal.
func (r *RefetchSignal) Clear() { r.raised.Store(false) }

// Raised reports whether the signal is set.
func (r *RefetchSignal) Raised() bool { return r.raised.Load() }

// Action is a button offered by the shell.
type Action int

const (
	ActionLogin Action = iota
	ActionRegister
	ActionLogout
)

func (a Action) String() string {
	switch a {
	case ActionLogin:
		return "Log in"
	case ActionRegister:
		return "Register"
	default:
		return "Log out"
	}
}

// Bar is what the navigation bar shows for the current session.
type Bar struct {
	Authenticated bool
	Welcome       string
	Actions       []Action
}

// Shell renders session-dependent navigation and performs logout.
type Shell struct {
	sess    *session.Session
	nav     *Navigator
	refetch *RefetchSignal
	log     *slog.Logger
}

// NewShell wires a Shell to the shared session, navigator and signal.
func NewShell(sess *session.Session, n *Navigator, refetch *RefetchSignal, log *slog.Logger) *Shell {
	return &Shell{sess: sess, nav: n, refetch: refetch, log: log}
}

// Bar computes the navigation bar from the session on every call.
func (s *Shell) Bar() Bar {
	if email, ok := s.sess.CurrentUser(); ok {
		return Bar{
			Authenticated: true,
			Welcome:       "Welcome " + email,
			Actions:       []Action{ActionLogout},
		}
	}
	if s.sess.IsAuthenticated() {
		return Bar{Authenticated: true, Welcome: "Welcome", Actions: []Action{ActionLogout}}
	}
	return Bar{Actions: []Action{ActionLogin, ActionRegister}}
}

// Logout clears the session, asks the mounted view to refetch, and reloads
// the current path.
func (s *Shell) Logout() error {
	err := s.sess.Clear()
	if err != nil {
		s.log.Error("clearing session", "error", err)
	}
	s.refetch.Raise()
	s.nav.Replace(s.nav.Current().Path)
	s.log.Info("logged out")
	return err
}

// GoLogin navigates to the login form, remembering the current path.
func (s *Shell) GoLogin() {
	s.nav.Push(withRedirect("/login", s.nav.Current().Path))
}

// GoRegister navigates to the register form, remembering the current path.
func (s *Shell) GoRegister() {
	s.nav.Push(withRedirect("/register", s.nav.Current().Path))
}

func withRedirect(path, redirect string) string {
	return path + "?" + url.Values{session.RedirectParam: {redirect}}.Encode()
}
