package views

import (
	"context"
	"log/slog"
	"sync"

	"cloudstocks/internal/nav"
	"cloudstocks/internal/session"
	"cloudstocks/pkg/cloudstocks"
)

// Titles of the auth screens.
const (
	LoginTitle    = "Login - CloudStocks"
	RegisterTitle = "Register - CloudStocks"
)

// authForm is the state shared by the login and register screens.
type authForm struct {
	mu      sync.Mutex
	api     AuthAPI
	sess    *session.Session
	nav     *nav.Navigator
	log     *slog.Logger
	formErr string
}

// FormError is the server's rejection message, or "".
func (f *authForm) FormError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.formErr
}

func (f *authForm) setFormError(msg string) {
	f.mu.Lock()
	f.formErr = msg
	f.mu.Unlock()
}

// redirectAfterAuth navigates to the redirect parameter of the current
// location, or to "/".
func (f *authForm) redirectAfterAuth() string {
	target, ok := session.RedirectPath(f.nav.Current().String())
	if !ok {
		target = "/"
	}
	f.nav.Push(target)
	return target
}

// Login drives the login screen.
type Login struct {
	authForm
	justLoggedIn bool
}

// NewLogin creates the login controller.
func NewLogin(api AuthAPI, sess *session.Session, n *nav.Navigator, log *slog.Logger) *Login {
	return &Login{authForm: authForm{api: api, sess: sess, nav: n, log: log}}
}

// Mount sends an already authenticated user to "/". It reports whether it
// navigated away.
func (l *Login) Mount() bool {
	if l.sess.IsAuthenticated() && !l.justLoggedIn {
		l.nav.Push("/")
		return true
	}
	return false
}

// Hidden reports whether the form should be withheld because the session
// is already authenticated.
func (l *Login) Hidden() bool {
	return l.sess.IsAuthenticated()
}

// Request submits credentials without touching screen state.
func (l *Login) Request(ctx context.Context, email, password string) (*cloudstocks.AuthResult, error) {
	return l.api.Login(ctx, email, password)
}

// Apply stores a granted token with email and navigates to the redirect
// target, or records the rejection message. Transport errors are logged and
// change nothing. It returns the path navigated to, or "".
func (l *Login) Apply(email string, res *cloudstocks.AuthResult, err error) string {
	if err != nil {
		l.log.Error("logging in", "error", err)
		return ""
	}
	if res.Error {
		l.setFormError(res.Message)
		return ""
	}
	if err := l.sess.Login(res.Token, email); err != nil {
		l.log.Error("storing session", "error", err)
		l.setFormError("Could not save your session")
		return ""
	}
	l.setFormError("")
	l.justLoggedIn = true
	l.log.Info("logged in", "email", email)
	return l.redirectAfterAuth()
}

// Submit runs Request and Apply on the calling goroutine.
func (l *Login) Submit(ctx context.Context, email, password string) (string, error) {
	res, err := l.Request(ctx, email, password)
	return l.Apply(email, res, err), err
}

// Register drives the register screen.
type Register struct {
	authForm
}

// NewRegister creates the register controller.
func NewRegister(api AuthAPI, sess *session.Session, n *nav.Navigator, log *slog.Logger) *Register {
	return &Register{authForm: authForm{api: api, sess: sess, nav: n, log: log}}
}

// Mount sends an already authenticated user to "/".
func (r *Register) Mount() bool {
	if r.sess.IsAuthenticated() {
		r.nav.Push("/")
		return true
	}
	return false
}

// Hidden reports whether the form should be withheld.
func (r *Register) Hidden() bool {
	return r.sess.IsAuthenticated()
}

// Request submits the new account without touching screen state.
func (r *Register) Request(ctx context.Context, email, password string) (*cloudstocks.AuthResult, error) {
	return r.api.Register(ctx, email, password)
}

// Apply navigates to the redirect target on success without logging the
// user in, or records the rejection message. It returns the path navigated
// to, or "".
func (r *Register) Apply(email string, res *cloudstocks.AuthResult, err error) string {
	if err != nil {
		r.log.Error("registering", "error", err)
		return ""
	}
	if res.Error {
		r.setFormError(res.Message)
		return ""
	}
	r.setFormError("")
	r.log.Info("registered", "email", email)
	return r.redirectAfterAuth()
}

// Submit runs Request and Apply on the calling goroutine.
func (r *Register) Submit(ctx context.Context, email, password string) (string, error) {
	res, err := r.Request(ctx, email, password)
	return r.Apply(email, res, err), err
}
