package nav

import (
	"net/url"
	"strings"
)

// View identifies which screen a path renders.
type View int

const (
	ViewListing View = iota
	ViewLogin
	ViewRegister
	ViewDetail
	ViewNotFound
)

func (v View) String() string {
	switch v {
	case ViewListing:
		return "listing"
	case ViewLogin:
		return "login"
	case ViewRegister:
		return "register"
	case ViewDetail:
		return "detail"
	default:
		return "not-found"
	}
}

// Route is a resolved path.
type Route struct {
	View   View
	Symbol string // set for ViewDetail
}

// Resolve maps a path onto a Route. Unknown paths resolve to ViewNotFound,
// which callers treat as a redirect to "/".
func Resolve(path string) Route {
	switch {
	case path == "/" || path == "":
		return Route{View: ViewListing}
	case path == "/login":
		return Route{View: ViewLogin}
	case path == "/register":
		return Route{View: ViewRegister}
	case strings.HasPrefix(path, "/stocks/"):
		sym := strings.TrimPrefix(path, "/stocks/")
		if sym == "" || strings.Contains(sym, "/") {
			return Route{View: ViewNotFound}
		}
		if unescaped, err := url.PathUnescape(sym); err == nil {
			sym = unescaped
		}
		return Route{View: ViewDetail, Symbol: sym}
	default:
		return Route{View: ViewNotFound}
	}
}

// DetailPath returns the path of the detail view for symbol.
func DetailPath(symbol string) string {
	return "/stocks/" + url.PathEscape(symbol)
}
