package session

import "net/url"

// RedirectParam is the query parameter that carries the post-auth return path.
const RedirectParam = "redirect"

// RedirectPath returns the decoded value of the redirect query parameter in
// location, which may be a bare path with query ("/login?redirect=%2F") or an
// absolute URL. It reports false when the parameter is missing or empty.
func RedirectPath(location string) (string, bool) {
	u, err := url.Parse(location)
	if err != nil {
		return "", false
	}
	v := u.Query().Get(RedirectParam)
	if v == "" {
		return "", false
	}
	return v, true
}
