package tipranks

import (
	"net/http"
	"strings"
)

// TokenCookie is the cookie the web login sets once a user is signed in.
const TokenCookie = "token"

// Session is the opaque credential acquired by logging in, it is attached to every
// request made afterwards. It carries no expiry and is never refreshed by the client.
type Session struct {
	Cookie string
}

func (s Session) IsZero() bool {
	return strings.TrimSpace(s.Cookie) == ""
}

// Cookies parses the cookie string into individual cookies.
func (s Session) Cookies() []*http.Cookie {
	req := http.Request{Header: http.Header{"Cookie": {s.Cookie}}}
	return req.Cookies()
}

// Value returns the value of the cookie with the given name.
func (s Session) Value(name string) (string, bool) {
	for _, c := range s.Cookies() {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// FormatCookies renders cookies the way a browser sends them in the cookie header.
func FormatCookies(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}
