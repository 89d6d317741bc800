// Package guard decides whether a protected or a guest-only view may render
// for the current session snapshot, and where to send the browser when it may
// not. The decision logic is pure; the HTTP side lives in the gin middleware.
package guard

import (
	"net/url"
	"strings"

	"github.com/bakehouse/console/internal/session"
)

// Navigator performs a redirect. replaceHistory asks the navigation layer not
// to leave the blocked location reachable via back-navigation.
type Navigator interface {
	Redirect(path string, query url.Values, replaceHistory bool)
}

// Redirect is a policy decision to navigate away instead of rendering.
type Redirect struct {
	Path           string
	Query          url.Values
	ReplaceHistory bool
}

// Send delivers the redirect through a Navigator.
func (r Redirect) Send(n Navigator) {
	n.Redirect(r.Path, r.Query, r.ReplaceHistory)
}

// Target renders the redirect as a request URI.
func (r Redirect) Target() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

// Policy carries the navigation anchors for both guards.
type Policy struct {
	SignInPath  string // where unauthenticated visitors of protected views go
	LandingPath string // where authenticated visitors of guest-only views go
	ReturnParam string // query key carrying the originally requested path
}

// DefaultPolicy matches the application's route table.
func DefaultPolicy() Policy {
	return Policy{SignInPath: "/login", LandingPath: "/dashboard", ReturnParam: "redirect"}
}

// Protected evaluates a view that requires authentication. A nil result means
// the view may render; otherwise the caller must send the redirect and render
// nothing. The originally requested path rides along so sign-in can return
// the visitor where they were headed.
func (p Policy) Protected(snap session.Snapshot, requestedPath string) *Redirect {
	if snap.IsAuthenticated && snap.User != nil {
		return nil
	}
	q := url.Values{}
	if requestedPath != "" {
		q.Set(p.ReturnParam, requestedPath)
	}
	return &Redirect{Path: p.SignInPath, Query: q, ReplaceHistory: true}
}

// GuestOnly evaluates a view that only makes sense when signed out (the
// sign-in and sign-up forms). target overrides the landing path when it is a
// safe same-site path.
func (p Policy) GuestOnly(snap session.Snapshot, target string) *Redirect {
	if !snap.IsAuthenticated || snap.User == nil {
		return nil
	}
	dest := p.LandingPath
	if SafeReturnPath(target) {
		dest = target
	}
	return &Redirect{Path: dest, ReplaceHistory: true}
}

// SafeReturnPath accepts only same-site absolute paths, rejecting anything
// that a browser could read as a cross-origin location.
func SafeReturnPath(s string) bool {
	if !strings.HasPrefix(s, "/") {
		return false
	}
	if strings.HasPrefix(s, "//") || strings.Contains(s, "\\") {
		return false
	}
	return true
}
