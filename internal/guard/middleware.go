package guard

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/bakehouse/console/internal/session"
)

// ContextKey is where the session-scope middleware stashes the per-request
// *session.Store.
const ContextKey = "session_store"

// StoreFrom extracts the per-request session store, nil when absent.
func StoreFrom(c *gin.Context) *session.Store {
	v, ok := c.Get(ContextKey)
	if !ok {
		return nil
	}
	st, _ := v.(*session.Store)
	return st
}

// ginNavigator issues HTTP redirects. An HTTP redirect never records the
// blocked location in browser history, which satisfies replaceHistory.
type ginNavigator struct {
	c *gin.Context
}

func (n ginNavigator) Redirect(path string, query url.Values, replaceHistory bool) {
	target := path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	n.c.Redirect(http.StatusFound, target)
	n.c.Abort()
}

// RequireAuth is the pre-render authorization check for protected views: it
// inspects the snapshot before the handler runs and redirects to sign-in,
// carrying the requested path, when the session is not established. When the
// view is allowed it kicks off the non-blocking session revalidation and
// proceeds immediately.
func RequireAuth(p Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := StoreFrom(c)

		var snap session.Snapshot
		if st != nil {
			snap = st.Snapshot()
		}
		if rd := p.Protected(snap, c.Request.URL.Path); rd != nil {
			rd.Send(ginNavigator{c})
			return
		}

		st.ValidateSessionIfNeeded(c.Request.Context())
		c.Next()
	}
}

// GuestOnly wraps views that only make sense signed out. An authenticated
// visitor is sent to the landing path, or to the return target the sign-in
// link carried when it is safe.
func GuestOnly(p Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := StoreFrom(c)

		var snap session.Snapshot
		if st != nil {
			snap = st.Snapshot()
		}
		if rd := p.GuestOnly(snap, c.Query(p.ReturnParam)); rd != nil {
			rd.Send(ginNavigator{c})
			return
		}
		c.Next()
	}
}
