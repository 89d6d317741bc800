package helpers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Cookie names used by the front-end on its own domain. browser_id identifies
// the browser session (keys the persisted snapshot), api_token carries the
// bakery API session id. Both are HttpOnly; neither is readable by page scripts.
const (
	BrowserIDCookie = "bh_sid"
	APITokenCookie  = "bh_token"
)

// Manager sets and clears the front-end's own cookies.
type Manager struct {
	Domain string
	Secure bool
	MaxAge int // seconds; applied to both cookies
}

func NewCookie(domain string, secure bool, maxAge int) *Manager {
	return &Manager{Domain: domain, Secure: secure, MaxAge: maxAge}
}

// BrowserID returns the browser-session identifier cookie, if present.
func (m *Manager) BrowserID(c *gin.Context) (string, bool) {
	v, err := c.Cookie(BrowserIDCookie)
	return v, err == nil && v != ""
}

// SetBrowserID stores the browser-session identifier.
func (m *Manager) SetBrowserID(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(BrowserIDCookie, id, m.MaxAge, "/", m.Domain, m.Secure, true)
}

// APIToken returns the stored bakery API session id, if present.
func (m *Manager) APIToken(c *gin.Context) (string, bool) {
	v, err := c.Cookie(APITokenCookie)
	return v, err == nil && v != ""
}

// SetAPIToken stores the bakery API session id.
func (m *Manager) SetAPIToken(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(APITokenCookie, token, m.MaxAge, "/", m.Domain, m.Secure, true)
}

// ClearAPIToken drops the bakery API session id.
func (m *Manager) ClearAPIToken(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(APITokenCookie, "", -1, "/", m.Domain, m.Secure, true)
}
