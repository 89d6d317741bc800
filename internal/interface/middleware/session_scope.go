package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/bakehouse/console/internal/backend"
	"github.com/bakehouse/console/internal/guard"
	"github.com/bakehouse/console/internal/session"
	"github.com/bakehouse/console/pkg/helpers"
)

// cookieTokenStore binds the bakery API session id to the browser via the
// front-end's HttpOnly cookie. The cookie value is snapshotted when the store
// is built; gin recycles *gin.Context between requests, so the context must
// never be touched from the background revalidation goroutine. Cookie writes
// are mirrored to the response only while the request is live; after detach
// the store keeps working on its own copy and the redis snapshot carries any
// late sign-out.
type cookieTokenStore struct {
	mu       sync.Mutex
	tok      string
	detached bool
	c        *gin.Context
	cookies  *helpers.Manager
}

func newCookieTokenStore(c *gin.Context, cookies *helpers.Manager) *cookieTokenStore {
	tok, _ := cookies.APIToken(c)
	return &cookieTokenStore{tok: tok, c: c, cookies: cookies}
}

func (s *cookieTokenStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tok
}

func (s *cookieTokenStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = token
	if !s.detached {
		s.cookies.SetAPIToken(s.c, token)
	}
}

func (s *cookieTokenStore) ClearToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = ""
	if !s.detached {
		s.cookies.ClearAPIToken(s.c)
	}
}

// detach cuts the store loose from the request once the response is written.
func (s *cookieTokenStore) detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detached = true
	s.c = nil
}

// SessionScopeDeps is everything SessionScope needs to assemble a per-request
// session store.
type SessionScopeDeps struct {
	Redis      *redis.Client
	Cookies    *helpers.Manager
	Logger     *logrus.Logger
	APIBaseURL string
	APITimeout time.Duration
	SessionTTL time.Duration
}

// SessionScope establishes the browser session for every request: it reads or
// mints the browser-session id, wires the cookie-bound token store into a
// backend client, hydrates the session store from its persisted snapshot, and
// runs the one-time initialization. The store is then available to guards and
// handlers via guard.StoreFrom.
func SessionScope(deps SessionScopeDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		browserID, ok := deps.Cookies.BrowserID(c)
		if !ok {
			browserID = uuid.NewString()
			deps.Cookies.SetBrowserID(c, browserID)
		}

		tokens := newCookieTokenStore(c, deps.Cookies)
		api := backend.NewClient(deps.APIBaseURL, deps.APITimeout, tokens, deps.Logger)

		var persist session.SnapshotStore
		if deps.Redis != nil {
			persist = session.NewRedisSnapshotStore(deps.Redis, browserID, deps.SessionTTL)
		}

		st := session.NewStore(api, persist, deps.Logger)
		ctx := c.Request.Context()
		st.Hydrate(ctx)
		st.Initialize(ctx)

		c.Set(guard.ContextKey, st)
		c.Set(apiClientKey, api)
		c.Next()
		tokens.detach()
	}
}

const apiClientKey = "api_client"

// APIClient returns the request-bound backend client, nil when the session
// scope did not run.
func APIClient(c *gin.Context) backend.Backend {
	v, ok := c.Get(apiClientKey)
	if !ok {
		return nil
	}
	api, _ := v.(backend.Backend)
	return api
}
