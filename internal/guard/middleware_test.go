package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/bakehouse/console/internal/backend"
	"github.com/bakehouse/console/internal/session"
)

type stubBackend struct {
	probe backend.ProbeStatus
}

func (s *stubBackend) SignUp(ctx context.Context, email, password, name string) (*backend.AuthResult, error) {
	return nil, &backend.APIError{Code: "UNKNOWN_ERROR", Message: "not implemented"}
}

func (s *stubBackend) SignIn(ctx context.Context, email, password string) (*backend.AuthResult, error) {
	return nil, &backend.APIError{Code: "UNKNOWN_ERROR", Message: "not implemented"}
}

func (s *stubBackend) SignOut(ctx context.Context) error { return nil }

func (s *stubBackend) GetProfile(ctx context.Context) (map[string]any, error) {
	return nil, &backend.APIError{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "no session"}
}

func (s *stubBackend) UpdateProfile(ctx context.Context, upd backend.ProfileUpdate) (map[string]any, error) {
	return nil, nil
}

func (s *stubBackend) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	return nil
}

func (s *stubBackend) VerifyEmail(ctx context.Context, token string) error { return nil }

func (s *stubBackend) ResendVerificationEmail(ctx context.Context, email string) error { return nil }

func (s *stubBackend) RequestPasswordReset(ctx context.Context, email string) error { return nil }
func (s *stubBackend) ResetPassword(ctx context.Context, token, newPassword string) error {
	return nil
}

func (s *stubBackend) ProbeSessionAlive(ctx context.Context) backend.ProbeStatus { return s.probe }

// authedStore builds a store holding an established, recently confirmed
// session, the way hydration from persistence leaves it.
func authedStore(t *testing.T) *session.Store {
	t.Helper()
	mem := &session.MemorySnapshotStore{}
	u := session.NormalizeUser(map[string]any{"id": "u1", "email": "amy@bakery.test"})
	require.NoError(t, mem.Save(context.Background(), session.PersistedState{
		User:            &u,
		IsAuthenticated: true,
		LastValidatedAt: time.Now(),
	}))
	st := session.NewStore(&stubBackend{probe: backend.ProbeOK}, mem, nil)
	st.Hydrate(context.Background())
	return st
}

func newTestRouter(st *session.Store, p Policy) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if st != nil {
			c.Set(ContextKey, st)
		}
		c.Next()
	})
	r.GET("/dashboard", RequireAuth(p), func(c *gin.Context) {
		c.String(http.StatusOK, "dashboard for %s", StoreFrom(c).Snapshot().User.Email)
	})
	r.GET("/login", GuestOnly(p), func(c *gin.Context) {
		c.String(http.StatusOK, "login form")
	})
	return r
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	r := newTestRouter(session.NewStore(&stubBackend{}, nil, nil), DefaultPolicy())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login?redirect=%2Fdashboard", w.Header().Get("Location"))
	// the protected view must not leak any content alongside the redirect;
	// gin's own 302 body echoes the location, so check for the view's output
	require.NotContains(t, w.Body.String(), "dashboard for")
}

func TestRequireAuthRedirectsWhenScopeMissing(t *testing.T) {
	r := newTestRouter(nil, DefaultPolicy())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, http.StatusFound, w.Code)
}

func TestRequireAuthAllowsEstablishedSession(t *testing.T) {
	r := newTestRouter(authedStore(t), DefaultPolicy())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "amy@bakery.test")
}

func TestGuestOnlyAllowsAnonymous(t *testing.T) {
	r := newTestRouter(session.NewStore(&stubBackend{}, nil, nil), DefaultPolicy())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "login form")
}

func TestGuestOnlyRedirectsAuthenticated(t *testing.T) {
	r := newTestRouter(authedStore(t), DefaultPolicy())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestGuestOnlyForwardsSafeReturnTarget(t *testing.T) {
	r := newTestRouter(authedStore(t), DefaultPolicy())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login?redirect=%2Fprofile", nil))

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/profile", w.Header().Get("Location"))
}

func TestGuestOnlyDropsUnsafeReturnTarget(t *testing.T) {
	r := newTestRouter(authedStore(t), DefaultPolicy())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login?redirect=%2F%2Fevil.test", nil))

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/dashboard", w.Header().Get("Location"))
}
