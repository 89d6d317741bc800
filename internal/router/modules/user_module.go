package modules

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bakehouse/console/internal/guard"
	handlers "github.com/bakehouse/console/internal/interface/http"
)

// UserModule wires the protected screens behind the pre-render authorization
// check.
type UserModule struct {
	Handler *handlers.UserHandler
	Policy  guard.Policy
}

func NewUserModule(h *handlers.UserHandler, policy guard.Policy) *UserModule {
	return &UserModule{Handler: h, Policy: policy}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	// The root is a convenience entry point: authenticated visitors land on
	// the dashboard, everyone else on sign-in.
	rg.GET("/", func(c *gin.Context) {
		st := guard.StoreFrom(c)
		if st != nil {
			if snap := st.Snapshot(); snap.IsAuthenticated && snap.User != nil {
				c.Redirect(http.StatusFound, m.Policy.LandingPath)
				return
			}
		}
		c.Redirect(http.StatusFound, m.Policy.SignInPath)
	})

	auth := rg.Group("/")
	auth.Use(guard.RequireAuth(m.Policy))
	{
		auth.GET("/dashboard", m.Handler.Dashboard)
		auth.GET("/profile", m.Handler.Profile)
		auth.POST("/profile", m.Handler.UpdateProfile)
		auth.POST("/profile/password", m.Handler.ChangePassword)
	}
}
