package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bakehouse/console/internal/backend"
	"github.com/bakehouse/console/internal/guard"
	"github.com/bakehouse/console/internal/interface/middleware"
	"github.com/bakehouse/console/pkg/validation"
)

// UserHandler serves the protected screens: the dashboard shell and the
// profile page. Routes using it sit behind guard.RequireAuth, so a session
// store with an authenticated snapshot is always present.
type UserHandler struct {
	Logger *logrus.Logger
	Policy guard.Policy
}

func NewUserHandler(logger *logrus.Logger, policy guard.Policy) *UserHandler {
	return &UserHandler{Logger: logger, Policy: policy}
}

type updateProfileForm struct {
	Name  string `form:"name"`
	Email string `form:"email" binding:"required,email"`
}

type changePasswordForm struct {
	CurrentPassword string `form:"current_password" binding:"required"`
	NewPassword     string `form:"new_password" binding:"required,pwd"`
	ConfirmPassword string `form:"confirm_password" binding:"required,eqfield=NewPassword"`
}

// Dashboard GET /dashboard
func (h *UserHandler) Dashboard(c *gin.Context) {
	st := guard.StoreFrom(c)
	c.HTML(http.StatusOK, "dashboard", gin.H{
		"Title":     "Dashboard",
		"User":      st.Snapshot().User,
		"CanManage": st.HasRole("manager") || st.HasPermission("bakery:manage"),
	})
}

// Profile GET /profile
func (h *UserHandler) Profile(c *gin.Context) {
	st := guard.StoreFrom(c)
	u := st.GetUserProfile(c.Request.Context())
	if u == nil {
		// The profile fetch failed and the store reset itself; treat it as a
		// lost session.
		c.Redirect(http.StatusSeeOther, h.Policy.SignInPath)
		c.Abort()
		return
	}
	c.HTML(http.StatusOK, "profile", gin.H{"Title": "Profile", "User": u})
}

// UpdateProfile POST /profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	st := guard.StoreFrom(c)
	var req updateProfileForm
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "profile", gin.H{
			"Title":   "Profile",
			"User":    st.Snapshot().User,
			"Details": validation.ToDetails(err),
		})
		return
	}

	upd := backend.ProfileUpdate{Email: &req.Email}
	if req.Name != "" {
		upd.Name = &req.Name
	}
	if _, err := middleware.APIClient(c).UpdateProfile(c.Request.Context(), upd); err != nil {
		if h.forcedSignOut(c, err) {
			return
		}
		c.HTML(http.StatusBadRequest, "profile", gin.H{
			"Title": "Profile",
			"User":  st.Snapshot().User,
			"Error": userMessage(err),
		})
		return
	}

	// Refresh through the store so the cached user is replaced wholesale.
	st.LoadProfile(c.Request.Context())
	c.Redirect(http.StatusSeeOther, "/profile")
}

// ChangePassword POST /profile/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	st := guard.StoreFrom(c)
	var req changePasswordForm
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "profile", gin.H{
			"Title":   "Profile",
			"User":    st.Snapshot().User,
			"Details": validation.ToDetails(err),
		})
		return
	}

	err := middleware.APIClient(c).ChangePassword(c.Request.Context(), req.CurrentPassword, req.NewPassword)
	if err != nil {
		if h.forcedSignOut(c, err) {
			return
		}
		c.HTML(http.StatusBadRequest, "profile", gin.H{
			"Title": "Profile",
			"User":  st.Snapshot().User,
			"Error": userMessage(err),
		})
		return
	}
	c.HTML(http.StatusOK, "profile", gin.H{
		"Title":  "Profile",
		"User":   st.Snapshot().User,
		"Notice": "Password updated.",
	})
}

// forcedSignOut handles the authorization-failure rule: a 401 from any
// post-login call ends the session, it is never shown as a form error.
func (h *UserHandler) forcedSignOut(c *gin.Context, err error) bool {
	if !backend.IsUnauthorized(err) {
		return false
	}
	guard.StoreFrom(c).SignOut(c.Request.Context())
	c.Redirect(http.StatusSeeOther, h.Policy.SignInPath)
	c.Abort()
	return true
}

// userMessage extracts the backend's human-readable message, falling back to
// generic wording for anything unshaped.
func userMessage(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Something went wrong, please try again."
}
