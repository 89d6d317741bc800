package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bakehouse/console/internal/guard"
	"github.com/bakehouse/console/internal/interface/middleware"
	"github.com/bakehouse/console/pkg/validation"
)

// AuthHandler serves the guest-facing screens: sign in, sign up, password
// reset and email verification. The session store carries the auth state;
// flows that never touch the session (reset, verify) talk to the backend
// client directly.
type AuthHandler struct {
	Logger *logrus.Logger
	Policy guard.Policy
}

func NewAuthHandler(logger *logrus.Logger, policy guard.Policy) *AuthHandler {
	return &AuthHandler{Logger: logger, Policy: policy}
}

type signInForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
	ReturnTo string `form:"redirect"`
}

type signUpForm struct {
	Name     string `form:"name"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,pwd"`
}

type emailForm struct {
	Email string `form:"email" binding:"required,email"`
}

type resetForm struct {
	Token           string `form:"token" binding:"required"`
	Password        string `form:"password" binding:"required,pwd"`
	ConfirmPassword string `form:"confirm_password" binding:"required,eqfield=Password"`
}

// ShowSignIn GET /login
func (h *AuthHandler) ShowSignIn(c *gin.Context) {
	c.HTML(http.StatusOK, "login", gin.H{
		"Title":    "Sign in",
		"ReturnTo": safeReturn(c.Query(h.Policy.ReturnParam)),
	})
}

// SignIn POST /login
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInForm
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "login", gin.H{
			"Title":   "Sign in",
			"Email":   req.Email,
			"Details": validation.ToDetails(err),
		})
		return
	}

	st := guard.StoreFrom(c)
	if !st.SignIn(c.Request.Context(), req.Email, req.Password) {
		c.HTML(http.StatusUnauthorized, "login", gin.H{
			"Title":    "Sign in",
			"Email":    req.Email,
			"ReturnTo": safeReturn(req.ReturnTo),
			"Error":    st.Snapshot().Error,
		})
		return
	}

	target := h.Policy.LandingPath
	if guard.SafeReturnPath(req.ReturnTo) {
		target = req.ReturnTo
	}
	c.Redirect(http.StatusSeeOther, target)
}

// ShowSignUp GET /signup
func (h *AuthHandler) ShowSignUp(c *gin.Context) {
	c.HTML(http.StatusOK, "signup", gin.H{"Title": "Sign up"})
}

// SignUp POST /signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpForm
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "signup", gin.H{
			"Title":   "Sign up",
			"Name":    req.Name,
			"Email":   req.Email,
			"Details": validation.ToDetails(err),
		})
		return
	}

	st := guard.StoreFrom(c)
	if !st.SignUp(c.Request.Context(), req.Email, req.Password, req.Name) {
		c.HTML(http.StatusBadRequest, "signup", gin.H{
			"Title": "Sign up",
			"Name":  req.Name,
			"Email": req.Email,
			"Error": st.Snapshot().Error,
		})
		return
	}
	c.Redirect(http.StatusSeeOther, h.Policy.LandingPath)
}

// SignOut POST /logout
func (h *AuthHandler) SignOut(c *gin.Context) {
	guard.StoreFrom(c).SignOut(c.Request.Context())
	c.Redirect(http.StatusSeeOther, h.Policy.SignInPath)
}

// ShowForgotPassword GET /forgot-password
func (h *AuthHandler) ShowForgotPassword(c *gin.Context) {
	c.HTML(http.StatusOK, "forgot_password", gin.H{"Title": "Forgot password"})
}

// ForgotPassword POST /forgot-password. The outcome message is identical
// whether or not the account exists; enumeration stays on the backend's side.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailForm
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "forgot_password", gin.H{
			"Title":   "Forgot password",
			"Email":   req.Email,
			"Details": validation.ToDetails(err),
		})
		return
	}

	if err := middleware.APIClient(c).RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.Logger.WithError(err).Warn("password reset request failed")
	}
	c.HTML(http.StatusOK, "forgot_password", gin.H{
		"Title":  "Forgot password",
		"Notice": "If that address has an account, a reset link is on its way.",
	})
}

// ShowResetPassword GET /reset-password?token=…
func (h *AuthHandler) ShowResetPassword(c *gin.Context) {
	c.HTML(http.StatusOK, "reset_password", gin.H{
		"Title": "Reset password",
		"Token": c.Query("token"),
	})
}

// ResetPassword POST /reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetForm
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "reset_password", gin.H{
			"Title":   "Reset password",
			"Token":   req.Token,
			"Details": validation.ToDetails(err),
		})
		return
	}

	if err := middleware.APIClient(c).ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		c.HTML(http.StatusBadRequest, "reset_password", gin.H{
			"Title": "Reset password",
			"Token": req.Token,
			"Error": userMessage(err),
		})
		return
	}
	c.Redirect(http.StatusSeeOther, h.Policy.SignInPath)
}

// VerifyEmail GET /verify-email?token=…
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.HTML(http.StatusBadRequest, "verify_email", gin.H{
			"Title": "Verify email",
			"Error": "The verification link is missing its token.",
		})
		return
	}

	if err := middleware.APIClient(c).VerifyEmail(c.Request.Context(), token); err != nil {
		c.HTML(http.StatusBadRequest, "verify_email", gin.H{
			"Title": "Verify email",
			"Error": userMessage(err),
		})
		return
	}
	c.HTML(http.StatusOK, "verify_email", gin.H{
		"Title":    "Verify email",
		"Verified": true,
	})
}

// ResendVerification POST /resend-verification
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req emailForm
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "verify_email", gin.H{
			"Title":   "Verify email",
			"Email":   req.Email,
			"Details": validation.ToDetails(err),
		})
		return
	}

	if err := middleware.APIClient(c).ResendVerificationEmail(c.Request.Context(), req.Email); err != nil {
		h.Logger.WithError(err).Warn("resend verification failed")
	}
	c.HTML(http.StatusOK, "verify_email", gin.H{
		"Title":  "Verify email",
		"Notice": "If that address has an account, a new verification email is on its way.",
	})
}

func safeReturn(s string) string {
	if guard.SafeReturnPath(s) {
		return s
	}
	return ""
}
