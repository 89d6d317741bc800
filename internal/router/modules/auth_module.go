package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/bakehouse/console/internal/container"
	"github.com/bakehouse/console/internal/guard"
	handlers "github.com/bakehouse/console/internal/interface/http"
	"github.com/bakehouse/console/internal/interface/middleware"
)

// AuthModule wires the guest screens. Pages sit behind the guest-only guard;
// the credential-bearing posts carry per-IP rate limits.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Policy  guard.Policy
}

func NewAuthModule(h *handlers.AuthHandler, policy guard.Policy) *AuthModule {
	return &AuthModule{Handler: h, Policy: policy}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	cfg := container.GetConfig()
	loginLimiter := middleware.RateLimit(container.GetRedis(), cfg.LoginRateMax, cfg.LoginRateWindow, middleware.KeyByIPAndPath())
	resetLimiter := middleware.RateLimit(container.GetRedis(), 5, cfg.LoginRateWindow, middleware.KeyByIPAndPath())

	guest := rg.Group("/")
	guest.Use(guard.GuestOnly(m.Policy))
	{
		guest.GET("/login", m.Handler.ShowSignIn)
		guest.POST("/login", loginLimiter, m.Handler.SignIn)
		guest.GET("/signup", m.Handler.ShowSignUp)
		guest.POST("/signup", loginLimiter, m.Handler.SignUp)
		guest.GET("/forgot-password", m.Handler.ShowForgotPassword)
		guest.POST("/forgot-password", resetLimiter, m.Handler.ForgotPassword)
		guest.GET("/reset-password", m.Handler.ShowResetPassword)
		guest.POST("/reset-password", resetLimiter, m.Handler.ResetPassword)
	}

	// Verification links arrive from email clients in either auth state.
	rg.GET("/verify-email", m.Handler.VerifyEmail)
	rg.POST("/resend-verification", resetLimiter, m.Handler.ResendVerification)

	rg.POST("/logout", m.Handler.SignOut)
}
