// devserver is an in-memory stand-in for the bakery API backend so the
// console can run end to end on a laptop. It implements the authentication
// surface the front-end consumes, speaks the shared response envelope, and
// keeps every account, session and token in process memory.
package main

import (
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/bakehouse/console/pkg/helpers"
	"github.com/bakehouse/console/pkg/response"
	"github.com/bakehouse/console/pkg/validation"
)

type devUser struct {
	ID            string
	Email         string
	Name          *string
	PasswordHash  string
	EmailVerified bool
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Roles         []string
	Permissions   []string
}

type devServer struct {
	mu           sync.Mutex
	usersByEmail map[string]*devUser
	usersByID    map[string]*devUser
	verifyTokens map[string]string // token -> user id
	resetTokens  map[string]string // token -> user id
	tokens       *helpers.TokenManager
	logger       *logrus.Logger
}

func userJSON(u *devUser) gin.H {
	return gin.H{
		"id":            u.ID,
		"email":         u.Email,
		"name":          u.Name,
		"emailVerified": u.EmailVerified,
		"lastLoginAt":   u.LastLoginAt,
		"createdAt":     u.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updatedAt":     u.UpdatedAt.UTC().Format(time.RFC3339Nano),
		"roles":         u.Roles,
		"permissions":   u.Permissions,
	}
}

type signUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
	Name     string `json:"name"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,pwd"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,pwd"`
}

func (s *devServer) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.CodeValidation, "invalid payload", validation.ToDetails(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByEmail[req.Email]; exists {
		response.Fail(c, http.StatusConflict, response.CodeConflict, "an account with this email already exists", nil)
		return
	}

	hash, err := helpers.HashPassword(req.Password)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.CodeInternal, "could not create account", nil)
		return
	}

	now := time.Now().UTC()
	u := &devUser{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
		Roles:        []string{"staff"},
		Permissions:  []string{"bakery:view"},
	}
	if req.Name != "" {
		name := req.Name
		u.Name = &name
	}
	s.usersByEmail[u.Email] = u
	s.usersByID[u.ID] = u

	verify := uuid.NewString()
	s.verifyTokens[verify] = u.ID
	s.logger.Infof("devserver: verification token for %s: %s", u.Email, verify)

	sid, _, err := s.tokens.Generate(u.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.CodeInternal, "could not create session", nil)
		return
	}
	response.OK(c, http.StatusCreated, gin.H{"user": userJSON(u), "sessionId": sid}, "account created")
}

func (s *devServer) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.CodeValidation, "invalid payload", validation.ToDetails(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usersByEmail[req.Email]
	if !ok || !helpers.CheckPassword(u.PasswordHash, req.Password) {
		response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid credentials", nil)
		return
	}

	now := time.Now().UTC()
	u.LastLoginAt = &now

	sid, _, err := s.tokens.Generate(u.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.CodeInternal, "could not create session", nil)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"user": userJSON(u), "sessionId": sid}, "signed in")
}

func (s *devServer) signOut(c *gin.Context) {
	// Tokens are stateless; there is nothing to revoke in memory.
	response.OK(c, http.StatusOK, gin.H{}, "signed out")
}

// requireSession resolves the bearer token to a user id.
func (s *devServer) requireSession(c *gin.Context) {
	const prefix = "Bearer "
	h := c.GetHeader("Authorization")
	if len(h) <= len(prefix) || h[:len(prefix)] != prefix {
		response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing session", nil)
		c.Abort()
		return
	}
	claims, err := s.tokens.Parse(h[len(prefix):])
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid session", nil)
		c.Abort()
		return
	}
	c.Set("userID", claims.UserID)
	c.Next()
}

func (s *devServer) currentUser(c *gin.Context) *devUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usersByID[c.GetString("userID")]
}

func (s *devServer) getProfile(c *gin.Context) {
	u := s.currentUser(c)
	if u == nil {
		response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "unknown user", nil)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"user": userJSON(u)}, "profile")
}

func (s *devServer) headProfile(c *gin.Context) {
	if s.currentUser(c) == nil {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.Status(http.StatusOK)
}

func (s *devServer) updateProfile(c *gin.Context) {
	var req struct {
		Name  *string `json:"name"`
		Email *string `json:"email" binding:"omitempty,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.CodeValidation, "invalid payload", validation.ToDetails(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.usersByID[c.GetString("userID")]
	if u == nil {
		response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "unknown user", nil)
		return
	}
	if req.Email != nil && *req.Email != u.Email {
		if _, taken := s.usersByEmail[*req.Email]; taken {
			response.Fail(c, http.StatusConflict, response.CodeConflict, "an account with this email already exists", nil)
			return
		}
		delete(s.usersByEmail, u.Email)
		u.Email = *req.Email
		u.EmailVerified = false
		s.usersByEmail[u.Email] = u
	}
	if req.Name != nil {
		u.Name = req.Name
	}
	u.UpdatedAt = time.Now().UTC()
	response.OK(c, http.StatusOK, gin.H{"user": userJSON(u)}, "profile updated")
}

func (s *devServer) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.CodeValidation, "invalid payload", validation.ToDetails(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.usersByID[c.GetString("userID")]
	if u == nil {
		response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "unknown user", nil)
		return
	}
	if !helpers.CheckPassword(u.PasswordHash, req.CurrentPassword) {
		response.Fail(c, http.StatusBadRequest, response.CodeValidation, "current password is incorrect", nil)
		return
	}
	hash, err := helpers.HashPassword(req.NewPassword)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.CodeInternal, "could not update password", nil)
		return
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	response.OK(c, http.StatusOK, gin.H{}, "password updated")
}

func (s *devServer) verifyEmail(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.CodeValidation, "invalid payload", validation.ToDetails(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.verifyTokens[req.Token]
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.CodeValidation, "invalid or expired token", nil)
		return
	}
	if u := s.usersByID[uid]; u != nil {
		u.EmailVerified = true
		u.UpdatedAt = time.Now().UTC()
	}
	delete(s.verifyTokens, req.Token)
	response.OK(c, http.StatusOK, gin.H{"verified": true}, "email verified")
}

func (s *devServer) resendVerification(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.CodeValidation, "invalid payload", validation.ToDetails(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Identical answer whether or not the account exists.
	if u, ok := s.usersByEmail[req.Email]; ok && !u.EmailVerified {
		tok := uuid.NewString()
		s.verifyTokens[tok] = u.ID
		s.logger.Infof("devserver: verification token for %s: %s", u.Email, tok)
	}
	response.OK(c, http.StatusOK, gin.H{}, "verification email sent")
}

func (s *devServer) requestPasswordReset(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.CodeValidation, "invalid payload", validation.ToDetails(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.usersByEmail[req.Email]; ok {
		tok := uuid.NewString()
		s.resetTokens[tok] = u.ID
		s.logger.Infof("devserver: reset token for %s: %s", u.Email, tok)
	}
	response.OK(c, http.StatusOK, gin.H{}, "reset email sent")
}

func (s *devServer) resetPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.CodeValidation, "invalid payload", validation.ToDetails(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.resetTokens[req.Token]
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.CodeValidation, "invalid or expired token", nil)
		return
	}
	u := s.usersByID[uid]
	if u == nil {
		response.Fail(c, http.StatusBadRequest, response.CodeValidation, "invalid or expired token", nil)
		return
	}
	hash, err := helpers.HashPassword(req.NewPassword)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.CodeInternal, "could not update password", nil)
		return
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	delete(s.resetTokens, req.Token)
	response.OK(c, http.StatusOK, gin.H{}, "password updated")
}

func main() {
	_ = godotenv.Load()

	port := os.Getenv("DEVSERVER_PORT")
	if port == "" {
		port = "3000"
	}
	secret := os.Getenv("DEVSERVER_SECRET")
	if secret == "" {
		secret = "devsecret"
	}

	logger := helpers.NewLogger("bakehouse-devserver", "development")
	gin.SetMode(gin.ReleaseMode)
	validation.Init()

	s := &devServer{
		usersByEmail: make(map[string]*devUser),
		usersByID:    make(map[string]*devUser),
		verifyTokens: make(map[string]string),
		resetTokens:  make(map[string]string),
		tokens:       helpers.NewTokenManager(secret, 24*time.Hour),
		logger:       logger,
	}

	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api/v1/auth")
	api.POST("/signup", s.signUp)
	api.POST("/signin", s.signIn)
	api.POST("/signout", s.signOut)
	api.POST("/verify-email", s.verifyEmail)
	api.POST("/resend-verification", s.resendVerification)
	api.POST("/request-password-reset", s.requestPasswordReset)
	api.POST("/reset-password", s.resetPassword)

	authed := api.Group("/")
	authed.Use(s.requireSession)
	authed.GET("/profile", s.getProfile)
	authed.HEAD("/profile", s.headProfile)
	authed.PUT("/profile", s.updateProfile)
	authed.PUT("/change-password", s.changePassword)

	logger.Infof("devserver listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		logger.Fatalf("devserver: %v", err)
	}
}
