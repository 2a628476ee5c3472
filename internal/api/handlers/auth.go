package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paulaPelizer/DocScriptum/internal/api/middleware"
	"github.com/paulaPelizer/DocScriptum/internal/services"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *services.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger.With(zap.String("handler", "auth")),
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, user, err := ah.authService.Login(body.Username, body.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"username": user.Username,
		"roles":    user.RoleList(),
	})
}

// Me echoes the authenticated identity. Unauthenticated callers get an
// empty object, not an error.
func (ah *AuthHandler) Me(c *gin.Context) {
	username, roles, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username": username,
		"roles":    roles,
	})
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var body registerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := ah.authService.Register(body.Username, body.Password, body.Email, body.Token)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"username": user.Username,
		"roles":    user.RoleList(),
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword always answers with the same generic message so the
// endpoint does not reveal which emails are registered.
func (ah *AuthHandler) ForgotPassword(c *gin.Context) {
	var body forgotPasswordRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := ah.authService.ForgotPassword(body.Email); err != nil {
		ah.logger.Error("Forgot-password processing failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "If the email is registered, reset instructions have been sent.",
	})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (ah *AuthHandler) ResetPassword(c *gin.Context) {
	var body resetPasswordRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := ah.authService.ResetPassword(body.Token, body.Password); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated."})
}
