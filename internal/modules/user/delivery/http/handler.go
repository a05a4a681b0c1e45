package handler

import (
	"net/http"

	"anoa.com/tutorhub/internal/modules/user/dto"
	"anoa.com/tutorhub/internal/modules/user/service"
	"anoa.com/tutorhub/internal/session"
	"anoa.com/tutorhub/pkg/logger"
	"anoa.com/tutorhub/pkg/ratelimiter"
	"anoa.com/tutorhub/pkg/response"
	"anoa.com/tutorhub/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	sessions    *session.Manager
	limiter     *ratelimiter.Limiter
	log         *logger.Logger
}

func NewAuthHandler(authService service.AuthService, sessions *session.Manager, limiter *ratelimiter.Limiter, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		limiter:     limiter,
		log:         log,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input dto.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.FromBinding(err))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful. Please log in.",
		"user":    user,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.FromBinding(err))
		return
	}

	res, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	// failed attempts from this address stop counting once one succeeds
	if err := h.limiter.Reset(c.Request.Context(), ratelimiter.ActionLogin, c.ClientIP()); err != nil {
		h.log.Warn("failed to reset login rate limit", "error", err)
	}

	h.sessions.SetSessionCookie(c, res.AccessToken)
	if res.RememberToken != "" {
		h.sessions.SetRememberCookie(c, res.RememberToken)
	}

	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.ClearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out."})
}

func (h *AuthHandler) GiveConsent(c *gin.Context) {
	h.sessions.SetConsent(c)
	c.JSON(http.StatusOK, gin.H{"message": "Cookie preferences saved."})
}

func (h *AuthHandler) RevokeConsent(c *gin.Context) {
	h.sessions.ClearConsent(c)
	c.JSON(http.StatusOK, gin.H{"message": "Cookie consent withdrawn."})
}
