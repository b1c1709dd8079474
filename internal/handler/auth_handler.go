package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ptm/backend/internal/middleware"
	"ptm/backend/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	enabled     bool
}

type sessionRequest struct {
	Passphrase string `json:"passphrase"`
}

func NewAuthHandler(authService *service.AuthService, enabled bool) *AuthHandler {
	return &AuthHandler{authService: authService, enabled: enabled}
}

func (h *AuthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"authEnabled": h.enabled,
		"configured":  h.authService.Configured(),
	})
}

func (h *AuthHandler) Setup(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	result, apiErr := h.authService.Setup(c.Request.Context(), req.Passphrase)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	result, apiErr := h.authService.Login(c.Request.Context(), req.Passphrase)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"subject": middleware.Subject(c)})
}
