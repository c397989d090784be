package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orbitlabs/commune/backend/internal/auth"
	"github.com/orbitlabs/commune/backend/internal/chat"
	apperrors "github.com/orbitlabs/commune/backend/internal/errors"
	"github.com/orbitlabs/commune/backend/internal/logger"
	"github.com/orbitlabs/commune/backend/internal/util"
	"go.uber.org/zap"
)

// AuthHandlers contains the identity-edge handlers
type AuthHandlers struct {
	service *auth.Service
	chat    *chat.Client
}

// NewAuthHandlers creates the auth handler set
func NewAuthHandlers(service *auth.Service, chatClient *chat.Client) *AuthHandlers {
	return &AuthHandlers{
		service: service,
		chat:    chatClient,
	}
}

// Register creates a new account
// POST /api/v1/auth/register
func (h *AuthHandlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.service.Register(req)
	if err != nil {
		util.RespondEngineError(c, err)
		return
	}

	// Provision the chat-side user; registration still succeeds if the
	// chat service is down, the upsert re-runs on next token fetch
	if h.chat != nil {
		if err := h.chat.UpsertUser(resp.User.StreamUserID, resp.User.DisplayName); err != nil {
			logger.Log.Warn("chat user provisioning failed",
				zap.String("user_id", resp.User.ID),
				zap.Error(err),
			)
		}
	}

	c.JSON(http.StatusCreated, resp)
}

// Login authenticates email/password credentials
// POST /api/v1/auth/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.service.Login(req)
	if err != nil {
		util.RespondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user
// GET /api/v1/auth/me
func (h *AuthHandlers) Me(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": currentUser})
}

// GetChatToken mints a getstream.io chat token for the client
// GET /api/v1/auth/chat-token
func (h *AuthHandlers) GetChatToken(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if h.chat == nil {
		util.RespondWithAPIError(c, apperrors.ServiceUnavailable("chat"))
		return
	}

	// Re-upsert so renamed users stay in sync on the chat side
	if err := h.chat.UpsertUser(currentUser.StreamUserID, currentUser.DisplayName); err != nil {
		util.RespondInternalError(c, "failed to sync chat user")
		return
	}

	token, err := h.chat.CreateToken(currentUser.StreamUserID)
	if err != nil {
		util.RespondInternalError(c, "failed to create chat token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":          token,
		"stream_user_id": currentUser.StreamUserID,
	})
}
