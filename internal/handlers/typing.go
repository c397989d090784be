package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/orbitlabs/commune/backend/internal/errors"
	"github.com/orbitlabs/commune/backend/internal/util"
)

// SetTyping records that the caller is typing in a channel
// POST /api/v1/typing
func (h *Handlers) SetTyping(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if h.typing == nil {
		util.RespondWithAPIError(c, apperrors.ServiceUnavailable("typing indicators"))
		return
	}

	var req struct {
		ChannelID string `json:"channel_id" binding:"required"`
		Done      bool   `json:"done"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var err error
	if req.Done {
		err = h.typing.Clear(req.ChannelID, currentUser.ID)
	} else {
		err = h.typing.Set(req.ChannelID, currentUser.ID)
	}
	if err != nil {
		util.RespondInternalError(c, "failed to update typing state")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetTyping returns the users currently typing in a channel
// GET /api/v1/typing/:channelID
func (h *Handlers) GetTyping(c *gin.Context) {
	if _, ok := util.GetUserFromContext(c); !ok {
		return
	}

	if h.typing == nil {
		util.RespondWithAPIError(c, apperrors.ServiceUnavailable("typing indicators"))
		return
	}

	users, err := h.typing.Active(c.Param("channelID"))
	if err != nil {
		util.RespondInternalError(c, "failed to read typing state")
		return
	}
	if users == nil {
		users = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"channel_id": c.Param("channelID"),
		"typing":     users,
	})
}
