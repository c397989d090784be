package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orbitlabs/commune/backend/internal/models"
	"github.com/orbitlabs/commune/backend/internal/util"
)

// CreateCollective creates a group, community, or album with the caller
// as admin
// POST /api/v1/collectives
func (h *Handlers) CreateCollective(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Kind     string `json:"kind" binding:"required"`
		Name     string `json:"name" binding:"required"`
		Capacity *int   `json:"capacity"`
		IsPublic bool   `json:"is_public"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	collective, err := h.memberships.CreateCollective(
		currentUser.ID, models.CollectiveKind(req.Kind), req.Name, req.Capacity, req.IsPublic)
	if err != nil {
		util.RespondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"collective": collective})
}

// GetCollective returns a single active collective
// GET /api/v1/collectives/:id
func (h *Handlers) GetCollective(c *gin.Context) {
	if _, ok := util.GetUserFromContext(c); !ok {
		return
	}

	collective, err := h.memberships.Get(c.Param("id"))
	if err != nil {
		util.RespondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"collective": collective})
}

// GetMyCollectives lists the collectives the caller belongs to
// GET /api/v1/collectives
func (h *Handlers) GetMyCollectives(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	collectives, err := h.memberships.Mine(currentUser.ID)
	if err != nil {
		util.RespondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"collectives": collectives,
		"count":       len(collectives),
	})
}

// JoinCollective adds the caller as a member
// POST /api/v1/collectives/:id/join
func (h *Handlers) JoinCollective(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	membership, err := h.memberships.Join(c.Param("id"), currentUser.ID)
	if err != nil {
		util.RespondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":     "joined",
		"membership": membership,
	})
}

// LeaveCollective removes the caller's membership
// POST /api/v1/collectives/:id/leave
func (h *Handlers) LeaveCollective(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if err := h.memberships.Leave(c.Param("id"), currentUser.ID); err != nil {
		util.RespondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "left",
		"message": "Membership removed",
	})
}

// GetCollectiveMembers lists members with user info
// GET /api/v1/collectives/:id/members
func (h *Handlers) GetCollectiveMembers(c *gin.Context) {
	if _, ok := util.GetUserFromContext(c); !ok {
		return
	}

	members, err := h.memberships.Members(c.Param("id"))
	if err != nil {
		util.RespondEngineError(c, err)
		return
	}

	type MemberResponse struct {
		UserID      string `json:"user_id"`
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
		Role        string `json:"role"`
		JoinedAt    string `json:"joined_at"`
	}

	response := make([]MemberResponse, len(members))
	for i, m := range members {
		response[i] = MemberResponse{
			UserID:      m.UserID,
			Username:    m.User.Username,
			DisplayName: m.User.DisplayName,
			Role:        string(m.Role),
			JoinedAt:    m.JoinedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"members": response,
		"count":   len(response),
	})
}

// DeactivateCollective soft-deactivates a collective (admin only)
// POST /api/v1/collectives/:id/deactivate
func (h *Handlers) DeactivateCollective(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if err := h.memberships.Deactivate(c.Param("id"), currentUser.ID); err != nil {
		util.RespondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "deactivated",
		"message": "Collective deactivated",
	})
}

// PromoteMember raises a member to admin (admin only)
// POST /api/v1/collectives/:id/members/:userID/promote
func (h *Handlers) PromoteMember(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if err := h.memberships.Promote(c.Param("id"), currentUser.ID, c.Param("userID")); err != nil {
		util.RespondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "promoted",
		"message": "Member promoted to admin",
	})
}
