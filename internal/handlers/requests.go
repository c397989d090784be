package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orbitlabs/commune/backend/internal/models"
	"github.com/orbitlabs/commune/backend/internal/util"
)

// CreateWorkflowRequest opens a location-sharing or invite request
// POST /api/v1/requests
func (h *Handlers) CreateWorkflowRequest(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Domain    string `json:"domain" binding:"required"`
		OwnerID   string `json:"owner_id" binding:"required"`
		SubjectID string `json:"subject_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	domain := models.WorkflowDomain(req.Domain)
	if domain != models.WorkflowDomainLocation && domain != models.WorkflowDomainInvite {
		util.RespondValidationError(c, "domain", "domain must be location or invite")
		return
	}

	request, err := h.workflows.Create(domain, currentUser.ID, req.OwnerID, req.SubjectID)
	if err != nil {
		util.RespondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// GetIncomingRequests returns pending requests waiting on the caller
// GET /api/v1/requests
func (h *Handlers) GetIncomingRequests(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	requests, err := h.workflows.Inbox(currentUser.ID)
	if err != nil {
		util.RespondEngineError(c, err)
		return
	}

	type RequestResponse struct {
		ID          string `json:"id"`
		Domain      string `json:"domain"`
		SubjectID   string `json:"subject_id"`
		RequesterID string `json:"requester_id"`
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
		CreatedAt   string `json:"created_at"`
	}

	response := make([]RequestResponse, len(requests))
	for i, req := range requests {
		response[i] = RequestResponse{
			ID:          req.ID,
			Domain:      string(req.Domain),
			SubjectID:   req.SubjectID,
			RequesterID: req.RequesterID,
			Username:    req.Requester.Username,
			DisplayName: req.Requester.DisplayName,
			CreatedAt:   req.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": response,
		"count":    len(response),
	})
}

// GetOutgoingRequests returns every request the caller has sent
// GET /api/v1/requests/outgoing
func (h *Handlers) GetOutgoingRequests(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	requests, err := h.workflows.Outbox(currentUser.ID)
	if err != nil {
		util.RespondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"count":    len(requests),
	})
}

// AcceptWorkflowRequest accepts a pending request
// POST /api/v1/requests/:id/accept
func (h *Handlers) AcceptWorkflowRequest(c *gin.Context) {
	h.decide(c, models.WorkflowStatusAccepted)
}

// DenyWorkflowRequest denies a pending request
// POST /api/v1/requests/:id/deny
func (h *Handlers) DenyWorkflowRequest(c *gin.Context) {
	h.decide(c, models.WorkflowStatusDenied)
}

func (h *Handlers) decide(c *gin.Context, outcome models.WorkflowStatus) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	request, err := h.workflows.Decide(c.Param("id"), currentUser.ID, outcome)
	if err != nil {
		util.RespondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  string(outcome),
		"request": request,
	})
}
