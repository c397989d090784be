package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/orbitlabs/commune/backend/internal/authz"
	"github.com/orbitlabs/commune/backend/internal/keylock"
	"github.com/orbitlabs/commune/backend/internal/membership"
	"github.com/orbitlabs/commune/backend/internal/models"
	"github.com/orbitlabs/commune/backend/internal/notify"
	"github.com/orbitlabs/commune/backend/internal/store"
	"github.com/orbitlabs/commune/backend/internal/testutil"
	"github.com/orbitlabs/commune/backend/internal/typing"
	"github.com/orbitlabs/commune/backend/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EngineTestSuite exercises the API surface end to end against an
// in-memory database. Auth is stubbed with an X-User-ID header; JWT
// verification has its own tests in the auth package.
type EngineTestSuite struct {
	suite.Suite
	db       *gorm.DB
	st       *store.Store
	router   *gin.Engine
	handlers *Handlers

	alice *models.User
	bob   *models.User
}

func (suite *EngineTestSuite) SetupTest() {
	suite.db = testutil.NewTestDB(suite.T())
	suite.st = store.New(suite.db)

	locks := keylock.New()
	dispatcher := notify.New(suite.st, zap.NewNop())
	evaluator := authz.New(suite.st)
	memberships := membership.New(suite.st, evaluator, dispatcher, locks, zap.NewNop())
	workflows := workflow.New(suite.st, dispatcher, locks, zap.NewNop())

	suite.handlers = NewHandlers(memberships, workflows, dispatcher, evaluator)
	ts := typing.New(typing.DefaultTTL, zap.NewNop())
	suite.T().Cleanup(ts.Stop)
	suite.handlers.SetTypingStore(ts)

	suite.alice = testutil.CreateUser(suite.T(), suite.db, "alice")
	suite.bob = testutil.CreateUser(suite.T(), suite.db, "bob")

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.setupRoutes()
}

// setupRoutes mirrors the production route table with header-based auth
func (suite *EngineTestSuite) setupRoutes() {
	authMiddleware := func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		var user models.User
		if err := suite.db.First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Set("user", &user)
		c.Next()
	}

	api := suite.router.Group("/api/v1")
	api.Use(authMiddleware)

	api.POST("/collectives", suite.handlers.CreateCollective)
	api.GET("/collectives", suite.handlers.GetMyCollectives)
	api.GET("/collectives/:id", suite.handlers.GetCollective)
	api.POST("/collectives/:id/join", suite.handlers.JoinCollective)
	api.POST("/collectives/:id/leave", suite.handlers.LeaveCollective)
	api.GET("/collectives/:id/members", suite.handlers.GetCollectiveMembers)
	api.POST("/collectives/:id/deactivate", suite.handlers.DeactivateCollective)
	api.POST("/collectives/:id/members/:userID/promote", suite.handlers.PromoteMember)

	api.POST("/requests", suite.handlers.CreateWorkflowRequest)
	api.GET("/requests", suite.handlers.GetIncomingRequests)
	api.GET("/requests/outgoing", suite.handlers.GetOutgoingRequests)
	api.POST("/requests/:id/accept", suite.handlers.AcceptWorkflowRequest)
	api.POST("/requests/:id/deny", suite.handlers.DenyWorkflowRequest)

	api.GET("/notifications", suite.handlers.GetNotifications)
	api.GET("/notifications/counts", suite.handlers.GetNotificationCounts)
	api.POST("/notifications/read", suite.handlers.MarkAllNotificationsRead)
	api.POST("/notifications/:id/read", suite.handlers.MarkNotificationRead)

	api.POST("/typing", suite.handlers.SetTyping)
	api.GET("/typing/:channelID", suite.handlers.GetTyping)
}

// do performs a request as the given user (empty userID = anonymous)
func (suite *EngineTestSuite) do(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *EngineTestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

// createCollective is a fixture helper going through the API
func (suite *EngineTestSuite) createCollective(creatorID string, body map[string]interface{}) string {
	w := suite.do("POST", "/api/v1/collectives", creatorID, body)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	collective := suite.decode(w)["collective"].(map[string]interface{})
	return collective["id"].(string)
}

func (suite *EngineTestSuite) TestRoutesRequireAuth() {
	t := suite.T()

	for _, route := range []struct{ method, path string }{
		{"POST", "/api/v1/collectives"},
		{"GET", "/api/v1/collectives"},
		{"POST", "/api/v1/requests"},
		{"GET", "/api/v1/notifications"},
		{"POST", "/api/v1/typing"},
	} {
		w := suite.do(route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}

func (suite *EngineTestSuite) TestCreateCollective() {
	t := suite.T()

	w := suite.do("POST", "/api/v1/collectives", suite.alice.ID, map[string]interface{}{
		"kind": "group",
		"name": "climbing crew",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	collective := suite.decode(w)["collective"].(map[string]interface{})
	assert.Equal(t, "group", collective["kind"])
	assert.Equal(t, suite.alice.ID, collective["creator_id"])

	// creator shows up as admin in the members listing
	w = suite.do("GET", "/api/v1/collectives/"+collective["id"].(string)+"/members", suite.alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	response := suite.decode(w)
	assert.EqualValues(t, 1, response["count"])
	member := response["members"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "admin", member["role"])
	assert.Equal(t, "alice", member["username"])
}

func (suite *EngineTestSuite) TestCreateCollectiveRejectsBadKind() {
	w := suite.do("POST", "/api/v1/collectives", suite.alice.ID, map[string]interface{}{
		"kind": "band",
		"name": "x",
	})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
}

func (suite *EngineTestSuite) TestJoinAndLeaveFlow() {
	t := suite.T()
	id := suite.createCollective(suite.alice.ID, map[string]interface{}{
		"kind": "community", "name": "synth nerds",
	})

	w := suite.do("POST", "/api/v1/collectives/"+id+"/join", suite.bob.ID, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "joined", suite.decode(w)["status"])

	// double join conflicts
	w = suite.do("POST", "/api/v1/collectives/"+id+"/join", suite.bob.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// alice got a member_joined notification
	w = suite.do("GET", "/api/v1/notifications/counts", suite.alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, suite.decode(w)["unread"])

	w = suite.do("POST", "/api/v1/collectives/"+id+"/leave", suite.bob.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// the creator cannot leave
	w = suite.do("POST", "/api/v1/collectives/"+id+"/leave", suite.alice.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func (suite *EngineTestSuite) TestJoinFullCollective() {
	t := suite.T()
	id := suite.createCollective(suite.alice.ID, map[string]interface{}{
		"kind": "group", "name": "solo", "capacity": 1,
	})

	w := suite.do("POST", "/api/v1/collectives/"+id+"/join", suite.bob.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.Equal(t, "FULL", suite.decode(w)["code"])
}

func (suite *EngineTestSuite) TestDeactivateCollective() {
	t := suite.T()
	id := suite.createCollective(suite.alice.ID, map[string]interface{}{
		"kind": "album", "name": "trip photos",
	})

	// non-member cannot deactivate
	w := suite.do("POST", "/api/v1/collectives/"+id+"/deactivate", suite.bob.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.do("POST", "/api/v1/collectives/"+id+"/deactivate", suite.alice.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// a deactivated collective reads as absent
	w = suite.do("GET", "/api/v1/collectives/"+id, suite.alice.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *EngineTestSuite) TestPromoteMember() {
	t := suite.T()
	id := suite.createCollective(suite.alice.ID, map[string]interface{}{
		"kind": "group", "name": "crew",
	})
	w := suite.do("POST", "/api/v1/collectives/"+id+"/join", suite.bob.ID, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// bob cannot promote himself
	w = suite.do("POST", "/api/v1/collectives/"+id+"/members/"+suite.bob.ID+"/promote", suite.bob.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.do("POST", "/api/v1/collectives/"+id+"/members/"+suite.bob.ID+"/promote", suite.alice.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	membership, err := suite.st.GetMembership(id, suite.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, membership.Role)
}

func (suite *EngineTestSuite) TestWorkflowRequestLifecycle() {
	t := suite.T()

	// bob asks alice for her location
	w := suite.do("POST", "/api/v1/requests", suite.bob.ID, map[string]interface{}{
		"domain":     "location",
		"owner_id":   suite.alice.ID,
		"subject_id": suite.alice.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	request := suite.decode(w)["request"].(map[string]interface{})
	requestID := request["id"].(string)
	assert.Equal(t, "pending", request["status"])

	// it lands in alice's inbox with bob's details
	w = suite.do("GET", "/api/v1/requests", suite.alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	response := suite.decode(w)
	require.EqualValues(t, 1, response["count"])
	incoming := response["requests"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "bob", incoming["username"])

	// bob cannot decide his own request
	w = suite.do("POST", "/api/v1/requests/"+requestID+"/accept", suite.bob.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.do("POST", "/api/v1/requests/"+requestID+"/accept", suite.alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decided := suite.decode(w)["request"].(map[string]interface{})
	assert.Equal(t, "accepted", decided["status"])
	assert.NotNil(t, decided["responded_at"])

	// deciding again conflicts
	w = suite.do("POST", "/api/v1/requests/"+requestID+"/deny", suite.alice.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// bob sees the outcome in his outbox
	w = suite.do("GET", "/api/v1/requests/outgoing", suite.bob.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, suite.decode(w)["count"])
}

func (suite *EngineTestSuite) TestCreateRequestValidation() {
	t := suite.T()

	// unknown domain
	w := suite.do("POST", "/api/v1/requests", suite.bob.ID, map[string]interface{}{
		"domain":     "teleport",
		"owner_id":   suite.alice.ID,
		"subject_id": suite.alice.ID,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// missing fields
	w = suite.do("POST", "/api/v1/requests", suite.bob.ID, map[string]interface{}{
		"domain": "location",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// self-request
	w = suite.do("POST", "/api/v1/requests", suite.bob.ID, map[string]interface{}{
		"domain":     "location",
		"owner_id":   suite.bob.ID,
		"subject_id": suite.bob.ID,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func (suite *EngineTestSuite) TestNotificationsFlow() {
	t := suite.T()

	// two requests produce two notifications for alice
	for _, domain := range []string{"location", "invite"} {
		w := suite.do("POST", "/api/v1/requests", suite.bob.ID, map[string]interface{}{
			"domain":     domain,
			"owner_id":   suite.alice.ID,
			"subject_id": suite.alice.ID,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := suite.do("GET", "/api/v1/notifications", suite.alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	response := suite.decode(w)
	assert.EqualValues(t, 2, response["unread"])
	events := response["notifications"].([]interface{})

	// bob cannot mark alice's notification
	first := events[0].(map[string]interface{})["id"].(string)
	w = suite.do("POST", "/api/v1/notifications/"+first+"/read", suite.bob.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.do("POST", "/api/v1/notifications/"+first+"/read", suite.alice.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// mark-all sweeps the remainder and reports the count
	w = suite.do("POST", "/api/v1/notifications/read", suite.alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, suite.decode(w)["marked"])

	w = suite.do("GET", "/api/v1/notifications/counts", suite.alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, suite.decode(w)["unread"])
}

func (suite *EngineTestSuite) TestTypingIndicators() {
	t := suite.T()

	w := suite.do("POST", "/api/v1/typing", suite.alice.ID, map[string]interface{}{
		"channel_id": "dm-alice-bob",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.do("GET", "/api/v1/typing/dm-alice-bob", suite.bob.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	response := suite.decode(w)
	assert.Equal(t, []interface{}{suite.alice.ID}, response["typing"])

	// done clears the indicator
	w = suite.do("POST", "/api/v1/typing", suite.alice.ID, map[string]interface{}{
		"channel_id": "dm-alice-bob",
		"done":       true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.do("GET", "/api/v1/typing/dm-alice-bob", suite.bob.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, suite.decode(w)["typing"])
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}
