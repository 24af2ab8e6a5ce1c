package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"Linkup/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// authAs injects the authenticated user without going through the JWT
// middleware.
func authAs(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

func setupFollowTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	if err := MigrateAndEnsure(db); err != nil {
		t.Fatalf("Failed to migrate in-memory database: %v", err)
	}
	return &Server{DB: db}, db
}

func createFollowTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	}
	if _, err := user.SaveUser(db); err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return &user
}

func followRouter(server *Server, actorID uint) *gin.Engine {
	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.Use(authAs(actorID))
	v1.POST("/users/:id/request-follow", server.RequestFollow)
	v1.POST("/users/:id/cancel-follow-request", server.CancelFollowRequest)
	v1.POST("/users/:id/accept-follow", server.AcceptFollowRequest)
	v1.POST("/users/:id/reject-follow", server.RejectFollowRequest)
	v1.POST("/users/:id/follow", server.FollowUser)
	v1.POST("/users/:id/unfollow", server.UnfollowUser)
	v1.POST("/users/:id/remove-follower", server.RemoveFollower)
	v1.GET("/users/:id/relationship", server.GetRelationship)
	v1.GET("/follows/requests", server.GetFollowRequests)
	v1.GET("/follows/requests/status/:id", server.GetFollowRequestStatus)
	r.GET("/api/v1/users/:id/followers", server.GetFollowers)
	r.GET("/api/v1/users/:id/following", server.GetFollowing)
	return r
}

func doRequest(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestFollowLifecycle(t *testing.T) {
	server, db := setupFollowTestServer(t)
	alice := createFollowTestUser(t, db, "alice")
	bob := createFollowTestUser(t, db, "bob")

	asAlice := followRouter(server, alice.ID)
	asBob := followRouter(server, bob.ID)

	// Alice requests to follow Bob.
	w := doRequest(asAlice, http.MethodPost, "/api/v1/users/"+bob.PublicID+"/request-follow")
	assert.Equal(t, http.StatusCreated, w.Code)

	// A second identical request conflicts while the first is pending.
	w = doRequest(asAlice, http.MethodPost, "/api/v1/users/"+bob.PublicID+"/request-follow")
	assert.Equal(t, http.StatusConflict, w.Code)

	// Bob sees exactly one pending request, and gets a notification.
	pending, err := models.PendingRequestsFor(db, bob.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Equal(t, alice.ID, pending[0].RequesterID)

	var notificationCount int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", bob.ID, models.NotificationFollowRequest).
		Count(&notificationCount)
	assert.Equal(t, int64(1), notificationCount)

	// Bob accepts: the edge now exists and counters moved on both sides.
	w = doRequest(asBob, http.MethodPost, "/api/v1/users/"+alice.PublicID+"/accept-follow")
	assert.Equal(t, http.StatusOK, w.Code)

	following, err := models.FollowExists(db, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	var freshAlice, freshBob models.User
	require.NoError(t, db.First(&freshAlice, alice.ID).Error)
	require.NoError(t, db.First(&freshBob, bob.ID).Error)
	assert.Equal(t, int64(1), freshAlice.FollowingCount)
	assert.Equal(t, int64(1), freshBob.FollowersCount)

	// Accepting a second time finds no pending request.
	w = doRequest(asBob, http.MethodPost, "/api/v1/users/"+alice.PublicID+"/accept-follow")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRejectThenReRequest(t *testing.T) {
	server, db := setupFollowTestServer(t)
	alice := createFollowTestUser(t, db, "alice")
	bob := createFollowTestUser(t, db, "bob")

	asAlice := followRouter(server, alice.ID)
	asBob := followRouter(server, bob.ID)

	w := doRequest(asAlice, http.MethodPost, "/api/v1/users/"+bob.PublicID+"/request-follow")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(asBob, http.MethodPost, "/api/v1/users/"+alice.PublicID+"/reject-follow")
	assert.Equal(t, http.StatusOK, w.Code)

	// No edge was created by the rejection.
	following, err := models.FollowExists(db, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)

	// A rejection is not permanent: Alice can ask again.
	w = doRequest(asAlice, http.MethodPost, "/api/v1/users/"+bob.PublicID+"/request-follow")
	assert.Equal(t, http.StatusCreated, w.Code)

	request, err := models.RequestStatus(db, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, request)
	assert.Equal(t, models.FollowRequestPending, request.Status)

	// One pending request, and one notification per request made.
	pending, err := models.PendingRequestsFor(db, bob.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	var notificationCount int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", bob.ID, models.NotificationFollowRequest).
		Count(&notificationCount)
	assert.Equal(t, int64(2), notificationCount)
}

func TestCancelFollowRequest(t *testing.T) {
	server, db := setupFollowTestServer(t)
	alice := createFollowTestUser(t, db, "alice")
	bob := createFollowTestUser(t, db, "bob")

	asAlice := followRouter(server, alice.ID)

	w := doRequest(asAlice, http.MethodPost, "/api/v1/users/"+bob.PublicID+"/request-follow")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(asAlice, http.MethodPost, "/api/v1/users/"+bob.PublicID+"/cancel-follow-request")
	assert.Equal(t, http.StatusOK, w.Code)

	request, err := models.RequestStatus(db, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, request)

	// Cancelling with nothing pending is a not-found, not a silent success.
	w = doRequest(asAlice, http.MethodPost, "/api/v1/users/"+bob.PublicID+"/cancel-follow-request")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSelfFollowRejected(t *testing.T) {
	server, db := setupFollowTestServer(t)
	alice := createFollowTestUser(t, db, "alice")

	asAlice := followRouter(server, alice.ID)

	w := doRequest(asAlice, http.MethodPost, "/api/v1/users/"+alice.PublicID+"/request-follow")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(asAlice, http.MethodPost, "/api/v1/users/"+alice.PublicID+"/follow")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDirectFollowAndUnfollow(t *testing.T) {
	server, db := setupFollowTestServer(t)
	alice := createFollowTestUser(t, db, "alice")
	bob := createFollowTestUser(t, db, "bob")

	asAlice := followRouter(server, alice.ID)

	w := doRequest(asAlice, http.MethodPost, "/api/v1/users/"+bob.PublicID+"/follow")
	assert.Equal(t, http.StatusCreated, w.Code)

	// Following twice is a conflict, and counters do not double-count.
	w = doRequest(asAlice, http.MethodPost, "/api/v1/users/"+bob.PublicID+"/follow")
	assert.Equal(t, http.StatusConflict, w.Code)

	var freshBob models.User
	require.NoError(t, db.First(&freshBob, bob.ID).Error)
	assert.Equal(t, int64(1), freshBob.FollowersCount)

	w = doRequest(asAlice, http.MethodPost, "/api/v1/users/"+bob.PublicID+"/unfollow")
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.First(&freshBob, bob.ID).Error)
	assert.Equal(t, int64(0), freshBob.FollowersCount)

	// Unfollowing without an edge is a not-found.
	w = doRequest(asAlice, http.MethodPost, "/api/v1/users/"+bob.PublicID+"/unfollow")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveFollower(t *testing.T) {
	server, db := setupFollowTestServer(t)
	alice := createFollowTestUser(t, db, "alice")
	bob := createFollowTestUser(t, db, "bob")

	_, err := models.CreateFollowEdge(db, alice.ID, bob.ID)
	require.NoError(t, err)

	asBob := followRouter(server, bob.ID)
	w := doRequest(asBob, http.MethodPost, "/api/v1/users/"+alice.PublicID+"/remove-follower")
	assert.Equal(t, http.StatusOK, w.Code)

	following, err := models.FollowExists(db, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestGetRelationship(t *testing.T) {
	server, db := setupFollowTestServer(t)
	alice := createFollowTestUser(t, db, "alice")
	bob := createFollowTestUser(t, db, "bob")

	_, err := models.CreateFollowEdge(db, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = models.CreateFollowEdge(db, bob.ID, alice.ID)
	require.NoError(t, err)

	asAlice := followRouter(server, alice.ID)
	w := doRequest(asAlice, http.MethodGet, "/api/v1/users/"+bob.PublicID+"/relationship")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["following"])
	assert.Equal(t, true, body["followed_by"])
	assert.Equal(t, true, body["mutual"])
}

func TestFollowersPagination(t *testing.T) {
	server, db := setupFollowTestServer(t)
	target := createFollowTestUser(t, db, "target")

	followers := []*models.User{
		createFollowTestUser(t, db, "fan1"),
		createFollowTestUser(t, db, "fan2"),
		createFollowTestUser(t, db, "fan3"),
	}
	for _, follower := range followers {
		_, err := models.CreateFollowEdge(db, follower.ID, target.ID)
		require.NoError(t, err)
	}

	r := followRouter(server, target.ID)

	w := doRequest(r, http.MethodGet, "/api/v1/users/"+target.PublicID+"/followers?limit=2")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	page := body["response"].(map[string]interface{})
	users := page["users"].([]interface{})
	assert.Len(t, users, 2)
	cursor, ok := page["next_cursor"].(string)
	require.True(t, ok, "expected a next_cursor on the first page")

	w = doRequest(r, http.MethodGet, "/api/v1/users/"+target.PublicID+"/followers?limit=2&cursor="+cursor)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	page = body["response"].(map[string]interface{})
	users = page["users"].([]interface{})
	assert.Len(t, users, 1)
	assert.Nil(t, page["next_cursor"])
}
