package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"Linkup/cache"
	"Linkup/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notificationRouter(server *Server, actorID uint) *gin.Engine {
	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.Use(authAs(actorID))
	v1.GET("/notifications", server.GetNotifications)
	v1.GET("/notifications/unread-count", server.GetUnreadCount)
	v1.PATCH("/notifications/read/:id", server.MarkNotificationRead)
	return r
}

func TestMarkNotificationReadIsIdempotent(t *testing.T) {
	server, db := setupFollowTestServer(t)
	alice := createFollowTestUser(t, db, "alice")
	bob := createFollowTestUser(t, db, "bob")

	notification := models.NewFollowRequestNotification(bob.ID, alice.ID)
	require.NoError(t, notification.Record(db))

	asBob := notificationRouter(server, bob.ID)
	path := "/api/v1/notifications/read/" + strconv.FormatUint(uint64(notification.ID), 10)

	w := doRequest(asBob, http.MethodPatch, path)
	assert.Equal(t, http.StatusOK, w.Code)

	// Marking again succeeds and the flag stays set.
	w = doRequest(asBob, http.MethodPatch, path)
	assert.Equal(t, http.StatusOK, w.Code)

	var stored models.Notification
	require.NoError(t, db.First(&stored, notification.ID).Error)
	assert.True(t, stored.IsRead)
}

func TestMarkNotificationReadOwnership(t *testing.T) {
	server, db := setupFollowTestServer(t)
	alice := createFollowTestUser(t, db, "alice")
	bob := createFollowTestUser(t, db, "bob")

	notification := models.NewFollowRequestNotification(bob.ID, alice.ID)
	require.NoError(t, notification.Record(db))

	// Alice cannot read-mark Bob's notification.
	asAlice := notificationRouter(server, alice.ID)
	path := "/api/v1/notifications/read/" + strconv.FormatUint(uint64(notification.ID), 10)
	w := doRequest(asAlice, http.MethodPatch, path)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var stored models.Notification
	require.NoError(t, db.First(&stored, notification.ID).Error)
	assert.False(t, stored.IsRead)
}

func TestGetNotificationsListsUnreadOnly(t *testing.T) {
	server, db := setupFollowTestServer(t)
	alice := createFollowTestUser(t, db, "alice")
	bob := createFollowTestUser(t, db, "bob")

	first := models.NewFollowRequestNotification(bob.ID, alice.ID)
	require.NoError(t, first.Record(db))
	second := models.NewFollowAcceptedNotification(bob.ID, alice.ID)
	require.NoError(t, second.Record(db))

	_, err := models.MarkNotificationRead(db, first.ID)
	require.NoError(t, err)

	asBob := notificationRouter(server, bob.ID)
	w := doRequest(asBob, http.MethodGet, "/api/v1/notifications")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	response := body["response"].([]interface{})
	require.Len(t, response, 1)
	entry := response[0].(map[string]interface{})
	assert.Equal(t, models.NotificationFollowAccepted, entry["type"])
}

func TestGetUnreadCountUsesCache(t *testing.T) {
	server, db := setupFollowTestServer(t)
	bob := createFollowTestUser(t, db, "bob")
	alice := createFollowTestUser(t, db, "alice")

	mr := miniredis.RunT(t)
	cache.InitWithAddr(mr.Addr())
	defer func() { cache.Client = nil }()

	notification := models.NewFollowRequestNotification(bob.ID, alice.ID)
	require.NoError(t, notification.Record(db))

	asBob := notificationRouter(server, bob.ID)

	// First read misses the cache and fills it from the database.
	w := doRequest(asBob, http.MethodGet, "/api/v1/notifications/unread-count")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	count := body["response"].(map[string]interface{})["count"].(float64)
	assert.Equal(t, float64(1), count)

	// A stale cached value is served as-is until invalidated.
	require.NoError(t, mr.Set("notifications:unread:"+strconv.FormatUint(uint64(bob.ID), 10), "7"))
	w = doRequest(asBob, http.MethodGet, "/api/v1/notifications/unread-count")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	count = body["response"].(map[string]interface{})["count"].(float64)
	assert.Equal(t, float64(7), count)

	// Marking a notification read invalidates the cache, so the next
	// read reflects the database again.
	path := "/api/v1/notifications/read/" + strconv.FormatUint(uint64(notification.ID), 10)
	w = doRequest(asBob, http.MethodPatch, path)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(asBob, http.MethodGet, "/api/v1/notifications/unread-count")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	count = body["response"].(map[string]interface{})["count"].(float64)
	assert.Equal(t, float64(0), count)
}
