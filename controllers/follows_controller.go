package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Linkup/cache"
	"Linkup/models"
	httpctx "Linkup/utils/httpctx"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RequestFollow godoc
// @Summary      Request to follow a user
// @Description  Open a pending follow request toward another user
// @Tags         follows
// @Produce      json
// @Param        id   path      string  true  "User ID to request"
// @Success      201  {object}  FollowRequestDTO
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id}/request-follow [post]
// @Security     BearerAuth
func (server *Server) RequestFollow(c *gin.Context) {
	requesterID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	target, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	request, err := models.RequestFollow(server.DB, requesterID, target.ID)
	if err != nil {
		server.respondFollowError(c, err)
		return
	}

	server.notify(models.NewFollowRequestNotification(target.ID, requesterID))

	c.JSON(http.StatusCreated, gin.H{"status": http.StatusCreated, "response": request})
}

// CancelFollowRequest godoc
// @Summary      Cancel a pending follow request
// @Tags         follows
// @Produce      json
// @Param        id   path      string  true  "Recipient user ID"
// @Success      200  {object}  SimpleMessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id}/cancel-follow-request [post]
// @Security     BearerAuth
func (server *Server) CancelFollowRequest(c *gin.Context) {
	requesterID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	target, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := models.CancelFollowRequest(server.DB, requesterID, target.ID); err != nil {
		server.respondFollowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": "Follow request cancelled"})
}

// AcceptFollowRequest godoc
// @Summary      Accept a follow request
// @Description  Approve a pending request; the requester becomes a follower
// @Tags         follows
// @Produce      json
// @Param        id   path      string  true  "Requester user ID"
// @Success      200  {object}  SimpleMessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id}/accept-follow [post]
// @Security     BearerAuth
func (server *Server) AcceptFollowRequest(c *gin.Context) {
	approverID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	requester, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := models.AcceptFollowRequest(server.DB, approverID, requester.ID); err != nil {
		server.respondFollowError(c, err)
		return
	}

	server.notify(models.NewFollowAcceptedNotification(requester.ID, approverID))

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": "Follow request accepted"})
}

// RejectFollowRequest godoc
// @Summary      Reject a follow request
// @Tags         follows
// @Produce      json
// @Param        id   path      string  true  "Requester user ID"
// @Success      200  {object}  SimpleMessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id}/reject-follow [post]
// @Security     BearerAuth
func (server *Server) RejectFollowRequest(c *gin.Context) {
	approverID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	requester, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := models.RejectFollowRequest(server.DB, approverID, requester.ID); err != nil {
		server.respondFollowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": "Follow request rejected"})
}

// FollowUser godoc
// @Summary      Follow a user directly
// @Description  Create the follow edge without the approval gate
// @Tags         follows
// @Produce      json
// @Param        id   path      string  true  "User ID to follow"
// @Success      201  {object}  SimpleMessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id}/follow [post]
// @Security     BearerAuth
func (server *Server) FollowUser(c *gin.Context) {
	followerID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	target, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if _, err := models.CreateFollowEdge(server.DB, followerID, target.ID); err != nil {
		server.respondFollowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": http.StatusCreated, "response": "User followed successfully"})
}

// UnfollowUser godoc
// @Summary      Unfollow a user
// @Tags         follows
// @Produce      json
// @Param        id   path      string  true  "User ID to unfollow"
// @Success      200  {object}  SimpleMessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id}/unfollow [post]
// @Security     BearerAuth
func (server *Server) UnfollowUser(c *gin.Context) {
	followerID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	target, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := models.DeleteFollowEdge(server.DB, followerID, target.ID); err != nil {
		server.respondFollowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": "User unfollowed successfully"})
}

// RemoveFollower godoc
// @Summary      Remove one of your followers
// @Description  Delete the edge where the given user follows you
// @Tags         follows
// @Produce      json
// @Param        id   path      string  true  "Follower user ID"
// @Success      200  {object}  SimpleMessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id}/remove-follower [post]
// @Security     BearerAuth
func (server *Server) RemoveFollower(c *gin.Context) {
	targetID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	follower, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := models.DeleteFollowEdge(server.DB, follower.ID, targetID); err != nil {
		server.respondFollowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": "Follower removed successfully"})
}

// GetFollowRequests godoc
// @Summary      List pending follow requests
// @Tags         follows
// @Produce      json
// @Success      200  {array}   FollowRequestDTO
// @Failure      401  {object}  ErrorResponse
// @Router       /follows/requests [get]
// @Security     BearerAuth
func (server *Server) GetFollowRequests(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	requests, err := models.PendingRequestsFor(server.DB, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching follow requests"})
		return
	}

	response := make([]FollowRequestDTO, len(requests))
	for i := range requests {
		response[i] = followRequestToDTO(&requests[i])
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": response})
}

// GetFollowRequestStatus godoc
// @Summary      Get the follow-request state for a pair
// @Description  Returns the request from the authenticated user toward the target, or null
// @Tags         follows
// @Produce      json
// @Param        id   path      string  true  "Target user ID"
// @Success      200  {object}  FollowRequestDTO
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /follows/requests/status/{id} [get]
// @Security     BearerAuth
func (server *Server) GetFollowRequestStatus(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	target, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	request, err := models.RequestStatus(server.DB, userID, target.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching request status"})
		return
	}
	if request == nil {
		c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": request})
}

// GetFollowers godoc
// @Summary      List followers
// @Description  List followers for a user (cursor-based pagination)
// @Tags         follows
// @Produce      json
// @Param        id      path   string  true   "User ID"
// @Param        limit   query  int     false  "Max results (default 20, max 100)"
// @Param        cursor  query  string  false  "Pagination cursor"
// @Success      200  {object}  FollowUserDTO
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id}/followers [get]
func (server *Server) GetFollowers(c *gin.Context) {
	target, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	limit := parseLimit(c.DefaultQuery("limit", "20"))
	cursor, err := parseFollowCursor(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
		return
	}

	rows, err := server.fetchFollowRows(
		"follows.followed_id = ?",
		[]interface{}{target.ID},
		"users.id = follows.follower_id",
		limit,
		cursor,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching followers"})
		return
	}

	viewerID, hasViewer := optionalViewerID(c)
	followingMap, followedByMap, err := loadViewerRelationships(server.DB, viewerID, hasViewer, rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading viewer relationships"})
		return
	}
	response, nextCursor := buildFollowListResponse(rows, limit, hasViewer, followingMap, followedByMap)
	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"response": gin.H{
			"users":       response,
			"next_cursor": nextCursor,
		},
	})
}

// GetFollowing godoc
// @Summary      List following
// @Description  List users a user is following (cursor-based pagination)
// @Tags         follows
// @Produce      json
// @Param        id      path   string  true   "User ID"
// @Param        limit   query  int     false  "Max results (default 20, max 100)"
// @Param        cursor  query  string  false  "Pagination cursor"
// @Success      200  {object}  FollowUserDTO
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id}/following [get]
func (server *Server) GetFollowing(c *gin.Context) {
	target, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	limit := parseLimit(c.DefaultQuery("limit", "20"))
	cursor, err := parseFollowCursor(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
		return
	}

	rows, err := server.fetchFollowRows(
		"follows.follower_id = ?",
		[]interface{}{target.ID},
		"users.id = follows.followed_id",
		limit,
		cursor,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching following"})
		return
	}

	viewerID, hasViewer := optionalViewerID(c)
	followingMap, followedByMap, err := loadViewerRelationships(server.DB, viewerID, hasViewer, rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading viewer relationships"})
		return
	}
	response, nextCursor := buildFollowListResponse(rows, limit, hasViewer, followingMap, followedByMap)
	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"response": gin.H{
			"users":       response,
			"next_cursor": nextCursor,
		},
	})
}

// GetRelationship godoc
// @Summary      Get relationship state
// @Description  Get relationship flags between the authenticated user and a target user
// @Tags         follows
// @Produce      json
// @Param        id   path      string  true  "Target User ID"
// @Success      200  {object}  SimpleMessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id}/relationship [get]
// @Security     BearerAuth
func (server *Server) GetRelationship(c *gin.Context) {
	viewerID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	target, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if viewerID == target.ID {
		c.JSON(http.StatusOK, gin.H{
			"following":   false,
			"followed_by": false,
			"mutual":      false,
		})
		return
	}

	following, err := models.FollowExists(server.DB, viewerID, target.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error checking relationship"})
		return
	}
	followedBy, err := models.FollowExists(server.DB, target.ID, viewerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error checking relationship"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"following":   following,
		"followed_by": followedBy,
		"mutual":      following && followedBy,
	})
}

// notify records a notification as a side effect of an already-committed
// state change. Failures are logged and swallowed: the primary write is
// the durability boundary.
func (server *Server) notify(notification *models.Notification) {
	if err := notification.Record(server.DB); err != nil {
		log.Printf("failed to record %s notification for user %d: %v",
			notification.Type, notification.UserID, err)
		return
	}
	cache.InvalidateUnreadCount(context.Background(), notification.UserID)
}

func (server *Server) respondFollowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrSelfFollow):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot follow yourself"})
	case errors.Is(err, models.ErrDuplicateRequest):
		c.JSON(http.StatusConflict, gin.H{"error": "Follow request already pending"})
	case errors.Is(err, models.ErrAlreadyFollowing):
		c.JSON(http.StatusConflict, gin.H{"error": "Already following user"})
	case errors.Is(err, models.ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Follow request not found"})
	case errors.Is(err, models.ErrFollowNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Follow relationship not found"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating follow state"})
	}
}

// optionalViewerID reads the viewer from context when the route passed
// through auth, without requiring it on public list endpoints.
func optionalViewerID(c *gin.Context) (uint, bool) {
	return httpctx.CurrentUserID(c)
}

func loadViewerRelationships(db *gorm.DB, viewerID uint, hasViewer bool, rows []followRow) (map[uint]bool, map[uint]bool, error) {
	followingMap := make(map[uint]bool)
	followedByMap := make(map[uint]bool)
	if !hasViewer || len(rows) == 0 {
		return followingMap, followedByMap, nil
	}

	ids := make([]uint, len(rows))
	for i := range rows {
		ids[i] = rows[i].User.ID
	}

	var followingIDs []uint
	if err := db.Table("follows").
		Select("followed_id").
		Where("follower_id = ? AND followed_id IN ?", viewerID, ids).
		Scan(&followingIDs).Error; err != nil {
		return nil, nil, err
	}
	for _, id := range followingIDs {
		followingMap[id] = true
	}

	var followedByIDs []uint
	if err := db.Table("follows").
		Select("follower_id").
		Where("followed_id = ? AND follower_id IN ?", viewerID, ids).
		Scan(&followedByIDs).Error; err != nil {
		return nil, nil, err
	}
	for _, id := range followedByIDs {
		followedByMap[id] = true
	}

	return followingMap, followedByMap, nil
}

type followRow struct {
	models.User
	FollowID        uint      `gorm:"column:follow_id"`
	FollowCreatedAt time.Time `gorm:"column:follow_created_at"`
}

type followCursor struct {
	CreatedAt time.Time
	ID        uint
}

func parseFollowCursor(value string) (*followCursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return nil, err
	}
	return &followCursor{CreatedAt: time.Unix(0, nanos).UTC(), ID: uint(id)}, nil
}

func formatFollowCursor(row followRow) string {
	return fmt.Sprintf("%d:%d", row.FollowCreatedAt.UnixNano(), row.FollowID)
}

func parseLimit(value string) int {
	limit, err := strconv.Atoi(value)
	if err != nil || limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func (server *Server) fetchFollowRows(whereClause string, whereArgs []interface{}, joinClause string, limit int, cursor *followCursor) ([]followRow, error) {
	query := server.DB.Table("follows").
		Select("follows.id as follow_id, follows.created_at as follow_created_at, users.*").
		Joins("JOIN users ON "+joinClause).
		Where(whereClause, whereArgs...)

	if cursor != nil {
		query = query.Where(
			"(follows.created_at < ?) OR (follows.created_at = ? AND follows.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []followRow
	if err := query.Order("follows.created_at DESC, follows.id DESC").
		Limit(limit + 1).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func buildFollowListResponse(rows []followRow, limit int, hasViewer bool, followingMap map[uint]bool, followedByMap map[uint]bool) ([]FollowUserDTO, *string) {
	if len(rows) == 0 {
		return []FollowUserDTO{}, nil
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	users := make([]FollowUserDTO, len(rows))
	for i := range rows {
		user := rows[i].User
		_ = user.AfterFind(nil)
		payload := FollowUserDTO{
			UserDTO: userToDTO(&user),
		}
		if hasViewer {
			following := followingMap[user.ID]
			followedBy := followedByMap[user.ID]
			payload.ViewerFollowing = following
			payload.ViewerFollowedBy = followedBy
			payload.Mutual = following && followedBy
		}
		users[i] = payload
	}

	var nextCursor *string
	if hasMore {
		cursor := formatFollowCursor(rows[len(rows)-1])
		nextCursor = &cursor
	}
	return users, nextCursor
}
