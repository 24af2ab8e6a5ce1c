package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"Linkup/models"
	httpctx "Linkup/utils/httpctx"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetConversations godoc
// @Summary      List conversations
// @Description  Conversations for the authenticated user, most recently active first
// @Tags         messages
// @Produce      json
// @Success      200  {array}   ConversationDTO
// @Failure      401  {object}  ErrorResponse
// @Router       /messages/conversations [get]
// @Security     BearerAuth
func (server *Server) GetConversations(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conversations, err := models.ListConversations(server.DB, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching conversations"})
		return
	}

	unreadTotal, err := models.UnreadCount(server.DB, userID, models.NotificationMessage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error counting unread messages"})
		return
	}

	response := make([]ConversationDTO, 0, len(conversations))
	for i := range conversations {
		conversation := &conversations[i]

		counterpart := models.User{}
		counterpartUser, err := counterpart.FindUserByID(server.DB, conversation.Counterpart(userID))
		if err != nil {
			// The counterpart account was deleted; skip the shell.
			continue
		}

		unread, err := unreadMessagesFrom(server.DB, userID, counterpartUser.ID, conversation.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error counting unread messages"})
			return
		}

		response = append(response, ConversationDTO{
			ID:          conversation.PublicID,
			Counterpart: userToSummaryDTO(counterpartUser),
			LastMessage: conversation.LastMessage,
			UnreadCount: unread,
			UpdatedAt:   conversation.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"response": gin.H{
			"conversations": response,
			"unread_total":  unreadTotal,
		},
	})
}

// unreadMessagesFrom counts unread message notifications sent by the
// counterpart whose message rows live in the given conversation.
func unreadMessagesFrom(db *gorm.DB, userID, counterpartID, conversationID uint) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ? AND requester_id = ? AND is_read = ?",
			userID, models.NotificationMessage, counterpartID, false).
		Where("message_id IN (SELECT id FROM messages WHERE conversation_id = ?)", conversationID).
		Count(&count).Error
	return count, err
}

// CreateConversation godoc
// @Summary      Open a conversation
// @Description  Idempotent; returns the existing conversation for the pair if one exists
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        payload  body      map[string]string  true  "Counterpart user ID"
// @Success      201      {object}  ConversationDTO
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /messages/conversations [post]
// @Security     BearerAuth
func (server *Server) CreateConversation(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot parse request body"})
		return
	}

	counterpart, err := resolveUserByIdentifier(server.DB, body.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	conversation, err := models.FindOrCreateConversation(server.DB, userID, counterpart.ID)
	if err != nil {
		if errors.Is(err, models.ErrSelfConversation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot start a conversation with yourself"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating conversation"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": http.StatusCreated,
		"response": ConversationDTO{
			ID:          conversation.PublicID,
			Counterpart: userToSummaryDTO(counterpart),
			LastMessage: conversation.LastMessage,
			UpdatedAt:   conversation.UpdatedAt,
		},
	})
}

// GetMessages godoc
// @Summary      Get message history for a pair
// @Description  Reverse-chronological pages; a pair that never talked gets an empty page
// @Tags         messages
// @Produce      json
// @Param        user1  path   string  true   "First participant ID"
// @Param        user2  path   string  true   "Second participant ID"
// @Param        page   query  int     false  "Page (default 1)"
// @Param        limit  query  int     false  "Page size (default 30)"
// @Success      200  {array}   MessageDTO
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /messages/{user1}/{user2} [get]
// @Security     BearerAuth
func (server *Server) GetMessages(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userA, err := resolveUserByIdentifier(server.DB, c.Param("user1"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	userB, err := resolveUserByIdentifier(server.DB, c.Param("user2"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	// Only the participants can read the history.
	if userID != userA.ID && userID != userB.ID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit := parseLimit(c.DefaultQuery("limit", "30"))

	messages, err := models.ListMessages(server.DB, userA.ID, userB.ID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching messages"})
		return
	}

	conversationID := ""
	if conversation, err := models.FindConversation(server.DB, userA.ID, userB.ID); err == nil {
		conversationID = conversation.PublicID
	}

	response := make([]MessageDTO, len(messages))
	for i := range messages {
		response[i] = messageToDTO(&messages[i], conversationID)
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": response})
}
