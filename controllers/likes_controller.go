package controllers

import (
	"net/http"

	"Linkup/models"
	httpctx "Linkup/utils/httpctx"

	"github.com/gin-gonic/gin"
)

// GetLikes lists the likes on a post
func (server *Server) GetLikes(c *gin.Context) {
	post, err := server.findPostByParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	like := models.Like{}
	likes, err := like.GetLikesInfo(server.DB, post.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching likes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"response": gin.H{
			"count": len(*likes),
			"likes": likes,
		},
	})
}

// LikePost godoc
// @Summary      Like a post
// @Description  One like per user per post; the post author is notified
// @Tags         likes
// @Produce      json
// @Param        id   path      string  true  "Post ID"
// @Success      201  {object}  SimpleMessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /likes/posts/{id} [post]
// @Security     BearerAuth
func (server *Server) LikePost(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	post, err := server.findPostByParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	like := models.Like{UserID: userID, PostID: post.ID}
	likeCreated, err := like.SaveLike(server.DB)
	if err != nil {
		if err.Error() == "double like" {
			c.JSON(http.StatusConflict, gin.H{"error": "Post already liked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving like"})
		return
	}

	// No notification for liking your own post.
	if post.UserID != userID {
		server.notify(models.NewLikeNotification(post.UserID, userID, post.ID))
	}

	c.JSON(http.StatusCreated, gin.H{"status": http.StatusCreated, "response": likeCreated})
}

// UnlikePost removes the authenticated user's like from a post
func (server *Server) UnlikePost(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	post, err := server.findPostByParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	like := models.Like{}
	if _, err := like.DeleteLike(server.DB, userID, post.ID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Like not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": "Like removed"})
}
