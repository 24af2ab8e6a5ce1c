package controllers

import (
	"net/http"
	"strconv"

	"Linkup/models"
	"Linkup/utils/formaterror"
	httpctx "Linkup/utils/httpctx"

	"github.com/gin-gonic/gin"
)

// CreateComment godoc
// @Summary      Comment on a post
// @Description  The post author is notified unless they wrote the comment
// @Tags         comments
// @Accept       json
// @Produce      json
// @Param        id       path      string      true  "Post ID"
// @Param        comment  body      CommentDTO  true  "Comment payload"
// @Success      201      {object}  CommentDTO
// @Failure      401      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      422      {object}  ErrorResponse
// @Router       /posts/{id}/comments [post]
// @Security     BearerAuth
func (server *Server) CreateComment(c *gin.Context) {
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

	var comment models.Comment
	if err := c.ShouldBindJSON(&comment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot parse request body"})
		return
	}

	comment.UserID = userID
	comment.PostID = post.ID
	comment.Prepare()
	errorMessages := comment.Validate()
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errorMessages})
		return
	}

	commentCreated, err := comment.SaveComment(server.DB)
	if err != nil {
		formattedError := formaterror.FormatError(err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"errors": formattedError})
		return
	}

	// No notification for commenting on your own post.
	if post.UserID != userID {
		server.notify(models.NewCommentNotification(
			post.UserID, userID, post.ID, commentCreated.ID, commentCreated.Body,
		))
	}

	c.JSON(http.StatusCreated, gin.H{"status": http.StatusCreated, "response": commentToDTO(commentCreated)})
}

// GetComments lists the comments on a post, oldest first
func (server *Server) GetComments(c *gin.Context) {
	post, err := server.findPostByParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	comment := models.Comment{}
	comments, err := comment.GetComments(server.DB, post.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching comments"})
		return
	}

	response := make([]CommentDTO, len(*comments))
	for i := range *comments {
		response[i] = commentToDTO(&(*comments)[i])
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": response})
}

// DeleteComment removes a comment written by the authenticated user
func (server *Server) DeleteComment(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var comment models.Comment
	param := c.Param("id")
	if isUUIDLike(param) {
		if err := server.DB.Where("public_id = ?", param).Take(&comment).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
			return
		}
	} else {
		cid, err := strconv.ParseUint(param, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
			return
		}
		if err := server.DB.Take(&comment, uint(cid)).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
			return
		}
	}

	if comment.UserID != userID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if _, err := comment.DeleteAComment(server.DB); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Please try again later"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": "Comment deleted"})
}
