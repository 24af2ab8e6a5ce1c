package controllers

import (
	"net/http"
	"strconv"

	"Linkup/models"
	"Linkup/utils/formaterror"
	httpctx "Linkup/utils/httpctx"

	"github.com/gin-gonic/gin"
)

// findPostByParam resolves a route parameter into a post. UUID-shaped
// values hit the public id; anything numeric falls back to the internal
// primary key.
func (server *Server) findPostByParam(param string) (*models.Post, error) {
	var post models.Post
	if isUUIDLike(param) {
		err := server.DB.Preload("Author").Where("public_id = ?", param).Take(&post).Error
		return &post, err
	}
	pid, err := strconv.ParseUint(param, 10, 32)
	if err != nil {
		return nil, err
	}
	return post.FindPostByID(server.DB, uint(pid))
}

// CreatePost godoc
// @Summary      Create a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        post  body      PostDTO  true  "Post payload"
// @Success      201   {object}  PostDTO
// @Failure      401   {object}  ErrorResponse
// @Failure      422   {object}  ErrorResponse
// @Router       /posts [post]
// @Security     BearerAuth
func (server *Server) CreatePost(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var post models.Post
	if err := c.ShouldBindJSON(&post); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot parse request body"})
		return
	}

	post.UserID = userID
	post.Prepare()
	errorMessages := post.Validate()
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errorMessages})
		return
	}

	postCreated, err := post.SavePost(server.DB)
	if err != nil {
		formattedError := formaterror.FormatError(err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"errors": formattedError})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": http.StatusCreated, "response": postToDTO(postCreated)})
}

// GetFeed godoc
// @Summary      Get the home feed
// @Description  Recent posts from users the authenticated user follows, plus their own
// @Tags         posts
// @Produce      json
// @Param        limit  query  int  false  "Max results (default 20, max 100)"
// @Success      200  {array}   PostDTO
// @Failure      401  {object}  ErrorResponse
// @Router       /posts/feed [get]
// @Security     BearerAuth
func (server *Server) GetFeed(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit := parseLimit(c.DefaultQuery("limit", "20"))
	post := models.Post{}
	posts, err := post.GetFeed(server.DB, userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching feed"})
		return
	}

	response := make([]PostDTO, len(*posts))
	for i := range *posts {
		response[i] = postToDTO(&(*posts)[i])
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": response})
}

// GetPost retrieves a single post
func (server *Server) GetPost(c *gin.Context) {
	post, err := server.findPostByParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": postToDTO(post)})
}

// GetUserPosts lists a user's posts, newest first
func (server *Server) GetUserPosts(c *gin.Context) {
	user, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	post := models.Post{}
	posts, err := post.GetUserPosts(server.DB, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching posts"})
		return
	}

	response := make([]PostDTO, len(*posts))
	for i := range *posts {
		response[i] = postToDTO(&(*posts)[i])
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": response})
}

// DeletePost deletes a post along with its comments and likes
func (server *Server) DeletePost(c *gin.Context) {
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
	if post.UserID != userID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	comment := models.Comment{}
	if _, err := comment.DeletePostComments(server.DB, post.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Please try again later"})
		return
	}
	like := models.Like{}
	if _, err := like.DeletePostLikes(server.DB, post.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Please try again later"})
		return
	}
	if _, err := post.DeleteAPost(server.DB); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Please try again later"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": "Post deleted"})
}
