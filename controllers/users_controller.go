package controllers

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"Linkup/cache"
	"Linkup/models"
	"Linkup/security"
	"Linkup/utils/fileformat"
	"Linkup/utils/formaterror"
	httpctx "Linkup/utils/httpctx"

	aws2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type BucketBasics struct {
	S3Client *s3.Client
}

// CreateUser handles user registration
func (server *Server) CreateUser(c *gin.Context) {
	var user models.User

	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user.Prepare()
	errorMessages := user.Validate("")
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errorMessages})
		return
	}

	userCreated, err := user.SaveUser(server.DB)
	if err != nil {
		formattedError := formaterror.FormatError(err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"errors": formattedError})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":   http.StatusCreated,
		"response": userToDTO(userCreated),
	})
}

// SearchUsers godoc
// @Summary      Search users by username
// @Tags         users
// @Produce      json
// @Param        q      query  string  true   "Substring to match"
// @Param        limit  query  int     false  "Max results"
// @Success      200  {array}  UserSummaryDTO
// @Router       /users/search [get]
// @Security     BearerAuth
func (server *Server) SearchUsers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing search query"})
		return
	}

	users, err := models.SearchUsers(server.DB, query, parseLimit(c.DefaultQuery("limit", "20")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error searching users"})
		return
	}

	response := make([]UserSummaryDTO, len(users))
	for i := range users {
		response[i] = userToSummaryDTO(&users[i])
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": response})
}

// GetUser retrieves a user by public ID or username
func (server *Server) GetUser(c *gin.Context) {
	user, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": userToDTO(user),
	})
}

// GetPublicUser returns the reduced profile shown to non-followers of a
// private account.
func (server *Server) GetPublicUser(c *gin.Context) {
	user, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": userToSummaryDTO(user),
	})
}

// UpdateAvatar allows a user to update their avatar image
func (server *Server) UpdateAvatar(c *gin.Context) {
	target, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	tokenID, ok := httpctx.CurrentUserID(c)
	if !ok || tokenID != target.ID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot open file"})
		return
	}
	defer f.Close()

	size := file.Size
	if size > 512_000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large (<500KB)"})
		return
	}

	buf := make([]byte, size)
	if _, err := f.Read(buf); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read file"})
		return
	}
	fileType := http.DetectContentType(buf)
	if !strings.HasPrefix(fileType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not an image"})
		return
	}

	// S3 key under the profile-pics prefix
	filePath := fileformat.UniqueFormat(file.Filename)
	key := "UserProfilePics/" + filePath

	rawBucket := os.Getenv("S3_BUCKET")
	bucketName := strings.SplitN(rawBucket, "/", 2)[0]
	if bucketName == "" {
		log.Printf("S3_BUCKET env var is empty or invalid: '%s'", rawBucket)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
		return
	}

	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	cfg, err := config.LoadDefaultConfig(
		context.TODO(),
		config.WithRegion(region),
	)
	if err != nil {
		log.Printf("AWS config load error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AWS configuration error"})
		return
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	_, err = s3Client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:        aws2.String(bucketName),
		Key:           aws2.String(key),
		Body:          bytes.NewReader(buf),
		ContentLength: aws2.Int64(size),
		ContentType:   aws2.String(fileType),
	})
	if err != nil {
		log.Printf("S3 upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	user := models.User{AvatarPath: filePath}
	updatedUser, err := user.UpdateAUserAvatar(server.DB, target.ID)
	if err != nil {
		log.Printf("DB update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cannot save image, please try again later"})
		return
	}

	updatedUser.AvatarPath = fmt.Sprintf(
		"https://%s.s3.%s.amazonaws.com/%s",
		bucketName,
		region,
		key,
	)

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": userToDTO(updatedUser)})
}

// UpdateUser allows a user to update their email, password and privacy
// setting. Usernames are immutable.
func (server *Server) UpdateUser(c *gin.Context) {
	target, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	tokenID, ok := httpctx.CurrentUserID(c)
	if !ok || tokenID != target.ID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var requestBody map[string]interface{}
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot parse request body"})
		return
	}

	formerUser := models.User{}
	err = server.DB.Model(&models.User{}).Where("id = ?", target.ID).Take(&formerUser).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	newUser := models.User{}
	newUser.Username = formerUser.Username

	if currentPassword, ok := requestBody["current_password"].(string); ok {
		newPassword, ok := requestBody["new_password"].(string)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "New password is required"})
			return
		}
		if len(newPassword) < 6 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password should be at least 6 characters"})
			return
		}
		if err := security.VerifyPassword(formerUser.Password, currentPassword); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
			return
		}
		newUser.Password = newPassword
	}

	if email, ok := requestBody["email"].(string); ok {
		newUser.Email = email
	} else {
		newUser.Email = formerUser.Email
	}

	newUser.Prepare()
	errorMessages := newUser.Validate("update")
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errorMessages})
		return
	}

	updatedUser, err := newUser.UpdateAUser(server.DB, target.ID)
	if err != nil {
		formattedError := formaterror.FormatError(err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"errors": formattedError})
		return
	}

	if isPrivate, ok := requestBody["is_private"].(bool); ok && isPrivate != formerUser.IsPrivate {
		err = server.DB.Model(&models.User{}).Where("id = ?", target.ID).
			Update("is_private", isPrivate).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating privacy setting"})
			return
		}
		updatedUser.IsPrivate = isPrivate
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": userToDTO(updatedUser),
	})
}

// DeleteUser deletes a user and their associated data
func (server *Server) DeleteUser(c *gin.Context) {
	target, err := resolveUserByIdentifier(server.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	tokenID, ok := httpctx.CurrentUserID(c)
	if !ok || tokenID != target.ID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := server.purgeUserData(target.ID); err != nil {
		log.Printf("failed to delete user %d: %v", target.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Please try again later"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": "User deleted",
	})
}

// purgeUserData removes a user together with their content and graph
// edges. Counters on surviving users are corrected inside the same
// transaction so the denormalized counts stay consistent with the edge
// table.
func (server *Server) purgeUserData(uid uint) error {
	return server.DB.Transaction(func(tx *gorm.DB) error {
		// Users who followed this account lose one "following".
		err := tx.Exec(
			"UPDATE users SET following_count = following_count - 1 WHERE id IN (SELECT follower_id FROM follows WHERE followed_id = ?)",
			uid,
		).Error
		if err != nil {
			return err
		}
		// Users this account followed lose one follower.
		err = tx.Exec(
			"UPDATE users SET followers_count = followers_count - 1 WHERE id IN (SELECT followed_id FROM follows WHERE follower_id = ?)",
			uid,
		).Error
		if err != nil {
			return err
		}
		if err := tx.Where("follower_id = ? OR followed_id = ?", uid, uid).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("requester_id = ? OR recipient_id = ?", uid, uid).Delete(&models.FollowRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR requester_id = ?", uid, uid).Delete(&models.Notification{}).Error; err != nil {
			return err
		}

		like := models.Like{}
		if _, err := like.DeleteUserLikes(tx, uid); err != nil {
			return err
		}
		comment := models.Comment{}
		if _, err := comment.DeleteUserComments(tx, uid); err != nil {
			return err
		}
		post := models.Post{}
		if _, err := post.DeleteUserPosts(tx, uid); err != nil {
			return err
		}

		user := models.User{}
		if _, err := user.DeleteAUser(tx, uid); err != nil {
			return err
		}
		return nil
	})
}

// CreateMention records a mention notification toward another user,
// typically when a post or comment tags them by username.
func (server *Server) CreateMention(c *gin.Context) {
	actorID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var body struct {
		Username  string `json:"username"`
		PostID    uint   `json:"post_id"`
		CommentID uint   `json:"comment_id"`
		Content   string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot parse request body"})
		return
	}

	mentioned, err := resolveUserByIdentifier(server.DB, body.Username)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if mentioned.ID == actorID {
		c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": "Mention skipped"})
		return
	}

	notification := models.NewMentionNotification(mentioned.ID, actorID, body.PostID, body.CommentID, body.Content)
	if err := notification.Record(server.DB); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error recording mention"})
		return
	}
	cache.InvalidateUnreadCount(context.Background(), mentioned.ID)

	c.JSON(http.StatusCreated, gin.H{"status": http.StatusCreated, "response": "Mention recorded"})
}
