package controllers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"Linkup/auth"
	"Linkup/mail"
	"Linkup/models"
	"Linkup/security"
	"Linkup/utils/formaterror"

	"github.com/gin-gonic/gin"
	"github.com/twinj/uuid"
)

// Login godoc
// @Summary      Log in
// @Description  Authenticate with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      map[string]string  true  "Login payload"
// @Success      200          {object}  SimpleMessageResponse
// @Failure      422          {object}  ErrorResponse
// @Router       /login [post]
func (server *Server) Login(c *gin.Context) {

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Unable to get request",
		})
		return
	}
	user := models.User{}
	err = json.Unmarshal(body, &user)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Cannot unmarshal body",
		})
		return
	}
	user.Prepare()
	errorMessages := user.Validate("login")
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errorMessages,
		})
		return
	}
	userData, err := server.SignIn(user.Email, user.Password)
	if err != nil {
		formattedError := formaterror.FormatError(err.Error())
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  formattedError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": userData,
	})
}

func (server *Server) SignIn(email, password string) (map[string]interface{}, error) {

	var err error

	userData := make(map[string]interface{})

	user := models.User{}

	normalizedEmail := strings.ToLower(email)
	err = server.DB.Model(models.User{}).Where("lower(email) = ?", normalizedEmail).Take(&user).Error
	if err != nil {
		return nil, err
	}
	// Any verification failure, mismatch or malformed hash, refuses the
	// login.
	if err = security.VerifyPassword(user.Password, password); err != nil {
		return nil, err
	}
	token, err := auth.CreateToken(user.ID)
	if err != nil {
		return nil, err
	}
	userData["token"] = token
	userData["id"] = user.PublicID
	userData["email"] = user.Email
	userData["avatar_path"] = user.AvatarPath
	userData["username"] = user.Username
	userData["is_private"] = user.IsPrivate
	userData["followers_count"] = user.FollowersCount
	userData["following_count"] = user.FollowingCount

	return userData, nil
}

// ForgotPassword godoc
// @Summary      Request a password reset
// @Description  Email a single-use reset token to the given address
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      map[string]string  true  "Email payload"
// @Success      200      {object}  SimpleMessageResponse
// @Failure      422      {object}  ErrorResponse
// @Router       /password/forgot [post]
func (server *Server) ForgotPassword(c *gin.Context) {

	user := models.User{}
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Cannot unmarshal body",
		})
		return
	}

	user.Prepare()
	errorMessages := user.Validate("forgotpassword")
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errorMessages,
		})
		return
	}

	err := server.DB.Model(models.User{}).Where("lower(email) = ?", strings.ToLower(user.Email)).Take(&user).Error
	if err != nil {
		// Do not reveal whether the address exists.
		c.JSON(http.StatusOK, gin.H{
			"status":   http.StatusOK,
			"response": "If the email exists, a reset link was sent",
		})
		return
	}

	resetPassword := models.ResetPassword{
		Email: user.Email,
		Token: uuid.NewV4().String(),
	}
	resetPassword.Prepare()
	if _, err := resetPassword.SaveDetails(server.DB); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error preparing reset token"})
		return
	}

	if err := mail.SendResetPassword(user.Email, resetPassword.Token); err != nil {
		log.Printf("failed to send reset email to %s: %v", user.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error sending reset email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": "If the email exists, a reset link was sent",
	})
}

// ResetPassword godoc
// @Summary      Reset password with a token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      map[string]string  true  "Token and new password"
// @Success      200      {object}  SimpleMessageResponse
// @Failure      422      {object}  ErrorResponse
// @Router       /password/reset [post]
func (server *Server) ResetPassword(c *gin.Context) {

	var body struct {
		Token          string `json:"token"`
		NewPassword    string `json:"new_password"`
		RetypePassword string `json:"retype_password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Cannot unmarshal body",
		})
		return
	}

	if body.Token == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Missing reset token"})
		return
	}
	if len(body.NewPassword) < 6 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Password should be at least 6 characters"})
		return
	}
	if body.RetypePassword != "" && body.NewPassword != body.RetypePassword {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Passwords do not match"})
		return
	}

	resetPassword := models.ResetPassword{}
	details, err := resetPassword.FindByToken(server.DB, body.Token)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid or expired reset token"})
		return
	}

	user := models.User{Email: details.Email, Password: body.NewPassword}
	if err := user.UpdatePassword(server.DB); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating password"})
		return
	}

	if _, err := details.DeleteDetails(server.DB); err != nil {
		log.Printf("failed to delete reset token for %s: %v", details.Email, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": "Password reset successfully",
	})
}
