package controllers

import (
	"Linkup/models"
)

func userToDTO(user *models.User) UserDTO {
	return UserDTO{
		ID:             user.PublicID,
		Username:       user.Username,
		Email:          user.Email,
		AvatarPath:     user.AvatarPath,
		IsPrivate:      user.IsPrivate,
		FollowersCount: int(user.FollowersCount),
		FollowingCount: int(user.FollowingCount),
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

func userToSummaryDTO(user *models.User) UserSummaryDTO {
	if user == nil {
		return UserSummaryDTO{}
	}
	return UserSummaryDTO{
		ID:         user.PublicID,
		Username:   user.Username,
		AvatarPath: user.AvatarPath,
	}
}

func followRequestToDTO(request *models.FollowRequest) FollowRequestDTO {
	return FollowRequestDTO{
		ID:        request.ID,
		Requester: userToSummaryDTO(&request.Requester),
		Status:    request.Status,
		CreatedAt: request.CreatedAt,
	}
}

func notificationToDTO(notification *models.Notification) NotificationDTO {
	dto := NotificationDTO{
		ID:             notification.ID,
		Type:           notification.Type,
		PostID:         notification.PostID,
		CommentID:      notification.CommentID,
		CommentContent: notification.CommentContent,
		MessageID:      notification.MessageID,
		IsRead:         notification.IsRead,
		CreatedAt:      notification.CreatedAt,
	}
	if notification.Requester != nil {
		summary := userToSummaryDTO(notification.Requester)
		dto.Requester = &summary
	}
	return dto
}

func postToDTO(post *models.Post) PostDTO {
	return PostDTO{
		ID:        post.PublicID,
		Author:    userToSummaryDTO(&post.Author),
		Content:   post.Content,
		ImagePath: post.ImagePath,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}

func commentToDTO(comment *models.Comment) CommentDTO {
	return CommentDTO{
		ID:        comment.PublicID,
		Author:    userToSummaryDTO(&comment.Author),
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}
}

func messageToDTO(message *models.Message, conversationPublicID string) MessageDTO {
	return MessageDTO{
		ID:             message.ID,
		ConversationID: conversationPublicID,
		Sender:         userToSummaryDTO(&message.Sender),
		Text:           message.Text,
		CreatedAt:      message.CreatedAt,
	}
}
