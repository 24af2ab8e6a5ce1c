package controllers

import "time"

type UserDTO struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	AvatarPath     string    `json:"avatar_path"`
	IsPrivate      bool      `json:"is_private"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type UserSummaryDTO struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	AvatarPath string `json:"avatar_path"`
}

type FollowUserDTO struct {
	UserDTO
	ViewerFollowing  bool `json:"viewer_following"`
	ViewerFollowedBy bool `json:"viewer_followed_by"`
	Mutual           bool `json:"mutual"`
}

type FollowRequestDTO struct {
	ID        uint           `json:"id"`
	Requester UserSummaryDTO `json:"requester"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

type NotificationDTO struct {
	ID             uint            `json:"id"`
	Type           string          `json:"type"`
	Requester      *UserSummaryDTO `json:"requester,omitempty"`
	PostID         *uint           `json:"post_id,omitempty"`
	CommentID      *uint           `json:"comment_id,omitempty"`
	CommentContent string          `json:"comment_content,omitempty"`
	MessageID      *uint           `json:"message_id,omitempty"`
	IsRead         bool            `json:"is_read"`
	CreatedAt      time.Time       `json:"created_at"`
}

type PostDTO struct {
	ID        string         `json:"id"`
	Author    UserSummaryDTO `json:"author"`
	Content   string         `json:"content"`
	ImagePath string         `json:"image_path"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type CommentDTO struct {
	ID        string         `json:"id"`
	Author    UserSummaryDTO `json:"author"`
	Body      string         `json:"body"`
	CreatedAt time.Time      `json:"created_at"`
}

type MessageDTO struct {
	ID             uint           `json:"id"`
	ConversationID string         `json:"conversation_id"`
	Sender         UserSummaryDTO `json:"sender"`
	Text           string         `json:"text"`
	CreatedAt      time.Time      `json:"created_at"`
}

type ConversationDTO struct {
	ID          string         `json:"id"`
	Counterpart UserSummaryDTO `json:"counterpart"`
	LastMessage string         `json:"last_message"`
	UnreadCount int64          `json:"unread_count"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type SimpleMessageResponse struct {
	Status   int    `json:"status"`
	Response string `json:"response"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
