package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	NotificationLike           = "like"
	NotificationComment        = "comment"
	NotificationFollowRequest  = "follow-request"
	NotificationFollowAccepted = "follow-accepted"
	NotificationMessage        = "message"
	NotificationMention        = "mention"
)

// Notification rows are immutable after creation except for the is_read
// flag. One generic row shape backs every kind; the per-kind constructors
// below are the only way rows get built, so each kind carries exactly the
// fields it needs.
type Notification struct {
	ID             uint      `gorm:"primary_key;autoIncrement" json:"id"`
	UserID         uint      `gorm:"not null;index:idx_notifications_user_created,priority:1" json:"user_id"`
	Type           string    `gorm:"size:20;not null" json:"type"`
	RequesterID    *uint     `gorm:"index" json:"requester_id"`
	PostID         *uint     `json:"post_id"`
	CommentID      *uint     `json:"comment_id"`
	CommentContent string    `gorm:"type:text" json:"comment_content"`
	MessageID      *uint     `json:"message_id"`
	Requester      *User     `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index:idx_notifications_user_created,priority:2" json:"created_at"`
	IsRead         bool      `gorm:"not null;default:false" json:"is_read"`
}

func NewLikeNotification(recipientID, actorID, postID uint) *Notification {
	return &Notification{UserID: recipientID, Type: NotificationLike, RequesterID: &actorID, PostID: &postID}
}

func NewCommentNotification(recipientID, actorID, postID, commentID uint, content string) *Notification {
	return &Notification{
		UserID:         recipientID,
		Type:           NotificationComment,
		RequesterID:    &actorID,
		PostID:         &postID,
		CommentID:      &commentID,
		CommentContent: content,
	}
}

func NewFollowRequestNotification(recipientID, requesterID uint) *Notification {
	return &Notification{UserID: recipientID, Type: NotificationFollowRequest, RequesterID: &requesterID}
}

func NewFollowAcceptedNotification(requesterID, approverID uint) *Notification {
	return &Notification{UserID: requesterID, Type: NotificationFollowAccepted, RequesterID: &approverID}
}

func NewMessageNotification(recipientID, senderID, messageID uint) *Notification {
	return &Notification{UserID: recipientID, Type: NotificationMessage, RequesterID: &senderID, MessageID: &messageID}
}

func NewMentionNotification(recipientID, actorID, postID, commentID uint, content string) *Notification {
	n := &Notification{
		UserID:         recipientID,
		Type:           NotificationMention,
		RequesterID:    &actorID,
		CommentContent: content,
	}
	if postID != 0 {
		n.PostID = &postID
	}
	if commentID != 0 {
		n.CommentID = &commentID
	}
	return n
}

// Record appends the notification. Callers are responsible for the
// self-action check (no notification for acting on your own content).
func (n *Notification) Record(db *gorm.DB) error {
	return db.Create(n).Error
}

// ListUnread returns up to limit unread notifications for the user,
// newest first, with requester display data loaded.
func ListUnread(db *gorm.DB, userID uint, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 10
	}
	var notifications []Notification
	err := db.Preload("Requester").
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationRead flips is_read. Marking an already-read notification
// succeeds silently; only a missing record is an error.
func MarkNotificationRead(db *gorm.DB, notificationID uint) (*Notification, error) {
	var notification Notification
	if err := db.First(&notification, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	if notification.IsRead {
		return &notification, nil
	}
	if err := db.Model(&notification).Update("is_read", true).Error; err != nil {
		return nil, err
	}
	notification.IsRead = true
	return &notification, nil
}

// UnreadCount counts unread notifications for a user, optionally scoped
// to a single kind.
func UnreadCount(db *gorm.DB, userID uint, kind string) (int64, error) {
	query := db.Model(&Notification{}).Where("user_id = ? AND is_read = ?", userID, false)
	if kind != "" {
		query = query.Where("type = ?", kind)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}
