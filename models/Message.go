package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Message rows are append-only; nothing mutates them after creation.
type Message struct {
	ID             uint      `gorm:"primary_key;autoIncrement" json:"id"`
	ConversationID uint      `gorm:"not null;index:idx_messages_conversation_created,priority:1" json:"conversation_id"`
	SenderID       uint      `gorm:"not null" json:"sender_id"`
	Sender         User      `gorm:"foreignKey:SenderID" json:"sender"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index:idx_messages_conversation_created,priority:2" json:"created_at"`
}

// AppendMessage persists a message into the conversation and refreshes the
// conversation's last_message/updated_at in the same transaction. The id
// and timestamp are server-assigned; client timestamps are never the
// ordering key.
func AppendMessage(db *gorm.DB, conversationID, senderID uint, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	message := Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&Conversation{}, conversationID).Error; err != nil {
			return err
		}
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(&Conversation{}).
			Where("id = ?", conversationID).
			Updates(map[string]interface{}{
				"last_message": text,
				"updated_at":   time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// ListMessages pages through a pair's history in reverse-chronological
// order (callers reverse for display). A pair that has never talked gets
// an empty first page, not an error.
func ListMessages(db *gorm.DB, userA, userB uint, page, limit int) ([]Message, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	conversation, err := FindConversation(db, userA, userB)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []Message{}, nil
	}
	if err != nil {
		return nil, err
	}

	var messages []Message
	err = db.Preload("Sender").
		Where("conversation_id = ?", conversation.ID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
