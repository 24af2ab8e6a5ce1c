package models

import (
	"errors"
	"strings"
	"time"

	"github.com/twinj/uuid"
	"gorm.io/gorm"
)

// Conversation pairs exactly two users. The pair is stored canonically
// (lower user id first) so the unique index makes lookup-or-create yield
// exactly one conversation per unordered pair, even under racing first
// contacts.
type Conversation struct {
	ID            uint      `gorm:"primary_key;autoIncrement" json:"id"`
	PublicID      string    `gorm:"type:uuid;uniqueIndex;column:public_id" json:"public_id"`
	ParticipantA  uint      `gorm:"not null;index;uniqueIndex:idx_conversations_pair" json:"participant_a"`
	ParticipantB  uint      `gorm:"not null;uniqueIndex:idx_conversations_pair" json:"participant_b"`
	LastMessage   string    `gorm:"type:text;not null;default:''" json:"last_message"`
	CreatedAt     time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) (err error) {
	if strings.TrimSpace(c.PublicID) == "" {
		c.PublicID = uuid.NewV4().String()
	}
	return nil
}

func canonicalPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// HasPair reports whether the conversation is between exactly these two
// users, in either order.
func (c *Conversation) HasPair(userA, userB uint) bool {
	low, high := canonicalPair(userA, userB)
	return c.ParticipantA == low && c.ParticipantB == high
}

// Counterpart returns the participant that is not userID.
func (c *Conversation) Counterpart(userID uint) uint {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// FindConversation looks up the conversation for an unordered pair.
// Returns gorm.ErrRecordNotFound when the pair has never talked.
func FindConversation(db *gorm.DB, userA, userB uint) (*Conversation, error) {
	low, high := canonicalPair(userA, userB)
	var conversation Conversation
	err := db.Where("participant_a = ? AND participant_b = ?", low, high).
		First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// FindOrCreateConversation returns the conversation for the pair, creating
// it on first contact. Two racing creators converge on the same row: the
// loser of the unique-index race re-reads the winner's conversation.
func FindOrCreateConversation(db *gorm.DB, userA, userB uint) (*Conversation, error) {
	if userA == userB {
		return nil, ErrSelfConversation
	}

	conversation, err := FindConversation(db, userA, userB)
	if err == nil {
		return conversation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	low, high := canonicalPair(userA, userB)
	created := Conversation{ParticipantA: low, ParticipantB: high}
	if err := db.Create(&created).Error; err != nil {
		// Most likely the unique pair index: someone else created it first.
		if existing, findErr := FindConversation(db, userA, userB); findErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return &created, nil
}

// ListConversations returns every conversation the user participates in,
// most recently active first.
func ListConversations(db *gorm.DB, userID uint) ([]Conversation, error) {
	var conversations []Conversation
	err := db.Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}
