package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	FollowRequestPending  = "pending"
	FollowRequestAccepted = "accepted"
	FollowRequestRejected = "rejected"
)

type FollowRequest struct {
	ID          uint      `gorm:"primary_key;autoIncrement" json:"id"`
	RequesterID uint      `gorm:"not null;index;uniqueIndex:idx_follow_requests_pair" json:"requester_id"`
	RecipientID uint      `gorm:"not null;index;uniqueIndex:idx_follow_requests_pair" json:"recipient_id"`
	Status      string    `gorm:"size:20;not null;default:pending" json:"status"`
	Requester   User      `gorm:"foreignKey:RequesterID" json:"requester"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// State machine per ordered (requester, recipient) pair:
// none -> pending -> accepted | rejected -> none. A resolved request is
// deleted the next time the requester asks again, so rejection never
// permanently blocks a fresh request. At most one row exists per pair.

// RequestFollow opens a pending request from requester to recipient.
// A still-pending request is a conflict (ErrDuplicateRequest); a prior
// accepted or rejected request is superseded.
func RequestFollow(db *gorm.DB, requesterID, recipientID uint) (*FollowRequest, error) {
	if requesterID == recipientID {
		return nil, ErrSelfFollow
	}

	request := FollowRequest{
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      FollowRequestPending,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&User{}, recipientID).Error; err != nil {
			return err
		}

		var existing FollowRequest
		err := tx.Where("requester_id = ? AND recipient_id = ?", requesterID, recipientID).
			First(&existing).Error
		if err == nil {
			if existing.Status == FollowRequestPending {
				return ErrDuplicateRequest
			}
			// Accepted or rejected: the pair is back in "none", clear the
			// old record so the unique index admits the fresh request.
			if err := tx.Delete(&FollowRequest{}, existing.ID).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(&request).Error
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// CancelFollowRequest withdraws the requester's pending request.
func CancelFollowRequest(db *gorm.DB, requesterID, recipientID uint) error {
	result := db.Where("requester_id = ? AND recipient_id = ? AND status = ?",
		requesterID, recipientID, FollowRequestPending).
		Delete(&FollowRequest{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// AcceptFollowRequest transitions the pending request from requesterID to
// recipientID into accepted, and creates the follow edge plus counter
// updates in the same transaction.
func AcceptFollowRequest(db *gorm.DB, recipientID, requesterID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&FollowRequest{}).
			Where("requester_id = ? AND recipient_id = ? AND status = ?",
				requesterID, recipientID, FollowRequestPending).
			Update("status", FollowRequestAccepted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRequestNotFound
		}

		follow := Follow{FollowerID: requesterID, FollowedID: recipientID}
		if err := tx.Create(&follow).Error; err != nil {
			return err
		}
		return applyFollowCounters(tx, requesterID, recipientID, +1)
	})
}

// RejectFollowRequest flips the pending request to rejected. No edge is
// created and no counters move.
func RejectFollowRequest(db *gorm.DB, recipientID, requesterID uint) error {
	result := db.Model(&FollowRequest{}).
		Where("requester_id = ? AND recipient_id = ? AND status = ?",
			requesterID, recipientID, FollowRequestPending).
		Update("status", FollowRequestRejected)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// PendingRequestsFor lists pending requests addressed to the recipient,
// newest first, with requester display data loaded.
func PendingRequestsFor(db *gorm.DB, recipientID uint) ([]FollowRequest, error) {
	var requests []FollowRequest
	err := db.Preload("Requester").
		Where("recipient_id = ? AND status = ?", recipientID, FollowRequestPending).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// RequestStatus returns the request record for the ordered pair, or nil
// when the pair is in the "none" state.
func RequestStatus(db *gorm.DB, requesterID, recipientID uint) (*FollowRequest, error) {
	var request FollowRequest
	err := db.Where("requester_id = ? AND recipient_id = ?", requesterID, recipientID).
		First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}
