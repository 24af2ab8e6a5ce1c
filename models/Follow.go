package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Follow struct {
	ID         uint      `gorm:"primary_key;autoIncrement" json:"id"`
	FollowerID uint      `gorm:"not null;index;uniqueIndex:idx_follows_unique;index:idx_follows_follower_created,priority:1" json:"follower_id"`
	FollowedID uint      `gorm:"not null;index;uniqueIndex:idx_follows_unique;index:idx_follows_followed_created,priority:1" json:"followed_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_follows_followed_created,priority:2;index:idx_follows_follower_created,priority:2" json:"created_at"`
}

// The follows table is the source of truth for the social graph. The
// followers_count/following_count columns on users are denormalized views
// of it and are only ever touched inside the same transaction as the edge
// write, so a crash cannot leave them out of step with committed edges.

// CreateFollowEdge inserts the follower->followed edge and bumps both
// users' counters. Returns ErrAlreadyFollowing when the edge exists.
func CreateFollowEdge(db *gorm.DB, followerID, followedID uint) (*Follow, error) {
	if followerID == followedID {
		return nil, ErrSelfFollow
	}

	follow := Follow{FollowerID: followerID, FollowedID: followedID}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&User{}, followedID).Error; err != nil {
			return err
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&follow)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyFollowing
		}

		return applyFollowCounters(tx, followerID, followedID, +1)
	})
	if err != nil {
		return nil, err
	}
	return &follow, nil
}

// DeleteFollowEdge removes the follower->followed edge and decrements both
// users' counters. Returns ErrFollowNotFound when no edge exists; nothing
// is mutated in that case.
func DeleteFollowEdge(db *gorm.DB, followerID, followedID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("follower_id = ? AND followed_id = ?", followerID, followedID).
			Delete(&Follow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrFollowNotFound
		}

		return applyFollowCounters(tx, followerID, followedID, -1)
	})
}

func applyFollowCounters(tx *gorm.DB, followerID, followedID uint, delta int) error {
	followingExpr := gorm.Expr("following_count + ?", delta)
	followersExpr := gorm.Expr("followers_count + ?", delta)
	if delta < 0 {
		followingExpr = gorm.Expr("MAX(following_count - 1, 0)")
		followersExpr = gorm.Expr("MAX(followers_count - 1, 0)")
		if tx.Dialector.Name() == "postgres" {
			followingExpr = gorm.Expr("GREATEST(following_count - 1, 0)")
			followersExpr = gorm.Expr("GREATEST(followers_count - 1, 0)")
		}
	}

	if err := tx.Model(&User{}).
		Where("id = ?", followerID).
		UpdateColumn("following_count", followingExpr).Error; err != nil {
		return err
	}
	return tx.Model(&User{}).
		Where("id = ?", followedID).
		UpdateColumn("followers_count", followersExpr).Error
}

// FollowExists reports whether follower currently follows followed.
func FollowExists(db *gorm.DB, followerID, followedID uint) (bool, error) {
	var follow Follow
	err := db.Select("id").
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		First(&follow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
