package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type Like struct {
	ID        uint      `gorm:"primary_key;autoIncrement" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_unique" json:"user_id"`
	PostID    uint      `gorm:"not null;index;uniqueIndex:idx_likes_unique" json:"post_id"`
	User      User      `json:"user"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (l *Like) SaveLike(db *gorm.DB) (*Like, error) {
	// Check if the auth user has liked this post before:
	err := db.Where("post_id = ? AND user_id = ?", l.PostID, l.UserID).First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = db.Create(&l).Error
			if err != nil {
				return &Like{}, err
			}
		} else {
			return &Like{}, err
		}
	} else {
		err = errors.New("double like")
		return &Like{}, err
	}
	return l, nil
}

func (l *Like) DeleteLike(db *gorm.DB, uid, pid uint) (*Like, error) {
	var deleted Like
	err := db.Where("user_id = ? AND post_id = ?", uid, pid).First(&deleted).Error
	if err != nil {
		return nil, err
	}
	result := db.Where("id = ?", deleted.ID).Delete(&Like{})
	if result.Error != nil {
		return nil, result.Error
	}
	return &deleted, nil
}

func (l *Like) GetLikesInfo(db *gorm.DB, pid uint) (*[]Like, error) {
	likes := []Like{}
	err := db.Where("post_id = ?", pid).Find(&likes).Error
	if err != nil {
		return &[]Like{}, err
	}
	return &likes, err
}

// When a user is deleted, we also delete the likes that the user had
func (l *Like) DeleteUserLikes(db *gorm.DB, uid uint) (int64, error) {
	result := db.Where("user_id = ?", uid).Delete(&Like{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// When a post is deleted, we also delete the likes that the post had
func (l *Like) DeletePostLikes(db *gorm.DB, pid uint) (int64, error) {
	result := db.Where("post_id = ?", pid).Delete(&Like{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
