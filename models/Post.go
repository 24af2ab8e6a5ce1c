package models

import (
	"html"
	"strings"
	"time"

	"github.com/twinj/uuid"
	"gorm.io/gorm"
)

type Post struct {
	ID        uint      `gorm:"primary_key;autoIncrement" json:"id"`
	PublicID  string    `gorm:"type:uuid;uniqueIndex;column:public_id" json:"public_id"`
	UserID    uint      `gorm:"not null;index:idx_posts_user_created,priority:1" json:"user_id"`
	Author    User      `gorm:"foreignKey:UserID" json:"author"`
	Content   string    `gorm:"type:text" json:"content"`
	ImagePath string    `gorm:"size:255" json:"image_path"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_posts_user_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) (err error) {
	if strings.TrimSpace(p.PublicID) == "" {
		p.PublicID = uuid.NewV4().String()
	}
	return nil
}

func (p *Post) Prepare() {
	p.ID = 0
	p.Content = html.EscapeString(strings.TrimSpace(p.Content))
	p.Author = User{}
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
}

func (p *Post) Validate() map[string]string {
	var errorMessages = make(map[string]string)
	if p.Content == "" && p.ImagePath == "" {
		errorMessages["Required_content"] = "Post needs text or an image"
	}
	if p.UserID == 0 {
		errorMessages["Required_user"] = "User is required"
	}
	return errorMessages
}

func (p *Post) SavePost(db *gorm.DB) (*Post, error) {
	err := db.Create(&p).Error
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Post) FindPostByID(db *gorm.DB, pid uint) (*Post, error) {
	var post Post
	err := db.Preload("Author").First(&post, pid).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetUserPosts lists a single author's posts, newest first.
func (p *Post) GetUserPosts(db *gorm.DB, uid uint) (*[]Post, error) {
	posts := []Post{}
	err := db.Preload("Author").Where("user_id = ?", uid).
		Order("created_at desc").Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return &posts, nil
}

// GetFeed lists posts from the users uid follows plus uid's own posts,
// newest first.
func (p *Post) GetFeed(db *gorm.DB, uid uint, limit int) (*[]Post, error) {
	if limit <= 0 {
		limit = 50
	}
	posts := []Post{}
	err := db.Preload("Author").
		Where("user_id = ? OR user_id IN (?)", uid,
			db.Table("follows").Select("followed_id").Where("follower_id = ?", uid)).
		Order("created_at desc").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return &posts, nil
}

func (p *Post) DeleteAPost(db *gorm.DB) (int64, error) {
	result := db.Where("id = ?", p.ID).Delete(&Post{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// When a user is deleted, their posts go too.
func (p *Post) DeleteUserPosts(db *gorm.DB, uid uint) (int64, error) {
	result := db.Where("user_id = ?", uid).Delete(&Post{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
