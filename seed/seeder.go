package seed

import (
	"log"

	"Linkup/controllers"
	"Linkup/models"

	"gorm.io/gorm"
)

var users = []models.User{
	{
		Username: "steven",
		Email:    "steven@example.com",
		Password: "password",
	},
	{
		Username: "martin",
		Email:    "luther@example.com",
		Password: "password",
	},
	{
		Username:  "ada",
		Email:     "ada@example.com",
		Password:  "password",
		IsPrivate: true,
	},
}

var posts = []models.Post{
	{
		Content: "First post. Testing the feed.",
	},
	{
		Content: "Hello from the seeder.",
	},
	{
		Content: "Private account, public thoughts.",
	},
}

// Load wipes and repopulates the development database with a small
// social graph: steven follows martin, martin follows steven back, and
// ada stays private with a pending request from steven.
func Load(db *gorm.DB) {
	err := db.Migrator().DropTable(
		&models.Message{}, &models.Conversation{}, &models.Notification{},
		&models.Like{}, &models.Comment{}, &models.Post{},
		&models.FollowRequest{}, &models.Follow{},
		&models.ResetPassword{}, &models.User{},
	)
	if err != nil {
		log.Fatalf("cannot drop tables: %v", err)
	}
	if err := controllers.MigrateAndEnsure(db); err != nil {
		log.Fatalf("cannot migrate tables: %v", err)
	}

	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			log.Fatalf("cannot seed users table: %v", err)
		}
		posts[i].UserID = users[i].ID
		if err := db.Create(&posts[i]).Error; err != nil {
			log.Fatalf("cannot seed posts table: %v", err)
		}
	}

	if _, err := models.CreateFollowEdge(db, users[0].ID, users[1].ID); err != nil {
		log.Fatalf("cannot seed follows table: %v", err)
	}
	if _, err := models.CreateFollowEdge(db, users[1].ID, users[0].ID); err != nil {
		log.Fatalf("cannot seed follows table: %v", err)
	}
	if _, err := models.RequestFollow(db, users[0].ID, users[2].ID); err != nil {
		log.Fatalf("cannot seed follow requests table: %v", err)
	}
}
